package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/supplydeck/supplydeck/internal/config"
	"github.com/supplydeck/supplydeck/internal/fixtures"
	"github.com/supplydeck/supplydeck/internal/retrieval"
)

// --- ask ---

var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Ask the chat assistant and stream the answer",
	Long: `Ask the chat assistant and stream the answer.

Examples:
  supplydeck ask "Why is SHP_2000 delayed?"
  supplydeck ask --tab 3 --role planner "Which scenario hurts the EU corridor most?"`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		question := strings.Join(args, " ")
		tab, _ := cmd.Flags().GetInt("tab")
		role, _ := cmd.Flags().GetString("role")
		entity, _ := cmd.Flags().GetString("entity")
		item, _ := cmd.Flags().GetString("item")
		scenario, _ := cmd.Flags().GetString("scenario")

		client, err := newAPIClient()
		if err != nil {
			return err
		}

		body := map[string]any{
			"messages": []map[string]string{{"role": "user", "content": question}},
			"tabId":    tab,
			"role":     role,
		}
		if entity != "" {
			body["selectedEntityId"] = entity
		}
		if item != "" {
			body["selectedItemId"] = item
		}
		if scenario != "" {
			body["selectedScenarioId"] = scenario
		}

		resp, err := client.post(cmd.Context(), "/api/chat", body)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 400 {
			msg, err := io.ReadAll(resp.Body)
			if err != nil {
				return fmt.Errorf("server returned %d", resp.StatusCode)
			}
			return fmt.Errorf("server returned %d: %s", resp.StatusCode, string(msg))
		}

		// Relay fragments to the terminal as they arrive.
		buf := make([]byte, 4096)
		for {
			n, err := resp.Body.Read(buf)
			if n > 0 {
				os.Stdout.Write(buf[:n])
			}
			if err != nil {
				if err != io.EOF {
					return fmt.Errorf("reading stream: %w", err)
				}
				break
			}
		}
		fmt.Println()
		return nil
	},
}

func init() {
	askCmd.Flags().Int("tab", 1, "dashboard tab providing the context (1-3)")
	askCmd.Flags().String("role", "dispatcher", "persona role for the assistant")
	askCmd.Flags().String("entity", "", "selected entity id")
	askCmd.Flags().String("item", "", "selected item id")
	askCmd.Flags().String("scenario", "", "selected scenario id")
}

// --- docs ---

var docsCmd = &cobra.Command{
	Use:   "docs",
	Short: "Work with the operational document library",
}

var docsSearchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Keyword-search the document library",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		searchQuery := strings.Join(args, " ")
		top, _ := cmd.Flags().GetInt("top")

		// Runs against the fixture tree directly; no server required.
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		store, err := fixtures.Open(cfg.Data.FixtureDir)
		if err != nil {
			return fmt.Errorf("opening fixture store: %w", err)
		}

		docs := retrieval.NewRetriever(store, cfg.Retrieval.MaxDocChars)
		snippets := docs.Retrieve(searchQuery, top)
		if len(snippets) == 0 {
			fmt.Println("No matching documents.")
			return nil
		}

		for i, s := range snippets {
			fmt.Printf("\n%s %s\n", colorize(colorBold, fmt.Sprintf("Result %d", i+1)), colorize(colorCyan, "["+s.DocID+"]"))
			content := s.Content
			if len(content) > 500 {
				content = content[:500] + "..."
			}
			fmt.Printf("  %s\n", content)
		}
		return nil
	},
}

func init() {
	docsSearchCmd.Flags().Int("top", 3, "maximum number of documents")
	docsCmd.AddCommand(docsSearchCmd)
}

// --- config ---

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or update configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}

		for _, k := range config.ShowAll(cfg) {
			fmt.Printf("  %s = %s\n", colorize(colorBold, k.Key), k.Value)
		}
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, value := args[0], args[1]

		if err := config.SetKey(key, value); err != nil {
			printWarning("valid keys: %s", strings.Join(config.ValidKeys(), ", "))
			return err
		}

		printSuccess("Set %s = %s", key, value)
		return nil
	},
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
}

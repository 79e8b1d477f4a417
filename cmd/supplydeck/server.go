package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/mark3labs/mcp-go/server"
	slogmulti "github.com/samber/slog-multi"
	"github.com/spf13/cobra"

	"github.com/supplydeck/supplydeck/internal/api"
	"github.com/supplydeck/supplydeck/internal/composer"
	"github.com/supplydeck/supplydeck/internal/config"
	"github.com/supplydeck/supplydeck/internal/fixtures"
	"github.com/supplydeck/supplydeck/internal/proxy"
	"github.com/supplydeck/supplydeck/internal/query"
	"github.com/supplydeck/supplydeck/internal/retrieval"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the supplydeck server (foreground)",
	RunE: func(cmd *cobra.Command, args []string) error {
		withMCP, _ := cmd.Flags().GetBool("mcp")
		return runServer(withMCP)
	},
}

var stopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the running supplydeck server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return stopServer()
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show supplydeck system status",
	RunE: func(cmd *cobra.Command, args []string) error {
		return showStatus()
	},
}

func init() {
	serveCmd.Flags().Bool("mcp", false, "also expose the MCP server on stdio")
}

func pidFilePath(runDir string) string {
	return filepath.Join(runDir, "supplydeck.pid")
}

func writePIDFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(strconv.Itoa(os.Getpid())), 0o644)
}

func readPIDFile(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(strings.TrimSpace(string(data)))
}

// setupLogging installs the default logger: text to stderr, plus a JSON
// copy to the configured log file when one is set. The returned cleanup
// closes the file.
func setupLogging(cfg config.LogConfig) (func(), error) {
	level := slog.LevelInfo
	switch strings.ToLower(cfg.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	stderrHandler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	if cfg.File == "" {
		slog.SetDefault(slog.New(stderrHandler))
		return func() {}, nil
	}

	if err := os.MkdirAll(filepath.Dir(cfg.File), 0o755); err != nil {
		return nil, fmt.Errorf("creating log directory: %w", err)
	}
	file, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening log file: %w", err)
	}
	fileHandler := slog.NewJSONHandler(file, &slog.HandlerOptions{Level: level})
	slog.SetDefault(slog.New(slogmulti.Fanout(stderrHandler, fileHandler)))
	return func() { file.Close() }, nil
}

func runServer(withMCP bool) error {
	fmt.Fprintf(os.Stderr, "supplydeck version %s\n", version)

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	cleanup, err := setupLogging(cfg.Log)
	if err != nil {
		return err
	}
	defer cleanup()

	// Double-start guard: probe the health endpoint before claiming the
	// PID file.
	pidPath := pidFilePath(cfg.Data.RunDir)
	healthURL := fmt.Sprintf("http://127.0.0.1:%d/health", cfg.Server.Port)
	healthClient := &http.Client{Timeout: 2 * time.Second}
	if resp, err := healthClient.Get(healthURL); err == nil {
		resp.Body.Close()
		if pid, pidErr := readPIDFile(pidPath); pidErr == nil {
			printWarning("supplydeck is already running (PID %d)", pid)
			return fmt.Errorf("server already running (PID %d)", pid)
		}
		printWarning("supplydeck is already running on port %d", cfg.Server.Port)
		return fmt.Errorf("server already running on port %d", cfg.Server.Port)
	}
	if err := writePIDFile(pidPath); err != nil {
		return fmt.Errorf("writing PID file: %w", err)
	}
	defer os.Remove(pidPath)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := fixtures.Open(cfg.Data.FixtureDir)
	if err != nil {
		return fmt.Errorf("opening fixture store: %w", err)
	}

	queries := query.NewService(store)
	docs := retrieval.NewRetriever(store, cfg.Retrieval.MaxDocChars)
	builder := composer.NewBuilder(queries, docs, cfg.Retrieval.TopN)

	var completions *proxy.Client
	if cfg.OpenAI.APIKey != "" {
		completions = proxy.NewClientWithBaseURL(cfg.OpenAI.APIKey, cfg.OpenAI.BaseURL)
	} else {
		slog.Warn("no completion API key configured; chat endpoint will answer 503")
	}

	handler := api.NewHandler(api.Deps{
		Store:       store,
		Queries:     queries,
		Builder:     builder,
		Completions: completions,
		Model:       cfg.OpenAI.Model,
	})

	addr := fmt.Sprintf("127.0.0.1:%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: handler,
	}

	if withMCP {
		mcpSrv := api.NewMCPServer(queries, docs)
		stdioSrv := server.NewStdioServer(mcpSrv)
		go func() {
			if err := stdioSrv.Listen(ctx, os.Stdin, os.Stdout); err != nil && !errors.Is(err, context.Canceled) {
				slog.Error("MCP stdio server error", "error", err)
			}
		}()
		slog.Info("MCP server started (stdio transport)")
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("supplydeck listening", "addr", addr, "fixtures", store.Root())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		slog.Info("shutting down")
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func stopServer() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	pidPath := pidFilePath(cfg.Data.RunDir)
	pid, err := readPIDFile(pidPath)
	if err != nil {
		printError("supplydeck is not running (no PID file)")
		return fmt.Errorf("not running: %w", err)
	}

	process, err := os.FindProcess(pid)
	if err != nil {
		printError("could not find process %d", pid)
		return err
	}

	if err := process.Signal(syscall.SIGTERM); err != nil {
		printError("could not stop supplydeck (PID %d): %v", pid, err)
		os.Remove(pidPath)
		return err
	}

	printSuccess("Sent stop signal to supplydeck (PID %d)", pid)
	return nil
}

func showStatus() error {
	cfg, err := config.Load()
	if err != nil {
		printError("config error: %v", err)
		return nil
	}

	serverURL := fmt.Sprintf("http://127.0.0.1:%d", cfg.Server.Port)
	client := &http.Client{Timeout: 2 * time.Second}

	resp, err := client.Get(serverURL + "/health")
	if err != nil {
		printStatus("Server", "stopped")
	} else {
		resp.Body.Close()
		if resp.StatusCode == http.StatusOK {
			printStatus("Server", "running on port %d", cfg.Server.Port)
		} else {
			printStatus("Server", "error (HTTP %d)", resp.StatusCode)
		}
	}

	if cfg.OpenAI.APIKey != "" {
		printStatus("Chat", "configured (model %s)", cfg.OpenAI.Model)
	} else {
		printStatus("Chat", "disabled (no API key)")
	}

	// Fixture counts come straight from disk; the server need not be up.
	store, err := fixtures.Open(cfg.Data.FixtureDir)
	if err != nil {
		printStatus("Fixtures", "unavailable (%v)", err)
	} else {
		queries := query.NewService(store)
		if shipments, err := queries.Shipments(query.ShipmentFilter{Limit: 2000}); err == nil {
			printStatus("Shipments", "%d", len(shipments))
		}
		if entities, err := queries.Entities(query.EntityTypes); err == nil {
			printStatus("Entities", "%d", len(entities))
		}
		printStatus("Fixture dir", "%s", store.Root())
	}

	return nil
}

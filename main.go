package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"harcurl/internal/config"
	"harcurl/internal/curl"
	"harcurl/internal/oracle"
	"harcurl/internal/pipeline"
	"harcurl/internal/server"
)

var (
	flagConfig  string
	flagHost    string
	flagPort    int
	flagVerbose bool
)

func main() {
	root := &cobra.Command{
		Use:   "harcurl",
		Short: "Turn HAR captures into replayable curl commands",
		Long:  "harcurl extracts the one API request you mean from a browser HAR capture, renders it as a credential-masked curl command, and can replay it.",
	}
	root.PersistentFlags().StringVarP(&flagConfig, "config", "c", "", "Path to YAML config file")
	root.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "Enable verbose logging")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API server",
		RunE:  runServe,
	}
	serveCmd.Flags().StringVar(&flagHost, "host", "", "Bind host (overrides config)")
	serveCmd.Flags().IntVar(&flagPort, "port", 0, "Listen port (overrides config)")

	var analyzeDesc string
	analyzeCmd := &cobra.Command{
		Use:   "analyze <file.har>",
		Short: "Extract a curl command from a HAR file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnalyze(cmd.Context(), args[0], analyzeDesc)
		},
	}
	analyzeCmd.Flags().StringVarP(&analyzeDesc, "description", "d", "", "Description of the API request to find (required)")
	analyzeCmd.MarkFlagRequired("description")

	execCmd := &cobra.Command{
		Use:   "exec <command-file|->",
		Short: "Replay a curl command and print the result as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExec(cmd.Context(), args[0])
		},
	}

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println("harcurl " + server.Version)
		},
	}

	root.AddCommand(serveCmd, analyzeCmd, execCmd, versionCmd)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return nil, err
	}
	if flagVerbose {
		cfg.Verbose = true
	}
	setupLogging(cfg.Verbose)
	return cfg, nil
}

func setupLogging(verbose bool) {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}

func newSelector(cfg *config.Config) oracle.Selector {
	return oracle.NewOpenAISelector(
		cfg.OpenAIAPIKey,
		cfg.OpenAIModel,
		cfg.OpenAITemperature,
		cfg.OpenAIMaxTokens,
		cfg.OracleTimeout,
	)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if flagHost != "" {
		cfg.Host = flagHost
	}
	if flagPort != 0 {
		cfg.Port = flagPort
	}
	if cfg.OpenAIAPIKey == "" {
		return fmt.Errorf("no OpenAI API key configured; set OPENAI_API_KEY")
	}

	srv := server.New(cfg, newSelector(cfg))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		fmt.Fprintln(os.Stderr, "\nShutting down...")
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(ctx)
	}()

	slog.Info("harcurl starting", "host", cfg.Host, "port", cfg.Port)
	if err := srv.ListenAndServe(); err != nil && err.Error() != "http: Server closed" {
		return err
	}
	return nil
}

func runAnalyze(ctx context.Context, path, description string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.OpenAIAPIKey == "" {
		return fmt.Errorf("no OpenAI API key configured; set OPENAI_API_KEY")
	}

	archive, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read archive: %w", err)
	}

	p := pipeline.New(cfg, newSelector(cfg))
	result, err := p.Run(ctx, archive, description)
	if err != nil {
		return err
	}

	fmt.Println(result.Command.Text)
	fmt.Fprintf(os.Stderr, "\n# analyzed %d requests; selected %s %s (status %d, confidence %.2f)\n",
		result.TotalAnalyzed, result.Exchange.Method, result.Exchange.URL,
		result.Exchange.Status, result.Confidence)
	return nil
}

func runExec(ctx context.Context, path string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	var command []byte
	if path == "-" {
		command, err = io.ReadAll(os.Stdin)
	} else {
		command, err = os.ReadFile(path)
	}
	if err != nil {
		return fmt.Errorf("read command: %w", err)
	}

	result := curl.Execute(ctx, string(command), cfg.ExecTimeout)
	out, _ := json.MarshalIndent(result, "", "  ")
	fmt.Println(string(out))
	if !result.Success {
		os.Exit(1)
	}
	return nil
}

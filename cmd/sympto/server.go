package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/soundprediction/sympto/pkg/config"
	"github.com/soundprediction/sympto/pkg/server"
)

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the sympto HTTP server",
	Long: `Start the sympto HTTP server to provide REST API access to diagnosis.

The server provides endpoints for:
- Diagnosing symptom descriptions
- Extracting symptoms from text
- Browsing the disease-symptom knowledge graph
- Health checks

Configuration can be provided through config files, environment variables, or command-line flags.`,
	RunE: runServer,
}

var (
	serverHost string
	serverPort int
	serverMode string
)

func init() {
	rootCmd.AddCommand(serverCmd)

	serverCmd.Flags().StringVar(&serverHost, "host", "localhost", "Server host")
	serverCmd.Flags().IntVar(&serverPort, "port", 8080, "Server port")
	serverCmd.Flags().StringVar(&serverMode, "mode", "debug", "Server mode (debug, release, test)")

	serverCmd.Flags().String("graph-driver", "", "Graph driver (memory, neo4j)")
	serverCmd.Flags().String("graph-uri", "", "Neo4j URI")
	serverCmd.Flags().String("engine", "", "Default diagnosis engine (graph, classifier, hybrid)")
	serverCmd.Flags().String("model", "", "Trained classifier model path")
	serverCmd.Flags().String("telemetry-parquet-path", "", "Directory for Parquet error telemetry")
}

func runServer(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	overrideServerConfig(cmd, cfg)

	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		return fmt.Errorf("invalid port: %d", cfg.Server.Port)
	}

	log := newLogger(cfg)

	store, err := newStore(cfg)
	if err != nil {
		return err
	}

	if err := ensureGraph(cmd, cfg, store); err != nil {
		return err
	}

	client, err := newDiagnoser(cfg, store, log)
	if err != nil {
		return err
	}
	defer client.Close(context.Background())

	srv := server.New(cfg, client, store, log)
	srv.Setup()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	serverErrChan := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil {
			serverErrChan <- err
		}
	}()

	select {
	case err := <-serverErrChan:
		return fmt.Errorf("server error: %w", err)
	case sig := <-sigChan:
		fmt.Printf("\nReceived signal: %v\n", sig)

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := srv.Stop(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown error: %w", err)
		}

		fmt.Println("Server stopped gracefully")
		return nil
	}
}

func overrideServerConfig(cmd *cobra.Command, cfg *config.Config) {
	if cmd.Flags().Changed("host") {
		cfg.Server.Host = serverHost
	}
	if cmd.Flags().Changed("port") {
		cfg.Server.Port = serverPort
	}
	if cmd.Flags().Changed("mode") {
		cfg.Server.Mode = serverMode
	}
	if v, _ := cmd.Flags().GetString("graph-driver"); v != "" {
		cfg.Graph.Driver = v
	}
	if v, _ := cmd.Flags().GetString("graph-uri"); v != "" {
		cfg.Graph.URI = v
	}
	if v, _ := cmd.Flags().GetString("engine"); v != "" {
		cfg.Diagnosis.Engine = v
	}
	if v, _ := cmd.Flags().GetString("model"); v != "" {
		cfg.Classifier.ModelPath = v
	}
	if v, _ := cmd.Flags().GetString("telemetry-parquet-path"); v != "" {
		cfg.Telemetry.ParquetPath = v
	}
}

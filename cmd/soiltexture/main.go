package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mimir-aip/soil-texture/pkg/classifier"
	"github.com/mimir-aip/soil-texture/pkg/config"
	"github.com/mimir-aip/soil-texture/pkg/logging"
	"github.com/mimir-aip/soil-texture/pkg/metadatastore"
)

var (
	// Global flags
	configFile  string
	datasetPath string
	logLevel    string
	jsonOutput  bool

	// Populated by PersistentPreRunE
	cfg    *config.Config
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "soiltexture",
	Short: "Soil texture classifier with crop recommendations",
	Long: `soiltexture trains a random forest on a clay/silt/sand dataset,
predicts the texture class of a soil sample and prints the matching
crop and soil management recommendations.

Configuration comes from a YAML file (--config or SOIL_CONFIG_FILE)
overridden by environment variables and then by flags.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if configFile == "" {
			configFile = os.Getenv("SOIL_CONFIG_FILE")
		}
		loaded, err := config.Load(configFile)
		if err != nil {
			return err
		}
		if datasetPath != "" {
			loaded.DatasetPath = datasetPath
		}
		if logLevel != "" {
			loaded.LogLevel = logLevel
		}
		cfg = loaded

		logger, err = logging.New(cfg.LogLevel, cfg.LogFormat, "soiltexture")
		if err != nil {
			return err
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "YAML config file (or set SOIL_CONFIG_FILE)")
	rootCmd.PersistentFlags().StringVar(&datasetPath, "dataset", "", "Dataset CSV path (overrides DATASET_PATH)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Print results as JSON")

	predictCmd.Flags().Float64Var(&clayPct, "clay", 25, "Clay percentage")
	predictCmd.Flags().Float64Var(&siltPct, "silt", 30, "Silt percentage")
	predictCmd.Flags().Float64Var(&sandPct, "sand", 45, "Sand percentage")

	rootCmd.AddCommand(trainCmd)
	rootCmd.AddCommand(predictCmd)
	rootCmd.AddCommand(recommendCmd)
	rootCmd.AddCommand(texturesCmd)
	rootCmd.AddCommand(serveCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// trainService trains a classifier from the configured dataset
func trainService() (*classifier.Service, error) {
	return classifier.Train(classifier.TrainOptions{
		DatasetPath: cfg.DatasetPath,
		Dataset:     cfg.DatasetOptions(),
		Training:    cfg.Training,
	}, logger)
}

// openHistory opens the history store, or returns nil when it is disabled
func openHistory() (*metadatastore.SQLiteStore, error) {
	if cfg.HistoryDBPath == "" {
		return nil, nil
	}
	store, err := metadatastore.NewSQLiteStore(cfg.HistoryDBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open history store: %w", err)
	}
	logger.Info("history store opened", zap.String("path", cfg.HistoryDBPath))
	return store, nil
}

package commands

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	flagSchema   string
	flagWorkers  int
	flagFormat   string
	flagOutput   string
	flagLogLevel string
)

var rootCmd = &cobra.Command{
	Use:   "featurize",
	Short: "Structural feature extraction from files for ML pipelines",
	Long: `Featurize inspects files, identifies their container format by magic
signature, decodes each format's internal binary structure, and emits a
uniform, schema-complete feature record per file for classification and
malware screening pipelines.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level, err := logrus.ParseLevel(flagLogLevel)
		if err != nil {
			return err
		}
		logrus.SetLevel(level)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagSchema, "schema", "", "Feature schema YAML file (default: built-in schema)")
	rootCmd.PersistentFlags().IntVar(&flagWorkers, "workers", 0, "Number of worker goroutines (default: NumCPU)")
	rootCmd.PersistentFlags().StringVar(&flagFormat, "format", "csv", "Output format (csv, json)")
	rootCmd.PersistentFlags().StringVarP(&flagOutput, "output", "o", "", "Output file path (default: stdout)")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "info", "Log level (debug, info, warn, error)")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

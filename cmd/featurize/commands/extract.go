package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"

	featurize "github.com/imno34/Ransomware-files-ML-Detection"
	"github.com/imno34/Ransomware-files-ML-Detection/internal/output"
)

var flagTimeout time.Duration

var extractCmd = &cobra.Command{
	Use:   "extract [path]",
	Short: "Extract feature records from a file or directory",
	Args:  cobra.ExactArgs(1),
	RunE:  runExtract,
}

func init() {
	extractCmd.Flags().DurationVar(&flagTimeout, "file-timeout", 0, "Per-file processing deadline (0 disables)")
	rootCmd.AddCommand(extractCmd)
}

func runExtract(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	opts := []featurize.Option{
		featurize.WithWorkers(flagWorkers),
	}
	if flagSchema != "" {
		opts = append(opts, featurize.WithSchemaFile(flagSchema))
	}
	if flagTimeout > 0 {
		opts = append(opts, featurize.WithPerFileTimeout(flagTimeout))
	}

	batch, err := featurize.ExtractDir(ctx, args[0], opts...)
	if err != nil {
		return err
	}

	formatter, err := output.New(flagFormat)
	if err != nil {
		return err
	}

	var w io.Writer = os.Stdout
	if flagOutput != "" {
		f, err := os.Create(flagOutput)
		if err != nil {
			return fmt.Errorf("creating %s: %w", flagOutput, err)
		}
		defer f.Close()
		w = f
	}
	return formatter.Format(w, batch)
}

package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	featurize "github.com/imno34/Ransomware-files-ML-Detection"
)

var sniffCmd = &cobra.Command{
	Use:   "sniff <file>...",
	Short: "Identify the container format of files by magic signature",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var opts []featurize.Option
		if flagSchema != "" {
			opts = append(opts, featurize.WithSchemaFile(flagSchema))
		}
		for _, path := range args {
			res, err := featurize.SniffFile(path, opts...)
			if err != nil {
				return err
			}
			fmt.Printf("%s: family=%s magic_ok=%v magic_family=%s size=%d\n",
				path, res.FormatFamily, res.MagicOK, res.MagicFamily, res.SizeBytes)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(sniffCmd)
}

package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	featurize "github.com/imno34/Ransomware-files-ML-Detection"
)

var familiesCmd = &cobra.Command{
	Use:   "families",
	Short: "List format families with a structural parser",
	Run: func(cmd *cobra.Command, args []string) {
		for _, fam := range featurize.Families() {
			fmt.Println(fam)
		}
	},
}

func init() {
	rootCmd.AddCommand(familiesCmd)
}

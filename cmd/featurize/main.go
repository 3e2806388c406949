package main

import (
	"os"

	"github.com/imno34/Ransomware-files-ML-Detection/cmd/featurize/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(2)
	}
}

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:          "rag-compact",
	Short:        "Offline tools for preparing the flat vector index",
	SilenceUsage: true,
	Long: `rag-compact converts metadata files that still carry per-entry
embeddings into the artifacts the answer service loads at startup.`,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

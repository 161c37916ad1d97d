package main

import (
	"compress/gzip"
	"fmt"
	"io"
	"os"

	"github.com/povarna/generative-ai-agents/rag-agent/internal/index"
	"github.com/spf13/cobra"
)

var (
	flagStripIn   string
	flagStripOut  string
	flagStripGzip bool
)

var stripCmd = &cobra.Command{
	Use:   "strip",
	Short: "Remove embeddings from a metadata file",
	Long: `Copy a metadata JSON array (plain or gzipped) without the
"embedding" field of each entry. Every other field is kept.

Example:
  rag-compact strip --in metadatas.json --out metadatas.json.gz --gzip`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		stats, err := runStrip(flagStripIn, flagStripOut, flagStripGzip)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%d entries written, %d embeddings removed\n", stats.Entries, stats.Stripped)
		return nil
	},
}

func init() {
	stripCmd.Flags().StringVar(&flagStripIn, "in", "", "Input metadata file")
	stripCmd.Flags().StringVar(&flagStripOut, "out", "", "Output metadata file")
	stripCmd.Flags().BoolVar(&flagStripGzip, "gzip", false, "Gzip the output")
	_ = stripCmd.MarkFlagRequired("in")
	_ = stripCmd.MarkFlagRequired("out")
	rootCmd.AddCommand(stripCmd)
}

func runStrip(in string, out string, gz bool) (index.CompactStats, error) {
	src, err := os.Open(in)
	if err != nil {
		return index.CompactStats{}, fmt.Errorf("Unable to open %s. Error: %w", in, err)
	}
	defer src.Close()

	var stats index.CompactStats
	err = writeFile(out, gz, func(w io.Writer) error {
		var err error
		stats, err = index.StripEmbeddings(src, w)
		return err
	})
	return stats, err
}

// writeFile creates path and removes it again when write fails.
func writeFile(path string, gz bool, write func(w io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("Unable to create %s. Error: %w", path, err)
	}

	werr := func() error {
		if !gz {
			return write(f)
		}
		zw := gzip.NewWriter(f)
		if err := write(zw); err != nil {
			return err
		}
		return zw.Close()
	}()
	cerr := f.Close()

	if werr == nil {
		werr = cerr
	}
	if werr != nil {
		_ = os.Remove(path)
		return werr
	}
	return nil
}

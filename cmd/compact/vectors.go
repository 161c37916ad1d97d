package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/povarna/generative-ai-agents/rag-agent/internal/index"
	"github.com/spf13/cobra"
)

var (
	flagVectorsIn     string
	flagVectorsOutDir string
	flagVectorsMetric string
)

var vectorsCmd = &cobra.Command{
	Use:   "vectors",
	Short: "Build an index directory from a metadata file with embeddings",
	Long: `Write vectors.f32, a compacted metadatas.json.gz and manifest.json
into the output directory. The result can be served with INDEX_SOURCE=dir
or uploaded to S3 as-is.

Example:
  rag-compact vectors --in metadatas.json --out-dir faiss_index`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		manifest, err := runVectors(flagVectorsIn, flagVectorsOutDir, index.Metric(flagVectorsMetric))
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%d vectors of dimension %d written to %s\n", manifest.Count, manifest.Dim, flagVectorsOutDir)
		return nil
	},
}

func init() {
	vectorsCmd.Flags().StringVar(&flagVectorsIn, "in", "", "Input metadata file with embeddings")
	vectorsCmd.Flags().StringVar(&flagVectorsOutDir, "out-dir", "", "Output index directory")
	vectorsCmd.Flags().StringVar(&flagVectorsMetric, "metric", string(index.MetricL2), "Distance metric (l2 or cosine)")
	_ = vectorsCmd.MarkFlagRequired("in")
	_ = vectorsCmd.MarkFlagRequired("out-dir")
	rootCmd.AddCommand(vectorsCmd)
}

func runVectors(in string, outDir string, metric index.Metric) (*index.Manifest, error) {
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, fmt.Errorf("Unable to create %s. Error: %w", outDir, err)
	}

	src, err := os.Open(in)
	if err != nil {
		return nil, fmt.Errorf("Unable to open %s. Error: %w", in, err)
	}
	defer src.Close()

	var manifest *index.Manifest
	err = writeFile(filepath.Join(outDir, index.DefaultVectorsFile), false, func(w io.Writer) error {
		var err error
		manifest, err = index.ExportVectors(src, w)
		return err
	})
	if err != nil {
		return nil, err
	}

	manifest.Metric = metric
	if err := manifest.Validate(); err != nil {
		return nil, err
	}

	if _, err := src.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("Unable to rewind %s. Error: %w", in, err)
	}
	err = writeFile(filepath.Join(outDir, manifest.Metadata), true, func(w io.Writer) error {
		_, err := index.StripEmbeddings(src, w)
		return err
	})
	if err != nil {
		return nil, err
	}

	err = writeFile(filepath.Join(outDir, index.ManifestFile), false, func(w io.Writer) error {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(manifest)
	})
	if err != nil {
		return nil, err
	}
	return manifest, nil
}

package index

import (
	"encoding/json"
	"fmt"
	"io"
)

type CompactStats struct {
	Entries  int
	Stripped int
}

// StripEmbeddings copies a metadata array from r to w without the
// "embedding" field. Every other field is kept as-is.
func StripEmbeddings(r io.Reader, w io.Writer) (CompactStats, error) {
	var stats CompactStats

	entries, err := readRawEntries(r)
	if err != nil {
		return stats, err
	}

	for _, entry := range entries {
		stats.Entries++
		if _, ok := entry["embedding"]; ok {
			delete(entry, "embedding")
			stats.Stripped++
		}
	}

	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(entries); err != nil {
		return stats, fmt.Errorf("Unable to write compacted metadata. Error: %w", err)
	}

	return stats, nil
}

// ExportVectors writes the "embedding" field of every metadata entry as a
// flat vector file and returns the manifest describing it.
func ExportVectors(r io.Reader, w io.Writer) (*Manifest, error) {
	entries, err := readRawEntries(r)
	if err != nil {
		return nil, err
	}

	manifest := &Manifest{Count: len(entries)}
	var vectors []float32
	for i, entry := range entries {
		raw, ok := entry["embedding"]
		if !ok {
			return nil, fmt.Errorf("Metadata entry %d has no embedding", i)
		}

		var embedding []float32
		if err := json.Unmarshal(raw, &embedding); err != nil {
			return nil, fmt.Errorf("Unable to decode embedding of entry %d. Error: %w", i, err)
		}

		if manifest.Dim == 0 {
			manifest.Dim = len(embedding)
		}
		if len(embedding) != manifest.Dim || len(embedding) == 0 {
			return nil, fmt.Errorf("Entry %d has %d dimensions, expected %d. Error: %w", i, len(embedding), manifest.Dim, ErrDimensionMismatch)
		}
		vectors = append(vectors, embedding...)
	}

	if manifest.Count == 0 {
		return nil, ErrEmptyIndex
	}

	if err := EncodeVectors(w, vectors); err != nil {
		return nil, fmt.Errorf("Unable to write vectors. Error: %w", err)
	}

	manifest.SetDefaults()
	return manifest, nil
}

func readRawEntries(r io.Reader) ([]map[string]json.RawMessage, error) {
	reader, closer, err := maybeGunzip(r)
	if err != nil {
		return nil, err
	}
	if closer != nil {
		defer closer.Close()
	}

	var entries []map[string]json.RawMessage
	if err := json.NewDecoder(reader).Decode(&entries); err != nil {
		return nil, fmt.Errorf("Unable to decode metadata. Error: %w", err)
	}
	return entries, nil
}

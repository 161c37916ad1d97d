package index

import (
	"bufio"
	"compress/gzip"
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"

	"golang.org/x/sync/errgroup"
)

// Load reads the manifest, then the vector and metadata artifacts in
// parallel, and builds an immutable Store. Any inconsistency is an error:
// the caller is expected to treat it as fatal.
func Load(ctx context.Context, src Source) (*Store, error) {
	manifest, err := readManifest(ctx, src)
	if err != nil {
		return nil, err
	}

	var (
		vectors []float32
		docs    []Document
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		v, err := readVectors(gctx, src, manifest)
		if err != nil {
			return err
		}
		vectors = v
		return nil
	})
	g.Go(func() error {
		d, err := readMetadata(gctx, src, manifest.Metadata)
		if err != nil {
			return err
		}
		docs = d
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return New(manifest.Dim, manifest.Metric, vectors, docs)
}

func readManifest(ctx context.Context, src Source) (*Manifest, error) {
	rc, err := src.Open(ctx, ManifestFile)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	var manifest Manifest
	if err := json.NewDecoder(rc).Decode(&manifest); err != nil {
		return nil, fmt.Errorf("Unable to decode %s from %s. Error: %w", ManifestFile, src, err)
	}

	manifest.SetDefaults()
	if err := manifest.Validate(); err != nil {
		return nil, fmt.Errorf("Invalid manifest in %s. Error: %w", src, err)
	}

	return &manifest, nil
}

func readVectors(ctx context.Context, src Source, manifest *Manifest) ([]float32, error) {
	rc, err := src.Open(ctx, manifest.Vectors)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	vectors, err := DecodeVectors(rc)
	if err != nil {
		return nil, fmt.Errorf("Unable to read vectors %s. Error: %w", manifest.Vectors, err)
	}

	want := manifest.Count * manifest.Dim
	if len(vectors) != want {
		return nil, fmt.Errorf("Vector file holds %d floats, manifest expects %d x %d. Error: %w",
			len(vectors), manifest.Count, manifest.Dim, ErrLengthMismatch)
	}

	return vectors, nil
}

func readMetadata(ctx context.Context, src Source, name string) ([]Document, error) {
	rc, err := src.Open(ctx, name)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	docs, err := DecodeMetadata(rc)
	if err != nil {
		return nil, fmt.Errorf("Unable to read metadata %s. Error: %w", name, err)
	}
	return docs, nil
}

// DecodeVectors reads little-endian float32 values until EOF.
func DecodeVectors(r io.Reader) ([]float32, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	if len(data)%4 != 0 {
		return nil, fmt.Errorf("vector data length %d is not a multiple of 4", len(data))
	}

	vectors := make([]float32, len(data)/4)
	for i := range vectors {
		vectors[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return vectors, nil
}

// EncodeVectors is the inverse of DecodeVectors.
func EncodeVectors(w io.Writer, vectors []float32) error {
	buf := make([]byte, 4)
	bw := bufio.NewWriter(w)
	for _, v := range vectors {
		binary.LittleEndian.PutUint32(buf, math.Float32bits(v))
		if _, err := bw.Write(buf); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// DecodeMetadata reads a JSON array of metadata entries, gzipped or not.
func DecodeMetadata(r io.Reader) ([]Document, error) {
	reader, closer, err := maybeGunzip(r)
	if err != nil {
		return nil, err
	}
	if closer != nil {
		defer closer.Close()
	}

	var entries []metadataEntry
	if err := json.NewDecoder(reader).Decode(&entries); err != nil {
		return nil, err
	}
	if entries == nil {
		return nil, ErrEmptyIndex
	}

	docs := make([]Document, len(entries))
	for i, entry := range entries {
		docs[i] = entry.toDocument(i)
	}
	return docs, nil
}

func maybeGunzip(r io.Reader) (io.Reader, io.Closer, error) {
	br := bufio.NewReader(r)
	magic, err := br.Peek(2)
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, nil, err
	}
	if len(magic) == 2 && magic[0] == 0x1f && magic[1] == 0x8b {
		zr, err := gzip.NewReader(br)
		if err != nil {
			return nil, nil, err
		}
		return zr, zr, nil
	}
	return br, nil, nil
}

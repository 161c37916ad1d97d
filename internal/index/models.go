package index

import (
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"time"
)

var (
	ErrLengthMismatch    = errors.New("metadata length does not match index size")
	ErrDimensionMismatch = errors.New("vector dimension mismatch")
	ErrEmptyIndex        = errors.New("index artifact is empty")
)

type Metric string

const (
	MetricL2     Metric = "l2"
	MetricCosine Metric = "cosine"
)

// Document is one indexed entry. Position in the store is its identity.
type Document struct {
	ID        string    `json:"id"`
	URL       string    `json:"url"`
	Content   string    `json:"content"`
	Title     string    `json:"title,omitempty"`
	Source    string    `json:"source,omitempty"`
	CreatedAt time.Time `json:"created_at,omitzero"`
}

type Neighbor struct {
	Position int
	Distance float32
}

// Manifest describes the artifacts that make up a flat index.
type Manifest struct {
	Dim      int    `json:"dim"`
	Count    int    `json:"count"`
	Metric   Metric `json:"metric,omitempty"`
	Vectors  string `json:"vectors,omitempty"`
	Metadata string `json:"metadata,omitempty"`
}

const (
	ManifestFile        = "manifest.json"
	DefaultVectorsFile  = "vectors.f32"
	DefaultMetadataFile = "metadatas.json.gz"
)

func (m *Manifest) SetDefaults() {
	if m.Metric == "" {
		m.Metric = MetricL2
	}
	if m.Vectors == "" {
		m.Vectors = DefaultVectorsFile
	}
	if m.Metadata == "" {
		m.Metadata = DefaultMetadataFile
	}
}

func (m *Manifest) Validate() error {
	if m.Dim <= 0 {
		return errors.New("manifest dim must be positive")
	}
	if m.Count < 0 {
		return errors.New("manifest count must not be negative")
	}
	if m.Metric != MetricL2 && m.Metric != MetricCosine {
		return errors.New("manifest metric must be l2 or cosine")
	}
	return nil
}

// metadataEntry is the on-disk form. Producers disagree on id and date types.
type metadataEntry struct {
	ID        json.RawMessage `json:"id"`
	URL       string          `json:"url"`
	Content   string          `json:"content"`
	Title     string          `json:"title"`
	Source    string          `json:"source"`
	CreatedAt string          `json:"created_at"`
}

func (e metadataEntry) toDocument(position int) Document {
	id := strings.Trim(strings.TrimSpace(string(e.ID)), `"`)
	if id == "" || id == "null" {
		id = strconv.Itoa(position)
	}

	return Document{
		ID:        id,
		URL:       strings.TrimSpace(e.URL),
		Content:   e.Content,
		Title:     e.Title,
		Source:    e.Source,
		CreatedAt: parseDate(e.CreatedAt),
	}
}

var dateLayouts = []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"}

func parseDate(value string) time.Time {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t
		}
	}
	return time.Time{}
}

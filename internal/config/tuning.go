package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Tuning holds the chunking and retrieval parameters that operators may
// override per deployment via an optional yaml file. Defaults come from the
// limits constants; the embedding dimension is deliberately not tunable.
type Tuning struct {
	ChunkSize    int `yaml:"chunk_size"`
	ChunkOverlap int `yaml:"chunk_overlap"`
	TopK         int `yaml:"top_k"`
}

// LoadTuning reads a tuning file from path. A missing file returns defaults.
func LoadTuning(path string) (*Tuning, error) {
	tuning := &Tuning{
		ChunkSize:    ChunkSize,
		ChunkOverlap: ChunkOverlap,
		TopK:         RetrievalTopK,
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return tuning, nil
		}
		return nil, fmt.Errorf("read tuning file: %w", err)
	}

	if err := yaml.Unmarshal(data, tuning); err != nil {
		return nil, fmt.Errorf("parse tuning file: %w", err)
	}

	if tuning.ChunkSize <= 0 {
		tuning.ChunkSize = ChunkSize
	}
	if tuning.ChunkOverlap < 0 || tuning.ChunkOverlap >= tuning.ChunkSize {
		tuning.ChunkOverlap = ChunkOverlap
	}
	if tuning.TopK <= 0 {
		tuning.TopK = RetrievalTopK
	}

	return tuning, nil
}

package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// DefaultArtifactPath is the filesystem convention for the fitted model.
const DefaultArtifactPath = "models/predictor.json"

// ErrNoArtifact reports a missing model artifact. The serving layer maps
// this to a degraded-mode response instead of refusing to start.
var ErrNoArtifact = errors.New("model artifact not found")

// Save writes the fitted forest as a JSON artifact, creating parent
// directories as needed.
func (f *Forest) Save(path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("save model: %w", err)
		}
	}
	data, err := json.Marshal(f)
	if err != nil {
		return fmt.Errorf("save model: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("save model: %w", err)
	}
	return nil
}

// Load reads a fitted forest back from its artifact. Returns ErrNoArtifact
// when the file does not exist.
func Load(path string) (*Forest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNoArtifact, path)
		}
		return nil, fmt.Errorf("load model: %w", err)
	}
	var f Forest
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("load model %s: %w", path, err)
	}
	if len(f.Trees) == 0 || len(f.Features) == 0 {
		return nil, fmt.Errorf("load model %s: artifact has no trees or features", path)
	}
	return &f, nil
}

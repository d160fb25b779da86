package content

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// ErrEmptyManifest indicates a manifest that parsed but contains no items.
var ErrEmptyManifest = errors.New("manifest contains no content items")

// ManifestLoader supplies the ordered content item list to the rotation
// controller. Implementations fetch from disk or over HTTP.
type ManifestLoader interface {
	Load(ctx context.Context) ([]Item, error)
}

// FileManifestLoader reads the manifest from a local file.
type FileManifestLoader struct {
	Path string
}

// Load implements ManifestLoader.
func (l FileManifestLoader) Load(_ context.Context) ([]Item, error) {
	return ReadManifest(l.Path)
}

// ReadManifest parses a manifest file. A single bare item object is
// accepted and wrapped into a one-element list.
func ReadManifest(path string) ([]Item, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	items, err := DecodeManifest(data)
	if err != nil {
		return nil, fmt.Errorf("parse manifest %s: %w", path, err)
	}
	return items, nil
}

// DecodeManifest parses manifest JSON from a byte slice.
func DecodeManifest(data []byte) ([]Item, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, ErrEmptyManifest
	}
	if trimmed[0] == '{' {
		var single Item
		if err := json.Unmarshal(trimmed, &single); err != nil {
			return nil, err
		}
		return []Item{single}, nil
	}
	var items []Item
	if err := json.Unmarshal(trimmed, &items); err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, ErrEmptyManifest
	}
	return items, nil
}

// WriteManifest writes the manifest JSON with stable indentation.
func WriteManifest(path string, items []Item) error {
	data, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		return fmt.Errorf("encode manifest: %w", err)
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create manifest directory: %w", err)
		}
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}
	return nil
}

package engine

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/sonit33/aarya-sub000/internal/core"
	"github.com/sonit33/aarya-sub000/internal/core/validator"
)

// ManifestPath returns the manifest location inside a session folder.
func ManifestPath(sessionFolder string) string {
	return filepath.Join(sessionFolder, core.ManifestFileName)
}

// WriteManifest replaces the session manifest atomically, so readers only
// ever observe a complete document.
func WriteManifest(sessionFolder string, manifest core.Manifest) error {
	if manifest == nil {
		manifest = core.Manifest{}
	}
	data, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return fmt.Errorf("encode manifest: %w", err)
	}

	tmp, err := os.CreateTemp(sessionFolder, ".manifest-*.json")
	if err != nil {
		return fmt.Errorf("create manifest: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // nolint:errcheck // no-op after a successful rename

	if _, err := tmp.Write(append(data, '\n')); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write manifest: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close manifest: %w", err)
	}
	if err := os.Rename(tmpName, ManifestPath(sessionFolder)); err != nil {
		return fmt.Errorf("commit manifest: %w", err)
	}
	return nil
}

// ReadManifest loads and checks the session manifest. Read failures come back
// as *validator.ReadError and malformed content as *validator.ParseError.
func ReadManifest(sessionFolder string) (core.Manifest, error) {
	path := ManifestPath(sessionFolder)
	entries, err := validator.LoadArray[core.ManifestEntry](path)
	if err != nil {
		return nil, err
	}
	for i, entry := range entries {
		if err := core.ValidateStruct(entry); err != nil {
			return nil, &validator.ParseError{Source: fmt.Sprintf("%s[%d]", path, i), Err: err}
		}
	}
	return core.Manifest(entries), nil
}

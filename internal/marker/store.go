package marker

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/irfansharif/sitewalk/internal/measure"
)

// maxFileSize bounds marker files read from disk.
const maxFileSize = 8 * 1024 * 1024

// File is the on-disk shape of a floorplan's markers.
type File struct {
	Floorplan    string                `json:"floorplan,omitempty"` // path to the page image
	Calibration  *measure.Calibration  `json:"calibration,omitempty"`
	Measurements []measure.Measurement `json:"measurements,omitempty"`
	Markers      []Marker              `json:"markers"`
}

// Load reads a marker file. The file must have a .json extension and every
// record must validate.
func Load(path string) (*Set, *File, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, nil, fmt.Errorf("marker file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to stat marker file: %w", err)
	}
	if fileInfo.Size() > maxFileSize {
		return nil, nil, fmt.Errorf("marker file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read marker file: %w", err)
	}

	var f File
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, nil, fmt.Errorf("failed to parse marker JSON: %w", err)
	}
	s, err := NewSet(f.Markers...)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid marker file: %w", err)
	}
	return s, &f, nil
}

// Save writes the set to path, replacing the file atomically. Everything in
// meta other than its markers is written back as-is; meta may be nil.
func (s *Set) Save(path string, meta *File) error {
	var f File
	if meta != nil {
		f = *meta
	}
	f.Markers = make([]Marker, 0, s.Len())
	for _, m := range s.All() {
		f.Markers = append(f.Markers, *m)
	}
	data, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode markers: %w", err)
	}

	cleanPath := filepath.Clean(path)
	tmp, err := os.CreateTemp(filepath.Dir(cleanPath), ".markers-*.json")
	if err != nil {
		return fmt.Errorf("failed to create marker file: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(append(data, '\n')); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write marker file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write marker file: %w", err)
	}
	if err := os.Rename(tmp.Name(), cleanPath); err != nil {
		return fmt.Errorf("failed to replace marker file: %w", err)
	}
	return nil
}

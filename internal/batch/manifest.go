package batch

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// ManifestEntry represents one job in the output manifest.
type ManifestEntry struct {
	Source      string   `json:"source"`
	Output      string   `json:"output,omitempty"`
	Preview     string   `json:"preview,omitempty"`
	Reports     []string `json:"reports,omitempty"`
	Transferred int      `json:"transferred"`
	Skipped     int      `json:"skipped"`
	Missing     int      `json:"missing_bones"`
	Error       string   `json:"error,omitempty"`
	DurationMS  int64    `json:"duration_ms"`
}

// Manifest is the manifest.json document.
type Manifest struct {
	Target    string          `json:"target"`
	Generated time.Time       `json:"generated"`
	Succeeded int             `json:"succeeded"`
	Failed    int             `json:"failed"`
	Jobs      []ManifestEntry `json:"jobs"`
}

// WriteManifest writes the outcome of a run as JSON. Output paths are made
// relative to the manifest's directory when possible.
func WriteManifest(path, target string, results []Result) error {
	dir := filepath.Dir(path)
	m := Manifest{
		Target:    target,
		Generated: time.Now(),
		Jobs:      make([]ManifestEntry, len(results)),
	}
	for i, r := range results {
		if r.Success {
			m.Succeeded++
		} else {
			m.Failed++
		}
		e := ManifestEntry{
			Source:      r.Source,
			Output:      relTo(dir, r.Output),
			Preview:     relTo(dir, r.Preview),
			Transferred: r.Transferred,
			Skipped:     r.Skipped,
			Missing:     len(r.Missing),
			Error:       r.Error,
			DurationMS:  r.Duration.Milliseconds(),
		}
		for _, p := range r.Reports {
			e.Reports = append(e.Reports, relTo(dir, p))
		}
		m.Jobs[i] = e
	}

	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return err
	}
	if err := mkdirFor(path); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func relTo(dir, path string) string {
	if path == "" {
		return ""
	}
	if rel, err := filepath.Rel(dir, path); err == nil {
		return filepath.ToSlash(rel)
	}
	return path
}

func mkdirFor(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("batch: %w", err)
	}
	return nil
}

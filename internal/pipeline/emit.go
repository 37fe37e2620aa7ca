package pipeline

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/apictx/apictx/internal/validate"
)

// Manifest describes one emitted artifact set.
type Manifest struct {
	Package       string `json:"package"`
	Version       string `json:"version"`
	Commit        string `json:"commit"`
	ExtractedAt   string `json:"extracted_at"`
	Tool          string `json:"tool"`
	ToolVersion   string `json:"tool_version"`
	SchemaVersion string `json:"schema_version"`
}

// writeArtifacts emits symbols.jsonl, manifest.json and validation.json.
// The JSONL is byte-reproducible across runs: records arrive sorted by FQN
// and already canonically serialized.
func writeArtifacts(outDir string, records []validate.Record, manifest Manifest, report validate.Report) error {
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return fmt.Errorf("mkdir out: %w", err)
	}

	var buf bytes.Buffer
	for i := range records {
		buf.Write(records[i].Data)
		buf.WriteByte('\n')
	}
	if err := os.WriteFile(filepath.Join(outDir, "symbols.jsonl"), buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write symbols.jsonl: %w", err)
	}

	mb, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal manifest: %w", err)
	}
	if err := os.WriteFile(filepath.Join(outDir, "manifest.json"), append(mb, '\n'), 0o644); err != nil {
		return fmt.Errorf("write manifest.json: %w", err)
	}

	rb, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	if err := os.WriteFile(filepath.Join(outDir, "validation.json"), append(rb, '\n'), 0o644); err != nil {
		return fmt.Errorf("write validation.json: %w", err)
	}
	return nil
}

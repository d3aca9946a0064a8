package runner

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"

	metaprompt "github.com/haowjy/metaprompt-go"
)

// Snapshot captures everything needed to reproduce a batch run: a unique run
// ID, the model and runner options, and the full run configuration. It is
// written next to the output file so every results file carries its own
// provenance.
type Snapshot struct {
	RunID     string                `json:"run_id"`
	CreatedAt time.Time             `json:"created_at"`
	Task      string                `json:"task"`
	Model     string                `json:"model"`
	Options   Options               `json:"options"`
	Config    *metaprompt.RunConfig `json:"config"`
}

// NewSnapshot builds a snapshot with a fresh run ID.
func NewSnapshot(task, model string, opts Options, cfg *metaprompt.RunConfig) Snapshot {
	return Snapshot{
		RunID:     uuid.NewString(),
		CreatedAt: time.Now().UTC(),
		Task:      task,
		Model:     model,
		Options:   opts,
		Config:    cfg,
	}
}

// Write marshals the snapshot to indented JSON at path.
func (s Snapshot) Write(path string) error {
	data, err := json.MarshalIndent(s, "", "    ")
	if err != nil {
		return fmt.Errorf("runner: marshal snapshot: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("runner: write snapshot: %w", err)
	}
	return nil
}

// SnapshotPath derives the snapshot file name from a results path, replacing
// the .jsonl extension the same way the args file sits next to the output.
func SnapshotPath(outputPath string) string {
	if strings.HasSuffix(outputPath, ".jsonl") {
		return strings.TrimSuffix(outputPath, ".jsonl") + "-args.json"
	}
	return outputPath + "-args.json"
}

package run

import (
	"assesstime/domain/core"
	"assesstime/domain/stage"
)

// RunManifest identifies one run and everything needed to replay it
type RunManifest struct {
	RunID       core.RunID                `json:"run_id"`
	Variant     string                    `json:"variant"`
	Inputs      map[string]core.InputHash `json:"inputs"`
	Fingerprint RunFingerprint            `json:"fingerprint"`
	RowsRead    int                       `json:"rows_read"`
	RowsDropped int                       `json:"rows_dropped"`
	Funnel      []stage.StageResult       `json:"funnel"`
	SampleSize  int                       `json:"sample_size"`
	CreatedAt   core.Timestamp            `json:"created_at"`
}

// NewRunManifest creates a run manifest before any stage executes
func NewRunManifest(
	runID core.RunID,
	variant string,
	configHash core.ConfigHash,
	inputs map[string]core.InputHash,
	codeVersion string,
) *RunManifest {
	copied := make(map[string]core.InputHash, len(inputs))
	for k, v := range inputs {
		copied[k] = v
	}
	return &RunManifest{
		RunID:       runID,
		Variant:     variant,
		Inputs:      copied,
		Fingerprint: NewRunFingerprint(configHash, core.ComputeInputSetHash(copied), codeVersion),
		CreatedAt:   core.Now(),
	}
}

// Complete records the outcome counts once the pipeline has finished.
func (m *RunManifest) Complete(rowsRead, rowsDropped int, funnel stage.FunnelReport) {
	m.RowsRead = rowsRead
	m.RowsDropped = rowsDropped
	m.Funnel = append([]stage.StageResult(nil), funnel.Steps...)
	m.SampleSize = funnel.Final()
}

// Validate checks if the manifest is complete
func (m *RunManifest) Validate() error {
	if core.ID(m.RunID).IsEmpty() {
		return core.NewValidationError("run_manifest", "run_id cannot be empty")
	}
	if len(m.Inputs) == 0 {
		return core.NewValidationError("run_manifest", "at least one input is required")
	}
	if m.Fingerprint.ConfigHash == "" {
		return core.NewValidationError("run_manifest", "config_hash cannot be empty")
	}
	if m.Fingerprint.CodeVersion == "" {
		return core.NewValidationError("run_manifest", "code_version cannot be empty")
	}
	return nil
}

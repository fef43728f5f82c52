package run

import (
	"crypto/sha256"
	"fmt"

	"assesstime/domain/actionlog"
	"assesstime/domain/core"
	"assesstime/domain/session"
	"assesstime/domain/stage"
	"assesstime/domain/summary"
)

// RunFingerprint ensures deterministic replay: identical inputs and
// configuration always produce the same fingerprint
type RunFingerprint struct {
	ConfigHash  core.ConfigHash `json:"config_hash"`
	InputHash   core.InputHash  `json:"input_hash"`
	CodeVersion string          `json:"code_version"`
	Fingerprint core.Hash       `json:"fingerprint"`
}

// NewRunFingerprint creates a fingerprint from determinism parameters
func NewRunFingerprint(configHash core.ConfigHash, inputHash core.InputHash, codeVersion string) RunFingerprint {
	return RunFingerprint{
		ConfigHash:  configHash,
		InputHash:   inputHash,
		CodeVersion: codeVersion,
		Fingerprint: computeRunFingerprint(configHash, inputHash, codeVersion),
	}
}

func computeRunFingerprint(configHash core.ConfigHash, inputHash core.InputHash, codeVersion string) core.Hash {
	data := fmt.Sprintf("config:%s|input:%s|code:%s", configHash, inputHash, codeVersion)
	hash := sha256.Sum256([]byte(data))
	return core.Hash(fmt.Sprintf("%x", hash))
}

// Result is everything one pipeline run produces. It is a pure function of
// the input log and the configuration, apart from the manifest's run id and
// creation time.
type Result struct {
	Manifest   *RunManifest           `json:"manifest"`
	Ingest     actionlog.IngestReport `json:"ingest"`
	Funnel     stage.FunnelReport     `json:"funnel"`
	Sample     session.Sample         `json:"sample"`
	Exclusions []session.Exclusion    `json:"exclusions,omitempty"`
	Summary    summary.Report         `json:"summary"`
}

package run

import (
	"testing"

	"assesstime/domain/core"
	"assesstime/domain/stage"
)

func TestRunFingerprint_Deterministic(t *testing.T) {
	configHash := core.ConfigHash("test-config")
	inputHash := core.InputHash("test-input")
	codeVersion := "1.0.0"

	fp1 := NewRunFingerprint(configHash, inputHash, codeVersion)
	fp2 := NewRunFingerprint(configHash, inputHash, codeVersion)

	if fp1.Fingerprint != fp2.Fingerprint {
		t.Errorf("Fingerprints not identical: %s vs %s", fp1.Fingerprint, fp2.Fingerprint)
	}
	if fp1.ConfigHash != configHash {
		t.Errorf("ConfigHash mismatch: %s vs %s", fp1.ConfigHash, configHash)
	}
	if fp1.InputHash != inputHash {
		t.Errorf("InputHash mismatch: %s vs %s", fp1.InputHash, inputHash)
	}
}

func TestRunFingerprint_Unique(t *testing.T) {
	base := NewRunFingerprint("cfg", "in", "1.0.0")

	testCases := []struct {
		name string
		fp   RunFingerprint
	}{
		{"different config", NewRunFingerprint("cfg-2", "in", "1.0.0")},
		{"different input", NewRunFingerprint("cfg", "in-2", "1.0.0")},
		{"different code", NewRunFingerprint("cfg", "in", "1.0.1")},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if tc.fp.Fingerprint == base.Fingerprint {
				t.Errorf("Fingerprint should be different for %s", tc.name)
			}
		})
	}
}

func TestRunManifest_Complete(t *testing.T) {
	inputs := map[string]core.InputHash{"log.csv": "abc"}
	manifest := NewRunManifest(core.RunID("test-run"), "cot-hs", "cfg", inputs, "1.0.0")

	// the manifest must not alias the caller's map
	inputs["other.csv"] = "def"
	if len(manifest.Inputs) != 1 {
		t.Errorf("Inputs aliased caller map: %v", manifest.Inputs)
	}

	funnel := stage.FunnelReport{}
	funnel.Add(stage.StageResult{Name: stage.StageSessions, Enabled: true, Remaining: 5})
	funnel.Add(stage.StageResult{Name: stage.StagePause, Enabled: true, Removed: 2, Remaining: 3})
	manifest.Complete(40, 1, funnel)

	if manifest.SampleSize != 3 {
		t.Errorf("SampleSize = %d, want 3", manifest.SampleSize)
	}
	if manifest.RowsRead != 40 || manifest.RowsDropped != 1 {
		t.Errorf("row counts not recorded: %d/%d", manifest.RowsRead, manifest.RowsDropped)
	}
	if len(manifest.Funnel) != 2 {
		t.Errorf("Funnel steps = %d, want 2", len(manifest.Funnel))
	}
	if err := manifest.Validate(); err != nil {
		t.Errorf("Manifest validation failed: %v", err)
	}
}

func TestRunManifest_ValidateMissing(t *testing.T) {
	m := NewRunManifest("", "v", "cfg", map[string]core.InputHash{"a": "1"}, "1.0.0")
	if err := m.Validate(); err == nil {
		t.Error("Expected error for empty run id")
	}
	m = NewRunManifest("run", "v", "cfg", nil, "1.0.0")
	if err := m.Validate(); err == nil {
		t.Error("Expected error for missing inputs")
	}
}

package diagnostics

import "fmt"

type Severity string

const (
	Info Severity = "info"
	Warn Severity = "warning"
	Err  Severity = "error"
)

type Diagnostic struct {
	Severity       Severity       `json:"severity"`
	Code           string         `json:"code"`
	Summary        string         `json:"summary"`
	Detail         string         `json:"detail,omitempty"`
	LikelyCauses   []string       `json:"likely_causes,omitempty"`
	SuggestedFixes []string       `json:"suggested_fixes,omitempty"`
	Evidence       map[string]any `json:"evidence,omitempty"`
}

const (
	CodeHistoryReset       = "TEMPORAL.HISTORY_RESET"
	CodeDisocclusionBurst  = "TEMPORAL.DISOCCLUSION_BURST"
	CodeResolveFailed      = "TEMPORAL.RESOLVE_FAILED"
	CodeSourceUnknown      = "SOURCE.UNKNOWN"
	CodeControlUnsupported = "CONTROL.UNSUPPORTED"
)

func HistoryReset(frame uint64, reason string) Diagnostic {
	return Diagnostic{
		Severity: Info,
		Code:     CodeHistoryReset,
		Summary:  "Temporal history discarded",
		Detail:   reason,
		Evidence: map[string]any{"frame": frame},
	}
}

// DisocclusionBurst reports a frame where more than threshold of the pixels
// lost their history.
func DisocclusionBurst(frame uint64, ratio, threshold float64, offScreen, depth, normal int) Diagnostic {
	return Diagnostic{
		Severity: Warn,
		Code:     CodeDisocclusionBurst,
		Summary:  fmt.Sprintf("%.0f%% of pixels rejected their history", ratio*100),
		LikelyCauses: []string{
			"fast camera motion or a moving occluder",
			"depth/normal thresholds too strict for the scene",
		},
		SuggestedFixes: []string{
			"raise temporal.depth_threshold or lower temporal.normal_threshold",
			"check that motion vectors point from the current to the previous frame",
		},
		Evidence: map[string]any{
			"frame":           frame,
			"ratio":           ratio,
			"threshold":       threshold,
			"off_screen":      offScreen,
			"depth_rejected":  depth,
			"normal_rejected": normal,
		},
	}
}

func ResolveFailed(frame uint64, err error) Diagnostic {
	return Diagnostic{
		Severity: Err,
		Code:     CodeResolveFailed,
		Summary:  "Frame failed to render",
		Detail:   err.Error(),
		Evidence: map[string]any{"frame": frame},
	}
}

package sequence

// Keyframe represents a value at time T (seconds) with an easing function
// that applies to the segment starting at this keyframe.
type Keyframe struct {
	T    float64 `yaml:"t" json:"t"`
	V    float64 `yaml:"v" json:"v"`
	Ease string  `yaml:"ease,omitempty" json:"ease,omitempty"` // "linear","smooth","cubic"
}

// Envelope is a sorted list of keyframes; Eval(t) interpolates a value.
type Envelope struct {
	Keys []Keyframe `yaml:"keys" json:"keys"`
}

// Clip is one shot: selects a source + preset, sets duration, optional
// crossfade into the NEXT clip, and automates uniforms over the clip.
// Entering a clip without a crossfade is a camera cut.
type Clip struct {
	Name      string              `yaml:"name" json:"name"`
	Source    string              `yaml:"source" json:"source"`
	Preset    string              `yaml:"preset,omitempty" json:"preset,omitempty"`
	DurationS float64             `yaml:"duration_s" json:"durationS"`
	XFadeS    float64             `yaml:"xfade_s,omitempty" json:"xFadeS,omitempty"`
	Params    map[string]Envelope `yaml:"params,omitempty" json:"params,omitempty"`
}

// Program is a full sequence of clips.
type Program struct {
	Version string `yaml:"version" json:"version"` // e.g., "seq.v1"
	Loop    bool   `yaml:"loop,omitempty" json:"loop,omitempty"`
	Clips   []Clip `yaml:"clips" json:"clips"`
}

// PlayerState enumerates sequencer states.
type PlayerState string

const (
	Idle    PlayerState = "idle"
	Running PlayerState = "running"
	Paused  PlayerState = "paused"
)

// Hooks are dependency-injected callbacks into the frame loop.
type Hooks struct {
	// Set active source/preset immediately.
	SetSource func(name, preset string)
	// Uniform setter for the active source.
	SetParam func(name string, v float64)
	// Cut invalidates all temporal history.
	Cut func()
	// Prepare the next source/preset for crossfade.
	ArmNext      func(name, preset string)
	SetCrossfade func(alpha float64) // 0..1 mix between active and armed
}

// Player walks a Program on a timeline and drives the frame loop through Hooks.
// It is not safe for concurrent use; wrap it in a SafePlayer when shared.
type Player struct {
	State PlayerState

	prog   Program
	starts []float64 // program time at which each clip begins
	total  float64

	now   float64
	idx   int
	next  int // clip armed for the crossfade, -1 when none
	alpha float64

	hooks Hooks
}

package sequence

import (
	"errors"
	"math"
	"sort"
	"sync"
)

// ErrEmptyProgram is returned when loading a program without clips.
var ErrEmptyProgram = errors.New("sequence: program has no clips")

func NewPlayer(h Hooks) *Player {
	return &Player{State: Idle, hooks: h, next: -1}
}

// Load replaces the program and rewinds to the first clip without entering it.
func (p *Player) Load(prog Program) error {
	if len(prog.Clips) == 0 {
		return ErrEmptyProgram
	}
	p.prog = prog
	p.starts = make([]float64, len(prog.Clips))
	p.total = 0
	for i, c := range prog.Clips {
		p.starts[i] = p.total
		p.total += c.DurationS
	}
	p.State = Idle
	p.rewind()
	return nil
}

// Start enters the current clip and begins playback.
func (p *Player) Start() {
	if p.State == Running || len(p.prog.Clips) == 0 {
		return
	}
	p.State = Running
	p.enterClip()
}

func (p *Player) Pause() {
	if p.State == Running {
		p.State = Paused
	}
}

func (p *Player) Resume() {
	if p.State == Paused {
		p.State = Running
	}
}

// Stop rewinds to the start and drops any pending crossfade.
func (p *Player) Stop() {
	p.State = Idle
	p.rewind()
	p.fade(0)
}

// Now returns the position within the program in seconds.
func (p *Player) Now() float64 { return p.now }

// ClipIndex returns the index of the active clip.
func (p *Player) ClipIndex() int { return p.idx }

// Seek jumps to program time t, clamped to [0, total). Landing anywhere is a
// cut, even inside the same clip.
func (p *Player) Seek(t float64) {
	if len(p.prog.Clips) == 0 {
		return
	}
	t = max(t, 0)
	if p.total > 0 && t >= p.total {
		t = math.Nextafter(p.total, 0)
	}
	p.now = t
	p.idx = p.clipAt(t)
	p.enterClip()
}

// Tick advances playback by dt seconds: envelopes are evaluated at the clip's
// local time, the next clip is armed and faded in over the last XFadeS
// seconds, and the player moves on once the clip has run its duration.
func (p *Player) Tick(dt float64) {
	if p.State != Running || dt <= 0 || len(p.prog.Clips) == 0 {
		return
	}
	p.now += dt

	clip := p.prog.Clips[p.idx]
	local := p.now - p.starts[p.idx]
	if p.hooks.SetParam != nil {
		for name, env := range clip.Params {
			p.hooks.SetParam(name, env.Eval(local))
		}
	}

	if remain := clip.DurationS - local; clip.XFadeS > 0 && remain >= 0 && remain <= clip.XFadeS {
		if n := p.following(); p.next == -1 && n != -1 && p.hooks.ArmNext != nil {
			p.hooks.ArmNext(p.prog.Clips[n].Source, p.prog.Clips[n].Preset)
			p.next = n
		}
		if a := clamp01(1 - remain/clip.XFadeS); a != p.alpha {
			p.fade(a)
		}
	}

	if local >= clip.DurationS {
		p.advance()
	}
}

// clipAt returns the index of the clip playing at program time t.
func (p *Player) clipAt(t float64) int {
	i := sort.Search(len(p.starts), func(i int) bool { return p.starts[i] > t })
	return max(i-1, 0)
}

// following returns the clip after the active one, or -1 at the end of a
// non-looping program.
func (p *Player) following() int {
	switch n := p.idx + 1; {
	case n < len(p.prog.Clips):
		return n
	case p.prog.Loop:
		return 0
	default:
		return -1
	}
}

func (p *Player) advance() {
	n := p.following()
	if n == -1 {
		p.State = Idle
		p.fade(0)
		return
	}
	if n == 0 {
		p.now -= p.total
	}
	p.idx = n
	p.enterClip()
}

// enterClip switches the frame loop to the active clip. A new shot shares no
// history with the previous one, so every entry is a cut.
func (p *Player) enterClip() {
	clip := p.prog.Clips[p.idx]
	if p.hooks.SetSource != nil {
		p.hooks.SetSource(clip.Source, clip.Preset)
	}
	p.fade(0)
	if p.hooks.Cut != nil {
		p.hooks.Cut()
	}
	p.next = -1
}

func (p *Player) rewind() {
	p.now = 0
	p.idx = 0
	p.next = -1
	p.alpha = 0
}

func (p *Player) fade(a float64) {
	p.alpha = a
	if p.hooks.SetCrossfade != nil {
		p.hooks.SetCrossfade(a)
	}
}

// SafePlayer serializes access to a Player shared by the frame loop and
// control handlers.
type SafePlayer struct {
	mu sync.Mutex
	P  *Player
}

func NewSafePlayer(h Hooks) *SafePlayer {
	return &SafePlayer{P: NewPlayer(h)}
}

func (s *SafePlayer) With(f func(p *Player)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f(s.P)
}

// Package trigger converts the noisy per-frame proximity signal into
// debounced, cooldown-limited trigger events.
package trigger

import (
	"log/slog"
	"time"
)

// State identifies where the machine is in the detection cycle.
type State string

const (
	// StateIdle means no sustained hand-near-head signal.
	StateIdle State = "idle"
	// StateDetecting means the signal is present but not yet sustained
	// for the required duration.
	StateDetecting State = "detecting"
	// StatePulling is the pulsed trigger state; the machine fires and
	// returns to idle on the same update.
	StatePulling State = "pulling"
)

// graceWindow absorbs single-frame detector dropout (camera jitter,
// transient landmark loss) without resetting the duration timer.
const graceWindow = 100 * time.Millisecond

// Config holds the debounce and cooldown gates. Both must hold for a
// trigger to fire; they are independent.
type Config struct {
	// RequiredDuration is how long the signal must persist before a
	// trigger is considered.
	RequiredDuration time.Duration

	// Cooldown is the minimum time between consecutive triggers.
	Cooldown time.Duration
}

// Snapshot is a read-only view of the machine for visualization
// consumers. It carries no references into the machine.
type Snapshot struct {
	State         State         `json:"state"`
	Detecting     time.Duration `json:"detecting"`
	LastTriggered time.Time     `json:"last_triggered"`
	Triggers      uint64        `json:"triggers"`
}

// Machine is the IDLE -> DETECTING -> PULLING -> IDLE state machine.
// Update must be called from a single goroutine with strictly
// increasing timestamps; the machine never blocks and never fails.
type Machine struct {
	cfg    Config
	logger *slog.Logger

	state         State
	since         time.Time // set only while detecting or pulling
	lastNear      time.Time
	lastTriggered time.Time
	triggers      uint64

	onTrigger func(t time.Time)
}

// NewMachine creates a Machine in the idle state. The callback fires
// at most once per cooldown window, from inside Update.
func NewMachine(cfg Config, onTrigger func(t time.Time), logger *slog.Logger) *Machine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Machine{
		cfg:       cfg,
		logger:    logger,
		state:     StateIdle,
		onTrigger: onTrigger,
	}
}

// SetConfig replaces the gates. Owned by the detection loop.
func (m *Machine) SetConfig(cfg Config) {
	m.cfg = cfg
}

// Update advances the machine one frame.
func (m *Machine) Update(near bool, t time.Time) {
	if near {
		if m.state == StateIdle {
			m.state = StateDetecting
			m.since = t
			m.logger.Debug("hand near head, detecting")
		}
		m.lastNear = t

		if m.state == StateDetecting && t.Sub(m.since) >= m.cfg.RequiredDuration {
			m.state = StatePulling
			m.fire(t)
		}
		return
	}

	// Tolerate dropout inside the grace window; a longer gap resets.
	if m.state != StateIdle && t.Sub(m.lastNear) > graceWindow {
		m.reset()
	}
}

// fire pulses the trigger if the cooldown gate also holds, then
// returns to idle either way: PULLING is never held across frames.
func (m *Machine) fire(t time.Time) {
	elapsed := t.Sub(m.since)
	if t.Sub(m.lastTriggered) > m.cfg.Cooldown && elapsed >= m.cfg.RequiredDuration {
		m.lastTriggered = t
		m.triggers++
		m.logger.Info("pulling detected",
			slog.Duration("held", elapsed),
			slog.Uint64("total_triggers", m.triggers))
		if m.onTrigger != nil {
			m.onTrigger(t)
		}
	}
	m.reset()
}

func (m *Machine) reset() {
	m.state = StateIdle
	m.since = time.Time{}
}

// Snapshot returns the current state for overlay drawing and the tray.
// Call from the detection loop, or copy the result across goroutines.
func (m *Machine) Snapshot(now time.Time) Snapshot {
	snap := Snapshot{
		State:         m.state,
		LastTriggered: m.lastTriggered,
		Triggers:      m.triggers,
	}
	if m.state == StateDetecting {
		snap.Detecting = now.Sub(m.since)
	}
	return snap
}

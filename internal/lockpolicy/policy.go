// Package lockpolicy decides when an unlocked area of the vault locks
// again: when the session ends, on every use, or after a period of
// inactivity.
package lockpolicy

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/atinyakov/gophvault/internal/models"
)

// Protected areas.
const (
	AreaCredentials = "credentials"
	AreaNotes       = "notes"
)

// DefaultCheckInterval is how often Start evaluates the idle timeout.
const DefaultCheckInterval = time.Minute

// Kind selects the relock trigger.
type Kind int

const (
	Never Kind = iota
	SessionEnd
	EveryUse
	Timeout
)

func (k Kind) String() string {
	switch k {
	case Never:
		return "never"
	case SessionEnd:
		return "session_end"
	case EveryUse:
		return "every_use"
	case Timeout:
		return "timeout"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Mode is a relock trigger with its idle limit for Timeout.
type Mode struct {
	Kind Kind
	Idle time.Duration
}

// TimeoutAfter returns a Timeout mode that locks after idle.
func TimeoutAfter(idle time.Duration) Mode {
	return Mode{Kind: Timeout, Idle: idle}
}

// FromInterval maps a persisted lock interval setting to a mode.
func FromInterval(i models.LockInterval) Mode {
	switch i {
	case models.LockEveryUse:
		return Mode{Kind: EveryUse}
	case models.LockTimeout15:
		return TimeoutAfter(15 * time.Minute)
	default:
		return Mode{Kind: SessionEnd}
	}
}

// FromAutoLock maps the auto-lock toggle and its timeout in minutes.
func FromAutoLock(enabled bool, minutes int) Mode {
	if !enabled || minutes <= 0 {
		return Mode{Kind: Never}
	}
	return TimeoutAfter(time.Duration(minutes) * time.Minute)
}

// Signal is a user activity event that resets the idle clock.
type Signal string

const (
	PointerDown Signal = "mousedown"
	KeyDown     Signal = "keydown"
	TouchStart  Signal = "touchstart"
	Scroll      Signal = "scroll"
)

// Valid reports whether s is a known activity signal.
func (s Signal) Valid() bool {
	switch s {
	case PointerDown, KeyDown, TouchStart, Scroll:
		return true
	}
	return false
}

// Reason explains a lock to the user.
type Reason string

const (
	ReasonManual     Reason = "Enter your master password to continue."
	ReasonSessionEnd Reason = "Your session ended. Please enter your master password again."
	ReasonEveryUse   Reason = "Password is required each time you access this area."
	ReasonInactivity Reason = "You've been inactive. Please enter your password."
)

// Locker is the gate a policy locks.
type Locker interface {
	Lock(area string, reason Reason)
	HasPasswordSet() bool
}

// Policy watches one protected area. It only acts while the area is
// unlocked and a master password exists.
type Policy struct {
	mu           sync.Mutex
	area         string
	mode         Mode
	locker       Locker
	log          *zap.Logger
	now          func() time.Time
	lastActivity time.Time
	active       bool
}

// New creates a policy for area. A nil logger disables logging.
func New(area string, mode Mode, locker Locker, log *zap.Logger) *Policy {
	if log == nil {
		log = zap.NewNop()
	}
	return &Policy{
		area:   area,
		mode:   mode,
		locker: locker,
		log:    log.With(zap.String("area", area)),
		now:    time.Now,
	}
}

// Area returns the protected area name.
func (p *Policy) Area() string { return p.area }

// Mode returns the current mode.
func (p *Policy) Mode() Mode {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.mode
}

// Unlocked arms the policy after a successful create or verify.
func (p *Policy) Unlocked() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.active = true
	p.lastActivity = p.now()
}

// Locked disarms the policy after the gate was locked elsewhere.
func (p *Policy) Locked() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.active = false
}

// Init runs when the area is (re)entered. EveryUse locks here.
func (p *Policy) Init() {
	p.mu.Lock()
	fire := p.active && p.mode.Kind == EveryUse
	p.mu.Unlock()
	if fire {
		p.lock(ReasonEveryUse)
	}
}

// Activity records a user interaction. Only Timeout mode tracks it.
func (p *Policy) Activity(s Signal) {
	if !s.Valid() {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.mode.Kind == Timeout {
		p.lastActivity = p.now()
	}
}

// VisibilityChanged locks a SessionEnd area when the UI is hidden.
func (p *Policy) VisibilityChanged(hidden bool) {
	p.mu.Lock()
	fire := hidden && p.active && p.mode.Kind == SessionEnd
	p.mu.Unlock()
	if fire {
		p.lock(ReasonSessionEnd)
	}
}

// Check performs one idle timeout evaluation and reports whether it locked.
func (p *Policy) Check() bool {
	p.mu.Lock()
	fire := p.active && p.mode.Kind == Timeout && p.now().Sub(p.lastActivity) >= p.mode.Idle
	p.mu.Unlock()
	if fire {
		p.lock(ReasonInactivity)
	}
	return fire
}

// Reconfigure switches mode and restarts the idle clock. Switching to
// EveryUse locks an unlocked area immediately.
func (p *Policy) Reconfigure(mode Mode) {
	p.mu.Lock()
	changed := p.mode != mode
	p.mode = mode
	p.lastActivity = p.now()
	fire := changed && p.active && mode.Kind == EveryUse
	p.mu.Unlock()

	if changed {
		p.log.Debug("lock policy reconfigured", zap.Stringer("mode", mode.Kind), zap.Duration("idle", mode.Idle))
	}
	if fire {
		p.lock(ReasonEveryUse)
	}
}

// Start evaluates the idle timeout every interval until ctx is done.
func (p *Policy) Start(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = DefaultCheckInterval
	}
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				p.Check()
			}
		}
	}()
}

// lock must be called without p.mu held; the locker may call back into
// Locked on every policy.
func (p *Policy) lock(reason Reason) {
	if !p.locker.HasPasswordSet() {
		return
	}
	p.mu.Lock()
	p.active = false
	p.mu.Unlock()

	p.log.Info("vault locked by policy", zap.String("reason", string(reason)))
	p.locker.Lock(p.area, reason)
}

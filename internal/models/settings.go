package models

import "slices"

// LockInterval selects how the secure notes area relocks.
type LockInterval string

const (
	// LockSessionEnd locks when the page becomes hidden.
	LockSessionEnd LockInterval = "session_end"
	// LockEveryUse locks on every (re)initialisation.
	LockEveryUse LockInterval = "every_use"
	// LockTimeout15 locks after 15 idle minutes.
	LockTimeout15 LockInterval = "timeout_15"
)

// Valid reports whether i is a known interval.
func (i LockInterval) Valid() bool {
	switch i {
	case LockSessionEnd, LockEveryUse, LockTimeout15:
		return true
	}
	return false
}

// AutoLockTimeouts are the selectable auto-lock timeouts in minutes.
var AutoLockTimeouts = []int{5, 15, 30, 60}

// ValidLockTimeout reports whether minutes is one of AutoLockTimeouts.
func ValidLockTimeout(minutes int) bool {
	return slices.Contains(AutoLockTimeouts, minutes)
}

// Settings are the persisted user preferences.
type Settings struct {
	DarkMode       bool         `json:"darkMode"`
	AutoLock       bool         `json:"autoLock"`
	ClearClipboard bool         `json:"clearClipboard"`
	LockTimeout    int          `json:"lockTimeout"`
	LockInterval   LockInterval `json:"lockInterval"`
}

// DefaultSettings are used when nothing has been saved yet.
func DefaultSettings() Settings {
	return Settings{
		DarkMode:     true,
		AutoLock:     false,
		LockTimeout:  30,
		LockInterval: LockSessionEnd,
	}
}

// ResetSettings are applied by an explicit settings reset.
func ResetSettings() Settings {
	return Settings{
		DarkMode:     true,
		AutoLock:     true,
		LockTimeout:  5,
		LockInterval: LockEveryUse,
	}
}

// Normalize fills unset or unknown values with defaults. A zero Settings
// was never saved and becomes DefaultSettings.
func (s *Settings) Normalize() {
	def := DefaultSettings()
	if *s == (Settings{}) {
		*s = def
		return
	}
	if !ValidLockTimeout(s.LockTimeout) {
		s.LockTimeout = def.LockTimeout
	}
	if !s.LockInterval.Valid() {
		s.LockInterval = def.LockInterval
	}
}

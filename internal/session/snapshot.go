// Package session owns the listening loop: it pulls frames from an
// [audio.FrameSource] on a fixed cadence, runs them through the analysis
// stages in internal/detect, advances the confirmation state machine, and
// publishes the result as an immutable [Snapshot] that readers fetch
// without locking.
//
// A [Controller] runs at most one loop at a time. Start, Stop and Reset are
// safe to call from any goroutine, including HTTP handlers.
package session

import (
	"time"

	"github.com/fretsense/fretsense/internal/detect"
)

// Snapshot is the published view of the detector at one instant. It is
// immutable once published; readers always see a complete, consistent
// snapshot because publication swaps a pointer.
type Snapshot struct {
	// Running reports whether the listening loop was active when this
	// snapshot was published.
	Running bool `json:"running"`

	// Volume is the last frame's normalized mean absolute amplitude, in
	// [0, 1].
	Volume float64 `json:"volume"`

	// VolumePercent is Volume scaled to a 0-100 display range.
	VolumePercent float64 `json:"volume_percent"`

	// FrequencyHz is the last accepted pitch estimate. Zero when the last
	// frame was gated or had no confident pitch.
	FrequencyHz float64 `json:"frequency_hz,omitempty"`

	// String is the short letter of the locked string ("E", "A", ...) or
	// "-" when no string is locked.
	String string `json:"string"`

	// FullName is the unambiguous name of the locked string, e.g.
	// "Low E (6th)". Empty when no string is locked.
	FullName string `json:"full_name,omitempty"`

	// Confirmations is the current confirmation count of the state machine.
	Confirmations int `json:"confirmations"`

	// RequiredConfirmations is the lock threshold, included so clients can
	// render progress without hardcoding it.
	RequiredConfirmations int `json:"required_confirmations"`

	// ConfidencePercent is Confirmations expressed as a percentage of
	// RequiredConfirmations. It can exceed 100 after a history relock.
	ConfidencePercent int `json:"confidence_percent"`

	// UpdatedAt is when this snapshot was published.
	UpdatedAt time.Time `json:"updated_at"`
}

// newSnapshot assembles a Snapshot from the tracker state and the latest
// per-frame observation.
func newSnapshot(state detect.State, obs detect.Observation, running bool, now time.Time) Snapshot {
	s := Snapshot{
		Running:               running,
		Volume:                obs.Volume,
		VolumePercent:         obs.Volume * 100,
		String:                state.Locked.String(),
		FullName:              state.Locked.FullName(),
		Confirmations:         state.Confirmations,
		RequiredConfirmations: detect.RequiredConfirmations,
		ConfidencePercent:     state.Confirmations * 100 / detect.RequiredConfirmations,
		UpdatedAt:             now,
	}
	if obs.PitchOK {
		s.FrequencyHz = obs.Pitch.Frequency
	}
	return s
}

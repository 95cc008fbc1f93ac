// Package detect implements the signal-analysis core of fretsense: volume
// metering, autocorrelation pitch estimation, nearest-string classification,
// and the confirmation state machine that turns noisy per-frame guesses
// into a stable locked label.
//
// Everything in this package is pure computation over sample slices and
// small value types. There is no I/O, no clock, and no shared mutable
// state; the session controller owns the loop and feeds frames in.
package detect

// Label identifies one of the six strings of a standard-tuned guitar, or
// LabelNone when no string is detected.
type Label int

const (
	// LabelNone means no string detected (silence, ambiguous pitch, or a
	// frequency outside every tolerance window).
	LabelNone Label = iota

	LabelLowE
	LabelA
	LabelD
	LabelG
	LabelB
	LabelHighE
)

// stringInfo is the static per-string table. Order is ascending by target
// frequency; the classifier's scan order depends on this.
var stringInfo = [...]struct {
	name      string
	fullName  string
	frequency float64
}{
	LabelLowE:  {"E", "Low E (6th)", 82.41},
	LabelA:     {"A", "A (5th)", 110.00},
	LabelD:     {"D", "D (4th)", 146.83},
	LabelG:     {"G", "G (3rd)", 196.00},
	LabelB:     {"B", "B (2nd)", 246.94},
	LabelHighE: {"E", "High E (1st)", 329.63},
}

// Strings lists the six playable labels in ascending frequency order.
func Strings() []Label {
	return []Label{LabelLowE, LabelA, LabelD, LabelG, LabelB, LabelHighE}
}

// String returns the short display letter ("E", "A", ...) or "-" for
// LabelNone. Note that low and high E share the letter; use [Label.FullName]
// to distinguish them.
func (l Label) String() string {
	if l <= LabelNone || int(l) >= len(stringInfo) {
		return "-"
	}
	return stringInfo[l].name
}

// FullName returns the unambiguous display name, e.g. "Low E (6th)".
// Empty for LabelNone.
func (l Label) FullName() string {
	if l <= LabelNone || int(l) >= len(stringInfo) {
		return ""
	}
	return stringInfo[l].fullName
}

// Frequency returns the target fundamental frequency in Hz, or 0 for
// LabelNone.
func (l Label) Frequency() float64 {
	if l <= LabelNone || int(l) >= len(stringInfo) {
		return 0
	}
	return stringInfo[l].frequency
}

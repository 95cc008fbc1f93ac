package detect

// Stability parameters. A new candidate must dominate the rolling history
// before it takes over the lock, and losing the lock takes the same number
// of consecutive misses, so the displayed label changes on the order of
// once per second at a 100 ms cadence rather than flickering per frame.
const (
	// RequiredConfirmations is the evidence needed to lock a string and the
	// cap on steady-state confirmation growth.
	RequiredConfirmations = 6

	// HistoryDepth is the length of the rolling raw-detection window.
	HistoryDepth = 10
)

// State is the complete stability-tracker state: the locked label, its
// confirmation count, and the rolling history of raw detections. The zero
// value is the initial state (nothing locked, empty history).
//
// State is a value type and [State.Advance] is a pure transition function;
// the caller threads the current state through each cycle. That keeps the
// tracker testable with nothing but label sequences.
type State struct {
	// Locked is the stabilized label currently reported.
	Locked Label

	// Confirmations counts evidence for the locked label. On the steady
	// path it is capped at [RequiredConfirmations]; a history-driven relock
	// sets it to the raw match count, which can reach [HistoryDepth].
	// That overshoot is inherited behaviour, kept deliberately — see
	// the relock branch in Advance.
	Confirmations int

	// History holds the most recent raw detections, oldest first, at most
	// [HistoryDepth] entries. Includes LabelNone frames.
	History []Label
}

// Advance consumes one raw per-frame detection and returns the next state.
// The receiver is not modified; the returned state owns a fresh history
// slice.
//
// Transition rules, applied after appending raw to the history:
//
//   - raw equals the locked label: confirmations climb by one, capped at
//     RequiredConfirmations. This branch also covers raw == locked == none,
//     so sustained silence grows the count while nothing is locked; the
//     count is meaningless in that state and resets on the next unlock.
//   - raw is a different string: it takes over the lock only when it
//     accounts for at least RequiredConfirmations of the history entries,
//     and the confirmation count becomes that match count (possibly above
//     the cap — preserved, not clamped). Otherwise nothing changes.
//   - raw is none while a string is locked: confirmations decay by one;
//     at zero the lock clears. A single silent or ambiguous frame never
//     drops the label.
func (s State) Advance(raw Label) State {
	history := make([]Label, 0, HistoryDepth)
	if excess := len(s.History) + 1 - HistoryDepth; excess > 0 {
		history = append(history, s.History[excess:]...)
	} else {
		history = append(history, s.History...)
	}
	history = append(history, raw)

	next := State{
		Locked:        s.Locked,
		Confirmations: s.Confirmations,
		History:       history,
	}

	switch {
	case raw == s.Locked:
		next.Confirmations = s.Confirmations + 1
		if next.Confirmations > RequiredConfirmations {
			next.Confirmations = RequiredConfirmations
		}

	case raw != LabelNone:
		matches := 0
		for _, h := range history {
			if h == raw {
				matches++
			}
		}
		if matches >= RequiredConfirmations {
			next.Locked = raw
			next.Confirmations = matches
		}

	default: // silent or unclassified frame while locked
		next.Confirmations = s.Confirmations - 1
		if next.Confirmations <= 0 {
			next.Confirmations = 0
			next.Locked = LabelNone
		}
	}

	return next
}

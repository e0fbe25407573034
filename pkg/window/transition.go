package window

// TransitionKind classifies a change between two successive states.
type TransitionKind int

// Transition kinds.
const (
	// FastStarted fires when a new fast appears.
	FastStarted TransitionKind = iota + 1

	// FastingComplete fires when a fast crosses into its eating window.
	FastingComplete

	// EatingWindowOver fires when an open fast passes its eating window.
	EatingWindowOver

	// FastEnded fires when the observed fast is closed or removed.
	FastEnded
)

// String returns the kind as a snake_case name.
func (k TransitionKind) String() string {
	switch k {
	case FastStarted:
		return "fast_started"
	case FastingComplete:
		return "fasting_complete"
	case EatingWindowOver:
		return "eating_window_over"
	case FastEnded:
		return "fast_ended"
	default:
		return "unknown"
	}
}

// Transition describes a detected change.
type Transition struct {
	Kind TransitionKind
	From State
	To   State
}

// Detect compares two successive states and reports the most relevant
// change between them.
//
// A new fast takes precedence over the end of the previous one, since the
// caller can only have missed the end if both happened between snapshots.
// Likewise an open fast that went from Fasting straight past its eating
// window reports EatingWindowOver; the overrun is never seen again.
func Detect(prev, next State) (Transition, bool) {
	t := Transition{From: prev, To: next}

	prevID, nextID := openID(prev), openID(next)

	switch {
	case nextID != "" && nextID != prevID:
		t.Kind = FastStarted
	case prevID != "" && nextID != prevID:
		t.Kind = FastEnded
	case prevID == "":
		return Transition{}, false
	case !prev.Overrun() && next.Overrun():
		t.Kind = EatingWindowOver
	case prev.Phase == Fasting && next.Phase == Eating:
		t.Kind = FastingComplete
	default:
		return Transition{}, false
	}

	return t, true
}

// openID returns the ID of the fast in progress, or "".
func openID(s State) string {
	if !s.Active() {
		return ""
	}
	return s.Session.ID
}

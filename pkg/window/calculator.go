package window

import (
	"time"

	"github.com/0xmhha/fastm8/pkg/protocol"
	"github.com/0xmhha/fastm8/pkg/session"
)

// Compute returns the state of s under protocol p at now.
//
// A nil session yields Idle. A start later than now is treated as if the
// fast began at now, so elapsed time never goes negative.
func Compute(now time.Time, s *session.Session, p protocol.Protocol) State {
	if s == nil {
		return State{Phase: Idle}
	}

	snapshot := s.Clone()
	fasting := p.FastingDuration()
	eating := p.EatingDuration()

	st := State{
		Session:     &snapshot,
		FastingEnds: snapshot.Start.Add(fasting),
	}
	st.EatingEnds = st.FastingEnds.Add(eating)

	if snapshot.End != nil {
		return closed(st, snapshot.End.Sub(snapshot.Start), fasting)
	}

	if now.Before(snapshot.Start) {
		now = snapshot.Start
	}

	if now.Before(st.FastingEnds) {
		st.Phase = Fasting
		st.Elapsed = now.Sub(snapshot.Start)
		remaining := st.FastingEnds.Sub(now)
		st.Remaining = &remaining
		st.Percent = ratio(st.Elapsed, fasting)
		return st
	}

	st.Phase = Eating
	st.TargetMet = true
	st.Elapsed = now.Sub(st.FastingEnds)
	if !now.After(st.EatingEnds) {
		remaining := st.EatingEnds.Sub(now)
		st.Remaining = &remaining
	}
	st.Percent = ratio(st.Elapsed, eating)
	return st
}

// ForSession computes the state using the session's own protocol snapshot.
func ForSession(now time.Time, s *session.Session) State {
	if s == nil {
		return State{Phase: Idle}
	}
	return Compute(now, s, s.Protocol)
}

// closed fills st for a session that has ended after lasting d.
func closed(st State, d, fasting time.Duration) State {
	st.Completed = true
	st.Elapsed = d
	st.TargetMet = d >= fasting
	if st.TargetMet {
		st.Phase = Eating
		st.Percent = 1
		return st
	}
	st.Phase = Fasting
	st.Percent = ratio(d, fasting)
	return st
}

// ratio returns part/whole clamped to [0, 1]. An empty whole counts as done.
func ratio(part, whole time.Duration) float64 {
	if whole <= 0 {
		return 1
	}
	r := float64(part) / float64(whole)
	switch {
	case r < 0:
		return 0
	case r > 1:
		return 1
	default:
		return r
	}
}

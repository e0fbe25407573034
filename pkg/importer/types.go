// Package importer moves sessions across the process boundary.
//
// Sessions obtained from elsewhere, such as a log exported by the original
// web service or by another fastm8 installation, arrive as JSONL records:
//
//	{"id":"a1","protocol":"16:8","fastingHours":16,"eatingHours":8,"startTime":"2024-03-01T20:00:00Z","endTime":"2024-03-02T12:30:00Z"}
//
// The parser skips malformed lines instead of failing and reports each one
// with its line number. Export writes the same record shape (JSONL or JSON)
// or a CSV table.
//
// Example usage:
//
//	p := importer.New(protocol.NewStandardCatalog())
//	res, err := p.ParseFile("fasts.jsonl")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for _, skipped := range res.Skipped {
//	    fmt.Println(skipped)
//	}
//	n, err := mgr.Import(ctx, res.Sessions)
package importer

import (
	"context"
	"time"

	"github.com/0xmhha/fastm8/pkg/protocol"
	"github.com/0xmhha/fastm8/pkg/session"
)

// Record is the wire form of a session.
//
// Invariant: ID and StartTime are set.
// Invariant: EndTime, when set, is after StartTime.
type Record struct {
	ID           string     `json:"id"`
	Protocol     string     `json:"protocol"`
	FastingHours float64    `json:"fastingHours"`
	EatingHours  float64    `json:"eatingHours"`
	StartTime    time.Time  `json:"startTime"`
	EndTime      *time.Time `json:"endTime,omitempty"`
}

// Validate checks the record invariants.
func (r *Record) Validate() error {
	if r.ID == "" {
		return ErrMissingID
	}
	if r.StartTime.IsZero() {
		return ErrMissingStart
	}
	if r.EndTime != nil && !r.EndTime.After(r.StartTime) {
		return ErrEndBeforeStart
	}
	return nil
}

// FromSession converts a session to its wire form.
func FromSession(s session.Session) Record {
	r := Record{
		ID:           s.ID,
		Protocol:     s.Protocol.ID,
		FastingHours: s.Protocol.FastingHours,
		EatingHours:  s.Protocol.EatingHours,
		StartTime:    s.Start,
	}
	if s.End != nil {
		end := *s.End
		r.EndTime = &end
	}
	return r
}

// Result is the outcome of parsing a stream.
type Result struct {
	// Sessions holds every record that parsed and validated.
	Sessions []session.Session

	// Skipped describes every line that was rejected.
	Skipped []*ParseError

	// Lines is the number of non-blank lines read.
	Lines int
}

// Source yields sessions from outside the process.
type Source interface {
	Sessions(ctx context.Context) (*Result, error)
}

// Resolver resolves protocol identifiers that carry no hours.
type Resolver interface {
	Resolve(id string) (protocol.Protocol, error)
}

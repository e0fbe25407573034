package importer

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/0xmhha/fastm8/pkg/protocol"
	"github.com/0xmhha/fastm8/pkg/session"
)

const (
	// MaxFileSize is the maximum accepted import file size (10MB).
	MaxFileSize = 10 * 1024 * 1024

	// MaxLineLength is the maximum accepted line length (64KB).
	MaxLineLength = 64 * 1024
)

// Parser converts JSONL records into sessions.
type Parser struct {
	resolver Resolver
}

// New creates a parser. resolver fills in hours for records that only name
// their protocol; it may be nil.
func New(resolver Resolver) *Parser {
	return &Parser{resolver: resolver}
}

// ParseFile parses the JSONL file at path.
func (p *Parser) ParseFile(path string) (*Result, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}
	if info.Size() > MaxFileSize {
		return nil, fmt.Errorf("%w: size=%d, max=%d", ErrFileTooLarge, info.Size(), MaxFileSize)
	}

	// #nosec G304 -- path is chosen by the user
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	return p.Parse(f)
}

// Parse reads JSONL records from r. Blank lines are ignored; malformed or
// invalid lines are collected in Result.Skipped.
func (p *Parser) Parse(r io.Reader) (*Result, error) {
	res := &Result{}
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 4096), MaxLineLength)

	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		res.Lines++

		s, err := p.ParseLine(line)
		if err != nil {
			res.Skipped = append(res.Skipped, &ParseError{Line: lineNum, Data: line, Err: err})
			continue
		}
		res.Sessions = append(res.Sessions, s)
	}
	if err := scanner.Err(); err != nil {
		return res, fmt.Errorf("scanner error at line %d: %w", lineNum+1, err)
	}

	return res, nil
}

// ParseLine parses and validates a single record.
func (p *Parser) ParseLine(line string) (session.Session, error) {
	var rec Record
	if err := json.Unmarshal([]byte(line), &rec); err != nil {
		return session.Session{}, fmt.Errorf("%w: %v", ErrMalformedJSON, err)
	}
	if err := rec.Validate(); err != nil {
		return session.Session{}, err
	}

	proto, err := p.protocolFor(rec)
	if err != nil {
		return session.Session{}, err
	}

	s := session.Session{
		ID:       rec.ID,
		Protocol: proto,
		Start:    rec.StartTime.UTC(),
	}
	if rec.EndTime != nil {
		end := rec.EndTime.UTC()
		s.End = &end
	}
	return s, nil
}

// protocolFor builds the protocol snapshot of rec.
//
// Explicit hours win. Otherwise the identifier is resolved, and failing
// that parsed as "F:E" notation.
func (p *Parser) protocolFor(rec Record) (protocol.Protocol, error) {
	id := strings.TrimSpace(rec.Protocol)

	if rec.FastingHours != 0 || rec.EatingHours != 0 {
		if id == "" {
			id = fmt.Sprintf("%g:%g", rec.FastingHours, rec.EatingHours)
		}
		pr := protocol.Protocol{ID: id, FastingHours: rec.FastingHours, EatingHours: rec.EatingHours}
		pr.Custom = pr.FastingHours+pr.EatingHours != 24
		if err := pr.Validate(); err != nil {
			return protocol.Protocol{}, err
		}
		return pr, nil
	}

	if id == "" {
		id = protocol.Default
	}
	if p.resolver != nil {
		if pr, err := p.resolver.Resolve(id); err == nil {
			return pr, nil
		}
	}
	if pr, err := protocol.Parse(id); err == nil {
		return pr, nil
	}
	return protocol.Protocol{}, fmt.Errorf("%w: %q", ErrUnknownProtocol, id)
}

// FileSource reads sessions from a JSONL file.
type FileSource struct {
	Path   string
	Parser *Parser
}

// Sessions implements Source.
func (s FileSource) Sessions(ctx context.Context) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p := s.Parser
	if p == nil {
		p = New(nil)
	}
	return p.ParseFile(s.Path)
}

package protocol

import (
	"strconv"
	"strings"
)

// Catalog holds registered protocols in insertion order.
//
// A Catalog is not safe for concurrent use; it belongs to the composing
// application, which registers protocols at start-up.
type Catalog struct {
	order []string
	byID  map[string]Protocol
}

// NewCatalog returns an empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{byID: make(map[string]Protocol)}
}

// NewStandardCatalog returns a catalog pre-loaded with Standard().
func NewStandardCatalog() *Catalog {
	c := NewCatalog()
	for _, p := range Standard() {
		// Built-ins are valid by construction.
		_ = c.Register(p)
	}
	return c
}

// Register adds p to the catalog.
//
// The identifier is trimmed before use. Returns ErrDuplicateProtocol when
// the identifier is taken, or a validation error from Protocol.Validate.
func (c *Catalog) Register(p Protocol) error {
	p.ID = strings.TrimSpace(p.ID)
	if err := p.Validate(); err != nil {
		return err
	}
	if _, exists := c.byID[p.ID]; exists {
		return ErrDuplicateProtocol.Wrapf("%q", p.ID)
	}
	c.byID[p.ID] = p
	c.order = append(c.order, p.ID)
	return nil
}

// Resolve returns the protocol registered under id.
func (c *Catalog) Resolve(id string) (Protocol, error) {
	p, ok := c.byID[strings.TrimSpace(id)]
	if !ok {
		return Protocol{}, ErrProtocolNotFound.Wrapf("%q", id)
	}
	return p, nil
}

// List returns every protocol in registration order.
func (c *Catalog) List() []Protocol {
	out := make([]Protocol, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.byID[id])
	}
	return out
}

// Len returns the number of registered protocols.
func (c *Catalog) Len() int {
	return len(c.order)
}

// Parse builds a protocol from "FASTING:EATING" notation, e.g. "16:8" or
// "15.5:8.5". The result is marked Custom when the hours do not add up to
// 24. The returned protocol is validated but not registered.
func Parse(notation string) (Protocol, error) {
	notation = strings.TrimSpace(notation)
	fastingStr, eatingStr, ok := strings.Cut(notation, ":")
	if !ok {
		return Protocol{}, ErrInvalidNotation.Wrapf("%q", notation)
	}

	fasting, err := strconv.ParseFloat(strings.TrimSpace(fastingStr), 64)
	if err != nil {
		return Protocol{}, ErrInvalidNotation.Wrapf("%q: %v", notation, err)
	}
	eating, err := strconv.ParseFloat(strings.TrimSpace(eatingStr), 64)
	if err != nil {
		return Protocol{}, ErrInvalidNotation.Wrapf("%q: %v", notation, err)
	}

	p := Protocol{
		ID:           notation,
		FastingHours: fasting,
		EatingHours:  eating,
	}
	p.Custom = fasting+eating != 24
	if err := p.Validate(); err != nil {
		return Protocol{}, err
	}
	return p, nil
}

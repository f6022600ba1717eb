package cms

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrInvalidTransition is returned when an editor action is not allowed in
// the editor's current state.
var ErrInvalidTransition = errors.New("invalid editor transition")

// ErrConflict marks a write rejected because it collides with an existing record.
var ErrConflict = errors.New("conflict")

// ValidationError carries one message per invalid form field.
type ValidationError struct {
	Fields map[string]string `json:"fields"`
	// Conflict is set when a field collides with another record.
	Conflict bool `json:"-"`
}

// Unwrap lets errors.Is(err, ErrConflict) match conflicting fields.
func (e *ValidationError) Unwrap() error {
	if e.Conflict {
		return ErrConflict
	}
	return nil
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, e.Fields[k]))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Checks accumulates field errors for one record.
type Checks struct {
	fields   map[string]string
	conflict bool
}

// Require records msg for field unless ok. The first message per field wins.
func (c *Checks) Require(ok bool, field, msg string) {
	if ok {
		return
	}
	if c.fields == nil {
		c.fields = make(map[string]string)
	}
	if _, seen := c.fields[field]; !seen {
		c.fields[field] = msg
	}
}

// Unique records msg for field unless ok and marks the result a conflict.
func (c *Checks) Unique(ok bool, field, msg string) {
	if !ok {
		c.conflict = true
	}
	c.Require(ok, field, msg)
}

// NotBlank requires a non-whitespace value.
func (c *Checks) NotBlank(value, field string) {
	c.Require(strings.TrimSpace(value) != "", field, "is required")
}

// Err returns a *ValidationError, or nil when every check passed.
func (c *Checks) Err() error {
	if len(c.fields) == 0 {
		return nil
	}
	return &ValidationError{Fields: c.fields, Conflict: c.conflict}
}

package cms

import (
	"context"
	"fmt"
	"sync"
)

// State of an Editor.
type State int

const (
	Idle State = iota
	Editing
	Submitting
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Editing:
		return "editing"
	case Submitting:
		return "submitting"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Backend is what an Editor drives; *Service satisfies it.
type Backend[T any] interface {
	List(ctx context.Context) ([]T, error)
	Get(ctx context.Context, id string) (T, error)
	Create(ctx context.Context, rec T) (T, Notice, error)
	Replace(ctx context.Context, id string, rec T) (T, Notice, error)
	Delete(ctx context.Context, id string) (Notice, error)
}

// Editor is the list-plus-form workflow of one admin screen:
//
//	Idle --New/Edit--> Editing --Submit--> Submitting --ok--> Idle
//	                      ^                     |
//	                      +-------failure-------+
//
// A failed submit keeps the form and the error so the admin can resubmit.
type Editor[T any] struct {
	backend Backend[T]

	mu     sync.Mutex
	state  State
	items  []T
	form   T
	id     string
	err    error
	notice Notice
}

func NewEditor[T any](backend Backend[T]) *Editor[T] {
	return &Editor[T]{backend: backend}
}

func (e *Editor[T]) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Items is the list shown in the Idle view.
func (e *Editor[T]) Items() []T {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.items
}

// Form returns the values being edited and the id of the record, "" for a new one.
func (e *Editor[T]) Form() (T, string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.form, e.id
}

// Err is the error of the last failed submit or reload.
func (e *Editor[T]) Err() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.err
}

func (e *Editor[T]) Notice() Notice {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.notice
}

// Reload refreshes the list. It is allowed in any state except Submitting.
func (e *Editor[T]) Reload(ctx context.Context) error {
	e.mu.Lock()
	if e.state == Submitting {
		e.mu.Unlock()
		return fmt.Errorf("%w: reload while %s", ErrInvalidTransition, Submitting)
	}
	e.mu.Unlock()

	items, err := e.backend.List(ctx)

	e.mu.Lock()
	defer e.mu.Unlock()
	if err != nil {
		e.err = err
		return err
	}
	e.items = items
	return nil
}

// New opens a blank form, or one pre-filled with defaults.
func (e *Editor[T]) New(defaults T) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state != Idle {
		return fmt.Errorf("%w: add while %s", ErrInvalidTransition, e.state)
	}
	e.state, e.form, e.id, e.err = Editing, defaults, "", nil
	return nil
}

// Edit opens the form pre-filled with the record id.
func (e *Editor[T]) Edit(ctx context.Context, id string) error {
	e.mu.Lock()
	if e.state != Idle {
		defer e.mu.Unlock()
		return fmt.Errorf("%w: edit while %s", ErrInvalidTransition, e.state)
	}
	e.mu.Unlock()

	rec, err := e.backend.Get(ctx, id)

	e.mu.Lock()
	defer e.mu.Unlock()
	if err != nil {
		e.err = err
		e.notice = NoticeFor(err)
		return err
	}
	if e.state != Idle {
		return fmt.Errorf("%w: edit while %s", ErrInvalidTransition, e.state)
	}
	e.state, e.form, e.id, e.err = Editing, rec, id, nil
	return nil
}

// Change applies fn to the form values.
func (e *Editor[T]) Change(fn func(*T)) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state != Editing {
		return fmt.Errorf("%w: change while %s", ErrInvalidTransition, e.state)
	}
	fn(&e.form)
	return nil
}

// Cancel discards the form.
func (e *Editor[T]) Cancel() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state != Editing {
		return fmt.Errorf("%w: cancel while %s", ErrInvalidTransition, e.state)
	}
	var zero T
	e.state, e.form, e.id, e.err = Idle, zero, "", nil
	return nil
}

// Submit saves the form. On success the editor returns to Idle with a
// reloaded list; on failure it stays in Editing with the form intact.
func (e *Editor[T]) Submit(ctx context.Context) (Notice, error) {
	e.mu.Lock()
	if e.state != Editing {
		defer e.mu.Unlock()
		return Notice{}, fmt.Errorf("%w: submit while %s", ErrInvalidTransition, e.state)
	}
	e.state = Submitting
	form, id := e.form, e.id
	e.mu.Unlock()

	var (
		notice Notice
		err    error
	)
	if id == "" {
		_, notice, err = e.backend.Create(ctx, form)
	} else {
		_, notice, err = e.backend.Replace(ctx, id, form)
	}

	if err != nil {
		e.mu.Lock()
		defer e.mu.Unlock()
		e.state, e.err, e.notice = Editing, err, notice
		return notice, err
	}

	// the write went through; a failed reload keeps the previous list
	items, listErr := e.backend.List(ctx)

	e.mu.Lock()
	defer e.mu.Unlock()
	var zero T
	e.state, e.form, e.id, e.notice, e.err = Idle, zero, "", notice, listErr
	if listErr == nil {
		e.items = items
	}
	return notice, nil
}

// Delete removes a record from the Idle list view.
func (e *Editor[T]) Delete(ctx context.Context, id string) (Notice, error) {
	e.mu.Lock()
	if e.state != Idle {
		defer e.mu.Unlock()
		return Notice{}, fmt.Errorf("%w: delete while %s", ErrInvalidTransition, e.state)
	}
	e.mu.Unlock()

	notice, err := e.backend.Delete(ctx, id)
	if err == nil {
		err = e.Reload(ctx)
		if err != nil {
			notice = NoticeFor(err)
		}
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.notice = notice
	e.err = err
	return notice, err
}

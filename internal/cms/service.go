package cms

import (
	"context"
	"errors"
	"fmt"

	"github.com/mahinbs/series-shop-beacon-32-sub001/internal/fallback"
	"go.uber.org/zap"
)

// Actions published after a successful write.
const (
	ActionCreated = "created"
	ActionUpdated = "updated"
	ActionDeleted = "deleted"
)

// Notifier is told about every successful content write.
type Notifier interface {
	ContentChanged(ctx context.Context, collection, action, id string)
}

// NoopNotifier drops notifications; used when no broker is configured.
type NoopNotifier struct{}

func (NoopNotifier) ContentChanged(context.Context, string, string, string) {}

// Level of a Notice.
type Level string

const (
	LevelSuccess Level = "success"
	LevelError   Level = "error"
)

// Notice is the user-facing outcome of a mutating action.
type Notice struct {
	Level   Level  `json:"level"`
	Title   string `json:"title"`
	Message string `json:"message"`
}

func success(msg string) Notice { return Notice{Level: LevelSuccess, Title: "Success", Message: msg} }

// NoticeFor describes a failed action for the editor.
func NoticeFor(err error) Notice {
	var verr *ValidationError
	switch {
	case errors.As(err, &verr):
		return Notice{Level: LevelError, Title: "Please fix the highlighted fields", Message: verr.Error()}
	case errors.Is(err, fallback.ErrNotFound):
		return Notice{Level: LevelError, Title: "Not found", Message: err.Error()}
	default:
		return Notice{Level: LevelError, Title: "Error", Message: err.Error()}
	}
}

// Validator checks a record before it is written. Returning a
// *ValidationError blocks the write.
type Validator[T any] func(ctx context.Context, rec *T) error

// Service is the admin write path for one collection: validate, store,
// notify, and report a Notice for every outcome.
type Service[T any, PT interface {
	*T
	fallback.Entity
}] struct {
	label    string
	store    *fallback.Store[T, PT]
	validate Validator[T]
	notifier Notifier
	log      *zap.Logger
}

// NewService wires a store with a validator. label names one record in
// notices, e.g. "Hero banner".
func NewService[T any, PT interface {
	*T
	fallback.Entity
}](label string, store *fallback.Store[T, PT], validate Validator[T], notifier Notifier, log *zap.Logger) *Service[T, PT] {
	if notifier == nil {
		notifier = NoopNotifier{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Service[T, PT]{
		label:    label,
		store:    store,
		validate: validate,
		notifier: notifier,
		log:      log.With(zap.String("collection", store.Collection())),
	}
}

func (s *Service[T, PT]) Collection() string { return s.store.Collection() }

func (s *Service[T, PT]) Store() *fallback.Store[T, PT] { return s.store }

func (s *Service[T, PT]) List(ctx context.Context) ([]T, error) {
	return s.store.Load(ctx)
}

func (s *Service[T, PT]) Get(ctx context.Context, id string) (T, error) {
	return s.store.Get(ctx, id)
}

// Create validates rec and inserts it.
func (s *Service[T, PT]) Create(ctx context.Context, rec T) (T, Notice, error) {
	var zero T
	if err := s.check(ctx, &rec); err != nil {
		return zero, NoticeFor(err), err
	}

	created, err := s.store.Create(ctx, rec)
	if err != nil {
		s.log.Error("Failed to create record", zap.Error(err))
		return zero, NoticeFor(err), err
	}

	id := PT(&created).Record().ID
	s.notifier.ContentChanged(ctx, s.Collection(), ActionCreated, id)
	s.log.Info("Record created", zap.String("id", id))
	return created, success(fmt.Sprintf("%s created successfully", s.label)), nil
}

// Update merges patch into the stored record, validates the merged result
// and writes it. Validators may normalise fields, e.g. derive a slug.
func (s *Service[T, PT]) Update(ctx context.Context, id string, patch fallback.Patch) (T, Notice, error) {
	var zero T

	merged, err := s.store.Get(ctx, id)
	if err != nil {
		return zero, NoticeFor(err), err
	}
	if err := fallback.ApplyPatch(PT(&merged), patch); err != nil {
		return zero, NoticeFor(err), err
	}
	if err := s.check(ctx, &merged); err != nil {
		return zero, NoticeFor(err), err
	}

	normalised, err := fallback.PatchFrom(merged)
	if err != nil {
		return zero, NoticeFor(err), err
	}

	updated, err := s.store.Update(ctx, id, normalised)
	if err != nil {
		s.log.Error("Failed to update record", zap.String("id", id), zap.Error(err))
		return zero, NoticeFor(err), err
	}

	s.notifier.ContentChanged(ctx, s.Collection(), ActionUpdated, id)
	return updated, success(fmt.Sprintf("%s updated successfully", s.label)), nil
}

// Replace writes every field of rec onto the record with id, which is how
// edit forms submit.
func (s *Service[T, PT]) Replace(ctx context.Context, id string, rec T) (T, Notice, error) {
	patch, err := fallback.PatchFrom(rec)
	if err != nil {
		var zero T
		return zero, NoticeFor(err), err
	}
	return s.Update(ctx, id, patch)
}

// Delete removes the record with id.
func (s *Service[T, PT]) Delete(ctx context.Context, id string) (Notice, error) {
	if err := s.store.Delete(ctx, id); err != nil {
		s.log.Error("Failed to delete record", zap.String("id", id), zap.Error(err))
		return NoticeFor(err), err
	}
	s.notifier.ContentChanged(ctx, s.Collection(), ActionDeleted, id)
	return success(fmt.Sprintf("%s deleted successfully", s.label)), nil
}

func (s *Service[T, PT]) check(ctx context.Context, rec *T) error {
	if s.validate == nil {
		return nil
	}
	return s.validate(ctx, rec)
}

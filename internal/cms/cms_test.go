package cms

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/mahinbs/series-shop-beacon-32-sub001/internal/db"
	"github.com/mahinbs/series-shop-beacon-32-sub001/internal/fallback"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordedChange struct {
	collection, action, id string
}

// MockNotifier records content changes for assertions.
type MockNotifier struct {
	mu      sync.Mutex
	changes []recordedChange
}

func (m *MockNotifier) ContentChanged(_ context.Context, collection, action, id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.changes = append(m.changes, recordedChange{collection, action, id})
}

func validateBanner(_ context.Context, b *db.HeroBanner) error {
	var c Checks
	c.NotBlank(b.Title, "title")
	c.NotBlank(b.ImageURL, "image_url")
	return c.Err()
}

func setupService(t *testing.T) (*Service[db.HeroBanner, *db.HeroBanner], *MockNotifier) {
	t.Helper()
	store := fallback.New[db.HeroBanner](db.CollectionHeroBanners, nil, fallback.NewMemoryDocuments(), nil)
	notifier := &MockNotifier{}
	return NewService("Hero banner", store, validateBanner, notifier, nil), notifier
}

func TestServiceCreateValidatesBeforeWriting(t *testing.T) {
	ctx := context.Background()
	svc, notifier := setupService(t)

	_, notice, err := svc.Create(ctx, db.HeroBanner{Title: "  "})
	require.Error(t, err)

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "is required", verr.Fields["title"])
	assert.Equal(t, "is required", verr.Fields["image_url"])
	assert.Equal(t, LevelError, notice.Level)

	all, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
	assert.Empty(t, notifier.changes)
}

func TestServiceLifecycleNotifies(t *testing.T) {
	ctx := context.Background()
	svc, notifier := setupService(t)

	created, notice, err := svc.Create(ctx, db.HeroBanner{Title: "Launch", ImageURL: "hero.png"})
	require.NoError(t, err)
	assert.Equal(t, LevelSuccess, notice.Level)
	assert.Equal(t, "Hero banner created successfully", notice.Message)

	updated, _, err := svc.Update(ctx, created.ID, fallback.Patch{"subtitle": "Now live"})
	require.NoError(t, err)
	assert.Equal(t, "Now live", updated.Subtitle)
	assert.Equal(t, "Launch", updated.Title)

	_, err = svc.Delete(ctx, created.ID)
	require.NoError(t, err)

	require.Len(t, notifier.changes, 3)
	assert.Equal(t, recordedChange{db.CollectionHeroBanners, ActionCreated, created.ID}, notifier.changes[0])
	assert.Equal(t, ActionUpdated, notifier.changes[1].action)
	assert.Equal(t, ActionDeleted, notifier.changes[2].action)
}

func TestServiceUpdateValidatesMergedRecord(t *testing.T) {
	ctx := context.Background()
	svc, _ := setupService(t)
	created, _, err := svc.Create(ctx, db.HeroBanner{Title: "Launch", ImageURL: "hero.png"})
	require.NoError(t, err)

	_, _, err = svc.Update(ctx, created.ID, fallback.Patch{"title": ""})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)

	got, err := svc.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Launch", got.Title)
}

func TestServiceUpdateUnknownIDIsNotFoundNotice(t *testing.T) {
	svc, _ := setupService(t)

	_, notice, err := svc.Update(context.Background(), "ghost", fallback.Patch{"title": "x"})
	assert.ErrorIs(t, err, fallback.ErrNotFound)
	assert.Equal(t, LevelError, notice.Level)
	assert.Equal(t, "Not found", notice.Title)
}

func TestEditorCreateFlow(t *testing.T) {
	ctx := context.Background()
	svc, _ := setupService(t)
	ed := NewEditor[db.HeroBanner](svc)

	assert.Equal(t, Idle, ed.State())
	require.NoError(t, ed.New(db.HeroBanner{IsActive: true}))
	assert.Equal(t, Editing, ed.State())

	require.NoError(t, ed.Change(func(b *db.HeroBanner) {
		b.Title = "Spring"
		b.ImageURL = "spring.png"
	}))

	notice, err := ed.Submit(ctx)
	require.NoError(t, err)
	assert.Equal(t, LevelSuccess, notice.Level)
	assert.Equal(t, Idle, ed.State())
	require.Len(t, ed.Items(), 1)
	assert.Equal(t, "Spring", ed.Items()[0].Title)
}

func TestEditorFailedSubmitKeepsForm(t *testing.T) {
	ctx := context.Background()
	svc, _ := setupService(t)
	ed := NewEditor[db.HeroBanner](svc)

	require.NoError(t, ed.New(db.HeroBanner{}))
	require.NoError(t, ed.Change(func(b *db.HeroBanner) { b.Title = "Only title" }))

	_, err := ed.Submit(ctx)
	require.Error(t, err)
	assert.Equal(t, Editing, ed.State())
	assert.Error(t, ed.Err())

	form, id := ed.Form()
	assert.Equal(t, "Only title", form.Title)
	assert.Empty(t, id)

	require.NoError(t, ed.Change(func(b *db.HeroBanner) { b.ImageURL = "x.png" }))
	_, err = ed.Submit(ctx)
	require.NoError(t, err)
	assert.Equal(t, Idle, ed.State())
	assert.NoError(t, ed.Err())
}

func TestEditorEditFlow(t *testing.T) {
	ctx := context.Background()
	svc, _ := setupService(t)
	created, _, err := svc.Create(ctx, db.HeroBanner{Title: "Old", ImageURL: "a.png"})
	require.NoError(t, err)

	ed := NewEditor[db.HeroBanner](svc)
	require.NoError(t, ed.Edit(ctx, created.ID))
	form, id := ed.Form()
	assert.Equal(t, created.ID, id)
	assert.Equal(t, "Old", form.Title)

	require.NoError(t, ed.Change(func(b *db.HeroBanner) { b.Title = "New" }))
	_, err = ed.Submit(ctx)
	require.NoError(t, err)

	got, err := svc.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "New", got.Title)
	assert.Equal(t, created.CreatedAt, got.CreatedAt)
}

func TestEditorRejectsInvalidTransitions(t *testing.T) {
	ctx := context.Background()
	svc, _ := setupService(t)
	ed := NewEditor[db.HeroBanner](svc)

	_, err := ed.Submit(ctx)
	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.ErrorIs(t, ed.Cancel(), ErrInvalidTransition)
	assert.ErrorIs(t, ed.Change(func(*db.HeroBanner) {}), ErrInvalidTransition)

	require.NoError(t, ed.New(db.HeroBanner{}))
	assert.ErrorIs(t, ed.New(db.HeroBanner{}), ErrInvalidTransition)
	assert.ErrorIs(t, ed.Edit(ctx, "x"), ErrInvalidTransition)
	_, err = ed.Delete(ctx, "x")
	assert.ErrorIs(t, err, ErrInvalidTransition)

	require.NoError(t, ed.Cancel())
	assert.Equal(t, Idle, ed.State())
}

func TestEditorEditUnknownStaysIdle(t *testing.T) {
	svc, _ := setupService(t)
	ed := NewEditor[db.HeroBanner](svc)

	err := ed.Edit(context.Background(), "ghost")
	assert.True(t, errors.Is(err, fallback.ErrNotFound))
	assert.Equal(t, Idle, ed.State())
	assert.Equal(t, LevelError, ed.Notice().Level)
}

func TestEditorDeleteReloads(t *testing.T) {
	ctx := context.Background()
	svc, _ := setupService(t)
	created, _, err := svc.Create(ctx, db.HeroBanner{Title: "Gone", ImageURL: "g.png"})
	require.NoError(t, err)

	ed := NewEditor[db.HeroBanner](svc)
	require.NoError(t, ed.Reload(ctx))
	require.Len(t, ed.Items(), 1)

	notice, err := ed.Delete(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Hero banner deleted successfully", notice.Message)
	assert.Empty(t, ed.Items())
}

func TestValidationErrorMessageIsSorted(t *testing.T) {
	err := &ValidationError{Fields: map[string]string{"price": "must be greater than 0", "name": "is required"}}
	assert.Equal(t, "validation failed: name: is required; price: must be greater than 0", err.Error())
}

package fallback

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrNoRemote is returned by Sync when the store runs without a remote.
var ErrNoRemote = errors.New("no remote store configured")

// Recorder receives fallback activity; metrics.Metrics implements it.
type Recorder interface {
	FallbackUsed(collection, op string)
	RemoteError(collection, op string)
}

// Store reads and writes one collection against a remote store and, when the
// remote fails for any reason, against the collection's local document.
// Remote failures are logged and counted, never returned.
type Store[T any, PT interface {
	*T
	Entity
}] struct {
	collection string
	remote     Remote[T]
	docs       Documents
	log        *zap.Logger
	recorder   Recorder
	now        func() time.Time

	mu     sync.Mutex
	seed   []T
	seeded bool
}

// New creates a store for collection. remote may be nil, in which case every
// call goes to the local document.
func New[T any, PT interface {
	*T
	Entity
}](collection string, remote Remote[T], docs Documents, log *zap.Logger) *Store[T, PT] {
	if log == nil {
		log = zap.NewNop()
	}
	return &Store[T, PT]{
		collection: collection,
		remote:     remote,
		docs:       docs,
		log:        log.With(zap.String("collection", collection)),
		now:        time.Now,
	}
}

// WithSeed sets the default dataset written to the local document the first
// time a fallback load finds it absent.
func (s *Store[T, PT]) WithSeed(seed ...T) *Store[T, PT] {
	s.seed = seed
	return s
}

func (s *Store[T, PT]) WithRecorder(r Recorder) *Store[T, PT] {
	s.recorder = r
	return s
}

// WithClock replaces time.Now; tests use it to get deterministic ids and timestamps.
func (s *Store[T, PT]) WithClock(now func() time.Time) *Store[T, PT] {
	s.now = now
	return s
}

func (s *Store[T, PT]) Collection() string { return s.collection }

// Load returns the collection ordered by display order, ties in insertion order.
func (s *Store[T, PT]) Load(ctx context.Context) ([]T, error) {
	if s.remote != nil {
		recs, err := s.remote.List(ctx, s.collection)
		if err == nil {
			sortByDisplayOrder[T, PT](recs)
			return recs, nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		s.remoteFailed("load", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	recs, ok, err := s.readLocal(ctx)
	if err != nil {
		return nil, err
	}
	if !ok {
		first := !s.seeded
		s.seeded = true
		if !first || len(s.seed) == 0 {
			return []T{}, nil
		}
		recs = s.seedRecords()
		if err := s.writeLocal(ctx, recs); err != nil {
			return nil, err
		}
		s.log.Info("Seeded local collection", zap.Int("records", len(recs)))
	}

	sortByDisplayOrder[T, PT](recs)
	return recs, nil
}

// Get returns the record with id.
func (s *Store[T, PT]) Get(ctx context.Context, id string) (T, error) {
	var zero T
	recs, err := s.Load(ctx)
	if err != nil {
		return zero, err
	}
	for _, rec := range recs {
		if PT(&rec).Record().ID == id {
			return rec, nil
		}
	}
	return zero, fmt.Errorf("%w: %s/%s", ErrNotFound, s.collection, id)
}

// Create inserts rec and returns it with id and timestamps assigned.
func (s *Store[T, PT]) Create(ctx context.Context, rec T) (T, error) {
	now := s.now().UTC()
	callerID := PT(&rec).Record().ID

	if s.remote != nil {
		remoteRec := rec
		meta := PT(&remoteRec).Record()
		if meta.ID == "" {
			meta.ID = uuid.NewString()
		}
		meta.CreatedAt, meta.UpdatedAt = now, now

		err := s.remote.Insert(ctx, s.collection, &remoteRec)
		if err == nil {
			s.mirror(ctx, func(recs []T) []T { return append(recs, remoteRec) })
			return remoteRec, nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			var zero T
			return zero, ctxErr
		}
		s.remoteFailed("create", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	recs, _, err := s.readLocal(ctx)
	if err != nil {
		var zero T
		return zero, err
	}

	meta := PT(&rec).Record()
	meta.ID = callerID
	if meta.ID == "" {
		meta.ID = s.localID(recs, now)
	}
	meta.CreatedAt, meta.UpdatedAt = now, now

	recs = append(recs, rec)
	if err := s.writeLocal(ctx, recs); err != nil {
		var zero T
		return zero, err
	}
	return rec, nil
}

// Update merges patch into the record with id.
func (s *Store[T, PT]) Update(ctx context.Context, id string, patch Patch) (T, error) {
	var zero T
	now := s.now().UTC()

	stamped := make(Patch, len(patch)+1)
	for k, v := range patch {
		stamped[k] = v
	}
	stamped["updated_at"] = now

	if s.remote != nil {
		updated, err := s.remote.Update(ctx, s.collection, id, stamped)
		if err == nil {
			rec := *updated
			s.mirror(ctx, func(recs []T) []T {
				for i := range recs {
					if PT(&recs[i]).Record().ID == id {
						recs[i] = rec
						return recs
					}
				}
				return append(recs, rec)
			})
			return rec, nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return zero, ctxErr
		}
		s.remoteFailed("update", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	recs, _, err := s.readLocal(ctx)
	if err != nil {
		return zero, err
	}
	for i := range recs {
		if PT(&recs[i]).Record().ID != id {
			continue
		}
		if err := ApplyPatch(PT(&recs[i]), stamped); err != nil {
			return zero, err
		}
		if err := s.writeLocal(ctx, recs); err != nil {
			return zero, err
		}
		return recs[i], nil
	}
	return zero, fmt.Errorf("%w: %s/%s", ErrNotFound, s.collection, id)
}

// Delete removes the record with id. Deleting an unknown id is not an error.
func (s *Store[T, PT]) Delete(ctx context.Context, id string) error {
	if s.remote != nil {
		err := s.remote.Delete(ctx, s.collection, id)
		if err == nil {
			s.mirror(ctx, func(recs []T) []T { return without[T, PT](recs, id) })
			return nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		s.remoteFailed("delete", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	recs, ok, err := s.readLocal(ctx)
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}
	return s.writeLocal(ctx, without[T, PT](recs, id))
}

// Sync overwrites the local document with the remote collection.
func (s *Store[T, PT]) Sync(ctx context.Context) (int, error) {
	if s.remote == nil {
		return 0, ErrNoRemote
	}
	recs, err := s.remote.List(ctx, s.collection)
	if err != nil {
		return 0, fmt.Errorf("list %s: %w", s.collection, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.writeLocal(ctx, recs); err != nil {
		return 0, err
	}
	return len(recs), nil
}

// mirror applies a successful remote mutation to the local document, if one
// exists, so a later outage serves current data.
func (s *Store[T, PT]) mirror(ctx context.Context, apply func([]T) []T) {
	s.mu.Lock()
	defer s.mu.Unlock()

	recs, ok, err := s.readLocal(ctx)
	if err != nil || !ok {
		return
	}
	if err := s.writeLocal(ctx, apply(recs)); err != nil {
		s.log.Warn("Failed to mirror remote write locally", zap.Error(err))
	}
}

func (s *Store[T, PT]) readLocal(ctx context.Context) ([]T, bool, error) {
	doc, ok, err := s.docs.Get(ctx, s.collection)
	if err != nil {
		return nil, false, fmt.Errorf("read local %s: %w", s.collection, err)
	}
	if !ok {
		return []T{}, false, nil
	}
	var recs []T
	if err := json.Unmarshal(doc, &recs); err != nil {
		return nil, false, fmt.Errorf("decode local %s: %w", s.collection, err)
	}
	if recs == nil {
		recs = []T{}
	}
	return recs, true, nil
}

func (s *Store[T, PT]) writeLocal(ctx context.Context, recs []T) error {
	doc, err := json.Marshal(recs)
	if err != nil {
		return fmt.Errorf("encode local %s: %w", s.collection, err)
	}
	if err := s.docs.Put(ctx, s.collection, doc); err != nil {
		return fmt.Errorf("write local %s: %w", s.collection, err)
	}
	return nil
}

func (s *Store[T, PT]) seedRecords() []T {
	now := s.now().UTC()
	recs := make([]T, len(s.seed))
	copy(recs, s.seed)
	for i := range recs {
		meta := PT(&recs[i]).Record()
		if meta.ID == "" {
			meta.ID = s.localID(recs[:i], now)
		}
		if meta.CreatedAt.IsZero() {
			meta.CreatedAt = now
		}
		if meta.UpdatedAt.IsZero() {
			meta.UpdatedAt = meta.CreatedAt
		}
	}
	return recs
}

// localID derives a timestamp id that is unused in recs.
func (s *Store[T, PT]) localID(recs []T, now time.Time) string {
	taken := make(map[string]struct{}, len(recs))
	for i := range recs {
		taken[PT(&recs[i]).Record().ID] = struct{}{}
	}
	n := now.UnixNano()
	for {
		id := "local-" + strconv.FormatInt(n, 10)
		if _, dup := taken[id]; !dup {
			return id
		}
		n++
	}
}

func (s *Store[T, PT]) remoteFailed(op string, err error) {
	if isMissingTable(err) {
		s.log.Error("Remote collection missing, run migrations; using local fallback",
			zap.String("op", op), zap.Error(err))
	} else {
		s.log.Warn("Remote store unavailable, using local fallback",
			zap.String("op", op), zap.Error(err))
	}
	if s.recorder != nil {
		s.recorder.RemoteError(s.collection, op)
		s.recorder.FallbackUsed(s.collection, op)
	}
}

func sortByDisplayOrder[T any, PT interface {
	*T
	Entity
}](recs []T) {
	sort.SliceStable(recs, func(i, j int) bool {
		return PT(&recs[i]).Record().DisplayOrder < PT(&recs[j]).Record().DisplayOrder
	})
}

func without[T any, PT interface {
	*T
	Entity
}](recs []T, id string) []T {
	out := recs[:0]
	for _, rec := range recs {
		if PT(&rec).Record().ID != id {
			out = append(out, rec)
		}
	}
	return out
}

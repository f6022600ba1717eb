package fallback

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mahinbs/series-shop-beacon-32-sub001/internal/db"
)

// ErrNotFound is returned when an id does not exist in the collection.
var ErrNotFound = errors.New("record not found")

// Entity is implemented by every record type through the embedded db.Meta.
type Entity interface {
	Record() *db.Meta
}

// Patch is a partial update keyed by JSON field name.
type Patch map[string]any

// PatchFrom converts a full record into a patch carrying all its JSON fields.
// Edit forms submit whole records, so this is how they become updates.
func PatchFrom(v any) (Patch, error) {
	body, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode patch: %w", err)
	}
	var patch Patch
	if err := json.Unmarshal(body, &patch); err != nil {
		return nil, fmt.Errorf("decode patch: %w", err)
	}
	delete(patch, "id")
	delete(patch, "created_at")
	return patch, nil
}

// ApplyPatch merges patch into rec using JSON field names. Identity and
// creation time are never overwritten.
func ApplyPatch(rec Entity, patch Patch) error {
	meta := rec.Record()
	id, created := meta.ID, meta.CreatedAt

	body, err := json.Marshal(patch)
	if err != nil {
		return fmt.Errorf("encode patch: %w", err)
	}
	if err := json.Unmarshal(body, rec); err != nil {
		return fmt.Errorf("apply patch: %w", err)
	}

	meta.ID, meta.CreatedAt = id, created
	return nil
}

package persistence

import (
	"encoding/json"
	"errors"
	"time"
)

// Version is the current snapshot format version. Snapshots written by a
// newer build are rejected outright rather than partially loaded.
const Version = 1

// ErrUnsupportedVersion is returned when a stored snapshot's version exceeds
// the supported format version.
var ErrUnsupportedVersion = errors.New("persistence: unsupported snapshot version")

// Snapshot is a complete, versioned capture of the live simulation: every
// persisted entity with its per-type component payloads, the global resource
// totals, and the time scale. Entity ids are remapped on restore, so the raw
// values here are only meaningful within one snapshot.
type Snapshot struct {
	ID        string    `json:"id"`
	Version   int       `json:"version"`
	Tick      uint64    `json:"tick"`
	Seed      int64     `json:"seed"`
	TimeScale float64   `json:"time_scale"`
	Paused    bool      `json:"paused"`
	CreatedAt time.Time `json:"created_at"`

	Entities []EntityRecord `json:"entities"`
	Totals   map[string]int `json:"totals"`
}

// EntityRecord holds one entity's persisted components, keyed by component
// type name. Transient task markers are never recorded.
type EntityRecord struct {
	Entity     uint64                     `json:"entity"`
	Components map[string]json.RawMessage `json:"components"`
}

package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/GriffinCanCode/TermDeck/backend/internal/shared/types"
)

// RecordVersion is written into every record
const RecordVersion = 1

// ErrUnsupportedVersion is returned for records written by a newer build
var ErrUnsupportedVersion = errors.New("unsupported session record version")

// Record is the per-scope view state that survives project switches
type Record struct {
	Version         int                         `json:"version"`
	Instance        string                      `json:"instance,omitempty"`
	ActiveSessionID types.TerminalID            `json:"activeSessionId,omitempty"`
	ViewMode        types.ViewMode              `json:"viewMode"`
	GridLayout      types.GridLayout            `json:"gridLayout"`
	CustomNames     map[types.TerminalID]string `json:"customNames,omitempty"`
	SavedAt         time.Time                   `json:"savedAt"`
}

// Normalize replaces unknown view values with defaults and checks the version.
func (r *Record) Normalize() error {
	if r.Version > RecordVersion {
		return ErrUnsupportedVersion
	}
	if r.Version == 0 {
		r.Version = RecordVersion
	}
	if _, err := types.ParseViewMode(string(r.ViewMode)); err != nil {
		r.ViewMode = types.DefaultViewMode
	}
	if !r.GridLayout.Valid() {
		if layout, err := types.ParseGridLayout(string(r.GridLayout)); err == nil {
			r.GridLayout = layout
		} else {
			r.GridLayout = types.DefaultGridLayout
		}
	}
	return nil
}

// FromInstance reports whether ids in the record can be trusted by the
// store instance inst. Records without an instance are trusted.
func (r *Record) FromInstance(inst string) bool {
	return r.Instance == "" || r.Instance == inst
}

// Clone returns a deep copy
func (r *Record) Clone() *Record {
	if r == nil {
		return nil
	}
	out := *r
	if r.CustomNames != nil {
		out.CustomNames = make(map[types.TerminalID]string, len(r.CustomNames))
		for k, v := range r.CustomNames {
			out.CustomNames[k] = v
		}
	}
	return &out
}

// Backend stores records by scope key
type Backend interface {
	// Load returns (nil, false, nil) when there is no record for key
	Load(ctx context.Context, key string) (*Record, bool, error)
	Save(ctx context.Context, key string, rec *Record) error
	Delete(ctx context.Context, key string) error
	Close() error
}

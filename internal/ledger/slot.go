// Package ledger describes the exclusive daily slot shared by the desk and
// parking reservation ledgers: a resource holds at most one entry per day and
// a user holds at most one entry per day within the same ledger.
package ledger

import (
	"errors"
	"fmt"
	"strings"

	"github.com/example/desk-booking/internal/calendar"
)

// Kind identifies a reservation ledger.
type Kind string

const (
	// KindDesk is the desk ledger.
	KindDesk Kind = "desk"
	// KindParking is the parking spot ledger.
	KindParking Kind = "parking"
)

// Kinds lists every ledger in a stable order.
var Kinds = []Kind{KindDesk, KindParking}

// ErrUnknownKind indicates a ledger name that is not recognised.
var ErrUnknownKind = errors.New("ledger: unknown kind")

// ParseKind resolves a case-insensitive ledger name.
func ParseKind(value string) (Kind, error) {
	if kind := Kind(strings.ToLower(strings.TrimSpace(value))); kind.Valid() {
		return kind, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownKind, value)
}

// Valid reports whether k is a known ledger.
func (k Kind) Valid() bool {
	return k == KindDesk || k == KindParking
}

// Entry is one reservation row as seen by conflict detection.
type Entry struct {
	ID         string
	UserID     string
	ResourceID string
	Date       calendar.Date
}

// ConflictType describes which slot an entry collides on.
type ConflictType string

const (
	// ConflictResource indicates the resource is already taken for the day.
	ConflictResource ConflictType = "resource"
	// ConflictUser indicates the user already holds an entry for the day.
	ConflictUser ConflictType = "user"
)

// Conflict details an existing entry that blocks a candidate.
type Conflict struct {
	WithEntryID string
	Type        ConflictType
	UserID      string
	ResourceID  string
	Date        calendar.Date
}

// DetectConflicts identifies the existing entries of one ledger that block the
// candidate. Resource conflicts are reported before user conflicts, and an
// entry that matches both slots is reported once as a resource conflict.
func DetectConflicts(existing []Entry, candidate Entry) []Conflict {
	var resource, user []Conflict
	for _, entry := range existing {
		if entry.Date != candidate.Date {
			continue
		}
		if candidate.ID != "" && entry.ID == candidate.ID {
			continue
		}
		switch {
		case entry.ResourceID == candidate.ResourceID:
			resource = append(resource, conflictFor(entry, ConflictResource))
		case entry.UserID == candidate.UserID:
			user = append(user, conflictFor(entry, ConflictUser))
		}
	}
	if len(resource) == 0 && len(user) == 0 {
		return nil
	}
	return append(resource, user...)
}

func conflictFor(entry Entry, kind ConflictType) Conflict {
	return Conflict{
		WithEntryID: entry.ID,
		Type:        kind,
		UserID:      entry.UserID,
		ResourceID:  entry.ResourceID,
		Date:        entry.Date,
	}
}

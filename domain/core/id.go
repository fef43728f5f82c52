package core

import (
	"github.com/google/uuid"
)

// ID represents a domain identifier
type ID string

// NewID creates a new unique identifier using UUID v7 for time-ordered generation
func NewID() ID {
	id, err := uuid.NewV7()
	if err != nil {
		id = uuid.New()
	}
	return ID(id.String())
}

// String returns the string representation
func (id ID) String() string {
	return string(id)
}

// IsEmpty checks if the ID is empty
func (id ID) IsEmpty() bool {
	return id == ""
}

// Domain-specific ID types
type (
	RunID        ID
	RespondentID ID
	ActivityID   ID
)

func (id RunID) String() string        { return ID(id).String() }
func (id RespondentID) String() string { return ID(id).String() }
func (id ActivityID) String() string   { return ID(id).String() }

// NewRunID creates a time-ordered run identifier
func NewRunID() RunID {
	return RunID(NewID())
}

// SessionKey identifies one reconstructed session. Activity is empty when
// sessions are keyed by respondent only.
type SessionKey struct {
	Respondent RespondentID
	Activity   ActivityID
}

func (k SessionKey) String() string {
	if k.Activity == "" {
		return k.Respondent.String()
	}
	return k.Respondent.String() + "/" + k.Activity.String()
}

// Less orders keys by respondent, then activity.
func (k SessionKey) Less(other SessionKey) bool {
	if k.Respondent != other.Respondent {
		return k.Respondent < other.Respondent
	}
	return k.Activity < other.Activity
}

package types

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ID is a custom type that wraps a UUID string.
// It provides type-safe UUID generation, validation, and serialization.
type ID string

// NewID generates a new UUID v4 and returns it as an ID.
// It will never return an error as uuid.New() uses crypto/rand
// which panics on system-level failures (extremely rare).
func NewID() ID {
	return ID(uuid.New().String())
}

// ParseID parses and validates a string as a UUID, returning an ID.
// It returns an error if the string is not a valid UUID format.
func ParseID(s string) (ID, error) {
	if s == "" {
		return "", fmt.Errorf("ID cannot be empty")
	}

	parsedUUID, err := uuid.Parse(s)
	if err != nil {
		return "", fmt.Errorf("invalid UUID format: %w", err)
	}

	return ID(parsedUUID.String()), nil
}

// Validate checks if the ID is a valid UUID.
// Returns an error if the ID is invalid or empty.
func (id ID) Validate() error {
	if id == "" {
		return fmt.Errorf("ID cannot be empty")
	}

	if _, err := uuid.Parse(string(id)); err != nil {
		return fmt.Errorf("invalid UUID format: %w", err)
	}

	return nil
}

// String returns the string representation of the ID.
func (id ID) String() string {
	return string(id)
}

// IsZero checks if the ID is empty or zero-valued.
func (id ID) IsZero() bool {
	return id == ""
}

// MarshalJSON implements the json.Marshaler interface.
func (id ID) MarshalJSON() ([]byte, error) {
	if id.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(string(id))
}

// UnmarshalJSON implements the json.Unmarshaler interface.
func (id *ID) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("failed to unmarshal ID: %w", err)
	}

	if s == "" {
		*id = ""
		return nil
	}

	parsedID, err := ParseID(s)
	if err != nil {
		return err
	}

	*id = parsedID
	return nil
}

// UserID identifies one end user of the coaching system. User identifiers are
// issued by the excluded front-door layer and treated as opaque here, so the
// only validation is non-emptiness and a sane length bound.
type UserID string

// Validate checks that the user ID is usable as a store key component.
func (u UserID) Validate() error {
	if u == "" {
		return fmt.Errorf("user ID cannot be empty")
	}
	if len(u) > 128 {
		return fmt.Errorf("user ID exceeds 128 characters")
	}
	if strings.ContainsAny(string(u), " \t\n") {
		return fmt.Errorf("user ID cannot contain whitespace")
	}
	return nil
}

// String returns the string representation of the UserID.
func (u UserID) String() string {
	return string(u)
}

// IsZero checks if the UserID is empty.
func (u UserID) IsZero() bool {
	return u == ""
}

// ExecutionID identifies one dispatched execution of a plan. The format is
// "luna_exec_<unix>_<uuid8>", readable in logs and sortable by creation time.
type ExecutionID string

// NewExecutionID generates an execution ID for a dispatch started now.
func NewExecutionID() ExecutionID {
	suffix := strings.ReplaceAll(uuid.New().String(), "-", "")[:8]
	return ExecutionID(fmt.Sprintf("luna_exec_%d_%s", time.Now().Unix(), suffix))
}

// Validate checks the execution ID shape.
func (e ExecutionID) Validate() error {
	if e == "" {
		return fmt.Errorf("execution ID cannot be empty")
	}
	if !strings.HasPrefix(string(e), "luna_exec_") {
		return fmt.Errorf("invalid execution ID format: %s", e)
	}
	return nil
}

// String returns the string representation of the ExecutionID.
func (e ExecutionID) String() string {
	return string(e)
}

// IsZero checks if the ExecutionID is empty.
func (e ExecutionID) IsZero() bool {
	return e == ""
}

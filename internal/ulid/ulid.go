// Package ulid provides a type-safe wrapper around github.com/oklog/ulid/v2
// with prefixed identifiers for codeforge entities and database/json
// integration.
//
// ULIDs are Universally Unique Lexicographically Sortable Identifiers.
// They sort by creation time, which makes them good primary keys for the
// generation history tables.
package ulid

import (
	"bytes"
	"crypto/rand"
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// Common prefixes for different parts of the application
const (
	// Prefix for project-related ULIDs
	PrefixProject = "proj"

	// Prefix for generation-run ULIDs
	PrefixGeneration = "gen"

	// Prefix for generated-file ULIDs
	PrefixFile = "file"

	// Prefix for error-report ULIDs
	PrefixError = "err"

	// Prefix for request IDs
	PrefixRequest = "req"

	// Prefix for memory-entry ULIDs
	PrefixMemory = "mem"

	// PrefixSeparator is used to separate the prefix from the ULID
	PrefixSeparator = "-"
)

var (
	entropy     = ulid.Monotonic(rand.Reader, 0)
	entropyLock sync.Mutex

	// Nil represents the zero value of ULID, useful for nil checks
	Nil = ULID{ulid.ULID{}, ""}
)

// ULID wraps ulid.ULID with an optional entity prefix and database/JSON
// serialization support.
type ULID struct {
	ulid.ULID
	prefix string
}

// Generate creates a new ULID with the current timestamp.
func Generate() ULID {
	return NewWithTime(time.Now())
}

// GenerateWithPrefix creates a new ULID with the current timestamp and a prefix.
// The prefix provides context about what the ID represents (e.g., "gen" for generation).
func GenerateWithPrefix(prefix string) ULID {
	id := NewWithTime(time.Now())
	id.prefix = prefix
	return id
}

// NewWithTime creates a new ULID with a specific timestamp.
func NewWithTime(t time.Time) ULID {
	entropyLock.Lock()
	id := ulid.MustNew(ulid.Timestamp(t), entropy)
	entropyLock.Unlock()
	return ULID{id, ""}
}

// Parse parses a ULID string and returns the ULID struct.
// It handles both plain ULIDs and prefixed ULIDs
// (e.g., "gen-01AN4Z07BY79KA1307SR9X4MV3").
func Parse(id string) (ULID, error) {
	parts := strings.SplitN(id, PrefixSeparator, 2)

	var rawID string
	var prefix string

	if len(parts) > 1 {
		prefix = parts[0]
		rawID = parts[1]
	} else {
		rawID = id
	}

	parsed, err := ulid.Parse(rawID)
	if err != nil {
		return ULID{}, err
	}

	return ULID{parsed, prefix}, nil
}

// MustParse is like Parse but panics if the string cannot be parsed.
func MustParse(s string) ULID {
	id, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return id
}

// Validate checks if a string is a valid ULID, with or without a prefix.
func Validate(id string) bool {
	parts := strings.SplitN(id, PrefixSeparator, 2)

	rawID := id
	if len(parts) > 1 {
		rawID = parts[1]
	}

	_, err := ulid.Parse(rawID)
	return err == nil
}

// Compare compares two ULIDs lexicographically, ignoring prefixes.
// Returns -1 if u < other, 1 if u > other, and 0 if they're equal.
func (u ULID) Compare(other ULID) int {
	return bytes.Compare(u.ULID[:], other.ULID[:])
}

// IsZero returns true if the ULID is the zero value (Nil).
func (u ULID) IsZero() bool {
	return u.ULID == ulid.ULID{}
}

// SetPrefix sets the prefix for the ULID.
func (u *ULID) SetPrefix(prefix string) {
	u.prefix = prefix
}

// Prefix returns the prefix of the ULID.
func (u ULID) Prefix() string {
	return u.prefix
}

// String returns the string representation of the ULID.
// If the ULID has a prefix, it's included in the format "prefix-ulid".
func (u ULID) String() string {
	if u.prefix != "" {
		return u.prefix + PrefixSeparator + u.ULID.String()
	}
	return u.ULID.String()
}

// RawString returns the ULID string without any prefix.
func (u ULID) RawString() string {
	return u.ULID.String()
}

// Time returns the timestamp encoded in the ULID.
func (u ULID) Time() time.Time {
	return time.UnixMilli(int64(u.ULID.Time()))
}

// MarshalJSON implements json.Marshaler.
func (u ULID) MarshalJSON() ([]byte, error) {
	return json.Marshal(u.String())
}

// UnmarshalJSON implements json.Unmarshaler.
func (u *ULID) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}

	parsed, err := Parse(s)
	if err != nil {
		return err
	}

	*u = parsed
	return nil
}

// Value implements driver.Valuer for database storage.
func (u ULID) Value() (driver.Value, error) {
	return u.String(), nil
}

// Scan implements sql.Scanner for database retrieval.
func (u *ULID) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*u = Nil
		return nil
	case string:
		parsed, err := Parse(v)
		if err != nil {
			return err
		}
		*u = parsed
		return nil
	case []byte:
		parsed, err := Parse(string(v))
		if err != nil {
			return err
		}
		*u = parsed
		return nil
	default:
		return fmt.Errorf("unsupported type for ULID scan: %T", src)
	}
}

// ProjectID generates a new prefixed project ID string.
func ProjectID() string {
	return GenerateWithPrefix(PrefixProject).String()
}

// GenerationID generates a new prefixed generation ID string.
func GenerationID() string {
	return GenerateWithPrefix(PrefixGeneration).String()
}

// FileID generates a new prefixed generated-file ID string.
func FileID() string {
	return GenerateWithPrefix(PrefixFile).String()
}

// ErrorID generates a new prefixed error-report ID string.
func ErrorID() string {
	return GenerateWithPrefix(PrefixError).String()
}

// RequestID generates a new prefixed request ID string.
func RequestID() string {
	return GenerateWithPrefix(PrefixRequest).String()
}

// MemoryID generates a new prefixed memory-entry ID string.
func MemoryID() string {
	return GenerateWithPrefix(PrefixMemory).String()
}

// SPDX-License-Identifier: Apache-2.0

package dbname

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ErrMalformedName reports a name that does not end with an underscore
// followed by a numeric timestamp.
var ErrMalformedName = errors.New("malformed test database name")

// Timestamp extracts the millisecond timestamp embedded at the end of a
// generated name. The name must end with an underscore followed by digits,
// as all names produced by Generate do.
func Timestamp(name string) (int64, error) {
	_, millis, err := splitTimestamp(name)
	return millis, err
}

// GenerationTime returns the moment the name was generated.
func GenerationTime(name string) (time.Time, error) {
	millis, err := Timestamp(name)
	if err != nil {
		return time.Time{}, err
	}
	return time.UnixMilli(millis), nil
}

// WithoutTimestamp strips the trailing underscore and timestamp from a
// generated name, leaving the human-readable part.
func WithoutTimestamp(name string) (string, error) {
	prefix, _, err := splitTimestamp(name)
	return prefix, err
}

// LooksLikeTestDatabaseName reports whether name plausibly came out of this
// generator: it contains one of the two known markers and ends with an
// underscore followed by at least 13 digits. This is a best-effort
// classifier, not a parser; a handcrafted name can fool it in either
// direction.
func LooksLikeTestDatabaseName(name string) bool {
	if !strings.Contains(name, longMarker) && !strings.Contains(name, shortMarker) {
		return false
	}

	idx := strings.LastIndexByte(name, '_')
	if idx < 0 || idx == len(name)-1 {
		return false
	}

	suffix := name[idx+1:]
	if len(suffix) < timestampDigits {
		return false
	}
	for _, r := range suffix {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func splitTimestamp(name string) (string, int64, error) {
	if strings.TrimSpace(name) == "" {
		return "", 0, fmt.Errorf("%w: name is blank", ErrMalformedName)
	}

	idx := strings.LastIndexByte(name, '_')
	if idx < 0 {
		return "", 0, fmt.Errorf("%w: %q contains no underscore", ErrMalformedName, name)
	}
	if idx == len(name)-1 {
		return "", 0, fmt.Errorf("%w: %q ends with an underscore", ErrMalformedName, name)
	}

	millis, err := strconv.ParseInt(name[idx+1:], 10, 64)
	if err != nil || millis < 0 {
		return "", 0, fmt.Errorf("%w: %q does not end with a timestamp", ErrMalformedName, name)
	}

	return name[:idx], millis, nil
}

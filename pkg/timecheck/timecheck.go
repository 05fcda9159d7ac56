// SPDX-License-Identifier: Apache-2.0

// Package timecheck provides matchers for time values in tests, most
// usefully for timestamps a system under test produced "around now" where an
// exact comparison can never hold.
package timecheck

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// minMillisDigits is the digit count of millisecond timestamps between 2001
// and 2286.
const minMillisDigits = 13

// WithinDuration asserts that two times are within delta of each other.
func WithinDuration(t *testing.T, expected, actual time.Time, delta time.Duration) bool {
	t.Helper()

	return assert.WithinDuration(t, expected, actual, delta)
}

// Recent asserts that got lies within the given window of the current wall
// clock time.
func Recent(t *testing.T, got time.Time, window time.Duration) bool {
	t.Helper()

	return assert.WithinDuration(t, time.Now(), got, window)
}

// RecentMillis asserts that a millisecond timestamp lies within the given
// window of the current wall clock time.
func RecentMillis(t *testing.T, millis int64, window time.Duration) bool {
	t.Helper()

	return assert.WithinDuration(t, time.Now(), time.UnixMilli(millis), window)
}

// IsUnixMillis reports whether s looks like a millisecond timestamp: all
// digits, at least thirteen of them. Like the generated-name classifier this
// is a heuristic, not a parser.
func IsUnixMillis(s string) bool {
	if len(s) < minMillisDigits {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

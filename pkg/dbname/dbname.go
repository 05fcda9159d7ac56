// SPDX-License-Identifier: Apache-2.0

// Package dbname generates disposable, collision-resistant database names
// for test runs. A generated name embeds the service name, the originating
// host and a millisecond timestamp so that leftover databases can be traced
// back to the test run that created them, while staying within the 63
// character limit imposed by the database servers the name is used against.
package dbname

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	// MaxLength is the longest name the generator will ever produce. The
	// limit comes from the database servers the name is created for.
	MaxLength = 63

	// longMarker is the infix used by the preferred name templates.
	longMarker = "_unit_test_"

	// shortMarker replaces longMarker when the resulting name would
	// exceed MaxLength.
	shortMarker = "_ut_"

	// maxServiceNameLength is the longest service name prefix that still
	// fits next to the short marker and a 13 digit millisecond timestamp:
	// 46 + len("_ut_") + 13 = 63. Millisecond timestamps grow to 14
	// digits in the year 2286; the bound needs revisiting then.
	maxServiceNameLength = 46

	// timestampDigits is the number of digits of a millisecond timestamp
	// between 2001 and 2286.
	timestampDigits = 13
)

// forbiddenChars is the union of the path-illegal character sets of the two
// host operating systems the generated name may end up on, plus characters
// the target database servers reject in database names.
const forbiddenChars = `/\. "$*<>:|?`

var (
	ErrBlankServiceName = errors.New("service name must not be blank")
	ErrBlankServiceHost = errors.New("service host must not be blank")
)

// Generate derives a database name from the service name, the service host
// and the current wall clock time. The result is at most MaxLength
// characters long, contains none of the characters rejected by the target
// database servers, and ends with an underscore followed by the millisecond
// timestamp of its creation.
//
// Names generated within the same millisecond on the same host collide;
// callers that need sub-millisecond uniqueness must add their own
// discriminator.
func Generate(serviceName, serviceHost string) (string, error) {
	return GenerateAt(serviceName, serviceHost, time.Now())
}

// GenerateAt is Generate with an explicit generation time. It exists so that
// callers (and tests) can pin the timestamp embedded in the name.
//
// The name is built from a ladder of templates, each tried only when the
// previous one overflows MaxLength:
//
//  1. <serviceName>_unit_test_<serviceHost>_<millis>
//  2. as above, with the host reduced to its leading subdomain label
//  3. <serviceName>_unit_test_<millis>
//  4. <serviceName>_ut_<millis>
//  5. as above, with the service name truncated to its first 46 characters
//
// Forbidden characters anywhere in the winning candidate are then replaced
// with underscores.
func GenerateAt(serviceName, serviceHost string, at time.Time) (string, error) {
	if strings.TrimSpace(serviceName) == "" {
		return "", ErrBlankServiceName
	}
	if strings.TrimSpace(serviceHost) == "" {
		return "", ErrBlankServiceHost
	}

	millis := strconv.FormatInt(at.UnixMilli(), 10)

	name := serviceName + longMarker + serviceHost + "_" + millis
	if len(name) > MaxLength {
		name = serviceName + longMarker + hostLabel(serviceHost) + "_" + millis
	}
	if len(name) > MaxLength {
		name = serviceName + longMarker + millis
	}
	if len(name) > MaxLength {
		name = serviceName + shortMarker + millis
	}
	if len(name) > MaxLength {
		name = truncateServiceName(serviceName) + shortMarker + millis
	}

	name = replaceForbidden(name)

	// The truncated template is 46+4+13 = 63 characters until millisecond
	// timestamps reach 14 digits in the year 2286. Overflowing here means
	// the ladder itself is broken, not that the inputs were bad.
	if len(name) > MaxLength {
		panic(fmt.Sprintf("dbname: generated name %q exceeds %d characters", name, MaxLength))
	}

	return name, nil
}

// hostLabel returns the leading subdomain label of host. A host without a
// dot has no extractable label and yields the empty string; the resulting
// name then carries an empty host slot rather than failing.
func hostLabel(host string) string {
	label, _, found := strings.Cut(host, ".")
	if !found {
		return ""
	}
	return label
}

// truncateServiceName cuts serviceName down to at most maxServiceNameLength
// bytes without splitting a multibyte rune. A dangling partial rune would be
// rewritten as the 3-byte U+FFFD replacement character further down the
// pipeline, silently growing the name past MaxLength.
func truncateServiceName(serviceName string) string {
	truncated := serviceName[:maxServiceNameLength]
	for !utf8.ValidString(truncated) {
		truncated = truncated[:len(truncated)-1]
	}
	return truncated
}

func replaceForbidden(name string) string {
	return strings.Map(func(r rune) rune {
		if strings.ContainsRune(forbiddenChars, r) {
			return '_'
		}
		return r
	}, name)
}

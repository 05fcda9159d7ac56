// SPDX-License-Identifier: Apache-2.0

package pgtest

import (
	"errors"

	"github.com/lib/pq"
)

const (
	CheckViolationErrorCode   string = "check_violation"
	FKViolationErrorCode      string = "foreign_key_violation"
	NotNullViolationErrorCode string = "not_null_violation"
	UniqueViolationErrorCode  string = "unique_violation"
)

// IsErrorCode reports whether err is a Postgres error with the given
// condition name.
func IsErrorCode(err error, code string) bool {
	pqErr := &pq.Error{}
	return errors.As(err, &pqErr) && pqErr.Code.Name() == code
}

func IsCheckViolation(err error) bool   { return IsErrorCode(err, CheckViolationErrorCode) }
func IsFKViolation(err error) bool      { return IsErrorCode(err, FKViolationErrorCode) }
func IsNotNullViolation(err error) bool { return IsErrorCode(err, NotNullViolationErrorCode) }
func IsUniqueViolation(err error) bool  { return IsErrorCode(err, UniqueViolationErrorCode) }

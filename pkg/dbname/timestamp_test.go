// SPDX-License-Identifier: Apache-2.0

package dbname_test

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xataio/testkit/pkg/dbname"
)

func TestTimestamp(t *testing.T) {
	t.Parallel()

	tests := []struct {
		Name     string
		Input    string
		Expected int64
		WantErr  bool
	}{
		{
			Name:     "extracts the trailing timestamp",
			Input:    "order-service_unit_test_host1_1700000000000",
			Expected: 1700000000000,
		},
		{
			Name:     "short marker names parse the same way",
			Input:    "orders_ut_1700000000000",
			Expected: 1700000000000,
		},
		{
			Name:    "blank name",
			Input:   "   ",
			WantErr: true,
		},
		{
			Name:    "no underscore",
			Input:   "1700000000000",
			WantErr: true,
		},
		{
			Name:    "trailing underscore",
			Input:   "orders_ut_",
			WantErr: true,
		},
		{
			Name:    "non-numeric suffix",
			Input:   "orders_ut_banana",
			WantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.Name, func(t *testing.T) {
			ts, err := dbname.Timestamp(tt.Input)
			if tt.WantErr {
				assert.ErrorIs(t, err, dbname.ErrMalformedName)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.Expected, ts)
		})
	}
}

func TestWithoutTimestamp(t *testing.T) {
	t.Parallel()

	prefix, err := dbname.WithoutTimestamp("order-service_unit_test_host1_1700000000000")
	require.NoError(t, err)
	assert.Equal(t, "order-service_unit_test_host1", prefix)

	_, err = dbname.WithoutTimestamp("no-underscore-here")
	assert.ErrorIs(t, err, dbname.ErrMalformedName)
}

func TestGenerationTime(t *testing.T) {
	t.Parallel()

	got, err := dbname.GenerationTime("orders_ut_1700000000000")
	require.NoError(t, err)
	assert.Equal(t, time.UnixMilli(1700000000000), got)
}

func TestLooksLikeTestDatabaseName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		Name     string
		Input    string
		Expected bool
	}{
		{
			Name:     "long marker with 13 digit timestamp",
			Input:    "order-service_unit_test_host1_1700000000000",
			Expected: true,
		},
		{
			Name:     "short marker with 13 digit timestamp",
			Input:    "orders_ut_1700000000000",
			Expected: true,
		},
		{
			Name:     "no marker",
			Input:    "production_orders",
			Expected: false,
		},
		{
			Name:     "marker but timestamp too short",
			Input:    "orders_ut_12345",
			Expected: false,
		},
		{
			Name:     "marker but non-numeric suffix",
			Input:    "orders_unit_test_host1_17000000000xy",
			Expected: false,
		},
		{
			Name:     "marker but trailing underscore",
			Input:    "orders_ut_",
			Expected: false,
		},
		{
			Name:     "empty string",
			Input:    "",
			Expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.Name, func(t *testing.T) {
			assert.Equal(t, tt.Expected, dbname.LooksLikeTestDatabaseName(tt.Input))
		})
	}
}

func TestClassifierAcceptsEveryGeneratedName(t *testing.T) {
	t.Parallel()

	at := time.UnixMilli(1700000000000)

	// One input pair per rung of the fallback ladder.
	pairs := [][2]string{
		{"order-service", "host1"},
		{"checkout-service", "build-agent-7.ci.acme-corp.internal"},
		{strings.Repeat("b", 39), "somehost"},
		{strings.Repeat("c", 43), "somehost"},
		{strings.Repeat("d", 200), "somehost"},
	}

	for _, pair := range pairs {
		name, err := dbname.GenerateAt(pair[0], pair[1], at)
		require.NoError(t, err)
		assert.Truef(t, dbname.LooksLikeTestDatabaseName(name), "classifier rejected %q", name)
	}
}

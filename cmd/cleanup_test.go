// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestStaleNames(t *testing.T) {
	t.Parallel()

	fresh := "orders_ut_" + strconv.FormatInt(time.Now().UnixMilli(), 10)
	old := "orders_ut_1500000000000"

	names := []string{
		"postgres",
		"production_orders",
		fresh,
		old,
		"orders_unit_test_host1_1500000000000",
	}

	stale := staleNames(names, 24*time.Hour)

	assert.Equal(t, []string{old, "orders_unit_test_host1_1500000000000"}, stale)
}

func TestStaleNamesNeverTouchesUnmarkedNames(t *testing.T) {
	t.Parallel()

	// Even with a zero age, names without the generator's markers stay.
	stale := staleNames([]string{"postgres", "app", "template1"}, 0)

	assert.Empty(t, stale)
}

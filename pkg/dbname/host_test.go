// SPDX-License-Identifier: Apache-2.0

package dbname_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xataio/testkit/pkg/dbname"
)

func TestStripDomain(t *testing.T) {
	t.Parallel()

	tests := []struct {
		Name     string
		Host     string
		Expected string
	}{
		{
			Name:     "strips everything after the first dot",
			Host:     "host1.acme.com",
			Expected: "host1",
		},
		{
			Name:     "host without a dot is unchanged",
			Host:     "host1",
			Expected: "host1",
		},
		{
			Name:     "leading dot yields an empty label",
			Host:     ".acme.com",
			Expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.Name, func(t *testing.T) {
			assert.Equal(t, tt.Expected, dbname.StripDomain(tt.Host))
		})
	}
}

func TestDetectServiceHost(t *testing.T) {
	t.Parallel()

	stripped, err := dbname.DetectServiceHost(dbname.DomainStrip)
	require.NoError(t, err)
	assert.NotEmpty(t, stripped)
	assert.NotContains(t, stripped, ".")

	kept, err := dbname.DetectServiceHost(dbname.DomainKeep)
	require.NoError(t, err)
	assert.NotEmpty(t, kept)
	assert.Equal(t, dbname.StripDomain(kept), stripped)
}

// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xataio/testkit/pkg/dbname"
)

func TestNameCommandStripsDomainByDefault(t *testing.T) {
	out := &bytes.Buffer{}

	cmd := nameCmd()
	cmd.SetOut(out)
	cmd.SetArgs([]string{"--service", "order-service", "--host", "host1.acme.com"})

	require.NoError(t, cmd.Execute())

	name := strings.TrimSpace(out.String())
	assert.True(t, strings.HasPrefix(name, "order-service_unit_test_host1_"), "got %q", name)
	assert.True(t, dbname.LooksLikeTestDatabaseName(name))
}

func TestNameCommandKeepsDomainOnRequest(t *testing.T) {
	out := &bytes.Buffer{}

	cmd := nameCmd()
	cmd.SetOut(out)
	cmd.SetArgs([]string{"--service", "orders", "--host", "host1.acme.com", "--keep-domain"})

	require.NoError(t, cmd.Execute())

	// Dots in the kept domain are forbidden characters and come out as
	// underscores.
	name := strings.TrimSpace(out.String())
	assert.True(t, strings.HasPrefix(name, "orders_unit_test_host1_acme_com_"), "got %q", name)
}

func TestNameCommandRequiresService(t *testing.T) {
	cmd := nameCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"--host", "host1"})

	assert.Error(t, cmd.Execute())
}

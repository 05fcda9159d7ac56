// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"strconv"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/xataio/testkit/pkg/dbname"
)

func inspectCmd() *cobra.Command {
	inspectCmd := &cobra.Command{
		Use:   "inspect <name>",
		Short: "Take a generated test database name apart",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			name := args[0]

			ts, err := dbname.Timestamp(name)
			if err != nil {
				return err
			}

			prefix, err := dbname.WithoutTimestamp(name)
			if err != nil {
				return err
			}

			generated := "yes"
			if !dbname.LooksLikeTestDatabaseName(name) {
				generated = "no"
			}

			return pterm.DefaultTable.WithData(pterm.TableData{
				{"name", name},
				{"without timestamp", prefix},
				{"timestamp", strconv.FormatInt(ts, 10)},
				{"generated at", time.UnixMilli(ts).UTC().Format(time.RFC3339)},
				{"looks generated", generated},
			}).Render()
		},
	}

	return inspectCmd
}

// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/xataio/testkit/pkg/dbname"
)

func nameCmd() *cobra.Command {
	var service string
	var host string
	var keepDomain bool

	nameCmd := &cobra.Command{
		Use:   "name",
		Short: "Generate a test database name",
		Long:  "Generate a disposable database name embedding the service name, the host and the current time.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			handling := dbname.DomainStrip
			if keepDomain {
				handling = dbname.DomainKeep
			}

			if host == "" {
				detected, err := dbname.DetectServiceHost(handling)
				if err != nil {
					return err
				}
				host = detected
			} else if handling == dbname.DomainStrip {
				host = dbname.StripDomain(host)
			}

			name, err := dbname.Generate(service, host)
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), name)
			return nil
		},
	}

	nameCmd.Flags().StringVar(&service, "service", "", "Name of the service under test")
	nameCmd.Flags().StringVar(&host, "host", "", "Originating host (defaults to the local host name)")
	nameCmd.Flags().BoolVar(&keepDomain, "keep-domain", false, "Keep the host's domain suffix")

	nameCmd.MarkFlagRequired("service")

	return nameCmd
}

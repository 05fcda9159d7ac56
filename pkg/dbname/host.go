// SPDX-License-Identifier: Apache-2.0

package dbname

import (
	"fmt"
	"os"
	"strings"
)

// DomainHandling controls whether a detected service host keeps its domain
// suffix. The zero value strips the domain, which keeps generated names
// short and readable.
type DomainHandling int

const (
	// DomainStrip removes everything after the first dot of the host
	// name. This is the default.
	DomainStrip DomainHandling = iota

	// DomainKeep uses the host name as reported by the operating system.
	DomainKeep
)

// StripDomain returns host with its domain suffix removed: everything from
// the first dot on is dropped. A host without a dot is returned unchanged.
func StripDomain(host string) string {
	label, _, found := strings.Cut(host, ".")
	if !found {
		return host
	}
	return label
}

// DetectServiceHost resolves the local host name once, applying the given
// domain handling. Call it at process start and thread the result through
// explicitly; the generator itself never consults the operating system.
func DetectServiceHost(handling DomainHandling) (string, error) {
	host, err := os.Hostname()
	if err != nil {
		return "", fmt.Errorf("failed to detect service host: %w", err)
	}
	if handling == DomainStrip {
		host = StripDomain(host)
	}
	return host, nil
}

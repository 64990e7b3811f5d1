// SPDX-License-Identifier: EPL-2.0

package observe

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// WriteTextfile writes everything g gathers to path in the Prometheus text
// format, for the node exporter textfile collector. The file is replaced
// atomically.
func WriteTextfile(path string, g prometheus.Gatherer) error {
	if err := prometheus.WriteToTextfile(path, g); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}

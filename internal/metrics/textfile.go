package metrics

import (
	"fmt"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
)

const writeTextfileTemplateConstant = "write metrics textfile %s: %w"

// WriteTextfile writes everything gathered by gatherer to path in the text exposition format.
// An empty path is a no-op.
func WriteTextfile(path string, gatherer prometheus.Gatherer) error {
	trimmedPath := strings.TrimSpace(path)
	if len(trimmedPath) == 0 {
		return nil
	}
	if writeError := prometheus.WriteToTextfile(trimmedPath, gatherer); writeError != nil {
		return fmt.Errorf(writeTextfileTemplateConstant, trimmedPath, writeError)
	}
	return nil
}

package model

import (
	"encoding/json"
	"fmt"
)

// ExtractionFailure reports that a section of input could not be read
// because its shape did not match what was expected. It is recoverable:
// the dependent report section is omitted and the failure surfaced as a
// warning.
type ExtractionFailure struct {
	Section string `json:"section" yaml:"section"`
	Cause   string `json:"cause" yaml:"cause"`
}

// Failf builds an ExtractionFailure for section.
func Failf(section, format string, args ...any) *ExtractionFailure {
	return &ExtractionFailure{Section: section, Cause: fmt.Sprintf(format, args...)}
}

func (f *ExtractionFailure) Error() string {
	return fmt.Sprintf("%s: %s", f.Section, f.Cause)
}

func jsonString(s string) []byte {
	b, _ := json.Marshal(s)
	return b
}

package social

import (
	"fmt"
	"strings"
)

// ProviderError carries the upstream detail of a failed provider call so
// logs can tell an expired code from a misconfigured client.
type ProviderError struct {
	Provider    string
	Operation   string
	Status      int
	Code        string
	Description string
	Err         error
	Raw         map[string]any
}

func (e *ProviderError) Error() string {
	parts := []string{e.Provider, e.Operation}

	if e.Code != "" {
		parts = append(parts, e.Code)
	}
	if e.Description != "" {
		parts = append(parts, e.Description)
	}
	if e.Err != nil {
		parts = append(parts, e.Err.Error())
	}

	msg := strings.Join(parts, ": ")
	if e.Status != 0 {
		msg = fmt.Sprintf("%s (status %d)", msg, e.Status)
	}

	return msg
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

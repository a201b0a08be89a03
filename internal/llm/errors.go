package llm

import (
	"errors"
	"fmt"

	"github.com/sashabaranov/go-openai"
)

// ProviderError reports a failed exchange with a chat provider: transport
// failure, non-success status or a response that does not match the schema.
type ProviderError struct {
	Provider string
	Status   int
	Err      error
}

func (e *ProviderError) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("%s: status %d: %v", e.Provider, e.Status, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Provider, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// IsProviderError reports whether err carries a *ProviderError.
func IsProviderError(err error) bool {
	var pe *ProviderError
	return errors.As(err, &pe)
}

func providerErr(provider string, err error) *ProviderError {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe
	}
	out := &ProviderError{Provider: provider, Err: err}
	var apiErr *openai.APIError
	var reqErr *openai.RequestError
	switch {
	case errors.As(err, &apiErr):
		out.Status = apiErr.HTTPStatusCode
	case errors.As(err, &reqErr):
		out.Status = reqErr.HTTPStatusCode
	}
	return out
}

package provider

import (
	"log"
	"time"
)

// ModeMock selects the in-process mock client.
const ModeMock = "MOCK"

// New creates a provider client for the configured mode. Mode "MOCK" returns
// the mock client; any other value returns an HTTP client against the given
// endpoint.
func New(mode, baseURL, apiKey string, timeout time.Duration) Client {
	if mode == ModeMock {
		log.Println("MODE=MOCK, using mock provider client")
		return NewMockClient()
	}
	return NewHTTPClient(baseURL, apiKey, timeout)
}

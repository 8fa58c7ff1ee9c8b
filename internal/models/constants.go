// Package models contains data types and constants for the tutoring client.
package models

// Endpoints for the Generative Language API
const (
	EndpointGeminiBase = "https://generativelanguage.googleapis.com"
	EndpointArkBase    = "https://ark.cn-beijing.volces.com/api/v3"
)

// Provider names accepted by configuration and flags
const (
	ProviderGemini = "gemini"
	ProviderArk    = "ark"
)

// Model represents an available Gemini model
type Model struct {
	Name        string
	Description string
}

// Available models
var (
	Model25Flash = Model{
		Name:        "gemini-2.5-flash",
		Description: "Fast responses, default for lessons",
	}

	Model25FlashLite = Model{
		Name:        "gemini-2.5-flash-lite",
		Description: "Lowest latency",
	}

	Model25Pro = Model{
		Name:        "gemini-2.5-pro",
		Description: "Most capable, slower",
	}

	// DefaultModel is the recommended default
	DefaultModel = Model25Flash
)

// AllModels returns a list of all known models
func AllModels() []Model {
	return []Model{Model25Flash, Model25FlashLite, Model25Pro}
}

// ModelFromName returns a Model by its name.
// Unknown names are passed through so newer models work without a release.
func ModelFromName(name string) Model {
	for _, m := range AllModels() {
		if m.Name == name {
			return m
		}
	}
	if name == "" {
		return DefaultModel
	}
	return Model{Name: name}
}

// DefaultHeaders returns the default headers for streaming requests
func DefaultHeaders() map[string]string {
	return map[string]string{
		"Content-Type":    "application/json",
		"Accept":          "text/event-stream",
		"Accept-Language": "en-US,en;q=0.9",
		"User-Agent":      "geminitutor/0.1 (+https://github.com/diogo/geminitutor)",
	}
}

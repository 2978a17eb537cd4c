package models

import "strings"

// Provider identifies a backend protocol.
type Provider string

// Providers.
const (
	ProviderOpenAI    Provider = "openai"
	ProviderAnthropic Provider = "anthropic"
	ProviderOllama    Provider = "ollama"
	ProviderLMStudio  Provider = "lmstudio"
	ProviderBuiltin   Provider = "builtin"
)

// Providers lists every known provider.
var Providers = []Provider{ProviderOpenAI, ProviderAnthropic, ProviderOllama, ProviderLMStudio, ProviderBuiltin}

// Valid reports whether p is a known provider.
func (p Provider) Valid() bool {
	for _, known := range Providers {
		if p == known {
			return true
		}
	}
	return false
}

// Local reports whether p is a daemon on the user's machine that must
// answer a probe before it counts as available.
func (p Provider) Local() bool {
	return p == ProviderOllama || p == ProviderLMStudio
}

// EnvKey is the environment variable consulted for p's credential.
func (p Provider) EnvKey() string {
	return strings.ToUpper(string(p)) + "_API_KEY"
}

// Descriptor describes one analysis backend.
type Descriptor struct {
	ID             string   `json:"id" validate:"required"`
	Name           string   `json:"name" validate:"required"`
	Provider       Provider `json:"provider" validate:"required,oneof=openai anthropic ollama lmstudio builtin"`
	Endpoint       string   `json:"endpoint,omitempty" validate:"omitempty,url"`
	Model          string   `json:"model,omitempty"`
	MaxTokens      int      `json:"maxTokens,omitempty" validate:"gte=0"`
	Temperature    float64  `json:"temperature,omitempty" validate:"gte=0,lte=2"`
	RequiresAPIKey bool     `json:"requiresApiKey"`
	Icon           string   `json:"icon,omitempty"`
	Description    string   `json:"description,omitempty"`
	Features       []string `json:"features,omitempty"`
	Custom         bool     `json:"custom,omitempty"`
}

// HasFeature reports whether the backend advertises feature.
func (d Descriptor) HasFeature(feature string) bool {
	for _, f := range d.Features {
		if f == feature {
			return true
		}
	}
	return false
}

func (d Descriptor) clone() Descriptor {
	d.Features = append([]string(nil), d.Features...)
	return d
}

// Package credentials resolves provider API keys for a single pipeline run.
package credentials

import (
	"net/http"
	"strings"

	apperrors "github.com/johnquangdev/video-dubber/errors"
	"github.com/johnquangdev/video-dubber/pkg/config"
)

// Key enumerates the provider credentials the pipeline can use
type Key int

const (
	AssemblyAIKey Key = iota
	OpenAIKey
	ElevenLabsKey
)

// AllKeys lists every known key in a stable order
var AllKeys = []Key{AssemblyAIKey, OpenAIKey, ElevenLabsKey}

// String returns the environment name of the key
func (k Key) String() string {
	switch k {
	case AssemblyAIKey:
		return "ASSEMBLYAI_API_KEY"
	case OpenAIKey:
		return "OPENAI_API_KEY"
	case ElevenLabsKey:
		return "ELEVENLABS_API_KEY"
	default:
		return "UNKNOWN_KEY"
	}
}

// Header returns the request header that may carry a per-request override
func (k Key) Header() string {
	switch k {
	case AssemblyAIKey:
		return "X-AssemblyAI-Key"
	case OpenAIKey:
		return "X-OpenAI-Key"
	case ElevenLabsKey:
		return "X-ElevenLabs-Key"
	default:
		return ""
	}
}

// Overrides are keys supplied with a single request
type Overrides map[Key]string

// OverridesFromHeader collects the override headers present on a request
func OverridesFromHeader(h http.Header) Overrides {
	overrides := Overrides{}
	for _, k := range AllKeys {
		if v := strings.TrimSpace(h.Get(k.Header())); v != "" {
			overrides[k] = v
		}
	}
	return overrides
}

// Resolver looks keys up in process configuration first, then in request overrides.
// It holds no mutable state and is safe for concurrent use.
type Resolver struct {
	configured map[Key]string
}

// NewResolver creates a resolver over the given process-level keys
func NewResolver(configured map[Key]string) *Resolver {
	keys := make(map[Key]string, len(configured))
	for k, v := range configured {
		keys[k] = strings.TrimSpace(v)
	}
	return &Resolver{configured: keys}
}

// NewResolverFromConfig creates a resolver from the loaded application config
func NewResolverFromConfig(cfg *config.Config) *Resolver {
	return NewResolver(map[Key]string{
		AssemblyAIKey: cfg.AssemblyAI.APIKey,
		OpenAIKey:     cfg.OpenAI.APIKey,
		ElevenLabsKey: cfg.ElevenLabs.APIKey,
	})
}

// Resolve returns the key value and whether one was found
func (r *Resolver) Resolve(key Key, overrides Overrides) (string, bool) {
	if r != nil {
		if v := r.configured[key]; v != "" {
			return v, true
		}
	}
	if v := strings.TrimSpace(overrides[key]); v != "" {
		return v, true
	}
	return "", false
}

// Require is Resolve that reports a configuration error when the key is absent
func (r *Resolver) Require(key Key, overrides Overrides) (string, error) {
	v, ok := r.Resolve(key, overrides)
	if !ok {
		return "", apperrors.ErrConfiguration(key.String())
	}
	return v, nil
}

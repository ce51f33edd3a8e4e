// Package nlquery turns free-text map queries into a single structured filter.
package nlquery

import (
	"context"
	"errors"
	"fmt"
)

// Common errors
var (
	ErrMissingModel      = errors.New("a model identifier is required for the generator")
	ErrMissingToken      = errors.New("an inference API token is required for the generator")
	ErrUnknownGenerator  = errors.New("unknown generator type")
	ErrNoGenerated       = errors.New("model response carried no generated text")
	ErrGeneratorResponse = errors.New("model reported an error")
)

// GeneratorType identifies which inference backend answers prompts.
type GeneratorType string

const (
	GeneratorHuggingFace GeneratorType = "huggingface"
)

// GeneratorConfig holds what a backend needs to answer prompts.
type GeneratorConfig struct {
	Generator GeneratorType
	Model     string
	Token     string
	// BaseURL overrides the backend's default endpoint prefix.
	BaseURL string
}

// Validate checks that the configuration can reach a model.
func (c GeneratorConfig) Validate() error {
	if c.Model == "" {
		return ErrMissingModel
	}
	if c.Token == "" {
		return ErrMissingToken
	}
	return nil
}

// Generator sends a prompt to a language model and returns its decoded response.
type Generator interface {
	// Name returns the backend name for logging purposes.
	Name() string

	// Generate requests a short completion for prompt.
	Generate(ctx context.Context, prompt string) (Response, error)
}

var generatorRegistry = make(map[GeneratorType]func(GeneratorConfig) (Generator, error))

// RegisterGenerator registers a backend constructor. It is called from init() in each
// backend package.
func RegisterGenerator(t GeneratorType, constructor func(GeneratorConfig) (Generator, error)) {
	generatorRegistry[t] = constructor
}

// NewGenerator builds the backend named by cfg.
func NewGenerator(cfg GeneratorConfig) (Generator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	constructor, ok := generatorRegistry[cfg.Generator]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownGenerator, cfg.Generator)
	}

	return constructor(cfg)
}

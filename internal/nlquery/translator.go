package nlquery

import (
	"context"
	"strings"

	"github.com/EmpoweredVote/EV-CityMap/internal/filters"
	"github.com/EmpoweredVote/EV-CityMap/internal/logger"
	"github.com/EmpoweredVote/EV-CityMap/internal/metrics"
)

// Translator converts queries to filters, asking a model first when one is configured.
type Translator struct {
	gen Generator
}

// NewTranslator creates a translator. A nil gen uses the fallback parser only.
func NewTranslator(gen Generator) *Translator {
	return &Translator{gen: gen}
}

// Translate returns the filter for query, or nil when none can be derived. It never
// fails: model errors and unusable output fall through to the fallback parser.
func (t *Translator) Translate(ctx context.Context, query string) *filters.Filter {
	if strings.TrimSpace(query) == "" {
		metrics.TranslationsTotal.WithLabelValues("none").Inc()
		return nil
	}

	if t != nil && t.gen != nil {
		if f, ok := t.fromModel(ctx, query); ok {
			metrics.TranslationsTotal.WithLabelValues("model").Inc()
			return &f
		}
	}

	f, ok := Fallback(query)
	if !ok {
		metrics.TranslationsTotal.WithLabelValues("none").Inc()
		return nil
	}
	metrics.TranslationsTotal.WithLabelValues("fallback").Inc()
	return &f
}

func (t *Translator) fromModel(ctx context.Context, query string) (filters.Filter, bool) {
	l := logger.Component("nlquery")

	resp, err := t.gen.Generate(ctx, BuildPrompt(query))
	if err != nil {
		l.Warn().Err(err).Str("generator", t.gen.Name()).Msg("model request failed")
		return filters.Filter{}, false
	}
	text, err := resp.GeneratedText()
	if err != nil {
		l.Warn().Err(err).Str("shape", resp.Shape.String()).Msg("model response unusable")
		return filters.Filter{}, false
	}
	f, ok := ParseModelOutput(text)
	if !ok {
		l.Debug().Str("text", text).Msg("model output held no filter")
	}
	return f, ok
}

package services

import (
	"context"
	"strings"

	"github.com/camden-git/portfoliobackend/database"
	"github.com/camden-git/portfoliobackend/logging"
	"github.com/camden-git/portfoliobackend/metrics"
)

type TranslationResult struct {
	TranslatedText string `json:"translatedText"`
	SourceLanguage string `json:"sourceLanguage"`
	TargetLanguage string `json:"targetLanguage"`
	OriginalText   string `json:"originalText"`
	Engine         string `json:"engine"`
}

// Translator picks the first configured engine and fronts it with an optional cache.
type Translator struct {
	engine  TranslationEngine
	cache   TranslationCache
	log     *logging.Logger
	metrics *metrics.Metrics
}

// NewTranslator returns a translator using the first non-nil engine. With no
// engine every call fails with ErrTranslationNotConfigured.
func NewTranslator(log *logging.Logger, m *metrics.Metrics, cache TranslationCache, engines ...TranslationEngine) *Translator {
	if log == nil {
		log = logging.Nop()
	}
	t := &Translator{cache: cache, log: log, metrics: m}
	for _, e := range engines {
		if e != nil {
			t.engine = e
			break
		}
	}
	return t
}

func (t *Translator) Configured() bool {
	return t != nil && t.engine != nil
}

func (t *Translator) Translate(ctx context.Context, req TranslateRequest) (TranslationResult, error) {
	if !t.Configured() {
		return TranslationResult{}, ErrTranslationNotConfigured
	}

	if strings.TrimSpace(req.SourceLanguage) == "" {
		req.SourceLanguage = DefaultSourceLanguage
	}
	source, ok := database.NormalizeLanguage(req.SourceLanguage)
	if !ok {
		return TranslationResult{}, ErrUnsupportedLanguage
	}
	target, ok := database.NormalizeLanguage(req.TargetLanguage)
	if !ok {
		return TranslationResult{}, ErrUnsupportedLanguage
	}
	req.SourceLanguage, req.TargetLanguage = source, target

	result := TranslationResult{
		SourceLanguage: source,
		TargetLanguage: target,
		OriginalText:   req.Text,
		Engine:         t.engine.Name(),
	}

	if source == target {
		result.TranslatedText = req.Text
		return result, nil
	}

	key := TranslationCacheKey(result.Engine, req)
	if t.cache != nil {
		cached, found, err := t.cache.Get(ctx, key)
		if err != nil {
			t.log.Warn(ctx, "translation cache lookup failed", err)
		} else if found {
			t.metrics.ObserveTranslation(result.Engine, metrics.ResultCached)
			result.TranslatedText = cached
			return result, nil
		}
	}

	translated, err := t.engine.Translate(ctx, req)
	if err != nil {
		t.metrics.ObserveTranslation(result.Engine, metrics.ResultError)
		return TranslationResult{}, err
	}
	t.metrics.ObserveTranslation(result.Engine, metrics.ResultSuccess)

	if t.cache != nil {
		if err := t.cache.Set(ctx, key, translated); err != nil {
			t.log.Warn(ctx, "translation cache store failed", err)
		}
	}

	result.TranslatedText = translated
	return result, nil
}

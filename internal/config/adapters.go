package config

import (
	"strings"

	"github.com/garyjia/event-invoice-analyzer/internal/application/service"
	"github.com/garyjia/event-invoice-analyzer/internal/extraction"
	"github.com/garyjia/event-invoice-analyzer/internal/matching"
	"github.com/garyjia/event-invoice-analyzer/pkg/utils"
)

// MatcherConfig converts the matching section. Configured synonym entries
// replace the built-in entry for the same key.
func (c *Config) MatcherConfig() matching.Config {
	m := matching.DefaultConfig()
	m.Threshold = c.Matching.Threshold
	m.WordWeight = c.Matching.WordWeight
	m.SubstringBonus = c.Matching.SubstringBonus
	m.MinSubstringLen = c.Matching.MinSubstringLen

	for key, variants := range c.Matching.Synonyms {
		key = strings.ToLower(strings.TrimSpace(key))
		if key == "" {
			continue
		}
		cleaned := make([]string, 0, len(variants))
		for _, v := range variants {
			if v = strings.ToLower(strings.TrimSpace(v)); v != "" {
				cleaned = append(cleaned, v)
			}
		}
		m.Synonyms[key] = cleaned
	}
	return m
}

// LoggerSettings converts the logger section
func (c *Config) LoggerSettings(service string) utils.LoggerConfig {
	return utils.LoggerConfig{
		Level:      c.Logger.Level,
		OutputPath: c.Logger.OutputPath,
		Format:     c.Logger.Format,
		Service:    service,
	}
}

// ClientConfig converts the OpenAI connection settings
func (c *Config) ClientConfig() extraction.ClientConfig {
	return extraction.ClientConfig{
		APIKey:  c.OpenAI.APIKey,
		BaseURL: c.OpenAI.BaseURL,
		Timeout: c.OpenAI.Timeout,
	}
}

// ExtractorConfig converts the OpenAI model settings
func (c *Config) ExtractorConfig() extraction.ExtractorConfig {
	return extraction.ExtractorConfig{
		Model:       c.OpenAI.Model,
		VisionModel: c.OpenAI.VisionModel,
		MaxPages:    c.OpenAI.MaxPages,
	}
}

// LoadPrompts loads the prompt file and applies the configured invoice
// extraction temperature and token limit
func (c *Config) LoadPrompts() (*extraction.PromptConfig, error) {
	prompts, err := extraction.LoadPrompts(c.PromptsPath)
	if err != nil {
		return nil, err
	}
	if c.OpenAI.Temperature > 0 {
		prompts.InvoiceExtraction.Temperature = c.OpenAI.Temperature
	}
	if c.OpenAI.MaxTokens > 0 {
		prompts.InvoiceExtraction.MaxTokens = c.OpenAI.MaxTokens
	}
	return prompts, nil
}

// ReconcileServiceConfig converts the reconcile and analysis sections
func (c *Config) ReconcileServiceConfig() service.ReconcileConfig {
	return service.ReconcileConfig{
		MaxUnmatched: c.Reconcile.MaxUnmatched,
		SampleRows:   c.Reconcile.SampleRows,
		Concurrency:  c.Analysis.Concurrency,
	}
}

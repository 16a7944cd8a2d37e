package config

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"sync"
)

// ModelPrice is the $/1k-token price for one model's prompt and completion
// tokens (spec §4.A).
type ModelPrice struct {
	Prompt     float64 `json:"price_per_1k_prompt"`
	Completion float64 `json:"price_per_1k_completion"`
}

// PricingTable is a read-only, concurrency-safe lookup from
// "{provider}/{model}" to its price. Unknown models yield zero cost plus a
// logged warning (spec §4.A, §9 Open Question (a)).
type PricingTable struct {
	mu     sync.RWMutex
	prices map[string]ModelPrice
}

// NewPricingTable builds a table from a defensive copy of prices.
func NewPricingTable(prices map[string]ModelPrice) *PricingTable {
	copied := make(map[string]ModelPrice, len(prices))
	for k, v := range prices {
		copied[k] = v
	}
	return &PricingTable{prices: copied}
}

// LoadPricingTable reads a JSON pricing file of {"provider/model": {...}}.
// A missing file is not an error — it yields an empty table with every
// lookup warning and pricing zero, per spec §9 Open Question (a).
func LoadPricingTable(path string) (*PricingTable, error) {
	if path == "" {
		return NewPricingTable(nil), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			slog.Warn("pricing table file not found, all costs will be zero", "path", path)
			return NewPricingTable(nil), nil
		}
		return nil, fmt.Errorf("reading pricing table %s: %w", path, err)
	}
	var prices map[string]ModelPrice
	if err := json.Unmarshal(data, &prices); err != nil {
		return nil, fmt.Errorf("parsing pricing table %s: %w", path, err)
	}
	return NewPricingTable(prices), nil
}

// PricePer1kPrompt returns the $/1k prompt-token price for provider/model,
// logging a warning and returning zero if unknown.
func (t *PricingTable) PricePer1kPrompt(provider, model string) float64 {
	p, ok := t.lookup(provider, model)
	if !ok {
		return 0
	}
	return p.Prompt
}

// PricePer1kCompletion returns the $/1k completion-token price for
// provider/model, logging a warning and returning zero if unknown.
func (t *PricingTable) PricePer1kCompletion(provider, model string) float64 {
	p, ok := t.lookup(provider, model)
	if !ok {
		return 0
	}
	return p.Completion
}

func (t *PricingTable) lookup(provider, model string) (ModelPrice, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	key := provider + "/" + model
	p, ok := t.prices[key]
	if !ok {
		slog.Warn("unknown model price, defaulting to zero cost", "provider", provider, "model", model)
		return ModelPrice{}, false
	}
	return p, true
}

// DefaultPricingTable returns a small built-in table covering the models a
// fresh deployment is most likely to exercise, so that a working system
// never needs an external pricing file to produce non-zero costs.
func DefaultPricingTable() *PricingTable {
	return NewPricingTable(map[string]ModelPrice{
		"openai/gpt-4o":              {Prompt: 0.0025, Completion: 0.01},
		"openai/gpt-4o-mini":         {Prompt: 0.00015, Completion: 0.0006},
		"openai/text-embedding-3-small": {Prompt: 0.00002, Completion: 0},
		"anthropic/claude-sonnet-4-5": {Prompt: 0.003, Completion: 0.015},
		"anthropic/claude-haiku-4-5":  {Prompt: 0.001, Completion: 0.005},
		"mistral/mistral-large-latest": {Prompt: 0.002, Completion: 0.006},
		"together/meta-llama/Llama-3.3-70B-Instruct-Turbo": {Prompt: 0.00088, Completion: 0.00088},
		"local-bge/bge-small-en-v1.5": {Prompt: 0, Completion: 0},
	})
}

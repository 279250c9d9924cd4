package intent

import (
	"encoding/json"
	"fmt"
	"hash/fnv"
	"os"
	"strings"
)

// CatalogIntent is one labeled intent in the catalog artifact.
type CatalogIntent struct {
	Label     string   `json:"label"`
	Keywords  []string `json:"keywords"`
	Responses []string `json:"responses"`
}

// KeywordClassifier scores utterances by keyword overlap against a fixed
// catalog. Confidence is the fraction of the intent's keywords present in the
// utterance; the highest-scoring label wins and scores below the threshold
// collapse to LabelNoMatch.
type KeywordClassifier struct {
	threshold float64
	intents   []CatalogIntent
	keywords  map[string][]string // label -> keywords
	responses map[string][]string
}

func NewKeywordClassifier(intents []CatalogIntent, threshold float64) *KeywordClassifier {
	if threshold <= 0 {
		threshold = 0.6
	}
	c := &KeywordClassifier{
		threshold: threshold,
		intents:   intents,
		keywords:  make(map[string][]string, len(intents)),
		responses: make(map[string][]string, len(intents)),
	}
	for _, it := range intents {
		kws := make([]string, 0, len(it.Keywords))
		for _, kw := range it.Keywords {
			kw = strings.ToLower(strings.TrimSpace(kw))
			if kw != "" {
				kws = append(kws, kw)
			}
		}
		c.keywords[it.Label] = kws
		c.responses[it.Label] = it.Responses
	}
	return c
}

// LoadCatalog reads a classifier catalog from a JSON file.
func LoadCatalog(path string, threshold float64) (*KeywordClassifier, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read intent catalog: %w", err)
	}
	var intents []CatalogIntent
	if err := json.Unmarshal(data, &intents); err != nil {
		return nil, fmt.Errorf("parse intent catalog: %w", err)
	}
	if len(intents) == 0 {
		return nil, fmt.Errorf("intent catalog %s is empty", path)
	}
	return NewKeywordClassifier(intents, threshold), nil
}

func (c *KeywordClassifier) Classify(normalized string) Prediction {
	tokens := make(map[string]bool)
	for _, tok := range strings.Fields(normalized) {
		tokens[tok] = true
	}

	best := Prediction{Label: LabelNoMatch}
	for _, it := range c.intents {
		kws := c.keywords[it.Label]
		if len(kws) == 0 {
			continue
		}
		hits := 0
		for _, kw := range kws {
			if tokens[kw] || (strings.Contains(kw, " ") && strings.Contains(normalized, kw)) {
				hits++
			}
		}
		conf := float64(hits) / float64(len(kws))
		if conf > best.Confidence {
			best = Prediction{Label: it.Label, Confidence: conf}
		}
	}

	if best.Confidence < c.threshold {
		best.Label = LabelNoMatch
	}
	return best
}

// Respond picks one of the label's canned responses. The choice is
// deterministic in the question text so repeated questions get stable answers.
func (c *KeywordClassifier) Respond(label, normalized string) (string, bool) {
	responses := c.responses[label]
	if label == LabelNoMatch || len(responses) == 0 {
		return "", false
	}
	h := fnv.New32a()
	_, _ = h.Write([]byte(normalized))
	return responses[int(h.Sum32())%len(responses)], true
}

// Package intent provides the optional local intent classification strategy.
// The classifier is an opaque pre-trained artifact loaded from a catalog file;
// the resolver works identically with or without one.
package intent

// LabelNoMatch is the sentinel returned when no intent clears the confidence
// threshold; it routes the resolver straight to the generative fallback.
const LabelNoMatch = "NO_MATCH"

// Prediction carries the winning label and its confidence in [0,1].
type Prediction struct {
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
}

// Classifier maps a normalized utterance to an intent prediction.
type Classifier interface {
	// Classify scores the normalized question. Predictions below the
	// classifier's threshold carry LabelNoMatch regardless of the raw top
	// label.
	Classify(normalized string) Prediction

	// Respond picks the canned answer for a confidently classified label.
	// The bool is false when the label has no responses (or is LabelNoMatch).
	Respond(label, normalized string) (string, bool)
}

// Disabled is the no-classifier variant: every utterance is a NO_MATCH.
type Disabled struct{}

func (Disabled) Classify(string) Prediction {
	return Prediction{Label: LabelNoMatch, Confidence: 0}
}

func (Disabled) Respond(string, string) (string, bool) { return "", false }

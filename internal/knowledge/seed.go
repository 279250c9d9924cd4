package knowledge

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/brmartins/sabia/internal/normalize"
)

type seedEntry struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// SeedFromFile loads question/answer pairs from a JSON array file and inserts
// them with Origin=seed. Pairs whose question is already present are skipped;
// the returned count is the number of entries actually inserted.
func SeedFromFile(ctx context.Context, store Store, path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("read seed file: %w", err)
	}

	var seeds []seedEntry
	if err := json.Unmarshal(data, &seeds); err != nil {
		return 0, fmt.Errorf("parse seed file: %w", err)
	}

	inserted := 0
	for _, s := range seeds {
		key := normalize.Normalize(s.Question)
		if key == "" || strings.TrimSpace(s.Answer) == "" {
			continue
		}
		ok, err := store.Insert(ctx, Entry{
			Question:    strings.TrimSpace(s.Question),
			QuestionKey: key,
			Answer:      strings.TrimSpace(s.Answer),
			Origin:      OriginSeed,
		})
		if err != nil {
			return inserted, fmt.Errorf("seed %q: %w", key, err)
		}
		if ok {
			inserted++
		}
	}
	return inserted, nil
}

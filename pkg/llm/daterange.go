package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/nav21/stockAnalyzer/internal/model"
)

const rangeSystemPrompt = `You extract calendar date ranges from questions about stocks.

Today is %s.

Reply with JSON only, no other text:
{
  "start_date": "YYYY-MM-DD" or null,
  "end_date": "YYYY-MM-DD" or null
}

Use null for any bound the question does not imply. Resolve relative phrases
such as "last week" or "yesterday" against today's date.`

// RangeExtractor asks a Generator which dates a question refers to. A bound
// that is missing or not a valid date comes back nil.
type RangeExtractor struct {
	gen Generator
	now func() time.Time
}

func NewRangeExtractor(gen Generator) *RangeExtractor {
	return &RangeExtractor{gen: gen, now: time.Now}
}

func (e *RangeExtractor) ExtractRange(ctx context.Context, question string) (model.DateRange, error) {
	system := fmt.Sprintf(rangeSystemPrompt, e.now().UTC().Format("2006-01-02"))

	reply, err := e.gen.Generate(ctx, system, question)
	if err != nil {
		return model.DateRange{}, fmt.Errorf("%w: %v", model.ErrExtraction, err)
	}

	content := cleanJSONResponse(reply)

	var parsed struct {
		StartDate *string `json:"start_date"`
		EndDate   *string `json:"end_date"`
	}
	if err := json.Unmarshal([]byte(content), &parsed); err != nil {
		return model.DateRange{}, fmt.Errorf("%w: failed to parse response: %v, content: %s",
			model.ErrExtraction, err, truncate(content, 200))
	}

	return model.DateRange{
		Start: parseDay(parsed.StartDate),
		End:   parseDay(parsed.EndDate),
	}, nil
}

func parseDay(s *string) *time.Time {
	if s == nil {
		return nil
	}
	t, err := time.Parse("2006-01-02", strings.TrimSpace(*s))
	if err != nil {
		return nil
	}
	return &t
}

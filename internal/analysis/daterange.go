package analysis

import (
	"context"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/nav21/stockAnalyzer/internal/model"
)

// NormalizeRange applies the range policy against today (UTC): a start in
// the future is dropped, an end in the future is clamped to today. Bounds are
// truncated to whole days.
func NormalizeRange(r model.DateRange, now time.Time) model.DateRange {
	today := truncateDay(now)

	var out model.DateRange
	if r.Start != nil && !r.Start.IsZero() {
		s := truncateDay(*r.Start)
		if !s.After(today) {
			out.Start = &s
		}
	}
	if r.End != nil && !r.End.IsZero() {
		e := truncateDay(*r.End)
		if e.After(today) {
			e = today
		}
		out.End = &e
	}
	return out
}

func truncateDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

var (
	isoDatePattern  = regexp.MustCompile(`\b(\d{4}-\d{2}-\d{2})\b`)
	lastDaysPattern = regexp.MustCompile(`\blast\s+(\d{1,3})\s+days?\b`)
)

// PatternExtractor recognises a handful of phrasings without a model: ISO
// dates, "today", "yesterday", "this week" and "last N days". It is the
// extractor when no LLM key is configured.
type PatternExtractor struct {
	Now func() time.Time
}

func (p PatternExtractor) ExtractRange(_ context.Context, question string) (model.DateRange, error) {
	now := time.Now
	if p.Now != nil {
		now = p.Now
	}
	today := truncateDay(now())
	q := strings.ToLower(question)

	if m := isoDatePattern.FindAllString(q, 2); len(m) > 0 {
		var dates []time.Time
		for _, s := range m {
			if d, err := time.Parse("2006-01-02", s); err == nil {
				dates = append(dates, d)
			}
		}
		switch len(dates) {
		case 1:
			return model.DateRange{Start: &dates[0], End: &dates[0]}, nil
		case 2:
			if dates[1].Before(dates[0]) {
				dates[0], dates[1] = dates[1], dates[0]
			}
			return model.DateRange{Start: &dates[0], End: &dates[1]}, nil
		}
	}

	if m := lastDaysPattern.FindStringSubmatch(q); m != nil {
		n, _ := strconv.Atoi(m[1])
		start := today.AddDate(0, 0, -n)
		return model.DateRange{Start: &start, End: &today}, nil
	}

	switch {
	case strings.Contains(q, "yesterday"):
		y := today.AddDate(0, 0, -1)
		return model.DateRange{Start: &y, End: &y}, nil
	case strings.Contains(q, "today"):
		return model.DateRange{Start: &today, End: &today}, nil
	case strings.Contains(q, "this week"):
		offset := (int(today.Weekday()) + 6) % 7
		monday := today.AddDate(0, 0, -offset)
		return model.DateRange{Start: &monday, End: &today}, nil
	}

	return model.DateRange{}, nil
}

package news

import (
	"context"
	"fmt"
	"time"
)

// Article is a provider's article before normalization. PublishedAt is zero
// when the provider's date did not parse.
type Article struct {
	Title       string
	Content     string
	URL         string
	PublishedAt time.Time
	Symbols     []string
	Source      string
}

// Provider fetches articles about one ticker. from and to are optional date
// bounds; providers apply their own default window when both are nil.
type Provider interface {
	Fetch(ctx context.Context, symbol string, from, to *time.Time) ([]Article, error)
	Name() string
}

const defaultLimit = 50

// StatusError is a non-200 response from a news API.
type StatusError struct {
	Provider   string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: unexpected status %d", e.Provider, e.StatusCode)
}

func dateParam(t *time.Time, layout string) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(layout)
}

package model

import (
	"strings"
	"time"
)

type NewsArticle struct {
	ID        int64
	Title     string
	Content   string
	URL       string
	Timestamp time.Time
	Symbols   []string
}

func (a NewsArticle) Validate() error {
	if strings.TrimSpace(a.Title) == "" {
		return &ValidationError{Field: "title", Reason: "empty"}
	}
	if a.Timestamp.IsZero() {
		return &ValidationError{Field: "timestamp", Reason: "missing or unparsable"}
	}
	return nil
}

package analysis

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/nav21/stockAnalyzer/internal/model"
)

const maxContentChars = 500

// ContextInput is everything RenderContext prints.
type ContextInput struct {
	Symbol   string
	Question string
	Ticks    []model.PriceTick
	News     []model.NewsArticle
	Range    model.DateRange
	Location *time.Location
}

// RenderContext formats prices and news as the plain-text context handed to
// the generator. Ticks are printed in the order given; a tick without a
// timestamp is printed as "Invalid Date" and ignored for the range summary.
func RenderContext(in ContextInput) string {
	loc := in.Location
	if loc == nil {
		loc = time.UTC
	}

	var oldest, newest string
	lines := make([]string, 0, len(in.Ticks))
	for _, t := range in.Ticks {
		price := decimal.NewFromFloat(t.Price).StringFixed(2)
		if t.Timestamp.IsZero() {
			lines = append(lines, fmt.Sprintf("  Price: $%s (As of: Invalid Date)", price))
			continue
		}

		local := t.Timestamp.In(loc)
		day := local.Format("2006-01-02")
		if oldest == "" || day < oldest {
			oldest = day
		}
		if newest == "" || day > newest {
			newest = day
		}
		lines = append(lines, fmt.Sprintf("  Price: $%s (As of: %s)", price, local.Format("2006-01-02 15:04:05 MST")))
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Symbol: %s\n", in.Symbol)
	switch {
	case len(in.Ticks) == 0:
		sb.WriteString("Stock Price History:\nNo price data available\n")
	case oldest != "" && oldest != newest:
		fmt.Fprintf(&sb, "Stock Price History (spanning from %s to %s):\n", oldest, newest)
	case oldest != "":
		fmt.Fprintf(&sb, "Stock Price History (all data from %s):\n", oldest)
	default:
		sb.WriteString("Stock Price History:\n")
	}
	for _, l := range lines {
		sb.WriteString(l)
		sb.WriteByte('\n')
	}

	if r := describeRange(in.Range); r != "" {
		fmt.Fprintf(&sb, "\nRequested period: %s\n", r)
	}

	sb.WriteString("\nRecent News:\n")
	if len(in.News) == 0 {
		sb.WriteString("No recent news available.\n")
	}
	for _, a := range in.News {
		fmt.Fprintf(&sb, "\nTitle: %s\n", a.Title)
		fmt.Fprintf(&sb, "Content: %s\n", truncate(a.Content, maxContentChars))
		fmt.Fprintf(&sb, "Published: %s\n", a.Timestamp.In(loc).Format("2006-01-02 15:04:05 MST"))
	}

	fmt.Fprintf(&sb, "\nQuestion: %s\n", in.Question)
	return sb.String()
}

func describeRange(r model.DateRange) string {
	switch {
	case r.Start != nil && r.End != nil:
		return fmt.Sprintf("%s to %s", r.Start.Format("2006-01-02"), r.End.Format("2006-01-02"))
	case r.Start != nil:
		return fmt.Sprintf("from %s", r.Start.Format("2006-01-02"))
	case r.End != nil:
		return fmt.Sprintf("until %s", r.End.Format("2006-01-02"))
	}
	return ""
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max]) + "..."
}

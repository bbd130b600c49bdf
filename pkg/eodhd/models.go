package eodhd

import "time"

// RealTimeQuote is the payload of /real-time/{symbol}.
type RealTimeQuote struct {
	Code      string `json:"code"`
	Timestamp Int    `json:"timestamp"`
	Open      Float  `json:"open"`
	High      Float  `json:"high"`
	Low       Float  `json:"low"`
	Close     Float  `json:"close"`
	Volume    Float  `json:"volume"`
}

// EODData represents a single day's end-of-day price data.
type EODData struct {
	Date          time.Time `json:"-"`
	DateStr       string    `json:"date"`
	Open          float64   `json:"open"`
	High          float64   `json:"high"`
	Low           float64   `json:"low"`
	Close         float64   `json:"close"`
	AdjustedClose float64   `json:"adjusted_close"`
	Volume        int64     `json:"volume"`
}

type EODResponse []EODData

// NewsItem represents a single news article.
type NewsItem struct {
	Date    time.Time `json:"-"`
	DateStr string    `json:"date"`
	Title   string    `json:"title"`
	Content string    `json:"content"`
	Link    string    `json:"link"`
	Symbols []string  `json:"symbols"`
	Tags    []string  `json:"tags"`
}

type NewsResponse []NewsItem

package handler

type StockResponse struct {
	Price     float64 `json:"price"`
	Timestamp string  `json:"timestamp"`
}

type NewsResponse struct {
	Title     string   `json:"title"`
	Content   string   `json:"content"`
	URL       string   `json:"url"`
	Timestamp string   `json:"timestamp"`
	Symbols   []string `json:"symbols"`
}

type AnalyzeRequest struct {
	Question       string `json:"question"`
	SelectedSymbol string `json:"selectedSymbol"`
	UserTimezone   string `json:"userTimezone"`
}

type AnalyzeResponse struct {
	Analysis string `json:"analysis"`
}

type PopulateRequest struct {
	StartDate string   `json:"start_date"`
	EndDate   string   `json:"end_date"`
	Symbols   []string `json:"symbols"`
}

type PopulateResponse struct {
	Message  string `json:"message"`
	Inserted int    `json:"inserted"`
	Existing int    `json:"existing"`
	Failed   int    `json:"failed"`
}

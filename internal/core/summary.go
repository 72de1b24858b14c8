package core

// DailyVolume is the successful flow for one calendar day.
type DailyVolume struct {
	Date     string `json:"date"`  // YYYY-MM-DD
	Label    string `json:"label"` // e.g. "Oct 17"
	Sent     Money  `json:"sent"`
	Received Money  `json:"received"`
	Total    Money  `json:"total"`
}

// Stats is the dashboard summary computed by Aggregate.
type Stats struct {
	TotalCount        int              `json:"totalCount"`
	SuccessCount      int              `json:"successCount"`
	FailedCount       int              `json:"failedCount"`
	TotalSent         Money            `json:"totalSent"`
	TotalReceived     Money            `json:"totalReceived"`
	SuccessRate       string           `json:"successRate"`
	CategoryBreakdown map[string]Money `json:"categoryBreakdown"`
	DailyVolume       []DailyVolume    `json:"dailyVolume"`
}

// CategoryAmount is one slice of the category breakdown.
type CategoryAmount struct {
	Name   string `json:"name"`
	Amount Money  `json:"amount"`
}

// Dashboard pairs the statistics with the most recent transactions.
type Dashboard struct {
	Stats      Stats            `json:"stats"`
	Categories []CategoryAmount `json:"categories"`
	Recent     []Transaction    `json:"recent"`
}

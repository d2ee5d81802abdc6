package model

// CategorySum is one (day, category) aggregate from the analytics endpoint.
// Pairs without activity are absent.
type CategorySum struct {
	Date         string  `json:"date"`
	CategoryName string  `json:"category_name"`
	Sum          float64 `json:"sum"`
}

// DateLayout is the calendar-day format used on the wire.
const DateLayout = "2006-01-02"

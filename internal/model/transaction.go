package model

// ImportedTransaction is a candidate record produced by the backend's import
// parser. It only lives for the duration of an import review.
type ImportedTransaction struct {
	CategoryID  *int            `json:"category_id"`
	ExpenseDate string          `json:"expense_date"`
	Description string          `json:"description"`
	Type        TransactionType `json:"type"`
	Amount      float64         `json:"amount"`
}

// ImportPreview is the backend's answer to an uploaded import file.
type ImportPreview struct {
	Transactions []ImportedTransaction `json:"transactions"`
	Errors       []string              `json:"errors"`
	HeadersFound []string              `json:"headers_found"`
}

// ImportBatch is the request body for submitting reviewed transactions.
type ImportBatch struct {
	Transactions []ImportedTransaction `json:"transactions"`
}

package model

import "time"

// ImportSession is a parsed import file kept locally between preview and
// save so the review can be resumed.
type ImportSession struct {
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
	ID        string        `json:"id"`
	Filename  string        `json:"filename"`
	Preview   ImportPreview `json:"preview"`
}

// ImportSessionSummary describes a stored session without its rows.
type ImportSessionSummary struct {
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	ID        string    `json:"id"`
	Filename  string    `json:"filename"`
	Rows      int       `json:"rows"`
	Errors    int       `json:"errors"`
}

package models

import "time"

// ReadingRecord is one observation of whether a child could read a word
type ReadingRecord struct {
	ID                 int64     `json:"id"`
	ChildID            int64     `json:"child_id"`
	WordID             int64     `json:"word_id"`
	TestDate           time.Time `json:"test_date"`
	CouldRead          bool      `json:"could_read"`
	ReadingTimeSeconds *float64  `json:"reading_time_seconds"`
	MisreadAs          *string   `json:"misread_as"`
	Notes              *string   `json:"notes"`
	FontID             *int64    `json:"font_id"`
}

// RecordDetail is a reading record joined with the word, its list and the font
type RecordDetail struct {
	ReadingRecord
	WordText     string  `json:"word_text"`
	WordListName string  `json:"word_list_name"`
	FontName     *string `json:"font_name"`
	FontFamily   *string `json:"font_family"`
}

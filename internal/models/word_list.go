package models

import "time"

// WordList is a named, ordered collection of words used as test material
type WordList struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description *string   `json:"description"`
	WordCount   int       `json:"word_count"`
	CreatedAt   time.Time `json:"created_at"`
}

// Word represents a word in a word list
type Word struct {
	ID           int64  `json:"id"`
	WordListID   int64  `json:"word_list_id"`
	WordText     string `json:"word_text"`
	DisplayOrder int    `json:"display_order"`
}

// WordListWithWords combines a word list with its words in display order
type WordListWithWords struct {
	WordList
	Words []Word `json:"words"`
}

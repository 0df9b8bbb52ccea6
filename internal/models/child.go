package models

import "time"

// Child represents a child whose reading is being assessed
type Child struct {
	ID              int64     `json:"id"`
	Name            string    `json:"name"`
	Grade           *string   `json:"grade"`
	BirthYear       *int      `json:"birth_year"`
	BirthMonth      *int      `json:"birth_month"`
	EnrollmentYear  *int      `json:"enrollment_year"`
	EnrollmentMonth *int      `json:"enrollment_month"`
	Notes           *string   `json:"notes"`
	CreatedAt       time.Time `json:"created_at"`
}

// ChildStats aggregates a child's reading records
type ChildStats struct {
	TotalTests      int      `json:"total_tests"`
	SuccessfulReads int      `json:"successful_reads"`
	AvgTime         *float64 `json:"avg_time"` // nil when no record has a time
	MisreadCount    int      `json:"misread_count"`
	TestDays        int      `json:"test_days"`
}

// SuccessRate returns successful reads as a percentage of all tests
func (s ChildStats) SuccessRate() float64 {
	if s.TotalTests == 0 {
		return 0
	}
	return float64(s.SuccessfulReads) * 100 / float64(s.TotalTests)
}

// Analysis is the per-child report: every record, newest first, plus totals
type Analysis struct {
	Child   *Child         `json:"child"`
	Records []RecordDetail `json:"records"`
	Stats   ChildStats     `json:"stats"`
}

package models

import "time"

// Exam identifies one examination sitting within a term.
type Exam struct {
	ID             string    `db:"id" json:"id"`
	Name           string    `db:"name" json:"name"`
	Term           string    `db:"term" json:"term"`
	AcademicYearID string    `db:"academic_year_id" json:"academic_year_id"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
}

package models

import "time"

// Student represents a learner registered in the institution. O-Level
// students carry no subject combination; A-Level students reference exactly
// one.
type Student struct {
	ID                   string         `db:"id" json:"id"`
	AdmissionNo          string         `db:"admission_no" json:"admission_no"`
	FullName             string         `db:"full_name" json:"full_name"`
	Gender               string         `db:"gender" json:"gender"`
	EducationLevel       EducationLevel `db:"education_level" json:"education_level"`
	ClassID              string         `db:"class_id" json:"class_id"`
	SubjectCombinationID *string        `db:"subject_combination_id" json:"subject_combination_id,omitempty"`
	Active               bool           `db:"active" json:"active"`
	CreatedAt            time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt            time.Time      `db:"updated_at" json:"updated_at"`
}

package models

import (
	"time"

	"github.com/lib/pq"
)

// SubjectSelection records the core and optional subjects an O-Level student
// takes in one academic year. At most one selection exists per
// (student, academic year); a second create returns the existing record.
type SubjectSelection struct {
	ID                 string         `db:"id" json:"id"`
	StudentID          string         `db:"student_id" json:"student_id"`
	AcademicYearID     string         `db:"academic_year_id" json:"academic_year_id"`
	CoreSubjectIDs     pq.StringArray `db:"core_subject_ids" json:"core_subject_ids"`
	OptionalSubjectIDs pq.StringArray `db:"optional_subject_ids" json:"optional_subject_ids"`
	ApprovedBy         *string        `db:"approved_by" json:"approved_by,omitempty"`
	CreatedAt          time.Time      `db:"created_at" json:"created_at"`
}

// HasOptional reports whether the subject is among the selected optionals.
func (s *SubjectSelection) HasOptional(subjectID string) bool {
	for _, id := range s.OptionalSubjectIDs {
		if id == subjectID {
			return true
		}
	}
	return false
}

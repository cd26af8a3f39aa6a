package models

import "time"

// Result is one student's mark for a subject in an exam. The triple
// (student_id, subject_id, exam_id) is the natural key: at most one live row
// exists per triple, enforced by a unique constraint, and repeated entry
// updates the row in place. Grade and points are derived from the marks at
// write time and are never independently settable.
type Result struct {
	ID             string    `db:"id" json:"id"`
	StudentID      string    `db:"student_id" json:"student_id"`
	SubjectID      string    `db:"subject_id" json:"subject_id"`
	ExamID         string    `db:"exam_id" json:"exam_id"`
	ClassID        string    `db:"class_id" json:"class_id"`
	AcademicYearID string    `db:"academic_year_id" json:"academic_year_id"`
	Marks          float64   `db:"marks" json:"marks"`
	Grade          string    `db:"grade" json:"grade"`
	Points         int       `db:"points" json:"points"`
	IsPrincipal    *bool     `db:"is_principal" json:"is_principal,omitempty"`
	IsSubsidiary   *bool     `db:"is_subsidiary" json:"is_subsidiary,omitempty"`
	Comment        *string   `db:"comment" json:"comment,omitempty"`
	EnteredBy      string    `db:"entered_by" json:"entered_by"`
	UpdatedBy      *string   `db:"updated_by" json:"updated_by,omitempty"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}

// ResultRow enriches a result with display names for report payloads.
type ResultRow struct {
	Result
	SubjectCode string `db:"subject_code" json:"subject_code"`
	SubjectName string `db:"subject_name" json:"subject_name"`
	StudentName string `db:"student_name" json:"student_name"`
}

// Principal reports whether the result counts as a principal subject.
func (r *Result) Principal() bool {
	return r.IsPrincipal != nil && *r.IsPrincipal
}

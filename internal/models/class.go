package models

import "time"

// Class groups students of one education level under an optional designated
// class teacher. The class teacher may act on every subject in the class.
type Class struct {
	ID             string         `db:"id" json:"id"`
	Name           string         `db:"name" json:"name"`
	Level          EducationLevel `db:"level" json:"level"`
	ClassTeacherID *string        `db:"class_teacher_id" json:"class_teacher_id,omitempty"`
	AcademicYearID string         `db:"academic_year_id" json:"academic_year_id"`
	CreatedAt      time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time      `db:"updated_at" json:"updated_at"`
}

package models

import "time"

// AssignmentStatus marks an assignment as usable for authorization or not.
type AssignmentStatus string

const (
	AssignmentActive   AssignmentStatus = "ACTIVE"
	AssignmentInactive AssignmentStatus = "INACTIVE"
)

// TeacherSubjectAssignment links a teacher to a subject within a class. An
// active row is the authoritative grant behind marks entry, supplemented only
// by the class-teacher override.
type TeacherSubjectAssignment struct {
	ID        string           `db:"id" json:"id"`
	TeacherID string           `db:"teacher_id" json:"teacher_id"`
	SubjectID string           `db:"subject_id" json:"subject_id"`
	ClassID   string           `db:"class_id" json:"class_id"`
	Status    AssignmentStatus `db:"status" json:"status"`
	CreatedAt time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt time.Time        `db:"updated_at" json:"updated_at"`
}

// TeacherSubjectAssignmentDetail enriches assignments with display names.
type TeacherSubjectAssignmentDetail struct {
	TeacherSubjectAssignment
	SubjectName string `db:"subject_name" json:"subject_name"`
	ClassName   string `db:"class_name" json:"class_name"`
}

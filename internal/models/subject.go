package models

import "time"

// Subject represents an academic subject. Core subjects are implicitly taken
// by every O-Level student of the owning class; optional subjects require an
// explicit selection record.
type Subject struct {
	ID        string       `db:"id" json:"id"`
	Code      string       `db:"code" json:"code"`
	Name      string       `db:"name" json:"name"`
	Type      SubjectType  `db:"type" json:"type"`
	Level     SubjectLevel `db:"level" json:"level"`
	CreatedAt time.Time    `db:"created_at" json:"created_at"`
	UpdatedAt time.Time    `db:"updated_at" json:"updated_at"`
}

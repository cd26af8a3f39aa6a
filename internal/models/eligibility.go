package models

// Eligibility is the outcome of checking whether a student may receive marks
// for a subject. A non-empty Warning on an ineligible outcome means the
// write may still proceed but the warning must be surfaced to the caller.
type Eligibility struct {
	StudentID    string `json:"student_id"`
	SubjectID    string `json:"subject_id"`
	Eligible     bool   `json:"is_eligible"`
	IsPrincipal  bool   `json:"is_principal"`
	IsSubsidiary bool   `json:"is_subsidiary"`
	Reason       string `json:"reason,omitempty"`
	Warning      string `json:"warning,omitempty"`
}

// Overridable reports whether an ineligible outcome may still be written
// with a warning attached (O-Level unselected optional, subject outside the
// A-Level combination) as opposed to a hard block (level mismatch, missing
// combination).
func (e Eligibility) Overridable() bool {
	return !e.Eligible && e.Warning != ""
}

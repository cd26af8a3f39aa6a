package models

import "time"

// SubjectCombination is the named set of subjects an A-Level student is
// enrolled in, e.g. PCM (Physics, Chemistry, Mathematics).
type SubjectCombination struct {
	ID        string            `db:"id" json:"id"`
	Code      string            `db:"code" json:"code"`
	Name      string            `db:"name" json:"name"`
	CreatedAt time.Time         `db:"created_at" json:"created_at"`
	Items     []CombinationItem `json:"items,omitempty"`
}

// CombinationItem flags one subject of a combination as principal or
// subsidiary. The two flags are mutually exclusive.
type CombinationItem struct {
	ID            string `db:"id" json:"id"`
	CombinationID string `db:"combination_id" json:"combination_id"`
	SubjectID     string `db:"subject_id" json:"subject_id"`
	IsPrincipal   bool   `db:"is_principal" json:"is_principal"`
	IsSubsidiary  bool   `db:"is_subsidiary" json:"is_subsidiary"`
}

// FindItem returns the combination item for the given subject, if present.
func (c *SubjectCombination) FindItem(subjectID string) (CombinationItem, bool) {
	for _, item := range c.Items {
		if item.SubjectID == subjectID {
			return item, true
		}
	}
	return CombinationItem{}, false
}

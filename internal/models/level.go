package models

// EducationLevel is the closed set of secondary-education tracks. Every
// grading and eligibility rule switches on this type in exactly one place.
type EducationLevel string

const (
	// OLevel is the ordinary-level track (core + selected optional subjects).
	OLevel EducationLevel = "O_LEVEL"
	// ALevel is the advanced-level track (subject combinations).
	ALevel EducationLevel = "A_LEVEL"
)

// Valid reports whether the level is one of the supported tracks.
func (l EducationLevel) Valid() bool {
	return l == OLevel || l == ALevel
}

// SubjectLevel restricts a subject to a track, or opens it to both.
type SubjectLevel string

const (
	SubjectLevelOLevel SubjectLevel = "O_LEVEL"
	SubjectLevelALevel SubjectLevel = "A_LEVEL"
	SubjectLevelBoth   SubjectLevel = "BOTH"
)

// Matches reports whether a subject at this level may be taken by a student
// in the given track.
func (l SubjectLevel) Matches(level EducationLevel) bool {
	return l == SubjectLevelBoth || string(l) == string(level)
}

// SubjectType distinguishes mandatory core subjects from elective optionals.
type SubjectType string

const (
	SubjectCore     SubjectType = "CORE"
	SubjectOptional SubjectType = "OPTIONAL"
)

// Division is the banded O-Level classification derived from the summed
// points of a student's best seven subjects.
type Division string

const (
	DivisionOne   Division = "I"
	DivisionTwo   Division = "II"
	DivisionThree Division = "III"
	DivisionFour  Division = "IV"
	DivisionNone  Division = "0"
)

// Rank orders divisions for class ranking: I sorts first, ungraded last.
func (d Division) Rank() int {
	switch d {
	case DivisionOne:
		return 1
	case DivisionTwo:
		return 2
	case DivisionThree:
		return 3
	case DivisionFour:
		return 4
	case DivisionNone:
		return 5
	default:
		return 6
	}
}

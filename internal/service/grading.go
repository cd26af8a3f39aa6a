package service

import (
	"fmt"
	"math"

	"github.com/edumark/smis-api/internal/models"

	appErrors "github.com/edumark/smis-api/pkg/errors"
)

const (
	// DivisionSubjectCount is how many best subjects feed the O-Level
	// division aggregate.
	DivisionSubjectCount = 7
	// BestPrincipalCount is how many principal subjects feed the A-Level
	// points aggregate.
	BestPrincipalCount = 3
)

// GradeBand maps a minimum mark to a grade symbol and its points value.
// Bands are ordered descending by Min; the first band whose Min the marks
// reach wins.
type GradeBand struct {
	Grade  string
	Min    float64
	Points int
}

var oLevelBands = []GradeBand{
	{Grade: "D1", Min: 85, Points: 1},
	{Grade: "D2", Min: 80, Points: 2},
	{Grade: "C3", Min: 75, Points: 3},
	{Grade: "C4", Min: 70, Points: 4},
	{Grade: "C5", Min: 65, Points: 5},
	{Grade: "C6", Min: 60, Points: 6},
	{Grade: "P7", Min: 50, Points: 7},
	{Grade: "P8", Min: 40, Points: 8},
	{Grade: "F9", Min: 0, Points: 9},
}

var aLevelBands = []GradeBand{
	{Grade: "A", Min: 80, Points: 1},
	{Grade: "B", Min: 70, Points: 2},
	{Grade: "C", Min: 60, Points: 3},
	{Grade: "D", Min: 50, Points: 4},
	{Grade: "E", Min: 40, Points: 5},
	{Grade: "O", Min: 35, Points: 6},
	{Grade: "F", Min: 0, Points: 7},
}

// GradesForLevel returns the grade bands applied at a level.
func GradesForLevel(level models.EducationLevel) ([]GradeBand, error) {
	switch level {
	case models.OLevel:
		return oLevelBands, nil
	case models.ALevel:
		return aLevelBands, nil
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported education level %q", level))
	}
}

// CalculateGradeAndPoints converts raw marks into the grade symbol and
// points for the level. Marks must already be validated into [0,100].
func CalculateGradeAndPoints(level models.EducationLevel, marks float64) (string, int, error) {
	bands, err := GradesForLevel(level)
	if err != nil {
		return "", 0, err
	}
	for _, band := range bands {
		if marks >= band.Min {
			return band.Grade, band.Points, nil
		}
	}
	last := bands[len(bands)-1]
	return last.Grade, last.Points, nil
}

// DivisionFromPoints maps an O-Level best-seven points total to a division.
// Lower points are better; 7 is a perfect aggregate.
func DivisionFromPoints(totalPoints int) models.Division {
	switch {
	case totalPoints >= 7 && totalPoints <= 17:
		return models.DivisionOne
	case totalPoints >= 18 && totalPoints <= 21:
		return models.DivisionTwo
	case totalPoints >= 22 && totalPoints <= 25:
		return models.DivisionThree
	case totalPoints >= 26 && totalPoints <= 33:
		return models.DivisionFour
	default:
		return models.DivisionNone
	}
}

// RoundAverage rounds to one decimal place with half-up ties, so 74.95
// becomes 75.0 rather than banker's 74.9.
func RoundAverage(v float64) float64 {
	return math.Floor(v*10+0.5) / 10
}

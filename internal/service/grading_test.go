package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edumark/smis-api/internal/models"
)

func TestCalculateGradeAndPointsOLevel(t *testing.T) {
	cases := []struct {
		marks  float64
		grade  string
		points int
	}{
		{100, "D1", 1},
		{85, "D1", 1},
		{84.9, "D2", 2},
		{80, "D2", 2},
		{79, "C3", 3},
		{75, "C3", 3},
		{74, "C4", 4},
		{70, "C4", 4},
		{65, "C5", 5},
		{60, "C6", 6},
		{59.9, "P7", 7},
		{50, "P7", 7},
		{49, "P8", 8},
		{40, "P8", 8},
		{39.9, "F9", 9},
		{0, "F9", 9},
	}
	for _, tc := range cases {
		grade, points, err := CalculateGradeAndPoints(models.OLevel, tc.marks)
		require.NoError(t, err)
		assert.Equal(t, tc.grade, grade, "marks %.1f", tc.marks)
		assert.Equal(t, tc.points, points, "marks %.1f", tc.marks)
	}
}

func TestCalculateGradeAndPointsALevel(t *testing.T) {
	cases := []struct {
		marks  float64
		grade  string
		points int
	}{
		{100, "A", 1},
		{80, "A", 1},
		{79.9, "B", 2},
		{70, "B", 2},
		{60, "C", 3},
		{50, "D", 4},
		{40, "E", 5},
		{35, "O", 6},
		{34.9, "F", 7},
		{0, "F", 7},
	}
	for _, tc := range cases {
		grade, points, err := CalculateGradeAndPoints(models.ALevel, tc.marks)
		require.NoError(t, err)
		assert.Equal(t, tc.grade, grade, "marks %.1f", tc.marks)
		assert.Equal(t, tc.points, points, "marks %.1f", tc.marks)
	}
}

func TestCalculateGradeAndPointsRejectsUnknownLevel(t *testing.T) {
	_, _, err := CalculateGradeAndPoints(models.EducationLevel("PRIMARY"), 50)
	require.Error(t, err)
}

func TestDivisionFromPoints(t *testing.T) {
	cases := []struct {
		points   int
		division models.Division
	}{
		{7, models.DivisionOne},
		{17, models.DivisionOne},
		{18, models.DivisionTwo},
		{21, models.DivisionTwo},
		{22, models.DivisionThree},
		{25, models.DivisionThree},
		{26, models.DivisionFour},
		{33, models.DivisionFour},
		{34, models.DivisionNone},
		{63, models.DivisionNone},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.division, DivisionFromPoints(tc.points), "points %d", tc.points)
	}
}

func TestRoundAverageHalfUp(t *testing.T) {
	assert.Equal(t, 75.0, RoundAverage(74.95))
	assert.Equal(t, 74.9, RoundAverage(74.94))
	assert.Equal(t, 66.7, RoundAverage(66.666))
	assert.Equal(t, 0.0, RoundAverage(0))
	assert.Equal(t, 100.0, RoundAverage(100))
}

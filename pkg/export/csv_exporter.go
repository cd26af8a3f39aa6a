package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"
)

// classResultsHeader is the column layout of the exported ranking sheet.
var classResultsHeader = []string{
	"Position", "Student ID", "Student Name", "Subjects",
	"Average Marks", "Total Points", "Division",
}

// ClassResultRow is one ranked student line in the exported sheet.
// TotalPoints and Division arrive pre-formatted because students with too few
// results export as blank cells rather than zeros.
type ClassResultRow struct {
	Position     int
	StudentID    string
	StudentName  string
	SubjectCount int
	AverageMarks float64
	TotalPoints  string
	Division     string
}

// ClassResultsWriter renders ranked class results as a CSV sheet.
type ClassResultsWriter struct{}

// NewClassResultsWriter builds a class results CSV writer.
func NewClassResultsWriter() *ClassResultsWriter {
	return &ClassResultsWriter{}
}

// Render produces the CSV bytes for the sheet, header row included.
func (w *ClassResultsWriter) Render(rows []ClassResultRow) ([]byte, error) {
	buf := &bytes.Buffer{}
	writer := csv.NewWriter(buf)
	if err := writer.Write(classResultsHeader); err != nil {
		return nil, fmt.Errorf("write csv header: %w", err)
	}
	for _, row := range rows {
		record := []string{
			strconv.Itoa(row.Position),
			row.StudentID,
			row.StudentName,
			strconv.Itoa(row.SubjectCount),
			fmt.Sprintf("%.1f", row.AverageMarks),
			row.TotalPoints,
			row.Division,
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("write csv row: %w", err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("flush csv: %w", err)
	}
	return buf.Bytes(), nil
}

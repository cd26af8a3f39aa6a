package models

// StudentAggregate summarises one student's standing in an exam. TotalPoints
// and Division stay nil until the student has enough results for the
// division rule (seven at O-Level); that is a valid partial outcome, not an
// error.
type StudentAggregate struct {
	StudentID       string      `json:"student_id"`
	StudentName     string      `json:"student_name"`
	Results         []ResultRow `json:"results"`
	BestSubjects    []ResultRow `json:"best_subjects"`
	TotalPoints     *int        `json:"total_points"`
	AverageMarks    float64     `json:"average_marks"`
	Division        *Division   `json:"division"`
	MissingSubjects int         `json:"missing_subjects"`
	Position        int         `json:"position,omitempty"`
}

// SubjectStats aggregates one subject across a class for an exam.
type SubjectStats struct {
	SubjectID         string         `json:"subject_id"`
	SubjectCode       string         `json:"subject_code"`
	SubjectName       string         `json:"subject_name"`
	TotalStudents     int            `json:"total_students"`
	AverageMarks      float64        `json:"average_marks"`
	GradeDistribution map[string]int `json:"grade_distribution"`
}

// ClassAggregate holds ranked per-student aggregates plus class statistics.
type ClassAggregate struct {
	ClassID       string             `json:"class_id"`
	ExamID        string             `json:"exam_id"`
	Students      []StudentAggregate `json:"students"`
	DivisionStats map[string]int     `json:"division_stats"`
	SubjectStats  []SubjectStats     `json:"subject_stats"`
}

// SchoolHeader is the static block printed at the top of every report.
type SchoolHeader struct {
	SchoolName string `json:"school_name"`
	Motto      string `json:"motto,omitempty"`
	ExamName   string `json:"exam_name"`
	Term       string `json:"term"`
	ClassName  string `json:"class_name,omitempty"`
}

// StudentReportRow is one subject line on a student report.
type StudentReportRow struct {
	SubjectCode string  `json:"subject_code"`
	SubjectName string  `json:"subject_name"`
	Marks       float64 `json:"marks"`
	Grade       string  `json:"grade"`
	Points      int     `json:"points"`
	IsPrincipal bool    `json:"is_principal,omitempty"`
	Comment     string  `json:"comment,omitempty"`
}

// StudentReportSummary is the totals block under the subject rows.
type StudentReportSummary struct {
	TotalPoints     *int      `json:"total_points"`
	Division        *Division `json:"division"`
	AverageMarks    float64   `json:"average_marks"`
	SubjectCount    int       `json:"subject_count"`
	MissingSubjects int       `json:"missing_subjects"`
}

// StudentReport is the full student report payload.
type StudentReport struct {
	Header      SchoolHeader         `json:"header"`
	StudentID   string               `json:"student_id"`
	StudentName string               `json:"student_name"`
	Rows        []StudentReportRow   `json:"rows"`
	Summary     StudentReportSummary `json:"summary"`
}

// ClassReportRow is one ranked student line on a class report.
type ClassReportRow struct {
	Position     int       `json:"position"`
	StudentID    string    `json:"student_id"`
	StudentName  string    `json:"student_name"`
	TotalPoints  *int      `json:"total_points"`
	AverageMarks float64   `json:"average_marks"`
	Division     *Division `json:"division"`
	SubjectCount int       `json:"subject_count"`
}

// ClassReport is the full class report payload.
type ClassReport struct {
	Header        SchoolHeader     `json:"header"`
	Rows          []ClassReportRow `json:"rows"`
	DivisionStats map[string]int   `json:"division_stats"`
	SubjectStats  []SubjectStats   `json:"subject_stats"`
}

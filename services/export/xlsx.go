package exportsvc

import (
	"io"
	"sort"
	"time"

	"github.com/pkg/errors"
	"github.com/xuri/excelize/v2"

	"github.com/trezcool/niva/core"
	"github.com/trezcool/niva/core/feedback"
)

const (
	ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

	feedbackSheet = "Feedback"
	summarySheet  = "Summary"
)

var feedbackHeader = []interface{}{
	"ID", "Created", "Student", "Course", "Agent",
	"Overall", "Communication", "Technical", "Confidence", "Average", "Band",
	"Feedback", "Strengths", "Improvements", "Recommendations",
}

var summaryHeader = []interface{}{"Course", "Records", "Students", "Average rating", "Latest"}

// Report is a feedback list to export.
type Report struct {
	Title     string
	Records   []feedback.Record
	Generated time.Time
}

// WriteXLSX writes the report as a workbook with a row per record and a per-course summary.
func WriteXLSX(w io.Writer, rep Report) (err error) {
	f := excelize.NewFile()
	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = errors.Wrap(cerr, "closing workbook")
		}
	}()

	if err := f.SetSheetName("Sheet1", feedbackSheet); err != nil {
		return errors.Wrap(err, "renaming sheet")
	}
	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E0E7FF"}, Pattern: 1},
	})
	if err != nil {
		return errors.Wrap(err, "creating header style")
	}

	if err := writeRows(f, feedbackSheet, feedbackHeader, feedbackRows(rep.Records), headerStyle); err != nil {
		return err
	}
	_ = f.SetColWidth(feedbackSheet, "A", "B", 22)
	_ = f.SetColWidth(feedbackSheet, "C", "E", 20)
	_ = f.SetColWidth(feedbackSheet, "L", "O", 40)

	if _, err := f.NewSheet(summarySheet); err != nil {
		return errors.Wrap(err, "creating summary sheet")
	}
	rows := summaryRows(rep.Records)
	title := rep.Title
	if title == "" {
		title = "Feedback"
	}
	generated := rep.Generated
	if generated.IsZero() {
		generated = time.Now()
	}
	if err := f.SetSheetRow(summarySheet, "A1", &[]interface{}{title, "Generated " + generated.Format(time.RFC1123)}); err != nil {
		return errors.Wrap(err, "writing summary title")
	}
	if err := writeRowsAt(f, summarySheet, 3, summaryHeader, rows, headerStyle); err != nil {
		return err
	}
	_ = f.SetColWidth(summarySheet, "A", "A", 30)
	_ = f.SetColWidth(summarySheet, "B", "E", 16)

	if err := f.Write(w); err != nil {
		return errors.Wrap(err, "writing workbook")
	}
	return nil
}

func writeRows(f *excelize.File, sheet string, header []interface{}, rows [][]interface{}, headerStyle int) error {
	return writeRowsAt(f, sheet, 1, header, rows, headerStyle)
}

func writeRowsAt(f *excelize.File, sheet string, start int, header []interface{}, rows [][]interface{}, headerStyle int) error {
	first, _ := excelize.CoordinatesToCellName(1, start)
	last, _ := excelize.CoordinatesToCellName(len(header), start)
	if err := f.SetSheetRow(sheet, first, &header); err != nil {
		return errors.Wrapf(err, "writing %s header", sheet)
	}
	if err := f.SetCellStyle(sheet, first, last, headerStyle); err != nil {
		return errors.Wrapf(err, "styling %s header", sheet)
	}
	for i, row := range rows {
		row := row
		cell, _ := excelize.CoordinatesToCellName(1, start+i+1)
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return errors.Wrapf(err, "writing %s row %d", sheet, i+1)
		}
	}
	return nil
}

func feedbackRows(records []feedback.Record) [][]interface{} {
	rows := make([][]interface{}, 0, len(records))
	for _, rec := range records {
		created := rec.CreatedAtRaw
		if rec.HasTimestamp() {
			created = rec.CreatedAt.Format("2006-01-02 15:04")
		}
		student := rec.StudentName
		if student == "" {
			student = rec.StudentID
		}
		course := rec.CourseName
		if course == "" {
			course = rec.CourseID
		}
		rows = append(rows, []interface{}{
			rec.ID, created, student, course, rec.AgentName,
			rec.Ratings.Overall.Float64(), rec.Ratings.Communication.Float64(),
			rec.Ratings.Technical.Float64(), rec.Ratings.Confidence.Float64(),
			rec.AverageRating.Float64(), feedback.RatingBand(rec.AverageRating),
			rec.Text, rec.Strengths, rec.Improvements, rec.Recommendations,
		})
	}
	return rows
}

type courseSummary struct {
	name     string
	records  int
	students map[string]bool
	total    core.Decimal
	latest   time.Time
}

// summaryRows aggregates the records per course, ordered by course name.
func summaryRows(records []feedback.Record) [][]interface{} {
	byCourse := make(map[string]*courseSummary)
	for _, rec := range records {
		key := rec.CourseID
		s, ok := byCourse[key]
		if !ok {
			name := rec.CourseName
			if name == "" {
				name = rec.CourseID
			}
			s = &courseSummary{name: name, students: make(map[string]bool)}
			byCourse[key] = s
		}
		s.records++
		s.students[rec.StudentID] = true
		s.total += rec.AverageRating
		if rec.CreatedAt.After(s.latest) {
			s.latest = rec.CreatedAt
		}
	}

	summaries := make([]*courseSummary, 0, len(byCourse))
	for _, s := range byCourse {
		summaries = append(summaries, s)
	}
	sort.Slice(summaries, func(i, j int) bool { return summaries[i].name < summaries[j].name })

	rows := make([][]interface{}, 0, len(summaries))
	for _, s := range summaries {
		latest := ""
		if !s.latest.IsZero() {
			latest = s.latest.Format("2006-01-02")
		}
		avg := (s.total / core.Decimal(s.records)).String()
		rows = append(rows, []interface{}{s.name, s.records, len(s.students), avg, latest})
	}
	return rows
}

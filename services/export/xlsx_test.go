package exportsvc

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/xuri/excelize/v2"

	"github.com/trezcool/niva/core"
	"github.com/trezcool/niva/core/feedback"
)

func record(id, studentID, courseID, courseName string, avg core.Decimal, createdAt string) feedback.Record {
	rec := feedback.Record{
		ID:            id,
		StudentID:     studentID,
		StudentName:   "Student " + studentID,
		CourseID:      courseID,
		CourseName:    courseName,
		AverageRating: avg,
		Ratings:       feedback.Ratings{Overall: avg, Communication: avg, Technical: avg, Confidence: avg},
		Text:          "text " + id,
		CreatedAtRaw:  createdAt,
	}
	rec.CreatedAt, _ = core.ParseTimestamp(createdAt)
	return rec
}

func TestWriteXLSX(t *testing.T) {
	records := []feedback.Record{
		record("f1", "s1", "c1", "Go", 8, "2024-05-01T10:00:00Z"),
		record("f2", "s2", "c1", "Go", 6, "2024-04-01T10:00:00Z"),
		record("f3", "s1", "c2", "", 4, ""),
	}

	buf := new(bytes.Buffer)
	err := WriteXLSX(buf, Report{Title: "All students", Records: records, Generated: time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)})
	if !assert.NoError(t, err) {
		return
	}

	f, err := excelize.OpenReader(buf)
	if !assert.NoError(t, err) {
		return
	}
	defer f.Close()

	assert.Equal(t, []string{feedbackSheet, summarySheet}, f.GetSheetList())

	rows, err := f.GetRows(feedbackSheet)
	if assert.NoError(t, err) && assert.Len(t, rows, 4) {
		assert.Equal(t, "ID", rows[0][0])
		assert.Equal(t, []string{"f1", "2024-05-01 10:00", "Student s1", "Go", ""}, rows[1][:5])
		assert.Equal(t, "8", rows[1][9])
		assert.Equal(t, feedback.BandHigh, rows[1][10])
		assert.Equal(t, "text f1", rows[1][11])
		assert.Equal(t, "c2", rows[3][3], "course id is used when the name is unknown")
		assert.Equal(t, feedback.BandLow, rows[3][10])
	}

	rows, err = f.GetRows(summarySheet)
	if assert.NoError(t, err) && assert.Len(t, rows, 5) {
		assert.Equal(t, "All students", rows[0][0])
		assert.Equal(t, "Course", rows[2][0])
		assert.Equal(t, []string{"Go", "2", "2", "7.0", "2024-05-01"}, rows[3])
		assert.Equal(t, []string{"c2", "1", "1", "4.0"}, rows[4])
	}
}

func TestWriteXLSX_empty(t *testing.T) {
	buf := new(bytes.Buffer)
	if !assert.NoError(t, WriteXLSX(buf, Report{})) {
		return
	}
	f, err := excelize.OpenReader(buf)
	if !assert.NoError(t, err) {
		return
	}
	defer f.Close()

	rows, err := f.GetRows(feedbackSheet)
	assert.NoError(t, err)
	assert.Len(t, rows, 1)
}

package feedback

import (
	"encoding/json"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/niva/core"
)

const (
	DefaultLimit = 100
	MaxLimit     = 100
)

// Sources
const (
	SourceUser       Source = "user"
	SourceBulk       Source = "bulk"
	SourceEnumerated Source = "enumerated"
)

// Statuses
const (
	StatusOK    Status = "ok"
	StatusEmpty Status = "empty"
)

// Bulk modes
const (
	// BulkProbe asks for everything first and enumerates students when nothing comes back.
	BulkProbe BulkMode = "probe"
	// BulkTrusted accepts the bulk answer as final, even when it is empty.
	BulkTrusted BulkMode = "trusted"
	// BulkDisabled always enumerates students.
	BulkDisabled BulkMode = "disabled"
)

var ErrInvalidBulkMode = errors.New("invalid bulk mode")

type (
	Source   string
	Status   string
	BulkMode string

	Ratings struct {
		Overall       core.Decimal `json:"overall_rating"`
		Communication core.Decimal `json:"communication_rating"`
		Technical     core.Decimal `json:"technical_rating"`
		Confidence    core.Decimal `json:"confidence_rating"`
	}

	// Record is a feedback entry as read from the backend.
	Record struct {
		ID              string
		StudentID       string
		StudentName     string
		CourseID        string
		CourseName      string
		AgentName       string
		DailyCallID     string
		Ratings         Ratings
		AverageRating   core.Decimal
		Text            string
		Strengths       string
		Improvements    string
		Recommendations string
		// CreatedAtRaw is the timestamp as sent; CreatedAt is zero when it is missing or unparseable.
		CreatedAtRaw string
		CreatedAt    time.Time
		UpdatedAt    string
	}

	Page struct {
		Limit  int
		Offset int
	}

	UserQuery struct {
		UserID   string
		CourseID string
		Page     Page
	}

	// List is one page of records.
	List struct {
		Records    []Record
		TotalCount int
		Limit      int
		Offset     int
	}

	// AggregationRequest is an admin's filter selection.
	AggregationRequest struct {
		StudentID string
		CourseID  string
	}

	Result struct {
		Records             []Record
		TotalCount          int
		Source              Source
		Status              Status
		StudentsChecked     int
		StudentsWithRecords int
		PairsProbed         int
		SkippedPairs        int
	}
)

type recordJSON struct {
	ID              core.FlexString `json:"id"`
	Student         core.FlexString `json:"student"`
	StudentID       core.FlexString `json:"student_id"`
	StudentName     string          `json:"student_name"`
	Course          core.FlexString `json:"course"`
	CourseID        core.FlexString `json:"course_id"`
	CourseName      string          `json:"course_name"`
	AgentName       string          `json:"agent_name"`
	DailyCall       core.FlexString `json:"daily_call"`
	AverageRating   *core.Decimal   `json:"average_rating"`
	FeedbackText    string          `json:"feedback_text"`
	Strengths       string          `json:"strengths"`
	Improvements    string          `json:"improvements"`
	Recommendations string          `json:"recommendations"`
	CreatedAt       string          `json:"created_at"`
	UpdatedAt       string          `json:"updated_at"`
	Ratings
}

func (r *Record) UnmarshalJSON(b []byte) error {
	var data recordJSON
	if err := json.Unmarshal(b, &data); err != nil {
		return errors.Wrap(err, "decoding feedback")
	}
	*r = Record{
		ID:              string(data.ID),
		StudentID:       string(data.Student),
		StudentName:     data.StudentName,
		CourseID:        string(data.Course),
		CourseName:      data.CourseName,
		AgentName:       data.AgentName,
		DailyCallID:     string(data.DailyCall),
		Ratings:         data.Ratings,
		Text:            data.FeedbackText,
		Strengths:       data.Strengths,
		Improvements:    data.Improvements,
		Recommendations: data.Recommendations,
		CreatedAtRaw:    data.CreatedAt,
		UpdatedAt:       data.UpdatedAt,
	}
	if r.StudentID == "" {
		r.StudentID = string(data.StudentID)
	}
	if r.CourseID == "" {
		r.CourseID = string(data.CourseID)
	}
	if data.AverageRating != nil {
		r.AverageRating = *data.AverageRating
	} else {
		r.AverageRating = r.Ratings.Average()
	}
	r.CreatedAt, _ = core.ParseTimestamp(data.CreatedAt)
	return nil
}

// Average is the mean of the four ratings.
func (r Ratings) Average() core.Decimal {
	return (r.Overall + r.Communication + r.Technical + r.Confidence) / 4
}

// HasTimestamp reports whether the creation time could be parsed.
func (r Record) HasTimestamp() bool { return !r.CreatedAt.IsZero() }

// normalize applies the default limit and caps it.
func (p Page) normalize(def int) Page {
	if p.Limit <= 0 {
		p.Limit = def
	}
	if p.Limit > MaxLimit {
		p.Limit = MaxLimit
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
	return p
}

func ParseBulkMode(s string) (BulkMode, error) {
	switch mode := BulkMode(core.CleanString(s, true /* lower */)); mode {
	case "":
		return BulkProbe, nil
	case BulkProbe, BulkTrusted, BulkDisabled:
		return mode, nil
	}
	return "", errors.Wrapf(ErrInvalidBulkMode, "%q", s)
}

// Rating bands
const (
	BandHigh   = "high"
	BandMedium = "medium"
	BandLow    = "low"
	BandNone   = "none"
)

// RatingBand classifies a 0..10 rating.
func RatingBand(r core.Decimal) string {
	switch {
	case r <= 0:
		return BandNone
	case r >= 8:
		return BandHigh
	case r >= 5:
		return BandMedium
	default:
		return BandLow
	}
}

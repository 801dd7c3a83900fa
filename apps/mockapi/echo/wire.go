package echoapi

import (
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
)

// JSON renderings, following the shapes of the production API.

func (s *server) userJSON(u *UserRow) echo.Map {
	m := echo.Map{
		"id":         u.ID,
		"email":      u.Email,
		"first_name": u.FirstName,
		"last_name":  u.LastName,
		"is_active":  u.IsActive,
	}
	if !s.opts.HideUserRole {
		m["role"] = u.Role
	}
	return m
}

// scores are serialized as decimal strings, eg. "70.0"
func decimal(f float64) string {
	return strconv.FormatFloat(f, 'f', 1, 64)
}

func courseJSON(c CourseRow) echo.Map {
	return echo.Map{
		"id":                  c.ID,
		"name":                c.Name,
		"description":         c.Description,
		"is_active":           c.IsActive,
		"passing_score":       decimal(c.PassingScore),
		"max_score":           decimal(c.MaxScore),
		"syllabus":            c.Syllabus,
		"instructions":        c.Instructions,
		"evaluation_criteria": c.EvaluationCriteria,
		"created_at":          c.CreatedAt.Format(time.RFC3339Nano),
		"updated_at":          c.UpdatedAt.Format(time.RFC3339Nano),
	}
}

func (s *server) studentJSON(st StudentRow) echo.Map {
	courses := make([]echo.Map, 0, len(st.CourseIDs))
	for _, id := range st.CourseIDs {
		if c, ok := s.db.Course(id); ok {
			courses = append(courses, echo.Map{"id": c.ID, "name": c.Name})
		}
	}
	var userID interface{}
	if st.UserID != "" {
		userID = st.UserID
	}
	var dob interface{}
	if st.DateOfBirth != "" {
		dob = st.DateOfBirth
	}
	return echo.Map{
		"id":            st.ID,
		"user_id":       userID,
		"first_name":    st.FirstName,
		"last_name":     st.LastName,
		"full_name":     st.fullName(),
		"email":         st.Email,
		"phone_number":  st.PhoneNumber,
		"gender":        st.Gender,
		"date_of_birth": dob,
		"courses":       courses,
		"created_at":    st.CreatedAt.Format(time.RFC3339Nano),
		"updated_at":    st.UpdatedAt.Format(time.RFC3339Nano),
	}
}

func (s *server) feedbackJSON(fb FeedbackRow) echo.Map {
	var studentName, courseName string
	if st, ok := s.db.Student(fb.StudentID); ok {
		studentName = st.fullName()
	}
	if c, ok := s.db.Course(fb.CourseID); ok {
		courseName = c.Name
	}
	avg := (fb.OverallRating + fb.CommunicationRating + fb.TechnicalRating + fb.ConfidenceRating) / 4
	var createdAt interface{}
	if fb.CreatedAt != "" {
		createdAt = fb.CreatedAt
	}
	return echo.Map{
		"id":                   fb.ID,
		"student":              fb.StudentID,
		"student_name":         studentName,
		"course":               fb.CourseID,
		"course_name":          courseName,
		"daily_call":           fb.DailyCallID,
		"agent":                nil,
		"agent_name":           fb.AgentName,
		"overall_rating":       fb.OverallRating,
		"communication_rating": fb.CommunicationRating,
		"technical_rating":     fb.TechnicalRating,
		"confidence_rating":    fb.ConfidenceRating,
		"average_rating":       avg,
		"feedback_text":        fb.FeedbackText,
		"strengths":            fb.Strengths,
		"improvements":         fb.Improvements,
		"recommendations":      fb.Recommendations,
		"created_at":           createdAt,
		"updated_at":           createdAt,
	}
}

func (s *server) feedbackListJSON(fbs []FeedbackRow) []echo.Map {
	list := make([]echo.Map, 0, len(fbs))
	for _, fb := range fbs {
		list = append(list, s.feedbackJSON(fb))
	}
	return list
}

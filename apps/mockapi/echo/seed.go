package echoapi

import (
	"time"

	"github.com/pkg/errors"
)

// Demo accounts created by SeedDemo.
const (
	DemoAdminEmail    = "admin@niva.ai"
	DemoAdminPassword = "admin123"
	DemoUserEmail     = "student@niva.ai"
	DemoUserPassword  = "student123"
)

// SeedDemo fills db with a small, consistent data set for local development.
func SeedDemo(db *DB) error {
	if _, err := db.CreateUser(DemoAdminEmail, DemoAdminPassword, RoleAdmin); err != nil {
		return errors.Wrap(err, "creating demo admin")
	}
	usr, err := db.CreateUser(DemoUserEmail, DemoUserPassword, RoleUser)
	if err != nil {
		return errors.Wrap(err, "creating demo user")
	}

	golang := db.SaveCourse(CourseRow{
		Name:         "Go Backend Interview",
		Description:  "Concurrency, interfaces and the standard library.",
		IsActive:     true,
		PassingScore: 70,
		MaxScore:     100,
		Syllabus:     "Goroutines, channels, context, net/http",
	})
	sysDesign := db.SaveCourse(CourseRow{
		Name:         "System Design",
		Description:  "Designing scalable services.",
		IsActive:     true,
		PassingScore: 60,
		MaxScore:     100,
	})

	alice, err := db.SaveStudent(StudentRow{
		UserID:      usr.ID,
		FirstName:   "Alice",
		LastName:    "Mbuyi",
		Email:       DemoUserEmail,
		PhoneNumber: "+243 810 000 000",
		Gender:      "FEMALE",
		CourseIDs:   []string{golang.ID, sysDesign.ID},
	})
	if err != nil {
		return errors.Wrap(err, "creating demo student")
	}
	if _, err := db.SaveStudent(StudentRow{
		FirstName:   "Bob",
		LastName:    "Kasongo",
		PhoneNumber: "+243 820 000 000",
		Gender:      "MALE",
		CourseIDs:   []string{golang.ID},
	}); err != nil {
		return errors.Wrap(err, "creating demo student")
	}

	now := time.Now().UTC()
	db.AddFeedback(FeedbackRow{
		StudentID:           alice.ID,
		CourseID:            golang.ID,
		AgentName:           defaultAgentName,
		OverallRating:       8,
		CommunicationRating: 7,
		TechnicalRating:     9,
		ConfidenceRating:    7,
		FeedbackText:        "Solid grasp of goroutines and channels.",
		Strengths:           "Concurrency patterns",
		Improvements:        "Explain trade-offs out loud",
		Recommendations:     "Practice system design questions",
		CreatedAt:           now.Add(-48 * time.Hour).Format(time.RFC3339Nano),
	})
	db.AddFeedback(FeedbackRow{
		StudentID:           alice.ID,
		CourseID:            sysDesign.ID,
		AgentName:           defaultAgentName,
		OverallRating:       5,
		CommunicationRating: 6,
		TechnicalRating:     4,
		ConfidenceRating:    5,
		FeedbackText:        "Good start, but the storage layer was hand-waved.",
		CreatedAt:           now.Add(-2 * time.Hour).Format(time.RFC3339Nano),
	})
	return nil
}

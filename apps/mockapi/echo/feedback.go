package echoapi

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
)

const (
	defaultFeedbackLimit = 10
	maxFeedbackLimit     = 100
)

type feedbackApi struct {
	srv *server
}

func registerFeedbackAPI(g *echo.Group, auth echo.MiddlewareFunc, srv *server) {
	api := feedbackApi{srv: srv}

	fg := g.Group("/feedback", auth)
	fg.GET("/get", api.retrieve)
	fg.GET("/student", api.queryByStudent)
	fg.GET("/user", api.queryByUser)
}

type page struct {
	limit, offset int
}

func bindPage(ctx echo.Context) (page, error) {
	p := page{limit: defaultFeedbackLimit}
	if v := ctx.QueryParam("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return p, badRequest("Invalid limit")
		}
		p.limit = n
	}
	if p.limit > maxFeedbackLimit {
		p.limit = maxFeedbackLimit
	}
	if v := ctx.QueryParam("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return p, badRequest("Invalid offset")
		}
		p.offset = n
	}
	return p, nil
}

func (p page) apply(fbs []FeedbackRow) []FeedbackRow {
	if p.offset >= len(fbs) {
		return nil
	}
	fbs = fbs[p.offset:]
	if len(fbs) > p.limit {
		fbs = fbs[:p.limit]
	}
	return fbs
}

func (api *feedbackApi) retrieve(ctx echo.Context) error {
	id := ctx.QueryParam("feedback_id")
	if id == "" {
		return badRequest("feedback_id is required")
	}
	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}
	fb, ok := api.srv.db.Feedback(id)
	if !ok {
		return errFeedbackNotFound
	}
	if !claims.IsAdmin {
		st, ok := api.srv.db.Student(fb.StudentID)
		if !ok || st.UserID != claims.Subject {
			return errHttpForbidden
		}
	}
	return ctx.JSON(http.StatusOK, echo.Map{"feedback": api.srv.feedbackJSON(fb)})
}

func (api *feedbackApi) queryByStudent(ctx echo.Context) error {
	studentID, courseID := ctx.QueryParam("student_id"), ctx.QueryParam("course_id")
	if studentID == "" || courseID == "" {
		return badRequest("student_id and course_id are required")
	}
	p, err := bindPage(ctx)
	if err != nil {
		return err
	}
	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}

	st, ok := api.srv.db.Student(studentID)
	if !ok {
		return errStudentNotFound
	}
	if !claims.IsAdmin && st.UserID != claims.Subject {
		return errHttpForbidden
	}
	if _, ok := api.srv.db.Course(courseID); !ok {
		return errCourseNotFound
	}
	if !st.enrolledIn(courseID) {
		return errNotEnrolled
	}

	fbs := api.srv.db.Feedbacks(func(fb *FeedbackRow) bool {
		return fb.StudentID == studentID && fb.CourseID == courseID
	})
	if len(fbs) == 0 {
		return errNoFeedback
	}
	return ctx.JSON(http.StatusOK, echo.Map{
		"feedbacks":   api.srv.feedbackListJSON(p.apply(fbs)),
		"total_count": len(fbs),
		"limit":       p.limit,
		"offset":      p.offset,
	})
}

func (api *feedbackApi) queryByUser(ctx echo.Context) error {
	userID, courseID := ctx.QueryParam("user_id"), ctx.QueryParam("course_id")
	p, err := bindPage(ctx)
	if err != nil {
		return err
	}
	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}

	var fbs []FeedbackRow
	switch {
	case userID == "" && !claims.IsAdmin:
		userID = claims.Subject
		fallthrough
	case userID != "":
		if !claims.IsAdmin && userID != claims.Subject {
			return errHttpForbidden
		}
		st, ok := api.srv.db.StudentByUser(userID)
		if !ok {
			return errNoStudentProfile
		}
		fbs = api.srv.db.Feedbacks(func(fb *FeedbackRow) bool {
			return fb.StudentID == st.ID && (courseID == "" || fb.CourseID == courseID)
		})
		if len(fbs) == 0 {
			return errNoFeedback
		}
	case api.srv.opts.BulkFeedback:
		fbs = api.srv.db.Feedbacks(func(fb *FeedbackRow) bool {
			return courseID == "" || fb.CourseID == courseID
		})
	}

	return ctx.JSON(http.StatusOK, echo.Map{
		"success": true,
		"message": "Feedbacks retrieved successfully",
		"data": echo.Map{
			"feedbacks":   api.srv.feedbackListJSON(p.apply(fbs)),
			"total_count": len(fbs),
			"limit":       p.limit,
			"offset":      p.offset,
		},
	})
}

package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

type courseApi struct {
	srv *server
}

func registerCourseAPI(g *echo.Group, auth echo.MiddlewareFunc, srv *server) {
	api := courseApi{srv: srv}

	cg := g.Group("/course", auth)
	cg.GET("/list", api.list)
	cg.POST("/get", api.retrieve)
	cg.POST("/all", api.query)
	cg.POST("/create", api.create, adminMiddleware)
	cg.POST("/update", api.update, adminMiddleware)
	cg.POST("/delete", api.destroy, adminMiddleware)
}

type (
	courseIDRequest struct {
		CourseID string `json:"course_id" validate:"required"`
	}

	courseQueryRequest struct {
		IsActive *bool `json:"is_active"`
	}

	courseRequest struct {
		CourseID           string   `json:"course_id"`
		Name               *string  `json:"name"`
		Description        *string  `json:"description"`
		IsActive           *bool    `json:"is_active"`
		PassingScore       *float64 `json:"passing_score"`
		MaxScore           *float64 `json:"max_score"`
		Syllabus           *string  `json:"syllabus"`
		Instructions       *string  `json:"instructions"`
		EvaluationCriteria *string  `json:"evaluation_criteria"`
	}
)

// apply sets the fields present in the request.
func (r courseRequest) apply(c *CourseRow) {
	if r.Name != nil {
		c.Name = *r.Name
	}
	if r.Description != nil {
		c.Description = *r.Description
	}
	if r.IsActive != nil {
		c.IsActive = *r.IsActive
	}
	if r.PassingScore != nil {
		c.PassingScore = *r.PassingScore
	}
	if r.MaxScore != nil {
		c.MaxScore = *r.MaxScore
	}
	if r.Syllabus != nil {
		c.Syllabus = *r.Syllabus
	}
	if r.Instructions != nil {
		c.Instructions = *r.Instructions
	}
	if r.EvaluationCriteria != nil {
		c.EvaluationCriteria = *r.EvaluationCriteria
	}
}

func validateCourse(c CourseRow) error {
	switch {
	case c.Name == "":
		return badRequest("Course name is required")
	case c.Description == "":
		return badRequest("Course description is required")
	case c.PassingScore < 0 || c.PassingScore > 100, c.MaxScore < 0 || c.MaxScore > 100:
		return badRequest("Scores must be between 0 and 100")
	case c.PassingScore >= c.MaxScore:
		return badRequest("Passing score must be less than max score")
	}
	return nil
}

func (api *courseApi) list(ctx echo.Context) error {
	courses := api.srv.db.Courses(nil)
	list := make([]echo.Map, 0, len(courses))
	for _, c := range courses {
		list = append(list, echo.Map{"id": c.ID, "name": c.Name})
	}
	return ctx.JSON(http.StatusOK, echo.Map{"success": true, "data": echo.Map{"courses": list}})
}

func (api *courseApi) retrieve(ctx echo.Context) error {
	var data courseIDRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to courseIDRequest")
	}
	if err := api.srv.validate.Struct(data); err != nil {
		return err
	}
	c, ok := api.srv.db.Course(data.CourseID)
	if !ok {
		return errCourseNotFound
	}
	return ctx.JSON(http.StatusOK, echo.Map{"success": true, "data": echo.Map{"course": courseJSON(*c)}})
}

func (api *courseApi) query(ctx echo.Context) error {
	var data courseQueryRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to courseQueryRequest")
	}
	courses := api.srv.db.Courses(data.IsActive)
	list := make([]echo.Map, 0, len(courses))
	for _, c := range courses {
		list = append(list, courseJSON(c))
	}
	return ctx.JSON(http.StatusOK, echo.Map{"success": true, "data": echo.Map{"courses": list}})
}

func (api *courseApi) create(ctx echo.Context) error {
	var data courseRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to courseRequest")
	}
	c := CourseRow{IsActive: true, PassingScore: 70, MaxScore: 100}
	data.apply(&c)
	if err := validateCourse(c); err != nil {
		return err
	}
	saved := api.srv.db.SaveCourse(c)
	return ctx.JSON(http.StatusCreated, echo.Map{
		"success": true,
		"message": "Course created successfully",
		"data":    echo.Map{"course": courseJSON(*saved)},
	})
}

func (api *courseApi) update(ctx echo.Context) error {
	var data courseRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to courseRequest")
	}
	if data.CourseID == "" {
		return badRequest("course_id is required")
	}
	orig, ok := api.srv.db.Course(data.CourseID)
	if !ok {
		return errCourseNotFound
	}
	c := *orig
	data.apply(&c)
	if err := validateCourse(c); err != nil {
		return err
	}
	saved := api.srv.db.SaveCourse(c)
	return ctx.JSON(http.StatusOK, echo.Map{
		"success": true,
		"message": "Course updated successfully",
		"data":    echo.Map{"course": courseJSON(*saved)},
	})
}

func (api *courseApi) destroy(ctx echo.Context) error {
	var data courseIDRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to courseIDRequest")
	}
	if err := api.srv.validate.Struct(data); err != nil {
		return err
	}
	if !api.srv.db.DeleteCourse(data.CourseID) {
		return errCourseNotFound
	}
	return ctx.JSON(http.StatusOK, echo.Map{"success": true, "message": "Course deleted successfully"})
}

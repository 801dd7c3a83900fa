package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

type studentApi struct {
	srv *server
}

func registerStudentAPI(g *echo.Group, auth echo.MiddlewareFunc, srv *server) {
	api := studentApi{srv: srv}

	sg := g.Group("/student", auth)
	sg.POST("/create", api.create)
	sg.POST("/get", api.retrieve)
	sg.POST("/update", api.update)
	sg.POST("/associate-user", api.associateUser)
	sg.POST("/get-by-user", api.retrieveByUser)
	sg.GET("/list", api.list, adminMiddleware)
	sg.POST("/all", api.query, adminMiddleware)
	sg.POST("/delete", api.destroy, adminMiddleware)
}

type (
	studentIDRequest struct {
		StudentID string `json:"student_id" validate:"required"`
	}

	userIDRequest struct {
		UserID string `json:"user_id" validate:"required"`
	}

	associateUserRequest struct {
		UserID    string `json:"user_id" validate:"required"`
		StudentID string `json:"student_id" validate:"required"`
	}

	studentRequest struct {
		StudentID   string    `json:"student_id"`
		FirstName   *string   `json:"first_name"`
		LastName    *string   `json:"last_name"`
		PhoneNumber *string   `json:"phone_number"`
		Email       *string   `json:"email"`
		Gender      *string   `json:"gender"`
		DateOfBirth *string   `json:"date_of_birth"`
		CourseIDs   *[]string `json:"course_ids"`
	}
)

func (r studentRequest) apply(s *StudentRow) {
	if r.FirstName != nil {
		s.FirstName = *r.FirstName
	}
	if r.LastName != nil {
		s.LastName = *r.LastName
	}
	if r.PhoneNumber != nil {
		s.PhoneNumber = *r.PhoneNumber
	}
	if r.Email != nil {
		s.Email = *r.Email
	}
	if r.Gender != nil {
		s.Gender = *r.Gender
	}
	if r.DateOfBirth != nil {
		s.DateOfBirth = *r.DateOfBirth
	}
	if r.CourseIDs != nil {
		s.CourseIDs = append([]string(nil), (*r.CourseIDs)...)
	}
}

func validateStudent(s StudentRow) error {
	switch {
	case s.FirstName == "":
		return badRequest("first_name is required")
	case s.PhoneNumber == "":
		return badRequest("phone_number is required")
	}
	switch s.Gender {
	case "MALE", "FEMALE", "RATHER_NOT_SAY", "UNKNOWN":
	default:
		return badRequest("Invalid gender: " + s.Gender)
	}
	return nil
}

// canAccess reports whether the authenticated user may read or modify st.
func canAccess(claims Claims, st *StudentRow) bool {
	return claims.IsAdmin || st.UserID == "" || st.UserID == claims.Subject
}

func (api *studentApi) create(ctx echo.Context) error {
	var data studentRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to studentRequest")
	}
	st := StudentRow{Gender: "UNKNOWN"}
	data.apply(&st)
	if err := validateStudent(st); err != nil {
		return err
	}
	saved, err := api.srv.db.SaveStudent(st)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, echo.Map{
		"message": "Student created successfully",
		"student": api.srv.studentJSON(*saved),
	})
}

func (api *studentApi) retrieve(ctx echo.Context) error {
	var data studentIDRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to studentIDRequest")
	}
	if err := api.srv.validate.Struct(data); err != nil {
		return err
	}
	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}
	st, ok := api.srv.db.Student(data.StudentID)
	if !ok {
		return errStudentNotFound
	}
	if !canAccess(claims, st) {
		return errHttpForbidden
	}
	return ctx.JSON(http.StatusOK, echo.Map{"student": api.srv.studentJSON(*st)})
}

func (api *studentApi) update(ctx echo.Context) error {
	var data studentRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to studentRequest")
	}
	if data.StudentID == "" {
		return badRequest("student_id is required")
	}
	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}
	orig, ok := api.srv.db.Student(data.StudentID)
	if !ok {
		return errStudentNotFound
	}
	if !canAccess(claims, orig) {
		return errHttpForbidden
	}
	st := *orig
	data.apply(&st)
	if err := validateStudent(st); err != nil {
		return err
	}
	saved, err := api.srv.db.SaveStudent(st)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, echo.Map{
		"message": "Student updated successfully",
		"student": api.srv.studentJSON(*saved),
	})
}

func (api *studentApi) associateUser(ctx echo.Context) error {
	var data associateUserRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to associateUserRequest")
	}
	if err := api.srv.validate.Struct(data); err != nil {
		return err
	}
	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}
	if !claims.IsAdmin && data.UserID != claims.Subject {
		return errHttpForbidden
	}
	if _, ok := api.srv.db.User(data.UserID); !ok {
		return newAPIError(http.StatusNotFound, "User not found")
	}
	st, err := api.srv.db.AssociateUser(data.StudentID, data.UserID)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, echo.Map{
		"message": "User associated with student successfully",
		"student": api.srv.studentJSON(*st),
	})
}

func (api *studentApi) retrieveByUser(ctx echo.Context) error {
	var data userIDRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to userIDRequest")
	}
	if err := api.srv.validate.Struct(data); err != nil {
		return err
	}
	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}
	if !claims.IsAdmin && data.UserID != claims.Subject {
		return errHttpForbidden
	}
	st, ok := api.srv.db.StudentByUser(data.UserID)
	if !ok {
		return errNoStudentProfile
	}
	return ctx.JSON(http.StatusOK, echo.Map{"student": api.srv.studentJSON(*st)})
}

func (api *studentApi) list(ctx echo.Context) error {
	students := api.srv.db.Students(studentFilter{})
	list := make([]echo.Map, 0, len(students))
	for _, st := range students {
		list = append(list, echo.Map{
			"id":         st.ID,
			"first_name": st.FirstName,
			"last_name":  st.LastName,
			"full_name":  st.fullName(),
		})
	}
	return ctx.JSON(http.StatusOK, echo.Map{"students": list})
}

func (api *studentApi) query(ctx echo.Context) error {
	var data studentFilter
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to studentFilter")
	}
	students := api.srv.db.Students(data)
	list := make([]echo.Map, 0, len(students))
	for _, st := range students {
		list = append(list, api.srv.studentJSON(st))
	}
	return ctx.JSON(http.StatusOK, echo.Map{"students": list, "count": len(list)})
}

func (api *studentApi) destroy(ctx echo.Context) error {
	var data studentIDRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to studentIDRequest")
	}
	if err := api.srv.validate.Struct(data); err != nil {
		return err
	}
	if !api.srv.db.DeleteStudent(data.StudentID) {
		return errStudentNotFound
	}
	return ctx.JSON(http.StatusOK, echo.Map{"message": "Student deleted successfully"})
}

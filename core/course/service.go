package course

import (
	"context"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/trezcool/niva/apiclient"
)

var (
	// errors
	ErrIDRequired = errors.New("course id is required")
	ErrNoCourse   = errors.New("no course in response")
)

type Service struct {
	api      *apiclient.Client
	validate *validator.Validate
}

func NewService(api *apiclient.Client, validate *validator.Validate) *Service {
	return &Service{api: api, validate: validate}
}

// Result is a course along with the backend's message.
type Result struct {
	Message string
	Course  Course
}

func decodeCourse(env *apiclient.Envelope, defaultMsg string) (Result, error) {
	var c Course
	if err := env.Decode("course", &c); err != nil {
		return Result{}, errors.Wrap(ErrNoCourse, err.Error())
	}
	return Result{Message: env.MessageOr(defaultMsg), Course: c}, nil
}

func decodeCourses(env *apiclient.Envelope) ([]Course, error) {
	courses := make([]Course, 0)
	if env.Has("courses") {
		if err := env.Decode("courses", &courses); err != nil {
			return nil, err
		}
	}
	return courses, nil
}

func (svc *Service) Create(ctx context.Context, nc NewCourse) (Result, error) {
	if err := svc.validate.Struct(nc); err != nil {
		return Result{}, ValidationError(err)
	}
	env, err := svc.api.Post(ctx, "/course/create/", nc)
	if err != nil {
		return Result{}, errors.Wrap(err, "creating course")
	}
	return decodeCourse(env, "Course created successfully")
}

func (svc *Service) Get(ctx context.Context, id string) (Course, error) {
	if id == "" {
		return Course{}, ErrIDRequired
	}
	env, err := svc.api.Post(ctx, "/course/get/", map[string]string{"course_id": id})
	if err != nil {
		return Course{}, errors.Wrap(err, "getting course")
	}
	res, err := decodeCourse(env, "")
	return res.Course, err
}

// All returns the full course records, optionally filtered on their active status.
func (svc *Service) All(ctx context.Context, isActive *bool) ([]Course, error) {
	body := make(map[string]interface{})
	if isActive != nil {
		body["is_active"] = *isActive
	}
	env, err := svc.api.Post(ctx, "/course/all/", body)
	if err != nil {
		return nil, errors.Wrap(err, "querying courses")
	}
	return decodeCourses(env)
}

// List returns every course with its id and name only.
func (svc *Service) List(ctx context.Context) ([]Course, error) {
	env, err := svc.api.Get(ctx, "/course/list/", nil)
	if err != nil {
		return nil, errors.Wrap(err, "listing courses")
	}
	return decodeCourses(env)
}

func (svc *Service) Update(ctx context.Context, id string, uc UpdateCourse) (Result, error) {
	if id == "" {
		return Result{}, ErrIDRequired
	}
	if err := svc.validate.Struct(uc); err != nil {
		return Result{}, ValidationError(err)
	}
	body := struct {
		CourseID string `json:"course_id"`
		UpdateCourse
	}{id, uc}
	env, err := svc.api.Post(ctx, "/course/update/", body)
	if err != nil {
		return Result{}, errors.Wrap(err, "updating course")
	}
	return decodeCourse(env, "Course updated successfully")
}

func (svc *Service) Delete(ctx context.Context, id string) (string, error) {
	if id == "" {
		return "", ErrIDRequired
	}
	env, err := svc.api.Post(ctx, "/course/delete/", map[string]string{"course_id": id})
	if err != nil {
		return "", errors.Wrap(err, "deleting course")
	}
	return env.MessageOr("Course deleted successfully"), nil
}

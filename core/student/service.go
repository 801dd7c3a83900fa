package student

import (
	"context"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/trezcool/niva/apiclient"
	"github.com/trezcool/niva/core"
	"github.com/trezcool/niva/core/session"
)

var (
	// errors
	ErrIDRequired     = errors.New("student id is required")
	ErrUserIDRequired = errors.New("user id is required")
	ErrNoUserID       = errors.New("user id not found, please log in again")
	ErrNoStudent      = errors.New("no student in response")
)

type Service struct {
	api      *apiclient.Client
	sess     *session.Manager
	validate *validator.Validate
	logger   core.Logger
}

func NewService(api *apiclient.Client, sess *session.Manager, validate *validator.Validate, logger core.Logger) *Service {
	return &Service{api: api, sess: sess, validate: validate, logger: logger}
}

// decodeStudent accepts `student`, `data.student` and bare student bodies.
func decodeStudent(env *apiclient.Envelope) (Student, error) {
	var st Student
	if err := env.DecodeFirst(&st, "student"); err != nil {
		return Student{}, errors.Wrap(err, "decoding student")
	}
	if st.ID == "" {
		return Student{}, ErrNoStudent
	}
	return st, nil
}

func (svc *Service) Create(ctx context.Context, ns NewStudent) (Student, error) {
	ns.clean()
	if err := svc.validate.Struct(ns); err != nil {
		return Student{}, err
	}
	env, err := svc.api.Post(ctx, "/student/create/", ns)
	if err != nil {
		return Student{}, errors.Wrap(err, "creating student")
	}
	return decodeStudent(env)
}

func (svc *Service) Get(ctx context.Context, id string) (Student, error) {
	if id == "" {
		return Student{}, ErrIDRequired
	}
	env, err := svc.api.Post(ctx, "/student/get/", map[string]string{"student_id": id})
	if err != nil {
		return Student{}, errors.Wrap(err, "getting student")
	}
	return decodeStudent(env)
}

// All returns the full student records, including their user ids and courses.
func (svc *Service) All(ctx context.Context, filter Filter) ([]Student, error) {
	env, err := svc.api.Post(ctx, "/student/all/", filter)
	if err != nil {
		return nil, errors.Wrap(err, "querying students")
	}
	students := make([]Student, 0)
	if env.Has("students") {
		if err := env.Decode("students", &students); err != nil {
			return nil, err
		}
	}
	return students, nil
}

func (svc *Service) List(ctx context.Context) ([]Summary, error) {
	env, err := svc.api.Get(ctx, "/student/list/", nil)
	if err != nil {
		return nil, errors.Wrap(err, "listing students")
	}
	students := make([]Summary, 0)
	if env.Has("students") {
		if err := env.Decode("students", &students); err != nil {
			return nil, err
		}
	}
	return students, nil
}

func (svc *Service) Update(ctx context.Context, id string, us UpdateStudent) (Student, error) {
	if id == "" {
		return Student{}, ErrIDRequired
	}
	if err := svc.validate.Struct(us); err != nil {
		return Student{}, err
	}
	body := struct {
		StudentID string `json:"student_id"`
		UpdateStudent
	}{id, us}
	env, err := svc.api.Post(ctx, "/student/update/", body)
	if err != nil {
		return Student{}, errors.Wrap(err, "updating student")
	}
	return decodeStudent(env)
}

func (svc *Service) Delete(ctx context.Context, id string) (string, error) {
	if id == "" {
		return "", ErrIDRequired
	}
	env, err := svc.api.Post(ctx, "/student/delete/", map[string]string{"student_id": id})
	if err != nil {
		return "", errors.Wrap(err, "deleting student")
	}
	return env.MessageOr("Student deleted successfully"), nil
}

func (svc *Service) AssociateUser(ctx context.Context, userID, studentID string) (Student, error) {
	if userID == "" {
		return Student{}, ErrUserIDRequired
	}
	if studentID == "" {
		return Student{}, ErrIDRequired
	}
	env, err := svc.api.Post(ctx, "/student/associate-user/", map[string]string{"user_id": userID, "student_id": studentID})
	if err != nil {
		return Student{}, errors.Wrap(err, "associating user")
	}
	return decodeStudent(env)
}

func (svc *Service) GetByUser(ctx context.Context, userID string) (Student, error) {
	if userID == "" {
		return Student{}, ErrUserIDRequired
	}
	env, err := svc.api.Post(ctx, "/student/get-by-user/", map[string]string{"user_id": userID})
	if err != nil {
		return Student{}, errors.Wrap(err, "getting student by user")
	}
	return decodeStudent(env)
}

// IDByUser returns the id of the student linked to the user.
func (svc *Service) IDByUser(ctx context.Context, userID string) (string, error) {
	st, err := svc.GetByUser(ctx, userID)
	if err != nil {
		return "", err
	}
	return string(st.ID), nil
}

// Profile returns the logged in user's student profile, and caches its id.
func (svc *Service) Profile(ctx context.Context) (Student, error) {
	userID, err := svc.sess.UserID(ctx)
	if err != nil {
		return Student{}, err
	}
	if userID == "" {
		return Student{}, ErrNoUserID
	}
	st, err := svc.GetByUser(ctx, userID)
	if err != nil {
		return Student{}, err
	}
	if err := svc.sess.SetStudentID(ctx, string(st.ID)); err != nil {
		return st, err
	}
	return st, nil
}

type ProfileResult struct {
	Student Student
	Created bool
	// Warning is set when the profile was created but could not be linked to the user.
	Warning error
}

// SaveProfile creates or updates the logged in user's student profile.
// A new profile is linked to the user and its id stored in the session; a failed link is only a warning.
func (svc *Service) SaveProfile(ctx context.Context, ns NewStudent) (ProfileResult, error) {
	ns.clean()
	if err := svc.validate.Struct(ns); err != nil {
		return ProfileResult{}, err
	}

	userID, err := svc.sess.UserID(ctx)
	if err != nil {
		return ProfileResult{}, err
	}
	if userID == "" {
		return ProfileResult{}, ErrNoUserID
	}

	studentID, err := svc.sess.StudentID(ctx)
	if err != nil {
		return ProfileResult{}, err
	}
	if studentID == "" {
		if studentID, err = svc.IDByUser(ctx, userID); err != nil && !apiclient.IsNoProfile(err) {
			return ProfileResult{}, err
		}
	}

	if studentID != "" {
		st, err := svc.Update(ctx, studentID, ns.AsUpdate())
		if err != nil {
			return ProfileResult{}, err
		}
		return ProfileResult{Student: st}, svc.sess.SetStudentID(ctx, studentID)
	}

	st, err := svc.Create(ctx, ns)
	if err != nil {
		return ProfileResult{}, err
	}
	res := ProfileResult{Student: st, Created: true}
	if _, err := svc.AssociateUser(ctx, userID, string(st.ID)); err != nil {
		svc.logger.Warn("student: associating user failed", err)
		res.Warning = errors.Wrap(err, "student profile created but user association may have failed")
	}
	return res, svc.sess.SetStudentID(ctx, string(st.ID))
}

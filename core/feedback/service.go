package feedback

import (
	"context"
	"net/url"
	"strconv"

	"github.com/pkg/errors"

	"github.com/trezcool/niva/apiclient"
)

var (
	// errors
	ErrIDRequired        = errors.New("feedback id is required")
	ErrStudentIDRequired = errors.New("student id and course id are required")
	ErrNoFeedback        = errors.New("no feedback in response")
)

type Service struct {
	api *apiclient.Client
}

func NewService(api *apiclient.Client) *Service {
	return &Service{api: api}
}

type listJSON struct {
	Feedbacks  []Record `json:"feedbacks"`
	TotalCount int      `json:"total_count"`
	Limit      int      `json:"limit"`
	Offset     int      `json:"offset"`
}

// decodeList reads top-level and data-nested list bodies alike.
func decodeList(env *apiclient.Envelope, p Page) (List, error) {
	var data listJSON
	if env.Has("feedbacks") {
		if err := env.Decode("feedbacks", &data.Feedbacks); err != nil {
			return List{}, err
		}
		_ = env.Decode("total_count", &data.TotalCount)
		_ = env.Decode("limit", &data.Limit)
		_ = env.Decode("offset", &data.Offset)
	}
	list := List{Records: data.Feedbacks, TotalCount: data.TotalCount, Limit: data.Limit, Offset: data.Offset}
	if list.Records == nil {
		list.Records = make([]Record, 0)
	}
	if list.TotalCount < len(list.Records) {
		list.TotalCount = len(list.Records)
	}
	if list.Limit == 0 {
		list.Limit, list.Offset = p.Limit, p.Offset
	}
	return list, nil
}

func pageQuery(p Page) url.Values {
	q := url.Values{}
	q.Set("limit", strconv.Itoa(p.Limit))
	q.Set("offset", strconv.Itoa(p.Offset))
	return q
}

func (svc *Service) Get(ctx context.Context, id string) (Record, error) {
	if id == "" {
		return Record{}, ErrIDRequired
	}
	env, err := svc.api.Get(ctx, "/feedback/get/", url.Values{"feedback_id": {id}})
	if err != nil {
		return Record{}, errors.Wrap(err, "getting feedback")
	}
	var rec Record
	if err := env.DecodeFirst(&rec, "feedback"); err != nil {
		return Record{}, err
	}
	if rec.ID == "" {
		return Record{}, ErrNoFeedback
	}
	return rec, nil
}

// ByStudent lists the feedback of a student for one course.
func (svc *Service) ByStudent(ctx context.Context, studentID, courseID string, p Page) (List, error) {
	if studentID == "" || courseID == "" {
		return List{}, ErrStudentIDRequired
	}
	p = p.normalize(DefaultLimit)
	q := pageQuery(p)
	q.Set("student_id", studentID)
	q.Set("course_id", courseID)
	env, err := svc.api.Get(ctx, "/feedback/student/", q)
	if err != nil {
		return List{}, errors.Wrap(err, "listing student feedback")
	}
	return decodeList(env, p)
}

// ByUser lists the feedback of the user's student profile.
// Without a user id the backend scopes the query to the caller, or to everybody for admins when it supports it.
func (svc *Service) ByUser(ctx context.Context, uq UserQuery) (List, error) {
	p := uq.Page.normalize(DefaultLimit)
	q := pageQuery(p)
	if uq.UserID != "" {
		q.Set("user_id", uq.UserID)
	}
	if uq.CourseID != "" {
		q.Set("course_id", uq.CourseID)
	}
	env, err := svc.api.Get(ctx, "/feedback/user/", q)
	if err != nil {
		return List{}, errors.Wrap(err, "listing user feedback")
	}
	return decodeList(env, p)
}

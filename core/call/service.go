package call

import (
	"context"
	"encoding/json"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/trezcool/niva/apiclient"
	"github.com/trezcool/niva/core"
	"github.com/trezcool/niva/core/session"
)

var (
	// errors
	ErrNoRoom = errors.New("no room url in response")
)

type (
	InitiateRequest struct {
		CourseID  string `json:"course_id" validate:"required"`
		StudentID string `json:"student_id,omitempty"` // defaults to the session's student
		AgentID   string `json:"agent_id,omitempty"`
	}

	// Session is an interview room the student can join.
	Session struct {
		Message     string
		RoomURL     string
		Token       string
		DailyCallID string
		SIPEndpoint string
		CourseName  string
		AgentName   string
		AgentResult json.RawMessage
	}
)

type Service struct {
	api      *apiclient.Client
	sess     *session.Manager
	validate *validator.Validate
}

func NewService(api *apiclient.Client, sess *session.Manager, validate *validator.Validate) *Service {
	return &Service{api: api, sess: sess, validate: validate}
}

// Initiate starts an interview for the course. The room fields are read from `data` or from the top level.
func (svc *Service) Initiate(ctx context.Context, req InitiateRequest) (Session, error) {
	req.CourseID = core.CleanString(req.CourseID)
	req.AgentID = core.CleanString(req.AgentID)
	if req.StudentID = core.CleanString(req.StudentID); req.StudentID == "" {
		studentID, err := svc.sess.StudentID(ctx)
		if err != nil {
			return Session{}, errors.Wrap(err, "reading student id")
		}
		req.StudentID = studentID
	}
	if err := svc.validate.Struct(req); err != nil {
		return Session{}, err
	}

	env, err := svc.api.Post(ctx, "/initiate/entrypoint/", req)
	if err != nil {
		return Session{}, errors.Wrap(err, "initiating call")
	}

	var callID core.FlexString
	_ = env.Decode("daily_call_id", &callID)
	cs := Session{
		Message:     env.Message(),
		RoomURL:     env.Text("room_url"),
		Token:       env.Text("token"),
		DailyCallID: string(callID),
		SIPEndpoint: env.Text("sip_endpoint"),
		CourseName:  env.Text("course_name"),
		AgentName:   env.Text("agent_name"),
	}
	cs.AgentResult, _ = env.Field("agent_result")
	if cs.RoomURL == "" {
		return cs, ErrNoRoom
	}
	return cs, nil
}

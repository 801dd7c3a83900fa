package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

const defaultAgentName = "Niva Interviewer"

type callApi struct {
	srv *server
}

func registerCallAPI(g *echo.Group, auth echo.MiddlewareFunc, srv *server) {
	api := callApi{srv: srv}

	g.POST("/initiate/entrypoint", api.initiate, auth)
}

type initiateRequest struct {
	CourseID  string `json:"course_id"`
	StudentID string `json:"student_id"`
	AgentID   string `json:"agent_id"`
}

func (api *callApi) initiate(ctx echo.Context) error {
	var data initiateRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to initiateRequest")
	}
	if data.CourseID == "" {
		return ctx.JSON(http.StatusOK, echo.Map{"success": false, "message": "course_id is required"})
	}
	c, ok := api.srv.db.Course(data.CourseID)
	if !ok || !c.IsActive {
		return ctx.JSON(http.StatusOK, echo.Map{"success": false, "message": "Course not found or inactive"})
	}

	if data.StudentID != "" {
		if _, ok := api.srv.db.Student(data.StudentID); !ok {
			return ctx.JSON(http.StatusOK, echo.Map{"success": false, "message": "Student not found"})
		}
	}

	callID := newID()
	agentResult := echo.Map{"status": "dispatched"}
	if data.StudentID != "" {
		agentResult["student_id"] = data.StudentID
	}
	if data.AgentID != "" {
		agentResult["agent_id"] = data.AgentID
	}
	return ctx.JSON(http.StatusOK, echo.Map{
		"success": true,
		"message": "Call initiated successfully",
		"data": echo.Map{
			"sip_endpoint":  "sip:" + callID + "@sip.daily.co",
			"daily_call_id": callID,
			"agent_result":  agentResult,
			"room_url":      "https://niva.daily.co/" + callID,
			"token":         newID(),
			"course_name":   c.Name,
			"agent_name":    defaultAgentName,
		},
	})
}

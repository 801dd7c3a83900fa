package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/trezcool/niva/core"
)

var (
	errUnauthorized  = echo.NewHTTPError(http.StatusUnauthorized, "Authentication credentials were not provided.")
	errHttpForbidden = echo.NewHTTPError(http.StatusForbidden, "permission denied")

	errCourseNotFound   = newAPIError(http.StatusNotFound, "Course not found")
	errStudentNotFound  = newAPIError(http.StatusNotFound, "Student not found")
	errFeedbackNotFound = newAPIError(http.StatusNotFound, "Feedback not found")
	errMemoryNotFound   = newAPIError(http.StatusNotFound, "Memory not found")
	errNoFeedback       = newAPIError(http.StatusNotFound, "No feedback found")
	errNotEnrolled      = newAPIError(http.StatusBadRequest, "Student is not enrolled in this course")
	errNoStudentProfile = newAPIError(http.StatusNotFound, "No student profile found for this user")
)

// apiError is a domain failure, rendered as `{"success": false, "message": ...}`.
type apiError struct {
	Code    int
	Message string
}

func newAPIError(code int, msg string) *apiError {
	return &apiError{Code: code, Message: msg}
}

func (e *apiError) Error() string { return e.Message }

func badRequest(msg string) *apiError { return newAPIError(http.StatusBadRequest, msg) }

// newAppHTTPErrorHandler returns a custom echo.HTTPErrorHandler that knows how to handle our errors.
func newAppHTTPErrorHandler(logger core.Logger) echo.HTTPErrorHandler {
	translator := core.NewTranslator()

	return func(err error, ctx echo.Context) {
		var code int
		var message interface{}

		switch origErr := errors.Cause(err).(type) {
		case *apiError:
			code = origErr.Code
			message = echo.Map{"success": false, "message": origErr.Message}
		case *echo.HTTPError:
			if origErr == middleware.ErrJWTMissing {
				origErr = errUnauthorized
			}
			if origErr.Internal != nil {
				if herr, ok := origErr.Internal.(*echo.HTTPError); ok {
					origErr = herr
				}
			}
			code = origErr.Code
			message = origErr.Message
			if code == http.StatusUnauthorized {
				message = echo.Map{"detail": origErr.Message}
			}
		case validator.ValidationErrors:
			fldErrs := make(map[string]string, len(origErr))
			for _, vErr := range origErr {
				fldErrs[vErr.Field()] = vErr.Translate(translator)
			}
			code = http.StatusBadRequest
			message = echo.Map{"success": false, "message": "Invalid data", "errors": fldErrs}
		default: // any other error is a server error
			code = http.StatusInternalServerError
			msg := http.StatusText(http.StatusInternalServerError)
			message = msg
			if logger != nil {
				logger.Error(msg, errors.Wrap(err, msg))
			}
		}

		if m, ok := message.(string); ok {
			if ctx.Echo().Debug {
				m = err.Error()
			}
			message = echo.Map{"error": m}
		}

		// Send response
		if !ctx.Response().Committed {
			if ctx.Request().Method == http.MethodHead { // Issue #608
				err = ctx.NoContent(code)
			} else {
				err = ctx.JSON(code, message)
			}
			if err != nil {
				ctx.Echo().Logger.Error(err)
			}
		}
	}
}

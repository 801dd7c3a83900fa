package course

import (
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/niva/core"
)

type (
	Course struct {
		ID                 core.FlexString `json:"id"`
		Name               string          `json:"name"`
		Description        string          `json:"description"`
		IsActive           bool            `json:"is_active"`
		PassingScore       core.Decimal    `json:"passing_score"`
		MaxScore           core.Decimal    `json:"max_score"`
		Syllabus           string          `json:"syllabus"`
		Instructions       string          `json:"instructions"`
		EvaluationCriteria string          `json:"evaluation_criteria"`
		CreatedAt          string          `json:"created_at"`
		UpdatedAt          string          `json:"updated_at"`
	}

	NewCourse struct {
		Name               string   `json:"name" validate:"required,notblank"`
		Description        string   `json:"description" validate:"required,notblank"`
		IsActive           *bool    `json:"is_active,omitempty"`
		PassingScore       *float64 `json:"passing_score,omitempty" validate:"omitempty,min=0,max=100"`
		MaxScore           *float64 `json:"max_score,omitempty" validate:"omitempty,min=0,max=100"`
		Syllabus           string   `json:"syllabus,omitempty"`
		Instructions       string   `json:"instructions,omitempty"`
		EvaluationCriteria string   `json:"evaluation_criteria,omitempty"`
	}

	UpdateCourse struct {
		Name               *string  `json:"name,omitempty" validate:"omitempty,notblank"`
		Description        *string  `json:"description,omitempty" validate:"omitempty,notblank"`
		IsActive           *bool    `json:"is_active,omitempty"`
		PassingScore       *float64 `json:"passing_score,omitempty" validate:"omitempty,min=0,max=100"`
		MaxScore           *float64 `json:"max_score,omitempty" validate:"omitempty,min=0,max=100"`
		Syllabus           *string  `json:"syllabus,omitempty"`
		Instructions       *string  `json:"instructions,omitempty"`
		EvaluationCriteria *string  `json:"evaluation_criteria,omitempty"`
	}
)

var errPassingNotBelowMax = "passing score must be less than max score"

// InitValidators registers the course struct-level rules.
func InitValidators(validate *validator.Validate) {
	validate.RegisterStructValidation(newCourseValidation, NewCourse{})
	validate.RegisterStructValidation(updateCourseValidation, UpdateCourse{})
}

func newCourseValidation(sl validator.StructLevel) {
	nc := sl.Current().Interface().(NewCourse)
	checkScores(sl, nc.PassingScore, nc.MaxScore)
}

func updateCourseValidation(sl validator.StructLevel) {
	uc := sl.Current().Interface().(UpdateCourse)
	checkScores(sl, uc.PassingScore, uc.MaxScore)
}

func checkScores(sl validator.StructLevel, passing, max *float64) {
	if passing != nil && max != nil && *passing >= *max {
		sl.ReportError(passing, "passing_score", "PassingScore", "ltfield", "max_score")
	}
}

// ValidationError converts failed score rules into a readable core.ValidationError.
func ValidationError(err error) error {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err
	}
	for _, fe := range verrs {
		if fe.Tag() == "ltfield" && fe.Field() == "passing_score" {
			return core.NewValidationError(nil, core.FieldError{Field: "passing_score", Error: errPassingNotBelowMax})
		}
	}
	return err
}

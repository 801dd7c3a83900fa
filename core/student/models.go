package student

import (
	"strings"

	"github.com/trezcool/niva/core"
)

// Genders
const (
	GenderUnknown      Gender = "UNKNOWN"
	GenderMale         Gender = "MALE"
	GenderFemale       Gender = "FEMALE"
	GenderRatherNotSay Gender = "RATHER_NOT_SAY"
)

type (
	Gender string

	CourseRef struct {
		ID   core.FlexString `json:"id"`
		Name string          `json:"name"`
	}

	Student struct {
		ID          core.FlexString `json:"id"`
		UserID      core.FlexString `json:"user_id"`
		FirstName   string          `json:"first_name"`
		LastName    string          `json:"last_name"`
		FullName    string          `json:"full_name"`
		Email       string          `json:"email"`
		PhoneNumber string          `json:"phone_number"`
		Gender      Gender          `json:"gender"`
		DateOfBirth string          `json:"date_of_birth"`
		Courses     []CourseRef     `json:"courses"`
		CreatedAt   string          `json:"created_at"`
		UpdatedAt   string          `json:"updated_at"`
	}

	// Summary is a student as returned by the lightweight list endpoint.
	Summary struct {
		ID        core.FlexString `json:"id"`
		FirstName string          `json:"first_name"`
		LastName  string          `json:"last_name"`
		FullName  string          `json:"full_name"`
	}

	NewStudent struct {
		FirstName   string   `json:"first_name" validate:"required,notblank"`
		LastName    string   `json:"last_name,omitempty"`
		PhoneNumber string   `json:"phone_number" validate:"required,phone"`
		Email       string   `json:"email,omitempty" validate:"omitempty,email"`
		Gender      Gender   `json:"gender" validate:"omitempty,oneof=MALE FEMALE RATHER_NOT_SAY UNKNOWN"`
		DateOfBirth string   `json:"date_of_birth,omitempty" validate:"omitempty,pastdate"`
		CourseIDs   []string `json:"course_ids,omitempty"`
	}

	// UpdateStudent only sends the set fields.
	UpdateStudent struct {
		FirstName   *string   `json:"first_name,omitempty" validate:"omitempty,notblank"`
		LastName    *string   `json:"last_name,omitempty"`
		PhoneNumber *string   `json:"phone_number,omitempty" validate:"omitempty,phone"`
		Email       *string   `json:"email,omitempty" validate:"omitempty,email"`
		Gender      *Gender   `json:"gender,omitempty" validate:"omitempty,oneof=MALE FEMALE RATHER_NOT_SAY UNKNOWN"`
		DateOfBirth *string   `json:"date_of_birth,omitempty" validate:"omitempty,pastdate"`
		CourseIDs   *[]string `json:"course_ids,omitempty"`
	}

	Filter struct {
		CourseID    string `json:"course_id,omitempty"`
		PhoneNumber string `json:"phone_number,omitempty"`
		Email       string `json:"email,omitempty"`
	}
)

// Name returns the best available display name.
func (s Student) Name() string {
	if s.FullName != "" {
		return s.FullName
	}
	return strings.TrimSpace(s.FirstName + " " + s.LastName)
}

// CourseIDs returns the ids of the enrolled courses, without duplicates.
func (s Student) CourseIDs() []string {
	seen := make(map[string]bool, len(s.Courses))
	ids := make([]string, 0, len(s.Courses))
	for _, c := range s.Courses {
		id := string(c.ID)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		ids = append(ids, id)
	}
	return ids
}

func (s Student) EnrolledIn(courseID string) bool {
	for _, id := range s.CourseIDs() {
		if id == courseID {
			return true
		}
	}
	return false
}

// clean trims the text fields and applies defaults.
func (ns *NewStudent) clean() {
	ns.FirstName = core.CleanString(ns.FirstName)
	ns.LastName = core.CleanString(ns.LastName)
	ns.PhoneNumber = core.CleanString(ns.PhoneNumber)
	ns.Email = core.CleanString(ns.Email, true /* lower */)
	ns.Gender = Gender(strings.ToUpper(core.CleanString(string(ns.Gender))))
	if ns.Gender == "" {
		ns.Gender = GenderUnknown
	}
}

// AsUpdate converts ns into an update setting every field.
func (ns NewStudent) AsUpdate() UpdateStudent {
	upd := UpdateStudent{
		FirstName:   &ns.FirstName,
		PhoneNumber: &ns.PhoneNumber,
		Gender:      &ns.Gender,
	}
	if ns.LastName != "" {
		upd.LastName = &ns.LastName
	}
	if ns.Email != "" {
		upd.Email = &ns.Email
	}
	if ns.DateOfBirth != "" {
		upd.DateOfBirth = &ns.DateOfBirth
	}
	if ns.CourseIDs != nil {
		upd.CourseIDs = &ns.CourseIDs
	}
	return upd
}

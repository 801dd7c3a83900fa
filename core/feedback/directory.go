package feedback

import (
	"context"

	"github.com/pkg/errors"

	"github.com/trezcool/niva/core/course"
	"github.com/trezcool/niva/core/session"
	"github.com/trezcool/niva/core/student"
)

// Directory holds the courses and students the filters are picked from.
type Directory struct {
	Courses  []course.Course
	Students []student.Student
}

type (
	CourseLister interface {
		List(ctx context.Context) ([]course.Course, error)
	}

	StudentLister interface {
		All(ctx context.Context, filter student.Filter) ([]student.Student, error)
	}
)

// LoadDirectory loads the course list, plus the students for admins.
func LoadDirectory(ctx context.Context, courses CourseLister, students StudentLister, role session.Role) (Directory, error) {
	var dir Directory
	var err error
	if dir.Courses, err = courses.List(ctx); err != nil {
		return Directory{}, errors.Wrap(err, "loading courses")
	}
	if !role.IsAdmin() {
		return dir, nil
	}
	if dir.Students, err = students.All(ctx, student.Filter{}); err != nil {
		return Directory{}, errors.Wrap(err, "loading students")
	}
	return dir, nil
}

// Student returns the student with the given id.
func (d Directory) Student(id string) (student.Student, bool) {
	for _, st := range d.Students {
		if string(st.ID) == id {
			return st, true
		}
	}
	return student.Student{}, false
}

func (d Directory) CourseName(id string) string {
	for _, c := range d.Courses {
		if string(c.ID) == id {
			return c.Name
		}
	}
	return ""
}

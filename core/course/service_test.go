package course

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/trezcool/niva/apiclient"
	"github.com/trezcool/niva/core"
	"github.com/trezcool/niva/tests"
)

func setup(t *testing.T, admin bool) (*Service, *testutil.Backend) {
	backend := testutil.NewBackend(t)
	testutil.CreateUser(t, backend.DB(), "me@niva.ai", "secret1", admin)
	sess, _ := testutil.NewSession()
	testutil.Login(t, backend, sess, "me@niva.ai", "secret1")

	validate, _ := core.NewValidator()
	InitValidators(validate)
	return NewService(testutil.NewClient(backend.URL, sess), validate), backend
}

func float(f float64) *float64 { return &f }
func str(s string) *string     { return &s }

func TestService_Create(t *testing.T) {
	svc, _ := setup(t, true)

	tests := []struct {
		name       string
		nc         NewCourse
		wantFields []string
	}{
		{name: "missing fields", nc: NewCourse{}, wantFields: []string{"name", "description"}},
		{name: "blank name", nc: NewCourse{Name: "  ", Description: "d"}, wantFields: []string{"name"}},
		{name: "score out of range", nc: NewCourse{Name: "n", Description: "d", MaxScore: float(120)}, wantFields: []string{"max_score"}},
		{name: "passing not below max", nc: NewCourse{Name: "n", Description: "d", PassingScore: float(80), MaxScore: float(80)}, wantFields: []string{"passing_score"}},
		{name: "ok", nc: NewCourse{Name: "Go", Description: "Go interviews", PassingScore: float(65), MaxScore: float(90), Syllabus: "goroutines"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := svc.Create(context.Background(), tt.nc)
			if len(tt.wantFields) > 0 {
				fields, ok := core.FieldErrors(err, core.NewTranslator())
				if !ok {
					t.Fatalf("Create() error = %v, want validation error", err)
				}
				for _, f := range tt.wantFields {
					assert.Contains(t, fields, f)
				}
				return
			}
			if assert.NoError(t, err) {
				assert.Equal(t, "Course created successfully", res.Message)
				assert.NotEmpty(t, res.Course.ID)
				assert.Equal(t, 65.0, res.Course.PassingScore.Float64())
				assert.Equal(t, 90.0, res.Course.MaxScore.Float64())
				assert.True(t, res.Course.IsActive)
			}
		})
	}
}

func TestService_CRUD(t *testing.T) {
	ctx := context.Background()
	svc, backend := setup(t, true)
	golang := testutil.CreateCourse(t, backend.DB(), "Go")
	inactive := testutil.CreateCourse(t, backend.DB(), "Old")
	_, err := svc.Update(ctx, inactive.ID, UpdateCourse{IsActive: new(bool)})
	assert.NoError(t, err)

	t.Run("get", func(t *testing.T) {
		_, err := svc.Get(ctx, "")
		assert.Equal(t, ErrIDRequired, err)

		c, err := svc.Get(ctx, golang.ID)
		if assert.NoError(t, err) {
			assert.Equal(t, "Go", c.Name)
			assert.Equal(t, "70.0", c.PassingScore.String())
		}

		_, err = svc.Get(ctx, "missing")
		assert.Equal(t, 404, apiclient.StatusCode(err))
	})

	t.Run("all and list", func(t *testing.T) {
		all, err := svc.All(ctx, nil)
		assert.NoError(t, err)
		assert.Len(t, all, 2)

		active := true
		all, err = svc.All(ctx, &active)
		assert.NoError(t, err)
		if assert.Len(t, all, 1) {
			assert.Equal(t, "Go", all[0].Name)
		}

		list, err := svc.List(ctx)
		assert.NoError(t, err)
		assert.Len(t, list, 2)
	})

	t.Run("update", func(t *testing.T) {
		res, err := svc.Update(ctx, golang.ID, UpdateCourse{Name: str("Golang"), PassingScore: float(50)})
		if assert.NoError(t, err) {
			assert.Equal(t, "Golang", res.Course.Name)
			assert.Equal(t, 50.0, res.Course.PassingScore.Float64())
			assert.Equal(t, "Go course", res.Course.Description)
		}
	})

	t.Run("delete", func(t *testing.T) {
		_, err := svc.Delete(ctx, "")
		assert.Equal(t, ErrIDRequired, err)

		msg, err := svc.Delete(ctx, inactive.ID)
		assert.NoError(t, err)
		assert.Equal(t, "Course deleted successfully", msg)

		list, _ := svc.List(ctx)
		assert.Len(t, list, 1)
	})
}

func TestService_forbidden(t *testing.T) {
	svc, _ := setup(t, false)
	_, err := svc.Create(context.Background(), NewCourse{Name: "n", Description: "d"})
	assert.Equal(t, 403, apiclient.StatusCode(err))
	if apiErr, ok := apiclient.AsAPIError(err); assert.True(t, ok) {
		assert.Equal(t, "permission denied", apiErr.Message)
	}
}

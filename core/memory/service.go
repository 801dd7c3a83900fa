package memory

import (
	"context"
	"net/url"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/trezcool/niva/apiclient"
	"github.com/trezcool/niva/core"
)

var (
	// errors
	ErrCourseIDRequired = errors.New("course id is required")
	ErrIDRequired       = errors.New("course id and memory id are required")
)

type Service struct {
	api      *apiclient.Client
	validate *validator.Validate
}

func NewService(api *apiclient.Client, validate *validator.Validate) *Service {
	return &Service{api: api, validate: validate}
}

func endpoint(courseID string, parts ...string) string {
	ep := "/agent-memory/" + url.PathEscape(courseID)
	for _, p := range parts {
		ep += "/" + p
	}
	return ep + "/"
}

// Add uploads a document or registers a website for the course's agent.
func (svc *Service) Add(ctx context.Context, courseID string, nm NewMemory) (AddResult, error) {
	if courseID == "" {
		return AddResult{}, ErrCourseIDRequired
	}
	nm.Type = core.CleanString(nm.Type, true /* lower */)
	nm.Name = core.CleanString(nm.Name)
	nm.URL = core.CleanString(nm.URL)
	if err := svc.validate.Struct(nm); err != nil {
		return AddResult{}, err
	}

	form := &apiclient.MultipartForm{}
	form.Add("type", nm.Type)
	form.Add("name", nm.Name)
	switch nm.Type {
	case TypeWebsite:
		form.Add("url", nm.URL)
	case TypeDocument:
		form.AddFile("file", nm.FileName, nm.File)
	}

	env, err := svc.api.PostMultipart(ctx, endpoint(courseID, "add-memory"), form)
	if err != nil {
		return AddResult{}, errors.Wrap(err, "adding memory")
	}
	var id core.FlexString
	_ = env.Decode("memory_id", &id)
	return AddResult{
		Message:  env.MessageOr("Memory added successfully"),
		MemoryID: string(id),
		FilePath: env.Text("file_path"),
	}, nil
}

func (svc *Service) Delete(ctx context.Context, courseID, memoryID string) error {
	if courseID == "" || memoryID == "" {
		return ErrIDRequired
	}
	if _, err := svc.api.Delete(ctx, endpoint(courseID, "delete-memory", url.PathEscape(memoryID))); err != nil {
		return errors.Wrap(err, "deleting memory")
	}
	return nil
}

// Content returns a page of the memory's indexed chunks. Zero page values use the backend defaults.
func (svc *Service) Content(ctx context.Context, courseID, memoryID string, p Page) (Content, error) {
	if courseID == "" || memoryID == "" {
		return Content{}, ErrIDRequired
	}
	q := url.Values{}
	if p.Limit > 0 {
		q.Set("limit", strconv.Itoa(p.Limit))
	}
	if p.Offset > 0 {
		q.Set("offset", strconv.Itoa(p.Offset))
	}
	env, err := svc.api.Get(ctx, endpoint(courseID, "memory", url.PathEscape(memoryID), "content"), q)
	if err != nil {
		return Content{}, errors.Wrap(err, "getting memory content")
	}
	var c Content
	if err := env.Decode("", &c); err != nil {
		return Content{}, err
	}
	if c.Chunks == nil {
		c.Chunks = make([]Chunk, 0)
	}
	return c, nil
}

func (svc *Service) Summary(ctx context.Context, courseID, memoryID string) (Memory, error) {
	if courseID == "" || memoryID == "" {
		return Memory{}, ErrIDRequired
	}
	env, err := svc.api.Get(ctx, endpoint(courseID, "memory", url.PathEscape(memoryID), "summary"), nil)
	if err != nil {
		return Memory{}, errors.Wrap(err, "getting memory summary")
	}
	var m Memory
	if err := env.Decode("", &m); err != nil {
		return Memory{}, err
	}
	if m.ID == "" {
		m.ID = core.FlexString(memoryID)
	}
	return m, nil
}

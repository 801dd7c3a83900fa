package echoapi

import (
	"io/ioutil"
	"net/http"
	"path"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

const chunkSize = 500

type memoryApi struct {
	srv *server
}

func registerMemoryAPI(g *echo.Group, auth echo.MiddlewareFunc, srv *server) {
	api := memoryApi{srv: srv}

	mg := g.Group("/agent-memory/:course_id", auth)
	mg.POST("/add-memory", api.create, adminMiddleware)
	mg.DELETE("/delete-memory/:memory_id", api.destroy, adminMiddleware)
	mg.GET("/memory/:memory_id/content", api.content)
	mg.GET("/memory/:memory_id/summary", api.summary)
}

func chunks(content string) []string {
	var out []string
	for len(content) > chunkSize {
		out = append(out, content[:chunkSize])
		content = content[chunkSize:]
	}
	if content != "" {
		out = append(out, content)
	}
	return out
}

func (api *memoryApi) create(ctx echo.Context) error {
	courseID := ctx.Param("course_id")
	if _, ok := api.srv.db.Course(courseID); !ok {
		return errCourseNotFound
	}

	m := MemoryRow{
		CourseID: courseID,
		Type:     ctx.FormValue("type"),
		Name:     ctx.FormValue("name"),
	}
	if m.Type == "" || m.Name == "" {
		return badRequest("type and name are required")
	}
	switch m.Type {
	case "website":
		m.URL = ctx.FormValue("url")
		if m.URL == "" {
			return badRequest("url is required for website type")
		}
		m.Content = "Content scraped from " + m.URL
	case "document":
		fh, err := ctx.FormFile("file")
		if err != nil {
			return badRequest("file is required for document type")
		}
		f, err := fh.Open()
		if err != nil {
			return errors.Wrap(err, "opening uploaded file")
		}
		defer f.Close()
		b, err := ioutil.ReadAll(f)
		if err != nil {
			return errors.Wrap(err, "reading uploaded file")
		}
		m.Content = string(b)
		m.FilePath = path.Join("memories", courseID, fh.Filename)
	default:
		return badRequest("type must be one of: document, website")
	}

	saved := api.srv.db.AddMemory(m)
	resp := echo.Map{"message": "Memory added successfully", "memory_id": saved.ID}
	if saved.FilePath != "" {
		resp["file_path"] = saved.FilePath
	}
	return ctx.JSON(http.StatusCreated, resp)
}

func (api *memoryApi) destroy(ctx echo.Context) error {
	if err := api.srv.db.DeleteMemory(ctx.Param("course_id"), ctx.Param("memory_id")); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *memoryApi) content(ctx echo.Context) error {
	m, ok := api.srv.db.Memory(ctx.Param("course_id"), ctx.Param("memory_id"))
	if !ok {
		return errMemoryNotFound
	}
	limit, offset := 10, 0
	if v, err := strconv.Atoi(ctx.QueryParam("limit")); err == nil && v > 0 {
		limit = v
	}
	if v, err := strconv.Atoi(ctx.QueryParam("offset")); err == nil && v >= 0 {
		offset = v
	}

	all := chunks(m.Content)
	results := make([]echo.Map, 0, limit)
	for i := offset; i < len(all) && i < offset+limit; i++ {
		results = append(results, echo.Map{
			"content":     all[i],
			"chunk_index": i,
			"created_at":  m.CreatedAt,
		})
	}
	return ctx.JSON(http.StatusOK, echo.Map{"count": len(all), "results": results})
}

func (api *memoryApi) summary(ctx echo.Context) error {
	m, ok := api.srv.db.Memory(ctx.Param("course_id"), ctx.Param("memory_id"))
	if !ok {
		return errMemoryNotFound
	}
	var courseName string
	if c, ok := api.srv.db.Course(m.CourseID); ok {
		courseName = c.Name
	}
	preview := m.Content
	if len(preview) > 200 {
		preview = preview[:200]
	}
	var url interface{}
	if m.URL != "" {
		url = m.URL
	}
	return ctx.JSON(http.StatusOK, echo.Map{
		"memory_id":            m.ID,
		"name":                 m.Name,
		"type":                 m.Type,
		"url":                  url,
		"course_id":            m.CourseID,
		"course_name":          courseName,
		"chunk_count":          len(chunks(m.Content)),
		"total_content_length": len(m.Content),
		"preview":              preview,
		"created_at":           m.CreatedAt,
		"updated_at":           m.UpdatedAt,
	})
}

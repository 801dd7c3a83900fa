package memory

import (
	"io"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/niva/core"
)

// Memory types
const (
	TypeDocument = "document"
	TypeWebsite  = "website"
)

type (
	// Memory is a knowledge source attached to a course's interview agent.
	Memory struct {
		ID                 core.FlexString `json:"memory_id"`
		Name               string          `json:"name"`
		Type               string          `json:"type"`
		URL                string          `json:"url"`
		CourseID           core.FlexString `json:"course_id"`
		CourseName         string          `json:"course_name"`
		ChunkCount         int             `json:"chunk_count"`
		TotalContentLength int             `json:"total_content_length"`
		Preview            string          `json:"preview"`
		CreatedAt          string          `json:"created_at"`
		UpdatedAt          string          `json:"updated_at"`
	}

	Chunk struct {
		Content    string `json:"content"`
		ChunkIndex int    `json:"chunk_index"`
		CreatedAt  string `json:"created_at"`
	}

	Content struct {
		Count  int     `json:"count"`
		Chunks []Chunk `json:"results"`
	}

	NewMemory struct {
		Type string `json:"type" validate:"required,oneof=document website"`
		Name string `json:"name" validate:"required,notblank"`
		URL  string `json:"url" validate:"omitempty,url"`
		// File and FileName are sent for documents.
		File     io.Reader `json:"-"`
		FileName string    `json:"file"`
	}

	AddResult struct {
		Message  string
		MemoryID string
		FilePath string
	}

	Page struct {
		Limit  int
		Offset int
	}
)

var (
	// custom validation tags & texts
	requiredForTypeTag  = "required_for_type"
	requiredForTypeText = "{0} is required for this memory type"
)

// InitValidators registers the memory type rules: websites need a url, documents a file.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	validate.RegisterStructValidation(newMemoryValidation, NewMemory{})
	core.RegisterCustomTranslation(validate, translator, requiredForTypeTag, requiredForTypeText)
}

func newMemoryValidation(sl validator.StructLevel) {
	nm := sl.Current().Interface().(NewMemory)
	switch nm.Type {
	case TypeWebsite:
		if nm.URL == "" {
			sl.ReportError(nm.URL, "url", "URL", requiredForTypeTag, "")
		}
	case TypeDocument:
		if nm.File == nil {
			sl.ReportError(nm.FileName, "file", "File", requiredForTypeTag, "")
		}
	}
}

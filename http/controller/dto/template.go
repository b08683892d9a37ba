package dto

import (
	"encoding/json"
	"time"

	"github.com/tnqbao/gau-datagen-service/entity"
)

type TemplateRequest struct {
	Name        string          `json:"name" binding:"required"`
	Description string          `json:"description"`
	SchemaDef   json.RawMessage `json:"schema_def" binding:"required"`
}

type TemplateResponse struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	SchemaDef   json.RawMessage `json:"schema_def"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

func FromTemplate(t *entity.Template) TemplateResponse {
	return TemplateResponse{
		ID:          t.ID.String(),
		Name:        t.Name,
		Description: t.Description,
		SchemaDef:   json.RawMessage(t.SchemaDef),
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
}

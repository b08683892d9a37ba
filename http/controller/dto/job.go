package dto

import (
	"encoding/json"
	"time"

	"github.com/tnqbao/gau-datagen-service/entity"
)

type GenerateJobRequest struct {
	DataType     string          `json:"data_type"`
	RecordCount  int             `json:"record_count" binding:"required"`
	OutputFormat string          `json:"output_format"`
	Seed         *int64          `json:"seed"`
	SchemaDef    json.RawMessage `json:"schema_def"`
	Template     string          `json:"template"`
}

type PreviewRequest struct {
	DataType    string          `json:"data_type"`
	RecordCount int             `json:"record_count"`
	Seed        *int64          `json:"seed"`
	SchemaDef   json.RawMessage `json:"schema_def"`
	Template    string          `json:"template"`
}

type JobResponse struct {
	ID             string     `json:"id"`
	DataType       string     `json:"data_type"`
	RecordCount    int        `json:"record_count"`
	OutputFormat   string     `json:"output_format"`
	Seed           int64      `json:"seed"`
	Status         string     `json:"status"`
	Progress       float64    `json:"progress"`
	ErrorMessage   string     `json:"error_message,omitempty"`
	ArtifactSize   int64      `json:"artifact_size,omitempty"`
	ArtifactPurged bool       `json:"artifact_purged,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	StartedAt      *time.Time `json:"started_at,omitempty"`
	CompletedAt    *time.Time `json:"completed_at,omitempty"`
}

func FromJob(job *entity.Job) JobResponse {
	return JobResponse{
		ID:             job.ID.String(),
		DataType:       job.DataType,
		RecordCount:    job.RecordCount,
		OutputFormat:   job.OutputFormat,
		Seed:           job.Seed,
		Status:         string(job.Status),
		Progress:       job.Progress,
		ErrorMessage:   job.ErrorMessage,
		ArtifactSize:   job.ArtifactSize,
		ArtifactPurged: job.ArtifactPurgedAt != nil,
		CreatedAt:      job.CreatedAt,
		StartedAt:      job.StartedAt,
		CompletedAt:    job.CompletedAt,
	}
}

type JobListResponse struct {
	Jobs   []JobResponse `json:"jobs"`
	Total  int64         `json:"total"`
	Limit  int           `json:"limit"`
	Offset int           `json:"offset"`
}

type JobDetailsResponse struct {
	JobResponse
	SchemaDef json.RawMessage `json:"schema_def,omitempty"`
}

type PreviewResponse struct {
	DataType string           `json:"data_type"`
	Columns  []string         `json:"columns"`
	Rows     []map[string]any `json:"rows"`
	Seed     int64            `json:"seed"`
}

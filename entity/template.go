package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Template is a user-defined record schema. Jobs never reference a template
// row directly: submission freezes the definition onto the job, so edits and
// deletes here cannot affect in-flight or historical jobs.
type Template struct {
	ID          uuid.UUID      `json:"id" gorm:"type:uuid;primaryKey"`
	Name        string         `json:"name" gorm:"not null;uniqueIndex"`
	Description string         `json:"description" gorm:"type:text"`
	SchemaDef   datatypes.JSON `json:"schema_def" gorm:"type:jsonb;not null"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

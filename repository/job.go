package repository

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tnqbao/gau-datagen-service/entity"
)

type JobRepository struct {
	db *gorm.DB
}

func NewJobRepository(db *gorm.DB) *JobRepository {
	return &JobRepository{db: db}
}

// JobFilter narrows List results. Zero values mean "no constraint".
type JobFilter struct {
	Status   entity.JobStatus
	DataType string
	Limit    int
	Offset   int
}

func (r *JobRepository) Create(job *entity.Job) error {
	return r.db.Create(job).Error
}

func (r *JobRepository) FindByID(id uuid.UUID) (*entity.Job, error) {
	var job entity.Job
	err := r.db.Where("id = ?", id).First(&job).Error
	if err != nil {
		return nil, err
	}
	return &job, nil
}

func (r *JobRepository) List(filter JobFilter) ([]entity.Job, int64, error) {
	query := r.db.Model(&entity.Job{})
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.DataType != "" {
		query = query.Where("data_type = ?", filter.DataType)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}
	if filter.Offset > 0 {
		query = query.Offset(filter.Offset)
	}

	var jobs []entity.Job
	err := query.Order("created_at DESC").Find(&jobs).Error
	if err != nil {
		return nil, 0, err
	}
	return jobs, total, nil
}

// MarkQueued moves a pending job to queued once its message is published.
// The conditional update makes republishing a settled job impossible.
func (r *JobRepository) MarkQueued(id uuid.UUID) (bool, error) {
	result := r.db.Model(&entity.Job{}).
		Where("id = ? AND status IN ?", id, entity.TransitionSources(entity.JobStatusQueued)).
		Update("status", entity.JobStatusQueued)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// ClaimForProcessing atomically claims a queued job for a worker. Exactly one
// of several competing workers observes RowsAffected == 1; the rest see the
// job already claimed and drop the delivery.
func (r *JobRepository) ClaimForProcessing(id uuid.UUID) (bool, error) {
	now := time.Now()
	result := r.db.Model(&entity.Job{}).
		Where("id = ? AND status IN ?", id, entity.TransitionSources(entity.JobStatusProcessing)).
		Updates(map[string]interface{}{
			"status":     entity.JobStatusProcessing,
			"started_at": now,
			"progress":   0,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

func (r *JobRepository) UpdateProgress(id uuid.UUID, progress float64) error {
	return r.db.Model(&entity.Job{}).
		Where("id = ? AND status = ?", id, entity.JobStatusProcessing).
		Update("progress", progress).Error
}

func (r *JobRepository) MarkCompleted(id uuid.UUID, artifactKey string, artifactSize int64) (bool, error) {
	now := time.Now()
	result := r.db.Model(&entity.Job{}).
		Where("id = ? AND status IN ?", id, entity.TransitionSources(entity.JobStatusCompleted)).
		Updates(map[string]interface{}{
			"status":        entity.JobStatusCompleted,
			"progress":      100.0,
			"artifact_key":  artifactKey,
			"artifact_size": artifactSize,
			"completed_at":  now,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

func (r *JobRepository) MarkFailed(id uuid.UUID, message string) (bool, error) {
	now := time.Now()
	result := r.db.Model(&entity.Job{}).
		Where("id = ? AND status IN ?", id, entity.TransitionSources(entity.JobStatusFailed)).
		Updates(map[string]interface{}{
			"status":        entity.JobStatusFailed,
			"error_message": message,
			"completed_at":  now,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// The legal cancel sources split between the API, which settles jobs no
// worker has claimed, and the worker, which settles the job it is running.
var (
	cancelBeforeStartStatuses = []entity.JobStatus{entity.JobStatusPending, entity.JobStatusQueued}
	cancelRunningStatuses     = []entity.JobStatus{entity.JobStatusProcessing}
)

// CancelBeforeStart settles a job that has not been claimed yet. Jobs already
// processing are cancelled by the worker via the cancellation flag instead.
func (r *JobRepository) CancelBeforeStart(id uuid.UUID) (bool, error) {
	now := time.Now()
	result := r.db.Model(&entity.Job{}).
		Where("id = ? AND status IN ?", id, cancelBeforeStartStatuses).
		Updates(map[string]interface{}{
			"status":       entity.JobStatusCancelled,
			"completed_at": now,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// MarkCancelled settles a processing job after its worker observed the
// cancellation flag and stopped writing.
func (r *JobRepository) MarkCancelled(id uuid.UUID) (bool, error) {
	now := time.Now()
	result := r.db.Model(&entity.Job{}).
		Where("id = ? AND status IN ?", id, cancelRunningStatuses).
		Updates(map[string]interface{}{
			"status":       entity.JobStatusCancelled,
			"completed_at": now,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// MarkArtifactPurged records that retention removed the job's artifact. The
// job row itself stays untouched so history survives the purge.
func (r *JobRepository) MarkArtifactPurged(id uuid.UUID, purgedAt time.Time) error {
	return r.db.Model(&entity.Job{}).
		Where("id = ? AND artifact_purged_at IS NULL", id).
		Update("artifact_purged_at", purgedAt).Error
}

func (r *JobRepository) Delete(id uuid.UUID) error {
	return r.db.Delete(&entity.Job{}, "id = ?", id).Error
}

type statusCount struct {
	Status entity.JobStatus
	Count  int64
}

func (r *JobRepository) CountByStatus() (map[entity.JobStatus]int64, error) {
	var rows []statusCount
	err := r.db.Model(&entity.Job{}).
		Select("status, count(*) as count").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[entity.JobStatus]int64, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	return counts, nil
}

type dataTypeCount struct {
	DataType string
	Count    int64
}

func (r *JobRepository) CountByDataType() (map[string]int64, error) {
	var rows []dataTypeCount
	err := r.db.Model(&entity.Job{}).
		Select("data_type, count(*) as count").
		Group("data_type").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int64, len(rows))
	for _, row := range rows {
		counts[row.DataType] = row.Count
	}
	return counts, nil
}

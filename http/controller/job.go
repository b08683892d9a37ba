package controller

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/tnqbao/gau-datagen-service/entity"
	"github.com/tnqbao/gau-datagen-service/generator"
	"github.com/tnqbao/gau-datagen-service/http/controller/dto"
	"github.com/tnqbao/gau-datagen-service/repository"
	"github.com/tnqbao/gau-datagen-service/utils"
	"github.com/tnqbao/gau-datagen-service/writer"
)

const (
	// DefaultPreviewRecords is returned when a preview request omits the count
	DefaultPreviewRecords = 10
	// MaxPreviewRecords caps synchronous generation on the request path
	MaxPreviewRecords = 100
	// DefaultListLimit is the page size when a list request omits the limit
	DefaultListLimit = 50
	// MaxListLimit caps the page size for job listings
	MaxListLimit = 200
)

// resolveSchema freezes the schema for a request: an inline definition wins,
// then a named template, then the builtin kind. The returned raw definition
// is nil for builtins, which are immutable anyway.
func (ctrl *Controller) resolveSchema(dataType, templateName string, schemaDef json.RawMessage) (*generator.Schema, json.RawMessage, error) {
	if len(schemaDef) > 0 {
		schema, err := generator.ParseDefinition(schemaDef)
		if err != nil {
			return nil, nil, err
		}
		return schema, schemaDef, nil
	}

	if templateName != "" {
		template, err := ctrl.Repository.TemplateRepo.FindByName(templateName)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, nil, fmt.Errorf("%w: template %q", generator.ErrUnknownKind, templateName)
			}
			return nil, nil, err
		}
		schema, err := generator.ParseDefinition(template.SchemaDef)
		if err != nil {
			return nil, nil, err
		}
		return schema, json.RawMessage(template.SchemaDef), nil
	}

	schema, err := ctrl.Registry.Resolve(dataType)
	if err != nil {
		return nil, nil, err
	}
	return schema, nil, nil
}

// recordCountInBounds checks the requested volume against the configured
// window. Out-of-bounds requests are rejected before a job row exists.
func (ctrl *Controller) recordCountInBounds(n int) bool {
	genCfg := ctrl.Config.EnvConfig.Generation
	return n >= genCfg.MinRecords && n <= genCfg.MaxRecords
}

func (ctrl *Controller) CreateGenerateJob(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.GenerateJobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.JSON400(c, "Invalid request body: "+err.Error())
		return
	}

	if !ctrl.recordCountInBounds(req.RecordCount) {
		genCfg := ctrl.Config.EnvConfig.Generation
		utils.JSON400(c, fmt.Sprintf("record_count must be between %d and %d", genCfg.MinRecords, genCfg.MaxRecords))
		return
	}

	if req.OutputFormat == "" {
		req.OutputFormat = string(writer.FormatCSV)
	}
	format, err := writer.ParseFormat(req.OutputFormat)
	if err != nil {
		utils.JSON400(c, fmt.Sprintf("Unknown output format %q", req.OutputFormat))
		return
	}

	schema, frozenDef, err := ctrl.resolveSchema(req.DataType, req.Template, req.SchemaDef)
	if err != nil {
		switch {
		case errors.Is(err, generator.ErrUnknownKind),
			errors.Is(err, generator.ErrInvalidDefinition),
			errors.Is(err, generator.ErrUnsatisfiableConstraint):
			utils.JSON400(c, err.Error())
		default:
			ctrl.Infra.Logger.ErrorWithContextf(ctx, err, "[Job] Failed to resolve schema for data type '%s'", req.DataType)
			utils.JSON500(c, "Failed to resolve schema")
		}
		return
	}

	seed := time.Now().UnixNano()
	if req.Seed != nil {
		seed = *req.Seed
	}

	job := &entity.Job{
		ID:           uuid.New(),
		DataType:     schema.Kind,
		SchemaDef:    datatypes.JSON(frozenDef),
		RecordCount:  req.RecordCount,
		OutputFormat: string(format),
		Seed:         seed,
		Status:       entity.JobStatusPending,
		CreatedAt:    time.Now(),
	}

	if err := ctrl.Repository.JobRepo.Create(job); err != nil {
		ctrl.Infra.Logger.ErrorWithContextf(ctx, err, "[Job] Failed to persist job")
		utils.JSON500(c, "Failed to create job")
		return
	}

	if err := ctrl.Infra.Produce.JobService.PublishGenerateJob(ctx, job.ID.String()); err != nil {
		ctrl.Infra.Logger.ErrorWithContextf(ctx, err, "[Job] Failed to publish job %s", job.ID)
		_, _ = ctrl.Repository.JobRepo.MarkFailed(job.ID, "failed to enqueue job")
		utils.JSON500(c, "Failed to enqueue job")
		return
	}

	if _, err := ctrl.Repository.JobRepo.MarkQueued(job.ID); err != nil {
		ctrl.Infra.Logger.ErrorWithContextf(ctx, err, "[Job] Failed to mark job %s queued", job.ID)
		utils.JSON500(c, "Failed to update job status")
		return
	}
	job.Status = entity.JobStatusQueued

	ctrl.Infra.Logger.InfoWithContextf(ctx, "[Job] Queued job %s: %d %s records as %s",
		job.ID, job.RecordCount, job.DataType, job.OutputFormat)
	utils.JSON202(c, dto.FromJob(job))
}

func (ctrl *Controller) PreviewRecords(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.PreviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.JSON400(c, "Invalid request body: "+err.Error())
		return
	}

	count := req.RecordCount
	if count <= 0 {
		count = DefaultPreviewRecords
	}
	if count > MaxPreviewRecords {
		count = MaxPreviewRecords
	}

	schema, _, err := ctrl.resolveSchema(req.DataType, req.Template, req.SchemaDef)
	if err != nil {
		switch {
		case errors.Is(err, generator.ErrUnknownKind),
			errors.Is(err, generator.ErrInvalidDefinition),
			errors.Is(err, generator.ErrUnsatisfiableConstraint):
			utils.JSON400(c, err.Error())
		default:
			ctrl.Infra.Logger.ErrorWithContextf(ctx, err, "[Job] Failed to resolve preview schema")
			utils.JSON500(c, "Failed to resolve schema")
		}
		return
	}

	seed := time.Now().UnixNano()
	if req.Seed != nil {
		seed = *req.Seed
	}

	gen, err := generator.New(schema, count, seed)
	if err != nil {
		utils.JSON400(c, err.Error())
		return
	}

	rows := make([]map[string]any, 0, count)
	for i := 0; i < count; i++ {
		rec, err := gen.Record(i)
		if err != nil {
			ctrl.Infra.Logger.ErrorWithContextf(ctx, err, "[Job] Preview generation failed at record %d", i)
			utils.JSON500(c, "Failed to generate preview")
			return
		}
		row := make(map[string]any, rec.Len())
		for j := range schema.Fields {
			row[schema.Fields[j].Name] = previewValue(&schema.Fields[j], rec.Value(j))
		}
		rows = append(rows, row)
	}

	utils.JSON200(c, dto.PreviewResponse{
		DataType: schema.Kind,
		Columns:  schema.FieldNames(),
		Rows:     rows,
		Seed:     seed,
	})
}

// previewValue flattens time values so a date field previews as 2006-01-02
// instead of a midnight timestamp.
func previewValue(fld *generator.FieldSpec, v any) any {
	t, ok := v.(time.Time)
	if !ok {
		return v
	}
	if fld.Type == generator.FieldDate {
		return t.Format("2006-01-02")
	}
	return t.Format(time.RFC3339)
}

func (ctrl *Controller) ListJobs(c *gin.Context) {
	ctx := c.Request.Context()

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(DefaultListLimit)))
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if offset < 0 {
		offset = 0
	}

	filter := repository.JobFilter{
		Status:   entity.JobStatus(c.Query("status")),
		DataType: c.Query("data_type"),
		Limit:    limit,
		Offset:   offset,
	}

	jobs, total, err := ctrl.Repository.JobRepo.List(filter)
	if err != nil {
		ctrl.Infra.Logger.ErrorWithContextf(ctx, err, "[Job] Failed to list jobs")
		utils.JSON500(c, "Failed to list jobs")
		return
	}

	resp := dto.JobListResponse{
		Jobs:   make([]dto.JobResponse, 0, len(jobs)),
		Total:  total,
		Limit:  limit,
		Offset: offset,
	}
	for i := range jobs {
		resp.Jobs = append(resp.Jobs, ctrl.jobResponse(c, &jobs[i]))
	}
	utils.JSON200(c, resp)
}

// jobResponse builds a response, preferring the worker's progress mirror
// over the last database flush for jobs still processing.
func (ctrl *Controller) jobResponse(c *gin.Context, job *entity.Job) dto.JobResponse {
	resp := dto.FromJob(job)
	if job.Status == entity.JobStatusProcessing {
		if progress, ok, err := ctrl.Infra.Redis.GetProgress(c.Request.Context(), job.ID); err == nil && ok {
			resp.Progress = progress
		}
	}
	return resp
}

func (ctrl *Controller) GetJob(c *gin.Context) {
	job, ok := ctrl.findJob(c)
	if !ok {
		return
	}
	utils.JSON200(c, ctrl.jobResponse(c, job))
}

func (ctrl *Controller) GetJobDetails(c *gin.Context) {
	job, ok := ctrl.findJob(c)
	if !ok {
		return
	}

	resp := dto.JobDetailsResponse{JobResponse: ctrl.jobResponse(c, job)}
	if len(job.SchemaDef) > 0 {
		resp.SchemaDef = json.RawMessage(job.SchemaDef)
	} else if schema, err := ctrl.Registry.Resolve(job.DataType); err == nil {
		if raw, err := json.Marshal(schema); err == nil {
			resp.SchemaDef = raw
		}
	}
	utils.JSON200(c, resp)
}

func (ctrl *Controller) DownloadArtifact(c *gin.Context) {
	ctx := c.Request.Context()
	job, ok := ctrl.findJob(c)
	if !ok {
		return
	}

	if job.Status != entity.JobStatusCompleted {
		utils.JSON409(c, fmt.Sprintf("Job is %s, artifact not available", job.Status))
		return
	}
	if job.ArtifactPurgedAt != nil {
		utils.JSON410(c, "Artifact has been removed by retention")
		return
	}

	format, err := writer.ParseFormat(job.OutputFormat)
	if err != nil {
		ctrl.Infra.Logger.ErrorWithContextf(ctx, err, "[Job] Job %s has unknown stored format %q", job.ID, job.OutputFormat)
		utils.JSON500(c, "Failed to open artifact")
		return
	}

	reader, size, err := ctrl.Infra.Minio.GetObject(ctx, job.ArtifactKey)
	if err != nil {
		ctrl.Infra.Logger.ErrorWithContextf(ctx, err, "[Job] Failed to open artifact for job %s", job.ID)
		utils.JSON500(c, "Failed to open artifact")
		return
	}
	defer reader.Close()

	filename := utils.DownloadFilename(job.DataType, job.ID, format.Extension())
	c.DataFromReader(200, size, format.ContentType(), reader, map[string]string{
		"Content-Disposition": fmt.Sprintf("attachment; filename=%q", filename),
	})
}

func (ctrl *Controller) CancelJob(c *gin.Context) {
	ctx := c.Request.Context()
	job, ok := ctrl.findJob(c)
	if !ok {
		return
	}

	if job.Status.IsTerminal() {
		utils.JSON409(c, fmt.Sprintf("Job is already %s", job.Status))
		return
	}

	// Not yet claimed by a worker: settle it directly.
	cancelled, err := ctrl.Repository.JobRepo.CancelBeforeStart(job.ID)
	if err != nil {
		ctrl.Infra.Logger.ErrorWithContextf(ctx, err, "[Job] Failed to cancel job %s", job.ID)
		utils.JSON500(c, "Failed to cancel job")
		return
	}
	if cancelled {
		// Flag covers the race where a worker claimed the job in between.
		_ = ctrl.Infra.Redis.RequestCancel(ctx, job.ID)
		ctrl.Infra.Logger.InfoWithContextf(ctx, "[Job] Cancelled job %s before start", job.ID)
		job.Status = entity.JobStatusCancelled
		utils.JSON200(c, dto.FromJob(job))
		return
	}

	// Already processing: raise the flag, the worker settles the job.
	if err := ctrl.Infra.Redis.RequestCancel(ctx, job.ID); err != nil {
		ctrl.Infra.Logger.ErrorWithContextf(ctx, err, "[Job] Failed to request cancellation for job %s", job.ID)
		utils.JSON500(c, "Failed to request cancellation")
		return
	}
	ctrl.Infra.Logger.InfoWithContextf(ctx, "[Job] Requested cancellation for running job %s", job.ID)
	utils.JSON202(c, gin.H{"id": job.ID.String(), "status": "cancellation_requested"})
}

func (ctrl *Controller) DeleteJob(c *gin.Context) {
	ctx := c.Request.Context()
	job, ok := ctrl.findJob(c)
	if !ok {
		return
	}

	if job.Status == entity.JobStatusProcessing {
		utils.JSON409(c, "Job is processing, cancel it first")
		return
	}

	if job.HasArtifact() {
		if err := ctrl.Infra.Minio.RemoveObject(ctx, job.ArtifactKey); err != nil {
			ctrl.Infra.Logger.WarningWithContextf(ctx, "[Job] Failed to remove artifact for job %s: %v", job.ID, err)
		}
	}

	if err := ctrl.Repository.JobRepo.Delete(job.ID); err != nil {
		ctrl.Infra.Logger.ErrorWithContextf(ctx, err, "[Job] Failed to delete job %s", job.ID)
		utils.JSON500(c, "Failed to delete job")
		return
	}

	_ = ctrl.Infra.Redis.ClearCancel(ctx, job.ID)
	_ = ctrl.Infra.Redis.ClearProgress(ctx, job.ID)
	utils.JSON200(c, gin.H{"id": job.ID.String(), "deleted": true})
}

// findJob parses the :id param and loads the job, writing the error response
// itself when the lookup fails.
func (ctrl *Controller) findJob(c *gin.Context) (*entity.Job, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.JSON400(c, "Invalid job id")
		return nil, false
	}

	job, err := ctrl.Repository.JobRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.JSON404(c, "Job not found")
			return nil, false
		}
		ctrl.Infra.Logger.ErrorWithContextf(c.Request.Context(), err, "[Job] Failed to load job %s", id)
		utils.JSON500(c, "Failed to load job")
		return nil, false
	}
	return job, true
}

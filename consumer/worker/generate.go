package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/tnqbao/gau-datagen-service/config"
	"github.com/tnqbao/gau-datagen-service/entity"
	"github.com/tnqbao/gau-datagen-service/generator"
	"github.com/tnqbao/gau-datagen-service/infra"
	"github.com/tnqbao/gau-datagen-service/infra/produce"
	"github.com/tnqbao/gau-datagen-service/repository"
	"github.com/tnqbao/gau-datagen-service/utils"
	"github.com/tnqbao/gau-datagen-service/writer"
)

// ErrCancelled aborts a generation run after a cancellation flag was
// observed between chunks.
var ErrCancelled = errors.New("job cancelled")

// GenerateConsumer consumes generate-job messages and runs the full
// pipeline: claim, stream records to storage, settle the job row.
type GenerateConsumer struct {
	channel    *amqp.Channel
	infra      *infra.Infra
	repository *repository.Repository
	registry   *generator.Registry

	chunkSize   int
	workerCount int
}

func NewGenerateConsumer(channel *amqp.Channel, cfg *config.Config, infra *infra.Infra, repo *repository.Repository) *GenerateConsumer {
	return &GenerateConsumer{
		channel:     channel,
		infra:       infra,
		repository:  repo,
		registry:    generator.NewRegistry(),
		chunkSize:   cfg.EnvConfig.Generation.ChunkSize,
		workerCount: cfg.EnvConfig.Generation.WorkerCount,
	}
}

// Start registers the consumer and spawns the worker pool. Prefetch matches
// the pool size so the broker never buries a single worker in deliveries.
func (c *GenerateConsumer) Start(ctx context.Context) error {
	if err := c.channel.Qos(c.workerCount, 0, false); err != nil {
		return fmt.Errorf("failed to set QoS: %w", err)
	}

	msgs, err := c.channel.Consume(
		produce.JobGenerateQueue,
		"",
		false,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return fmt.Errorf("failed to register generate consumer: %w", err)
	}

	c.infra.Logger.InfoWithContextf(ctx, "[Generate Consumer] Started %d workers on queue: %s",
		c.workerCount, produce.JobGenerateQueue)

	for i := 0; i < c.workerCount; i++ {
		go func(worker int) {
			for {
				select {
				case <-ctx.Done():
					c.infra.Logger.InfoWithContextf(ctx, "[Generate Consumer] Worker %d shutting down...", worker)
					return
				case msg, ok := <-msgs:
					if !ok {
						c.infra.Logger.WarningWithContextf(ctx, "[Generate Consumer] Worker %d channel closed", worker)
						return
					}
					c.handleGenerate(ctx, msg)
				}
			}
		}(i)
	}

	return nil
}

func (c *GenerateConsumer) handleGenerate(ctx context.Context, msg amqp.Delivery) {
	var payload produce.GenerateJobMessage
	if err := json.Unmarshal(msg.Body, &payload); err != nil {
		c.infra.Logger.ErrorWithContextf(ctx, err, "[Generate Consumer] Failed to unmarshal message: %v", err)
		_ = msg.Nack(false, false)
		return
	}

	jobID, err := uuid.Parse(payload.JobID)
	if err != nil {
		c.infra.Logger.ErrorWithContextf(ctx, err, "[Generate Consumer] Invalid job id in message: %q", payload.JobID)
		_ = msg.Nack(false, false)
		return
	}

	claimed, err := c.repository.JobRepo.ClaimForProcessing(jobID)
	if err != nil {
		c.infra.Logger.ErrorWithContextf(ctx, err, "[Generate Consumer] Failed to claim job %s, requeueing", jobID)
		_ = msg.Nack(false, true)
		return
	}
	if !claimed {
		// Redelivered message for a job already claimed, settled or
		// cancelled before start. Nothing to do.
		c.infra.Logger.InfoWithContextf(ctx, "[Generate Consumer] Job %s not claimable, dropping delivery", jobID)
		_ = msg.Ack(false)
		return
	}

	job, err := c.repository.JobRepo.FindByID(jobID)
	if err != nil {
		c.infra.Logger.ErrorWithContextf(ctx, err, "[Generate Consumer] Failed to load claimed job %s", jobID)
		_, _ = c.repository.JobRepo.MarkFailed(jobID, "job row unreadable after claim")
		_ = msg.Ack(false)
		return
	}

	c.infra.Logger.InfoWithContextf(ctx, "[Generate Consumer] Processing job %s: %d %s records as %s",
		job.ID, job.RecordCount, job.DataType, job.OutputFormat)

	err = c.process(ctx, job)
	switch {
	case errors.Is(err, ErrCancelled):
		if _, err := c.repository.JobRepo.MarkCancelled(job.ID); err != nil {
			c.infra.Logger.ErrorWithContextf(ctx, err, "[Generate Consumer] Failed to mark job %s cancelled", job.ID)
		}
		c.infra.Logger.InfoWithContextf(ctx, "[Generate Consumer] Job %s cancelled", job.ID)
	case err != nil:
		if _, markErr := c.repository.JobRepo.MarkFailed(job.ID, err.Error()); markErr != nil {
			c.infra.Logger.ErrorWithContextf(ctx, markErr, "[Generate Consumer] Failed to mark job %s failed", job.ID)
		}
		c.infra.Logger.ErrorWithContextf(ctx, err, "[Generate Consumer] Job %s failed: %v", job.ID, err)
	default:
		c.infra.Logger.InfoWithContextf(ctx, "[Generate Consumer] Job %s completed", job.ID)
	}

	cleanupCtx := context.WithoutCancel(ctx)
	_ = c.infra.Redis.ClearCancel(cleanupCtx, job.ID)
	_ = c.infra.Redis.ClearProgress(cleanupCtx, job.ID)
	_ = msg.Ack(false)
}

// process runs one claimed job end to end: records stream through an
// io.Pipe into storage under a temporary key, which is promoted to the
// final artifact key only after a clean finish. Partial output is never
// visible under the artifact prefix.
func (c *GenerateConsumer) process(ctx context.Context, job *entity.Job) error {
	schema, err := generator.Resolve(c.registry, job.DataType, []byte(job.SchemaDef))
	if err != nil {
		return err
	}
	gen, err := generator.New(schema, job.RecordCount, job.Seed)
	if err != nil {
		return err
	}
	format, err := writer.ParseFormat(job.OutputFormat)
	if err != nil {
		return err
	}

	tmpKey := utils.TempObjectKey(job.ID, format.Extension())

	pr, pw := io.Pipe()
	type uploadResult struct {
		size int64
		err  error
	}
	uploadDone := make(chan uploadResult, 1)
	go func() {
		size, err := c.infra.Minio.PutObject(ctx, tmpKey, pr, -1, format.ContentType())
		if err != nil {
			_ = pr.CloseWithError(err)
		}
		uploadDone <- uploadResult{size: size, err: err}
	}()

	w, err := writer.Open(format, pw, schema)
	if err == nil {
		err = runGeneration(ctx, gen, w, c.chunkSize,
			func(written, total int) {
				c.reportProgress(ctx, job.ID, written, total)
			},
			func() (bool, error) {
				return c.infra.Redis.IsCancelRequested(ctx, job.ID)
			},
		)
		if closeErr := w.Close(); err == nil {
			err = closeErr
		}
	}

	if err != nil {
		_ = pw.CloseWithError(err)
		<-uploadDone
		cleanupCtx := context.WithoutCancel(ctx)
		if rmErr := c.infra.Minio.RemoveObject(cleanupCtx, tmpKey); rmErr != nil {
			c.infra.Logger.WarningWithContextf(ctx, "[Generate Consumer] Failed to remove partial output for job %s: %v", job.ID, rmErr)
		}
		return err
	}

	_ = pw.Close()
	up := <-uploadDone
	if up.err != nil {
		return fmt.Errorf("failed to upload output: %w", up.err)
	}

	finalKey := utils.ArtifactObjectKey(job.ID, format.Extension())
	if err := c.infra.Minio.PromoteObject(ctx, tmpKey, finalKey); err != nil {
		return err
	}

	completed, err := c.repository.JobRepo.MarkCompleted(job.ID, finalKey, up.size)
	if err != nil {
		return fmt.Errorf("failed to mark job completed: %w", err)
	}
	if !completed {
		// Job left processing under us; keep storage consistent with the row.
		_ = c.infra.Minio.RemoveObject(context.WithoutCancel(ctx), finalKey)
		return fmt.Errorf("job was no longer processing at completion")
	}
	return nil
}

func (c *GenerateConsumer) reportProgress(ctx context.Context, jobID uuid.UUID, written, total int) {
	progress := chunkProgress(written, total)
	if err := c.repository.JobRepo.UpdateProgress(jobID, progress); err != nil {
		c.infra.Logger.WarningWithContextf(ctx, "[Generate Consumer] Failed to persist progress for job %s: %v", jobID, err)
	}
	if err := c.infra.Redis.SetProgress(ctx, jobID, progress); err != nil {
		c.infra.Logger.WarningWithContextf(ctx, "[Generate Consumer] Failed to mirror progress for job %s: %v", jobID, err)
	}
}

// chunkProgress is the completion percentage rounded to one decimal.
func chunkProgress(written, total int) float64 {
	if total <= 0 {
		return 100
	}
	return math.Round(float64(written)/float64(total)*1000) / 10
}

// runGeneration drives the chunk loop: check for cancellation, generate one
// chunk, write it, report progress. Memory stays bounded by one chunk no
// matter the record count.
func runGeneration(
	ctx context.Context,
	gen *generator.Generator,
	w writer.RecordWriter,
	chunkSize int,
	onProgress func(written, total int),
	isCancelled func() (bool, error),
) error {
	if chunkSize <= 0 {
		chunkSize = 1000
	}
	total := gen.Count()

	for offset := 0; offset < total; offset += chunkSize {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if isCancelled != nil {
			cancelled, err := isCancelled()
			if err != nil {
				return fmt.Errorf("failed to check cancellation: %w", err)
			}
			if cancelled {
				return ErrCancelled
			}
		}

		recs, err := gen.Chunk(offset, chunkSize)
		if err != nil {
			return err
		}
		for _, rec := range recs {
			if err := w.Write(rec); err != nil {
				return fmt.Errorf("failed to write record: %w", err)
			}
		}

		if onProgress != nil {
			onProgress(offset+len(recs), total)
		}
	}
	return nil
}

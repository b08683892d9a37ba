package produce

import (
	"context"
	"encoding/json"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	DatagenExchange       = "datagen.exchange"
	JobGenerateQueue      = "datagen.generate"
	JobGenerateRoutingKey = "datagen.generate"
)

type JobService struct {
	channel *amqp.Channel
}

type GenerateJobMessage struct {
	JobID     string `json:"job_id"`
	Timestamp int64  `json:"timestamp"`
}

func InitJobService(channel *amqp.Channel) *JobService {
	service := &JobService{
		channel: channel,
	}

	// Declare exchange
	err := channel.ExchangeDeclare(
		DatagenExchange,
		"topic",
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		panic("Failed to declare Datagen exchange: " + err.Error())
	}

	// Declare generate job queue
	_, err = channel.QueueDeclare(
		JobGenerateQueue,
		true,  // durable
		false, // auto-delete
		false, // exclusive
		false, // no-wait
		nil,
	)
	if err != nil {
		panic("Failed to declare Job generate queue: " + err.Error())
	}

	// Bind generate job queue to exchange
	err = channel.QueueBind(
		JobGenerateQueue,
		JobGenerateRoutingKey,
		DatagenExchange,
		false,
		nil,
	)
	if err != nil {
		panic("Failed to bind Job generate queue: " + err.Error())
	}

	return service
}

func (s *JobService) PublishGenerateJob(ctx context.Context, jobID string) error {
	message := GenerateJobMessage{
		JobID:     jobID,
		Timestamp: time.Now().Unix(),
	}

	body, err := json.Marshal(message)
	if err != nil {
		return err
	}

	return s.channel.PublishWithContext(
		ctx,
		DatagenExchange,
		JobGenerateRoutingKey,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now(),
		},
	)
}

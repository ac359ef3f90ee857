package event

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/WhisperLily/task-management-api/internal/domain"
	pkgkafka "github.com/WhisperLily/task-management-api/pkg/kafka"
)

// Kafka topics for user and task domain events.
var (
	TopicUserRegistered = pkgkafka.Topic("user", "registered")
	TopicTaskCreated    = pkgkafka.Topic("task", "created")
	TopicTaskUpdated    = pkgkafka.Topic("task", "updated")
	TopicTaskDeleted    = pkgkafka.Topic("task", "deleted")
	TopicTaskCompleted  = pkgkafka.Topic("task", "completed")
)

// Aggregate type constants.
const (
	AggregateTypeUser = "user"
	AggregateTypeTask = "task"
)

// Source identifier for events originating from this API.
const Source = "task-api"

// Publisher is the event publishing surface the service layer depends on.
type Publisher interface {
	PublishUserRegistered(ctx context.Context, user *domain.User) error
	PublishTaskCreated(ctx context.Context, task *domain.Task) error
	PublishTaskUpdated(ctx context.Context, task *domain.Task) error
	PublishTaskCompleted(ctx context.Context, task *domain.Task) error
	PublishTaskDeleted(ctx context.Context, userID, taskID string) error
}

// UserRegisteredData is the payload for a user.registered event.
type UserRegisteredData struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	FullName string `json:"full_name,omitempty"`
}

// TaskEventData is the payload for task created/updated/completed events.
type TaskEventData struct {
	ID       string     `json:"id"`
	UserID   string     `json:"user_id"`
	Title    string     `json:"title"`
	Status   string     `json:"status"`
	Priority string     `json:"priority"`
	DueDate  *time.Time `json:"due_date,omitempty"`
}

// TaskDeletedData is the payload for a task.deleted event.
type TaskDeletedData struct {
	ID     string `json:"id"`
	UserID string `json:"user_id"`
}

// Producer publishes domain events to Kafka.
type Producer struct {
	kafka  *pkgkafka.Producer
	logger *slog.Logger
}

// NewProducer creates a new event producer.
func NewProducer(kafka *pkgkafka.Producer, logger *slog.Logger) *Producer {
	return &Producer{
		kafka:  kafka,
		logger: logger,
	}
}

// PublishUserRegistered publishes a user.registered event.
func (p *Producer) PublishUserRegistered(ctx context.Context, user *domain.User) error {
	data := UserRegisteredData{
		ID:       user.ID,
		Username: user.Username,
		Email:    user.Email,
		FullName: user.FullName,
	}

	return p.publish(ctx, TopicUserRegistered, user.ID, AggregateTypeUser, data)
}

// PublishTaskCreated publishes a task.created event.
func (p *Producer) PublishTaskCreated(ctx context.Context, task *domain.Task) error {
	return p.publish(ctx, TopicTaskCreated, task.ID, AggregateTypeTask, taskData(task))
}

// PublishTaskUpdated publishes a task.updated event.
func (p *Producer) PublishTaskUpdated(ctx context.Context, task *domain.Task) error {
	return p.publish(ctx, TopicTaskUpdated, task.ID, AggregateTypeTask, taskData(task))
}

// PublishTaskCompleted publishes a task.completed event. Emitted in addition
// to task.updated when an update moves the task into the completed status.
func (p *Producer) PublishTaskCompleted(ctx context.Context, task *domain.Task) error {
	return p.publish(ctx, TopicTaskCompleted, task.ID, AggregateTypeTask, taskData(task))
}

// PublishTaskDeleted publishes a task.deleted event.
func (p *Producer) PublishTaskDeleted(ctx context.Context, userID, taskID string) error {
	data := TaskDeletedData{
		ID:     taskID,
		UserID: userID,
	}

	return p.publish(ctx, TopicTaskDeleted, taskID, AggregateTypeTask, data)
}

func (p *Producer) publish(ctx context.Context, topic, aggregateID, aggregateType string, data any) error {
	event, err := pkgkafka.NewEvent(topic, aggregateID, aggregateType, Source, data)
	if err != nil {
		return fmt.Errorf("create %s event: %w", topic, err)
	}

	if err := p.kafka.Publish(ctx, topic, event); err != nil {
		return fmt.Errorf("publish %s event: %w", topic, err)
	}

	p.logger.DebugContext(ctx, "published event",
		slog.String("topic", topic),
		slog.String("aggregate_id", aggregateID),
	)

	return nil
}

func taskData(task *domain.Task) TaskEventData {
	return TaskEventData{
		ID:       task.ID,
		UserID:   task.UserID,
		Title:    task.Title,
		Status:   task.Status,
		Priority: task.Priority,
		DueDate:  task.DueDate,
	}
}

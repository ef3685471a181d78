package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/spec-kit/task-board/internal/domain"
	"github.com/spec-kit/task-board/internal/persistence"
)

// TaskRepository encapsulates task persistence. Listing methods return tasks
// ordered by creation time descending; callers rely on that ordering.
type TaskRepository interface {
	Create(ctx context.Context, task *domain.Task) error
	GetByID(ctx context.Context, id string) (*domain.Task, error)
	Update(ctx context.Context, task *domain.Task) error
	Delete(ctx context.Context, id string) error
	ListAll(ctx context.Context) ([]domain.Task, error)
	ListByAssignee(ctx context.Context, userID string) ([]domain.Task, error)
	CountByAssignee(ctx context.Context, userID string) (int64, error)
}

type taskDocument struct {
	ID             primitive.ObjectID `bson:"_id,omitempty"`
	Title          string             `bson:"title"`
	Description    string             `bson:"description"`
	Status         string             `bson:"status"`
	AssignedUserID string             `bson:"assigned_user_id"`
	CreatedAt      time.Time          `bson:"created_at"`
	UpdatedAt      time.Time          `bson:"updated_at"`
}

func (d *taskDocument) toDomain() *domain.Task {
	return &domain.Task{
		ID:             d.ID.Hex(),
		Title:          d.Title,
		Description:    d.Description,
		Status:         domain.TaskStatus(d.Status),
		AssignedUserID: d.AssignedUserID,
		CreatedAt:      d.CreatedAt,
		UpdatedAt:      d.UpdatedAt,
	}
}

type taskRepository struct {
	collection *mongo.Collection
}

// NewTaskRepository instantiates the Mongo-backed repository.
func NewTaskRepository(db *mongo.Database) TaskRepository {
	return &taskRepository{collection: db.Collection(persistence.TasksCollection)}
}

func (r *taskRepository) Create(ctx context.Context, task *domain.Task) error {
	now := time.Now().UTC()
	doc := taskDocument{
		Title:          task.Title,
		Description:    task.Description,
		Status:         string(task.Status),
		AssignedUserID: task.AssignedUserID,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	res, err := r.collection.InsertOne(ctx, doc)
	if err != nil {
		return err
	}

	task.ID = res.InsertedID.(primitive.ObjectID).Hex()
	task.CreatedAt = now
	task.UpdatedAt = now
	return nil
}

func (r *taskRepository) GetByID(ctx context.Context, id string) (*domain.Task, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, mongo.ErrNoDocuments
	}

	var doc taskDocument
	if err := r.collection.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		return nil, err
	}
	return doc.toDomain(), nil
}

func (r *taskRepository) Update(ctx context.Context, task *domain.Task) error {
	oid, err := primitive.ObjectIDFromHex(task.ID)
	if err != nil {
		return mongo.ErrNoDocuments
	}

	now := time.Now().UTC()
	res, err := r.collection.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{
		"$set": bson.M{
			"title":       task.Title,
			"description": task.Description,
			"status":      string(task.Status),
			"updated_at":  now,
		},
	})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	task.UpdatedAt = now
	return nil
}

func (r *taskRepository) Delete(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return mongo.ErrNoDocuments
	}

	res, err := r.collection.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

func (r *taskRepository) ListAll(ctx context.Context) ([]domain.Task, error) {
	return r.list(ctx, bson.M{})
}

func (r *taskRepository) ListByAssignee(ctx context.Context, userID string) ([]domain.Task, error) {
	return r.list(ctx, bson.M{"assigned_user_id": userID})
}

func (r *taskRepository) CountByAssignee(ctx context.Context, userID string) (int64, error) {
	return r.collection.CountDocuments(ctx, bson.M{"assigned_user_id": userID})
}

func (r *taskRepository) list(ctx context.Context, filter bson.M) ([]domain.Task, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var tasks []domain.Task
	for cursor.Next(ctx) {
		var doc taskDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		tasks = append(tasks, *doc.toDomain())
	}
	return tasks, cursor.Err()
}

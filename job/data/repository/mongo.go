package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/ncobase/jobqueue/job/structs"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// CollectionName is the MongoDB collection holding jobs
const CollectionName = "jobs"

// jobDocument stores the numeric priority rank next to the job fields
type jobDocument struct {
	structs.Job  `bson:",inline"`
	PriorityRank int `bson:"priority_rank"`
}

func toDocument(job *structs.Job) *jobDocument {
	return &jobDocument{Job: *job, PriorityRank: job.Priority.Rank()}
}

var mongoSortFields = map[string]string{
	"created_at":   "created_at",
	"started_at":   "started_at",
	"completed_at": "completed_at",
	"priority":     "priority_rank",
	"status":       "status",
	"job_type":     "job_type",
	"retry_count":  "retry_count",
}

type mongoRepository struct {
	coll *mongo.Collection
}

// NewMongoRepository returns a job repository backed by db's jobs collection
func NewMongoRepository(db *mongo.Database) (JobRepository, error) {
	if db == nil {
		return nil, errors.New("repository: nil mongo database")
	}
	return &mongoRepository{coll: db.Collection(CollectionName)}, nil
}

func (r *mongoRepository) CreateSchema(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "status", Value: 1}}},
		{Keys: bson.D{{Key: "job_type", Value: 1}}},
		{Keys: bson.D{{Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "status", Value: 1}, {Key: "priority_rank", Value: -1}, {Key: "created_at", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("create jobs indexes: %w", err)
	}
	return nil
}

func (r *mongoRepository) Create(ctx context.Context, job *structs.Job) error {
	if _, err := r.coll.InsertOne(ctx, toDocument(job)); err != nil {
		return fmt.Errorf("insert job %s: %w", job.ID, err)
	}
	return nil
}

func (r *mongoRepository) GetByID(ctx context.Context, id string) (*structs.Job, error) {
	var doc jobDocument
	err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get job %s: %w", id, err)
	}
	return &doc.Job, nil
}

func (r *mongoRepository) Update(ctx context.Context, job *structs.Job) error {
	if _, err := r.coll.ReplaceOne(ctx, bson.M{"_id": job.ID}, toDocument(job)); err != nil {
		return fmt.Errorf("update job %s: %w", job.ID, err)
	}
	return nil
}

func (r *mongoRepository) UpdateIf(ctx context.Context, job *structs.Job, from ...structs.JobStatus) (bool, error) {
	if len(from) == 0 {
		return false, errors.New("UpdateIf requires at least one expected status")
	}
	filter := bson.M{"_id": job.ID, "status": bson.M{"$in": from}}
	res, err := r.coll.ReplaceOne(ctx, filter, toDocument(job))
	if err != nil {
		return false, fmt.Errorf("update job %s: %w", job.ID, err)
	}
	return res.MatchedCount > 0, nil
}

func (r *mongoRepository) Delete(ctx context.Context, id string) (bool, error) {
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return false, fmt.Errorf("delete job %s: %w", id, err)
	}
	return res.DeletedCount > 0, nil
}

func (r *mongoRepository) List(ctx context.Context, params *structs.ListParams) ([]*structs.Job, int64, error) {
	filter := bson.M{}
	if params.Status != "" {
		filter["status"] = params.Status
	}
	if params.JobType != "" {
		filter["job_type"] = params.JobType
	}

	total, err := r.coll.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("count jobs: %w", err)
	}

	field, ok := mongoSortFields[params.SortBy]
	if !ok {
		field = mongoSortFields[structs.DefaultSortField]
	}
	dir := -1
	if params.SortOrder == "asc" {
		dir = 1
	}

	opts := options.Find().
		SetSort(bson.D{{Key: field, Value: dir}, {Key: "_id", Value: dir}}).
		SetSkip(int64(params.Offset)).
		SetLimit(int64(params.Limit))
	jobs, err := r.find(ctx, filter, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("list jobs: %w", err)
	}
	return jobs, total, nil
}

func (r *mongoRepository) GetPending(ctx context.Context, limit int) ([]*structs.Job, error) {
	opts := options.Find().SetSort(bson.D{
		{Key: "priority_rank", Value: -1},
		{Key: "created_at", Value: 1},
		{Key: "_id", Value: 1},
	})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	jobs, err := r.find(ctx, bson.M{"status": bson.M{"$in": structs.QueuedStatuses}}, opts)
	if err != nil {
		return nil, fmt.Errorf("get pending jobs: %w", err)
	}
	return jobs, nil
}

func (r *mongoRepository) GetByStatus(ctx context.Context, status structs.JobStatus) ([]*structs.Job, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}})
	jobs, err := r.find(ctx, bson.M{"status": status}, opts)
	if err != nil {
		return nil, fmt.Errorf("get %s jobs: %w", status, err)
	}
	return jobs, nil
}

func (r *mongoRepository) CountByStatus(ctx context.Context) (map[structs.JobStatus]int64, error) {
	cur, err := r.coll.Aggregate(ctx, mongo.Pipeline{
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$status"},
			{Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}},
		}}},
	})
	if err != nil {
		return nil, fmt.Errorf("count jobs by status: %w", err)
	}
	defer cur.Close(ctx)

	counts := make(map[structs.JobStatus]int64)
	for cur.Next(ctx) {
		var row struct {
			Status string `bson:"_id"`
			Count  int64  `bson:"count"`
		}
		if err := cur.Decode(&row); err != nil {
			return nil, fmt.Errorf("count jobs by status: %w", err)
		}
		counts[structs.JobStatus(row.Status)] = row.Count
	}
	return counts, cur.Err()
}

func (r *mongoRepository) CleanupOlderThan(ctx context.Context, days int) (int64, error) {
	before, err := cutoff(days)
	if err != nil {
		return 0, err
	}
	res, err := r.coll.DeleteMany(ctx, bson.M{
		"status":       bson.M{"$in": structs.TerminalStatuses},
		"completed_at": bson.M{"$ne": nil, "$lt": before},
	})
	if err != nil {
		return 0, fmt.Errorf("cleanup jobs: %w", err)
	}
	return res.DeletedCount, nil
}

func (r *mongoRepository) find(ctx context.Context, filter any, opts *options.FindOptions) ([]*structs.Job, error) {
	cur, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var jobs []*structs.Job
	for cur.Next(ctx) {
		var doc jobDocument
		if err := cur.Decode(&doc); err != nil {
			return nil, err
		}
		job := doc.Job
		jobs = append(jobs, &job)
	}
	return jobs, cur.Err()
}

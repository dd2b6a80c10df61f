package repository

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/ncobase/jobqueue/job/structs"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	_ "github.com/mattn/go-sqlite3"
)

type repoFactory func(t *testing.T) JobRepository

func newJob(jobType structs.JobType, priority structs.JobPriority, created time.Time) *structs.Job {
	job := structs.NewJob(&structs.JobRequest{JobType: jobType, Priority: &priority}, structs.DefaultMaxRetries)
	job.CreatedAt = created
	return job
}

func mustCreate(t *testing.T, repo JobRepository, jobs ...*structs.Job) {
	t.Helper()
	for _, j := range jobs {
		if err := repo.Create(context.Background(), j); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}
}

func runRepositoryTests(t *testing.T, factory repoFactory) {
	t.Run("CreateAndGet", func(t *testing.T) { testCreateAndGet(t, factory(t)) })
	t.Run("UpdateIf", func(t *testing.T) { testUpdateIf(t, factory(t)) })
	t.Run("Delete", func(t *testing.T) { testDelete(t, factory(t)) })
	t.Run("List", func(t *testing.T) { testList(t, factory(t)) })
	t.Run("GetPending", func(t *testing.T) { testGetPending(t, factory(t)) })
	t.Run("CountByStatus", func(t *testing.T) { testCountByStatus(t, factory(t)) })
	t.Run("Cleanup", func(t *testing.T) { testCleanup(t, factory(t)) })
}

func testCreateAndGet(t *testing.T, repo JobRepository) {
	ctx := context.Background()
	base := time.Now().UTC().Truncate(time.Millisecond)
	job := newJob(structs.TypeBulkImport, structs.PriorityHigh, base)
	job.Payload = map[string]any{"data": []any{"a", "b"}, "source": "csv"}
	mustCreate(t, repo, job)

	got, err := repo.GetByID(ctx, job.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.JobType != job.JobType || got.Status != structs.StatusPending || got.Priority != structs.PriorityHigh {
		t.Errorf("got %+v", got)
	}
	if !got.CreatedAt.Equal(job.CreatedAt) {
		t.Errorf("CreatedAt = %v, want %v", got.CreatedAt, job.CreatedAt)
	}
	if got.Payload["source"] != "csv" {
		t.Errorf("Payload = %v", got.Payload)
	}
	if got.StartedAt != nil || got.CompletedAt != nil || got.Result != nil || got.ErrorMessage != nil {
		t.Errorf("pending job has execution state: %+v", got)
	}

	if _, err := repo.GetByID(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetByID(missing) error = %v, want ErrNotFound", err)
	}

	got.Start()
	got.Complete(map[string]any{"imported_count": float64(2)})
	if err := repo.Update(ctx, got); err != nil {
		t.Fatalf("Update: %v", err)
	}
	again, err := repo.GetByID(ctx, job.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if again.Status != structs.StatusCompleted || again.StartedAt == nil || again.CompletedAt == nil {
		t.Errorf("after update: %+v", again)
	}
	if again.Result["imported_count"] != float64(2) {
		t.Errorf("Result = %v", again.Result)
	}
}

func testUpdateIf(t *testing.T, repo JobRepository) {
	ctx := context.Background()
	job := newJob(structs.TypeBulkExport, structs.PriorityNormal, time.Now().UTC())
	mustCreate(t, repo, job)

	cancelled := job.Clone()
	cancelled.Cancel()
	ok, err := repo.UpdateIf(ctx, cancelled, structs.StatusPending, structs.StatusRetrying)
	if err != nil || !ok {
		t.Fatalf("UpdateIf pending->cancelled = %v, %v", ok, err)
	}

	running := job.Clone()
	running.Start()
	ok, err = repo.UpdateIf(ctx, running, structs.StatusPending, structs.StatusRetrying)
	if err != nil {
		t.Fatalf("UpdateIf: %v", err)
	}
	if ok {
		t.Fatal("UpdateIf must not overwrite a cancelled job")
	}

	got, _ := repo.GetByID(ctx, job.ID)
	if got.Status != structs.StatusCancelled {
		t.Errorf("Status = %s, want cancelled", got.Status)
	}
}

func testDelete(t *testing.T, repo JobRepository) {
	ctx := context.Background()
	job := newJob(structs.TypeFileProcessing, structs.PriorityLow, time.Now().UTC())
	mustCreate(t, repo, job)

	if ok, err := repo.Delete(ctx, job.ID); err != nil || !ok {
		t.Fatalf("Delete = %v, %v", ok, err)
	}
	if ok, _ := repo.Delete(ctx, job.ID); ok {
		t.Error("second Delete reported a deletion")
	}
}

func testList(t *testing.T, repo JobRepository) {
	ctx := context.Background()
	base := time.Now().UTC().Add(-time.Hour).Truncate(time.Millisecond)
	var jobs []*structs.Job
	for i := 0; i < 5; i++ {
		jobType := structs.TypeBulkImport
		if i%2 == 1 {
			jobType = structs.TypeReportGeneration
		}
		jobs = append(jobs, newJob(jobType, structs.PriorityNormal, base.Add(time.Duration(i)*time.Minute)))
	}
	jobs[4].Priority = structs.PriorityCritical
	jobs[0].Priority = structs.PriorityLow
	mustCreate(t, repo, jobs...)

	failed := jobs[2].Clone()
	failed.Start()
	failed.Fail("x")
	if err := repo.Update(ctx, failed); err != nil {
		t.Fatalf("Update: %v", err)
	}

	params := &structs.ListParams{}
	_ = params.Normalize()
	got, total, err := repo.List(ctx, params)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if total != 5 || len(got) != 5 {
		t.Fatalf("List total=%d len=%d, want 5", total, len(got))
	}
	if got[0].ID != jobs[4].ID || got[4].ID != jobs[0].ID {
		t.Error("default order should be newest first")
	}

	params = &structs.ListParams{JobType: structs.TypeReportGeneration}
	_ = params.Normalize()
	got, total, _ = repo.List(ctx, params)
	if total != 2 || len(got) != 2 {
		t.Errorf("type filter total=%d len=%d, want 2", total, len(got))
	}

	params = &structs.ListParams{Status: structs.StatusFailed}
	_ = params.Normalize()
	got, total, _ = repo.List(ctx, params)
	if total != 1 || len(got) != 1 || got[0].ID != jobs[2].ID {
		t.Errorf("status filter returned %d jobs", len(got))
	}

	params = &structs.ListParams{}
	params.Limit, params.Offset, params.SortBy, params.SortOrder = 2, 1, "created_at", "asc"
	_ = params.Normalize()
	got, total, _ = repo.List(ctx, params)
	if total != 5 || len(got) != 2 || got[0].ID != jobs[1].ID || got[1].ID != jobs[2].ID {
		t.Errorf("paged ascending list wrong: total=%d len=%d", total, len(got))
	}

	params = &structs.ListParams{}
	params.SortBy = "priority"
	_ = params.Normalize()
	got, _, _ = repo.List(ctx, params)
	if got[0].Priority != structs.PriorityCritical || got[len(got)-1].Priority != structs.PriorityLow {
		t.Errorf("priority sort must be by rank, got first=%s last=%s", got[0].Priority, got[len(got)-1].Priority)
	}
}

func testGetPending(t *testing.T, repo JobRepository) {
	ctx := context.Background()
	base := time.Now().UTC().Add(-time.Hour).Truncate(time.Millisecond)

	low := newJob(structs.TypeBulkImport, structs.PriorityLow, base)
	normalOld := newJob(structs.TypeBulkImport, structs.PriorityNormal, base.Add(time.Second))
	normalNew := newJob(structs.TypeBulkImport, structs.PriorityNormal, base.Add(2*time.Second))
	critical := newJob(structs.TypeBulkImport, structs.PriorityCritical, base.Add(3*time.Second))
	high := newJob(structs.TypeBulkImport, structs.PriorityHigh, base.Add(4*time.Second))
	done := newJob(structs.TypeBulkImport, structs.PriorityCritical, base)
	mustCreate(t, repo, low, normalOld, normalNew, critical, high, done)

	retrying := normalNew.Clone()
	retrying.Fail("x")
	retrying.Retry()
	_ = repo.Update(ctx, retrying)

	completed := done.Clone()
	completed.Start()
	completed.Complete(map[string]any{})
	_ = repo.Update(ctx, completed)

	got, err := repo.GetPending(ctx, 0)
	if err != nil {
		t.Fatalf("GetPending: %v", err)
	}
	want := []string{critical.ID, high.ID, normalOld.ID, normalNew.ID, low.ID}
	if len(got) != len(want) {
		t.Fatalf("GetPending returned %d jobs, want %d", len(got), len(want))
	}
	for i, id := range want {
		if got[i].ID != id {
			t.Errorf("position %d: got %s (%s), want %s", i, got[i].ID, got[i].Priority, id)
		}
	}

	got, _ = repo.GetPending(ctx, 2)
	if len(got) != 2 {
		t.Errorf("limited GetPending returned %d jobs", len(got))
	}

	byStatus, err := repo.GetByStatus(ctx, structs.StatusRetrying)
	if err != nil || len(byStatus) != 1 || byStatus[0].ID != normalNew.ID {
		t.Errorf("GetByStatus(retrying) = %d jobs, %v", len(byStatus), err)
	}
}

func testCountByStatus(t *testing.T, repo JobRepository) {
	ctx := context.Background()
	a := newJob(structs.TypeBulkImport, structs.PriorityNormal, time.Now().UTC())
	b := newJob(structs.TypeBulkImport, structs.PriorityNormal, time.Now().UTC())
	c := newJob(structs.TypeBulkImport, structs.PriorityNormal, time.Now().UTC())
	mustCreate(t, repo, a, b, c)

	c.Start()
	_ = repo.Update(ctx, c)

	counts, err := repo.CountByStatus(ctx)
	if err != nil {
		t.Fatalf("CountByStatus: %v", err)
	}
	if counts[structs.StatusPending] != 2 || counts[structs.StatusRunning] != 1 {
		t.Errorf("counts = %v", counts)
	}
}

func testCleanup(t *testing.T, repo JobRepository) {
	ctx := context.Background()
	old := time.Now().UTC().Add(-10 * 24 * time.Hour).Truncate(time.Millisecond)

	oldDone := newJob(structs.TypeBulkImport, structs.PriorityNormal, old)
	oldDone.Start()
	oldDone.Complete(map[string]any{})
	oldDone.CompletedAt = &old

	oldFailed := newJob(structs.TypeBulkImport, structs.PriorityNormal, old)
	oldFailed.Fail("x")
	oldFailed.CompletedAt = &old

	recent := newJob(structs.TypeBulkImport, structs.PriorityNormal, old)
	recent.Cancel()

	oldPending := newJob(structs.TypeBulkImport, structs.PriorityNormal, old)

	mustCreate(t, repo, oldDone, oldFailed, recent, oldPending)

	n, err := repo.CleanupOlderThan(ctx, 7)
	if err != nil {
		t.Fatalf("CleanupOlderThan: %v", err)
	}
	if n != 2 {
		t.Errorf("deleted %d jobs, want 2", n)
	}
	if _, err := repo.GetByID(ctx, recent.ID); err != nil {
		t.Error("recently cancelled job was deleted")
	}
	if _, err := repo.GetByID(ctx, oldPending.ID); err != nil {
		t.Error("pending job was deleted")
	}

	if _, err := repo.CleanupOlderThan(ctx, -1); err == nil {
		t.Error("expected error for negative days")
	}
}

func TestMemoryRepository(t *testing.T) {
	runRepositoryTests(t, func(t *testing.T) JobRepository {
		return NewMemoryRepository()
	})
}

func TestSQLiteRepository(t *testing.T) {
	runRepositoryTests(t, func(t *testing.T) JobRepository {
		db, err := sql.Open("sqlite3", ":memory:")
		if err != nil {
			t.Fatalf("open sqlite: %v", err)
		}
		db.SetMaxOpenConns(1)
		if err := db.Ping(); err != nil {
			t.Skipf("sqlite unavailable: %v", err)
		}
		t.Cleanup(func() { _ = db.Close() })

		repo, err := NewSQLRepository(db, DialectSQLite)
		if err != nil {
			t.Fatalf("NewSQLRepository: %v", err)
		}
		if err := repo.CreateSchema(context.Background()); err != nil {
			t.Fatalf("CreateSchema: %v", err)
		}
		// schema creation is idempotent
		if err := repo.CreateSchema(context.Background()); err != nil {
			t.Fatalf("CreateSchema twice: %v", err)
		}
		return repo
	})
}

// TestMongoRepository runs against a live server when JOBQUEUE_TEST_MONGO_URI
// is set.
func TestMongoRepository(t *testing.T) {
	uri := os.Getenv("JOBQUEUE_TEST_MONGO_URI")
	if uri == "" {
		t.Skip("JOBQUEUE_TEST_MONGO_URI not set")
	}
	runRepositoryTests(t, func(t *testing.T) JobRepository {
		ctx := context.Background()
		client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri).
			SetBSONOptions(&options.BSONOptions{DefaultDocumentM: true}))
		if err != nil {
			t.Fatalf("connect: %v", err)
		}
		db := client.Database("jobqueue_test")
		_ = db.Collection(CollectionName).Drop(ctx)
		t.Cleanup(func() {
			_ = db.Drop(ctx)
			_ = client.Disconnect(ctx)
		})

		repo, err := NewMongoRepository(db)
		if err != nil {
			t.Fatalf("NewMongoRepository: %v", err)
		}
		if err := repo.CreateSchema(ctx); err != nil {
			t.Fatalf("CreateSchema: %v", err)
		}
		return repo
	})
}

func TestNewSQLRepositoryRejectsUnknownDialect(t *testing.T) {
	if _, err := NewSQLRepository(&sql.DB{}, "oracle"); err == nil {
		t.Error("expected error for unsupported dialect")
	}
	if _, err := NewSQLRepository(nil, DialectSQLite); err == nil {
		t.Error("expected error for nil db")
	}
}

func TestRebind(t *testing.T) {
	r := &sqlRepository{dialect: DialectPostgres}
	got := r.rebind(`SELECT * FROM jobs WHERE status IN (?, ?) LIMIT ?`)
	want := `SELECT * FROM jobs WHERE status IN ($1, $2) LIMIT $3`
	if got != want {
		t.Errorf("rebind = %q, want %q", got, want)
	}

	r.dialect = DialectMySQL
	if got := r.rebind("a = ?"); got != "a = ?" {
		t.Errorf("mysql rebind changed query: %q", got)
	}
}

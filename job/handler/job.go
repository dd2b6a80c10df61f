// Package handler provides HTTP endpoints for job management.
package handler

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/ncobase/jobqueue/ctxutil"
	"github.com/ncobase/jobqueue/ecode"
	"github.com/ncobase/jobqueue/job"
	"github.com/ncobase/jobqueue/job/notifier"
	"github.com/ncobase/jobqueue/job/structs"
	"github.com/ncobase/jobqueue/logging/logger"
	"github.com/ncobase/jobqueue/net/resp"
	"github.com/ncobase/jobqueue/paging"
)

// DefaultCleanupDays applies to cleanup requests without a days parameter
const DefaultCleanupDays = 30

// JobHandler handles job HTTP requests.
type JobHandler struct {
	queue       *job.Queue
	bus         *notifier.Bus
	logger      *logger.Logger
	cleanupDays int
}

// NewJobHandler creates a new job handler. bus may be nil, in which case the
// event stream is not served.
func NewJobHandler(queue *job.Queue, bus *notifier.Bus, l *logger.Logger, cleanupDays int) *JobHandler {
	if l == nil {
		l = logger.StdLogger()
	}
	if cleanupDays <= 0 {
		cleanupDays = DefaultCleanupDays
	}
	return &JobHandler{queue: queue, bus: bus, logger: l, cleanupDays: cleanupDays}
}

// Register mounts the job routes on r
func (h *JobHandler) Register(r gin.IRouter) {
	r.GET("/health", h.Health)

	jobs := r.Group("/jobs")
	jobs.POST("", h.CreateJob)
	jobs.GET("", h.ListJobs)
	jobs.GET("/stats", h.GetStats)
	jobs.GET("/events", h.StreamEvents)
	jobs.POST("/cleanup", h.Cleanup)
	jobs.GET("/:id", h.GetJob)
	jobs.GET("/:id/status", h.GetJobStatus)
	jobs.POST("/:id/cancel", h.CancelJob)
	jobs.POST("/:id/retry", h.RetryJob)
}

// CreateJob handles job creation.
func (h *JobHandler) CreateJob(c *gin.Context) {
	var req structs.JobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		resp.Fail(c.Writer, resp.BadRequest(ecode.FieldIsInvalid("request body"), err.Error()))
		return
	}

	id, err := h.queue.Submit(ctxutil.FromGinContext(c), &req)
	if err != nil {
		h.fail(c, err)
		return
	}

	resp.WithStatusCode(c.Writer, http.StatusCreated, &structs.SubmitResponse{JobID: id, Status: structs.StatusPending})
}

// GetJob retrieves a job by ID.
func (h *JobHandler) GetJob(c *gin.Context) {
	j, err := h.queue.Status(ctxutil.FromGinContext(c), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	resp.Success(c.Writer, j.Response())
}

// GetJobStatus returns only the status of a job.
func (h *JobHandler) GetJobStatus(c *gin.Context) {
	j, err := h.queue.Status(ctxutil.FromGinContext(c), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	resp.Success(c.Writer, &structs.SubmitResponse{JobID: j.ID, Status: j.Status})
}

// ListJobs lists jobs with optional status and type filters.
func (h *JobHandler) ListJobs(c *gin.Context) {
	var params structs.ListParams
	if err := c.ShouldBindQuery(&params); err != nil {
		resp.Fail(c.Writer, resp.BadRequest(ecode.FieldIsInvalid("query"), err.Error()))
		return
	}

	list, err := h.queue.List(ctxutil.FromGinContext(c), &params)
	if err != nil {
		h.fail(c, err)
		return
	}

	items := make([]*structs.JobResponse, len(list.Items))
	for i, j := range list.Items {
		items[i] = j.Response()
	}
	resp.Success(c.Writer, &paging.Result[*structs.JobResponse]{
		Items:       items,
		Total:       list.Total,
		Limit:       list.Limit,
		Offset:      list.Offset,
		HasNextPage: list.HasNextPage,
	})
}

// GetStats returns job statistics.
func (h *JobHandler) GetStats(c *gin.Context) {
	stats, err := h.queue.Stats(ctxutil.FromGinContext(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	resp.Success(c.Writer, stats)
}

// CancelJob cancels a job that has not started.
func (h *JobHandler) CancelJob(c *gin.Context) {
	ok, err := h.queue.Cancel(ctxutil.FromGinContext(c), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	if !ok {
		resp.Fail(c.Writer, resp.FromCode(ecode.JobNotCancellable, ""))
		return
	}
	resp.Success(c.Writer, "Job cancelled successfully")
}

// RetryJob applies one retry to a failed job.
func (h *JobHandler) RetryJob(c *gin.Context) {
	ok, err := h.queue.Retry(ctxutil.FromGinContext(c), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	if !ok {
		resp.Fail(c.Writer, resp.FromCode(ecode.JobNotRetryable, ""))
		return
	}
	resp.Success(c.Writer, "Job retry scheduled")
}

// Cleanup deletes finished jobs older than the days query parameter.
func (h *JobHandler) Cleanup(c *gin.Context) {
	days := h.cleanupDays
	if v := c.Query("days"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			resp.Fail(c.Writer, resp.BadRequest(ecode.FieldIsInvalid("days")))
			return
		}
		days = n
	}

	deleted, err := h.queue.Cleanup(ctxutil.FromGinContext(c), days)
	if err != nil {
		h.fail(c, err)
		return
	}
	resp.Success(c.Writer, map[string]any{"deleted_count": deleted, "older_than_days": days})
}

// StreamEvents streams job lifecycle events as server-sent events until the
// client disconnects or the bus closes its streams on shutdown.
func (h *JobHandler) StreamEvents(c *gin.Context) {
	if h.bus == nil {
		resp.Fail(c.Writer, resp.NotFound("event stream disabled"))
		return
	}

	events, unsubscribe := h.bus.Stream(64)
	defer unsubscribe()

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Status(http.StatusOK)
	c.Writer.Flush()

	c.Stream(func(w io.Writer) bool {
		select {
		case e, ok := <-events:
			if !ok {
				return false
			}
			c.SSEvent(string(e.Type), e)
			return true
		case <-c.Request.Context().Done():
			return false
		}
	})
}

// Health reports whether the queue accepts work.
func (h *JobHandler) Health(c *gin.Context) {
	if !h.queue.Running() {
		resp.Fail(c.Writer, resp.ServiceUnavailable("job queue not running"))
		return
	}
	resp.Success(c.Writer, map[string]any{"status": "ok"})
}

// fail maps queue errors onto responses
func (h *JobHandler) fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, job.ErrInvalidRequest):
		resp.Fail(c.Writer, resp.FromCode(ecode.ParamErr, err.Error()))
	case errors.Is(err, job.ErrNotFound):
		resp.Fail(c.Writer, resp.NotFound(ecode.NotExist("job")))
	case errors.Is(err, job.ErrUnavailable):
		h.logger.Error(ctxutil.FromGinContext(c), "Job system unavailable", "error", err)
		resp.Fail(c.Writer, resp.ServiceUnavailable(job.ErrUnavailable.Error()))
	default:
		h.logger.Error(ctxutil.FromGinContext(c), "Job request failed", "error", err)
		resp.Fail(c.Writer, resp.InternalServer(""))
	}
}

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/marketlens/stockq/internal/api/shared"
	"github.com/marketlens/stockq/internal/queue"
)

// QueueHandler handles task-queue HTTP requests.
type QueueHandler struct {
	service *queue.Service
}

// NewQueueHandler creates a new QueueHandler.
func NewQueueHandler(service *queue.Service) *QueueHandler {
	return &QueueHandler{service: service}
}

// getPathUUID extracts and parses a UUID path parameter.
func getPathUUID(r *http.Request, paramName string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, paramName))
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}

// EnqueueTask handles POST /api/tasks requests.
// Submission is asynchronous: a 202 means the task is queued, not done.
func (h *QueueHandler) EnqueueTask(w http.ResponseWriter, r *http.Request) {
	var req EnqueueTaskRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}

	if err := shared.ValidateRequest(&req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	taskID, err := h.service.Enqueue(r.Context(), req.UserID, req.Symbol, req.Params, req.BatchID)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusAccepted, EnqueueTaskResponse{
		TaskID: taskID,
		Status: "queued",
	})
}

// CreateBatch handles POST /api/batches requests.
func (h *QueueHandler) CreateBatch(w http.ResponseWriter, r *http.Request) {
	var req CreateBatchRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}

	if err := shared.ValidateRequest(&req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	batchID, total, err := h.service.CreateBatch(r.Context(), req.UserID, req.Symbols, req.Params)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusAccepted, CreateBatchResponse{
		BatchID:    batchID,
		TotalTasks: total,
		Status:     "queued",
	})
}

// GetTask handles GET /api/tasks/{id} requests.
func (h *QueueHandler) GetTask(w http.ResponseWriter, r *http.Request) {
	id, ok := getPathUUID(r, "id")
	if !ok {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid task ID")
		return
	}

	task, err := h.service.GetTask(r.Context(), id)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, taskToResponse(task))
}

// GetBatch handles GET /api/batches/{id} requests.
func (h *QueueHandler) GetBatch(w http.ResponseWriter, r *http.Request) {
	id, ok := getPathUUID(r, "id")
	if !ok {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid batch ID")
		return
	}

	batch, err := h.service.GetBatch(r.Context(), id)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, batchToResponse(batch))
}

// CancelTask handles DELETE /api/tasks/{id} requests. Cancelling an
// already-terminal task reports cancelled=false rather than an error.
func (h *QueueHandler) CancelTask(w http.ResponseWriter, r *http.Request) {
	id, ok := getPathUUID(r, "id")
	if !ok {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid task ID")
		return
	}

	cancelled, err := h.service.Cancel(r.Context(), id)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, CancelResponse{Cancelled: cancelled})
}

// CancelBatch handles DELETE /api/batches/{id} requests.
func (h *QueueHandler) CancelBatch(w http.ResponseWriter, r *http.Request) {
	id, ok := getPathUUID(r, "id")
	if !ok {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid batch ID")
		return
	}

	cancelled, err := h.service.CancelBatch(r.Context(), id)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, CancelBatchResponse{TasksCancelled: cancelled})
}

// GetStats handles GET /api/queue/stats requests.
func (h *QueueHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.Stats(r.Context())
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, stats)
}

// GetUserQueueStatus handles GET /api/queue/users/{userID} requests.
func (h *QueueHandler) GetUserQueueStatus(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	if userID == "" {
		shared.RespondWithError(w, r, http.StatusBadRequest, "User ID is required")
		return
	}

	status, err := h.service.Admission().UserStatus(r.Context(), userID)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, status)
}

// Routes mounts the queue endpoints on a chi router.
func (h *QueueHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Route("/tasks", func(r chi.Router) {
		r.Post("/", h.EnqueueTask)
		r.Get("/{id}", h.GetTask)
		r.Delete("/{id}", h.CancelTask)
	})
	r.Route("/batches", func(r chi.Router) {
		r.Post("/", h.CreateBatch)
		r.Get("/{id}", h.GetBatch)
		r.Delete("/{id}", h.CancelBatch)
	})
	r.Route("/queue", func(r chi.Router) {
		r.Get("/stats", h.GetStats)
		r.Get("/users/{userID}", h.GetUserQueueStatus)
	})

	return r
}

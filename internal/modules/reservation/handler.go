package reservation

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"venuebook/internal/middleware"
	"venuebook/internal/notification"
	"venuebook/internal/pkg/response"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes expects rg to sit behind JWTAuth. manage guards resource
// administration.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, manage gin.HandlerFunc) {
	rg.POST("/reservations", h.Create)
	rg.POST("/reservations/recurring", h.CreateRecurring)
	rg.GET("/reservations/:id", h.Get)
	rg.PATCH("/reservations/:id", h.Update)
	rg.DELETE("/reservations/:id", h.Delete)
	rg.POST("/reservations/:id/confirm", h.Confirm)
	rg.POST("/reservations/:id/cancel", h.Cancel)
	rg.POST("/reservations/:id/finalize", h.Finalize)

	rg.GET("/resources", h.ListResources)
	rg.GET("/resources/:id/reservations", h.ListForResource)
	rg.POST("/resources", manage, h.CreateResource)
	rg.PATCH("/resources/:id/active", manage, h.SetResourceActive)
}

func actorFrom(c *gin.Context) Actor {
	return Actor{
		UserID:   c.GetInt64(middleware.CtxUserID),
		TenantID: c.GetInt64(middleware.CtxTenantID),
	}
}

func parseID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		response.Error(c, http.StatusBadRequest, "validation", "invalid id")
		return 0, false
	}
	return id, true
}

func (h *Handler) Create(c *gin.Context) {
	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest, "validation", "invalid request body", err.Error())
		return
	}

	res, err := h.service.Create(c.Request.Context(), actorFrom(c), req)
	if err != nil {
		response.FromError(c, err)
		return
	}
	respond(c, http.StatusCreated, notification.KindReservationCreated, res)
}

func (h *Handler) CreateRecurring(c *gin.Context) {
	var req RecurringRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest, "validation", "invalid request body", err.Error())
		return
	}

	report, err := h.service.CreateRecurring(c.Request.Context(), actorFrom(c), req)
	if err != nil {
		response.FromError(c, err)
		return
	}

	switch report.Outcome {
	case OutcomeSeriesNone:
		response.ErrorWithDetails(c, http.StatusConflict, report.Outcome, "no reservations created", report)
	case OutcomeSeriesPartial:
		response.SuccessWithDetails(c, http.StatusCreated, report.Outcome, report, gin.H{
			"created":      report.SuccessCount,
			"skipped":      report.FailCount,
			"failed_dates": report.FailedDates,
		})
	default:
		response.Success(c, http.StatusCreated, report.Outcome, report)
	}
}

func (h *Handler) Get(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	r, err := h.service.Get(c.Request.Context(), actorFrom(c), id)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, "reservation", r)
}

func (h *Handler) Update(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest, "validation", "invalid request body", err.Error())
		return
	}

	res, err := h.service.Update(c.Request.Context(), actorFrom(c), id, req)
	if err != nil {
		response.FromError(c, err)
		return
	}
	respond(c, http.StatusOK, notification.KindReservationUpdated, res)
}

func (h *Handler) Delete(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	res, err := h.service.Delete(c.Request.Context(), actorFrom(c), id)
	if err != nil {
		response.FromError(c, err)
		return
	}
	respond(c, http.StatusOK, notification.KindReservationDeleted, res)
}

func (h *Handler) Confirm(c *gin.Context) {
	h.transition(c, h.service.Confirm, notification.KindReservationConfirmed)
}

func (h *Handler) Cancel(c *gin.Context) {
	h.transition(c, h.service.Cancel, notification.KindReservationCancelled)
}

func (h *Handler) Finalize(c *gin.Context) {
	h.transition(c, h.service.Finalize, notification.KindReservationFinalized)
}

func (h *Handler) transition(c *gin.Context, fn func(context.Context, Actor, int64) (*Result, error), kind string) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	res, err := fn(c.Request.Context(), actorFrom(c), id)
	if err != nil {
		response.FromError(c, err)
		return
	}
	respond(c, http.StatusOK, kind, res)
}

func (h *Handler) ListForResource(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	req := ListRequest{ResourceID: id}
	var err error
	if req.From, err = parseTimeQuery(c, "from"); err != nil {
		response.Error(c, http.StatusBadRequest, "validation", "from must be RFC3339")
		return
	}
	if req.To, err = parseTimeQuery(c, "to"); err != nil {
		response.Error(c, http.StatusBadRequest, "validation", "to must be RFC3339")
		return
	}
	req.IncludeCancelled = c.Query("include_cancelled") == "true"
	req.Limit, _ = strconv.Atoi(c.Query("limit"))
	req.Offset, _ = strconv.Atoi(c.Query("offset"))

	rows, err := h.service.List(c.Request.Context(), actorFrom(c), req)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, "reservations", rows)
}

func (h *Handler) ListResources(c *gin.Context) {
	rows, err := h.service.ListResources(c.Request.Context(), actorFrom(c), c.Query("active") == "true")
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, "resources", rows)
}

func (h *Handler) CreateResource(c *gin.Context) {
	var req CreateResourceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest, "validation", "invalid request body", err.Error())
		return
	}
	res, err := h.service.CreateResource(c.Request.Context(), actorFrom(c), req)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, "resource_created", res)
}

func (h *Handler) SetResourceActive(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req struct {
		Active *bool `json:"active" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest, "validation", "invalid request body", err.Error())
		return
	}
	res, err := h.service.SetResourceActive(c.Request.Context(), actorFrom(c), id, *req.Active)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, "resource_updated", res)
}

func respond(c *gin.Context, status int, kind string, res *Result) {
	if !res.Changed {
		kind = "unchanged"
	}
	if len(res.Warnings) > 0 {
		response.SuccessWithDetails(c, status, kind, res.Reservation, gin.H{"warnings": res.Warnings})
		return
	}
	response.Success(c, status, kind, res.Reservation)
}

func parseTimeQuery(c *gin.Context, key string) (*time.Time, error) {
	v := c.Query(key)
	if v == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

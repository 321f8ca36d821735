package attendance

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"EEOS-client/internal/platform/apierr"
	"EEOS-client/internal/platform/auth"
	"EEOS-client/internal/platform/httpx"
)

type Handler struct{ svc *Service }

// RegisterRoutes mounts the program and attendance endpoints behind requireAuth.
func RegisterRoutes(r gin.IRoutes, svc *Service, requireAuth gin.HandlerFunc) {
	h := &Handler{svc: svc}
	r.GET("/programs", requireAuth, h.ListPrograms)
	r.GET("/programs/:programId", requireAuth, h.GetProgram)
	r.GET("/programs/:programId/attendees", requireAuth, h.ListAttendees)
	r.PUT("/attendance", requireAuth, h.UpdateStatus)
}

// GET /programs?category=&status=&page=&size=
func (h *Handler) ListPrograms(c *gin.Context) {
	q := ProgramQuery{
		Category: c.DefaultQuery("category", CategoryAll),
		Status:   c.DefaultQuery("status", ProgramActive),
		Page:     httpx.ParseIntDefault(c.Query("page"), 0),
		Size:     httpx.ParseIntDefault(c.Query("size"), DefaultPageSize),
	}
	res, err := h.svc.ListPrograms(c.Request.Context(), q)
	if err != nil {
		httpx.Fail(c, err)
		return
	}
	httpx.OK(c, http.StatusOK, res)
}

// GET /programs/:programId
func (h *Handler) GetProgram(c *gin.Context) {
	id, ok := programID(c)
	if !ok {
		return
	}
	memberID, ok := auth.MemberID(c)
	if !ok {
		httpx.Abort(c, http.StatusUnauthorized, apierr.CodeUnauthorized, "no member in context")
		return
	}
	res, err := h.svc.GetProgram(c.Request.Context(), id, memberID)
	if err != nil {
		httpx.Fail(c, err)
		return
	}
	httpx.OK(c, http.StatusOK, res)
}

// GET /programs/:programId/attendees?status=&page=&size=
func (h *Handler) ListAttendees(c *gin.Context) {
	id, ok := programID(c)
	if !ok {
		return
	}
	q := AttendeeQuery{
		ProgramID: id,
		Status:    c.Query("status"),
		Page:      httpx.ParseIntDefault(c.Query("page"), 0),
		Size:      httpx.ParseIntDefault(c.Query("size"), DefaultPageSize),
	}
	res, err := h.svc.ListAttendees(c.Request.Context(), q)
	if err != nil {
		httpx.Fail(c, err)
		return
	}
	httpx.OK(c, http.StatusOK, res)
}

// PUT /attendance
func (h *Handler) UpdateStatus(c *gin.Context) {
	memberID, ok := auth.MemberID(c)
	if !ok {
		httpx.Abort(c, http.StatusUnauthorized, apierr.CodeUnauthorized, "no member in context")
		return
	}
	var req UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.Abort(c, http.StatusBadRequest, apierr.CodeInvalidArgument, "invalid json or missing required fields")
		return
	}
	if err := h.svc.UpdateStatus(c.Request.Context(), memberID, req); err != nil {
		httpx.Fail(c, err)
		return
	}
	httpx.OK(c, http.StatusOK, nil)
}

func programID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("programId"), 10, 64)
	if err != nil || id <= 0 {
		httpx.Abort(c, http.StatusBadRequest, apierr.CodeInvalidArgument, "programId must be a positive integer")
		return 0, false
	}
	return id, true
}

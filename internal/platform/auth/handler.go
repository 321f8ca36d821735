package auth

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"EEOS-client/internal/platform/apierr"
	"EEOS-client/internal/platform/httpx"
)

type Handler struct{ svc *Service }

func RegisterRoutes(r gin.IRoutes, svc *Service) {
	h := &Handler{svc: svc}
	r.POST("/login", h.Login)
	r.POST("/token/reissue", h.Reissue)
	r.DELETE("/account", RequireAuth(svc), h.DeleteAccount)
}

// POST /login
func (h *Handler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.Abort(c, http.StatusBadRequest, apierr.CodeInvalidArgument, "code is required")
		return
	}
	pair, err := h.svc.Login(c.Request.Context(), req.Code)
	if err != nil {
		httpx.Fail(c, err)
		return
	}
	httpx.OK(c, http.StatusOK, pair)
}

// POST /token/reissue
func (h *Handler) Reissue(c *gin.Context) {
	var req reissueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.Abort(c, http.StatusBadRequest, apierr.CodeInvalidArgument, "refreshToken is required")
		return
	}
	pair, err := h.svc.Reissue(c.Request.Context(), req.RefreshToken)
	if err != nil {
		httpx.Fail(c, err)
		return
	}
	httpx.OK(c, http.StatusOK, pair)
}

// DELETE /account
func (h *Handler) DeleteAccount(c *gin.Context) {
	id, ok := MemberID(c)
	if !ok {
		httpx.Abort(c, http.StatusUnauthorized, apierr.CodeUnauthorized, "no member in context")
		return
	}
	if err := h.svc.DeleteAccount(c.Request.Context(), id); err != nil {
		httpx.Fail(c, err)
		return
	}
	httpx.OK(c, http.StatusOK, nil)
}

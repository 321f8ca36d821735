package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"EEOS-client/internal/platform/apierr"
	"EEOS-client/internal/platform/httpx"
)

const CtxMemberIDKey = "member_id"

// RequireAuth verifies "Authorization: Bearer <token>" and stores the member
// id in the gin context. Every rejection is a 401 so clients know to reissue.
func RequireAuth(svc *Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		h := c.GetHeader("Authorization")
		parts := strings.SplitN(h, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
			httpx.Abort(c, http.StatusUnauthorized, apierr.CodeUnauthorized, "missing bearer token")
			return
		}

		memberID, err := svc.ParseAccess(strings.TrimSpace(parts[1]))
		if err != nil {
			httpx.Abort(c, http.StatusUnauthorized, apierr.CodeUnauthorized, "invalid or expired token")
			return
		}

		c.Set(CtxMemberIDKey, memberID)
		c.Next()
	}
}

// MemberID returns the id stored by RequireAuth.
func MemberID(c *gin.Context) (int64, bool) {
	v, ok := c.Get(CtxMemberIDKey)
	if !ok {
		return 0, false
	}
	id, ok := v.(int64)
	return id, ok
}

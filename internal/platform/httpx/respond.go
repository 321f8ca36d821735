package httpx

import (
	"encoding/json"
	"errors"
	"log"
	"strconv"

	"github.com/gin-gonic/gin"

	"EEOS-client/internal/platform/apierr"
)

// OK writes data inside a successful envelope.
func OK(c *gin.Context, status int, data any) {
	env := apierr.Envelope{Success: true}
	if data != nil {
		buf, err := json.Marshal(data)
		if err != nil {
			Fail(c, err)
			return
		}
		env.Data = buf
	}
	c.JSON(status, env)
}

// Fail answers with the envelope for err. Errors that are not a
// *DomainError are logged and reported as INTERNAL without their text.
func Fail(c *gin.Context, err error) {
	c.AbortWithStatusJSON(ToHTTPStatus(err), errorFromErr(c, err))
}

// Abort answers with an explicit status and code.
func Abort(c *gin.Context, status int, code, msg string) {
	c.AbortWithStatusJSON(status, errorBody(code, msg))
}

func errorBody(code, msg string) apierr.Envelope {
	return apierr.Envelope{Success: false, Code: code, Message: msg}
}

func errorFromErr(c *gin.Context, err error) apierr.Envelope {
	var de *DomainError
	if errors.As(err, &de) {
		return errorBody(de.Code, de.Message)
	}
	log.Printf("[ERROR] %s %s: %v", c.Request.Method, c.Request.URL.Path, err)
	return errorBody(apierr.CodeInternal, "internal error")
}

// ParseIntDefault parses s, falling back to d when s is empty or malformed.
func ParseIntDefault(s string, d int) int {
	if s == "" {
		return d
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return d
	}
	return v
}

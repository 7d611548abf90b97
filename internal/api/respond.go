// internal/api/respond.go
// Error response mapping from service failure values to HTTP status codes

package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/oakleyfoy/rw-tournament-software-sub000/internal/apperr"
)

// respondError maps a service failure to its HTTP status and JSON body.
// Non-structured errors surface as 500 with a stable code and no internals.
func respondError(c *gin.Context, err error) {
	status := apperr.StatusCode(err)
	if e := apperr.From(err); e != nil {
		body := gin.H{"code": e.Code, "error": e.Message}
		if len(e.Context) > 0 {
			body["context"] = e.Context
		}
		c.JSON(status, body)
		return
	}

	c.Error(err)
	c.JSON(http.StatusInternalServerError, gin.H{
		"code":  apperr.CodeInternal,
		"error": "An unexpected error occurred",
	})
}

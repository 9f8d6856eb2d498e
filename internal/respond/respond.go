// Package respond writes the API envelope every client screen expects:
// {"status": bool, "statusCode": int, "error": ..., "data": ...}.
// Business-rule rejections keep their domain code and message so the client
// can show them verbatim; only unknown failures collapse to a generic 500.
package respond

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tashmeduni/navbat-back/internal/catchup"
)

type envelope struct {
	Status     bool        `json:"status"`
	StatusCode int         `json:"statusCode"`
	Error      interface{} `json:"error"`
	Data       interface{} `json:"data"`
}

func OK(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, envelope{Status: true, StatusCode: http.StatusOK, Data: data})
}

func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, envelope{Status: true, StatusCode: http.StatusCreated, Data: data})
}

// Fail writes a plain error message with the given status.
func Fail(c *gin.Context, status int, message string) {
	c.JSON(status, envelope{Status: false, StatusCode: status, Error: gin.H{"message": message}})
}

// DomainError maps a catchup error to its HTTP status, keeping code and
// message intact. Anything else becomes an opaque 500.
func DomainError(c *gin.Context, err error) {
	if e, ok := catchup.AsError(err); ok {
		status := catchup.HTTPStatus(err)
		c.JSON(status, envelope{Status: false, StatusCode: status, Error: e})
		return
	}
	c.JSON(http.StatusInternalServerError, envelope{
		Status:     false,
		StatusCode: http.StatusInternalServerError,
		Error:      gin.H{"message": "internal server error"},
	})
}

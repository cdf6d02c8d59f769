// Package httpapi holds the gin plumbing shared by every HTTP handler: the response
// envelope, error mapping, token cookies and the auth, maintenance and throttling middleware.
package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// CodeSuccess is the envelope code of every successful response.
const CodeSuccess = 200

// Envelope is the body of every JSON response.
type Envelope struct {
	Code    int    `json:"code"`
	Message string `json:"message,omitempty"`
	Result  any    `json:"result,omitempty"`
}

// OK writes a 200 envelope carrying result.
func OK(c *gin.Context, message string, result any) {
	c.JSON(http.StatusOK, Envelope{Code: CodeSuccess, Message: message, Result: result})
}

// Abort writes code as an error envelope and stops the handler chain.
func Abort(c *gin.Context, code ErrorCode) {
	c.AbortWithStatusJSON(code.Status, Envelope{Code: code.Code, Message: code.Message})
}

// Fail maps err to its public code and aborts. Errors outside the table are attached to
// the gin context, so the request logger reports them, and the client sees only
// the uncategorized code.
func Fail(c *gin.Context, err error) {
	code, known := Lookup(err)
	if !known {
		_ = c.Error(err)
	}
	Abort(c, code)
}

// BadRequest aborts with the generic invalid-request code, used for unparsable bodies.
func BadRequest(c *gin.Context) {
	Abort(c, CodeInvalidRequest)
}

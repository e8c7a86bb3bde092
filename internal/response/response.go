package response

import (
	"github.com/gin-gonic/gin"
)

// ErrorBody is the JSON error shape: a typed code plus a short
// human-readable message. Success responses carry no envelope; handlers
// write their payloads directly so the wire format stays flat.
type ErrorBody struct {
	Code    ErrCode           `json:"code"`
	Message string            `json:"error"`
	Fields  map[string]string `json:"fields,omitempty"`
}

// Fail sends an error response with an error code and no field-level details.
func Fail(c *gin.Context, statusCode int, code ErrCode) {
	c.JSON(statusCode, ErrorBody{Code: code, Message: GetMessage(code)})
}

// FailWithFields sends an error response with field-level validation details.
func FailWithFields(c *gin.Context, statusCode int, code ErrCode, fields map[string]string) {
	c.JSON(statusCode, ErrorBody{Code: code, Message: GetMessage(code), Fields: fields})
}

// AbortFail aborts the middleware chain and sends an error response.
func AbortFail(c *gin.Context, statusCode int, code ErrCode) {
	c.AbortWithStatusJSON(statusCode, ErrorBody{Code: code, Message: GetMessage(code)})
}

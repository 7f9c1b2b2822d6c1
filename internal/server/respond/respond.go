// Package respond defines the JSON shapes shared by every handler: a
// machine-readable error body and a plain acknowledgement message.
package respond

import "github.com/gin-gonic/gin"

// ErrorBody is the error payload returned to clients. Code is a stable
// machine-readable identifier; Message is for humans.
type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error writes the error payload with the given status.
func Error(c *gin.Context, status int, code, message string) {
	c.JSON(status, ErrorBody{Code: code, Message: message})
}

// AbortError writes the error payload and aborts the handler chain. For use
// in middleware.
func AbortError(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, ErrorBody{Code: code, Message: message})
}

// Message writes a plain acknowledgement body with the given status.
func Message(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"message": message})
}

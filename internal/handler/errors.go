package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"

	"medilinko/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
)

// respondError maps service errors to status codes. Unexpected errors are
// logged and answered with the generic 500 body.
func respondError(c *gin.Context, err error, action string) {
	switch {
	case errors.Is(err, service.ErrUserNotFound), errors.Is(err, service.ErrQRCodeMissing):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
	default:
		log.Printf("Error %s: %v", action, err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Something went wrong!", "error": err.Error()})
	}
}

// bindStrictJSON decodes the body into obj, rejecting unknown fields, and
// runs the binding tag validation gin's ShouldBindJSON would run.
func bindStrictJSON(c *gin.Context, obj any) error {
	if c.Request.Body == nil {
		return errors.New("request body is empty")
	}
	dec := json.NewDecoder(c.Request.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(obj); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("request body is empty")
		}
		return err
	}
	if dec.More() {
		return fmt.Errorf("request body must contain a single JSON object")
	}
	return binding.Validator.ValidateStruct(obj)
}

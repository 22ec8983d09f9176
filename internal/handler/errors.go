package handler

import (
	"errors"
	"net/http"
	"reflect"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/psds-microservice/crm-service/internal/attachments"
	"github.com/psds-microservice/crm-service/internal/errs"
	"github.com/psds-microservice/crm-service/internal/logging"
	"github.com/psds-microservice/crm-service/internal/service"
)

// writeError maps domain errors to HTTP responses. Storage failures are
// logged with their cause; the client only sees a generic message.
func writeError(c *gin.Context, log logging.Logger, err error) {
	c.JSON(errorResponse(c, log, err))
}

func errorResponse(c *gin.Context, log logging.Logger, err error) (int, gin.H) {
	code, body := classify(err)
	if code == http.StatusInternalServerError {
		log.Error(c.Request.Context(), "request failed", "path", c.FullPath(), "error", err)
	}
	return code, body
}

// classify picks the status for err. For joined errors the most severe
// part wins, so a storage failure next to a missing id is still a 500.
func classify(err error) (int, gin.H) {
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		code, body := 0, gin.H(nil)
		for _, e := range joined.Unwrap() {
			if c, b := classify(e); c > code {
				code, body = c, b
			}
		}
		if body != nil {
			return code, body
		}
	}
	var ve *errs.ValidationError
	switch {
	case errors.As(err, &ve):
		return http.StatusBadRequest, gin.H{"error": ve.Error(), "field": ve.Field}
	case errors.Is(err, errs.ErrInvalidStatus):
		return http.StatusBadRequest, gin.H{"error": "invalid status"}
	case errors.Is(err, errs.ErrNotFound):
		return http.StatusNotFound, gin.H{"error": "not found"}
	case errors.Is(err, errors.ErrUnsupported):
		return http.StatusBadRequest, gin.H{"error": "action not available"}
	case errors.Is(err, attachments.ErrDisabled), errors.Is(err, service.ErrDeskClosed):
		return http.StatusServiceUnavailable, gin.H{"error": "temporarily unavailable"}
	default:
		return http.StatusInternalServerError, gin.H{"error": "internal error"}
	}
}

// writeBindError reports the first failing field of a request body.
func writeBindError(c *gin.Context, err error) {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		c.JSON(http.StatusBadRequest, gin.H{"error": fe.Field() + ": " + ruleMessage(fe), "field": fe.Field()})
		return
	}
	c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
}

func ruleMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "oneof":
		return "must be one of " + strings.ReplaceAll(fe.Param(), " ", ", ")
	case "email":
		return "is not a valid address"
	case "datetime":
		return "must be a YYYY-MM-DD date"
	case "max":
		return "must be at most " + fe.Param() + " characters"
	case "min":
		return "must have at least " + fe.Param() + " items"
	default:
		return "is invalid"
	}
}

var jsonNamesOnce sync.Once

// UseJSONFieldNames makes binding errors report json field names.
func UseJSONFieldNames() {
	jsonNamesOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
			if name == "-" {
				return ""
			}
			if name == "" {
				return f.Name
			}
			return name
		})
	})
}

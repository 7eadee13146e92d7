package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"sort"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"placeshare/internal/domain"
)

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Message string `json:"message"`
	Code    int    `json:"code"`
}

func statusFor(kind domain.ErrorKind) int {
	switch kind {
	case domain.KindValidation, domain.KindDuplicate:
		return http.StatusBadRequest
	case domain.KindAuthentication, domain.KindAuthorization:
		return http.StatusUnauthorized
	case domain.KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// writeError renders err as {message, code}. Server faults keep their details
// in the log. Nothing is written once a response has been sent.
func (h *Handler) writeError(c *gin.Context, err error) {
	kind := domain.KindOf(err)
	status := statusFor(kind)

	entry := h.logger.WithError(err).WithFields(map[string]interface{}{
		"method": c.Request.Method,
		"path":   c.Request.URL.Path,
		"kind":   kind.String(),
	})

	if c.Writer.Written() {
		entry.Warn("error after response was sent")
		c.Abort()
		return
	}

	message := "server failed"
	var derr *domain.Error
	if status < http.StatusInternalServerError && errors.As(err, &derr) {
		message = derr.Message
	}
	if status >= http.StatusInternalServerError {
		entry.Error("request failed")
	} else {
		entry.Debug("request rejected")
	}

	c.AbortWithStatusJSON(status, ErrorResponse{Message: message, Code: status})
}

// bindError turns a gin binding failure into a validation error naming the
// offending fields.
func bindError(err error) error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		fields := make([]string, 0, len(verrs))
		seen := map[string]bool{}
		for _, fe := range verrs {
			name := strings.ToLower(fe.Field())
			if !seen[name] {
				seen[name] = true
				fields = append(fields, name)
			}
		}
		sort.Strings(fields)
		return domain.NewError(domain.KindValidation, "invalid or missing fields: "+strings.Join(fields, ", "), err)
	}

	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) {
		return domain.NewError(domain.KindValidation, "malformed request body", err)
	}
	return domain.NewError(domain.KindValidation, "invalid request body", err)
}

package httpapi

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/speaches-go/gateway/internal/executor"
	"github.com/speaches-go/gateway/internal/lifecycle"
	"github.com/speaches-go/gateway/internal/model"
)

// apiError is the OpenAI-shaped error envelope every failed request returns.
type apiError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
	Param   string `json:"param,omitempty"`
	Code    string `json:"code,omitempty"`
}

func writeError(c *gin.Context, status int, errType, message, param string) {
	c.AbortWithStatusJSON(status, gin.H{"error": apiError{
		Message: message,
		Type:    errType,
		Param:   param,
	}})
}

// ErrUpstream wraps a chat-completion transport failure against the
// configured upstream provider, carrying a short operator-facing hint
// alongside the raw cause — the "wrap with contextual hint" half of §7's
// upstream-failure row.
type ErrUpstream struct {
	Hint  string
	Cause error
}

func (e *ErrUpstream) Error() string {
	return fmt.Sprintf("%s: %v", e.Hint, e.Cause)
}

func (e *ErrUpstream) Unwrap() error { return e.Cause }

// mapError implements the §7 error taxonomy: typed executor/lifecycle
// errors are mapped to their documented HTTP status; anything else is
// logged under a fresh correlation id and returned as a 500 carrying only
// that id.
func mapError(c *gin.Context, err error) {
	var unknownModel *model.ErrUnknownModel
	var notFound *lifecycle.ErrNotFound
	var loadFailed *lifecycle.ErrLoadFailed
	var busy *lifecycle.ErrBusy
	var notLoaded *lifecycle.ErrNotLoaded
	var invalidSpeed *executor.ErrInvalidSpeed
	var unknownVoice *executor.ErrUnknownVoice
	var upstream *ErrUpstream

	switch {
	case errors.As(err, &upstream):
		log.Error().Err(upstream.Cause).Str("hint", upstream.Hint).Msg("upstream chat-completion failure")
		c.AbortWithStatusJSON(http.StatusBadGateway, gin.H{"error": gin.H{
			"message": upstream.Cause.Error(),
			"type":    "upstream_error",
			"hint":    upstream.Hint,
		}})
	case errors.As(err, &unknownModel):
		writeError(c, http.StatusNotFound, "invalid_request_error",
			unknownModel.Error()+"; try POST /v1/models/{id} to download it", "model")
	case errors.As(err, &notFound):
		writeError(c, http.StatusNotFound, "invalid_request_error",
			notFound.Error()+"; try POST /v1/models/{id} to download it", "model")
	case errors.As(err, &loadFailed):
		log.Error().Err(err).Msg("model load failed")
		writeError(c, http.StatusInternalServerError, "server_error", "failed to load model", "")
	case errors.As(err, &busy):
		writeError(c, http.StatusConflict, "invalid_request_error", busy.Error(), "")
	case errors.As(err, &notLoaded):
		writeError(c, http.StatusNotFound, "invalid_request_error", notLoaded.Error(), "")
	case errors.As(err, &invalidSpeed):
		writeError(c, http.StatusUnprocessableEntity, "invalid_request_error", invalidSpeed.Error(), "speed")
	case errors.As(err, &unknownVoice):
		writeError(c, http.StatusUnprocessableEntity, "invalid_request_error", unknownVoice.Error(), "voice")
	default:
		correlationID := uuid.NewString()
		log.Error().Err(err).Str("correlation_id", correlationID).Msg("unhandled request error")
		writeError(c, http.StatusInternalServerError, "server_error",
			"internal error, correlation id "+correlationID, "")
	}
}

// recoveryMiddleware is the single global exception handler: it catches
// panics, assigns a correlation id, logs with the stack, and returns 500
// with only the correlation id to the client.
func recoveryMiddleware(logger zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				correlationID := uuid.NewString()
				logger.Error().
					Interface("panic", r).
					Str("correlation_id", correlationID).
					Str("path", c.Request.URL.Path).
					Bytes("stack", stackTrace()).
					Msg("panic recovered")
				writeError(c, http.StatusInternalServerError, "server_error",
					"internal error, correlation id "+correlationID, "")
			}
		}()
		c.Next()
	}
}

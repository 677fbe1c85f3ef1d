// Package httpapi implements the OpenAI-compatible HTTP surface: TTS, ASR,
// chat-with-audio, and the operational model-management endpoints.
package httpapi

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/speaches-go/gateway/internal/audio"
	"github.com/speaches-go/gateway/internal/executor"
	"github.com/speaches-go/gateway/internal/lifecycle"
	"github.com/speaches-go/gateway/internal/model"
	"github.com/speaches-go/gateway/internal/registry"
	"github.com/speaches-go/gateway/internal/transcript"
	"github.com/speaches-go/gateway/internal/upstream"
)

// Deps is every collaborator a route handler needs, constructed once in
// main and injected — no package-level singletons anywhere in this layer.
// One Manager (and one concrete executor) exists per family; the model id
// is the key *within* a manager, not across managers.
type Deps struct {
	Log zerolog.Logger

	APIKey string

	Aliases    *model.AliasResolver
	Classifier *model.Classifier
	Registry   registry.Registry

	ASR         executor.ASRExecutor
	VoicePack   executor.VoicePackExecutor
	SingleVoice executor.SingleVoiceExecutor

	ASRManager         *lifecycle.Manager[executor.ASRNative]
	VoicePackManager   *lifecycle.Manager[executor.VoicePackNative]
	SingleVoiceManager *lifecycle.Manager[executor.SingleVoiceNative]

	Muxer   *audio.Muxer
	Decoder *audio.Decoder

	Upstream   *upstream.Router
	Transcript *transcript.Cache

	MinSentenceLength int
}

// NewEngine builds the gin.Engine with every route group and middleware
// wired up.
func NewEngine(d *Deps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(d.Log), recoveryMiddleware(d.Log))

	r.GET("/health", handleHealth)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/")
	api.Use(authMiddleware(d.APIKey))

	api.POST("/v1/audio/speech", handleSpeech(d))
	api.POST("/v1/audio/transcriptions", handleTranscription(d, executor.TaskTranscribe))
	api.POST("/v1/audio/translations", handleTranscription(d, executor.TaskTranslate))
	api.POST("/v1/chat/completions", handleChatCompletions(d))

	api.GET("/api/ps", handleListLoaded(d))
	api.POST("/api/ps/*model_id", handleEagerLoad(d))
	api.DELETE("/api/ps/*model_id", handleForceUnload(d))

	api.GET("/v1/models", handleListModels(d))
	api.GET("/v1/models/*model_id", handleGetModel(d))
	api.POST("/v1/models/*model_id", handleDownloadModel(d))
	api.DELETE("/v1/models/*model_id", handleDeleteModel(d))

	return r
}

func handleHealth(c *gin.Context) {
	c.Status(http.StatusOK)
}

// authMiddleware enforces the optional bearer token: when apiKey is
// non-empty, every request (this group never includes /health) must
// present it exactly.
func authMiddleware(apiKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if apiKey == "" {
			c.Next()
			return
		}
		header := c.GetHeader("Authorization")
		want := "Bearer " + apiKey
		if header != want {
			writeError(c, http.StatusUnauthorized, "invalid_request_error", "invalid or missing API key", "")
			return
		}
		c.Next()
	}
}

func requestLogger(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		log.Info().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Msg("request")
	}
}

// pathModelID extracts a *model_id wildcard param's value, stripping the
// leading slash gin's */name catch-all leaves in place.
func pathModelID(c *gin.Context) model.ID {
	raw := c.Param("model_id")
	return model.ID(strings.TrimPrefix(raw, "/"))
}

// Command gateway runs the OpenAI-compatible audio inference gateway:
// model lifecycle management, streaming TTS/ASR, and chat-with-audio, all
// behind one HTTP surface.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nlpodyssey/openai-agents-go/agents"
	"github.com/openai/openai-go/v2/packages/param"
	"github.com/rs/zerolog"

	"github.com/speaches-go/gateway/internal/audio"
	"github.com/speaches-go/gateway/internal/config"
	"github.com/speaches-go/gateway/internal/executor"
	"github.com/speaches-go/gateway/internal/httpapi"
	"github.com/speaches-go/gateway/internal/lifecycle"
	"github.com/speaches-go/gateway/internal/logging"
	"github.com/speaches-go/gateway/internal/model"
	"github.com/speaches-go/gateway/internal/registry"
	"github.com/speaches-go/gateway/internal/transcript"
	"github.com/speaches-go/gateway/internal/upstream"
)

const sidecarPoolSize = 32

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	log := logging.Init(cfg.LogLevel, cfg.LogPretty)

	aliases, err := model.NewAliasResolver(cfg.ModelAliasFile)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load model alias file")
	}

	reg := registry.NewLocalFS(cfg.HFHubCache, cfg.HFHubOffline)
	classifier := model.NewClassifier(func(id model.ID) (model.CardData, error) {
		return reg.CardData(context.Background(), id)
	}, model.DefaultFilters())

	placement := executor.Placement{Priority: ortPriority(cfg.ORT.ProviderPriority)}

	asrExec := executor.NewHTTPASRExecutor(sidecarPoolSize)
	voicePackExec := executor.NewHTTPVoicePackExecutor(sidecarPoolSize)
	singleVoiceExec := executor.NewHTTPSingleVoiceExecutor(sidecarPoolSize)

	asrManager := lifecycle.NewManager("asr", sessionFactory(reg, asrExec.Load, placement), cfg.ModelIdleTimeout, cfg.MaxModels, log)
	voicePackManager := lifecycle.NewManager("tts-voicepack", sessionFactory(reg, voicePackExec.Load, placement), cfg.ModelIdleTimeout, cfg.MaxModels, log)
	singleVoiceManager := lifecycle.NewManager("tts-singlevoice", sessionFactory(reg, singleVoiceExec.Load, placement), cfg.ModelIdleTimeout, cfg.MaxModels, log)

	router := upstream.NewRouter("openai")
	if apiKey := os.Getenv("OPENAI_API_KEY"); apiKey != "" {
		router.Register("openai", upstream.NewOpenAIClient(apiKey, os.Getenv("OPENAI_BASE_URL")))
	}
	if ollamaURL := os.Getenv("OLLAMA_URL"); ollamaURL != "" {
		provider := agents.NewOpenAIProvider(agents.OpenAIProviderParams{
			BaseURL:      param.NewOpt(ollamaURL + "/v1/"),
			APIKey:       param.NewOpt("ollama"),
			UseResponses: param.NewOpt(false),
		})
		router.Register("ollama", upstream.NewAgentChatClient(provider, os.Getenv("OLLAMA_MODEL"), 2048))
	}

	deps := &httpapi.Deps{
		Log:                log,
		APIKey:             cfg.APIKey,
		Aliases:            aliases,
		Classifier:         classifier,
		Registry:           reg,
		ASR:                asrExec,
		VoicePack:          voicePackExec,
		SingleVoice:        singleVoiceExec,
		ASRManager:         asrManager,
		VoicePackManager:   voicePackManager,
		SingleVoiceManager: singleVoiceManager,
		Muxer:              audio.NewMuxer(nil),
		Decoder:            audio.NewDecoder(nil),
		Upstream:           router,
		Transcript:         transcript.New(cfg.TranscriptCacheSize, cfg.TranscriptCacheTTL),
		MinSentenceLength:  20,
	}

	engine := httpapi.NewEngine(deps)
	srv := &http.Server{Addr: cfg.ListenAddr, Handler: engine}

	go awaitShutdown(srv, log)

	log.Info().Str("addr", cfg.ListenAddr).Msg("gateway starting")
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal().Err(err).Msg("server failed")
	}
	log.Info().Msg("gateway stopped")
}

// sessionFactory adapts a registry lookup plus a concrete executor's Load
// into the lifecycle.SessionFactory closure each Manager holds.
func sessionFactory[T any](reg registry.Registry, load executor.Loader[T], placement executor.Placement) lifecycle.SessionFactory[T] {
	return func(ctx context.Context, id model.ID) (*executor.Session[T], error) {
		artifact, err := reg.Artifact(ctx, id)
		if err != nil {
			return nil, err
		}
		return load(ctx, artifact, placement)
	}
}

func ortPriority(names []string) []executor.Backend {
	backends := make([]executor.Backend, 0, len(names))
	for _, n := range names {
		switch n {
		case "cuda":
			backends = append(backends, executor.BackendCUDA)
		case "tensorrt":
			backends = append(backends, executor.BackendTensorRT)
		case "directml":
			backends = append(backends, executor.BackendDirectML)
		default:
			backends = append(backends, executor.BackendCPU)
		}
	}
	if len(backends) == 0 {
		backends = []executor.Backend{executor.BackendCPU}
	}
	return backends
}

func awaitShutdown(srv *http.Server, log zerolog.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Info().Msg("shutdown signal received, draining connections")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
}

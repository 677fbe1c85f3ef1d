package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/openai/openai-go/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/speaches-go/gateway/internal/upstream"
)

type fakeChatClient struct {
	completeErr error
	reply       string
	tokens      []string
	streamErr   error
}

func (f *fakeChatClient) Complete(ctx context.Context, params openai.ChatCompletionNewParams) (openai.ChatCompletion, error) {
	if f.completeErr != nil {
		return openai.ChatCompletion{}, f.completeErr
	}
	resp := openai.ChatCompletion{}
	resp.Choices = []openai.ChatCompletionChoice{{Message: openai.ChatCompletionMessage{Content: f.reply}}}
	return resp, nil
}

func (f *fakeChatClient) Stream(ctx context.Context, params openai.ChatCompletionNewParams, onToken upstream.TokenCallback) error {
	for _, tok := range f.tokens {
		onToken(tok)
	}
	return f.streamErr
}

func TestHandleChatCompletionsNonStreaming(t *testing.T) {
	d := testDeps(t)
	router := upstream.NewRouter("default")
	router.Register("default", &fakeChatClient{reply: "hi there"})
	d.Upstream = router

	r := gin.New()
	r.POST("/v1/chat/completions", handleChatCompletions(d))

	body := `{"model":"gpt-4o-mini","messages":[{"role":"user","content":"hello"}]}`
	req := httptest.NewRequest(http.MethodPost, "/v1/chat/completions", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := newTestRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "hi there")
}

func TestHandleChatCompletionsUpstreamFailureMapsToBadGateway(t *testing.T) {
	d := testDeps(t)
	router := upstream.NewRouter("default")
	router.Register("default", &fakeChatClient{completeErr: errors.New("connection refused")})
	d.Upstream = router

	r := gin.New()
	r.POST("/v1/chat/completions", handleChatCompletions(d))

	body := `{"model":"gpt-4o-mini","messages":[{"role":"user","content":"hello"}]}`
	req := httptest.NewRequest(http.MethodPost, "/v1/chat/completions", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := newTestRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Contains(t, w.Body.String(), "upstream_error")
}

func TestHandleChatCompletionsUnknownEngine(t *testing.T) {
	d := testDeps(t)
	d.Upstream = upstream.NewRouter("default")

	r := gin.New()
	r.POST("/v1/chat/completions", handleChatCompletions(d))

	body := `{"model":"gpt-4o-mini","messages":[{"role":"user","content":"hi"}],"engine":"nonexistent"}`
	req := httptest.NewRequest(http.MethodPost, "/v1/chat/completions", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := newTestRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHandleChatCompletionsAudioModalityStreamsAudio(t *testing.T) {
	d := testDeps(t)
	router := upstream.NewRouter("default")
	router.Register("default", &fakeChatClient{tokens: []string{"Hello there. ", "How are you?"}})
	d.Upstream = router

	r := gin.New()
	r.POST("/v1/chat/completions", handleChatCompletions(d))

	body := `{"model":"gpt-4o-mini","messages":[{"role":"user","content":"hi"}],"modalities":["text","audio"],"audio":{"voice":"` + string(testVoicePackModel) + `","format":"pcm"}}`
	req := httptest.NewRequest(http.MethodPost, "/v1/chat/completions", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := newTestRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/event-stream", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Body.String(), "[DONE]")
	assert.Contains(t, w.Body.String(), `"audio"`)
}

func TestHandleChatCompletionsAudioModalityEmitsTranscriptDeltasKeyedByAudioID(t *testing.T) {
	d := testDeps(t)
	router := upstream.NewRouter("default")
	router.Register("default", &fakeChatClient{tokens: []string{"Hello there. ", "How are you?"}})
	d.Upstream = router

	r := gin.New()
	r.POST("/v1/chat/completions", handleChatCompletions(d))

	body := `{"model":"gpt-4o-mini","messages":[{"role":"user","content":"hi"}],"modalities":["text","audio"],"audio":{"voice":"` + string(testVoicePackModel) + `","format":"pcm"}}`
	req := httptest.NewRequest(http.MethodPost, "/v1/chat/completions", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := newTestRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	body2 := w.Body.String()

	// The text stream must never fall back to a plain delta.content field
	// once audio modality is active.
	assert.NotContains(t, body2, `"content":"Hello`)

	var transcriptID, pcmID string
	for _, line := range strings.Split(body2, "\n") {
		if !strings.HasPrefix(line, "data: ") || strings.Contains(line, "[DONE]") {
			continue
		}
		var chunk struct {
			Choices []struct {
				Delta struct {
					Audio struct {
						ID         string `json:"id"`
						Transcript string `json:"transcript"`
						Data       []byte `json:"data"`
					} `json:"audio"`
				} `json:"delta"`
			} `json:"choices"`
		}
		if err := json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &chunk); err != nil {
			continue
		}
		if len(chunk.Choices) == 0 {
			continue
		}
		a := chunk.Choices[0].Delta.Audio
		if a.Transcript != "" {
			transcriptID = a.ID
		}
		if len(a.Data) > 0 {
			pcmID = a.ID
		}
	}

	require.NotEmpty(t, transcriptID, "expected at least one transcript delta")
	require.NotEmpty(t, pcmID, "expected at least one audio data delta")
	assert.Equal(t, transcriptID, pcmID, "transcript and audio deltas must share the same audio id")
}

package httpapi

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandleSpeechVoicePackStreamsPCM(t *testing.T) {
	d := testDeps(t)
	r := gin.New()
	r.POST("/v1/audio/speech", handleSpeech(d))

	body := `{"model":"` + string(testVoicePackModel) + `","input":"hello world","response_format":"pcm"}`
	req := httptest.NewRequest(http.MethodPost, "/v1/audio/speech", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := newTestRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "audio/pcm", w.Header().Get("Content-Type"))
	assert.NotEmpty(t, w.Body.Bytes())
}

func TestHandleSpeechRejectsUnknownVoice(t *testing.T) {
	d := testDeps(t)
	r := gin.New()
	r.POST("/v1/audio/speech", handleSpeech(d))

	body := `{"model":"` + string(testVoicePackModel) + `","input":"hi","voice":"definitely-not-a-voice","response_format":"pcm"}`
	req := httptest.NewRequest(http.MethodPost, "/v1/audio/speech", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := newTestRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestHandleSpeechRejectsSpeedOutOfRange(t *testing.T) {
	d := testDeps(t)
	r := gin.New()
	r.POST("/v1/audio/speech", handleSpeech(d))

	body := `{"model":"` + string(testVoicePackModel) + `","input":"hi","speed":10.0}`
	req := httptest.NewRequest(http.MethodPost, "/v1/audio/speech", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := newTestRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestHandleSpeechRejectsSampleRateOutOfRange(t *testing.T) {
	d := testDeps(t)
	r := gin.New()
	r.POST("/v1/audio/speech", handleSpeech(d))

	body := `{"model":"` + string(testVoicePackModel) + `","input":"hi","sample_rate":1000}`
	req := httptest.NewRequest(http.MethodPost, "/v1/audio/speech", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := newTestRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestHandleSpeechSingleVoiceWAV(t *testing.T) {
	d := testDeps(t)
	r := gin.New()
	r.POST("/v1/audio/speech", handleSpeech(d))

	body := `{"model":"` + string(testSingleVoiceModel) + `","input":"hi there","response_format":"wav"}`
	req := httptest.NewRequest(http.MethodPost, "/v1/audio/speech", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := newTestRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "audio/wav", w.Header().Get("Content-Type"))
	// RIFF/WAVE header must be present in a muxed wav response.
	assert.True(t, strings.HasPrefix(w.Body.String(), "RIFF"))
}

func TestHandleSpeechUnknownModelFamily(t *testing.T) {
	d := testDeps(t)
	r := gin.New()
	r.POST("/v1/audio/speech", handleSpeech(d))

	body := `{"model":"nobody/nothing","input":"hi"}`
	req := httptest.NewRequest(http.MethodPost, "/v1/audio/speech", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := newTestRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHandleSpeechBlankInputRejected(t *testing.T) {
	d := testDeps(t)
	r := gin.New()
	r.POST("/v1/audio/speech", handleSpeech(d))

	body := `{"model":"` + string(testVoicePackModel) + `","input":"   "}`
	req := httptest.NewRequest(http.MethodPost, "/v1/audio/speech", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := newTestRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

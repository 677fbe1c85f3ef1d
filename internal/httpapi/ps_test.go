package httpapi

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandleEagerLoadThenListedThenForceUnload(t *testing.T) {
	d := testDeps(t)
	r := gin.New()
	r.POST("/api/ps/*model_id", handleEagerLoad(d))
	r.GET("/api/ps", handleListLoaded(d))
	r.DELETE("/api/ps/*model_id", handleForceUnload(d))

	req := httptest.NewRequest(http.MethodPost, "/api/ps/"+string(testVoicePackModel), nil)
	w := newTestRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusCreated, w.Code, "first load should report 201")

	req = httptest.NewRequest(http.MethodPost, "/api/ps/"+string(testVoicePackModel), nil)
	w = newTestRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code, "second load of the same model should report 200 (already loaded)")

	req = httptest.NewRequest(http.MethodGet, "/api/ps", nil)
	w = newTestRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), string(testVoicePackModel))

	req = httptest.NewRequest(http.MethodDelete, "/api/ps/"+string(testVoicePackModel), nil)
	w = newTestRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusNoContent, w.Code)

	req = httptest.NewRequest(http.MethodDelete, "/api/ps/"+string(testVoicePackModel), nil)
	w = newTestRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code, "unloading an already-unloaded model should 404")
}

func TestHandleForceUnloadUnknownModel(t *testing.T) {
	d := testDeps(t)
	r := gin.New()
	r.DELETE("/api/ps/*model_id", handleForceUnload(d))

	req := httptest.NewRequest(http.MethodDelete, "/api/ps/nonexistent/model", nil)
	w := newTestRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

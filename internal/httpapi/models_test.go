package httpapi

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/speaches-go/gateway/internal/model"
)

func TestHandleListModelsFiltersByTask(t *testing.T) {
	d := testDeps(t)
	r := gin.New()
	r.GET("/v1/models", handleListModels(d))

	req := httptest.NewRequest(http.MethodGet, "/v1/models?task="+string(model.TaskASR), nil)
	w := newTestRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), string(testASRModel))
	assert.NotContains(t, w.Body.String(), string(testVoicePackModel))
}

func TestHandleGetModelUnknown(t *testing.T) {
	d := testDeps(t)
	r := gin.New()
	r.GET("/v1/models/*model_id", handleGetModel(d))

	req := httptest.NewRequest(http.MethodGet, "/v1/models/no/such-model", nil)
	w := newTestRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHandleDeleteModelInvalidatesClassifierCache(t *testing.T) {
	d := testDeps(t)
	r := gin.New()
	r.DELETE("/v1/models/*model_id", handleDeleteModel(d))

	_, err := d.Classifier.Classify(testVoicePackModel)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodDelete, "/v1/models/"+string(testVoicePackModel), nil)
	w := newTestRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusNoContent, w.Code)

	_, err = d.Registry.Get(req.Context(), testVoicePackModel)
	assert.Error(t, err, "model should no longer be present in the registry")

	_, err = d.Classifier.Classify(testVoicePackModel)
	assert.Error(t, err, "classification should be looked up afresh, not served from the cache")
}

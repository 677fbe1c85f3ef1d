package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/speaches-go/gateway/internal/model"
)

// handleListModels implements GET /v1/models, optionally filtered by
// ?task=.
func handleListModels(d *Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		task := model.Task(c.Query("task"))
		infos, err := d.Registry.List(c.Request.Context(), task)
		if err != nil {
			mapError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"object": "list", "data": infos})
	}
}

func handleGetModel(d *Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := d.Aliases.Resolve(pathModelID(c))
		info, err := d.Registry.Get(c.Request.Context(), id)
		if err != nil {
			mapError(c, err)
			return
		}
		c.JSON(http.StatusOK, info)
	}
}

// handleDownloadModel implements POST /v1/models/{id}: fetches (or
// confirms presence of) a model artifact. Downloading is an out-of-scope
// external concern here — see registry.LocalFS.Download.
func handleDownloadModel(d *Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := d.Aliases.Resolve(pathModelID(c))
		if err := d.Registry.Download(c.Request.Context(), id); err != nil {
			mapError(c, err)
			return
		}
		d.Classifier.Invalidate(id)
		c.Status(http.StatusCreated)
	}
}

func handleDeleteModel(d *Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := d.Aliases.Resolve(pathModelID(c))
		if err := d.Registry.Delete(c.Request.Context(), id); err != nil {
			mapError(c, err)
			return
		}
		d.Classifier.Invalidate(id)
		c.Status(http.StatusNoContent)
	}
}

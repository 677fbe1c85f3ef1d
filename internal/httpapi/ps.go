package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/speaches-go/gateway/internal/model"
)

type loadedModel struct {
	ID     model.ID `json:"id"`
	Family string   `json:"family"`
}

// handleListLoaded implements GET /api/ps: every resident session across
// all three families.
func handleListLoaded(d *Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		var loaded []loadedModel
		for _, id := range d.ASRManager.ListLoaded() {
			loaded = append(loaded, loadedModel{ID: id, Family: model.FamilyASR.String()})
		}
		for _, id := range d.VoicePackManager.ListLoaded() {
			loaded = append(loaded, loadedModel{ID: id, Family: model.FamilyTTSVoicePack.String()})
		}
		for _, id := range d.SingleVoiceManager.ListLoaded() {
			loaded = append(loaded, loadedModel{ID: id, Family: model.FamilyTTSSingleVoice.String()})
		}
		c.JSON(http.StatusOK, gin.H{"data": loaded})
	}
}

// handleEagerLoad implements POST /api/ps/{model_id}: forces a load ahead
// of the first inference request, reporting whether it was already
// resident.
func handleEagerLoad(d *Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := d.Aliases.Resolve(pathModelID(c))
		family, err := d.Classifier.Classify(id)
		if err != nil {
			mapError(c, err)
			return
		}

		var alreadyLoaded bool
		var leaseErr error
		switch family {
		case model.FamilyASR:
			alreadyLoaded = d.ASRManager.IsLoaded(id)
			lease, e := d.ASRManager.Lease(c.Request.Context(), id)
			leaseErr = e
			if e == nil {
				lease.Release()
			}
		case model.FamilyTTSVoicePack:
			alreadyLoaded = d.VoicePackManager.IsLoaded(id)
			lease, e := d.VoicePackManager.Lease(c.Request.Context(), id)
			leaseErr = e
			if e == nil {
				lease.Release()
			}
		case model.FamilyTTSSingleVoice:
			alreadyLoaded = d.SingleVoiceManager.IsLoaded(id)
			lease, e := d.SingleVoiceManager.Lease(c.Request.Context(), id)
			leaseErr = e
			if e == nil {
				lease.Release()
			}
		default:
			mapError(c, &model.ErrUnknownModel{ID: id})
			return
		}

		if leaseErr != nil {
			mapError(c, leaseErr)
			return
		}
		if alreadyLoaded {
			c.Status(http.StatusOK)
			return
		}
		c.Status(http.StatusCreated)
	}
}

// handleForceUnload implements DELETE /api/ps/{model_id}.
func handleForceUnload(d *Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := d.Aliases.Resolve(pathModelID(c))
		family, err := d.Classifier.Classify(id)
		if err != nil {
			mapError(c, err)
			return
		}

		var unloadErr error
		switch family {
		case model.FamilyASR:
			unloadErr = d.ASRManager.ForceUnload(id)
		case model.FamilyTTSVoicePack:
			unloadErr = d.VoicePackManager.ForceUnload(id)
		case model.FamilyTTSSingleVoice:
			unloadErr = d.SingleVoiceManager.ForceUnload(id)
		default:
			mapError(c, &model.ErrUnknownModel{ID: id})
			return
		}

		if unloadErr != nil {
			mapError(c, unloadErr)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

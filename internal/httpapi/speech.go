package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/speaches-go/gateway/internal/audio"
	"github.com/speaches-go/gateway/internal/audiopipeline"
	"github.com/speaches-go/gateway/internal/executor"
	"github.com/speaches-go/gateway/internal/metrics"
	"github.com/speaches-go/gateway/internal/model"
)

type speechRequest struct {
	Model          string  `json:"model" binding:"required"`
	Input          string  `json:"input" binding:"required"`
	Voice          string  `json:"voice"`
	ResponseFormat string  `json:"response_format"`
	Speed          float64 `json:"speed"`
	SampleRate     int     `json:"sample_rate"`
}

const (
	minSampleRate = 8000
	maxSampleRate = 48000
)

// handleSpeech implements POST /v1/audio/speech: resolve the model's
// family, lease its session, validate voice/speed/format, synthesize, and
// either stream PCM/mp3 chunks as they arrive or buffer and mux once for
// wav/flac.
func handleSpeech(d *Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req speechRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			writeError(c, http.StatusBadRequest, "invalid_request_error", err.Error(), "")
			return
		}
		if req.ResponseFormat == "" {
			req.ResponseFormat = "mp3"
		}
		if req.Speed == 0 {
			req.Speed = 1.0
		}

		format := audio.Format(req.ResponseFormat)
		switch format {
		case audio.FormatMP3, audio.FormatFLAC, audio.FormatWAV, audio.FormatPCM:
		default:
			writeError(c, http.StatusUnprocessableEntity, "invalid_request_error", "response_format must be one of mp3, flac, wav, pcm", "response_format")
			return
		}
		id := d.Aliases.Resolve(model.ID(req.Model))

		family, err := d.Classifier.Classify(id)
		if err != nil {
			mapError(c, err)
			return
		}

		cleaned, ok := audiopipeline.PrepareForSynthesis(req.Input)
		if !ok {
			writeError(c, http.StatusUnprocessableEntity, "invalid_request_error", "input has no synthesizable text after cleanup", "input")
			return
		}

		if req.SampleRate != 0 && (req.SampleRate < minSampleRate || req.SampleRate > maxSampleRate) {
			writeError(c, http.StatusUnprocessableEntity, "invalid_request_error", "sample_rate out of range [8000, 48000]", "sample_rate")
			return
		}

		switch family {
		case model.FamilyTTSVoicePack:
			synthesizeVoicePack(c, d, id, cleaned, req, format)
		case model.FamilyTTSSingleVoice:
			synthesizeSingleVoice(c, d, id, cleaned, req, format)
		default:
			mapError(c, &model.ErrUnknownModel{ID: id})
		}
	}
}

func synthesizeVoicePack(c *gin.Context, d *Deps, id model.ID, text string, req speechRequest, format audio.Format) {
	if err := executor.ValidateSpeed(req.Speed, executor.VoicePackMinSpeed, executor.VoicePackMaxSpeed); err != nil {
		mapError(c, err)
		return
	}

	lease, err := d.VoicePackManager.Lease(c.Request.Context(), id)
	if err != nil {
		mapError(c, err)
		return
	}
	defer lease.Release()
	sess := lease.Session()

	voices := d.VoicePack.Voices(sess)
	requested := req.Voice
	if requested == "" {
		requested = d.VoicePack.DefaultVoice(sess)
	}
	voice, substituted, err := executor.ResolveVoice(requested, voices, d.VoicePack.DefaultVoice(sess))
	if err != nil {
		mapError(c, err)
		return
	}
	if substituted {
		d.Log.Warn().Str("model_id", string(id)).Str("requested_voice", requested).Str("voice", voice).
			Msg("requested voice is not offered by this model; using its default voice")
	}

	targetRate := req.SampleRate
	if targetRate == 0 {
		targetRate = d.VoicePack.NativeSampleRate(sess)
	}

	iter, err := d.VoicePack.Synthesize(c.Request.Context(), sess, text, voice, req.Speed, targetRate)
	if err != nil {
		mapError(c, err)
		return
	}
	streamOrBuffer(c, d, iter, targetRate, format)
}

func synthesizeSingleVoice(c *gin.Context, d *Deps, id model.ID, text string, req speechRequest, format audio.Format) {
	if err := executor.ValidateSpeed(req.Speed, executor.SingleVoiceMinSpeed, executor.SingleVoiceMaxSpeed); err != nil {
		mapError(c, err)
		return
	}

	lease, err := d.SingleVoiceManager.Lease(c.Request.Context(), id)
	if err != nil {
		mapError(c, err)
		return
	}
	defer lease.Release()
	sess := lease.Session()

	targetRate := req.SampleRate
	if targetRate == 0 {
		targetRate = d.SingleVoice.NativeSampleRate(sess)
	}

	iter, err := d.SingleVoice.Synthesize(c.Request.Context(), sess, text, req.Speed, targetRate)
	if err != nil {
		mapError(c, err)
		return
	}
	streamOrBuffer(c, d, iter, targetRate, format)
}

// streamOrBuffer sends PCM chunks as they arrive for streamable formats
// (pcm, mp3), or buffers the whole stream and muxes it once for formats
// that need a complete container (wav, flac).
func streamOrBuffer(c *gin.Context, d *Deps, iter executor.PCMChunkIterator, sampleRate int, format audio.Format) {
	defer iter.Close()
	ctx := c.Request.Context()
	timer := prometheus.NewTimer(metrics.StageDuration.WithLabelValues("synthesize"))
	defer timer.ObserveDuration()

	c.Header("Content-Type", format.ContentType())

	if format.Streamable() {
		c.Status(http.StatusOK)
		for {
			chunk, ok, err := iter.Next(ctx)
			if err != nil {
				return
			}
			if !ok {
				return
			}
			muxed, err := d.Muxer.Mux(format, chunk, sampleRate)
			if err != nil {
				return
			}
			if _, werr := c.Writer.Write(muxed); werr != nil {
				return
			}
			c.Writer.Flush()
		}
	}

	var full []byte
	for {
		chunk, ok, err := iter.Next(ctx)
		if err != nil {
			mapError(c, err)
			return
		}
		if !ok {
			break
		}
		full = append(full, chunk...)
	}
	muxed, err := d.Muxer.Mux(format, full, sampleRate)
	if err != nil {
		mapError(c, err)
		return
	}
	c.Data(http.StatusOK, format.ContentType(), muxed)
}

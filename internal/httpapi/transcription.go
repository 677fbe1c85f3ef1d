package httpapi

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/speaches-go/gateway/internal/asrtypes"
	"github.com/speaches-go/gateway/internal/audio"
	"github.com/speaches-go/gateway/internal/executor"
	"github.com/speaches-go/gateway/internal/metrics"
	"github.com/speaches-go/gateway/internal/model"
)

// handleTranscription implements both POST /v1/audio/transcriptions and
// /translations — they differ only in the TranscribeTask passed through.
func handleTranscription(d *Deps, task executor.TranscribeTask) gin.HandlerFunc {
	return func(c *gin.Context) {
		form, err := c.MultipartForm()
		if err != nil {
			writeError(c, http.StatusBadRequest, "invalid_request_error", "multipart/form-data body required", "")
			return
		}

		files := form.File["file"]
		if len(files) == 0 {
			writeError(c, http.StatusBadRequest, "invalid_request_error", "file field is required", "file")
			return
		}
		fileHeader := files[0]
		src, err := fileHeader.Open()
		if err != nil {
			writeError(c, http.StatusBadRequest, "invalid_request_error", "could not read uploaded audio", "file")
			return
		}
		defer src.Close()

		modelName := firstValue(form.Value["model"])
		if modelName == "" {
			writeError(c, http.StatusBadRequest, "invalid_request_error", "model is required", "model")
			return
		}
		responseFormat := asrtypes.ResponseFormat(firstValue(form.Value["response_format"]))
		if responseFormat == "" {
			responseFormat = asrtypes.FormatJSON
		}
		granularities := form.Value["timestamp_granularities[]"]
		if !asrtypes.ValidGranularities(granularities) {
			writeError(c, http.StatusUnprocessableEntity, "invalid_request_error", "invalid timestamp_granularities[] combination", "timestamp_granularities[]")
			return
		}
		temperature, _ := strconv.ParseFloat(firstValue(form.Value["temperature"]), 64)

		sourceFormat := sourceFormatFromFilename(fileHeader.Filename)
		samples, sampleRate, err := d.Decoder.Decode(sourceFormat, src)
		if err != nil {
			writeError(c, http.StatusBadRequest, "invalid_request_error", "could not decode uploaded audio: "+err.Error(), "file")
			return
		}

		id := d.Aliases.Resolve(model.ID(modelName))
		family, err := d.Classifier.Classify(id)
		if err != nil {
			mapError(c, err)
			return
		}
		if family != model.FamilyASR {
			mapError(c, &model.ErrUnknownModel{ID: id})
			return
		}

		lease, err := d.ASRManager.Lease(c.Request.Context(), id)
		if err != nil {
			mapError(c, err)
			return
		}
		defer lease.Release()

		opts := executor.TranscribeOptions{
			Task:           task,
			Language:       firstValue(form.Value["language"]),
			InitialPrompt:  firstValue(form.Value["prompt"]),
			Temperature:    temperature,
			WordTimestamps: asrtypes.WantsWordTimestamps(granularities),
			VADFilter:      firstValue(form.Value["vad_filter"]) == "true",
			Hotwords:       firstValue(form.Value["hotwords"]),
		}

		timer := prometheus.NewTimer(metrics.StageDuration.WithLabelValues("transcribe"))
		iter, info, err := d.ASR.Transcribe(c.Request.Context(), lease.Session(), samples, sampleRate, opts)
		timer.ObserveDuration()
		if err != nil {
			mapError(c, err)
			return
		}
		defer iter.Close()

		segments, err := drainSegments(c.Request.Context(), iter)
		if err != nil {
			mapError(c, err)
			return
		}

		writeTranscriptionResponse(c, segments, info, responseFormat, opts.WordTimestamps)
	}
}

func drainSegments(ctx context.Context, iter executor.SegmentIterator) ([]asrtypes.Segment, error) {
	var segments []asrtypes.Segment
	for {
		seg, ok, err := iter.Next(ctx)
		if err != nil {
			return nil, err
		}
		if !ok {
			return segments, nil
		}
		segments = append(segments, seg)
	}
}

func firstValue(vals []string) string {
	if len(vals) == 0 {
		return ""
	}
	return vals[0]
}

func sourceFormatFromFilename(name string) audio.SourceFormat {
	lower := strings.ToLower(name)
	switch {
	case strings.HasSuffix(lower, ".mp3"):
		return audio.SourceMP3
	case strings.HasSuffix(lower, ".flac"):
		return audio.SourceFLAC
	default:
		return audio.SourceWAV
	}
}

func writeTranscriptionResponse(c *gin.Context, segments []asrtypes.Segment, info executor.TranscribeInfo, format asrtypes.ResponseFormat, wordTimestamps bool) {
	switch format {
	case asrtypes.FormatText:
		c.String(http.StatusOK, asrtypes.SegmentsToText(segments))
	case asrtypes.FormatSRT:
		c.String(http.StatusOK, asrtypes.FullSRT(segments))
	case asrtypes.FormatVTT:
		c.String(http.StatusOK, asrtypes.FullVTT(segments))
	case asrtypes.FormatVerboseJSON:
		c.JSON(http.StatusOK, asrtypes.NewVerboseResponse(segments, info.Language, info.Duration, wordTimestamps))
	default:
		c.JSON(http.StatusOK, asrtypes.TranscriptionResponse{Text: asrtypes.SegmentsToText(segments)})
	}
}

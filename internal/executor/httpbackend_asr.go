package executor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"time"

	"github.com/speaches-go/gateway/internal/asrtypes"
)

// HTTPASRExecutor reaches a local process-backed ASR sidecar (the stand-in
// for a real faster-whisper/ctranslate2 runtime) over HTTP, the same way
// the teacher's ASRClient reaches its whisper.cpp server: one POST per
// transcription call, multipart audio in, JSON segments out.
type HTTPASRExecutor struct {
	client *http.Client
}

// NewHTTPASRExecutor builds an executor using a pooled HTTP client sized
// for poolSize concurrent sidecar calls.
func NewHTTPASRExecutor(poolSize int) *HTTPASRExecutor {
	return &HTTPASRExecutor{client: NewPooledHTTPClient(poolSize, 2*time.Minute)}
}

func (e *HTTPASRExecutor) Load(ctx context.Context, artifact Artifact, placement Placement) (*Session[ASRNative], error) {
	baseURL, err := resolveSidecarURL(artifact)
	if err != nil {
		return nil, &ErrLoadFailed{ID: artifact.ID, Cause: err}
	}
	backend := placement.Resolve()
	return NewSession[ASRNative](&sidecarHandle{baseURL: baseURL}, backend, func() error { return nil }), nil
}

type transcribeWireResponse struct {
	Language string            `json:"language"`
	Duration float64           `json:"duration"`
	Segments []asrtypes.Segment `json:"segments"`
}

func (e *HTTPASRExecutor) Transcribe(ctx context.Context, sess *Session[ASRNative], audio []float32, sampleRate int, opts TranscribeOptions) (SegmentIterator, TranscribeInfo, error) {
	handle, ok := sess.Native.(*sidecarHandle)
	if !ok {
		return nil, TranscribeInfo{}, fmt.Errorf("executor: asr session has unexpected native handle type %T", sess.Native)
	}

	body, contentType, err := buildMultipartAudio(audio, sampleRate, opts)
	if err != nil {
		return nil, TranscribeInfo{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, handle.baseURL+"/transcribe", body)
	if err != nil {
		return nil, TranscribeInfo{}, fmt.Errorf("executor: build asr request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, TranscribeInfo{}, fmt.Errorf("executor: asr sidecar request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return nil, TranscribeInfo{}, fmt.Errorf("executor: asr sidecar status %d: %s", resp.StatusCode, string(respBody))
	}

	var wire transcribeWireResponse
	if err := json.NewDecoder(resp.Body).Decode(&wire); err != nil {
		return nil, TranscribeInfo{}, fmt.Errorf("executor: decode asr sidecar response: %w", err)
	}

	info := TranscribeInfo{Language: wire.Language, Duration: wire.Duration, Options: opts}
	return &sliceSegmentIterator{segments: wire.Segments}, info, nil
}

// sliceSegmentIterator adapts an already-complete segment slice (the shape
// the sidecar's JSON response returns) to the lazy SegmentIterator the
// rest of the codebase pulls from.
type sliceSegmentIterator struct {
	segments []asrtypes.Segment
	pos      int
}

func (it *sliceSegmentIterator) Next(ctx context.Context) (asrtypes.Segment, bool, error) {
	if err := ctx.Err(); err != nil {
		return asrtypes.Segment{}, false, err
	}
	if it.pos >= len(it.segments) {
		return asrtypes.Segment{}, false, nil
	}
	seg := it.segments[it.pos]
	it.pos++
	return seg, true, nil
}

func (it *sliceSegmentIterator) Close() error {
	it.pos = len(it.segments)
	return nil
}

func buildMultipartAudio(samples []float32, sampleRate int, opts TranscribeOptions) (*bytes.Buffer, string, error) {
	pcm16 := make([]byte, len(samples)*2)
	for i, s := range samples {
		if s > 1 {
			s = 1
		} else if s < -1 {
			s = -1
		}
		v := int16(s * 32767)
		pcm16[2*i] = byte(v)
		pcm16[2*i+1] = byte(v >> 8)
	}

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	part, err := writer.CreateFormFile("file", "audio.pcm")
	if err != nil {
		return nil, "", fmt.Errorf("executor: create form file: %w", err)
	}
	if _, err := part.Write(pcm16); err != nil {
		return nil, "", fmt.Errorf("executor: write pcm data: %w", err)
	}

	fields := map[string]string{
		"sample_rate":     strconv.Itoa(sampleRate),
		"task":            string(opts.Task),
		"language":        opts.Language,
		"initial_prompt":  opts.InitialPrompt,
		"temperature":     strconv.FormatFloat(opts.Temperature, 'f', -1, 64),
		"word_timestamps": strconv.FormatBool(opts.WordTimestamps),
		"vad_filter":      strconv.FormatBool(opts.VADFilter),
		"hotwords":        opts.Hotwords,
	}
	for k, v := range fields {
		if err := writer.WriteField(k, v); err != nil {
			return nil, "", fmt.Errorf("executor: write field %q: %w", k, err)
		}
	}

	if err := writer.Close(); err != nil {
		return nil, "", fmt.Errorf("executor: close multipart writer: %w", err)
	}
	return &body, writer.FormDataContentType(), nil
}

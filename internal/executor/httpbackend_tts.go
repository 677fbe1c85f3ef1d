package executor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// httpSynthesisChunkSize is the read buffer used to pull PCM out of a
// sidecar's chunked response body — 2048 16-bit mono samples, about 85ms
// at 24kHz.
const httpSynthesisChunkSize = 4096

type synthesizeWireRequest struct {
	Text       string  `json:"text"`
	Voice      string  `json:"voice,omitempty"`
	Speed      float64 `json:"speed"`
	SampleRate int     `json:"sample_rate"`
}

// httpPCMIterator pulls PCM chunks of at most httpSynthesisChunkSize bytes
// out of a streamed HTTP response body until the body is exhausted; Close
// closes the body.
type httpPCMIterator struct {
	resp *http.Response
	buf  []byte
}

func newHTTPPCMIterator(resp *http.Response) *httpPCMIterator {
	return &httpPCMIterator{resp: resp, buf: make([]byte, httpSynthesisChunkSize)}
}

func (it *httpPCMIterator) Next(ctx context.Context) ([]byte, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	n, err := it.resp.Body.Read(it.buf)
	if n > 0 {
		chunk := make([]byte, n)
		copy(chunk, it.buf[:n])
		return chunk, true, nil
	}
	if err != nil {
		return nil, false, nil
	}
	return nil, false, nil
}

func (it *httpPCMIterator) Close() error {
	return it.resp.Body.Close()
}

// voicePackMetadata is the sidecar's static description of a voice-pack
// model, fetched once at load time and cached on the session handle.
type voicePackMetadata struct {
	Voices           []string `json:"voices"`
	DefaultVoice     string   `json:"default_voice"`
	NativeSampleRate int      `json:"sample_rate"`
}

type voicePackHandle struct {
	sidecarHandle
	meta voicePackMetadata
}

// HTTPVoicePackExecutor reaches a Kokoro-style voice-pack TTS sidecar over
// HTTP, grounded on the same request/response shape the teacher's
// TTSClient uses against its Piper sidecar, extended with a voice
// parameter and a metadata probe at load time.
type HTTPVoicePackExecutor struct {
	client *http.Client
}

func NewHTTPVoicePackExecutor(poolSize int) *HTTPVoicePackExecutor {
	return &HTTPVoicePackExecutor{client: NewPooledHTTPClient(poolSize, 2*time.Minute)}
}

func (e *HTTPVoicePackExecutor) Load(ctx context.Context, artifact Artifact, placement Placement) (*Session[VoicePackNative], error) {
	baseURL, err := resolveSidecarURL(artifact)
	if err != nil {
		return nil, &ErrLoadFailed{ID: artifact.ID, Cause: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+"/voices", nil)
	if err != nil {
		return nil, &ErrLoadFailed{ID: artifact.ID, Cause: err}
	}
	resp, err := e.client.Do(req)
	if err != nil {
		return nil, &ErrLoadFailed{ID: artifact.ID, Cause: err}
	}
	defer resp.Body.Close()

	var meta voicePackMetadata
	if err := json.NewDecoder(resp.Body).Decode(&meta); err != nil {
		return nil, &ErrLoadFailed{ID: artifact.ID, Cause: fmt.Errorf("decode voices metadata: %w", err)}
	}

	handle := &voicePackHandle{sidecarHandle: sidecarHandle{baseURL: baseURL}, meta: meta}
	return NewSession[VoicePackNative](handle, placement.Resolve(), func() error { return nil }), nil
}

func (e *HTTPVoicePackExecutor) Voices(sess *Session[VoicePackNative]) []string {
	return sess.Native.(*voicePackHandle).meta.Voices
}

func (e *HTTPVoicePackExecutor) DefaultVoice(sess *Session[VoicePackNative]) string {
	return sess.Native.(*voicePackHandle).meta.DefaultVoice
}

func (e *HTTPVoicePackExecutor) NativeSampleRate(sess *Session[VoicePackNative]) int {
	return sess.Native.(*voicePackHandle).meta.NativeSampleRate
}

func (e *HTTPVoicePackExecutor) Synthesize(ctx context.Context, sess *Session[VoicePackNative], text, voice string, speed float64, targetSampleRate int) (PCMChunkIterator, error) {
	handle := sess.Native.(*voicePackHandle)
	return postSynthesize(ctx, e.client, handle.baseURL, synthesizeWireRequest{
		Text: text, Voice: voice, Speed: speed, SampleRate: targetSampleRate,
	})
}

// singleVoiceHandle and HTTPSingleVoiceExecutor are the Piper-style
// counterpart: one baked-in voice, no /voices probe needed.
type singleVoiceHandle struct {
	sidecarHandle
	nativeSampleRate int
}

type HTTPSingleVoiceExecutor struct {
	client *http.Client
}

func NewHTTPSingleVoiceExecutor(poolSize int) *HTTPSingleVoiceExecutor {
	return &HTTPSingleVoiceExecutor{client: NewPooledHTTPClient(poolSize, 2*time.Minute)}
}

func (e *HTTPSingleVoiceExecutor) Load(ctx context.Context, artifact Artifact, placement Placement) (*Session[SingleVoiceNative], error) {
	baseURL, err := resolveSidecarURL(artifact)
	if err != nil {
		return nil, &ErrLoadFailed{ID: artifact.ID, Cause: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+"/info", nil)
	if err != nil {
		return nil, &ErrLoadFailed{ID: artifact.ID, Cause: err}
	}
	resp, err := e.client.Do(req)
	if err != nil {
		return nil, &ErrLoadFailed{ID: artifact.ID, Cause: err}
	}
	defer resp.Body.Close()

	var info struct {
		SampleRate int `json:"sample_rate"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, &ErrLoadFailed{ID: artifact.ID, Cause: fmt.Errorf("decode info: %w", err)}
	}

	handle := &singleVoiceHandle{sidecarHandle: sidecarHandle{baseURL: baseURL}, nativeSampleRate: info.SampleRate}
	return NewSession[SingleVoiceNative](handle, placement.Resolve(), func() error { return nil }), nil
}

func (e *HTTPSingleVoiceExecutor) NativeSampleRate(sess *Session[SingleVoiceNative]) int {
	return sess.Native.(*singleVoiceHandle).nativeSampleRate
}

func (e *HTTPSingleVoiceExecutor) Synthesize(ctx context.Context, sess *Session[SingleVoiceNative], text string, speed float64, targetSampleRate int) (PCMChunkIterator, error) {
	handle := sess.Native.(*singleVoiceHandle)
	return postSynthesize(ctx, e.client, handle.baseURL, synthesizeWireRequest{
		Text: text, Speed: speed, SampleRate: targetSampleRate,
	})
}

func postSynthesize(ctx context.Context, client *http.Client, baseURL string, wire synthesizeWireRequest) (PCMChunkIterator, error) {
	payload, err := json.Marshal(wire)
	if err != nil {
		return nil, fmt.Errorf("executor: marshal synthesize request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, baseURL+"/synthesize", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("executor: build synthesize request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("executor: synthesize sidecar request: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("executor: synthesize sidecar status %d", resp.StatusCode)
	}
	return newHTTPPCMIterator(resp), nil
}

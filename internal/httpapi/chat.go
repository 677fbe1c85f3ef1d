package httpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync/atomic"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/openai/openai-go/v2"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/speaches-go/gateway/internal/audiopipeline"
	"github.com/speaches-go/gateway/internal/model"
	"github.com/speaches-go/gateway/internal/upstream"
)

// chatRequest is the subset of the OpenAI chat-completions body this
// gateway reads directly, layered over the upstream SDK's own params type
// for everything forwarded verbatim. Stream and Modalities are read here
// rather than off the embedded param type since this gateway's ChatClient
// contract already splits Complete/Stream into separate calls.
type chatRequest struct {
	openai.ChatCompletionNewParams
	Stream     bool     `json:"stream,omitempty"`
	Modalities []string `json:"modalities,omitempty"`
	Audio      *struct {
		Voice  string `json:"voice"`
		Format string `json:"format"`
	} `json:"audio,omitempty"`
	Engine string `json:"engine,omitempty"`
}

func (r chatRequest) wantsAudio() bool {
	for _, m := range r.Modalities {
		if m == "audio" {
			return true
		}
	}
	return false
}

// sseEvent is one merged item in the chat-with-audio response stream: a
// transcript delta or an audio PCM delta (base64-wrapped by the caller).
// The terminal chunk is written by handleAudioChat after the stream
// drains, not sent as an sseEvent. Plain (non-audio-modality) chat uses a separate
// plain-text delta path in handlePlainChat instead of this type.
type sseEvent struct {
	kind    string // "transcript" or "audio"
	text    string
	audio   []byte
	audioID string
}

// rawMessageAudio captures just enough of each request message to detect
// the OpenAI audio-reply extension (`{"role":"assistant","audio":{"id":"..."}}`)
// without depending on the upstream SDK's param type having a matching
// field — a JSON-level pass keeps this gateway correct regardless.
type rawMessageAudio struct {
	Role  string `json:"role"`
	Audio *struct {
		ID string `json:"id"`
	} `json:"audio,omitempty"`
}

// handleChatCompletions implements POST /v1/chat/completions, including
// the audio-modality extension: upstream text tokens are chunked into
// sentences and synthesized concurrently, merging into one SSE stream.
func handleChatCompletions(d *Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		body, err := c.GetRawData()
		if err != nil {
			writeError(c, http.StatusBadRequest, "invalid_request_error", "could not read request body", "")
			return
		}

		var req chatRequest
		if err := json.Unmarshal(body, &req); err != nil {
			writeError(c, http.StatusBadRequest, "invalid_request_error", err.Error(), "")
			return
		}

		client, err := d.Upstream.Route(req.Engine)
		if err != nil {
			writeError(c, http.StatusNotFound, "invalid_request_error", err.Error(), "model")
			return
		}

		substituteCachedAudio(d, body, &req.ChatCompletionNewParams)

		if !req.wantsAudio() {
			handlePlainChat(c, client, req)
			return
		}
		handleAudioChat(c, d, client, req)
	}
}

// substituteCachedAudio replaces any assistant message that references a
// previously synthesized audio_id with the text that was actually spoken,
// so a multi-turn conversation with audio replies stays coherent upstream
// without re-uploading audio bytes.
func substituteCachedAudio(d *Deps, body []byte, params *openai.ChatCompletionNewParams) {
	var envelope struct {
		Messages []rawMessageAudio `json:"messages"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return
	}
	for i, raw := range envelope.Messages {
		if raw.Audio == nil || raw.Audio.ID == "" || i >= len(params.Messages) {
			continue
		}
		m := &params.Messages[i]
		if m.OfAssistant == nil {
			continue
		}
		if text, ok := d.Transcript.Get(raw.Audio.ID); ok {
			m.OfAssistant.Content.OfString = openai.String(text)
		}
	}
}

func handlePlainChat(c *gin.Context, client upstream.ChatClient, req chatRequest) {
	if !req.Stream {
		resp, err := client.Complete(c.Request.Context(), req.ChatCompletionNewParams)
		if err != nil {
			mapError(c, &ErrUpstream{Hint: "the configured chat-completion backend rejected or could not complete this request", Cause: err})
			return
		}
		c.JSON(http.StatusOK, resp)
		return
	}

	w := c.Writer
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)

	err := client.Stream(c.Request.Context(), req.ChatCompletionNewParams, func(token string) {
		writeSSEChunk(w, token, "")
		w.Flush()
	})
	if err != nil {
		// Headers and partial chunks are already on the wire; the only
		// honest move left is to stop without a trailing [DONE] event.
		log.Error().Err(err).Msg("upstream chat stream failed mid-response")
		return
	}
	fmt.Fprint(w, "data: [DONE]\n\n")
	w.Flush()
}

// handleAudioChat runs two concurrent producers merged into one output
// channel via errgroup: the upstream token stream (fed into a
// SentenceChunker) and, consuming that chunker's completed sentences, a
// TTS synthesis stage. Both publish sseEvents to a shared channel the
// handler drains in delivery order. Both producers share one audioID,
// generated up front, so the transcript deltas the text producer emits and
// the PCM deltas the audio producer emits are keyed to the same reply.
func handleAudioChat(c *gin.Context, d *Deps, client upstream.ChatClient, req chatRequest) {
	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	chunker := audiopipeline.NewSentenceChunker(d.MinSentenceLength)
	events := make(chan sseEvent, 16)
	var fullText strings.Builder
	audioID := uuid.NewString()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer chunker.Close()
		err := client.Stream(gctx, req.ChatCompletionNewParams, func(token string) {
			fullText.WriteString(token)
			events <- sseEvent{kind: "transcript", text: token, audioID: audioID}
			_ = chunker.AddToken(token)
		})
		if err != nil {
			return fmt.Errorf("chat: upstream stream: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		voice := ""
		format := "pcm"
		if req.Audio != nil {
			voice = req.Audio.Voice
			format = req.Audio.Format
		}
		for {
			chunk, ok, err := chunker.Next(gctx)
			if err != nil {
				return nil // context cancelled upstream; not a pipeline failure
			}
			if !ok {
				break
			}
			pcm, err := synthesizeForChat(gctx, d, chunk, voice, format)
			if err != nil {
				return fmt.Errorf("chat: synthesize: %w", err)
			}
			events <- sseEvent{kind: "audio", audio: pcm, audioID: audioID}
		}
		return nil
	})

	go func() {
		if err := g.Wait(); err != nil {
			log.Error().Err(err).Msg("chat-with-audio pipeline stage failed")
		}
		close(events)
	}()

	w := c.Writer
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)

	for ev := range events {
		switch ev.kind {
		case "transcript":
			writeTranscriptChunk(w, ev.audioID, ev.text)
		case "audio":
			writeAudioChunk(w, ev.audioID, ev.audio)
		}
		w.Flush()
	}

	d.Transcript.Put(audioID, strings.TrimSpace(fullText.String()))
	writeFinalChunk(w)
	fmt.Fprint(w, "data: [DONE]\n\n")
	w.Flush()
}

func synthesizeForChat(ctx context.Context, d *Deps, text, voice, format string) ([]byte, error) {
	cleaned, ok := audiopipeline.PrepareForSynthesis(text)
	if !ok {
		return nil, nil
	}

	id := d.Aliases.Resolve(model.ID(voice))
	family, err := d.Classifier.Classify(id)
	if err != nil {
		family = model.FamilyTTSVoicePack
	}

	switch family {
	case model.FamilyTTSSingleVoice:
		lease, err := d.SingleVoiceManager.Lease(ctx, id)
		if err != nil {
			return nil, err
		}
		defer lease.Release()
		sess := lease.Session()
		iter, err := d.SingleVoice.Synthesize(ctx, sess, cleaned, 1.0, d.SingleVoice.NativeSampleRate(sess))
		if err != nil {
			return nil, err
		}
		return drainPCM(ctx, iter)
	default:
		lease, err := d.VoicePackManager.Lease(ctx, id)
		if err != nil {
			return nil, err
		}
		defer lease.Release()
		sess := lease.Session()
		iter, err := d.VoicePack.Synthesize(ctx, sess, cleaned, voice, 1.0, d.VoicePack.NativeSampleRate(sess))
		if err != nil {
			return nil, err
		}
		return drainPCM(ctx, iter)
	}
}

func drainPCM(ctx context.Context, iter interface {
	Next(ctx context.Context) ([]byte, bool, error)
	Close() error
}) ([]byte, error) {
	defer iter.Close()
	var out []byte
	for {
		chunk, ok, err := iter.Next(ctx)
		if err != nil {
			return nil, err
		}
		if !ok {
			return out, nil
		}
		out = append(out, chunk...)
	}
}

var chatChunkSeq int64

func writeSSEChunk(w interface{ Write([]byte) (int, error) }, delta, finishReason string) {
	id := fmt.Sprintf("chatcmpl-%d", atomic.AddInt64(&chatChunkSeq, 1))
	payload, _ := json.Marshal(gin.H{
		"id":     id,
		"object": "chat.completion.chunk",
		"choices": []gin.H{{
			"index":         0,
			"delta":         gin.H{"content": delta},
			"finish_reason": nilIfEmpty(finishReason),
		}},
	})
	fmt.Fprintf(w, "data: %s\n\n", payload)
}

// writeTranscriptChunk emits a token as an audio-transcript delta keyed by
// audioID, the shape an audio-modality reply uses in place of delta.content
// once synthesis is in play, rather than a plain text delta.
func writeTranscriptChunk(w interface{ Write([]byte) (int, error) }, audioID, delta string) {
	payload, _ := json.Marshal(gin.H{
		"id":     fmt.Sprintf("chatcmpl-%d", atomic.AddInt64(&chatChunkSeq, 1)),
		"object": "chat.completion.chunk",
		"choices": []gin.H{{
			"index": 0,
			"delta": gin.H{
				"audio": gin.H{
					"id":         audioID,
					"transcript": delta,
				},
			},
			"finish_reason": nil,
		}},
	})
	fmt.Fprintf(w, "data: %s\n\n", payload)
}

func writeAudioChunk(w interface{ Write([]byte) (int, error) }, audioID string, pcm []byte) {
	if len(pcm) == 0 {
		return
	}
	payload, _ := json.Marshal(gin.H{
		"id":     fmt.Sprintf("chatcmpl-%d", atomic.AddInt64(&chatChunkSeq, 1)),
		"object": "chat.completion.chunk",
		"choices": []gin.H{{
			"index": 0,
			"delta": gin.H{
				"audio": gin.H{
					"id":   audioID,
					"data": pcm,
				},
			},
			"finish_reason": nil,
		}},
	})
	fmt.Fprintf(w, "data: %s\n\n", payload)
}

func writeFinalChunk(w interface{ Write([]byte) (int, error) }) {
	writeSSEChunk(w, "", "stop")
}

func nilIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

package httpapi

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/speaches-go/gateway/internal/asrtypes"
	"github.com/speaches-go/gateway/internal/audio"
	"github.com/speaches-go/gateway/internal/executor"
	"github.com/speaches-go/gateway/internal/lifecycle"
	"github.com/speaches-go/gateway/internal/model"
	"github.com/speaches-go/gateway/internal/transcript"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// fakeASR is a minimal ASRExecutor that always loads successfully and
// returns a single canned segment.
type fakeASR struct{}

func (fakeASR) Load(ctx context.Context, artifact executor.Artifact, placement executor.Placement) (*executor.Session[executor.ASRNative], error) {
	return executor.NewSession[executor.ASRNative]("native", executor.BackendCPU, nil), nil
}

func (fakeASR) Transcribe(ctx context.Context, sess *executor.Session[executor.ASRNative], samples []float32, sampleRate int, opts executor.TranscribeOptions) (executor.SegmentIterator, executor.TranscribeInfo, error) {
	return &fakeSegmentIterator{}, executor.TranscribeInfo{Language: "en", Duration: 1.5, Options: opts}, nil
}

type fakeSegmentIterator struct{ done bool }

func (it *fakeSegmentIterator) Next(ctx context.Context) (asrtypes.Segment, bool, error) {
	if it.done {
		return asrtypes.Segment{}, false, nil
	}
	it.done = true
	return asrtypes.Segment{ID: 0, Start: 0, End: 1, Text: "hello"}, true, nil
}

func (it *fakeSegmentIterator) Close() error { return nil }

// fakeVoicePack is a minimal VoicePackExecutor with two known voices.
type fakeVoicePack struct{}

func (fakeVoicePack) Load(ctx context.Context, artifact executor.Artifact, placement executor.Placement) (*executor.Session[executor.VoicePackNative], error) {
	return executor.NewSession[executor.VoicePackNative]("native", executor.BackendCPU, nil), nil
}
func (fakeVoicePack) Voices(sess *executor.Session[executor.VoicePackNative]) []string {
	return []string{"af_heart", "am_adam"}
}
func (fakeVoicePack) DefaultVoice(sess *executor.Session[executor.VoicePackNative]) string {
	return "af_heart"
}
func (fakeVoicePack) NativeSampleRate(sess *executor.Session[executor.VoicePackNative]) int {
	return 24000
}
func (fakeVoicePack) Synthesize(ctx context.Context, sess *executor.Session[executor.VoicePackNative], text, voice string, speed float64, targetSampleRate int) (executor.PCMChunkIterator, error) {
	return &fakePCMIterator{chunks: [][]byte{{0, 1, 2, 3}}}, nil
}

type fakePCMIterator struct {
	chunks [][]byte
	pos    int
}

func (it *fakePCMIterator) Next(ctx context.Context) ([]byte, bool, error) {
	if it.pos >= len(it.chunks) {
		return nil, false, nil
	}
	c := it.chunks[it.pos]
	it.pos++
	return c, true, nil
}

func (it *fakePCMIterator) Close() error { return nil }

// fakeSingleVoice is a minimal SingleVoiceExecutor.
type fakeSingleVoice struct{}

func (fakeSingleVoice) Load(ctx context.Context, artifact executor.Artifact, placement executor.Placement) (*executor.Session[executor.SingleVoiceNative], error) {
	return executor.NewSession[executor.SingleVoiceNative]("native", executor.BackendCPU, nil), nil
}
func (fakeSingleVoice) NativeSampleRate(sess *executor.Session[executor.SingleVoiceNative]) int {
	return 22050
}
func (fakeSingleVoice) Synthesize(ctx context.Context, sess *executor.Session[executor.SingleVoiceNative], text string, speed float64, targetSampleRate int) (executor.PCMChunkIterator, error) {
	return &fakePCMIterator{chunks: [][]byte{{4, 5, 6, 7}}}, nil
}

// fakeRegistry is a minimal registry.Registry over an in-memory map.
type fakeRegistry struct {
	cards map[model.ID]model.CardData
	infos map[model.ID]model.Info
}

func newFakeRegistry() *fakeRegistry {
	return &fakeRegistry{cards: map[model.ID]model.CardData{}, infos: map[model.ID]model.Info{}}
}

func (r *fakeRegistry) register(id model.ID, task model.Task, card model.CardData) {
	r.cards[id] = card
	r.infos[id] = model.NewInfo(id, task, card.Tags)
}

func (r *fakeRegistry) List(ctx context.Context, task model.Task) ([]model.Info, error) {
	var out []model.Info
	for _, info := range r.infos {
		if task == "" || info.Task == task {
			out = append(out, info)
		}
	}
	return out, nil
}

func (r *fakeRegistry) Get(ctx context.Context, id model.ID) (model.Info, error) {
	info, ok := r.infos[id]
	if !ok {
		return model.Info{}, &model.ErrUnknownModel{ID: id}
	}
	return info, nil
}

func (r *fakeRegistry) Artifact(ctx context.Context, id model.ID) (executor.Artifact, error) {
	return executor.Artifact{ID: id}, nil
}

func (r *fakeRegistry) CardData(ctx context.Context, id model.ID) (model.CardData, error) {
	card, ok := r.cards[id]
	if !ok {
		return model.CardData{}, &model.ErrUnknownModel{ID: id}
	}
	return card, nil
}

func (r *fakeRegistry) Download(ctx context.Context, id model.ID) error {
	if _, ok := r.cards[id]; !ok {
		return &model.ErrUnknownModel{ID: id}
	}
	return nil
}

func (r *fakeRegistry) Delete(ctx context.Context, id model.ID) error {
	if _, ok := r.cards[id]; !ok {
		return &model.ErrUnknownModel{ID: id}
	}
	delete(r.cards, id)
	delete(r.infos, id)
	return nil
}

const (
	testASRModel         model.ID = "Systran/faster-whisper-test"
	testVoicePackModel   model.ID = "hexgrad/Kokoro-test"
	testSingleVoiceModel model.ID = "rhasspy/piper-test"
)

func testDeps(t *testing.T) *Deps {
	t.Helper()
	reg := newFakeRegistry()
	reg.register(testASRModel, model.TaskASR, model.CardData{PipelineTag: string(model.TaskASR), Tags: []string{"ctranslate2"}})
	reg.register(testVoicePackModel, model.TaskTTS, model.CardData{LibraryName: "kokoro-onnx", PipelineTag: string(model.TaskTTS)})
	reg.register(testSingleVoiceModel, model.TaskTTS, model.CardData{LibraryName: "onnx", PipelineTag: string(model.TaskTTS), Tags: []string{"piper"}})

	classifier := model.NewClassifier(func(id model.ID) (model.CardData, error) {
		return reg.CardData(context.Background(), id)
	}, model.DefaultFilters())

	aliases, err := model.NewAliasResolver("")
	if err != nil {
		t.Fatal(err)
	}

	log := zerolog.Nop()
	return &Deps{
		Log:                log,
		Aliases:            aliases,
		Classifier:         classifier,
		Registry:           reg,
		ASR:                fakeASR{},
		VoicePack:          fakeVoicePack{},
		SingleVoice:        fakeSingleVoice{},
		ASRManager:         lifecycle.NewManager("asr", asrFactory(reg), time.Minute, 0, log),
		VoicePackManager:   lifecycle.NewManager("tts-voicepack", voicePackFactory(reg), time.Minute, 0, log),
		SingleVoiceManager: lifecycle.NewManager("tts-singlevoice", singleVoiceFactory(reg), time.Minute, 0, log),
		Muxer:              audio.NewMuxer(nil),
		Decoder:            audio.NewDecoder(nil),
		Transcript:         transcript.New(10, time.Minute),
		MinSentenceLength:  20,
	}
}

func asrFactory(reg *fakeRegistry) lifecycle.SessionFactory[executor.ASRNative] {
	return func(ctx context.Context, id model.ID) (*executor.Session[executor.ASRNative], error) {
		artifact, err := reg.Artifact(ctx, id)
		if err != nil {
			return nil, err
		}
		return fakeASR{}.Load(ctx, artifact, executor.Placement{})
	}
}

func voicePackFactory(reg *fakeRegistry) lifecycle.SessionFactory[executor.VoicePackNative] {
	return func(ctx context.Context, id model.ID) (*executor.Session[executor.VoicePackNative], error) {
		artifact, err := reg.Artifact(ctx, id)
		if err != nil {
			return nil, err
		}
		return fakeVoicePack{}.Load(ctx, artifact, executor.Placement{})
	}
}

func singleVoiceFactory(reg *fakeRegistry) lifecycle.SessionFactory[executor.SingleVoiceNative] {
	return func(ctx context.Context, id model.ID) (*executor.Session[executor.SingleVoiceNative], error) {
		artifact, err := reg.Artifact(ctx, id)
		if err != nil {
			return nil, err
		}
		return fakeSingleVoice{}.Load(ctx, artifact, executor.Placement{})
	}
}

func newTestRecorder() *httptest.ResponseRecorder {
	return httptest.NewRecorder()
}

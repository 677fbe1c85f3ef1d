package model

import "sync"

// CardData is the subset of a model repository's metadata (its README
// front-matter, in the upstream HF convention) that classification reads.
// Populated by whatever artifact registry backs a given deployment.
type CardData struct {
	LibraryName string
	PipelineTag string
	Tags        []string
}

func (c CardData) hasTag(tag string) bool {
	for _, t := range c.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// Filter decides whether a CardData belongs to one Family, mirroring the
// library/task/tags triple the upstream registry filters on.
type Filter struct {
	Family      Family
	LibraryName string
	Task        string
	RequireTags []string
}

func (f Filter) matches(card CardData) bool {
	if f.LibraryName != "" && card.LibraryName != f.LibraryName {
		return false
	}
	if f.Task != "" && f.Task != card.PipelineTag && !card.hasTag(f.Task) {
		return false
	}
	for _, tag := range f.RequireTags {
		if !card.hasTag(tag) {
			return false
		}
	}
	return true
}

// DefaultFilters mirrors the upstream executors' registered filters: Kokoro
// voice packs, Piper single-voice models, and faster-whisper ASR models.
func DefaultFilters() []Filter {
	return []Filter{
		{Family: FamilyTTSVoicePack, LibraryName: "kokoro-onnx", Task: string(TaskTTS)},
		{Family: FamilyTTSSingleVoice, LibraryName: "onnx", Task: string(TaskTTS), RequireTags: []string{"piper"}},
		{Family: FamilyASR, Task: string(TaskASR), RequireTags: []string{"ctranslate2"}},
	}
}

// Classifier maps a model ID to a Family by sniffing its CardData against a
// set of Filters, caching results so repeated lookups (the speech,
// transcription and chat-audio handlers, /api/ps) don't re-read metadata
// from disk every time.
type Classifier struct {
	filters []Filter
	lookup  func(ID) (CardData, error)

	mu    sync.Mutex
	cache map[ID]Family
}

// NewClassifier builds a Classifier. lookup retrieves the CardData for a
// model ID (e.g. by reading its cached README.md front-matter); filters is
// normally DefaultFilters().
func NewClassifier(lookup func(ID) (CardData, error), filters []Filter) *Classifier {
	return &Classifier{
		filters: filters,
		lookup:  lookup,
		cache:   map[ID]Family{},
	}
}

// Classify returns the Family for id, consulting the cache first.
func (c *Classifier) Classify(id ID) (Family, error) {
	c.mu.Lock()
	if fam, ok := c.cache[id]; ok {
		c.mu.Unlock()
		return fam, nil
	}
	c.mu.Unlock()

	card, err := c.lookup(id)
	if err != nil {
		return FamilyUnknown, err
	}

	fam := FamilyUnknown
	for _, f := range c.filters {
		if f.matches(card) {
			fam = f.Family
			break
		}
	}

	c.mu.Lock()
	c.cache[id] = fam
	c.mu.Unlock()
	return fam, nil
}

// Invalidate drops a cached classification, e.g. after a model is deleted
// from local storage and re-downloaded under the same ID.
func (c *Classifier) Invalidate(id ID) {
	c.mu.Lock()
	delete(c.cache, id)
	c.mu.Unlock()
}

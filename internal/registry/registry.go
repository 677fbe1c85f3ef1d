// Package registry is the out-of-scope model artifact store: the thing
// that knows which models exist locally, fetches new ones, and deletes
// them. The executor and lifecycle layers only ever consume its
// Artifact/CardData lookups; they never touch the filesystem directly.
package registry

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/speaches-go/gateway/internal/executor"
	"github.com/speaches-go/gateway/internal/model"
)

// Registry is the artifact-store contract routes delegate to for
// GET/POST/DELETE /v1/models/{id} and for resolving a model id to the
// file paths an executor loads.
type Registry interface {
	List(ctx context.Context, task model.Task) ([]model.Info, error)
	Get(ctx context.Context, id model.ID) (model.Info, error)
	Artifact(ctx context.Context, id model.ID) (executor.Artifact, error)
	CardData(ctx context.Context, id model.ID) (model.CardData, error)
	Download(ctx context.Context, id model.ID) error
	Delete(ctx context.Context, id model.ID) error
}

// LocalFS is a Registry backed by a HuggingFace-Hub-style cache layout:
// <cacheDir>/models--<org>--<name>/snapshots/<rev>/*, mirroring
// hf_utils.get_model_repo_path/list_model_files closely enough that the
// same cache a real download step populates is directly readable here.
type LocalFS struct {
	cacheDir string
	offline  bool

	mu    sync.RWMutex
	cards map[model.ID]model.CardData
	tasks map[model.ID]model.Task
}

// NewLocalFS builds a LocalFS registry rooted at cacheDir (HF_HUB_CACHE).
// offline mirrors HF_HUB_OFFLINE: when true, List never attempts a remote
// listing and only reports what's already on disk.
func NewLocalFS(cacheDir string, offline bool) *LocalFS {
	return &LocalFS{
		cacheDir: cacheDir,
		offline:  offline,
		cards:    map[model.ID]model.CardData{},
		tasks:    map[model.ID]model.Task{},
	}
}

// RegisterCardData seeds known metadata for a model id, standing in for
// the README.md front-matter a real download would have fetched. Gateway
// deployments that never run a live download step can preconfigure known
// models this way.
func (r *LocalFS) RegisterCardData(id model.ID, task model.Task, card model.CardData) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cards[id] = card
	r.tasks[id] = task
}

func repoDirName(id model.ID) string {
	return "models--" + strings.ReplaceAll(string(id), "/", "--")
}

func (r *LocalFS) repoPath(id model.ID) string {
	return filepath.Join(r.cacheDir, repoDirName(id))
}

// exists reports whether id has a snapshot directory on disk.
func (r *LocalFS) exists(id model.ID) bool {
	snapshots := filepath.Join(r.repoPath(id), "snapshots")
	entries, err := os.ReadDir(snapshots)
	return err == nil && len(entries) > 0
}

func (r *LocalFS) List(ctx context.Context, task model.Task) ([]model.Info, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []model.Info
	for id, t := range r.tasks {
		if task != "" && t != task {
			continue
		}
		if !r.exists(id) {
			continue
		}
		card := r.cards[id]
		out = append(out, model.NewInfo(id, t, card.Tags))
	}
	return out, nil
}

func (r *LocalFS) Get(ctx context.Context, id model.ID) (model.Info, error) {
	r.mu.RLock()
	task, known := r.tasks[id]
	card := r.cards[id]
	r.mu.RUnlock()

	if !known || !r.exists(id) {
		return model.Info{}, &model.ErrUnknownModel{ID: id}
	}
	return model.NewInfo(id, task, card.Tags), nil
}

func (r *LocalFS) Artifact(ctx context.Context, id model.ID) (executor.Artifact, error) {
	if !r.exists(id) {
		return executor.Artifact{}, &model.ErrUnknownModel{ID: id}
	}
	snapshots := filepath.Join(r.repoPath(id), "snapshots")
	entries, err := os.ReadDir(snapshots)
	if err != nil || len(entries) == 0 {
		return executor.Artifact{}, &model.ErrUnknownModel{ID: id}
	}
	root := filepath.Join(snapshots, entries[0].Name())

	files := map[string]string{}
	_ = filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		files[d.Name()] = path
		return nil
	})

	return executor.Artifact{ID: id, Root: root, Files: files}, nil
}

func (r *LocalFS) CardData(ctx context.Context, id model.ID) (model.CardData, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	card, ok := r.cards[id]
	if !ok {
		return model.CardData{}, &model.ErrUnknownModel{ID: id}
	}
	return card, nil
}

// Download is a no-op placeholder: fetching artifacts from a remote hub is
// explicitly out of scope. It succeeds only for models already present.
func (r *LocalFS) Download(ctx context.Context, id model.ID) error {
	if r.offline {
		return fmt.Errorf("registry: offline, cannot download %q", string(id))
	}
	if r.exists(id) {
		return nil
	}
	return fmt.Errorf("registry: download not implemented for %q (out of scope)", string(id))
}

func (r *LocalFS) Delete(ctx context.Context, id model.ID) error {
	if !r.exists(id) {
		return &model.ErrUnknownModel{ID: id}
	}
	path := r.repoPath(id)
	if err := os.RemoveAll(path); err != nil {
		return fmt.Errorf("registry: delete %q: %w", string(id), err)
	}
	r.mu.Lock()
	delete(r.cards, id)
	delete(r.tasks, id)
	r.mu.Unlock()
	return nil
}

package executor

import (
	"fmt"
	"os"
	"strings"
)

// sidecarHandle is the native handle every HTTP-backed executor wraps in a
// Session: just the base URL of the resolved sidecar instance serving
// this artifact.
type sidecarHandle struct {
	baseURL string
}

// resolveSidecarURL reads the base URL for an artifact's inference
// sidecar out of its "sidecar_url" file — a one-line text file an
// operator drops alongside a model's weights in its snapshot directory,
// the same way the registry's HF-Hub-style cache layout stores any other
// per-model side file.
func resolveSidecarURL(artifact Artifact) (string, error) {
	path, ok := artifact.Files["sidecar_url"]
	if !ok {
		return "", fmt.Errorf("artifact %q has no sidecar_url file", artifact.Root)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read sidecar_url: %w", err)
	}
	url := strings.TrimSpace(string(data))
	if url == "" {
		return "", fmt.Errorf("sidecar_url file %q is empty", path)
	}
	return url, nil
}

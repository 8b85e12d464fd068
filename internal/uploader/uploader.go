// Package uploader ships finished run directories to object storage.
package uploader

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pkg/errors"

	"schemata/internal/config"
)

// Uploader copies a run directory to remote storage and returns its location.
type Uploader interface {
	Enabled() bool
	UploadDir(ctx context.Context, dir string) (string, error)
}

// NoopUploader is used when no backend is configured.
type NoopUploader struct{}

func (NoopUploader) Enabled() bool { return false }

func (NoopUploader) UploadDir(context.Context, string) (string, error) { return "", nil }

// New picks the configured backend. GCS wins when both are enabled.
func New(storage config.StorageConfig) (Uploader, error) {
	switch {
	case storage.GCS.Enabled:
		return NewGCS(storage.GCS)
	case storage.S3.Enabled:
		return NewS3(storage.S3)
	default:
		return NoopUploader{}, nil
	}
}

// object is one file of a run directory and its destination key.
type object struct {
	path string
	key  string
}

// runObjects lists the regular files directly under dir, sorted by name, with
// keys of the form <prefix>/<run dir>/<file>.
func runObjects(dir, prefix string) ([]object, string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, "", errors.Wrap(err, "read run dir")
	}
	base := runKeyPrefix(prefix, filepath.Base(dir))
	var out []object
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		out = append(out, object{path: filepath.Join(dir, entry.Name()), key: base + entry.Name()})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].key < out[j].key })
	return out, base, nil
}

func runKeyPrefix(prefix, run string) string {
	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		return run + "/"
	}
	return prefix + "/" + run + "/"
}

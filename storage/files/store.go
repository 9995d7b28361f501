package files

import (
	"os"
	"path"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core"
)

// Store persists uploads on local disk under a root directory that the API
// serves statically.
type Store struct {
	root    string
	baseURL string
}

var _ core.FileStore = (*Store)(nil)

func NewStore(conf *core.Config) *Store {
	return &Store{
		root:    conf.Uploads.Root,
		baseURL: conf.Uploads.BaseURL,
	}
}

// Save writes data under root/category with a fresh uuid name and returns the
// relative URL it is served under.
func (s *Store) Save(category, ext string, data []byte) (string, error) {
	dir := filepath.Join(s.root, category)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", errors.Wrap(err, "creating upload directory")
	}

	name := uuid.New().String() + ext
	if err := os.WriteFile(filepath.Join(dir, name), data, 0o644); err != nil {
		return "", errors.Wrap(err, "writing upload")
	}
	return path.Join(s.baseURL, category, name), nil
}

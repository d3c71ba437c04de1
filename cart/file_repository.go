package cart

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

// FileRepository stores one cart as a JSON file under dir, named by the
// fixed namespace plus the owning session id.
type FileRepository struct {
	dir     string
	session string
}

// NewFileRepository returns a repository writing to dir, creating it if
// needed.
func NewFileRepository(dir, session string) (*FileRepository, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrap(err, "create cart dir")
	}
	return &FileRepository{dir: dir, session: session}, nil
}

func (r *FileRepository) path() string {
	return filepath.Join(r.dir, Namespace+"-"+r.session+".json")
}

// Load reads the persisted cart. A missing file means an empty cart, not
// an error.
func (r *FileRepository) Load() ([]LineItem, error) {
	data, err := os.ReadFile(r.path())
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "read cart file")
	}
	items, err := unmarshalEnvelope(data)
	if err != nil {
		return nil, errors.Wrap(err, "decode cart file")
	}
	return items, nil
}

// Save writes the cart envelope, replacing any previous contents.
func (r *FileRepository) Save(items []LineItem) error {
	data, err := marshalEnvelope(items)
	if err != nil {
		return errors.Wrap(err, "encode cart")
	}
	if err := os.WriteFile(r.path(), data, 0o644); err != nil {
		return errors.Wrap(err, "write cart file")
	}
	return nil
}

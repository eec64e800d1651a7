package artifacts

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/KaramelBytes/supermart-cli/internal/model"
)

// Manifest records what a run produced. It is written last, so its presence
// means the other files of the run are complete.
type Manifest struct {
	RunID      string             `yaml:"run_id"`
	CreatedAt  time.Time          `yaml:"created_at"`
	Input      string             `yaml:"input"`
	Rows       int                `yaml:"rows"`
	TrainRows  int                `yaml:"train_rows"`
	TestRows   int                `yaml:"test_rows"`
	BestParams model.Params       `yaml:"best_params"`
	BestCVR2   float64            `yaml:"best_cv_r2"`
	Importance map[string]float64 `yaml:"feature_importance"`
	Files      []FileEntry        `yaml:"files"`
}

// FileEntry is one written artifact.
type FileEntry struct {
	Path string `yaml:"path"`
	Size int64  `yaml:"size"`
}

// LoadManifest reads manifest.yaml from the layout's models directory.
func LoadManifest(layout Layout) (*Manifest, error) {
	path := layout.ManifestPath()
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("manifest not found at %s: %w", path, err)
		}
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	var m Manifest
	if err := yaml.Unmarshal(b, &m); err != nil {
		return nil, fmt.Errorf("parse manifest: %w", err)
	}
	return &m, nil
}

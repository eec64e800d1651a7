// Package artifacts persists the trained models, analytics and metrics under a
// pipeline root and reads them back.
package artifacts

import "path/filepath"

// File names inside the models directory.
const (
	ModelFile    = "xgb_model.pkl"
	ScalerFile   = "scaler.pkl"
	EncodersFile = "label_encoders.pkl"
	ManifestFile = "manifest.yaml"

	AnalyticsFile = "analytics.json"
	MetricsFile   = "model_metrics.json"
)

// Layout locates every input and output of a run. Relative directories
// resolve against Root.
type Layout struct {
	Root         string
	InputFile    string
	ModelsDir    string
	ProcessedDir string
}

// DefaultLayout is the standard layout under root.
func DefaultLayout(root string) Layout {
	return Layout{
		Root:         root,
		InputFile:    filepath.Join("data", "new_orders.csv"),
		ModelsDir:    "models",
		ProcessedDir: filepath.Join("data", "processed"),
	}
}

func (l Layout) resolve(p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	root := l.Root
	if root == "" {
		root = "."
	}
	return filepath.Join(root, p)
}

// InputPath is the cleaned orders CSV.
func (l Layout) InputPath() string { return l.resolve(l.InputFile) }

func (l Layout) ModelPath() string    { return filepath.Join(l.resolve(l.ModelsDir), ModelFile) }
func (l Layout) ScalerPath() string   { return filepath.Join(l.resolve(l.ModelsDir), ScalerFile) }
func (l Layout) EncodersPath() string { return filepath.Join(l.resolve(l.ModelsDir), EncodersFile) }
func (l Layout) ManifestPath() string { return filepath.Join(l.resolve(l.ModelsDir), ManifestFile) }

func (l Layout) AnalyticsPath() string { return l.processed(AnalyticsFile) }
func (l Layout) MetricsPath() string   { return l.processed(MetricsFile) }

func (l Layout) processed(name string) string {
	return filepath.Join(l.resolve(l.ProcessedDir), name)
}

// Rel returns p relative to Root for display; p is returned unchanged when
// it lies outside.
func (l Layout) Rel(p string) string {
	root := l.Root
	if root == "" {
		root = "."
	}
	r, err := filepath.Rel(root, p)
	if err != nil || len(r) >= 2 && r[:2] == ".." {
		return p
	}
	return filepath.ToSlash(r)
}

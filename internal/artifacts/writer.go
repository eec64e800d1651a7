package artifacts

import (
	"bytes"
	"encoding/gob"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/KaramelBytes/supermart-cli/internal/analytics"
	"github.com/KaramelBytes/supermart-cli/internal/features"
	"github.com/KaramelBytes/supermart-cli/internal/model"
	"github.com/KaramelBytes/supermart-cli/internal/utils"
)

// Bundle is everything a run persists.
type Bundle struct {
	RunID     string
	Input     string
	Rows      int
	Result    *model.Result
	Encoders  map[string]*features.LabelEncoder
	Analytics *analytics.Document
}

// Write persists the bundle: the three model blobs, analytics.json,
// model_metrics.json and finally manifest.yaml. Directories are created as
// needed and every file is replaced atomically.
func Write(layout Layout, b Bundle) (*Manifest, error) {
	if b.Result == nil || b.Result.Model == nil || b.Result.Scaler == nil {
		return nil, fmt.Errorf("write artifacts: missing trained model")
	}
	if b.Analytics == nil {
		return nil, fmt.Errorf("write artifacts: missing analytics")
	}
	if b.RunID == "" {
		b.RunID = uuid.NewString()
	}

	m := &Manifest{
		RunID:      b.RunID,
		CreatedAt:  time.Now().UTC(),
		Input:      layout.Rel(layout.InputPath()),
		Rows:       b.Rows,
		TrainRows:  b.Result.TrainRows,
		TestRows:   b.Result.TestRows,
		BestParams: b.Result.Metrics.BestParams,
		Importance: make(map[string]float64, len(features.FeatureNames)),
	}
	if b.Input != "" {
		m.Input = layout.Rel(b.Input)
	}
	if len(b.Result.CVScores) > 0 {
		m.BestCVR2 = b.Result.CVScores[b.Result.BestIndex].Mean
	}
	for j, v := range b.Result.Model.Importance() {
		if j < len(features.FeatureNames) {
			m.Importance[features.FeatureNames[j]] = v
		}
	}

	writes := []struct {
		path   string
		encode func() ([]byte, error)
	}{
		{layout.ModelPath(), func() ([]byte, error) { return gobBytes(b.Result.Model) }},
		{layout.ScalerPath(), func() ([]byte, error) { return gobBytes(b.Result.Scaler) }},
		{layout.EncodersPath(), func() ([]byte, error) { return gobBytes(b.Encoders) }},
		{layout.AnalyticsPath(), func() ([]byte, error) { return utils.PrettyJSON(b.Analytics) }},
		{layout.MetricsPath(), func() ([]byte, error) { return utils.PrettyJSON(b.Result.Metrics) }},
	}
	for _, w := range writes {
		data, err := w.encode()
		if err != nil {
			return nil, fmt.Errorf("encode %s: %w", layout.Rel(w.path), err)
		}
		if err := utils.SafeWriteFile(w.path, data); err != nil {
			return nil, fmt.Errorf("write %s: %w", layout.Rel(w.path), err)
		}
		m.Files = append(m.Files, FileEntry{Path: layout.Rel(w.path), Size: int64(len(data))})
	}

	y, err := yaml.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("marshal manifest: %w", err)
	}
	if err := utils.SafeWriteFile(layout.ManifestPath(), y); err != nil {
		return nil, fmt.Errorf("write manifest: %w", err)
	}
	return m, nil
}

func gobBytes(v any) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

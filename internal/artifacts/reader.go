package artifacts

import (
	"bytes"
	"encoding/gob"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/KaramelBytes/supermart-cli/internal/features"
	"github.com/KaramelBytes/supermart-cli/internal/model"
)

// ErrNotTrained is returned when a model blob is absent.
var ErrNotTrained = errors.New("no trained model found, run `supermart run` first")

// LoadModel reads the booster blob.
func LoadModel(layout Layout) (*model.Booster, error) {
	var b model.Booster
	if err := readGob(layout.ModelPath(), &b); err != nil {
		return nil, err
	}
	return &b, nil
}

// LoadScaler reads the scaler blob.
func LoadScaler(layout Layout) (*model.StandardScaler, error) {
	var s model.StandardScaler
	if err := readGob(layout.ScalerPath(), &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// LoadEncoders reads the label encoders keyed by column.
func LoadEncoders(layout Layout) (map[string]*features.LabelEncoder, error) {
	var m map[string]*features.LabelEncoder
	if err := readGob(layout.EncodersPath(), &m); err != nil {
		return nil, err
	}
	return m, nil
}

func readGob(path string, v any) error {
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w (%s missing)", ErrNotTrained, path)
		}
		return fmt.Errorf("read %s: %w", path, err)
	}
	if err := gob.NewDecoder(bytes.NewReader(b)).Decode(v); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

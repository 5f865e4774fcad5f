package prediction

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/kilianp07/chargecap/core/model"
)

type sampleFile struct {
	Samples []float64 `json:"samples" yaml:"samples"`
}

// LoadSamples reads a sample file. The format follows the extension:
// .yaml/.yml or .json.
func LoadSamples(path string) ([]float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	samples, err := DecodeSamples(f, strings.TrimPrefix(filepath.Ext(path), "."))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return samples, nil
}

// DecodeSamples parses either a bare list of numbers or an object with a
// "samples" list. Samples must be finite and non-negative.
func DecodeSamples(r io.Reader, format string) ([]float64, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	var unmarshal func([]byte, any) error
	switch strings.ToLower(format) {
	case "yaml", "yml":
		unmarshal = yaml.Unmarshal
	case "json":
		unmarshal = json.Unmarshal
	default:
		return nil, fmt.Errorf("unsupported sample format %q", format)
	}

	var samples []float64
	if err := unmarshal(data, &samples); err != nil {
		var doc sampleFile
		if err2 := unmarshal(data, &doc); err2 != nil {
			return nil, fmt.Errorf("decode samples: %w", err2)
		}
		samples = doc.Samples
	}
	if len(samples) == 0 {
		return nil, fmt.Errorf("%w: no samples", model.ErrInvalidInput)
	}
	for i, s := range samples {
		if math.IsNaN(s) || math.IsInf(s, 0) || s < 0 {
			return nil, fmt.Errorf("%w: sample %d is %v", model.ErrInvalidInput, i, s)
		}
	}
	return samples, nil
}

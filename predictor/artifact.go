package predictor

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"

	"car-price-estimator/models"
)

const ArtifactFormat = "linear-pipeline/v1"

// artifactSchema describes the persisted pipeline. Encoders and weights are
// produced by the training job; this package only evaluates them.
const artifactSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["format", "columns", "intercept"],
  "properties": {
    "format":     {"type": "string", "const": "linear-pipeline/v1"},
    "columns":    {"type": "array", "minItems": 1, "items": {"type": "string"}},
    "intercept":  {"type": "number"},
    "log_target": {"type": "boolean"},
    "numeric": {
      "type": "object",
      "additionalProperties": {
        "type": "object",
        "required": ["coef"],
        "properties": {
          "mean":  {"type": "number"},
          "scale": {"type": "number", "exclusiveMinimum": 0},
          "coef":  {"type": "number"}
        }
      }
    },
    "categorical": {
      "type": "object",
      "additionalProperties": {
        "type": "object",
        "required": ["weights"],
        "properties": {
          "weights":        {"type": "object", "additionalProperties": {"type": "number"}},
          "handle_unknown": {"type": "string", "enum": ["error", "ignore"]}
        }
      }
    }
  }
}`

var schemaLoader = gojsonschema.NewStringLoader(artifactSchema)

// NumericStep standardizes a numeric column and applies its coefficient.
type NumericStep struct {
	Mean  float64 `json:"mean"`
	Scale float64 `json:"scale"`
	Coef  float64 `json:"coef"`
}

// CategoricalStep one-hot encodes a column; Weights holds the coefficient of
// each known category.
type CategoricalStep struct {
	Weights       map[string]float64 `json:"weights"`
	HandleUnknown string             `json:"handle_unknown"`
}

// Artifact is a deserialized pipeline: encoders followed by a linear
// regressor, optionally trained on log(price).
type Artifact struct {
	Format      string                     `json:"format"`
	Columns     []string                   `json:"columns"`
	Intercept   float64                    `json:"intercept"`
	LogTarget   bool                       `json:"log_target"`
	Numeric     map[string]NumericStep     `json:"numeric"`
	Categorical map[string]CategoricalStep `json:"categorical"`
}

// ParseArtifact validates data against the artifact schema and decodes it.
func ParseArtifact(data []byte) (*Artifact, error) {
	result, err := gojsonschema.Validate(schemaLoader, gojsonschema.NewBytesLoader(data))
	if err != nil {
		return nil, NewArtifactLoadError("artifact is not valid JSON", err)
	}
	if !result.Valid() {
		errs := make([]string, len(result.Errors()))
		for i, desc := range result.Errors() {
			errs[i] = desc.String()
		}
		return nil, NewArtifactLoadError(
			fmt.Sprintf("artifact failed validation: %s", strings.Join(errs, "; ")), nil)
	}

	var a Artifact
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, NewArtifactLoadError("decode artifact", err)
	}
	for col := range a.Numeric {
		if _, dup := a.Categorical[col]; dup {
			return nil, NewArtifactLoadError(
				fmt.Sprintf("column %q is both numeric and categorical", col), nil)
		}
	}
	return &a, nil
}

// LoadArtifact reads and parses the artifact at path.
func LoadArtifact(path string) (*Artifact, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, NewArtifactLoadError(fmt.Sprintf("read pipeline artifact %q", path), err)
	}
	return ParseArtifact(data)
}

// CheckSchema reports whether the artifact expects exactly the given
// columns in the given order.
func (a *Artifact) CheckSchema(columns []string) error {
	if len(a.Columns) != len(columns) {
		return NewSchemaMismatchError(
			fmt.Sprintf("pipeline expects %d columns, feature row has %d", len(a.Columns), len(columns)), nil)
	}
	for i, col := range columns {
		if a.Columns[i] != col {
			return NewSchemaMismatchError(
				fmt.Sprintf("column %d: pipeline expects %q, feature row has %q", i, a.Columns[i], col), nil)
		}
	}
	return nil
}

// Evaluate runs the pipeline on one row.
func (a *Artifact) Evaluate(row models.FeatureRow) (float64, error) {
	cols := row.Columns()
	if err := a.CheckSchema(cols); err != nil {
		return 0, err
	}

	y := a.Intercept
	for i, v := range row.Values() {
		col := cols[i]

		if step, ok := a.Numeric[col]; ok {
			x, ok := toFloat(v)
			if !ok {
				return 0, NewSchemaMismatchError(
					fmt.Sprintf("column %q: expected a number, got %T", col, v), nil)
			}
			scale := step.Scale
			if scale == 0 {
				scale = 1
			}
			y += step.Coef * (x - step.Mean) / scale
			continue
		}

		if step, ok := a.Categorical[col]; ok {
			key := categoryKey(v)
			w, known := step.Weights[key]
			if !known && step.HandleUnknown != "ignore" {
				return 0, NewInferenceError(
					fmt.Sprintf("found unknown category %q in column %q during transform", key, col), nil)
			}
			y += w
		}
	}

	if a.LogTarget {
		y = math.Exp(y)
	}
	if math.IsNaN(y) || math.IsInf(y, 0) {
		return 0, NewInferenceError("pipeline produced a non-finite estimate", nil)
	}
	return y, nil
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}

func categoryKey(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case int:
		return strconv.Itoa(x)
	}
	return fmt.Sprint(v)
}

// ArtifactPredictor evaluates a pipeline artifact stored on disk.
//
// By default the file is opened, parsed and released on every call, so a
// replaced artifact is picked up on the next prediction. With caching
// enabled the first successful load is kept for the life of the predictor;
// failed loads are not cached.
type ArtifactPredictor struct {
	path  string
	cache bool

	mu     sync.Mutex
	loaded *Artifact
}

// NewArtifactPredictor creates a predictor for the artifact at path.
func NewArtifactPredictor(path string, cache bool) *ArtifactPredictor {
	return &ArtifactPredictor{path: path, cache: cache}
}

func (p *ArtifactPredictor) Name() string { return "artifact" }

// Predict implements Predictor.
func (p *ArtifactPredictor) Predict(ctx context.Context, row models.FeatureRow) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, NewInferenceError("prediction cancelled", err)
	}
	a, err := p.artifact()
	if err != nil {
		return 0, err
	}
	return a.Evaluate(row)
}

func (p *ArtifactPredictor) artifact() (*Artifact, error) {
	if !p.cache {
		return LoadArtifact(p.path)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.loaded != nil {
		return p.loaded, nil
	}
	a, err := LoadArtifact(p.path)
	if err != nil {
		return nil, err
	}
	p.loaded = a
	return a, nil
}

package scan

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/coviddx/platform/internal/shared/config"
	"github.com/coviddx/platform/internal/shared/errors"
)

// Prediction is the classification returned by the predictor service.
type Prediction struct {
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
}

// Predictor classifies CT scan images through the external model
// service. The model itself is opaque; this client only moves bytes
// and validates the answer.
type Predictor struct {
	client  *resty.Client
	enabled bool
}

// NewPredictor creates a predictor client
func NewPredictor(cfg config.PredictorConfig) *Predictor {
	client := resty.New().
		SetBaseURL(cfg.URL).
		SetTimeout(30 * time.Second).
		SetRetryCount(2).
		SetRetryWaitTime(500 * time.Millisecond)

	return &Predictor{client: client, enabled: cfg.Enabled}
}

// Predict classifies a scan image. An unreachable or disabled predictor
// fails the upload; a diagnosis is never fabricated client-side.
func (p *Predictor) Predict(ctx context.Context, fileName string, image io.Reader) (*Prediction, error) {
	if !p.enabled {
		return nil, errors.Unavailable("predictor is disabled")
	}

	var prediction Prediction
	resp, err := p.client.R().
		SetContext(ctx).
		SetFileReader("image", fileName, image).
		SetResult(&prediction).
		Post("/predict")

	if err != nil {
		return nil, errors.Wrap(err, "predictor request failed")
	}
	if resp.IsError() {
		return nil, errors.Unavailable(fmt.Sprintf("predictor returned status %d", resp.StatusCode()))
	}

	if prediction.Label != LabelCovid && prediction.Label != LabelNormal {
		return nil, errors.Wrap(fmt.Errorf("unknown label %q", prediction.Label), "predictor returned an unknown label")
	}

	return &prediction, nil
}

// Health checks whether the predictor service is reachable.
func (p *Predictor) Health(ctx context.Context) error {
	if !p.enabled {
		return nil
	}

	resp, err := p.client.R().SetContext(ctx).Get("/health")
	if err != nil {
		return err
	}
	if resp.IsError() {
		return fmt.Errorf("predictor health returned status %d", resp.StatusCode())
	}
	return nil
}

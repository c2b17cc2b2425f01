// internal/diagnosis/classifier.go
package diagnosis

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"time"

	apperrors "agri-officer/internal/common/errors"
	httpclient "agri-officer/internal/common/http"
)

// SentinelLabel is the classification returned when the image could not be
// analyzed. The advisory prompt still runs with it, so the farmer always
// gets a reply.
const SentinelLabel = "Error during analysis"

// Classification is the label and confidence for an uploaded image.
type Classification struct {
	Disease    string  `json:"disease"`
	Confidence float64 `json:"confidence"`
}

// Sentinel is the classification substituted for any classifier failure.
func Sentinel() Classification {
	return Classification{Disease: SentinelLabel, Confidence: 0.0}
}

// Classifier identifies the object in an image file.
type Classifier interface {
	Classify(ctx context.Context, imagePath string) Classification
}

// Logger is the minimal logging interface the classifier needs.
type Logger interface {
	Info(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
}

type ClassifierConfig struct {
	BaseURL string
	Timeout time.Duration
}

// HTTPClassifier posts the image to an external classification service.
// Failures never propagate; they collapse to the sentinel classification.
type HTTPClassifier struct {
	config ClassifierConfig
	client *httpclient.Client
	logger Logger
}

func NewHTTPClassifier(config ClassifierConfig, logger Logger) *HTTPClassifier {
	if config.Timeout == 0 {
		config.Timeout = 30 * time.Second
	}
	return &HTTPClassifier{
		config: config,
		client: httpclient.NewClient(config.Timeout),
		logger: logger,
	}
}

func (c *HTTPClassifier) Classify(ctx context.Context, imagePath string) Classification {
	result, err := c.classify(ctx, imagePath)
	if err != nil {
		c.logger.Error("Image classification failed", map[string]interface{}{
			"image": filepath.Base(imagePath),
			"error": apperrors.NewClassificationFailedError(err).Error(),
		})
		return Sentinel()
	}
	return result
}

func (c *HTTPClassifier) classify(ctx context.Context, imagePath string) (Classification, error) {
	file, err := os.Open(imagePath)
	if err != nil {
		return Classification{}, fmt.Errorf("failed to open image: %w", err)
	}
	defer file.Close()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", filepath.Base(imagePath))
	if err != nil {
		return Classification{}, fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return Classification{}, fmt.Errorf("failed to copy image data: %w", err)
	}
	if err := writer.Close(); err != nil {
		return Classification{}, fmt.Errorf("failed to finalize form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.BaseURL+"/classify", &body)
	if err != nil {
		return Classification{}, fmt.Errorf("failed to create classify request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.client.Do(req)
	if err != nil {
		return Classification{}, fmt.Errorf("classify request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(resp.Body)
		return Classification{}, fmt.Errorf("classifier returned status %d: %s", resp.StatusCode, string(msg))
	}

	var result Classification
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return Classification{}, fmt.Errorf("failed to decode classification: %w", err)
	}
	if result.Disease == "" {
		return Classification{}, fmt.Errorf("classification missing label")
	}
	return result, nil
}

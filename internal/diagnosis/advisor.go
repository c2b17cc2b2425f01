// internal/diagnosis/advisor.go
package diagnosis

import (
	"context"
	"fmt"

	"agri-officer/internal/common/logger"
	"agri-officer/internal/common/metrics"
	"agri-officer/internal/llm"
)

// Advisory is the full diagnosis result returned to the client.
type Advisory struct {
	DetectedLabel string  `json:"detected_label"`
	Confidence    float64 `json:"confidence"`
	Advisory      string  `json:"advisory"`
}

// Completer is the chat completion surface the advisor drives.
type Completer interface {
	Complete(ctx context.Context, messages []llm.Message, tools []llm.ToolDefinition) (*llm.Message, error)
}

// Advisor turns an uploaded crop image into a localized advisory: classify
// the image, then ask the model to write guidance for the detected label.
type Advisor struct {
	classifier Classifier
	completer  Completer
	logger     logger.Logger
}

func NewAdvisor(classifier Classifier, completer Completer, log logger.Logger) *Advisor {
	return &Advisor{classifier: classifier, completer: completer, logger: log}
}

// Advise classifies the image at imagePath and composes an advisory in the
// requested language. Classification failures degrade to the sentinel label
// and still produce an advisory; only a model failure is an error.
func (a *Advisor) Advise(ctx context.Context, imagePath, lang string) (*Advisory, error) {
	result := a.classifier.Classify(ctx, imagePath)
	a.logger.Info("Image classified", map[string]interface{}{
		"disease":    result.Disease,
		"confidence": result.Confidence,
	})

	prompt := ComposePrompt(result.Disease, result.Confidence, lang)
	reply, err := a.completer.Complete(ctx, []llm.Message{
		{Role: llm.RoleUser, Content: prompt},
	}, nil)
	if err != nil {
		metrics.DiagnoseRequestsTotal.WithLabelValues("llm_error").Inc()
		return nil, fmt.Errorf("advisory completion failed: %w", err)
	}

	metrics.DiagnoseRequestsTotal.WithLabelValues("success").Inc()
	return &Advisory{
		DetectedLabel: result.Disease,
		Confidence:    result.Confidence,
		Advisory:      reply.Content,
	}, nil
}

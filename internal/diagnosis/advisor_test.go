// internal/diagnosis/advisor_test.go
package diagnosis

import (
	"context"
	"errors"
	"testing"

	"agri-officer/internal/common/logger"
	"agri-officer/internal/llm"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubClassifier struct {
	result Classification
}

func (s *stubClassifier) Classify(ctx context.Context, imagePath string) Classification {
	return s.result
}

type stubCompleter struct {
	reply    string
	err      error
	lastMsgs []llm.Message
}

func (s *stubCompleter) Complete(ctx context.Context, messages []llm.Message, tools []llm.ToolDefinition) (*llm.Message, error) {
	s.lastMsgs = messages
	if s.err != nil {
		return nil, s.err
	}
	return &llm.Message{Role: llm.RoleAssistant, Content: s.reply}, nil
}

func TestAdvisor_Advise_Success(t *testing.T) {
	completer := &stubCompleter{reply: "## Identification\nLate blight on tomato."}
	advisor := NewAdvisor(&stubClassifier{result: Classification{Disease: "Tomato Late Blight", Confidence: 0.91}}, completer, logger.NewTestLogger(t))

	advisory, err := advisor.Advise(context.Background(), "/tmp/leaf.jpg", "English")

	require.NoError(t, err)
	assert.Equal(t, "Tomato Late Blight", advisory.DetectedLabel)
	assert.InDelta(t, 0.91, advisory.Confidence, 1e-9)
	assert.Contains(t, advisory.Advisory, "Late blight")

	require.Len(t, completer.lastMsgs, 1)
	assert.Equal(t, llm.RoleUser, completer.lastMsgs[0].Role)
	assert.Contains(t, completer.lastMsgs[0].Content, "Tomato Late Blight")
}

func TestAdvisor_Advise_SentinelStillGetsAdvisory(t *testing.T) {
	completer := &stubCompleter{reply: "I could not analyze the image, please try a clearer photo."}
	advisor := NewAdvisor(&stubClassifier{result: Sentinel()}, completer, logger.NewTestLogger(t))

	advisory, err := advisor.Advise(context.Background(), "/tmp/leaf.jpg", "Kannada")

	require.NoError(t, err)
	assert.Equal(t, SentinelLabel, advisory.DetectedLabel)
	assert.Zero(t, advisory.Confidence)
	assert.NotEmpty(t, advisory.Advisory)
}

func TestAdvisor_Advise_ModelFailurePropagates(t *testing.T) {
	advisor := NewAdvisor(&stubClassifier{result: Classification{Disease: "Mango"}}, &stubCompleter{err: errors.New("upstream 503")}, logger.NewTestLogger(t))

	_, err := advisor.Advise(context.Background(), "/tmp/leaf.jpg", "English")
	assert.Error(t, err)
}

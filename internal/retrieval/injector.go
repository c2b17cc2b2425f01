// internal/retrieval/injector.go
package retrieval

import (
	"context"
	"fmt"
	"strings"

	apperrors "agri-officer/internal/common/errors"
	"agri-officer/internal/common/logger"
	"agri-officer/internal/common/metrics"
)

// RetrievedContext carries the knowledge chunks relevant to a question.
// Present is false when retrieval is disabled or failed; the caller must
// treat that exactly like an empty result.
type RetrievedContext struct {
	Chunks  []string
	Present bool
}

// Injector resolves local knowledge for a question. Retrieval is strictly
// best effort: any failure degrades to an absent context, never an error.
type Injector struct {
	enabled  bool
	embedder Embedder
	searcher Searcher
	topK     int
	logger   logger.Logger
}

func NewInjector(enabled bool, embedder Embedder, searcher Searcher, topK int, log logger.Logger) *Injector {
	if topK <= 0 {
		topK = defaultTopK
	}
	return &Injector{
		enabled:  enabled,
		embedder: embedder,
		searcher: searcher,
		topK:     topK,
		logger:   log,
	}
}

// Retrieve embeds the question and fetches the most similar knowledge chunks.
func (i *Injector) Retrieve(ctx context.Context, question string) RetrievedContext {
	if !i.enabled || i.embedder == nil || i.searcher == nil {
		return RetrievedContext{}
	}
	if strings.TrimSpace(question) == "" {
		return RetrievedContext{}
	}

	vector, err := i.embedder.Embed(ctx, question)
	if err != nil {
		metrics.RetrievalQueriesTotal.WithLabelValues("embed_error").Inc()
		i.logger.Warn("Knowledge retrieval skipped, embedding failed", map[string]interface{}{
			"error": err.Error(),
		})
		return RetrievedContext{}
	}

	chunks, err := i.searcher.Search(ctx, vector, i.topK)
	if err != nil {
		metrics.RetrievalQueriesTotal.WithLabelValues("search_error").Inc()
		i.logger.Warn("Knowledge retrieval skipped, search failed", map[string]interface{}{
			"error": apperrors.NewRetrievalFailedError(err).Error(),
		})
		return RetrievedContext{}
	}
	if len(chunks) == 0 {
		metrics.RetrievalQueriesTotal.WithLabelValues("empty").Inc()
		return RetrievedContext{}
	}

	metrics.RetrievalQueriesTotal.WithLabelValues("success").Inc()
	return RetrievedContext{Chunks: chunks, Present: true}
}

// Render formats a retrieved context as the system prompt addition. Returns
// the empty string for an absent context.
func (c RetrievedContext) Render() string {
	if !c.Present || len(c.Chunks) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("Use the following local knowledge if it is relevant to the question:\n")
	for _, chunk := range c.Chunks {
		fmt.Fprintf(&b, "- %s\n", strings.TrimSpace(chunk))
	}
	return strings.TrimRight(b.String(), "\n")
}

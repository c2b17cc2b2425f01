// internal/retrieval/index.go
package retrieval

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"agri-officer/internal/common/database"

	"github.com/elastic/go-elasticsearch/v8/esapi"
)

// The injector asks for the single nearest chunk unless configured
// otherwise.
const (
	defaultTopK          = 1
	defaultNumCandidates = 50
)

// Searcher finds the knowledge chunks most similar to a query vector.
type Searcher interface {
	Search(ctx context.Context, vector []float32, topK int) ([]string, error)
}

// Index is the Elasticsearch-backed vector store for knowledge chunks.
type Index struct {
	es    *database.ElasticsearchClient
	index string
}

func NewIndex(es *database.ElasticsearchClient, index string) *Index {
	return &Index{es: es, index: index}
}

type knnQuery struct {
	KNN    knnClause `json:"knn"`
	Size   int       `json:"size"`
	Source []string  `json:"_source"`
}

type knnClause struct {
	Field         string    `json:"field"`
	QueryVector   []float32 `json:"query_vector"`
	K             int       `json:"k"`
	NumCandidates int       `json:"num_candidates"`
}

type searchResponse struct {
	Hits struct {
		Hits []struct {
			Source struct {
				Content string `json:"content"`
			} `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

// Search runs a kNN query over the embedding field and returns the chunk
// texts, best match first.
func (i *Index) Search(ctx context.Context, vector []float32, topK int) ([]string, error) {
	if topK <= 0 {
		topK = defaultTopK
	}

	query := knnQuery{
		KNN: knnClause{
			Field:         "embedding",
			QueryVector:   vector,
			K:             topK,
			NumCandidates: defaultNumCandidates,
		},
		Size:   topK,
		Source: []string{"content"},
	}

	body, err := json.Marshal(query)
	if err != nil {
		return nil, fmt.Errorf("failed to encode knn query: %w", err)
	}

	res, err := i.es.Client.Search(
		i.es.Client.Search.WithContext(ctx),
		i.es.Client.Search.WithIndex(i.index),
		i.es.Client.Search.WithBody(bytes.NewReader(body)),
	)
	if err != nil {
		return nil, fmt.Errorf("knowledge search failed: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		msg, _ := io.ReadAll(res.Body)
		return nil, fmt.Errorf("knowledge search returned %s: %s", res.Status(), string(msg))
	}

	var parsed searchResponse
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("failed to decode search response: %w", err)
	}

	chunks := make([]string, 0, len(parsed.Hits.Hits))
	for _, hit := range parsed.Hits.Hits {
		if strings.TrimSpace(hit.Source.Content) != "" {
			chunks = append(chunks, hit.Source.Content)
		}
	}
	return chunks, nil
}

type chunkDocument struct {
	Content   string    `json:"content"`
	Source    string    `json:"source"`
	Embedding []float32 `json:"embedding"`
}

// IndexChunk stores one knowledge chunk with its embedding. Used by the
// knowledge loader, not the request path.
func (i *Index) IndexChunk(ctx context.Context, id, source, content string, vector []float32) error {
	doc := chunkDocument{Content: content, Source: source, Embedding: vector}
	body, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to encode chunk document: %w", err)
	}

	req := esapi.IndexRequest{
		Index:      i.index,
		DocumentID: id,
		Body:       bytes.NewReader(body),
		Refresh:    "false",
	}
	res, err := req.Do(ctx, i.es.Client)
	if err != nil {
		return fmt.Errorf("failed to index chunk: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		msg, _ := io.ReadAll(res.Body)
		return fmt.Errorf("chunk indexing returned %s: %s", res.Status(), string(msg))
	}
	return nil
}

// EnsureMapping creates the index with a dense_vector mapping if it does not
// exist yet.
func (i *Index) EnsureMapping(ctx context.Context, dims int) error {
	exists, err := i.es.Client.Indices.Exists([]string{i.index},
		i.es.Client.Indices.Exists.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("failed to check index existence: %w", err)
	}
	defer exists.Body.Close()
	if exists.StatusCode == 200 {
		return nil
	}

	mapping := fmt.Sprintf(`{
		"mappings": {
			"properties": {
				"content": {"type": "text"},
				"source": {"type": "keyword"},
				"embedding": {"type": "dense_vector", "dims": %d, "index": true, "similarity": "cosine"}
			}
		}
	}`, dims)

	res, err := i.es.Client.Indices.Create(i.index,
		i.es.Client.Indices.Create.WithContext(ctx),
		i.es.Client.Indices.Create.WithBody(strings.NewReader(mapping)))
	if err != nil {
		return fmt.Errorf("failed to create index: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		msg, _ := io.ReadAll(res.Body)
		return fmt.Errorf("index creation returned %s: %s", res.Status(), string(msg))
	}
	return nil
}

package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"catalog-assistant/internal/models"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
)

// SearchIndex answers text searches from the products index. Documents carry
// title, handle and skus; the document id is the catalog product id.
type SearchIndex struct {
	client *elasticsearch.Client
	index  string
	opts   Options
	logger Logger
}

func NewSearchIndex(client *elasticsearch.Client, index string, opts Options, log Logger) *SearchIndex {
	return &SearchIndex{client: client, index: index, opts: opts.withDefaults(), logger: log}
}

func (s *SearchIndex) SearchByText(ctx context.Context, text string) ([]models.ProductSummary, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, nil
	}

	hits, err := s.search(ctx, buildExactQuery(text))
	if err != nil || len(hits) > 0 {
		return hits, err
	}

	terms := FuzzyTerms(text, s.opts.MinFuzzyTokenLength)
	if len(terms) == 0 {
		return nil, nil
	}
	return s.search(ctx, buildFuzzyQuery(terms))
}

func buildExactQuery(text string) map[string]interface{} {
	return map[string]interface{}{
		"query": map[string]interface{}{
			"bool": map[string]interface{}{
				"should": []interface{}{
					map[string]interface{}{"match_phrase": map[string]interface{}{"title": text}},
					map[string]interface{}{"term": map[string]interface{}{
						"skus": map[string]interface{}{"value": text, "case_insensitive": true},
					}},
				},
				"minimum_should_match": 1,
			},
		},
	}
}

func buildFuzzyQuery(terms []string) map[string]interface{} {
	should := make([]interface{}, 0, len(terms)*2)
	for _, t := range terms {
		pattern := "*" + t + "*"
		should = append(should,
			map[string]interface{}{"wildcard": map[string]interface{}{
				"title.keyword": map[string]interface{}{"value": pattern, "case_insensitive": true},
			}},
			map[string]interface{}{"wildcard": map[string]interface{}{
				"skus": map[string]interface{}{"value": pattern, "case_insensitive": true},
			}},
		)
	}
	return map[string]interface{}{
		"query": map[string]interface{}{
			"bool": map[string]interface{}{
				"should":               should,
				"minimum_should_match": 1,
			},
		},
	}
}

type searchResponse struct {
	Hits struct {
		Hits []struct {
			ID     string `json:"_id"`
			Source struct {
				Title  string `json:"title"`
				Handle string `json:"handle"`
			} `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

func (s *SearchIndex) search(ctx context.Context, body map[string]interface{}) ([]models.ProductSummary, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("%w: encode query: %v", ErrUnavailable, err)
	}

	size := s.opts.MaxSearchResults
	req := esapi.SearchRequest{
		Index: []string{s.index},
		Body:  strings.NewReader(string(payload)),
		Size:  &size,
	}

	res, err := req.Do(ctx, s.client)
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return nil, fmt.Errorf("%w: searchByText", ErrTimeout)
		}
		return nil, fmt.Errorf("%w: searchByText: %v", ErrUnavailable, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, fmt.Errorf("%w: search query failed: %s", ErrUnavailable, res.Status())
	}

	var r searchResponse
	if err := json.NewDecoder(res.Body).Decode(&r); err != nil {
		return nil, fmt.Errorf("%w: decode search response: %v", ErrUnavailable, err)
	}

	out := make([]models.ProductSummary, 0, len(r.Hits.Hits))
	for _, h := range r.Hits.Hits {
		out = append(out, models.ProductSummary{ID: h.ID, Title: h.Source.Title, Handle: h.Source.Handle})
	}
	return out, nil
}

// indexedGateway routes text search to a search index and everything else to
// the underlying gateway.
type indexedGateway struct {
	Gateway
	searcher TextSearcher
}

// WithTextSearch returns base with SearchByText served by searcher.
func WithTextSearch(base Gateway, searcher TextSearcher) Gateway {
	return &indexedGateway{Gateway: base, searcher: searcher}
}

func (g *indexedGateway) SearchByText(ctx context.Context, text string) ([]models.ProductSummary, error) {
	return g.searcher.SearchByText(ctx, text)
}

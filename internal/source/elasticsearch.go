package source

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/project-tktt/job-dashboard/internal/config"
	"github.com/project-tktt/job-dashboard/internal/domain"
)

// Elasticsearch searches a listings index kept up to date by a crawler
type Elasticsearch struct {
	client      *elasticsearch.Client
	indexName   string
	size        int
	popularSize int
}

// NewElasticsearch connects to the cluster and checks it answers
func NewElasticsearch(cfg config.ESConfig) (*Elasticsearch, error) {
	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: cfg.Addresses,
	})
	if err != nil {
		return nil, fmt.Errorf("create es client: %w", err)
	}

	res, err := client.Info()
	if err != nil {
		return nil, fmt.Errorf("%w: es info: %v", domain.ErrSourceUnavailable, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, fmt.Errorf("%w: es error: %s", domain.ErrSourceUnavailable, res.Status())
	}

	return NewElasticsearchFromClient(client, cfg.Index), nil
}

// NewElasticsearchFromClient wraps an existing client without a connection check
func NewElasticsearchFromClient(client *elasticsearch.Client, indexName string) *Elasticsearch {
	return &Elasticsearch{
		client:      client,
		indexName:   indexName,
		size:        DefaultResults,
		popularSize: DefaultPopularResults,
	}
}

func (e *Elasticsearch) Name() string {
	return string(domain.SourceElasticsearch)
}

// Search runs a relevance match on title
func (e *Elasticsearch) Search(ctx context.Context, query string) ([]domain.RawListing, error) {
	body := map[string]any{
		"size": e.size,
		"query": map[string]any{
			"match": map[string]any{"title": query},
		},
	}
	return e.search(ctx, body)
}

// SearchPopular requires every title term, optionally narrows by location, newest first
func (e *Elasticsearch) SearchPopular(ctx context.Context, q PopularQuery) ([]domain.RawListing, error) {
	must := []any{
		map[string]any{
			"match": map[string]any{
				"title": map[string]any{"query": q.Title, "operator": "and"},
			},
		},
	}
	if q.Location != "" {
		must = append(must, map[string]any{
			"match": map[string]any{"location": q.Location},
		})
	}

	body := map[string]any{
		"size":  e.popularSize,
		"query": map[string]any{"bool": map[string]any{"must": must}},
		"sort": []any{
			map[string]any{"created": map[string]any{"order": "desc", "unmapped_type": "date"}},
			"_score",
		},
	}
	return e.search(ctx, body)
}

type searchHits struct {
	Hits struct {
		Hits []struct {
			ID     string     `json:"_id"`
			Source flatRecord `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

func (e *Elasticsearch) search(ctx context.Context, body map[string]any) ([]domain.RawListing, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal query: %w", err)
	}

	res, err := e.client.Search(
		e.client.Search.WithContext(ctx),
		e.client.Search.WithIndex(e.indexName),
		e.client.Search.WithBody(bytes.NewReader(data)),
	)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("search request: %w", ctx.Err())
		}
		return nil, fmt.Errorf("%w: search request: %v", domain.ErrSourceUnavailable, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, fmt.Errorf("%w: search error: %s", domain.ErrSourceUnavailable, res.Status())
	}

	var parsed searchHits
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("%w: parse search response: %v", domain.ErrSourceUnavailable, err)
	}

	listings := make([]domain.RawListing, 0, len(parsed.Hits.Hits))
	for _, hit := range parsed.Hits.Hits {
		rec := hit.Source
		if !blankAbsent(rec.ID).Present {
			rec.ID = domain.Present(hit.ID)
		}
		listings = append(listings, rec.toRaw())
	}
	return listings, nil
}

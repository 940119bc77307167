package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"fitment-workers/internal/models"

	"github.com/elastic/go-elasticsearch/v8"
)

const defaultPageSize = 1000

// ElasticsearchStore reads the catalog from a vehicles index, paging with search_after.
type ElasticsearchStore struct {
	client   *elasticsearch.Client
	index    string
	pageSize int
}

func NewElasticsearchStore(client *elasticsearch.Client, index string, pageSize int) *ElasticsearchStore {
	if index == "" {
		index = "vehicles"
	}
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	return &ElasticsearchStore{client: client, index: index, pageSize: pageSize}
}

type vehicleSearchResponse struct {
	Hits struct {
		Hits []struct {
			Source struct {
				ID   string `json:"id"`
				Slug string `json:"slug"`
				Name string `json:"name"`
			} `json:"_source"`
			Sort []interface{} `json:"sort"`
		} `json:"hits"`
	} `json:"hits"`
}

func (s *ElasticsearchStore) ListVehicles(ctx context.Context) ([]models.CanonicalVehicle, error) {
	var (
		vehicles    []models.CanonicalVehicle
		searchAfter []interface{}
	)

	for {
		body := map[string]interface{}{
			"query":   map[string]interface{}{"match_all": map[string]interface{}{}},
			"_source": []string{"id", "slug", "name"},
			"sort": []map[string]string{
				{"name.keyword": "asc"},
				{"id": "asc"},
			},
			"size": s.pageSize,
		}
		if searchAfter != nil {
			body["search_after"] = searchAfter
		}

		var buf bytes.Buffer
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return nil, fmt.Errorf("encode vehicle query: %w", err)
		}

		res, err := s.client.Search(
			s.client.Search.WithContext(ctx),
			s.client.Search.WithIndex(s.index),
			s.client.Search.WithBody(&buf),
		)
		if err != nil {
			return nil, fmt.Errorf("search vehicles: %w", err)
		}

		var page vehicleSearchResponse
		decodeErr := func() error {
			defer res.Body.Close()
			if res.IsError() {
				return fmt.Errorf("search vehicles: %s", res.Status())
			}
			return json.NewDecoder(res.Body).Decode(&page)
		}()
		if decodeErr != nil {
			return nil, decodeErr
		}

		for _, hit := range page.Hits.Hits {
			vehicles = append(vehicles, models.CanonicalVehicle{
				ID:   hit.Source.ID,
				Slug: hit.Source.Slug,
				Name: hit.Source.Name,
			})
		}

		n := len(page.Hits.Hits)
		if n < s.pageSize || len(page.Hits.Hits[n-1].Sort) == 0 {
			break
		}
		searchAfter = page.Hits.Hits[n-1].Sort
	}

	return vehicles, nil
}

package search

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"stagedoor/internal/config"
	"stagedoor/internal/models"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
)

// ShowDocument is the indexed projection of a show. available_tickets is
// denormalized at index time so availability filters can run as plain range
// queries.
type ShowDocument struct {
	ID               string    `json:"id"`
	Name             string    `json:"name"`
	Details          string    `json:"details"`
	Location         string    `json:"location"`
	Price            int64     `json:"price"`
	TotalTickets     int32     `json:"total_tickets"`
	AvailableTickets int32     `json:"available_tickets"`
	ShowDate         time.Time `json:"show_date"`
}

// NewShowDocument projects a show into its index form.
func NewShowDocument(show *models.Show) *ShowDocument {
	return &ShowDocument{
		ID:               show.ID.String(),
		Name:             show.Name,
		Details:          show.Details,
		Location:         show.Location,
		Price:            show.Price,
		TotalTickets:     show.TotalTickets,
		AvailableTickets: show.AvailableTickets(),
		ShowDate:         show.ShowDate,
	}
}

// ElasticsearchClient maintains the show search index. The database stays
// the source of truth; search results are resolved back to database rows by
// id.
type ElasticsearchClient struct {
	client *elasticsearch.Client
	config config.ElasticsearchConfig
}

func NewElasticsearchClient(cfg config.ElasticsearchConfig) (*ElasticsearchClient, error) {
	es, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses:     []string{cfg.URL},
		Username:      cfg.Username,
		Password:      cfg.Password,
		RetryOnStatus: []int{502, 503, 504, 429},
		MaxRetries:    cfg.MaxRetries,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Elasticsearch client: %w", err)
	}

	client := &ElasticsearchClient{client: es, config: cfg}

	if err := client.ensureIndex(context.Background()); err != nil {
		return nil, fmt.Errorf("failed to ensure index exists: %w", err)
	}

	return client, nil
}

func (c *ElasticsearchClient) ensureIndex(ctx context.Context) error {
	req := esapi.IndicesExistsRequest{
		Index: []string{c.config.Index},
	}

	res, err := req.Do(ctx, c.client)
	if err != nil {
		return fmt.Errorf("failed to check index existence: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode == 200 {
		slog.Info("Elasticsearch index already exists", "index", c.config.Index)
		return nil
	}

	mapping := map[string]interface{}{
		"settings": map[string]interface{}{
			"number_of_shards":   1,
			"number_of_replicas": 0,
		},
		"mappings": map[string]interface{}{
			"properties": map[string]interface{}{
				"id": map[string]interface{}{
					"type": "keyword",
				},
				"name": map[string]interface{}{
					"type": "text",
					"fields": map[string]interface{}{
						"keyword": map[string]interface{}{
							"type":         "keyword",
							"ignore_above": 256,
						},
					},
				},
				"details": map[string]interface{}{
					"type": "text",
				},
				"location": map[string]interface{}{
					"type": "text",
					"fields": map[string]interface{}{
						"keyword": map[string]interface{}{
							"type":         "keyword",
							"ignore_above": 256,
						},
					},
				},
				"price": map[string]interface{}{
					"type": "long",
				},
				"total_tickets": map[string]interface{}{
					"type": "integer",
				},
				"available_tickets": map[string]interface{}{
					"type": "integer",
				},
				"show_date": map[string]interface{}{
					"type": "date",
				},
			},
		},
	}

	mappingJSON, err := json.Marshal(mapping)
	if err != nil {
		return fmt.Errorf("failed to marshal mapping: %w", err)
	}

	createReq := esapi.IndicesCreateRequest{
		Index: c.config.Index,
		Body:  strings.NewReader(string(mappingJSON)),
	}

	createRes, err := createReq.Do(ctx, c.client)
	if err != nil {
		return fmt.Errorf("failed to create index: %w", err)
	}
	defer createRes.Body.Close()

	if createRes.IsError() {
		return fmt.Errorf("failed to create index: %s", createRes.String())
	}

	slog.Info("Created Elasticsearch index", "index", c.config.Index)
	return nil
}

// Search runs the filter set against the index and returns matching show
// ids plus the total hit count.
func (c *ElasticsearchClient) Search(ctx context.Context, req *models.SearchShowsRequest) ([]string, int, error) {
	searchRequest := map[string]interface{}{
		"query":   c.buildSearchQuery(req),
		"sort":    c.buildSortQuery(req),
		"from":    (req.Page - 1) * req.PageSize,
		"size":    req.PageSize,
		"_source": []string{"id"},
	}

	searchJSON, err := json.Marshal(searchRequest)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to marshal search query: %w", err)
	}

	esReq := esapi.SearchRequest{
		Index: []string{c.config.Index},
		Body:  strings.NewReader(string(searchJSON)),
	}

	res, err := esReq.Do(ctx, c.client)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to execute search: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, 0, fmt.Errorf("search error: %s", res.String())
	}

	var response struct {
		Hits struct {
			Total struct {
				Value int `json:"value"`
			} `json:"total"`
			Hits []struct {
				Source ShowDocument `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}

	if err := json.NewDecoder(res.Body).Decode(&response); err != nil {
		return nil, 0, fmt.Errorf("failed to decode search response: %w", err)
	}

	ids := make([]string, len(response.Hits.Hits))
	for i, hit := range response.Hits.Hits {
		ids[i] = hit.Source.ID
	}

	return ids, response.Hits.Total.Value, nil
}

func (c *ElasticsearchClient) buildSearchQuery(req *models.SearchShowsRequest) map[string]interface{} {
	mustQueries := []map[string]interface{}{}

	if req.Search != "" {
		mustQueries = append(mustQueries, map[string]interface{}{
			"multi_match": map[string]interface{}{
				"query":     req.Search,
				"fields":    []string{"name^2", "details"},
				"fuzziness": "AUTO",
			},
		})
	}

	if req.Location != "" {
		mustQueries = append(mustQueries, map[string]interface{}{
			"match": map[string]interface{}{
				"location": req.Location,
			},
		})
	}

	if req.MinPrice != nil || req.MaxPrice != nil {
		priceRange := map[string]interface{}{}
		if req.MinPrice != nil {
			priceRange["gte"] = *req.MinPrice
		}
		if req.MaxPrice != nil {
			priceRange["lte"] = *req.MaxPrice
		}
		mustQueries = append(mustQueries, map[string]interface{}{
			"range": map[string]interface{}{"price": priceRange},
		})
	}

	minAvailable := int32(0)
	if req.MinAvailable != nil {
		minAvailable = *req.MinAvailable
	}
	if req.OnlyAvailable && minAvailable < 1 {
		minAvailable = 1
	}
	if minAvailable > 0 {
		mustQueries = append(mustQueries, map[string]interface{}{
			"range": map[string]interface{}{
				"available_tickets": map[string]interface{}{"gte": minAvailable},
			},
		})
	}

	if len(mustQueries) == 0 {
		return map[string]interface{}{
			"match_all": map[string]interface{}{},
		}
	}

	return map[string]interface{}{
		"bool": map[string]interface{}{
			"must": mustQueries,
		},
	}
}

func (c *ElasticsearchClient) buildSortQuery(req *models.SearchShowsRequest) []map[string]interface{} {
	if req.Search != "" {
		return []map[string]interface{}{
			{"_score": map[string]interface{}{"order": "desc"}},
			{"show_date": map[string]interface{}{"order": "asc"}},
		}
	}

	return []map[string]interface{}{
		{"show_date": map[string]interface{}{"order": "asc"}},
	}
}

// IndexShow writes or overwrites the show's document.
func (c *ElasticsearchClient) IndexShow(ctx context.Context, show *models.Show) error {
	doc := NewShowDocument(show)

	docJSON, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to marshal show document: %w", err)
	}

	req := esapi.IndexRequest{
		Index:      c.config.Index,
		DocumentID: doc.ID,
		Body:       strings.NewReader(string(docJSON)),
		Refresh:    "wait_for",
	}

	res, err := req.Do(ctx, c.client)
	if err != nil {
		return fmt.Errorf("failed to index show: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("indexing error: %s", res.String())
	}

	return nil
}

// DeleteShow removes the show's document; a 404 is not an error.
func (c *ElasticsearchClient) DeleteShow(ctx context.Context, id string) error {
	req := esapi.DeleteRequest{
		Index:      c.config.Index,
		DocumentID: id,
		Refresh:    "wait_for",
	}

	res, err := req.Do(ctx, c.client)
	if err != nil {
		return fmt.Errorf("failed to delete show: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() && res.StatusCode != 404 {
		return fmt.Errorf("delete error: %s", res.String())
	}

	return nil
}

// HealthCheck waits for at least yellow cluster status.
func (c *ElasticsearchClient) HealthCheck(ctx context.Context) error {
	req := esapi.ClusterHealthRequest{
		WaitForStatus: "yellow",
		Timeout:       10 * time.Second,
	}

	res, err := req.Do(ctx, c.client)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("health check error: %s", res.String())
	}

	return nil
}

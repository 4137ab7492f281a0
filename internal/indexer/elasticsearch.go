package indexer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strconv"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	"github.com/project-tktt/salary-pulse/internal/domain"
)

// ElasticsearchIndexer indexes reports for free-text search over the
// likes/dislikes/perks fields.
type ElasticsearchIndexer struct {
	client    *elasticsearch.Client
	indexName string
}

// NewElasticsearchIndexer creates the indexer and verifies the connection.
func NewElasticsearchIndexer(addresses []string, indexName string) (*ElasticsearchIndexer, error) {
	client, err := elasticsearch.NewClient(elasticsearch.Config{Addresses: addresses})
	if err != nil {
		return nil, fmt.Errorf("create es client: %w", err)
	}

	res, err := client.Info()
	if err != nil {
		return nil, fmt.Errorf("es info: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, fmt.Errorf("es error: %s", res.Status())
	}

	return &ElasticsearchIndexer{client: client, indexName: indexName}, nil
}

// Index indexes a single report.
func (i *ElasticsearchIndexer) Index(ctx context.Context, report domain.Report) error {
	data, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}

	req := esapi.IndexRequest{
		Index:      i.indexName,
		DocumentID: strconv.FormatInt(report.MessageID, 10),
		Body:       bytes.NewReader(data),
		Refresh:    "false",
	}

	res, err := req.Do(ctx, i.client)
	if err != nil {
		return fmt.Errorf("index request: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("index error: %s", res.Status())
	}
	return nil
}

// BulkIndex indexes the full dataset in one bulk request.
func (i *ElasticsearchIndexer) BulkIndex(ctx context.Context, reports []domain.Report) error {
	if len(reports) == 0 {
		return nil
	}

	var buf bytes.Buffer
	for _, r := range reports {
		meta := map[string]any{
			"index": map[string]any{
				"_index": i.indexName,
				"_id":    strconv.FormatInt(r.MessageID, 10),
			},
		}
		metaBytes, _ := json.Marshal(meta)
		buf.Write(metaBytes)
		buf.WriteByte('\n')

		docBytes, err := json.Marshal(r)
		if err != nil {
			log.Printf("marshal report %d: %v", r.MessageID, err)
			continue
		}
		buf.Write(docBytes)
		buf.WriteByte('\n')
	}

	res, err := i.client.Bulk(bytes.NewReader(buf.Bytes()), i.client.Bulk.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("bulk request: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("bulk error: %s", res.Status())
	}

	var bulkRes struct {
		Errors bool `json:"errors"`
		Items  []struct {
			Index struct {
				ID     string `json:"_id"`
				Status int    `json:"status"`
				Error  struct {
					Type   string `json:"type"`
					Reason string `json:"reason"`
				} `json:"error"`
			} `json:"index"`
		} `json:"items"`
	}
	if err := json.NewDecoder(res.Body).Decode(&bulkRes); err != nil {
		return fmt.Errorf("parse bulk response: %w", err)
	}

	if bulkRes.Errors {
		for _, item := range bulkRes.Items {
			if item.Index.Status >= 400 {
				log.Printf("bulk index error for %s: %s - %s",
					item.Index.ID, item.Index.Error.Type, item.Index.Error.Reason)
			}
		}
	}
	return nil
}

// EnsureIndex creates the index with Russian-text analysis if missing.
func (i *ElasticsearchIndexer) EnsureIndex(ctx context.Context) error {
	res, err := i.client.Indices.Exists([]string{i.indexName})
	if err != nil {
		return fmt.Errorf("check index: %w", err)
	}
	res.Body.Close()

	if res.StatusCode == 200 {
		return nil
	}

	mapping := `{
		"settings": {
			"analysis": {
				"analyzer": {
					"report_text": {
						"type": "custom",
						"tokenizer": "standard",
						"filter": ["lowercase", "russian_stemmer"]
					}
				},
				"filter": {
					"russian_stemmer": {"type": "stemmer", "language": "russian"}
				}
			}
		},
		"mappings": {
			"properties": {
				"message_id": {"type": "long"},
				"channel": {"type": "keyword"},
				"company": {"type": "text", "fields": {"keyword": {"type": "keyword"}}},
				"position": {"type": "text", "fields": {"keyword": {"type": "keyword"}}},
				"grade": {"type": "keyword"},
				"salary_rub": {"type": "long"},
				"bonus_frequency": {"type": "keyword"},
				"bonus_rub": {"type": "long"},
				"perks": {"type": "text", "analyzer": "report_text"},
				"work_format": {"type": "keyword"},
				"work_location": {"type": "keyword"},
				"workday_hours_upper": {"type": "integer"},
				"likes": {"type": "text", "analyzer": "report_text"},
				"dislikes": {"type": "text", "analyzer": "report_text"},
				"published_at": {"type": "date"},
				"permalink": {"type": "keyword"}
			}
		}
	}`

	res, err = i.client.Indices.Create(
		i.indexName,
		i.client.Indices.Create.WithBody(bytes.NewReader([]byte(mapping))),
	)
	if err != nil {
		return fmt.Errorf("create index: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("create index error: %s", res.Status())
	}
	return nil
}

package elasticsearch

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/olivere/elastic/v7"

	"github.com/goto/vfsearch/core/document"
	"github.com/goto/vfsearch/core/search"
)

// IndexRepository runs searches and writes documents on a single
// elasticsearch index. It implements search.Engine and
// indexing.Backend.
type IndexRepository struct {
	cli   *Client
	index string
}

func NewIndexRepository(cli *Client, index string) *IndexRepository {
	return &IndexRepository{
		cli:   cli,
		index: index,
	}
}

func (repo *IndexRepository) Execute(ctx context.Context, q search.EngineQuery) (resp search.EngineResponse, err error) {
	defer func(start time.Time) { repo.cli.instrumentOp(ctx, "Search", repo.index, start, err) }(time.Now())

	body, err := buildSearchBody(q)
	if err != nil {
		return search.EngineResponse{}, err
	}

	res, err := repo.cli.client.Search(
		repo.cli.client.Search.WithIndex(repo.index),
		repo.cli.client.Search.WithBody(body),
		repo.cli.client.Search.WithContext(ctx),
	)
	if err != nil {
		return search.EngineResponse{}, elasticSearchError("Search", repo.index, "", err)
	}
	defer drainBody(res)
	if res.IsError() {
		return search.EngineResponse{}, responseError("Search", repo.index, "", res)
	}

	var result elastic.SearchResult
	if err := json.NewDecoder(res.Body).Decode(&result); err != nil {
		return search.EngineResponse{}, elasticSearchError("Search", repo.index, "", fmt.Errorf("decode search response: %w", err))
	}
	return toEngineResponse(&result, q.FacetFields)
}

func (repo *IndexRepository) FetchDocument(ctx context.Context, id string) (doc document.Document, err error) {
	defer func(start time.Time) { repo.cli.instrumentOp(ctx, "Get", repo.index, start, err) }(time.Now())

	if id == "" {
		return nil, document.ErrEmptyID
	}

	res, err := repo.cli.client.Get(
		repo.index,
		id,
		repo.cli.client.Get.WithContext(ctx),
	)
	if err != nil {
		return nil, elasticSearchError("Get", repo.index, id, err)
	}
	defer drainBody(res)
	if res.StatusCode == http.StatusNotFound {
		return nil, document.NotFoundError{ID: id}
	}
	if res.IsError() {
		return nil, responseError("Get", repo.index, id, res)
	}

	var response struct {
		ID     string          `json:"_id"`
		Found  bool            `json:"found"`
		Source json.RawMessage `json:"_source"`
	}
	if err := json.NewDecoder(res.Body).Decode(&response); err != nil {
		return nil, elasticSearchError("Get", repo.index, id, fmt.Errorf("decode document: %w", err))
	}
	if !response.Found {
		return nil, document.NotFoundError{ID: id}
	}
	return hitDocument(response.ID, response.Source)
}

func (repo *IndexRepository) Submit(ctx context.Context, docs []document.Document) (err error) {
	defer func(start time.Time) { repo.cli.instrumentOp(ctx, "Bulk", repo.index, start, err) }(time.Now())

	if len(docs) == 0 {
		return nil
	}
	body, err := repo.createBulkBody(docs)
	if err != nil {
		return fmt.Errorf("error serialising payload: %w", err)
	}

	res, err := repo.cli.client.Bulk(
		body,
		repo.cli.client.Bulk.WithIndex(repo.index),
		repo.cli.client.Bulk.WithContext(ctx),
	)
	if err != nil {
		return elasticSearchError("Bulk", repo.index, "", err)
	}
	defer drainBody(res)
	if res.IsError() {
		return responseError("Bulk", repo.index, "", res)
	}
	return bulkError(repo.index, res.Body)
}

func (repo *IndexRepository) DeleteByID(ctx context.Context, id string) (err error) {
	defer func(start time.Time) { repo.cli.instrumentOp(ctx, "Delete", repo.index, start, err) }(time.Now())

	if id == "" {
		return document.ErrEmptyID
	}

	res, err := repo.cli.client.Delete(
		repo.index,
		id,
		repo.cli.client.Delete.WithContext(ctx),
	)
	if err != nil {
		return elasticSearchError("Delete", repo.index, id, err)
	}
	defer drainBody(res)
	if res.IsError() && res.StatusCode != http.StatusNotFound {
		return responseError("Delete", repo.index, id, res)
	}
	return nil
}

func (repo *IndexRepository) DeleteAll(ctx context.Context) (err error) {
	defer func(start time.Time) { repo.cli.instrumentOp(ctx, "DeleteByQuery", repo.index, start, err) }(time.Now())

	res, err := repo.cli.client.DeleteByQuery(
		[]string{repo.index},
		strings.NewReader(`{"query":{"match_all":{}}}`),
		repo.cli.client.DeleteByQuery.WithConflicts("proceed"),
		repo.cli.client.DeleteByQuery.WithContext(ctx),
	)
	if err != nil {
		return elasticSearchError("DeleteByQuery", repo.index, "", err)
	}
	defer drainBody(res)
	if res.IsError() {
		return responseError("DeleteByQuery", repo.index, "", res)
	}
	return nil
}

func (repo *IndexRepository) Optimize(ctx context.Context) (err error) {
	defer func(start time.Time) { repo.cli.instrumentOp(ctx, "Forcemerge", repo.index, start, err) }(time.Now())

	res, err := repo.cli.client.Indices.Forcemerge(
		repo.cli.client.Indices.Forcemerge.WithIndex(repo.index),
		repo.cli.client.Indices.Forcemerge.WithMaxNumSegments(1),
		repo.cli.client.Indices.Forcemerge.WithContext(ctx),
	)
	if err != nil {
		return elasticSearchError("Forcemerge", repo.index, "", err)
	}
	defer drainBody(res)
	if res.IsError() {
		return responseError("Forcemerge", repo.index, "", res)
	}
	return nil
}

// Commit makes every submitted change visible to searches.
func (repo *IndexRepository) Commit(ctx context.Context) (err error) {
	defer func(start time.Time) { repo.cli.instrumentOp(ctx, "Refresh", repo.index, start, err) }(time.Now())

	res, err := repo.cli.client.Indices.Refresh(
		repo.cli.client.Indices.Refresh.WithIndex(repo.index),
		repo.cli.client.Indices.Refresh.WithContext(ctx),
	)
	if err != nil {
		return elasticSearchError("Refresh", repo.index, "", err)
	}
	defer drainBody(res)
	if res.IsError() {
		return responseError("Refresh", repo.index, "", res)
	}
	return nil
}

func (repo *IndexRepository) createBulkBody(docs []document.Document) (io.Reader, error) {
	payload := bytes.NewBuffer(nil)
	for _, doc := range docs {
		id := doc.ID()
		if id == "" {
			return nil, document.ErrEmptyID
		}
		if err := repo.writeIndexAction(payload, id); err != nil {
			return nil, fmt.Errorf("createBulkBody: %w", err)
		}
		if err := json.NewEncoder(payload).Encode(doc); err != nil {
			return nil, fmt.Errorf("error serialising document %q: %w", id, err)
		}
	}
	return payload, nil
}

func (repo *IndexRepository) writeIndexAction(w io.Writer, id string) error {
	action := map[string]interface{}{
		"index": map[string]interface{}{
			"_index": repo.index,
			"_id":    id,
		},
	}
	return json.NewEncoder(w).Encode(action)
}

// bulkError returns the first item failure of a bulk response.
func bulkError(index string, body io.Reader) error {
	var response struct {
		Errors bool `json:"errors"`
		Items  []map[string]struct {
			ID     string `json:"_id"`
			Status int    `json:"status"`
			Error  struct {
				Type   string `json:"type"`
				Reason string `json:"reason"`
			} `json:"error"`
		} `json:"items"`
	}
	if err := json.NewDecoder(body).Decode(&response); err != nil {
		return elasticSearchError("Bulk", index, "", fmt.Errorf("decode bulk response: %w", err))
	}
	if !response.Errors {
		return nil
	}
	for _, item := range response.Items {
		for _, result := range item {
			if result.Status < 300 {
				continue
			}
			return document.BackendError{
				Op:     "Bulk",
				Index:  index,
				ID:     result.ID,
				ESCode: result.Error.Type,
				Err:    errors.New(result.Error.Reason),
			}
		}
	}
	return elasticSearchError("Bulk", index, "", errors.New("bulk request reported errors"))
}

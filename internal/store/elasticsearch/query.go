package elasticsearch

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/olivere/elastic/v7"

	"github.com/goto/vfsearch/core/document"
	"github.com/goto/vfsearch/core/search"
)

// buildSearchBody translates an engine query into a search request body.
// The text and every filter fragment are query_string queries. Filters do
// not take part in scoring.
func buildSearchBody(q search.EngineQuery) (io.Reader, error) {
	boolQuery := elastic.NewBoolQuery()
	if strings.TrimSpace(q.Text) == "" {
		boolQuery.Must(elastic.NewMatchAllQuery())
	} else {
		textQuery := elastic.NewQueryStringQuery(q.Text)
		for _, f := range q.WeightedFields {
			textQuery.Field(f)
		}
		if q.HandlerType != "" {
			textQuery.Type(q.HandlerType)
		}
		boolQuery.Must(textQuery)
	}

	for _, f := range q.Filters {
		f = strings.TrimSpace(f)
		if f == "" {
			continue
		}
		boolQuery.Filter(elastic.NewQueryStringQuery(f))
	}

	src := elastic.NewSearchSource().
		Query(boolQuery).
		TrackScores(true).
		TrackTotalHits(true).
		From(q.From).
		Size(q.Size)
	for _, s := range q.Sort {
		src.Sort(s.Field, !s.Descending)
	}
	if q.Highlight {
		src.Highlight(elastic.NewHighlight().Field("*"))
	}
	for _, f := range q.FacetFields {
		src.Aggregation(f, elastic.NewTermsAggregation().Field(f))
	}

	body, err := src.Source()
	if err != nil {
		return nil, fmt.Errorf("build search source: %w", err)
	}
	payload := bytes.NewBuffer(nil)
	if err := json.NewEncoder(payload).Encode(body); err != nil {
		return nil, fmt.Errorf("encode search source: %w", err)
	}
	return payload, nil
}

// toEngineResponse converts a decoded search response.
func toEngineResponse(res *elastic.SearchResult, facetFields []string) (search.EngineResponse, error) {
	resp := search.EngineResponse{Highlighting: map[string]map[string][]string{}}
	if res.Hits == nil {
		return resp, nil
	}
	if res.Hits.TotalHits != nil {
		resp.TotalHits = int(res.Hits.TotalHits.Value)
	}
	resp.MaxScore = res.Hits.MaxScore

	for _, hit := range res.Hits.Hits {
		doc, err := hitDocument(hit.Id, hit.Source)
		if err != nil {
			return search.EngineResponse{}, err
		}
		if hit.Score != nil {
			doc[document.FieldScore] = *hit.Score
		}
		resp.Documents = append(resp.Documents, doc)
		if len(hit.Highlight) > 0 {
			resp.Highlighting[doc.ID()] = hit.Highlight
		}
	}

	for _, f := range facetFields {
		agg, ok := res.Aggregations.Terms(f)
		if !ok {
			continue
		}
		facet := search.Facet{Field: f}
		for _, b := range agg.Buckets {
			value := fmt.Sprint(b.Key)
			if b.KeyAsString != nil {
				value = *b.KeyAsString
			}
			facet.Values = append(facet.Values, search.FacetValue{Value: value, Count: b.DocCount})
		}
		resp.Facets = append(resp.Facets, facet)
	}
	return resp, nil
}

func hitDocument(id string, source json.RawMessage) (document.Document, error) {
	doc := document.Document{}
	if len(source) > 0 {
		if err := json.Unmarshal(source, &doc); err != nil {
			return nil, fmt.Errorf("decode document %q: %w", id, err)
		}
	}
	if !doc.Has(document.FieldID) {
		doc[document.FieldID] = id
	}
	return doc, nil
}

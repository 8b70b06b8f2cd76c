package indexing_test

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"

	"github.com/goto/vfsearch/core/document"
	"github.com/goto/vfsearch/core/indexing"
)

func TestMerge(t *testing.T) {
	current := document.Document{
		"id":           "/a.html",
		"title":        "old",
		"category":     []interface{}{"news"},
		"content":      "body",
		"score":        1.5,
		"ngramcontent": "body",
	}

	t.Run("should return the current document for an empty update", func(t *testing.T) {
		got := indexing.Merge(indexing.PendingUpdate{ID: "/a.html"}, document.Document{"id": "/a.html", "title": "old"}, indexing.MergeOptions{})
		if diff := cmp.Diff(document.Document{"id": "/a.html", "title": "old"}, got); diff != "" {
			t.Errorf("unexpected merge (-want +got):\n%s", diff)
		}
	})

	t.Run("should replace updated fields and carry the rest", func(t *testing.T) {
		got := indexing.Merge(indexing.PendingUpdate{
			ID:     "/a.html",
			Fields: map[string]interface{}{"title": "new", "category": []interface{}{"sport"}},
		}, current, indexing.MergeOptions{})

		want := document.Document{
			"id":       "/a.html",
			"title":    "new",
			"category": []interface{}{"sport"},
			"content":  "body",
		}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("unexpected merge (-want +got):\n%s", diff)
		}
	})

	t.Run("should merge object fields key by key", func(t *testing.T) {
		doc := document.Document{
			"id":   "/a.html",
			"meta": map[string]interface{}{"author": "jane", "lang": "en"},
		}
		got := indexing.Merge(indexing.PendingUpdate{
			ID:     "/a.html",
			Fields: map[string]interface{}{"meta": map[string]interface{}{"lang": "de"}},
		}, doc, indexing.MergeOptions{})

		want := document.Document{
			"id":   "/a.html",
			"meta": map[string]interface{}{"author": "jane", "lang": "de"},
		}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("unexpected merge (-want +got):\n%s", diff)
		}
		assert.Equal(t, "en", doc["meta"].(map[string]interface{})["lang"])
	})

	t.Run("should drop configured derived fields", func(t *testing.T) {
		got := indexing.Merge(indexing.PendingUpdate{ID: "/a.html"}, current, indexing.MergeOptions{DerivedFields: []string{"content"}})
		assert.NotContains(t, got, "content")
		assert.NotContains(t, got, "score")
		assert.NotContains(t, got, "ngramcontent")
	})

	t.Run("should not modify the current document", func(t *testing.T) {
		indexing.Merge(indexing.PendingUpdate{Fields: map[string]interface{}{"title": "x"}}, current, indexing.MergeOptions{})
		assert.Equal(t, "old", current["title"])
		assert.Contains(t, current, "score")
	})
}

func TestWithAvailability(t *testing.T) {
	now := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)

	got := indexing.WithAvailability(document.Document{"id": "a"}, time.Time{}, time.Time{}, now)
	assert.Equal(t, "1970-01-01T00:00:00.000Z", got[document.FieldRelease])
	assert.Equal(t, "2520-01-01T00:00:00.000Z", got[document.FieldExpired])

	kept := indexing.WithAvailability(document.Document{"id": "a", "release": "2021-01-01T00:00:00.000Z"}, time.Time{}, time.Time{}, now)
	assert.Equal(t, "2021-01-01T00:00:00.000Z", kept[document.FieldRelease])
}

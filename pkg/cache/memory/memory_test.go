package memory

import (
	"testing"
	"time"

	"github.com/eyesofazrael/azrael/pkg/models"
)

func TestPutGetClear(t *testing.T) {
	c := New()
	e := models.CacheEntry{
		Key:       "loki|{}",
		Results:   []models.SearchResult{{ID: "loki"}},
		Timestamp: models.Millis(time.Now().Add(-24 * time.Hour)),
	}
	c.Put(e)

	got, ok := c.Get("loki|{}")
	if !ok {
		t.Fatal("expected hit")
	}
	if got.Results[0].ID != "loki" {
		t.Errorf("unexpected entry %+v", got)
	}
	if c.Len() != 1 {
		t.Errorf("expected 1 entry, got %d", c.Len())
	}

	c.Clear()
	if _, ok := c.Get("loki|{}"); ok {
		t.Error("expected miss after clear")
	}
}

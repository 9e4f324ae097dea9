package knowledge

import (
	"context"
	"strings"
	"testing"
)

func TestMemoryStoreRanksByOverlap(t *testing.T) {
	s := NewMemoryStore()
	if err := Seed(context.Background(), s); err != nil {
		t.Fatalf("seed: %v", err)
	}

	hits, err := s.Query(context.Background(), "roots of the quadratic equation x^2 - 5x + 6 = 0", 1)
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(hits) != 1 {
		t.Fatalf("got %d hits, want 1", len(hits))
	}
	if !strings.Contains(hits[0].Text, "Quadratic Equations") {
		t.Fatalf("top hit = %q", hits[0].Text)
	}
}

func TestMemoryStoreNoOverlapReturnsNothing(t *testing.T) {
	s := NewMemoryStore()
	if err := Seed(context.Background(), s); err != nil {
		t.Fatalf("seed: %v", err)
	}

	hits, err := s.Query(context.Background(), "zzqx plmw vvkr", 3)
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(hits) != 0 {
		t.Fatalf("got %d hits, want 0", len(hits))
	}
}

func TestMemoryStoreOverwritesByID(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	if err := s.Add(ctx, []Document{{ID: "d1", Text: "old entry about matrices"}}); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := s.Add(ctx, []Document{{ID: "d1", Text: "new entry about matrices"}}); err != nil {
		t.Fatalf("re-add: %v", err)
	}
	if s.Len() != 1 {
		t.Fatalf("len = %d, want 1", s.Len())
	}

	hits, err := s.Query(ctx, "matrices entry", 1)
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(hits) != 1 || !strings.Contains(hits[0].Text, "new entry") {
		t.Fatalf("hits = %+v", hits)
	}
}

func TestSeedCorpusIsStableAndDistinct(t *testing.T) {
	docs := SeedDocuments()
	if len(docs) < 15 {
		t.Fatalf("seed corpus too small: %d", len(docs))
	}
	seen := make(map[string]bool)
	for _, d := range docs {
		if d.ID == "" || d.Text == "" {
			t.Fatalf("empty field in %+v", d)
		}
		if seen[d.ID] {
			t.Fatalf("duplicate id %s", d.ID)
		}
		seen[d.ID] = true
	}
}

func TestParseQdrantURL(t *testing.T) {
	cases := []struct {
		in     string
		host   string
		port   int
		useTLS bool
		ok     bool
	}{
		{"http://localhost:6333", "localhost", 6334, false, true},
		{"https://kb.example.io:6334", "kb.example.io", 6334, true, true},
		{"http://localhost", "localhost", 6334, false, true},
		{"not a url", "", 0, false, false},
	}
	for _, c := range cases {
		host, port, useTLS, err := parseQdrantURL(c.in)
		if c.ok != (err == nil) {
			t.Fatalf("parseQdrantURL(%q) err = %v", c.in, err)
		}
		if !c.ok {
			continue
		}
		if host != c.host || port != c.port || useTLS != c.useTLS {
			t.Fatalf("parseQdrantURL(%q) = %s %d %v", c.in, host, port, useTLS)
		}
	}
}

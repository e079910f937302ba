// internal/faults/faults_test.go
package faults

import (
	"context"
	"errors"
	"testing"
)

type countingFetcher struct {
	calls int
	files []ErrorFile
	err   error
}

func (f *countingFetcher) GetErrorFiles(ctx context.Context) ([]ErrorFile, error) {
	f.calls++
	return f.files, f.err
}

func TestRegistry_AlwaysRefetches(t *testing.T) {
	fetcher := &countingFetcher{files: []ErrorFile{{ID: "1", Name: "bad.pdf", Path: "/a/bad.pdf", ErrorReason: "unreadable"}}}
	reg := NewRegistry(fetcher)

	for i := 0; i < 3; i++ {
		files, err := reg.Fetch(context.Background())
		if err != nil {
			t.Fatalf("Fetch failed: %v", err)
		}
		if len(files) != 1 || files[0].Name != "bad.pdf" {
			t.Errorf("unexpected files: %+v", files)
		}
	}
	if fetcher.calls != 3 {
		t.Errorf("expected 3 backend calls (no caching), got %d", fetcher.calls)
	}
}

func TestRegistry_PropagatesFetchError(t *testing.T) {
	fetcher := &countingFetcher{err: errors.New("backend down")}
	if _, err := NewRegistry(fetcher).Fetch(context.Background()); err == nil {
		t.Error("expected fetch error to surface")
	}
}

func TestClassifier(t *testing.T) {
	c := NewClassifier()

	tests := []struct {
		message string
		want    Class
	}{
		{"model error: context window exceeded for request", ClassCapacity},
		{"Maximum Context length is 8192 tokens", ClassCapacity},
		{"vision request tokens exceed limit", ClassCapacity},
		{"open /Users/x/doc.pdf: permission denied", ClassPermission},
		{"Operation Not Permitted", ClassPermission},
		{"something else entirely", ClassGeneric},
		{"", ClassGeneric},
	}
	for _, tt := range tests {
		if got := c.Classify(tt.message); got != tt.want {
			t.Errorf("Classify(%q) = %s, want %s", tt.message, got, tt.want)
		}
	}
}

func TestClassifier_AddMatcher(t *testing.T) {
	c := NewClassifier()
	c.Add(Matcher{Class: ClassCapacity, Substrings: []string{"image too large"}})

	if got := c.Classify("vision: Image Too Large for model"); got != ClassCapacity {
		t.Errorf("custom matcher not applied, got %s", got)
	}
}

package sync

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rknightion/paperless-dedupe/internal/clock"
	"github.com/rknightion/paperless-dedupe/internal/model"
	"github.com/rknightion/paperless-dedupe/internal/store"
	"github.com/rknightion/paperless-dedupe/internal/upstream"
)

// fakeDoc is one document served by the fake upstream backend.
type fakeDoc struct {
	ID               int64
	Title            string
	Content          string
	Correspondent    *int64
	DocumentType     *int64
	Tags             []int64
	Created          time.Time
	Modified         time.Time
	Added            time.Time
	OriginalFileName string
	OriginalSize     int64
	ArchiveSize      int64
}

type fakeBackend struct {
	mu             sync.Mutex
	docs           []fakeDoc
	tags           map[int64]string
	correspondents map[int64]string
	docTypes       map[int64]string
	failMetadata   map[int64]bool
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		tags:           map[int64]string{1: "invoice", 2: "receipt"},
		correspondents: map[int64]string{1: "acme corp"},
		docTypes:       map[int64]string{1: "invoice"},
		failMetadata:   map[int64]bool{},
	}
}

func (b *fakeBackend) server(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()

	mux.HandleFunc("/api/statistics/", func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		defer b.mu.Unlock()
		writeJSON(w, map[string]any{"documents_total": len(b.docs)})
	})

	mux.HandleFunc("/api/tags/", func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		defer b.mu.Unlock()
		writeJSON(w, referencePageFor(b.tags))
	})
	mux.HandleFunc("/api/correspondents/", func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		defer b.mu.Unlock()
		writeJSON(w, referencePageFor(b.correspondents))
	})
	mux.HandleFunc("/api/document_types/", func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		defer b.mu.Unlock()
		writeJSON(w, referencePageFor(b.docTypes))
	})

	mux.HandleFunc("/api/documents/", func(w http.ResponseWriter, r *http.Request) {
		path := r.URL.Path
		if path == "/api/documents/" {
			b.mu.Lock()
			sorted := append([]fakeDoc{}, b.docs...)
			b.mu.Unlock()
			sort.Slice(sorted, func(i, j int) bool { return sorted[i].Modified.After(sorted[j].Modified) })

			results := make([]map[string]any, 0, len(sorted))
			for _, d := range sorted {
				results = append(results, map[string]any{"id": d.ID, "modified": d.Modified})
			}
			writeJSON(w, map[string]any{"count": len(results), "next": nil, "previous": nil, "results": results})
			return
		}

		// /api/documents/{id}/ or /api/documents/{id}/metadata/
		rest := path[len("/api/documents/"):]
		idStr := rest
		if len(idStr) > 0 && idStr[len(idStr)-1] == '/' {
			idStr = idStr[:len(idStr)-1]
		}
		metadata := false
		if idx := lastSlash(idStr); idx >= 0 && idStr[idx+1:] == "metadata" {
			metadata = true
			idStr = idStr[:idx]
		}
		id, err := strconv.ParseInt(idStr, 10, 64)
		if err != nil {
			w.WriteHeader(http.StatusNotFound)
			return
		}

		b.mu.Lock()
		defer b.mu.Unlock()

		if metadata {
			if b.failMetadata[id] {
				w.WriteHeader(http.StatusInternalServerError)
				return
			}
			for _, d := range b.docs {
				if d.ID == id {
					writeJSON(w, map[string]any{"original_size": d.OriginalSize, "archive_size": d.ArchiveSize})
					return
				}
			}
			w.WriteHeader(http.StatusNotFound)
			return
		}

		for _, d := range b.docs {
			if d.ID == id {
				writeJSON(w, map[string]any{
					"id": d.ID, "title": d.Title, "content": d.Content,
					"tags": d.Tags, "correspondent": d.Correspondent, "document_type": d.DocumentType,
					"created": d.Created, "modified": d.Modified, "added": d.Added,
					"original_file_name": d.OriginalFileName,
				})
				return
			}
		}
		w.WriteHeader(http.StatusNotFound)
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func lastSlash(s string) int {
	for i := len(s) - 1; i >= 0; i-- {
		if s[i] == '/' {
			return i
		}
	}
	return -1
}

func referencePageFor(m map[int64]string) map[string]any {
	results := make([]map[string]any, 0, len(m))
	for id, name := range m {
		results = append(results, map[string]any{"id": id, "name": name})
	}
	return map[string]any{"count": len(results), "next": nil, "results": results}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func openTestStoreDB(t *testing.T) *store.Store {
	t.Helper()
	st, err := store.Open(t.TempDir()+"/sync_test.db", clock.Real{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	return st
}

func TestFullSyncInsertsDocuments(t *testing.T) {
	backend := newFakeBackend()
	now := time.Now().UTC().Truncate(time.Second)
	backend.docs = []fakeDoc{
		{ID: 1, Title: "doc one", Content: "alpha beta gamma", Created: now, Modified: now, Added: now, OriginalFileName: "a.pdf"},
		{ID: 2, Title: "doc two", Content: "delta epsilon zeta", Created: now, Modified: now, Added: now, OriginalFileName: "b.pdf"},
	}
	srv := backend.server(t)
	client := upstream.New(upstream.Config{BaseURL: srv.URL})
	st := openTestStoreDB(t)

	engine := New(st.DB(), client, clock.Real{}, nil)
	var fractions []float64
	result, err := engine.Run(t.Context(), model.SyncOptions{
		OnProgress: func(f float64, msg string) { fractions = append(fractions, f) },
	})
	require.NoError(t, err)
	assert.Equal(t, 2, result.Inserted)
	assert.Equal(t, 0, result.Updated)
	assert.True(t, result.Success)
	require.NotEmpty(t, fractions)
	assert.Equal(t, 1.0, fractions[len(fractions)-1])
	for i := 1; i < len(fractions); i++ {
		assert.GreaterOrEqual(t, fractions[i], fractions[i-1])
	}
}

func TestSyncTwiceYieldsNoChanges(t *testing.T) {
	backend := newFakeBackend()
	now := time.Now().UTC().Truncate(time.Second)
	backend.docs = []fakeDoc{
		{ID: 1, Title: "doc one", Content: "alpha beta gamma", Created: now, Modified: now, Added: now, OriginalFileName: "a.pdf"},
	}
	srv := backend.server(t)
	client := upstream.New(upstream.Config{BaseURL: srv.URL})
	st := openTestStoreDB(t)
	engine := New(st.DB(), client, clock.Real{}, nil)

	_, err := engine.Run(t.Context(), model.SyncOptions{})
	require.NoError(t, err)

	result, err := engine.Run(t.Context(), model.SyncOptions{})
	require.NoError(t, err)
	assert.Equal(t, 0, result.Inserted)
	assert.Equal(t, 0, result.Updated)
	assert.Equal(t, 1, result.Skipped)
}

func TestMetadataFetchFailureDoesNotFailSync(t *testing.T) {
	backend := newFakeBackend()
	now := time.Now().UTC().Truncate(time.Second)
	backend.docs = []fakeDoc{
		{ID: 1, Title: "doc one", Content: "alpha beta gamma", Created: now, Modified: now, Added: now, OriginalFileName: "a.pdf"},
	}
	backend.failMetadata[1] = true
	srv := backend.server(t)
	client := upstream.New(upstream.Config{BaseURL: srv.URL})
	st := openTestStoreDB(t)
	engine := New(st.DB(), client, clock.Real{}, nil)

	result, err := engine.Run(t.Context(), model.SyncOptions{})
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, 1, result.Inserted)
	assert.NotEmpty(t, result.Errors)
}

func TestPurgeBeforeSyncClearsExistingData(t *testing.T) {
	backend := newFakeBackend()
	now := time.Now().UTC().Truncate(time.Second)
	backend.docs = []fakeDoc{
		{ID: 1, Title: "doc one", Content: "alpha beta gamma", Created: now, Modified: now, Added: now, OriginalFileName: "a.pdf"},
	}
	srv := backend.server(t)
	client := upstream.New(upstream.Config{BaseURL: srv.URL})
	st := openTestStoreDB(t)
	engine := New(st.DB(), client, clock.Real{}, nil)

	_, err := engine.Run(t.Context(), model.SyncOptions{})
	require.NoError(t, err)

	result, err := engine.Run(t.Context(), model.SyncOptions{PurgeBeforeSync: true})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Inserted)
	assert.Equal(t, 0, result.Skipped)
}

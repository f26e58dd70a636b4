package rag

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/stayline/concierge/internal/blob"
	"github.com/stayline/concierge/pkg/logging"
)

// Corpus names used across the service.
const (
	CorpusCustomers    = "customers"
	CorpusBookings     = "bookings"
	CorpusRoomTypes    = "room_types"
	CorpusPropertyInfo = "property_info"
)

// On disk each corpus is one metadata file plus one row-aligned vector
// file: row i of the vector file belongs to entry i of the metadata
// file. An index object lists the corpora and the rebuild timestamp.
const corpusIndexKey = "corpora/index.json"

func corpusMetaKey(name string) string    { return "corpora/" + name + "/meta.json" }
func corpusVectorsKey(name string) string { return "corpora/" + name + "/vectors.json" }

// SearchResult is one retrieved document with its similarity score.
type SearchResult struct {
	Corpus  string
	Content string
	Score   float64
}

// Retriever exposes the query capability needed by the dialogue engine.
type Retriever interface {
	Search(ctx context.Context, query string, topK int, corpora ...string) ([]SearchResult, error)
}

type document struct {
	content   string
	embedding []float32
}

// Store keeps embedded documents in memory, grouped by corpus, and
// supports cosine retrieval. Snapshots round-trip through a blob store so
// a restart does not require re-embedding everything.
type Store struct {
	embedder Embedder
	blobs    blob.Store
	logger   *logging.Logger

	mu        sync.RWMutex
	corpora   map[string][]document
	rebuiltAt time.Time
}

var _ Retriever = (*Store)(nil)

// NewStore creates an empty store. blobs may be nil, in which case Save
// and Load are no-ops.
func NewStore(embedder Embedder, blobs blob.Store, logger *logging.Logger) *Store {
	if embedder == nil {
		panic("rag: embedder cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Store{
		embedder: embedder,
		blobs:    blobs,
		logger:   logger,
		corpora:  make(map[string][]document),
	}
}

// Add embeds contents and appends them to the named corpus.
func (s *Store) Add(ctx context.Context, corpus string, contents []string) error {
	if corpus == "" {
		return errors.New("rag: corpus name cannot be empty")
	}
	if len(contents) == 0 {
		return nil
	}

	vecs, err := s.embedder.Embed(ctx, contents)
	if err != nil {
		return fmt.Errorf("rag: embed %s: %w", corpus, err)
	}
	if len(vecs) != len(contents) {
		return errors.New("rag: embedder returned wrong vector count")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for i, content := range contents {
		s.corpora[corpus] = append(s.corpora[corpus], document{
			content:   content,
			embedding: vecs[i],
		})
	}
	return nil
}

// Replace atomically swaps the named corpus for the given contents.
func (s *Store) Replace(ctx context.Context, corpus string, contents []string) error {
	if corpus == "" {
		return errors.New("rag: corpus name cannot be empty")
	}

	vecs, err := s.embedder.Embed(ctx, contents)
	if err != nil {
		return fmt.Errorf("rag: embed %s: %w", corpus, err)
	}
	if len(vecs) != len(contents) {
		return errors.New("rag: embedder returned wrong vector count")
	}

	docs := make([]document, len(contents))
	for i, content := range contents {
		docs[i] = document{content: content, embedding: vecs[i]}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.corpora[corpus] = docs
	s.rebuiltAt = time.Now().UTC()
	return nil
}

// Search embeds the query once and returns the topK most similar
// documents across the named corpora. With no corpora given, all corpora
// are searched.
func (s *Store) Search(ctx context.Context, query string, topK int, corpora ...string) ([]SearchResult, error) {
	if topK <= 0 {
		topK = 3
	}

	vecs, err := s.embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("rag: embed query: %w", err)
	}
	if len(vecs) == 0 {
		return nil, nil
	}
	queryVec := vecs[0]

	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(corpora) == 0 {
		corpora = make([]string, 0, len(s.corpora))
		for name := range s.corpora {
			corpora = append(corpora, name)
		}
		sort.Strings(corpora)
	}

	var results []SearchResult
	for _, name := range corpora {
		for _, doc := range s.corpora[name] {
			results = append(results, SearchResult{
				Corpus:  name,
				Content: doc.content,
				Score:   cosineSimilarity(queryVec, doc.embedding),
			})
		}
	}
	if len(results) == 0 {
		return nil, nil
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	if len(results) > topK {
		results = results[:topK]
	}
	return results, nil
}

// Reset drops the named corpora, or every corpus when none are named.
func (s *Store) Reset(corpora ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(corpora) == 0 {
		s.corpora = make(map[string][]document)
		return
	}
	for _, name := range corpora {
		delete(s.corpora, name)
	}
}

// Status reports the document count per corpus and the last rebuild time.
func (s *Store) Status() (counts map[string]int, rebuiltAt time.Time) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	counts = make(map[string]int, len(s.corpora))
	for name, docs := range s.corpora {
		counts[name] = len(docs)
	}
	return counts, s.rebuiltAt
}

type corpusIndex struct {
	RebuiltAt time.Time `json:"rebuilt_at"`
	Corpora   []string  `json:"corpora"`
}

// Save writes every corpus to the blob store as a metadata/vector file
// pair, then the index. Corpora stay independently readable on disk.
func (s *Store) Save(ctx context.Context) error {
	if s.blobs == nil {
		return nil
	}

	s.mu.RLock()
	index := corpusIndex{RebuiltAt: s.rebuiltAt, Corpora: make([]string, 0, len(s.corpora))}
	meta := make(map[string][]string, len(s.corpora))
	vectors := make(map[string][][]float32, len(s.corpora))
	for name, docs := range s.corpora {
		index.Corpora = append(index.Corpora, name)
		contents := make([]string, len(docs))
		rows := make([][]float32, len(docs))
		for i, doc := range docs {
			contents[i] = doc.content
			rows[i] = doc.embedding
		}
		meta[name] = contents
		vectors[name] = rows
	}
	s.mu.RUnlock()

	sort.Strings(index.Corpora)
	for _, name := range index.Corpora {
		if err := s.putJSON(ctx, corpusMetaKey(name), meta[name]); err != nil {
			return err
		}
		if err := s.putJSON(ctx, corpusVectorsKey(name), vectors[name]); err != nil {
			return err
		}
	}
	if err := s.putJSON(ctx, corpusIndexKey, index); err != nil {
		return err
	}
	s.logger.Info("saved rag corpora", "corpora", len(index.Corpora))
	return nil
}

// Load replaces the store contents with the last saved corpora. A missing
// index is not an error; the store is simply left empty.
func (s *Store) Load(ctx context.Context) error {
	if s.blobs == nil {
		return nil
	}

	var index corpusIndex
	if err := s.getJSON(ctx, corpusIndexKey, &index); err != nil {
		if errors.Is(err, blob.ErrNotFound) {
			return nil
		}
		return err
	}

	corpora := make(map[string][]document, len(index.Corpora))
	for _, name := range index.Corpora {
		var contents []string
		var rows [][]float32
		if err := s.getJSON(ctx, corpusMetaKey(name), &contents); err != nil {
			return err
		}
		if err := s.getJSON(ctx, corpusVectorsKey(name), &rows); err != nil {
			return err
		}
		// Row alignment is the durability contract.
		if len(contents) != len(rows) {
			return fmt.Errorf("rag: corpus %s has %d documents but %d vectors", name, len(contents), len(rows))
		}
		docs := make([]document, len(contents))
		for i := range contents {
			docs[i] = document{content: contents[i], embedding: rows[i]}
		}
		corpora[name] = docs
	}

	s.mu.Lock()
	s.corpora = corpora
	s.rebuiltAt = index.RebuiltAt
	s.mu.Unlock()

	s.logger.Info("loaded rag corpora", "corpora", len(corpora))
	return nil
}

func (s *Store) putJSON(ctx context.Context, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("rag: marshal %s: %w", key, err)
	}
	return s.blobs.Put(ctx, key, data)
}

func (s *Store) getJSON(ctx context.Context, key string, v any) error {
	data, err := s.blobs.Get(ctx, key)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("rag: unmarshal %s: %w", key, err)
	}
	return nil
}

func cosineSimilarity(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

package rag

import (
	"context"
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/stayline/concierge/internal/pms"
	"github.com/stayline/concierge/pkg/logging"
)

var sectionRe = regexp.MustCompile(`(=== .+? ===)`)

// Rebuilder regenerates every retrieval corpus from the PMS and the
// property information file.
type Rebuilder struct {
	backend      pms.Backend
	store        *Store
	propertyFile string
	logger       *logging.Logger
}

// NewRebuilder creates a rebuilder. propertyFile may be empty, in which
// case the property_info corpus is skipped.
func NewRebuilder(backend pms.Backend, store *Store, propertyFile string, logger *logging.Logger) *Rebuilder {
	if backend == nil {
		panic("rag: pms backend cannot be nil")
	}
	if store == nil {
		panic("rag: store cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Rebuilder{backend: backend, store: store, propertyFile: propertyFile, logger: logger}
}

// RebuildAll regenerates all corpora, snapshots the store, and returns
// the document count per corpus. Corpora rebuild independently: a failure
// in one is reported but does not abort the others.
func (r *Rebuilder) RebuildAll(ctx context.Context) (map[string]int, error) {
	counts := make(map[string]int, 4)
	var firstErr error

	record := func(corpus string, n int, err error) {
		if err != nil {
			r.logger.Error("corpus rebuild failed", "corpus", corpus, "error", err)
			if firstErr == nil {
				firstErr = fmt.Errorf("rag: rebuild %s: %w", corpus, err)
			}
			return
		}
		counts[corpus] = n
	}

	n, err := r.rebuildCustomers(ctx)
	record(CorpusCustomers, n, err)

	n, err = r.rebuildBookings(ctx)
	record(CorpusBookings, n, err)

	n, err = r.rebuildRoomTypes(ctx)
	record(CorpusRoomTypes, n, err)

	n, err = r.rebuildPropertyInfo(ctx)
	record(CorpusPropertyInfo, n, err)

	if err := r.store.Save(ctx); err != nil {
		r.logger.Error("snapshot save failed", "error", err)
		if firstErr == nil {
			firstErr = err
		}
	}

	r.logger.Info("rag rebuild complete", "counts", counts)
	return counts, firstErr
}

func (r *Rebuilder) rebuildCustomers(ctx context.Context) (int, error) {
	customers, err := r.backend.ListCustomers(ctx)
	if err != nil {
		return 0, err
	}
	docs := make([]string, len(customers))
	for i, c := range customers {
		docs[i] = fmt.Sprintf("%s | %s", c.Name, c.Email)
	}
	if err := r.store.Replace(ctx, CorpusCustomers, docs); err != nil {
		return 0, err
	}
	return len(docs), nil
}

func (r *Rebuilder) rebuildBookings(ctx context.Context) (int, error) {
	bookings, err := r.backend.ListBookings(ctx)
	if err != nil {
		return 0, err
	}
	docs := make([]string, len(bookings))
	for i, b := range bookings {
		docs[i] = fmt.Sprintf("Booking ID %d for Customer %d", b.ID, b.CustomerID)
	}
	if err := r.store.Replace(ctx, CorpusBookings, docs); err != nil {
		return 0, err
	}
	return len(docs), nil
}

func (r *Rebuilder) rebuildRoomTypes(ctx context.Context) (int, error) {
	rooms, err := r.backend.GetRoomTypes(ctx)
	if err != nil {
		return 0, err
	}
	docs := make([]string, len(rooms))
	for i, rt := range rooms {
		docs[i] = fmt.Sprintf("%s - %s - Max occupancy: %d - Base price: $%.2f",
			rt.Name, rt.Description, rt.MaxOccupancy, rt.BasePrice)
	}
	if err := r.store.Replace(ctx, CorpusRoomTypes, docs); err != nil {
		return 0, err
	}
	return len(docs), nil
}

func (r *Rebuilder) rebuildPropertyInfo(ctx context.Context) (int, error) {
	if r.propertyFile == "" {
		return 0, nil
	}
	content, err := os.ReadFile(r.propertyFile)
	if err != nil {
		return 0, fmt.Errorf("read property info: %w", err)
	}

	docs := SplitPropertyInfo(string(content))
	if err := r.store.Replace(ctx, CorpusPropertyInfo, docs); err != nil {
		return 0, err
	}
	return len(docs), nil
}

// SplitPropertyInfo breaks a property information document into one
// retrievable chunk per "=== Section ===" heading. Text before the first
// heading lands under "General Info".
func SplitPropertyInfo(content string) []string {
	parts := sectionRe.Split(content, -1)
	headings := sectionRe.FindAllString(content, -1)

	section := "General Info"
	var docs []string

	emit := func(text string) {
		text = strings.TrimSpace(text)
		if text == "" {
			return
		}
		docs = append(docs, fmt.Sprintf("[%s]\n%s", section, text))
	}

	for i, part := range parts {
		emit(part)
		if i < len(headings) {
			section = strings.TrimSpace(strings.ReplaceAll(headings[i], "===", ""))
		}
	}
	return docs
}

package service

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/RaFeltrim/sigeco-condo-access-sub002/internal/sigeco/search"
	"github.com/RaFeltrim/sigeco-condo-access-sub002/internal/sigeco/store"
	"github.com/RaFeltrim/sigeco-condo-access-sub002/internal/sigeco/txn"
	"github.com/RaFeltrim/sigeco-condo-access-sub002/internal/sigeco/types"
)

// NewVisitor is the caller-supplied portion of a visitor entry.
type NewVisitor struct {
	Name        string `json:"name"`
	Document    string `json:"document"`
	Destination string `json:"destination"`
	Reason      string `json:"reason,omitempty"`
}

// VisitorService owns the visitor collection: entry and checkout lifecycle,
// retention pruning, search and export. It mirrors the durable collection in
// memory and routes every mutation through the optimistic coordinator so the
// mirror never diverges from storage past a failed save.
type VisitorService struct {
	mu      sync.Mutex
	col     *store.Collection[types.VisitorRecord]
	co      *txn.Coordinator[types.VisitorRecord]
	records []types.VisitorRecord
	logger  *log.Logger
	nowFn   func() time.Time
}

func NewVisitorService(ctx context.Context, col *store.Collection[types.VisitorRecord], logger *log.Logger) *VisitorService {
	return &VisitorService{
		col:     col,
		co:      txn.NewCoordinator(types.VisitorRecord.Clone),
		records: col.Load(ctx),
		logger:  logger,
		nowFn:   func() time.Time { return time.Now().UTC() },
	}
}

// Add registers a visitor entering the building. A document with an active
// entry cannot enter again until it checks out.
func (s *VisitorService) Add(ctx context.Context, data NewVisitor) (types.VisitorRecord, error) {
	name := strings.TrimSpace(data.Name)
	document := strings.TrimSpace(data.Document)
	destination := strings.TrimSpace(data.Destination)

	switch {
	case name == "":
		return types.VisitorRecord{}, fmt.Errorf("%w: name", ErrMissingField)
	case document == "":
		return types.VisitorRecord{}, fmt.Errorf("%w: document", ErrMissingField)
	case destination == "":
		return types.VisitorRecord{}, fmt.Errorf("%w: destination", ErrMissingField)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, r := range s.records {
		if r.Document == document && r.Status == types.VisitorActive {
			return types.VisitorRecord{}, ErrDuplicateActiveEntry
		}
	}

	rec := types.VisitorRecord{
		ID:          s.col.NextID(s.records),
		Name:        name,
		Document:    document,
		Destination: destination,
		Reason:      strings.TrimSpace(data.Reason),
		EntryTime:   s.nowFn(),
		Status:      types.VisitorActive,
	}

	err := s.co.Mutate(&s.records,
		func(in []types.VisitorRecord) []types.VisitorRecord {
			return s.col.Cap(append(in, rec))
		},
		func(in []types.VisitorRecord) error {
			return s.col.Save(ctx, in)
		},
	)
	if err != nil {
		return types.VisitorRecord{}, err
	}

	s.logger.Printf("visitor entry: id=%d document=%s destination=%s", rec.ID, rec.Document, rec.Destination)
	return rec.Clone(), nil
}

// Checkout marks a visitor as departed and derives the visit duration.
func (s *VisitorService) Checkout(ctx context.Context, id int64) (types.VisitorRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := -1
	for i, r := range s.records {
		if r.ID == id {
			idx = i
			break
		}
	}
	if idx == -1 {
		return types.VisitorRecord{}, ErrNotFound
	}
	if s.records[idx].Status == types.VisitorDeparted {
		return types.VisitorRecord{}, ErrAlreadyDeparted
	}

	now := s.nowFn()
	duration := types.ComputeDuration(s.records[idx].EntryTime, now)

	err := s.co.Mutate(&s.records,
		func(in []types.VisitorRecord) []types.VisitorRecord {
			in[idx].Status = types.VisitorDeparted
			in[idx].ExitTime = &now
			in[idx].Duration = &duration
			return in
		},
		func(in []types.VisitorRecord) error {
			return s.col.Save(ctx, in)
		},
	)
	if err != nil {
		return types.VisitorRecord{}, err
	}

	rec := s.records[idx].Clone()
	s.logger.Printf("visitor checkout: id=%d stayed %dh%02dm", rec.ID, duration.Hours, duration.Minutes)
	return rec, nil
}

// PruneOlderThan removes records whose entry is older than the given number
// of days and reports how many were removed. Nothing is written when no
// record qualifies.
func (s *VisitorService) PruneOlderThan(ctx context.Context, days int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := s.nowFn().AddDate(0, 0, -days)

	removed := 0
	for _, r := range s.records {
		if r.EntryTime.Before(cutoff) {
			removed++
		}
	}
	if removed == 0 {
		return 0, nil
	}

	err := s.co.Mutate(&s.records,
		func(in []types.VisitorRecord) []types.VisitorRecord {
			kept := make([]types.VisitorRecord, 0, len(in)-removed)
			for _, r := range in {
				if !r.EntryTime.Before(cutoff) {
					kept = append(kept, r)
				}
			}
			return kept
		},
		func(in []types.VisitorRecord) error {
			return s.col.Save(ctx, in)
		},
	)
	if err != nil {
		return 0, err
	}

	s.logger.Printf("visitor prune: removed %d records older than %d days", removed, days)
	return removed, nil
}

// Search ranks visitors against a free-form query. Never fails; an empty
// query yields no matches.
func (s *VisitorService) Search(query string) []search.Match {
	s.mu.Lock()
	records := s.cloneRecords()
	s.mu.Unlock()

	return search.Search(records, query)
}

// List returns a copy of all visitor records in entry order.
func (s *VisitorService) List() []types.VisitorRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cloneRecords()
}

// visitorCSVColumns is the fixed export order.
var visitorCSVColumns = []string{
	"id", "name", "document", "destination", "reason",
	"entry_time", "exit_time", "status", "duration_minutes",
}

// ExportCSV renders the collection as UTF-8 CSV: a header row, then one
// fully double-quoted row per record in the fixed column order.
func (s *VisitorService) ExportCSV() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	var b strings.Builder
	b.WriteString(csvRow(visitorCSVColumns...))

	for _, r := range s.records {
		exit := ""
		if r.ExitTime != nil {
			exit = r.ExitTime.Format(time.RFC3339)
		}
		duration := ""
		if r.Duration != nil {
			duration = strconv.Itoa(r.Duration.TotalMinutes)
		}
		b.WriteString(csvRow(
			strconv.FormatInt(r.ID, 10),
			r.Name,
			r.Document,
			r.Destination,
			r.Reason,
			r.EntryTime.Format(time.RFC3339),
			exit,
			string(r.Status),
			duration,
		))
	}
	return b.String()
}

func (s *VisitorService) cloneRecords() []types.VisitorRecord {
	out := make([]types.VisitorRecord, len(s.records))
	for i, r := range s.records {
		out[i] = r.Clone()
	}
	return out
}

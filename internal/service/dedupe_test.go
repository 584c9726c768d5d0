package service

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/oskarh/feedgate/internal/domain"
	"github.com/oskarh/feedgate/internal/logger"
)

// fakeProductStore is an in-memory ProductStore shared by the service tests.
type fakeProductStore struct {
	existing []domain.Product

	inserted    []*domain.Product
	updatedSKUs []string

	insertCalls    int
	failInsertCall map[int]bool
	failUpdate     bool
	failFindSKUs   bool
	failFindNames  bool

	skuCalls  [][]string
	nameCalls [][]string
}

func (f *fakeProductStore) BulkInsert(ctx context.Context, products []*domain.Product) error {
	f.insertCalls++
	if f.failInsertCall[f.insertCalls] {
		return errors.New("insert rejected")
	}
	f.inserted = append(f.inserted, products...)
	return nil
}

func (f *fakeProductStore) UpdateBySKU(ctx context.Context, tenantID string, product *domain.Product) error {
	if f.failUpdate {
		return errors.New("update rejected")
	}
	f.updatedSKUs = append(f.updatedSKUs, product.SKU)
	return nil
}

func (f *fakeProductStore) FindBySKUs(ctx context.Context, tenantID string, skus []string) ([]domain.Product, error) {
	f.skuCalls = append(f.skuCalls, skus)
	if f.failFindSKUs {
		return nil, errors.New("store down")
	}
	var out []domain.Product
	for _, p := range f.existing {
		for _, s := range skus {
			if strings.EqualFold(p.SKU, s) {
				out = append(out, p)
			}
		}
	}
	return out, nil
}

func (f *fakeProductStore) FindByNames(ctx context.Context, tenantID string, names []string) ([]domain.Product, error) {
	f.nameCalls = append(f.nameCalls, names)
	if f.failFindNames {
		return nil, errors.New("store down")
	}
	var out []domain.Product
	for _, p := range f.existing {
		for _, n := range names {
			if strings.EqualFold(p.Name, n) {
				out = append(out, p)
			}
		}
	}
	return out, nil
}

// fakeJobStore records job lifecycle calls for the service tests.
type progressUpdate struct {
	processed int
	failed    int
	percent   int
}

type fakeJobStore struct {
	created      *domain.ImportJob
	runningTotal int
	started      bool
	progress     []progressUpdate
	finalized    *domain.ImportJob
}

func (f *fakeJobStore) Create(ctx context.Context, job *domain.ImportJob) error {
	cp := *job
	f.created = &cp
	return nil
}

func (f *fakeJobStore) MarkRunning(ctx context.Context, jobID string, totalItems int, startedAt time.Time) error {
	f.started = true
	f.runningTotal = totalItems
	return nil
}

func (f *fakeJobStore) UpdateProgress(ctx context.Context, jobID string, processed, failed, progressPercent int) error {
	f.progress = append(f.progress, progressUpdate{processed: processed, failed: failed, percent: progressPercent})
	return nil
}

func (f *fakeJobStore) Finalize(ctx context.Context, job *domain.ImportJob) error {
	cp := *job
	f.finalized = &cp
	return nil
}

func testLogger() *logger.Logger {
	return logger.New(&logger.Config{
		Level:       "error",
		Format:      "text",
		Output:      io.Discard,
		ServiceName: "test",
	})
}

// TestDetectKeyMatch verifies SKU matches are reported at confidence 100
// and skipped only when the policy asks for it
func TestDetectKeyMatch(t *testing.T) {
	store := &fakeProductStore{
		existing: []domain.Product{{ID: "p-1", SKU: "w-1", Name: "Widget"}},
	}
	d := NewDuplicateDetector(store, testLogger(), 0, 0)
	candidates := []Candidate{
		{RowNumber: 1, Name: "Widget", SKU: "W-1"},
		{RowNumber: 2, Name: "Gadget", SKU: "X-9"},
	}

	kept, matches, err := d.Detect(context.Background(), "t1", candidates, false)
	if err != nil {
		t.Fatalf("Detect failed: %v", err)
	}
	if len(kept) != 2 {
		t.Errorf("expected matches reported but rows kept, got %d kept", len(kept))
	}
	if len(matches) != 1 {
		t.Fatalf("expected 1 match, got %+v", matches)
	}
	m := matches[0]
	if m.SourceRowNumber != 1 || m.Value != "W-1" || m.ExistingID != "p-1" {
		t.Errorf("match = %+v", m)
	}
	if m.MatchType != MatchTypeKey || m.Confidence != 100 {
		t.Errorf("match type/confidence = %s/%d", m.MatchType, m.Confidence)
	}

	kept, _, err = d.Detect(context.Background(), "t1", candidates, true)
	if err != nil {
		t.Fatalf("Detect failed: %v", err)
	}
	if len(kept) != 1 || kept[0].RowNumber != 2 {
		t.Errorf("kept = %+v", kept)
	}
}

// TestDetectNameFallback verifies rows without a key match fall back to
// exact name comparison at confidence 90
func TestDetectNameFallback(t *testing.T) {
	store := &fakeProductStore{
		existing: []domain.Product{{ID: "p-1", SKU: "w-1", Name: "Widget"}},
	}
	d := NewDuplicateDetector(store, testLogger(), 0, 0)
	candidates := []Candidate{
		{RowNumber: 1, Name: "widget"},
		{RowNumber: 2, Name: "Gadget"},
	}

	_, matches, err := d.Detect(context.Background(), "t1", candidates, false)
	if err != nil {
		t.Fatalf("Detect failed: %v", err)
	}
	if len(matches) != 1 {
		t.Fatalf("expected 1 match, got %+v", matches)
	}
	m := matches[0]
	if m.SourceRowNumber != 1 || m.MatchType != MatchTypeName || m.Confidence != 90 {
		t.Errorf("match = %+v", m)
	}
}

// TestDetectKeyMatchExcludedFromNamePass verifies a key-matched row is
// not compared again by name
func TestDetectKeyMatchExcludedFromNamePass(t *testing.T) {
	store := &fakeProductStore{
		existing: []domain.Product{{ID: "p-1", SKU: "w-1", Name: "Widget"}},
	}
	d := NewDuplicateDetector(store, testLogger(), 0, 0)
	candidates := []Candidate{
		{RowNumber: 1, Name: "Widget", SKU: "W-1"},
	}

	_, matches, err := d.Detect(context.Background(), "t1", candidates, false)
	if err != nil {
		t.Fatalf("Detect failed: %v", err)
	}
	if len(matches) != 1 || matches[0].MatchType != MatchTypeKey {
		t.Errorf("matches = %+v", matches)
	}
	if len(store.nameCalls) != 0 {
		t.Errorf("name lookup should not run, got calls %v", store.nameCalls)
	}
}

// TestDetectChunkedKeyLookups verifies SKU lookups are chunked to the
// per-call bound but every SKU is still checked
func TestDetectChunkedKeyLookups(t *testing.T) {
	store := &fakeProductStore{}
	d := NewDuplicateDetector(store, testLogger(), 2, 0)
	candidates := []Candidate{
		{RowNumber: 1, SKU: "A", Name: "a"},
		{RowNumber: 2, SKU: "B", Name: "b"},
		{RowNumber: 3, SKU: "C", Name: "c"},
		{RowNumber: 4, SKU: "D", Name: "d"},
		{RowNumber: 5, SKU: "E", Name: "e"},
	}

	if _, _, err := d.Detect(context.Background(), "t1", candidates, false); err != nil {
		t.Fatalf("Detect failed: %v", err)
	}
	if len(store.skuCalls) != 3 {
		t.Fatalf("expected 3 chunked calls, got %d", len(store.skuCalls))
	}
	sizes := []int{len(store.skuCalls[0]), len(store.skuCalls[1]), len(store.skuCalls[2])}
	if sizes[0] != 2 || sizes[1] != 2 || sizes[2] != 1 {
		t.Errorf("chunk sizes = %v", sizes)
	}
}

// TestDetectNameSampleCap verifies the name pass only samples up to the
// configured bound
func TestDetectNameSampleCap(t *testing.T) {
	store := &fakeProductStore{}
	d := NewDuplicateDetector(store, testLogger(), 0, 2)
	candidates := []Candidate{
		{RowNumber: 1, Name: "a"},
		{RowNumber: 2, Name: "b"},
		{RowNumber: 3, Name: "c"},
		{RowNumber: 4, Name: "d"},
	}

	if _, _, err := d.Detect(context.Background(), "t1", candidates, false); err != nil {
		t.Fatalf("Detect failed: %v", err)
	}
	if len(store.nameCalls) != 1 {
		t.Fatalf("expected 1 name lookup, got %d", len(store.nameCalls))
	}
	if len(store.nameCalls[0]) != 2 {
		t.Errorf("sampled %d names, want 2", len(store.nameCalls[0]))
	}
}

// TestDetectStoreError verifies lookup failures propagate
func TestDetectStoreError(t *testing.T) {
	store := &fakeProductStore{failFindSKUs: true}
	d := NewDuplicateDetector(store, testLogger(), 0, 0)

	_, _, err := d.Detect(context.Background(), "t1", []Candidate{{RowNumber: 1, SKU: "A", Name: "a"}}, false)
	if err == nil {
		t.Error("expected error from failing store")
	}
}

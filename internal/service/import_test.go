package service

import (
	"context"
	"errors"
	"testing"

	"github.com/oskarh/feedgate/internal/catalog"
	"github.com/oskarh/feedgate/internal/domain"
	"github.com/oskarh/feedgate/internal/mapping"
)

func newTestService(products *fakeProductStore, jobs *fakeJobStore, cfg *ImportConfig) *ImportService {
	cat := catalog.Default()
	return NewImportService(products, jobs, cat, mapping.NewMapper(cat, nil), testLogger(), cfg)
}

// checkConservation asserts success + errors + skipped covers every row.
func checkConservation(t *testing.T, result *ImportResult) {
	t.Helper()
	sum := result.SuccessCount + result.ErrorCount + result.SkippedCount
	if sum != result.TotalRows {
		t.Errorf("counts do not cover input: %d success + %d errors + %d skipped != %d rows",
			result.SuccessCount, result.ErrorCount, result.SkippedCount, result.TotalRows)
	}
}

func rowsRequest(rows []map[string]string, opts ImportOptions) *ImportRequest {
	return &ImportRequest{
		Headers: []string{"Title", "Price", "SKU"},
		Rows:    rows,
		Options: opts,
	}
}

// TestRunHappyPath verifies a clean import succeeds end to end
func TestRunHappyPath(t *testing.T) {
	products := &fakeProductStore{}
	jobs := &fakeJobStore{}
	svc := newTestService(products, jobs, nil)

	result, err := svc.Run(context.Background(), "t1", rowsRequest([]map[string]string{
		{"Title": "Widget", "Price": "9,99", "SKU": "W-1"},
		{"Title": "Gadget", "Price": "19.90", "SKU": "G-2"},
		{"Title": "Doodad", "Price": "1.234,56", "SKU": "D-3"},
	}, ImportOptions{}))
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if !result.Success || result.SuccessCount != 3 || result.ErrorCount != 0 || result.SkippedCount != 0 {
		t.Errorf("result = %+v", result)
	}
	checkConservation(t, result)

	if len(products.inserted) != 3 {
		t.Fatalf("inserted %d products, want 3", len(products.inserted))
	}
	p := products.inserted[0]
	if p.TenantID != "t1" || p.Name != "Widget" || p.Price != 9.99 || p.Status != domain.ProductStatusDraft {
		t.Errorf("product = %+v", p)
	}
	if p.ID == "" {
		t.Error("product ID not assigned")
	}

	if jobs.created == nil || jobs.created.Status != domain.JobStatusPending {
		t.Errorf("job not created pending: %+v", jobs.created)
	}
	if !jobs.started || jobs.runningTotal != 3 {
		t.Errorf("job not marked running with totals: started=%v total=%d", jobs.started, jobs.runningTotal)
	}
	if jobs.finalized == nil || jobs.finalized.Status != domain.JobStatusCompleted {
		t.Fatalf("job not finalized completed: %+v", jobs.finalized)
	}
	if jobs.finalized.ProcessedItems != 3 || jobs.finalized.FailedItems != 0 {
		t.Errorf("finalized counters = %+v", jobs.finalized)
	}
	if result.JobID != jobs.created.ID {
		t.Errorf("result job ID %s != created %s", result.JobID, jobs.created.ID)
	}
}

// TestRunEmptyInput verifies the run aborts before creating a job
func TestRunEmptyInput(t *testing.T) {
	jobs := &fakeJobStore{}
	svc := newTestService(&fakeProductStore{}, jobs, nil)

	_, err := svc.Run(context.Background(), "t1", &ImportRequest{})
	var pre *PreconditionError
	if !errors.As(err, &pre) {
		t.Fatalf("expected PreconditionError, got %v", err)
	}
	if jobs.created != nil {
		t.Errorf("job should not be created for empty input: %+v", jobs.created)
	}
}

// TestRunMissingRequiredMapping verifies unmapped mandatory fields abort
// the run and fail the job
func TestRunMissingRequiredMapping(t *testing.T) {
	jobs := &fakeJobStore{}
	svc := newTestService(&fakeProductStore{}, jobs, nil)

	_, err := svc.Run(context.Background(), "t1", &ImportRequest{
		Headers: []string{"Title", "SKU"},
		Rows:    []map[string]string{{"Title": "Widget", "SKU": "W-1"}},
	})

	var pre *PreconditionError
	if !errors.As(err, &pre) {
		t.Fatalf("expected PreconditionError, got %v", err)
	}
	if len(pre.MissingFields) != 1 || pre.MissingFields[0] != catalog.FieldPrice {
		t.Errorf("missing fields = %v", pre.MissingFields)
	}
	if jobs.finalized == nil || jobs.finalized.Status != domain.JobStatusFailed {
		t.Errorf("job not failed: %+v", jobs.finalized)
	}
	if pre.JobID == "" || pre.JobID != jobs.created.ID {
		t.Errorf("precondition job ID = %q", pre.JobID)
	}
}

// TestRunBlockedRowsCounted verifies invalid rows are counted as errors
// while the rest import
func TestRunBlockedRowsCounted(t *testing.T) {
	products := &fakeProductStore{}
	jobs := &fakeJobStore{}
	svc := newTestService(products, jobs, nil)

	result, err := svc.Run(context.Background(), "t1", rowsRequest([]map[string]string{
		{"Title": "Widget", "Price": "9.99", "SKU": "W-1"},
		{"Title": "Broken", "Price": "call us", "SKU": "B-1"},
		{"Title": "", "Price": "5.00", "SKU": "N-1"},
	}, ImportOptions{}))
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if result.SuccessCount != 1 || result.ErrorCount != 2 {
		t.Errorf("result = %+v", result)
	}
	checkConservation(t, result)
	if len(result.Errors) != 2 {
		t.Errorf("reported errors = %+v", result.Errors)
	}
	if len(products.inserted) != 1 {
		t.Errorf("inserted %d products, want 1", len(products.inserted))
	}
	if jobs.finalized == nil || jobs.finalized.Status != domain.JobStatusCompleted {
		t.Errorf("job = %+v", jobs.finalized)
	}
}

// TestRunErrorReportCap verifies reported errors are capped while counts
// stay exact
func TestRunErrorReportCap(t *testing.T) {
	svc := newTestService(&fakeProductStore{}, &fakeJobStore{}, &ImportConfig{MaxReportedErrors: 2})

	rows := []map[string]string{
		{"Title": "", "Price": "1", "SKU": "1"},
		{"Title": "", "Price": "2", "SKU": "2"},
		{"Title": "", "Price": "3", "SKU": "3"},
		{"Title": "", "Price": "4", "SKU": "4"},
		{"Title": "ok", "Price": "5", "SKU": "5"},
	}

	result, err := svc.Run(context.Background(), "t1", rowsRequest(rows, ImportOptions{}))
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if result.ErrorCount != 4 {
		t.Errorf("error count = %d, want 4", result.ErrorCount)
	}
	if len(result.Errors) != 2 {
		t.Errorf("reported errors = %d, want cap 2", len(result.Errors))
	}
	checkConservation(t, result)
}

// TestRunSkipDuplicates verifies an all-duplicate feed skips every row
// and fails the job for lack of importable rows
func TestRunSkipDuplicates(t *testing.T) {
	products := &fakeProductStore{
		existing: []domain.Product{
			{ID: "p-1", SKU: "w-1", Name: "Widget"},
			{ID: "p-2", SKU: "g-2", Name: "Gadget"},
		},
	}
	jobs := &fakeJobStore{}
	svc := newTestService(products, jobs, nil)

	result, err := svc.Run(context.Background(), "t1", rowsRequest([]map[string]string{
		{"Title": "Widget", "Price": "9.99", "SKU": "W-1"},
		{"Title": "Gadget", "Price": "19.90", "SKU": "G-2"},
	}, ImportOptions{SkipDuplicates: true}))
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	if result.Success || result.SuccessCount != 0 || result.SkippedCount != 2 {
		t.Errorf("result = %+v", result)
	}
	checkConservation(t, result)
	if len(result.Duplicates) != 2 {
		t.Fatalf("duplicates = %+v", result.Duplicates)
	}
	for _, m := range result.Duplicates {
		if m.MatchType != MatchTypeKey || m.Confidence != 100 {
			t.Errorf("duplicate = %+v", m)
		}
	}
	if len(products.inserted) != 0 {
		t.Errorf("nothing should be inserted, got %d", len(products.inserted))
	}
	if jobs.finalized == nil || jobs.finalized.Status != domain.JobStatusFailed {
		t.Errorf("job = %+v", jobs.finalized)
	}
}

// TestRunUpdateExisting verifies key-matched rows update in place
func TestRunUpdateExisting(t *testing.T) {
	products := &fakeProductStore{
		existing: []domain.Product{{ID: "p-1", SKU: "w-1", Name: "Old Widget"}},
	}
	jobs := &fakeJobStore{}
	svc := newTestService(products, jobs, nil)

	result, err := svc.Run(context.Background(), "t1", rowsRequest([]map[string]string{
		{"Title": "New Widget", "Price": "9.99", "SKU": "W-1"},
		{"Title": "Gadget", "Price": "19.90", "SKU": "G-2"},
	}, ImportOptions{UpdateExisting: true}))
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if result.SuccessCount != 2 || result.SkippedCount != 0 {
		t.Errorf("result = %+v", result)
	}
	checkConservation(t, result)
	if len(products.updatedSKUs) != 1 || products.updatedSKUs[0] != "W-1" {
		t.Errorf("updated = %v", products.updatedSKUs)
	}
	if len(products.inserted) != 1 || products.inserted[0].SKU != "G-2" {
		t.Errorf("inserted = %+v", products.inserted)
	}
}

// TestRunChunkFailures verifies a rejected chunk fails only its own rows
// and the job completes with errors
func TestRunChunkFailures(t *testing.T) {
	products := &fakeProductStore{failInsertCall: map[int]bool{2: true}}
	jobs := &fakeJobStore{}
	svc := newTestService(products, jobs, nil)

	rows := []map[string]string{
		{"Title": "A", "Price": "1", "SKU": "A-1"},
		{"Title": "B", "Price": "2", "SKU": "B-1"},
		{"Title": "C", "Price": "3", "SKU": "C-1"},
		{"Title": "D", "Price": "4", "SKU": "D-1"},
		{"Title": "E", "Price": "5", "SKU": "E-1"},
		{"Title": "F", "Price": "6", "SKU": "F-1"},
	}

	result, err := svc.Run(context.Background(), "t1", rowsRequest(rows, ImportOptions{BatchSize: 2}))
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if result.SuccessCount != 4 || result.ErrorCount != 2 {
		t.Errorf("result = %+v", result)
	}
	checkConservation(t, result)

	if jobs.finalized == nil || jobs.finalized.Status != domain.JobStatusCompletedWithErrors {
		t.Fatalf("job = %+v", jobs.finalized)
	}
	if jobs.finalized.FailedItems != 2 || jobs.finalized.ProcessedItems != 6 {
		t.Errorf("finalized counters = %+v", jobs.finalized)
	}

	// Progress is persisted after every chunk and never decreases.
	if len(jobs.progress) != 3 {
		t.Fatalf("progress updates = %+v", jobs.progress)
	}
	wantPercents := []int{33, 67, 100}
	prev := -1
	for i, u := range jobs.progress {
		if u.percent != wantPercents[i] {
			t.Errorf("progress[%d] = %d%%, want %d%%", i, u.percent, wantPercents[i])
		}
		if u.processed <= prev {
			t.Errorf("processed not monotonic: %+v", jobs.progress)
		}
		prev = u.processed
	}
}

// TestRunAllChunksFail verifies a fully failed write phase marks the job failed
func TestRunAllChunksFail(t *testing.T) {
	products := &fakeProductStore{failInsertCall: map[int]bool{1: true}}
	jobs := &fakeJobStore{}
	svc := newTestService(products, jobs, nil)

	result, err := svc.Run(context.Background(), "t1", rowsRequest([]map[string]string{
		{"Title": "A", "Price": "1", "SKU": "A-1"},
		{"Title": "B", "Price": "2", "SKU": "B-1"},
	}, ImportOptions{}))
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if result.Success || result.SuccessCount != 0 || result.ErrorCount != 2 {
		t.Errorf("result = %+v", result)
	}
	checkConservation(t, result)
	if jobs.finalized == nil || jobs.finalized.Status != domain.JobStatusFailed {
		t.Errorf("job = %+v", jobs.finalized)
	}
}

// TestRunCancellation verifies a cancelled context stops before writes
// and the remaining rows are counted as failed
func TestRunCancellation(t *testing.T) {
	products := &fakeProductStore{}
	jobs := &fakeJobStore{}
	svc := newTestService(products, jobs, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := svc.Run(ctx, "t1", rowsRequest([]map[string]string{
		{"Title": "A", "Price": "1", "SKU": "A-1"},
		{"Title": "B", "Price": "2", "SKU": "B-1"},
	}, ImportOptions{}))
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if result.SuccessCount != 0 || result.ErrorCount != 2 {
		t.Errorf("result = %+v", result)
	}
	checkConservation(t, result)
	if len(products.inserted) != 0 {
		t.Errorf("no writes expected after cancellation, got %d", len(products.inserted))
	}
	if jobs.finalized == nil || jobs.finalized.Status != domain.JobStatusFailed {
		t.Errorf("job = %+v", jobs.finalized)
	}
}

// TestRunDetectorError verifies a failing duplicate lookup aborts the
// run with a failed job
func TestRunDetectorError(t *testing.T) {
	products := &fakeProductStore{failFindSKUs: true}
	jobs := &fakeJobStore{}
	svc := newTestService(products, jobs, nil)

	_, err := svc.Run(context.Background(), "t1", rowsRequest([]map[string]string{
		{"Title": "A", "Price": "1", "SKU": "A-1"},
	}, ImportOptions{}))

	var pre *PreconditionError
	if !errors.As(err, &pre) {
		t.Fatalf("expected PreconditionError, got %v", err)
	}
	if jobs.finalized == nil || jobs.finalized.Status != domain.JobStatusFailed {
		t.Errorf("job = %+v", jobs.finalized)
	}
}

// TestRunRawText verifies delimited text input is decoded and auto-mapped
func TestRunRawText(t *testing.T) {
	products := &fakeProductStore{}
	jobs := &fakeJobStore{}
	svc := newTestService(products, jobs, nil)

	result, err := svc.Run(context.Background(), "t1", &ImportRequest{
		RawText: "Product Title;Unit Price;Variant SKU\nWidget;9,99;W-1\nGadget;19,90;G-2\n",
	})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if result.SuccessCount != 2 {
		t.Errorf("result = %+v", result)
	}
	checkConservation(t, result)
	if len(products.inserted) != 2 || products.inserted[0].Price != 9.99 {
		t.Errorf("inserted = %+v", products.inserted)
	}
	if len(result.Mapping) != 3 {
		t.Errorf("mapping = %+v", result.Mapping)
	}
}

// TestPreviewMapping verifies the preview runs without any store access
func TestPreviewMapping(t *testing.T) {
	products := &fakeProductStore{}
	svc := newTestService(products, &fakeJobStore{}, nil)

	res, missing := svc.PreviewMapping([]string{"Title", "Internal Notes"}, nil)
	if len(res.Mappings) != 1 || res.Mappings[0].CanonicalField != catalog.FieldName {
		t.Errorf("mappings = %+v", res.Mappings)
	}
	if len(res.Unmatched) != 1 {
		t.Errorf("unmatched = %v", res.Unmatched)
	}
	if len(missing) != 1 || missing[0] != catalog.FieldPrice {
		t.Errorf("missing = %v", missing)
	}
	if len(products.skuCalls)+len(products.nameCalls) != 0 {
		t.Error("preview must not touch the store")
	}
}

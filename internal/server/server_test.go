package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/prad18/fork/constants"
	"github.com/prad18/fork/internal/async"
	"github.com/prad18/fork/internal/carbon"
	"github.com/prad18/fork/internal/common"
	"github.com/prad18/fork/internal/entity"
	"github.com/prad18/fork/internal/export"
	"github.com/prad18/fork/internal/parser"
	"github.com/prad18/fork/internal/recommend"
	"github.com/prad18/fork/internal/repository"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

type memStore struct {
	invoices map[uuid.UUID]entity.Invoice
	items    map[uuid.UUID][]entity.LineItem
	records  map[uuid.UUID][]entity.EmissionRecord

	completedRecentArgs []int
}

func newMemStore() *memStore {
	return &memStore{
		invoices: map[uuid.UUID]entity.Invoice{},
		items:    map[uuid.UUID][]entity.LineItem{},
		records:  map[uuid.UUID][]entity.EmissionRecord{},
	}
}

func (m *memStore) CreateUpload(_ context.Context, filename, _ string) (entity.Invoice, error) {
	inv := entity.Invoice{
		ID:         uuid.New(),
		Filename:   filename,
		Status:     constants.StatusPending,
		UploadedAt: time.Now().UTC(),
	}
	m.invoices[inv.ID] = inv
	return inv, nil
}

func (m *memStore) Get(_ context.Context, id uuid.UUID) (entity.Invoice, error) {
	inv, ok := m.invoices[id]
	if !ok {
		return entity.Invoice{}, common.ErrNotFound
	}
	return inv, nil
}

func (m *memStore) Items(_ context.Context, id uuid.UUID) ([]entity.LineItem, []entity.EmissionRecord, error) {
	return m.items[id], m.records[id], nil
}

func (m *memStore) List(_ context.Context, limit, _ int) ([]entity.Invoice, error) {
	out := make([]entity.Invoice, 0, len(m.invoices))
	for _, inv := range m.invoices {
		out = append(out, inv)
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memStore) CountByStatus(context.Context) (repository.DashboardCounts, error) {
	var c repository.DashboardCounts
	for _, inv := range m.invoices {
		c.Total++
		switch inv.Status {
		case constants.StatusPending:
			c.Pending++
		case constants.StatusProcessing:
			c.Processing++
		case constants.StatusCompleted:
			c.Completed++
		case constants.StatusFailed:
			c.Failed++
		}
	}
	return c, nil
}

func (m *memStore) CompletedItems(_ context.Context, recent int) ([]entity.LineItem, error) {
	m.completedRecentArgs = append(m.completedRecentArgs, recent)
	var out []entity.LineItem
	for id, inv := range m.invoices {
		if inv.Status == constants.StatusCompleted {
			out = append(out, m.items[id]...)
		}
	}
	return out, nil
}

type recordingQueue struct {
	jobs []async.Job
	err  error
}

func (q *recordingQueue) Enqueue(_ context.Context, job async.Job) error {
	if q.err != nil {
		return q.err
	}
	q.jobs = append(q.jobs, job)
	return nil
}

func (q *recordingQueue) Shutdown(context.Context) {}

func newTestServer(t *testing.T, store *memStore, queue *recordingQueue, ping Pinger) *Server {
	t.Helper()
	table, err := carbon.DefaultFactors()
	if err != nil {
		t.Fatalf("DefaultFactors: %v", err)
	}
	calc := carbon.NewCalculator(table, nil)
	engine := recommend.NewEngine(table, 0.10, nil)
	exporter := export.NewService(store, nil)
	return NewServer(store, queue, parser.NewPatternParser(nil), calc, engine, exporter, ping, t.TempDir(), nil)
}

func multipartBody(t *testing.T, field, filename string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	fw, err := w.CreateFormFile(field, filename)
	if err != nil {
		t.Fatalf("CreateFormFile: %v", err)
	}
	if _, err := fw.Write(content); err != nil {
		t.Fatalf("write part: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	return &buf, w.FormDataContentType()
}

func TestUploadInvoice(t *testing.T) {
	store := newMemStore()
	queue := &recordingQueue{}
	ts := httptest.NewServer(newTestServer(t, store, queue, nil).Router())
	defer ts.Close()

	body, contentType := multipartBody(t, "file", "june.pdf", []byte("%PDF-1.4 fake"))
	resp, err := http.Post(ts.URL+"/api/v1/invoices", contentType, body)
	if err != nil {
		t.Fatalf("POST: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("status = %d, want 202", resp.StatusCode)
	}
	var out struct {
		ID       uuid.UUID `json:"id"`
		Filename string    `json:"filename"`
		Status   string    `json:"status"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.Filename != "june.pdf" || out.Status != "pending" {
		t.Errorf("response = %+v", out)
	}
	if len(queue.jobs) != 1 || queue.jobs[0].InvoiceID != out.ID {
		t.Errorf("queue jobs = %+v", queue.jobs)
	}
}

func TestUploadRejectsUnsupportedExtension(t *testing.T) {
	ts := httptest.NewServer(newTestServer(t, newMemStore(), &recordingQueue{}, nil).Router())
	defer ts.Close()

	body, contentType := multipartBody(t, "file", "june.docx", []byte("not a pdf"))
	resp, err := http.Post(ts.URL+"/api/v1/invoices", contentType, body)
	if err != nil {
		t.Fatalf("POST: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusUnsupportedMediaType {
		t.Errorf("status = %d, want 415", resp.StatusCode)
	}
}

func TestUploadRequiresFileField(t *testing.T) {
	ts := httptest.NewServer(newTestServer(t, newMemStore(), &recordingQueue{}, nil).Router())
	defer ts.Close()

	body, contentType := multipartBody(t, "document", "june.pdf", []byte("x"))
	resp, err := http.Post(ts.URL+"/api/v1/invoices", contentType, body)
	if err != nil {
		t.Fatalf("POST: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}

func TestGetInvoiceWithEmissions(t *testing.T) {
	store := newMemStore()
	id := uuid.New()
	price := 8.50
	store.invoices[id] = entity.Invoice{ID: id, Filename: "june.pdf", Status: constants.StatusCompleted}
	store.items[id] = []entity.LineItem{
		{RawName: "Ground Beef", NormalizedName: "ground beef", Quantity: 10, Unit: constants.UnitLB, UnitPrice: &price, Category: constants.Protein},
	}
	store.records[id] = []entity.EmissionRecord{
		{ItemName: "Ground Beef", Category: constants.Protein, Scope: constants.Scope3, CO2eKg: 272.16, KgOrLiters: 4.536, FactorKgCO2e: 60.0, Impact: constants.ImpactHigh},
	}

	ts := httptest.NewServer(newTestServer(t, store, &recordingQueue{}, nil).Router())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/api/v1/invoices/" + id.String())
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	var out struct {
		Items           []entity.LineItem       `json:"items"`
		Emissions       []entity.EmissionRecord `json:"emissions"`
		Summary         entity.EmissionsSummary `json:"summary"`
		Recommendations []entity.Recommendation `json:"recommendations"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(out.Items) != 1 || len(out.Emissions) != 1 {
		t.Fatalf("items = %d, emissions = %d", len(out.Items), len(out.Emissions))
	}
	if out.Summary.TotalCO2eKg <= 0 {
		t.Errorf("summary = %+v", out.Summary)
	}
	if len(out.Recommendations) == 0 {
		t.Error("want at least one recommendation for a beef-heavy invoice")
	}
}

func TestGetInvoiceNotFound(t *testing.T) {
	ts := httptest.NewServer(newTestServer(t, newMemStore(), &recordingQueue{}, nil).Router())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/api/v1/invoices/" + uuid.New().String())
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", resp.StatusCode)
	}
}

func TestGetInvoiceBadID(t *testing.T) {
	ts := httptest.NewServer(newTestServer(t, newMemStore(), &recordingQueue{}, nil).Router())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/api/v1/invoices/not-a-uuid")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}

func TestReprocessQueuesForceJob(t *testing.T) {
	store := newMemStore()
	id := uuid.New()
	store.invoices[id] = entity.Invoice{ID: id, Status: constants.StatusCompleted}
	queue := &recordingQueue{}

	ts := httptest.NewServer(newTestServer(t, store, queue, nil).Router())
	defer ts.Close()

	resp, err := http.Post(ts.URL+"/api/v1/invoices/"+id.String()+"/reprocess", "application/json", nil)
	if err != nil {
		t.Fatalf("POST: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("status = %d, want 202", resp.StatusCode)
	}
	if len(queue.jobs) != 1 || !queue.jobs[0].Force {
		t.Errorf("queue jobs = %+v, want one force job", queue.jobs)
	}
}

func TestReprocessConflictsWhileProcessing(t *testing.T) {
	store := newMemStore()
	id := uuid.New()
	store.invoices[id] = entity.Invoice{ID: id, Status: constants.StatusProcessing}

	ts := httptest.NewServer(newTestServer(t, store, &recordingQueue{}, nil).Router())
	defer ts.Close()

	resp, err := http.Post(ts.URL+"/api/v1/invoices/"+id.String()+"/reprocess", "application/json", nil)
	if err != nil {
		t.Fatalf("POST: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusConflict {
		t.Errorf("status = %d, want 409", resp.StatusCode)
	}
}

func TestParseTextDiagnostic(t *testing.T) {
	ts := httptest.NewServer(newTestServer(t, newMemStore(), &recordingQueue{}, nil).Router())
	defer ts.Close()

	payload := map[string]string{
		"text": "FRESH FARMS COMPANY\n10 lb Ground Beef $8.50\nTOTAL: $85.00",
	}
	raw, _ := json.Marshal(payload)
	resp, err := http.Post(ts.URL+"/api/v1/parse/text", "application/json", bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("POST: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		t.Fatalf("status = %d, body = %s", resp.StatusCode, b)
	}

	var out struct {
		Parsed    entity.ParsedInvoice    `json:"parsed"`
		Emissions []entity.EmissionRecord `json:"emissions"`
		Summary   entity.EmissionsSummary `json:"summary"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(out.Parsed.Items) != 1 {
		t.Fatalf("items = %d, want 1", len(out.Parsed.Items))
	}
	if out.Summary.TotalCO2eKg <= 0 {
		t.Errorf("summary = %+v", out.Summary)
	}
}

func TestParseTextRejectsBlank(t *testing.T) {
	ts := httptest.NewServer(newTestServer(t, newMemStore(), &recordingQueue{}, nil).Router())
	defer ts.Close()

	resp, err := http.Post(ts.URL+"/api/v1/parse/text", "application/json", bytes.NewReader([]byte(`{"text":"   "}`)))
	if err != nil {
		t.Fatalf("POST: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}

func TestDashboardAggregatesCompleted(t *testing.T) {
	store := newMemStore()
	done := uuid.New()
	price := 8.50
	store.invoices[done] = entity.Invoice{ID: done, Status: constants.StatusCompleted}
	store.items[done] = []entity.LineItem{
		{RawName: "Ground Beef", NormalizedName: "ground beef", Quantity: 10, Unit: constants.UnitLB, UnitPrice: &price, Category: constants.Protein},
	}
	pending := uuid.New()
	store.invoices[pending] = entity.Invoice{ID: pending, Status: constants.StatusPending}

	ts := httptest.NewServer(newTestServer(t, store, &recordingQueue{}, nil).Router())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/api/v1/dashboard")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	var out struct {
		Invoices struct {
			Total     int64 `json:"total"`
			Pending   int64 `json:"pending"`
			Completed int64 `json:"completed"`
		} `json:"invoices"`
		Summary entity.EmissionsSummary `json:"summary"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.Invoices.Total != 2 || out.Invoices.Completed != 1 || out.Invoices.Pending != 1 {
		t.Errorf("counts = %+v", out.Invoices)
	}
	if out.Summary.TotalCO2eKg <= 0 {
		t.Errorf("summary = %+v", out.Summary)
	}
}

func TestDashboardSummaryCoversAllCompleted(t *testing.T) {
	store := newMemStore()
	price := 8.50
	for i := 0; i < 3; i++ {
		id := uuid.New()
		store.invoices[id] = entity.Invoice{ID: id, Status: constants.StatusCompleted}
		store.items[id] = []entity.LineItem{
			{RawName: "Ground Beef", NormalizedName: "ground beef", Quantity: 1, Unit: constants.UnitKG, UnitPrice: &price, Category: constants.Protein},
		}
	}

	ts := httptest.NewServer(newTestServer(t, store, &recordingQueue{}, nil).Router())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/api/v1/dashboard?recent=1")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	var out struct {
		Summary entity.EmissionsSummary `json:"summary"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	// recent only sizes the metadata list; the summary spans every completed item
	if out.Summary.ItemCount != 3 {
		t.Errorf("summary item count = %d, want 3", out.Summary.ItemCount)
	}
	if got := store.completedRecentArgs; len(got) != 1 || got[0] != 0 {
		t.Errorf("CompletedItems called with %v, want one unlimited (0) call", got)
	}
}

func TestExportEndpointReturnsWorkbook(t *testing.T) {
	store := newMemStore()
	id := uuid.New()
	store.invoices[id] = entity.Invoice{ID: id, Filename: "june.pdf", Status: constants.StatusCompleted}
	store.items[id] = []entity.LineItem{
		{RawName: "Whole Milk", Quantity: 4, Unit: constants.UnitGal, Category: constants.Dairy},
	}

	ts := httptest.NewServer(newTestServer(t, store, &recordingQueue{}, nil).Router())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/api/v1/invoices/" + id.String() + "/export")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet" {
		t.Errorf("content type = %q", ct)
	}
	body, _ := io.ReadAll(resp.Body)
	// XLSX is a zip container
	if len(body) < 4 || body[0] != 'P' || body[1] != 'K' {
		t.Errorf("body does not look like a zip archive (%d bytes)", len(body))
	}
}

func TestHealthz(t *testing.T) {
	healthy := func(context.Context) error { return nil }
	ts := httptest.NewServer(newTestServer(t, newMemStore(), &recordingQueue{}, healthy).Router())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/healthz")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}

	down := func(context.Context) error { return errors.New("db unreachable") }
	ts2 := httptest.NewServer(newTestServer(t, newMemStore(), &recordingQueue{}, down).Router())
	defer ts2.Close()

	resp2, err := http.Get(ts2.URL + "/healthz")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	resp2.Body.Close()
	if resp2.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", resp2.StatusCode)
	}
}

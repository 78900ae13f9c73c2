package server

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/iwvelando/debt-engine/internal/cache"
	"github.com/iwvelando/debt-engine/pkg/constants"
	"go.uber.org/zap"
)

var fixedNow = func() time.Time { return time.Date(2025, time.June, 1, 9, 30, 0, 0, time.UTC) }

func newTestHandler(opts ...Option) http.Handler {
	opts = append([]Option{WithClock(fixedNow)}, opts...)
	return NewHandler(zap.NewNop(), constants.DefaultMaxUploadSizeBytes, "test", opts...)
}

func postJSON(t *testing.T, handler http.Handler, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	return rr
}

func decodeBody(t *testing.T, rr *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.Unmarshal(rr.Body.Bytes(), v); err != nil {
		t.Fatalf("failed to decode response: %v\n%s", err, rr.Body.String())
	}
}

func TestHandleEMI(t *testing.T) {
	handler := newTestHandler()
	rr := postJSON(t, handler, "/api/emi", `{"principal":100000,"annualInterestRate":10,"tenureMonths":60}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var resp emiResponse
	decodeBody(t, rr, &resp)
	if resp.EMI != 2124.70 {
		t.Errorf("EMI = %.2f, expected 2124.70", resp.EMI)
	}
	if diff := resp.TotalPayment - resp.TotalInterest; diff < 99999.98 || diff > 100000.02 {
		t.Errorf("TotalPayment - TotalInterest = %.2f, expected the principal", diff)
	}
}

func TestHandleEMIErrors(t *testing.T) {
	handler := newTestHandler()
	tests := []struct {
		name   string
		body   string
		status int
	}{
		{"Zero principal", `{"principal":0,"annualInterestRate":10,"tenureMonths":60}`, http.StatusBadRequest},
		{"Negative rate", `{"principal":1000,"annualInterestRate":-1,"tenureMonths":12}`, http.StatusBadRequest},
		{"Unknown field", `{"principal":1000,"rate":10,"tenureMonths":12}`, http.StatusBadRequest},
		{"Malformed JSON", `{"principal":`, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := postJSON(t, handler, "/api/emi", tt.body)
			if rr.Code != tt.status {
				t.Fatalf("expected status %d, got %d: %s", tt.status, rr.Code, rr.Body.String())
			}
			var resp map[string]string
			decodeBody(t, rr, &resp)
			if resp["error"] == "" {
				t.Error("expected an error message")
			}
		})
	}
}

func TestMethodNotAllowed(t *testing.T) {
	handler := newTestHandler()
	for _, path := range []string{"/api/emi", "/api/payoff", "/api/analysis"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		if rr.Code != http.StatusMethodNotAllowed {
			t.Errorf("GET %s: expected 405, got %d", path, rr.Code)
		}
	}

	req := httptest.NewRequest(http.MethodPost, "/api/version", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusMethodNotAllowed {
		t.Errorf("POST /api/version: expected 405, got %d", rr.Code)
	}
}

func TestRequestBodyTooLarge(t *testing.T) {
	handler := NewHandler(zap.NewNop(), 16, "test")
	rr := postJSON(t, handler, "/api/emi", `{"principal":100000,"annualInterestRate":10,"tenureMonths":60}`)
	if rr.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected status 413, got %d: %s", rr.Code, rr.Body.String())
	}
}

func TestHandleAmortization(t *testing.T) {
	handler := newTestHandler()
	rr := postJSON(t, handler, "/api/amortization",
		`{"principal":100000,"annualInterestRate":10,"tenureMonths":60,"startDate":"2024-01-15"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var resp amortizationResponse
	decodeBody(t, rr, &resp)
	if len(resp.Entries) != 60 {
		t.Fatalf("expected 60 entries, got %d", len(resp.Entries))
	}
	if resp.Summary.Instalments != 60 {
		t.Errorf("Summary.Instalments = %d, expected 60", resp.Summary.Instalments)
	}
	if last := resp.Entries[len(resp.Entries)-1]; last.ClosingBalance != 0 {
		t.Errorf("final closing balance = %.2f, expected 0", last.ClosingBalance)
	}
	if first := resp.Entries[0]; first.Date.Day() != 15 {
		t.Errorf("first entry dated %s, expected the 15th", first.Date.Format(constants.DateLayout))
	}
}

func TestHandleAmortizationNonAmortizing(t *testing.T) {
	handler := newTestHandler()
	// 1000 of interest accrues on the first month at 12%.
	rr := postJSON(t, handler, "/api/amortization",
		`{"principal":100000,"annualInterestRate":12,"tenureMonths":60,"emi":900}`)
	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected status 422, got %d: %s", rr.Code, rr.Body.String())
	}
}

func TestHandleAmortizationExport(t *testing.T) {
	handler := newTestHandler()
	body := `{"name":"Car","principal":100000,"annualInterestRate":10,"tenureMonths":12,"startDate":"2024-01-15"}`

	tests := []struct {
		format      string
		contentType string
		prefix      []byte
	}{
		{"xlsx", exportContentTypes["xlsx"], []byte("PK")},
		{"pdf", "application/pdf", []byte("%PDF-")},
	}

	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			rr := postJSON(t, handler, "/api/amortization?format="+tt.format, body)
			if rr.Code != http.StatusOK {
				t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
			}
			if got := rr.Header().Get("Content-Type"); got != tt.contentType {
				t.Errorf("Content-Type = %q, expected %q", got, tt.contentType)
			}
			if !strings.Contains(rr.Header().Get("Content-Disposition"), "schedule."+tt.format) {
				t.Errorf("unexpected Content-Disposition %q", rr.Header().Get("Content-Disposition"))
			}
			if !bytes.HasPrefix(rr.Body.Bytes(), tt.prefix) {
				t.Errorf("body does not start with %q", tt.prefix)
			}
		})
	}

	rr := postJSON(t, handler, "/api/amortization?format=docx", body)
	if rr.Code != http.StatusBadRequest {
		t.Errorf("expected status 400 for unsupported format, got %d", rr.Code)
	}
}

func TestHandlePrepayment(t *testing.T) {
	handler := newTestHandler()
	rr := postJSON(t, handler, "/api/prepayment",
		`{"outstandingBalance":100000,"annualInterestRate":10,"remainingTenureMonths":60,"prepayment":20000,"mode":"reduce_tenure"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var resp prepaymentResponse
	decodeBody(t, rr, &resp)
	if resp.MonthsSaved <= 0 {
		t.Errorf("MonthsSaved = %d, expected a shorter tenure", resp.MonthsSaved)
	}
	if resp.InterestSaved <= 0 {
		t.Errorf("InterestSaved = %.2f, expected positive", resp.InterestSaved)
	}
	if resp.Summary == "" {
		t.Error("expected a summary")
	}

	rr = postJSON(t, handler, "/api/prepayment",
		`{"outstandingBalance":100000,"annualInterestRate":10,"remainingTenureMonths":60,"prepayment":150000}`)
	if rr.Code != http.StatusBadRequest {
		t.Errorf("expected status 400 for an oversized prepayment, got %d", rr.Code)
	}
}

func TestHandleCreditCard(t *testing.T) {
	handler := newTestHandler()
	rr := postJSON(t, handler, "/api/creditcard",
		`{"name":"Rewards","creditLimit":100000,"currentOutstanding":50000,"interestRateApr":36}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var resp creditCardResponse
	decodeBody(t, rr, &resp)
	if resp.Utilization != 50 {
		t.Errorf("Utilization = %.2f, expected 50", resp.Utilization)
	}
	if resp.MinimumDue != 2500 {
		t.Errorf("MinimumDue = %.2f, expected 2500", resp.MinimumDue)
	}
	if resp.PeriodicInterest != 1479 {
		t.Errorf("PeriodicInterest = %.2f, expected 1479", resp.PeriodicInterest)
	}
	if !resp.HighUtilization {
		t.Error("expected high utilization")
	}

	rr = postJSON(t, handler, "/api/creditcard", `{"creditLimit":0}`)
	if rr.Code != http.StatusBadRequest {
		t.Errorf("expected status 400 for a zero limit, got %d", rr.Code)
	}
}

func TestHandleDTI(t *testing.T) {
	handler := newTestHandler()
	tests := []struct {
		name    string
		body    string
		ratio   float64
		label   string
		warning bool
	}{
		{"Fair", `{"monthlyDebt":20000,"monthlyIncome":50000}`, 40, "Fair", false},
		{"Excellent", `{"monthlyDebt":5000,"monthlyIncome":50000}`, 10, "Excellent", false},
		{"No income", `{"monthlyDebt":5000,"monthlyIncome":0}`, 0, "Excellent", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := postJSON(t, handler, "/api/dti", tt.body)
			if rr.Code != http.StatusOK {
				t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
			}
			var resp struct {
				Ratio float64 `json:"ratio"`
				Band  struct {
					Label    string `json:"label"`
					Severity string `json:"severity"`
				} `json:"band"`
				Warning string `json:"warning"`
			}
			decodeBody(t, rr, &resp)
			if resp.Ratio != tt.ratio {
				t.Errorf("Ratio = %.2f, expected %.2f", resp.Ratio, tt.ratio)
			}
			if resp.Band.Label != tt.label {
				t.Errorf("Band = %s, expected %s", resp.Band.Label, tt.label)
			}
			if (resp.Warning != "") != tt.warning {
				t.Errorf("Warning = %q, expected warning: %v", resp.Warning, tt.warning)
			}
		})
	}

	rr := postJSON(t, handler, "/api/dti", `{"monthlyDebt":-1,"monthlyIncome":50000}`)
	if rr.Code != http.StatusBadRequest {
		t.Errorf("expected status 400 for negative debt, got %d", rr.Code)
	}
}

const payoffDebts = `[
	{"name":"Loan","balance":50000,"interestRate":10,"minPayment":1000},
	{"name":"Card","balance":10000,"interestRate":36,"minPayment":500}
]`

func TestHandlePayoff(t *testing.T) {
	handler := newTestHandler()
	rr := postJSON(t, handler, "/api/payoff",
		`{"debts":`+payoffDebts+`,"monthlyBudget":5000,"ordering":"avalanche","startDate":"2025-01-01"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var resp payoffResponse
	decodeBody(t, rr, &resp)
	if resp.Strategy == nil {
		t.Fatal("expected a strategy")
	}
	if resp.CapReached || resp.Warning != "" {
		t.Errorf("unexpected cap: %v %q", resp.CapReached, resp.Warning)
	}
	if resp.Debts[0].Name != "Card" {
		t.Errorf("first debt = %s, expected Card", resp.Debts[0].Name)
	}
	if resp.Months <= 0 || resp.Months > 24 {
		t.Errorf("Months = %d, expected a payoff within two years", resp.Months)
	}
}

func TestHandlePayoffCapReached(t *testing.T) {
	handler := newTestHandler()
	rr := postJSON(t, handler, "/api/payoff",
		`{"debts":`+payoffDebts+`,"monthlyBudget":1600,"ordering":"snowball","maxMonths":6}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var resp payoffResponse
	decodeBody(t, rr, &resp)
	if !resp.CapReached {
		t.Error("expected capReached")
	}
	if resp.Months != 6 {
		t.Errorf("Months = %d, expected 6", resp.Months)
	}
	if resp.Warning == "" {
		t.Error("expected a cap warning")
	}
}

func TestHandlePayoffErrors(t *testing.T) {
	handler := newTestHandler()
	tests := []struct {
		name string
		body string
	}{
		{"No debts", `{"debts":[],"monthlyBudget":1000}`},
		{"Zero budget", `{"debts":` + payoffDebts + `,"monthlyBudget":0}`},
		{"Unknown ordering", `{"debts":` + payoffDebts + `,"monthlyBudget":5000,"ordering":"random"}`},
		{"Bad start date", `{"debts":` + payoffDebts + `,"monthlyBudget":5000,"startDate":"01/01/2025"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := postJSON(t, handler, "/api/payoff", tt.body)
			if rr.Code != http.StatusBadRequest {
				t.Fatalf("expected status 400, got %d: %s", rr.Code, rr.Body.String())
			}
		})
	}
}

func TestHandlePayoffCompare(t *testing.T) {
	handler := newTestHandler()
	rr := postJSON(t, handler, "/api/payoff/compare",
		`{"debts":`+payoffDebts+`,"monthlyBudget":5000,"startDate":"2025-01-01"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var resp compareResponse
	decodeBody(t, rr, &resp)
	if resp.Comparison == nil || resp.Snowball == nil || resp.Avalanche == nil {
		t.Fatal("expected both strategies")
	}
	// The card is both the smallest and the dearest debt, so the orderings agree.
	if resp.Recommended != "snowball" {
		t.Errorf("Recommended = %s, expected snowball on a tie", resp.Recommended)
	}
	if resp.MonthsSaved != 0 {
		t.Errorf("MonthsSaved = %d, expected 0", resp.MonthsSaved)
	}
}

func TestResponseCache(t *testing.T) {
	responseCache := cache.NewMemoryCache()
	handler := newTestHandler(WithCache(responseCache, time.Minute))
	body := `{"principal":100000,"annualInterestRate":10,"tenureMonths":60}`

	first := postJSON(t, handler, "/api/emi", body)
	if got := first.Header().Get(CacheHeader); got != "miss" {
		t.Fatalf("first %s = %q, expected miss", CacheHeader, got)
	}
	second := postJSON(t, handler, "/api/emi", body)
	if got := second.Header().Get(CacheHeader); got != "hit" {
		t.Fatalf("second %s = %q, expected hit", CacheHeader, got)
	}
	if first.Body.String() != second.Body.String() {
		t.Errorf("cached body differs:\n%s\n%s", first.Body.String(), second.Body.String())
	}

	postJSON(t, handler, "/api/emi", `{"principal":0,"annualInterestRate":10,"tenureMonths":60}`)
	if responseCache.Len() != 1 {
		t.Errorf("cache holds %d entries, expected only the successful response", responseCache.Len())
	}
}

func TestRequestID(t *testing.T) {
	handler := newTestHandler()

	rr := postJSON(t, handler, "/api/emi", `{"principal":1000,"annualInterestRate":0,"tenureMonths":10}`)
	if _, err := uuid.Parse(rr.Header().Get(RequestIDHeader)); err != nil {
		t.Errorf("expected a generated UUID request ID, got %q", rr.Header().Get(RequestIDHeader))
	}

	id := uuid.NewString()
	req := httptest.NewRequest(http.MethodGet, "/api/version", nil)
	req.Header.Set(RequestIDHeader, id)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if got := rec.Header().Get(RequestIDHeader); got != id {
		t.Errorf("request ID = %q, expected the caller's %q", got, id)
	}
}

func TestHandleVersion(t *testing.T) {
	tests := []struct {
		version  string
		expected string
	}{
		{"v1.2.3", "v1.2.3"},
		{"  ", "dev"},
	}

	for _, tt := range tests {
		handler := NewHandler(nil, 0, tt.version)
		req := httptest.NewRequest(http.MethodGet, "/api/version", nil)
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)

		var resp map[string]string
		decodeBody(t, rr, &resp)
		if resp["version"] != tt.expected {
			t.Errorf("version = %q, expected %q", resp["version"], tt.expected)
		}
	}
}

func TestMetricsEndpoint(t *testing.T) {
	handler := newTestHandler()
	postJSON(t, handler, "/api/emi", `{"principal":1000,"annualInterestRate":0,"tenureMonths":10}`)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "debt_engine_requests_total") {
		t.Error("expected request counter in metrics output")
	}
}

func uploadPortfolio(t *testing.T, handler http.Handler, data []byte) *httptest.ResponseRecorder {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	part, err := writer.CreateFormFile("file", "portfolio.yaml")
	if err != nil {
		t.Fatalf("failed to create form file: %v", err)
	}
	if _, err := part.Write(data); err != nil {
		t.Fatalf("failed to write form data: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("failed to close writer: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/analysis", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	return rr
}

func TestHandleAnalysisSuccess(t *testing.T) {
	data, err := os.ReadFile(filepath.Join("..", "config", "testdata", "portfolio.yaml"))
	if err != nil {
		t.Fatalf("failed to read test portfolio: %v", err)
	}

	rr := uploadPortfolio(t, newTestHandler(), data)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var resp struct {
		Analysis struct {
			Loans       []map[string]interface{} `json:"loans"`
			CreditCards []map[string]interface{} `json:"creditCards"`
			DTIBand     struct {
				Label string `json:"label"`
			} `json:"dtiBand"`
			Payoff map[string]interface{} `json:"payoff"`
		} `json:"analysis"`
		Duration   string                 `json:"duration"`
		Config     map[string]interface{} `json:"config"`
		ConfigYAML string                 `json:"configYaml"`
	}
	decodeBody(t, rr, &resp)

	if len(resp.Analysis.Loans) != 2 {
		t.Errorf("expected 2 loans, got %d", len(resp.Analysis.Loans))
	}
	if len(resp.Analysis.CreditCards) != 2 {
		t.Errorf("expected 2 credit cards, got %d", len(resp.Analysis.CreditCards))
	}
	if resp.Analysis.DTIBand.Label != "Good" {
		t.Errorf("DTI band = %s, expected Good", resp.Analysis.DTIBand.Label)
	}
	if resp.Analysis.Payoff == nil {
		t.Error("expected a payoff analysis")
	}
	if resp.Duration == "" {
		t.Error("expected duration in response")
	}
	if resp.Config == nil || resp.ConfigYAML == "" {
		t.Error("expected the uploaded config echoed back")
	}
}

func TestHandleAnalysisErrors(t *testing.T) {
	handler := newTestHandler()

	req := httptest.NewRequest(http.MethodPost, "/api/analysis", strings.NewReader("not multipart"))
	req.Header.Set("Content-Type", "text/plain")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusBadRequest {
		t.Errorf("expected status 400 without an upload, got %d", rr.Code)
	}

	rr = uploadPortfolio(t, handler, []byte("loans: [unclosed"))
	if rr.Code != http.StatusBadRequest {
		t.Errorf("expected status 400 for malformed YAML, got %d", rr.Code)
	}

	invalid := []byte(`asOf: "2025-06-01"
loans:
  - name: Broken
    principal: 0
    interestRate: 10
    term: 12
    startDate: "2025-01-01"
`)
	rr = uploadPortfolio(t, handler, invalid)
	if rr.Code != http.StatusBadRequest {
		t.Errorf("expected status 400 for an invalid loan, got %d: %s", rr.Code, rr.Body.String())
	}
}

func TestHandleAnalysisTooLarge(t *testing.T) {
	handler := NewHandler(zap.NewNop(), 64, "test")
	rr := uploadPortfolio(t, handler, bytes.Repeat([]byte("a"), 1024))
	if rr.Code != http.StatusRequestEntityTooLarge && rr.Code != http.StatusBadRequest {
		t.Fatalf("expected status 413 or 400, got %d", rr.Code)
	}
}

func TestDecodeYAMLToMap(t *testing.T) {
	result, err := decodeYAMLToMap([]byte("  \n"))
	if err != nil || len(result) != 0 {
		t.Fatalf("expected empty map for blank input, got %v, %v", result, err)
	}

	result, err = decodeYAMLToMap([]byte("income:\n  monthly: 50000\n"))
	if err != nil {
		t.Fatalf("decodeYAMLToMap() error = %v", err)
	}
	if _, ok := result["income"]; !ok {
		t.Error("expected income key")
	}
}

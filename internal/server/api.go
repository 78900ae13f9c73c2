package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/iwvelando/debt-engine/internal/cache"
	"github.com/iwvelando/debt-engine/internal/metrics"
	"github.com/iwvelando/debt-engine/pkg/calcerr"
	"github.com/iwvelando/debt-engine/pkg/constants"
	"github.com/iwvelando/debt-engine/pkg/creditcard"
	"github.com/iwvelando/debt-engine/pkg/datetime"
	"github.com/iwvelando/debt-engine/pkg/dti"
	"github.com/iwvelando/debt-engine/pkg/export"
	"github.com/iwvelando/debt-engine/pkg/loans"
	"github.com/iwvelando/debt-engine/pkg/mathutil"
	"github.com/iwvelando/debt-engine/pkg/payoff"
	"go.uber.org/zap"
)

// CacheHeader reports whether a response was served from the cache.
const CacheHeader = "X-Cache"

var exportContentTypes = map[string]string{
	export.FormatXLSX: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	export.FormatPDF:  "application/pdf",
}

type emiRequest struct {
	Principal          float64 `json:"principal"`
	AnnualInterestRate float64 `json:"annualInterestRate"`
	TenureMonths       int     `json:"tenureMonths"`
}

type emiResponse struct {
	EMI           float64 `json:"emi"`
	TotalInterest float64 `json:"totalInterest"`
	TotalPayment  float64 `json:"totalPayment"`
}

type amortizationRequest struct {
	Name               string  `json:"name"`
	Principal          float64 `json:"principal"`
	AnnualInterestRate float64 `json:"annualInterestRate"`
	TenureMonths       int     `json:"tenureMonths"`
	EMI                float64 `json:"emi"`
	StartDate          string  `json:"startDate"`
}

type amortizationResponse struct {
	EMI     float64                   `json:"emi"`
	Summary loans.ScheduleSummary     `json:"summary"`
	Entries []loans.AmortizationEntry `json:"entries"`
}

type prepaymentRequest struct {
	OutstandingBalance    float64 `json:"outstandingBalance"`
	AnnualInterestRate    float64 `json:"annualInterestRate"`
	RemainingTenureMonths int     `json:"remainingTenureMonths"`
	Prepayment            float64 `json:"prepayment"`
	Mode                  string  `json:"mode"`
}

type prepaymentResponse struct {
	loans.PrepaymentResult
	Summary string `json:"summary"`
}

type creditCardRequest struct {
	Name               string  `json:"name"`
	CreditLimit        float64 `json:"creditLimit"`
	CurrentOutstanding float64 `json:"currentOutstanding"`
	InterestRateAPR    float64 `json:"interestRateApr"`
	BillingCycleDate   int     `json:"billingCycleDate"`
	PaymentDueDate     int     `json:"paymentDueDate"`
	MinimumDuePercent  float64 `json:"minimumDuePercent"`
	BillingDays        int     `json:"billingDays"`
}

type creditCardResponse struct {
	Name             string  `json:"name,omitempty"`
	Utilization      float64 `json:"utilization"`
	AvailableLimit   float64 `json:"availableLimit"`
	MinimumDue       float64 `json:"minimumDue"`
	PeriodicInterest float64 `json:"periodicInterest"`
	HighUtilization  bool    `json:"highUtilization"`
}

type dtiRequest struct {
	MonthlyDebt   float64 `json:"monthlyDebt"`
	MonthlyIncome float64 `json:"monthlyIncome"`
}

type dtiResponse struct {
	Ratio   float64  `json:"ratio"`
	Band    dti.Band `json:"band"`
	Warning string   `json:"warning,omitempty"`
}

type payoffRequest struct {
	Debts         []payoff.Debt `json:"debts"`
	MonthlyBudget float64       `json:"monthlyBudget"`
	Ordering      string        `json:"ordering"`
	MaxMonths     int           `json:"maxMonths"`
	StartDate     string        `json:"startDate"`
}

type payoffResponse struct {
	*payoff.Strategy
	Warning string `json:"warning,omitempty"`
}

type compareResponse struct {
	*payoff.Comparison
	Warning string `json:"warning,omitempty"`
}

func (h *handler) handleEMI(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleEMI"
	body, ok := h.readBody(w, r, op)
	if !ok {
		return
	}
	h.serveCached(w, r, "emi", body, op, func() (interface{}, error) {
		var req emiRequest
		if err := decodeJSON(body, &req); err != nil {
			return nil, err
		}
		emi, err := loans.CalculateEMI(req.Principal, req.AnnualInterestRate, req.TenureMonths)
		if err != nil {
			return nil, err
		}
		interest := loans.TotalInterest(emi, req.TenureMonths, req.Principal)
		return emiResponse{
			EMI:           mathutil.Round(emi),
			TotalInterest: mathutil.Round(interest),
			TotalPayment:  mathutil.Round(req.Principal + interest),
		}, nil
	})
}

func (h *handler) handleAmortization(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleAmortization"
	body, ok := h.readBody(w, r, op)
	if !ok {
		return
	}

	format := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("format")))
	switch format {
	case "", "json":
		h.serveCached(w, r, "amortization", body, op, func() (interface{}, error) {
			var req amortizationRequest
			if err := decodeJSON(body, &req); err != nil {
				return nil, err
			}
			emi, entries, err := h.buildSchedule(req)
			if err != nil {
				return nil, err
			}
			return amortizationResponse{EMI: emi, Summary: loans.Summarize(entries), Entries: entries}, nil
		})
	case export.FormatXLSX, export.FormatPDF:
		h.serveExport(w, body, format, op)
	default:
		h.respondErrorWithOp(w, http.StatusBadRequest, fmt.Sprintf("unsupported format %q: expected json, xlsx or pdf", format), op)
	}
}

func (h *handler) serveExport(w http.ResponseWriter, body []byte, format, op string) {
	var req amortizationRequest
	if err := decodeJSON(body, &req); err != nil {
		h.respondCalcError(w, err, op)
		return
	}
	emi, entries, err := h.buildSchedule(req)
	if err != nil {
		h.respondCalcError(w, err, op)
		return
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		name = "schedule"
	}
	doc := export.NewScheduleDocument(name, req.Principal, req.AnnualInterestRate, req.TenureMonths, emi, entries)
	data, err := export.Build(format, []export.ScheduleDocument{doc})
	if err != nil {
		metrics.IncExport(format, metrics.ResultError)
		h.respondCalcError(w, err, op)
		return
	}
	metrics.IncExport(format, metrics.ResultSuccess)

	w.Header().Set("Content-Type", exportContentTypes[format])
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "schedule."+format))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		h.logger.Error("failed to write export",
			zap.String("op", op),
			zap.Error(err),
		)
	}
}

func (h *handler) buildSchedule(req amortizationRequest) (float64, []loans.AmortizationEntry, error) {
	start, err := h.parseStart(req.StartDate)
	if err != nil {
		return 0, nil, err
	}

	var schedule *loans.Schedule
	if req.EMI > 0 {
		schedule, err = loans.NewScheduleWithEMI(req.Principal, req.AnnualInterestRate, req.TenureMonths, req.EMI, start)
	} else {
		schedule, err = loans.NewSchedule(req.Principal, req.AnnualInterestRate, req.TenureMonths, start)
	}
	if err != nil {
		return 0, nil, err
	}
	return mathutil.Round(schedule.EMI()), loans.Collect(schedule), nil
}

func (h *handler) handlePrepayment(w http.ResponseWriter, r *http.Request) {
	const op = "server.handlePrepayment"
	body, ok := h.readBody(w, r, op)
	if !ok {
		return
	}
	h.serveCached(w, r, "prepayment", body, op, func() (interface{}, error) {
		var req prepaymentRequest
		if err := decodeJSON(body, &req); err != nil {
			return nil, err
		}
		mode, err := loans.ParsePrepaymentMode(req.Mode)
		if err != nil {
			return nil, err
		}
		result, err := loans.PrepaymentImpact(req.OutstandingBalance, req.AnnualInterestRate, req.RemainingTenureMonths, req.Prepayment, mode)
		if err != nil {
			return nil, err
		}
		return prepaymentResponse{PrepaymentResult: result, Summary: result.Describe()}, nil
	})
}

func (h *handler) handleCreditCard(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleCreditCard"
	body, ok := h.readBody(w, r, op)
	if !ok {
		return
	}
	h.serveCached(w, r, "creditcard", body, op, func() (interface{}, error) {
		var req creditCardRequest
		if err := decodeJSON(body, &req); err != nil {
			return nil, err
		}
		card, err := creditcard.NewCreditCard(creditcard.CreditCard{
			Name:               req.Name,
			CreditLimit:        req.CreditLimit,
			CurrentOutstanding: req.CurrentOutstanding,
			InterestRateAPR:    req.InterestRateAPR,
			BillingCycleDate:   req.BillingCycleDate,
			PaymentDueDate:     req.PaymentDueDate,
			MinimumDuePercent:  req.MinimumDuePercent,
		})
		if err != nil {
			return nil, err
		}
		return creditCardResponse{
			Name:             card.Name,
			Utilization:      mathutil.Round(card.Utilization()),
			AvailableLimit:   mathutil.Round(card.AvailableLimit()),
			MinimumDue:       mathutil.Round(card.MinimumDue()),
			PeriodicInterest: card.PeriodicInterest(req.BillingDays),
			HighUtilization:  card.HighUtilization(),
		}, nil
	})
}

func (h *handler) handleDTI(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleDTI"
	body, ok := h.readBody(w, r, op)
	if !ok {
		return
	}
	h.serveCached(w, r, "dti", body, op, func() (interface{}, error) {
		var req dtiRequest
		if err := decodeJSON(body, &req); err != nil {
			return nil, err
		}
		if !mathutil.IsFinite(req.MonthlyDebt) || req.MonthlyDebt < 0 {
			return nil, calcerr.Invalid("monthly debt cannot be negative, got %.2f", req.MonthlyDebt)
		}
		if !mathutil.IsFinite(req.MonthlyIncome) {
			return nil, calcerr.Invalid("monthly income must be a number")
		}
		ratio := dti.Ratio(req.MonthlyDebt, req.MonthlyIncome)
		resp := dtiResponse{Ratio: mathutil.Round(ratio), Band: dti.Classify(ratio)}
		if req.MonthlyIncome <= 0 {
			resp.Warning = "monthly income not provided; ratio reported as 0"
		}
		return resp, nil
	})
}

func (h *handler) handlePayoff(w http.ResponseWriter, r *http.Request) {
	const op = "server.handlePayoff"
	body, ok := h.readBody(w, r, op)
	if !ok {
		return
	}
	h.serveCached(w, r, "payoff", body, op, func() (interface{}, error) {
		var req payoffRequest
		if err := decodeJSON(body, &req); err != nil {
			return nil, err
		}
		ordering := payoff.Avalanche
		if strings.TrimSpace(req.Ordering) != "" {
			parsed, err := payoff.ParseOrdering(req.Ordering)
			if err != nil {
				return nil, err
			}
			ordering = parsed
		}
		opts, err := h.payoffOptions(req)
		if err != nil {
			return nil, err
		}

		strategy, err := payoff.Simulate(req.Debts, req.MonthlyBudget, ordering, opts)
		resp := payoffResponse{Strategy: strategy}
		if err != nil {
			if !errors.Is(err, calcerr.ErrSimulationCapReached) {
				return nil, err
			}
			metrics.IncCalculationError(op, errorKind(err))
			resp.Warning = err.Error()
		}
		metrics.ObservePayoffMonths(string(ordering), strategy.Months)
		return resp, nil
	})
}

func (h *handler) handlePayoffCompare(w http.ResponseWriter, r *http.Request) {
	const op = "server.handlePayoffCompare"
	body, ok := h.readBody(w, r, op)
	if !ok {
		return
	}
	h.serveCached(w, r, "payoff_compare", body, op, func() (interface{}, error) {
		var req payoffRequest
		if err := decodeJSON(body, &req); err != nil {
			return nil, err
		}
		opts, err := h.payoffOptions(req)
		if err != nil {
			return nil, err
		}

		comparison, err := payoff.Compare(req.Debts, req.MonthlyBudget, opts)
		if err != nil && comparison == nil {
			return nil, err
		}
		resp := compareResponse{Comparison: comparison}
		if err != nil {
			metrics.IncCalculationError(op, errorKind(err))
			resp.Warning = err.Error()
		}
		metrics.ObservePayoffMonths(string(payoff.Snowball), comparison.Snowball.Months)
		metrics.ObservePayoffMonths(string(payoff.Avalanche), comparison.Avalanche.Months)
		return resp, nil
	})
}

func (h *handler) payoffOptions(req payoffRequest) (payoff.Options, error) {
	start, err := h.parseStart(req.StartDate)
	if err != nil {
		return payoff.Options{}, err
	}
	return payoff.Options{MaxMonths: req.MaxMonths, Start: start}, nil
}

// parseStart resolves an optional request date, falling back to today.
func (h *handler) parseStart(value string) (time.Time, error) {
	if strings.TrimSpace(value) == "" {
		now := h.now()
		return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC), nil
	}
	start, err := datetime.ParseDate(value)
	if err != nil {
		return time.Time{}, fmt.Errorf("startDate: %w", err)
	}
	return start, nil
}

// readBody reads a POSTed JSON body within the upload limit. It writes the
// error response itself and reports false when the request cannot proceed.
func (h *handler) readBody(w http.ResponseWriter, r *http.Request, op string) ([]byte, bool) {
	if r.Method != http.MethodPost {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return nil, false
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.maxUploadSize))
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			h.respondErrorWithOp(w, http.StatusRequestEntityTooLarge,
				fmt.Sprintf("request exceeds limit of %d bytes", h.maxUploadSize), op)
			return nil, false
		}
		h.respondErrorWithOp(w, http.StatusBadRequest, fmt.Sprintf("failed to read request: %v", err), op)
		return nil, false
	}
	return body, true
}

func decodeJSON(body []byte, v interface{}) error {
	decoder := json.NewDecoder(bytes.NewReader(body))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(v); err != nil {
		return calcerr.Invalid("malformed request: %v", err)
	}
	return nil
}

// serveCached answers from the cache when it holds the same request, and
// otherwise runs compute and stores its successful response. Keys include the
// current date since requests without a start date depend on it.
func (h *handler) serveCached(w http.ResponseWriter, r *http.Request, endpoint string, body []byte, op string, compute func() (interface{}, error)) {
	var key string
	if h.cache != nil {
		key = cache.Key(endpoint+":"+h.now().Format(constants.DateLayout), body)
		cached, found, err := h.cache.Get(r.Context(), key)
		switch {
		case err != nil:
			h.logger.Warn("cache lookup failed",
				zap.String("op", op),
				zap.Error(err),
			)
		case found:
			metrics.IncCacheLookup(metrics.CacheHit)
			w.Header().Set("Content-Type", "application/json")
			w.Header().Set(CacheHeader, metrics.CacheHit)
			w.WriteHeader(http.StatusOK)
			if _, err := w.Write(cached); err != nil {
				h.logger.Error("failed to write cached response", zap.String("op", op), zap.Error(err))
			}
			return
		default:
			metrics.IncCacheLookup(metrics.CacheMiss)
		}
	}

	payload, err := compute()
	if err != nil {
		h.respondCalcError(w, err, op)
		return
	}

	data, err := json.Marshal(payload)
	if err != nil {
		h.respondErrorWithOp(w, http.StatusInternalServerError, fmt.Sprintf("failed to encode response: %v", err), op)
		return
	}
	data = append(data, '\n')

	if h.cache != nil {
		if err := h.cache.Set(r.Context(), key, data, h.cacheTTL); err != nil {
			h.logger.Warn("cache store failed",
				zap.String("op", op),
				zap.Error(err),
			)
		}
		w.Header().Set(CacheHeader, metrics.CacheMiss)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		h.logger.Error("failed to write JSON response", zap.String("op", op), zap.Error(err))
	}
}

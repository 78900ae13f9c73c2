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

	"github.com/google/uuid"
	"github.com/iwvelando/debt-engine/internal/analysis"
	"github.com/iwvelando/debt-engine/internal/cache"
	"github.com/iwvelando/debt-engine/internal/config"
	"github.com/iwvelando/debt-engine/internal/metrics"
	"github.com/iwvelando/debt-engine/pkg/calcerr"
	"github.com/iwvelando/debt-engine/pkg/constants"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// RequestIDHeader carries the request ID in both directions.
const RequestIDHeader = "X-Request-ID"

type handler struct {
	logger        *zap.Logger
	maxUploadSize int64
	version       string
	cache         cache.Cache
	cacheTTL      time.Duration
	tracer        trace.Tracer
	now           func() time.Time
}

// Option customises the handler built by NewHandler.
type Option func(*handler)

// WithCache stores successful engine responses in c for ttl.
func WithCache(c cache.Cache, ttl time.Duration) Option {
	return func(h *handler) {
		h.cache = c
		h.cacheTTL = ttl
	}
}

// WithTracer records request spans on tracer instead of the global provider.
func WithTracer(tracer trace.Tracer) Option {
	return func(h *handler) {
		h.tracer = tracer
	}
}

// WithClock fixes the time used when a request leaves its start date out.
func WithClock(now func() time.Time) Option {
	return func(h *handler) {
		h.now = now
	}
}

// NewHandler constructs the HTTP handler that serves the calculation API.
func NewHandler(logger *zap.Logger, maxUploadSize int64, version string, opts ...Option) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}

	if maxUploadSize <= 0 {
		maxUploadSize = constants.DefaultMaxUploadSizeBytes
	}

	trimmedVersion := strings.TrimSpace(version)
	if trimmedVersion == "" {
		trimmedVersion = "dev"
	}

	h := &handler{
		logger:        logger,
		maxUploadSize: maxUploadSize,
		version:       trimmedVersion,
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(h)
	}
	if h.tracer == nil {
		h.tracer = otel.Tracer(constants.DefaultServiceName)
	}
	metrics.Init()

	mux := http.NewServeMux()

	// Calculation endpoints (JSON bodies)
	mux.Handle("/api/emi", h.instrument("emi", h.handleEMI))
	mux.Handle("/api/amortization", h.instrument("amortization", h.handleAmortization))
	mux.Handle("/api/prepayment", h.instrument("prepayment", h.handlePrepayment))
	mux.Handle("/api/creditcard", h.instrument("creditcard", h.handleCreditCard))
	mux.Handle("/api/dti", h.instrument("dti", h.handleDTI))
	mux.Handle("/api/payoff", h.instrument("payoff", h.handlePayoff))
	mux.Handle("/api/payoff/compare", h.instrument("payoff_compare", h.handlePayoffCompare))

	// Portfolio analysis (file upload)
	mux.Handle("/api/analysis", h.instrument("analysis", h.handleAnalysis))

	mux.Handle("/api/version", h.instrument("version", h.handleVersion))
	mux.Handle("/metrics", promhttp.Handler())

	return mux
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(status int) {
	s.status = status
	s.ResponseWriter.WriteHeader(status)
}

// instrument wraps fn with a request ID, a span and the request metrics.
func (h *handler) instrument(endpoint string, fn http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		requestID := r.Header.Get(RequestIDHeader)
		if _, err := uuid.Parse(requestID); err != nil {
			requestID = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, requestID)

		ctx, span := h.tracer.Start(r.Context(), "server."+endpoint,
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(
				attribute.String("http.method", r.Method),
				attribute.String("request.id", requestID),
			),
		)
		defer span.End()

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		fn(rec, r.WithContext(ctx))

		span.SetAttributes(attribute.Int("http.status_code", rec.status))
		if rec.status >= http.StatusInternalServerError {
			span.SetStatus(codes.Error, http.StatusText(rec.status))
		}
		metrics.ObserveRequest(endpoint, fmt.Sprintf("%d", rec.status), time.Since(start))

		h.logger.Debug("request served",
			zap.String("op", "server.instrument"),
			zap.String("endpoint", endpoint),
			zap.String("requestID", requestID),
			zap.Int("status", rec.status),
			zap.Duration("duration", time.Since(start)),
		)
	})
}

type analysisResponse struct {
	Analysis   *analysis.Analysis     `json:"analysis"`
	Warnings   []string               `json:"warnings,omitempty"`
	Duration   string                 `json:"duration"`
	Config     map[string]interface{} `json:"config,omitempty"`
	ConfigYAML string                 `json:"configYaml,omitempty"`
}

func (h *handler) handleAnalysis(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleAnalysis"
	if r.Method != http.MethodPost {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	start := time.Now()
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize)
	if err := r.ParseMultipartForm(h.maxUploadSize); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			h.respondErrorWithOp(w, http.StatusRequestEntityTooLarge,
				fmt.Sprintf("upload exceeds limit of %d bytes", h.maxUploadSize), op)
			return
		}
		h.respondErrorWithOp(w, http.StatusBadRequest, fmt.Sprintf("failed to parse upload: %v", err), op)
		return
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		h.respondErrorWithOp(w, http.StatusBadRequest, "missing portfolio file", op)
		return
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil {
			h.logger.Warn("failed to close uploaded file",
				zap.String("op", op),
				zap.Error(closeErr),
			)
		}
	}()

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, file); err != nil {
		h.respondErrorWithOp(w, http.StatusInternalServerError, fmt.Sprintf("failed to read portfolio: %v", err), op)
		return
	}

	configBytes := buf.Bytes()
	configMap, err := decodeYAMLToMap(configBytes)
	if err != nil {
		h.respondErrorWithOp(w, http.StatusBadRequest, fmt.Sprintf("error reading config data, %v", err), op)
		return
	}

	conf, err := config.LoadConfigurationFromReader(bytes.NewReader(configBytes))
	if err != nil {
		h.respondErrorWithOp(w, http.StatusBadRequest, err.Error(), op)
		return
	}

	result, err := analysis.GetAnalysisWithFixedTime(h.logger, *conf, h.now())
	if err != nil {
		h.respondCalcError(w, err, op)
		return
	}

	h.logger.Info("portfolio analysed",
		zap.String("op", op),
		zap.Int("loans", len(result.Loans)),
		zap.Int("creditCards", len(result.CreditCards)),
		zap.Int("warnings", len(result.Warnings)),
	)

	h.writeJSON(w, http.StatusOK, analysisResponse{
		Analysis:   result,
		Warnings:   result.Warnings,
		Duration:   time.Since(start).String(),
		Config:     configMap,
		ConfigYAML: string(configBytes),
	})
}

func (h *handler) handleVersion(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]string{
		"version": h.version,
	})
}

func decodeYAMLToMap(data []byte) (map[string]interface{}, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return make(map[string]interface{}), nil
	}

	var result map[string]interface{}
	if err := yaml.Unmarshal(trimmed, &result); err != nil {
		return nil, err
	}
	if result == nil {
		result = make(map[string]interface{})
	}
	return result, nil
}

// statusForError maps an engine error onto an HTTP status.
func statusForError(err error) int {
	switch {
	case errors.Is(err, calcerr.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, calcerr.ErrNonAmortizingLoan):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func errorKind(err error) string {
	switch {
	case errors.Is(err, calcerr.ErrInvalidInput):
		return "invalid_input"
	case errors.Is(err, calcerr.ErrNonAmortizingLoan):
		return "non_amortizing"
	case errors.Is(err, calcerr.ErrSimulationCapReached):
		return "cap_reached"
	default:
		return "internal"
	}
}

func (h *handler) respondCalcError(w http.ResponseWriter, err error, op string) {
	metrics.IncCalculationError(op, errorKind(err))
	h.respondErrorWithOp(w, statusForError(err), err.Error(), op)
}

func (h *handler) respondErrorWithOp(w http.ResponseWriter, status int, msg string, op string) {
	h.logger.Error("request failed",
		zap.String("op", op),
		zap.Int("status", status),
		zap.String("error", msg),
	)

	h.writeJSON(w, status, map[string]string{"error": msg})
}

func (h *handler) writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Error("failed to write JSON response", zap.Error(err))
	}
}

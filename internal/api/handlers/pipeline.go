package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/wonny/twitstock/internal/contracts"
	"github.com/wonny/twitstock/internal/pipeline"
	"github.com/wonny/twitstock/pkg/logger"
)

// Pipeline is the subset of brain.Orchestrator the API serves
type Pipeline interface {
	Load(ctx context.Context, selection []string) (*pipeline.Report, error)
	Analyze(ctx context.Context, selection []string) (*pipeline.Report, error)
	Predict(ctx context.Context, ticker, date string) (string, *pipeline.Report, error)
	Graph(ctx context.Context, ticker string) ([]contracts.NAVPoint, *pipeline.Report, error)
	Tickers() ([]string, error)
}

// PipelineHandler handles pipeline API endpoints
// ⭐ SSOT: 파이프라인 API 핸들러는 여기서만
type PipelineHandler struct {
	pipeline Pipeline
	logger   *logger.Logger
}

// NewPipelineHandler creates a new pipeline handler
func NewPipelineHandler(p Pipeline, log *logger.Logger) *PipelineHandler {
	return &PipelineHandler{
		pipeline: p,
		logger:   log.Module("api"),
	}
}

// RunResponse is the body of load/analyze
type RunResponse struct {
	Result contracts.PipelineResult `json:"result"`
	Error  string                   `json:"error,omitempty"`
}

// PredictResponse is the body of predict
type PredictResponse struct {
	Ticker string                    `json:"ticker"`
	Date   string                    `json:"date"`
	Result string                    `json:"result,omitempty"`
	Error  string                    `json:"error,omitempty"`
	Run    *contracts.PipelineResult `json:"run,omitempty"`
}

// GraphResponse carries parallel series for charting
type GraphResponse struct {
	Ticker      string    `json:"ticker"`
	Date        []string  `json:"date"`
	NAV         []float64 `json:"nav"`
	NAVStrategy []float64 `json:"nav_strategy"`
}

// Load builds feature tables
// POST /api/load (form: tickers=AAL,AAPL | all)
func (h *PipelineHandler) Load(w http.ResponseWriter, r *http.Request) {
	h.runAll(w, r, "load", h.pipeline.Load)
}

// Analyze builds prediction tables
// POST /api/analyze (form: tickers=AAL,AAPL | all)
func (h *PipelineHandler) Analyze(w http.ResponseWriter, r *http.Request) {
	h.runAll(w, r, "analyze", h.pipeline.Analyze)
}

func (h *PipelineHandler) runAll(w http.ResponseWriter, r *http.Request, command string, run func(context.Context, []string) (*pipeline.Report, error)) {
	if err := r.ParseForm(); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid form body")
		return
	}
	selection := splitTickers(r.FormValue("tickers"))

	report, err := run(r.Context(), selection)
	if err != nil && report == nil {
		h.logger.WithError(err).WithField("command", command).Warn("Pipeline run rejected")
		respondError(w, statusOf(err), err.Error())
		return
	}

	resp := RunResponse{Result: report.Summary(command)}
	status := http.StatusOK
	if err != nil {
		resp.Error = err.Error()
		status = statusOf(err)
	}
	respondJSON(w, status, resp)
}

// Predict renders the BUY/SELL line for one date
// POST /api/predict (form: ticker, myDate)
func (h *PipelineHandler) Predict(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid form body")
		return
	}
	ticker := strings.TrimSpace(r.FormValue("ticker"))
	date := strings.TrimSpace(r.FormValue("myDate"))
	if ticker == "" || date == "" {
		respondError(w, http.StatusBadRequest, "ticker and myDate are required")
		return
	}

	line, report, err := h.pipeline.Predict(r.Context(), ticker, date)
	resp := PredictResponse{Ticker: strings.ToUpper(ticker), Date: date, Result: line}
	if report != nil {
		summary := report.Summary("predict")
		resp.Run = &summary
	}
	if err != nil {
		h.logger.WithError(err).WithFields(map[string]interface{}{
			"ticker": ticker,
			"date":   date,
		}).Warn("Prediction failed")
		resp.Error = err.Error()
		respondJSON(w, statusOf(err), resp)
		return
	}
	respondJSON(w, http.StatusOK, resp)
}

// Graph returns buy-and-hold vs. strategy NAV series
// POST /api/graph (form: ticker)
func (h *PipelineHandler) Graph(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid form body")
		return
	}
	ticker := strings.TrimSpace(r.FormValue("ticker"))
	if ticker == "" {
		respondError(w, http.StatusBadRequest, "ticker is required")
		return
	}

	points, _, err := h.pipeline.Graph(r.Context(), ticker)
	if err != nil {
		h.logger.WithError(err).WithField("ticker", ticker).Warn("Graph failed")
		respondError(w, statusOf(err), err.Error())
		return
	}

	resp := GraphResponse{
		Ticker:      strings.ToUpper(ticker),
		Date:        make([]string, len(points)),
		NAV:         make([]float64, len(points)),
		NAVStrategy: make([]float64, len(points)),
	}
	for i, p := range points {
		resp.Date[i], resp.NAV[i], resp.NAVStrategy[i] = p.Date, p.NAV, p.NAVStrategy
	}
	respondJSON(w, http.StatusOK, resp)
}

// GetTickers returns the ticker universe
// GET /api/tickers
func (h *PipelineHandler) GetTickers(w http.ResponseWriter, r *http.Request) {
	tickers, err := h.pipeline.Tickers()
	if err != nil {
		respondError(w, statusOf(err), err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"tickers": tickers,
		"count":   len(tickers),
	})
}

// splitTickers accepts comma and/or whitespace separated tickers
func splitTickers(raw string) []string {
	return strings.FieldsFunc(raw, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t' || r == '\n'
	})
}

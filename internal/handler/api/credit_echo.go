package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"CreditRisk/internal/domain/models"
	drepo "CreditRisk/internal/domain/repository"
	domsvc "CreditRisk/internal/domain/service"
	apimetrics "CreditRisk/internal/service/metrics"
	"CreditRisk/internal/service/ratelimit"
	"CreditRisk/internal/usecase"
	xhttp "CreditRisk/pkg/http"
	applogger "CreditRisk/pkg/logger"
	"CreditRisk/pkg/util"

	"github.com/labstack/echo/v4"
)

// CreditHandler serves the credit endpoints. The lookup, ingest and history
// routes answer 503 until their backing component is configured.
type CreditHandler struct {
	log       *applogger.Logger
	analyzer  *usecase.CreditAnalyzer
	assess    *usecase.CreditAssessmentUseCase
	recorder  *usecase.AssessmentProcessor
	snapshots drepo.SnapshotStore
	history   drepo.Storage
	limiter   *ratelimit.Limiter
}

type HandlerOption func(*CreditHandler)

// WithTickerLookup enables GET /api/credit.
func WithTickerLookup(uc *usecase.CreditAssessmentUseCase) HandlerOption {
	return func(h *CreditHandler) { h.assess = uc }
}

// WithRecorder routes every API result to the assessment backend.
func WithRecorder(p *usecase.AssessmentProcessor) HandlerOption {
	return func(h *CreditHandler) { h.recorder = p }
}

// WithSnapshotStore enables POST /api/credit/snapshots.
func WithSnapshotStore(s drepo.SnapshotStore) HandlerOption {
	return func(h *CreditHandler) { h.snapshots = s }
}

// WithHistory enables GET /api/credit/history.
func WithHistory(s drepo.Storage) HandlerOption {
	return func(h *CreditHandler) { h.history = s }
}

func WithRateLimiter(l *ratelimit.Limiter) HandlerOption {
	return func(h *CreditHandler) { h.limiter = l }
}

func NewCreditHandler(log *applogger.Logger, analyzer *usecase.CreditAnalyzer, opts ...HandlerOption) *CreditHandler {
	h := &CreditHandler{log: log, analyzer: analyzer}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *CreditHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api/credit")
	g.POST("/assess", h.Assess)
	g.POST("/portfolio", h.Portfolio)
	g.GET("", h.Lookup, h.rateLimit("lookup"))
	g.POST("/snapshots", h.IngestSnapshots)
	g.GET("/history", h.History)
}

// Assess evaluates one snapshot from the request body.
func (h *CreditHandler) Assess(c echo.Context) error {
	defer observe("assess", time.Now())
	req := &models.SnapshotRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return h.badRequest(c, "assess", verr)
	}

	ctx := c.Request().Context()
	res, err := h.analyzer.Analyze(ctx, req.ToSnapshot())
	var cf *models.CompanyFailure
	if errors.As(err, &cf) {
		h.record(c, cf.Ticker, models.CompanyResult{Failure: cf})
		return h.fail(c, "assess", failureError(cf))
	}
	if err != nil {
		h.log.Error("assess", applogger.Error(err))
		return h.fail(c, "assess", xhttp.InternalError("analysis failed").WithError(err))
	}
	h.record(c, res.Ticker, models.CompanyResult{Assessment: res})
	return xhttp.SuccessResponse(c, res)
}

// Portfolio evaluates every snapshot in the body. Per-company failures are
// part of the report, so the response is 200 whenever the body is valid.
func (h *CreditHandler) Portfolio(c echo.Context) error {
	defer observe("portfolio", time.Now())
	req := &models.PortfolioRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return h.badRequest(c, "portfolio", verr)
	}

	snaps := make([]models.FinancialSnapshot, len(req.Snapshots))
	for i, s := range req.Snapshots {
		snaps[i] = s.ToSnapshot()
	}
	report := h.analyzer.AnalyzePortfolio(c.Request().Context(), snaps)
	h.recordReport(c, report)
	return xhttp.SuccessResponse(c, report)
}

// Lookup pulls snapshots for ?tickers=A,B from the provider and evaluates them.
func (h *CreditHandler) Lookup(c echo.Context) error {
	defer observe("lookup", time.Now())
	if h.assess == nil {
		return h.fail(c, "lookup", unavailable("snapshot provider not configured"))
	}
	req := &models.TickersRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return h.badRequest(c, "lookup", verr)
	}
	tickers := util.ParseTickers(req.Tickers)
	if len(tickers) > maxLookupTickers {
		return h.fail(c, "lookup", xhttp.BadRequestErrorf("at most %d tickers per request", maxLookupTickers))
	}

	report, err := h.assess.AssessTickers(c.Request().Context(), tickers)
	if errors.Is(err, usecase.ErrNoTickers) {
		return h.fail(c, "lookup", xhttp.BadRequestError(err.Error()))
	}
	if err != nil {
		h.log.Error("lookup", applogger.Error(err))
		return h.fail(c, "lookup", xhttp.InternalError("lookup failed").WithError(err))
	}
	h.recordReport(c, report)
	return xhttp.SuccessResponse(c, report)
}

const maxLookupTickers = 50

// IngestSnapshots stores snapshots for later lookups.
func (h *CreditHandler) IngestSnapshots(c echo.Context) error {
	defer observe("ingest", time.Now())
	if h.snapshots == nil {
		return h.fail(c, "ingest", unavailable("snapshot store not configured"))
	}
	req := &models.PortfolioRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return h.badRequest(c, "ingest", verr)
	}

	snaps := make([]models.FinancialSnapshot, len(req.Snapshots))
	for i, s := range req.Snapshots {
		snaps[i] = s.ToSnapshot()
	}
	err := h.snapshots.SaveSnapshots(c.Request().Context(), snaps)
	if errors.Is(err, models.ErrInvalidSnapshot) {
		return h.fail(c, "ingest", xhttp.BadRequestError(err.Error()))
	}
	if err != nil {
		h.log.Error("ingest snapshots", applogger.Int("count", len(snaps)), applogger.Error(err))
		return h.fail(c, "ingest", xhttp.BadGatewayError("snapshot store unavailable").WithError(err))
	}
	return xhttp.CreatedResponse(c, map[string]int{"stored": len(snaps)})
}

// History lists stored records for ?ticker= between from and to.
func (h *CreditHandler) History(c echo.Context) error {
	defer observe("history", time.Now())
	if h.history == nil {
		return h.fail(c, "history", unavailable("assessment store not configured"))
	}
	tickers := util.ParseTickers(c.QueryParam("ticker"))
	if len(tickers) != 1 {
		return h.fail(c, "history", xhttp.BadRequestError("exactly one ticker is required"))
	}
	ticker := tickers[0]
	now := time.Now().UTC()
	from := util.ParseTimeDefault(c.QueryParam("from"), now.AddDate(0, -1, 0))
	to := util.ParseTimeDefault(c.QueryParam("to"), now)
	if to.Before(from) {
		return h.fail(c, "history", xhttp.BadRequestError("to is before from"))
	}
	limit := util.ParseIntDefault(c.QueryParam("limit"), 100)
	if limit < 1 || limit > 1000 {
		return h.fail(c, "history", xhttp.BadRequestError("limit must be within 1..1000"))
	}

	recs, err := h.history.Query(c.Request().Context(), ticker, from, to, limit)
	if err != nil {
		h.log.Error("history query", applogger.String("ticker", ticker), applogger.Error(err))
		return h.fail(c, "history", xhttp.BadGatewayError("assessment store unavailable").WithError(err))
	}
	if recs == nil {
		recs = []*models.AssessmentRecord{}
	}
	return xhttp.SuccessResponse(c, recs)
}

// rateLimit limits per client IP.
func (h *CreditHandler) rateLimit(endpoint string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if h.limiter != nil && !h.limiter.Allow(c.RealIP()) {
				apimetrics.APIRateLimited.WithLabelValues(endpoint).Inc()
				c.Response().Header().Set("Retry-After", "1")
				return h.fail(c, endpoint, xhttp.TooManyRequestsError("rate limit exceeded"))
			}
			return next(c)
		}
	}
}

func (h *CreditHandler) record(c echo.Context, ticker string, res models.CompanyResult) {
	if h.recorder == nil {
		return
	}
	if err := h.recorder.Process(c.Request().Context(), h.recorder.Record(ticker, res)); err != nil {
		h.log.Warn("record assessment", applogger.String("ticker", ticker), applogger.Error(err))
	}
}

func (h *CreditHandler) recordReport(c echo.Context, report *models.PortfolioReport) {
	if h.recorder == nil {
		return
	}
	if err := h.recorder.ProcessReport(c.Request().Context(), report); err != nil {
		h.log.Warn("record report", applogger.Int("companies", len(report.Tickers)), applogger.Error(err))
	}
}

func (h *CreditHandler) badRequest(c echo.Context, endpoint string, verr []xhttp.ValidationError) error {
	apimetrics.APIErrors.WithLabelValues(endpoint, "400").Inc()
	return xhttp.BadRequestResponse(c, verr)
}

func (h *CreditHandler) fail(c echo.Context, endpoint string, appErr *xhttp.AppError) error {
	apimetrics.APIErrors.WithLabelValues(endpoint, strconv.Itoa(appErr.Status)).Inc()
	return xhttp.AppErrorResponse(c, appErr)
}

// failureError maps a company failure to an HTTP error: 400 for invalid
// snapshots, 404 or 502 for provider failures, 422 for model failures.
func failureError(f *models.CompanyFailure) *xhttp.AppError {
	code := usecase.FailureCode(f)
	var e *xhttp.AppError
	switch {
	case f.Stage == models.StageSnapshot:
		e = xhttp.NewAppError(code, "", f.Err.Error(), http.StatusBadRequest)
	case errors.Is(f.Err, domsvc.ErrSnapshotNotFound):
		e = xhttp.NewAppError(code, "", f.Err.Error(), http.StatusNotFound)
	case f.Stage == models.StageProvider:
		e = xhttp.NewAppError(code, "", f.Err.Error(), http.StatusBadGateway)
	case f.Stage == models.StageCanceled:
		e = xhttp.NewAppError(code, "", f.Err.Error(), http.StatusServiceUnavailable)
	default:
		e = xhttp.UnprocessableError(code, f.Err.Error())
	}
	return e.WithParam("stage", f.Stage).WithParam("ticker", f.Ticker).WithError(f)
}

func unavailable(msg string) *xhttp.AppError {
	return xhttp.NewAppError("ERR_UNAVAILABLE", "", msg, http.StatusServiceUnavailable)
}

func observe(endpoint string, start time.Time) {
	apimetrics.APILatency.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
}

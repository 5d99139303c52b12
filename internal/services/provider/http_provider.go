package provider

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"CreditRisk/internal/domain/models"
	"CreditRisk/internal/domain/service"
	xhttp "CreditRisk/pkg/http"
)

// ErrMissingField is returned when a statement lacks a line item the
// snapshot needs.
var ErrMissingField = errors.New("statement field missing")

// Line items as named in the statements payload.
const (
	fieldTotalAssets        = "Total Assets"
	fieldTotalLiabilities   = "Total Liabilities Net Minority Interest"
	fieldCurrentLiabilities = "Current Liabilities"
	fieldNonCurrentAssets   = "Total Non Current Assets"
	fieldRetainedEarnings   = "Retained Earnings"
	fieldStockholdersEquity = "Stockholders Equity"
	fieldCurrentDebt        = "Current Debt"
	fieldLongTermDebt       = "Long Term Debt"
	fieldEBIT               = "EBIT"
	fieldTotalRevenue       = "Total Revenue"
)

// Statements is the provider's response: one map of line items per reporting
// period, newest period first. Null items decode as nil.
type Statements struct {
	Ticker          string                `json:"ticker"`
	BalanceSheet    []map[string]*float64 `json:"balance_sheet"`
	IncomeStatement []map[string]*float64 `json:"income_statement"`
}

// HTTPProvider fetches statements from a JSON API at
// {baseURL}/statements/{ticker}.
type HTTPProvider struct {
	baseURL string
	apiKey  string
	retries int
	backoff time.Duration
	client  *xhttp.Client
}

var _ service.SnapshotProvider = (*HTTPProvider)(nil)

type Option func(*HTTPProvider)

func WithAPIKey(key string) Option {
	return func(p *HTTPProvider) { p.apiKey = key }
}

// WithRetries sets how many times a transient failure is retried.
func WithRetries(n int) Option {
	return func(p *HTTPProvider) {
		if n >= 0 {
			p.retries = n
		}
	}
}

func WithBackoff(d time.Duration) Option {
	return func(p *HTTPProvider) { p.backoff = d }
}

func WithClient(c *xhttp.Client) Option {
	return func(p *HTTPProvider) { p.client = c }
}

func NewHTTPProvider(baseURL string, timeout time.Duration, opts ...Option) (*HTTPProvider, error) {
	if baseURL == "" {
		return nil, errors.New("provider: base url is required")
	}
	if _, err := url.Parse(baseURL); err != nil {
		return nil, fmt.Errorf("provider: base url: %w", err)
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	p := &HTTPProvider{
		baseURL: strings.TrimRight(baseURL, "/"),
		retries: 2,
		backoff: 100 * time.Millisecond,
		client:  xhttp.NewClient(xhttp.WithTimeout(timeout)),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Snapshot fetches and maps the statements of ticker. A 404 becomes
// service.ErrSnapshotNotFound.
func (p *HTTPProvider) Snapshot(ctx context.Context, ticker string) (models.FinancialSnapshot, error) {
	var st Statements
	if err := p.getWithRetry(ctx, "/statements/"+url.PathEscape(ticker), &st); err != nil {
		if xhttp.IsStatus(err, http.StatusNotFound) {
			return models.FinancialSnapshot{}, fmt.Errorf("%w: %s", service.ErrSnapshotNotFound, ticker)
		}
		return models.FinancialSnapshot{}, fmt.Errorf("fetch statements %s: %w", ticker, err)
	}
	if st.Ticker == "" {
		st.Ticker = ticker
	}
	return MapStatements(st)
}

func (p *HTTPProvider) getWithRetry(ctx context.Context, path string, dest interface{}) error {
	headers := map[string]string{"Accept": "application/json"}
	if p.apiKey != "" {
		headers["X-API-Key"] = p.apiKey
	}
	req := &xhttp.RequestOptions{Method: xhttp.MethodGet, URL: p.baseURL + path, Headers: headers}

	var err error
	for attempt := 0; attempt <= p.retries; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(time.Duration(attempt) * p.backoff):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		err = p.client.SendAndParse(ctx, req, dest)
		if err == nil || !retryable(err) {
			return err
		}
	}
	return err
}

func retryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var se *xhttp.StatusError
	if errors.As(err, &se) {
		return se.Temporary()
	}
	// transport errors
	return true
}

// MapStatements builds a snapshot from the newest period and the total
// assets of every period, reordered oldest to newest. Periods with no total
// assets are skipped in the history.
func MapStatements(st Statements) (models.FinancialSnapshot, error) {
	if len(st.BalanceSheet) == 0 {
		return models.FinancialSnapshot{}, fmt.Errorf("%w: %s has no balance sheet", ErrMissingField, st.Ticker)
	}
	if len(st.IncomeStatement) == 0 {
		return models.FinancialSnapshot{}, fmt.Errorf("%w: %s has no income statement", ErrMissingField, st.Ticker)
	}
	bs, is := st.BalanceSheet[0], st.IncomeStatement[0]

	m := mapper{ticker: st.Ticker}
	snap := models.FinancialSnapshot{
		Ticker:              st.Ticker,
		TotalAssets:         m.required(bs, fieldTotalAssets),
		TotalLiabilities:    m.required(bs, fieldTotalLiabilities),
		CurrentLiabilities:  m.required(bs, fieldCurrentLiabilities),
		NonCurrentAssets:    m.required(bs, fieldNonCurrentAssets),
		RetainedEarnings:    m.required(bs, fieldRetainedEarnings),
		MarketValueOfEquity: m.required(bs, fieldStockholdersEquity),
		CurrentDebt:         optional(bs, fieldCurrentDebt),
		LongTermDebt:        optional(bs, fieldLongTermDebt),
		EBIT:                m.required(is, fieldEBIT),
		TotalRevenue:        m.required(is, fieldTotalRevenue),
	}
	if m.err != nil {
		return models.FinancialSnapshot{}, m.err
	}

	for i := len(st.BalanceSheet) - 1; i >= 0; i-- {
		if v := st.BalanceSheet[i][fieldTotalAssets]; v != nil {
			snap.HistoricalTotalAssets = append(snap.HistoricalTotalAssets, *v)
		}
	}
	return snap, nil
}

// mapper keeps the first missing-field error.
type mapper struct {
	ticker string
	err    error
}

func (m *mapper) required(period map[string]*float64, field string) float64 {
	v := period[field]
	if v == nil {
		if m.err == nil {
			m.err = fmt.Errorf("%w: %s %q", ErrMissingField, m.ticker, field)
		}
		return 0
	}
	return *v
}

func optional(period map[string]*float64, field string) float64 {
	if v := period[field]; v != nil {
		return *v
	}
	return 0
}

package services

import (
	"context"
	"time"

	"commentlottery/internal/metrics"
	"commentlottery/internal/models"

	"github.com/google/logger"
	"golang.org/x/time/rate"
)

// PageSource returns one page of the reply listing for a resource.
type PageSource interface {
	FetchPage(ctx context.Context, id models.ResourceID, page int) (models.PageResult, error)
}

// State is a Paginator state.
type State int

const (
	StateFetchPage State = iota
	StateDone
	StateAborted
)

func (s State) String() string {
	switch s {
	case StateFetchPage:
		return "fetch_page"
	case StateDone:
		return "done"
	case StateAborted:
		return "aborted"
	}
	return "unknown"
}

// Paginator walks the reply listing of one resource page by page, starting
// at page 1, until it sees an empty page (StateDone) or a non-success status
// or transport error (StateAborted). It is single use and not safe for
// concurrent use.
type Paginator struct {
	source   PageSource
	id       models.ResourceID
	page     int
	state    State
	err      error
	limiter  *rate.Limiter
	maxPages int
}

// PaginatorOption configures a Paginator.
type PaginatorOption func(*Paginator)

// WithRequestInterval spaces page requests at least interval apart.
func WithRequestInterval(interval time.Duration) PaginatorOption {
	return func(p *Paginator) {
		if interval > 0 {
			p.limiter = rate.NewLimiter(rate.Every(interval), 1)
		}
	}
}

// WithMaxPages stops pagination after n non-empty pages. Zero means no cap.
func WithMaxPages(n int) PaginatorOption {
	return func(p *Paginator) {
		p.maxPages = n
	}
}

// NewPaginator creates a Paginator positioned at page 1.
func NewPaginator(source PageSource, id models.ResourceID, opts ...PaginatorOption) *Paginator {
	p := &Paginator{
		source: source,
		id:     id,
		page:   1,
		state:  StateFetchPage,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// State returns the current state.
func (p *Paginator) State() State { return p.state }

// Page returns the number of the next page to be fetched.
func (p *Paginator) Page() int { return p.page }

// Err returns the error that aborted pagination, if any.
func (p *Paginator) Err() error { return p.err }

// Next fetches the next page. It returns ok=false once pagination has
// ended; err is non-nil only when it ended in StateAborted.
func (p *Paginator) Next(ctx context.Context) (page models.PageResult, ok bool, err error) {
	switch p.state {
	case StateDone:
		return models.PageResult{}, false, nil
	case StateAborted:
		return models.PageResult{}, false, p.err
	}

	if p.maxPages > 0 && p.page > p.maxPages {
		logger.Warningf("Reply listing of %d still has pages after %d; stopping at the page cap", p.id, p.maxPages)
		p.state = StateDone
		return models.PageResult{}, false, nil
	}

	if p.limiter != nil {
		if err := p.limiter.Wait(ctx); err != nil {
			return p.abort("transport", &TransportError{Page: p.page, Err: err})
		}
	}

	page, err = p.source.FetchPage(ctx, p.id, p.page)
	if err != nil {
		return p.abort("transport", &TransportError{Page: p.page, Err: err})
	}

	switch page.Status.Kind {
	case models.StatusSuccess:
	case models.StatusRateLimited:
		return p.abort("rate_limited", &AbortedFetchError{Page: p.page, Status: page.Status})
	default:
		return p.abort("status", &AbortedFetchError{Page: p.page, Status: page.Status})
	}

	if len(page.Comments) == 0 {
		p.state = StateDone
		return models.PageResult{}, false, nil
	}

	page.Page = p.page
	p.page++
	metrics.PagesFetched.Inc()
	metrics.CommentsFetched.Add(float64(len(page.Comments)))
	return page, true, nil
}

func (p *Paginator) abort(reason string, err error) (models.PageResult, bool, error) {
	p.state = StateAborted
	p.err = err
	metrics.FetchAborts.WithLabelValues(reason).Inc()
	logger.Errorf("Reply listing of %d aborted: %v", p.id, err)
	return models.PageResult{}, false, err
}

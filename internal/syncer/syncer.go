// Package syncer implements the two-call synchronization protocol: one read
// at session start (FetchSession) and one batched write at session end
// (SyncSession). Everything else the engine does is local.
package syncer

import (
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"quizsync/internal/domain"
	"quizsync/internal/dto"

	"golang.org/x/sync/singleflight"
)

// Default client settings.
const (
	DefaultMaxRetries  = 3
	DefaultRetryDelay  = time.Second
	DefaultHTTPTimeout = 15 * time.Second
)

// Options configures a Client.
type Options struct {
	// BaseURL is the API root, e.g. "https://api.example.com/api/quiz".
	BaseURL string
	// MaxRetries bounds attempts of the batch-submit+complete sequence.
	MaxRetries int
	// RetryDelay is the backoff base; the wait before attempt n+1 is
	// RetryDelay * n (linear backoff).
	RetryDelay time.Duration
	// EnableCompression gzips request bodies.
	EnableCompression bool
	// HTTPTimeout bounds each individual HTTP request.
	HTTPTimeout time.Duration

	// Hooks observe sync lifecycle transitions. All are optional.
	OnSyncStart   func()
	OnSyncSuccess func(SyncResult)
	OnSyncError   func(error)
}

func (o Options) withDefaults() Options {
	if o.MaxRetries <= 0 {
		o.MaxRetries = DefaultMaxRetries
	}
	if o.RetryDelay <= 0 {
		o.RetryDelay = DefaultRetryDelay
	}
	if o.HTTPTimeout <= 0 {
		o.HTTPTimeout = DefaultHTTPTimeout
	}
	return o
}

// SyncResult is the outcome of one sync invocation.
type SyncResult struct {
	Success        bool
	Timestamp      int64 // epoch milliseconds
	ServerResponse *dto.CompletionResponse
	Err            error
}

// Client performs the two network operations of the hybrid protocol. One
// Client is scoped to one quiz session; it is explicitly constructed and
// injected rather than shared globally, so no state leaks across sessions.
type Client struct {
	opts       Options
	httpClient *http.Client

	inFlight atomic.Bool // sync latch, not a general mutex
	fetchSF  singleflight.Group

	mu    sync.Mutex
	queue []queueEntry

	clock func() time.Time
}

// NewClient builds a Client with the given options.
func NewClient(opts Options) *Client {
	opts = opts.withDefaults()
	return &Client{
		opts:       opts,
		httpClient: &http.Client{Timeout: opts.HTTPTimeout},
		clock:      time.Now,
	}
}

// Session is the normalized result of the initial fetch.
type Session struct {
	SessionID       string
	Questions       []domain.QuizQuestion
	Config          domain.QuizConfig
	ExistingAnswers []domain.QuizAnswer
}

func (c *Client) now() int64 {
	return domain.NowMillis(c.clock())
}

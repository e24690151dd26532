package sender

import (
	"context"
	"crypto/tls"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"regexp"
	"sync"
	"sync/atomic"
	"time"

	"github.com/m3rciful/examsbot/core/logger"
	"github.com/m3rciful/examsbot/core/telegram/netutil"

	tele "gopkg.in/telebot.v4"
)

var (
	// ErrQueueClosed is returned when enqueue is attempted after dispatcher stop.
	ErrQueueClosed = errors.New("telegram sender: queue closed")
	// ErrQueueFull indicates the shard queue is saturated and the job was not accepted.
	ErrQueueFull = errors.New("telegram sender: queue full")

	tokenRe = regexp.MustCompile(`bot[0-9]+:[A-Za-z0-9_-]+`)
)

// Options controls the behaviour of the outbound dispatcher.
type Options struct {
	// QueueSize is the capacity of each worker's queue.
	QueueSize int
	// Workers is the number of shards; every chat is pinned to one of them.
	Workers      int
	MaxRetries   int
	RetryBackoff time.Duration
	// MaxDuration bounds the time spent retrying a single job.
	MaxDuration time.Duration
}

type job struct {
	ctx      context.Context
	action   string
	endpoint string
	run      func() error
}

// Dispatcher executes outbound Telegram calls asynchronously with retries.
// Jobs for the same chat always land on the same worker, so replies keep their order.
type Dispatcher struct {
	opts   Options
	shards []chan job

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup

	sent atomic.Uint64
	errs atomic.Uint64
}

// NewDispatcher starts a dispatcher with sane defaults if options are zeroed.
func NewDispatcher(opts Options) *Dispatcher {
	if opts.QueueSize <= 0 {
		opts.QueueSize = 64
	}
	if opts.Workers <= 0 {
		opts.Workers = 4
	}
	if opts.MaxRetries < 0 {
		opts.MaxRetries = 0
	}
	if opts.RetryBackoff <= 0 {
		opts.RetryBackoff = 2 * time.Second
	}
	if opts.MaxDuration <= 0 {
		opts.MaxDuration = 30 * time.Second
	}

	d := &Dispatcher{
		opts:   opts,
		shards: make([]chan job, opts.Workers),
	}
	d.wg.Add(opts.Workers)
	for i := range d.shards {
		d.shards[i] = make(chan job, opts.QueueSize)
		go d.worker(d.shards[i])
	}
	return d
}

// Enqueue schedules run on the worker owning chatID.
// The run closure must be safe to call again if retries are enabled.
func (d *Dispatcher) Enqueue(ctx context.Context, chatID int64, action, endpoint string, run func() error) error {
	if run == nil {
		return errors.New("telegram sender: nil run function")
	}
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return ErrQueueClosed
	}

	j := job{ctx: ctx, action: action, endpoint: endpoint, run: run}
	select {
	case d.shards[d.shardFor(chatID)] <- j:
		return nil
	default:
		return ErrQueueFull
	}
}

func (d *Dispatcher) shardFor(chatID int64) int {
	n := int64(len(d.shards))
	idx := chatID % n
	if idx < 0 {
		idx += n
	}
	return int(idx)
}

// SentCount returns the number of jobs completed successfully.
func (d *Dispatcher) SentCount() uint64 {
	return d.sent.Load()
}

// ErrorCount returns the number of failed jobs.
func (d *Dispatcher) ErrorCount() uint64 {
	return d.errs.Load()
}

// Close stops accepting jobs and waits for queued ones to finish.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	for _, ch := range d.shards {
		close(ch)
	}
	d.mu.Unlock()
	d.wg.Wait()
}

func (d *Dispatcher) worker(jobs <-chan job) {
	defer d.wg.Done()
	for j := range jobs {
		d.handleJob(j)
	}
}

func (d *Dispatcher) handleJob(j job) {
	ctx := j.ctx
	if ctx == nil {
		ctx = context.Background()
	}
	start := time.Now()
	attempts, err := d.runWithRetry(ctx, j)
	elapsed := slog.Int("elapsed_ms", durationToMS(time.Since(start)))

	if err == nil {
		d.sent.Add(1)
		attrs := append(sendLogAttrs(ctx, j), elapsed)
		if attempts > 1 {
			attrs = append(attrs, slog.Int("attempt", attempts))
		}
		logger.Debug(ctx, "tg.sender", "send.success", attrs...)
		return
	}

	d.errs.Add(1)
	logger.Error(ctx, "tg.sender", "send.fail", append(sendLogAttrs(ctx, j),
		slog.String("err", sanitizeErrorMessage(err)),
		slog.String("error_kind", classifyError(err)),
		slog.Int("attempts", attempts),
		elapsed,
	)...)
}

// runWithRetry calls j.run until it succeeds, fails permanently, runs out of
// attempts or exceeds MaxDuration. Backoff grows linearly with the attempt number.
func (d *Dispatcher) runWithRetry(ctx context.Context, j job) (int, error) {
	// The update context may be cancelled once the handler returns; keep its values only.
	deadline, cancel := context.WithTimeout(context.WithoutCancel(ctx), d.opts.MaxDuration)
	defer cancel()

	limit := d.opts.MaxRetries + 1
	for attempt := 1; ; attempt++ {
		err := j.run()
		if err == nil || attempt >= limit || !netutil.ShouldRetry(err) {
			return attempt, err
		}

		delay := d.opts.RetryBackoff * time.Duration(attempt)
		logger.Debug(ctx, "tg.sender", "send.retry.backoff", append(sendLogAttrs(ctx, j),
			slog.Int("attempt", attempt),
			slog.Duration("backoff", delay),
		)...)
		timer := time.NewTimer(delay)
		select {
		case <-deadline.Done():
			timer.Stop()
			return attempt, errors.Join(err, deadline.Err())
		case <-timer.C:
		}
	}
}

func sendLogAttrs(ctx context.Context, j job) []slog.Attr {
	attrs := []slog.Attr{slog.String("action", j.action)}
	if j.endpoint != "" {
		attrs = append(attrs, slog.String("endpoint", j.endpoint))
	}
	if rid := logger.RIDFrom(ctx); rid != "" {
		attrs = append(attrs, slog.String("rid", rid))
	}
	return attrs
}

func durationToMS(d time.Duration) int {
	return int(logger.RoundMS(d).Milliseconds())
}

// classifyError buckets a send failure for log aggregation.
func classifyError(err error) string {
	if err == nil {
		return ""
	}
	var (
		netErr   net.Error
		dnsErr   *net.DNSError
		opErr    *net.OpError
		alertErr tls.AlertError
		floodErr tele.FloodError
		apiErr   *tele.Error
	)
	switch {
	case errors.Is(err, context.DeadlineExceeded),
		errors.As(err, &netErr) && netErr.Timeout():
		return "timeout"
	case errors.As(err, &dnsErr):
		return "dns"
	case errors.As(err, &opErr) && opErr.Op == "dial":
		return "dial"
	case errors.As(err, &alertErr):
		return "tls"
	case errors.As(err, &floodErr):
		return "rate_limited"
	case errors.As(err, &apiErr):
		switch {
		case apiErr.Code == http.StatusForbidden:
			return "blocked"
		case apiErr.Code >= 500:
			return "http_5xx"
		case apiErr.Code >= 400:
			return "http_4xx"
		}
	}
	return "unknown"
}

// sanitizeErrorMessage redacts bot tokens that Bot API URLs embed in error text.
func sanitizeErrorMessage(err error) string {
	if err == nil {
		return ""
	}
	return tokenRe.ReplaceAllString(err.Error(), "bot<redacted>")
}

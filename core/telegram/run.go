package telegram

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	coreconfig "github.com/m3rciful/examsbot/core/config"
	"github.com/m3rciful/examsbot/core/logger"
	tghelpers "github.com/m3rciful/examsbot/core/telegram/helpers"
	tgsender "github.com/m3rciful/examsbot/core/telegram/sender"

	tele "gopkg.in/telebot.v4"
)

const defaultHTTPTimeout = 60 * time.Second

// Middleware describes a global bot middleware to be registered via bot.Use.
type Middleware struct {
	Name string
	Use  tele.MiddlewareFunc
}

// Route declares a single bot handler bound to an arbitrary endpoint.
// Endpoint values are passed directly to tele.Bot.Handle.
type Route struct {
	Endpoint any
	Handler  tele.HandlerFunc
}

// RunOptions controls the behaviour of RunTelegram.
type RunOptions struct {
	Config   *coreconfig.Config
	Registry *Registry

	// DispatcherOptions are derived from cfg.Sender when left zero.
	DispatcherOptions tgsender.Options
	Dispatcher        *tgsender.Dispatcher

	Middlewares []Middleware
	Routes      []Route

	DisableWebhookCleanup   bool
	DisableHelperDispatcher bool

	OnStart func(ctx context.Context, rt Runtime) error
	OnStop  func(ctx context.Context, rt Runtime) error
}

// Runtime exposes runtime components to lifecycle hooks.
type Runtime struct {
	Bot        *tele.Bot
	Dispatcher *tgsender.Dispatcher
	Registry   *Registry
}

// DispatcherOptionsFrom maps the sender section of the config onto dispatcher options.
func DispatcherOptionsFrom(cfg coreconfig.SenderConfig) tgsender.Options {
	return tgsender.Options{
		QueueSize:    cfg.QueueSize,
		Workers:      cfg.Workers,
		MaxRetries:   cfg.MaxRetries,
		RetryBackoff: time.Duration(cfg.RetryBackoffMS) * time.Millisecond,
	}
}

func httpTimeouts(cfg *coreconfig.Config) (request, longPoll time.Duration) {
	request = defaultHTTPTimeout
	if sec := cfg.Telegram.HTTPTimeoutSeconds; sec > 0 {
		request = time.Duration(sec) * time.Second
	}
	if !isWebhook(cfg) {
		longPoll = longPollTimeout(cfg.Telegram.LongPollTimeoutSeconds)
	}
	return request, longPoll
}

func logHandlerError(err error, c tele.Context) {
	ctx := context.Background()
	if c != nil {
		ctx = tghelpers.BuildContext(c)
	}
	logger.Error(ctx, "tg", "handler.error", slog.String("err", logger.SanitizeLimit(err.Error(), 256)))
}

// newBot builds the telebot instance for cfg without touching the network beyond getMe.
func newBot(cfg *coreconfig.Config) (*tele.Bot, error) {
	request, longPoll := httpTimeouts(cfg)
	bot, err := tele.NewBot(tele.Settings{
		Token:   cfg.Telegram.Token,
		Poller:  NewPoller(cfg),
		Client:  BuildHTTPClient(request, longPoll),
		OnError: logHandlerError,
	})
	if err != nil {
		return nil, fmt.Errorf("telegram: bot initialization failed: %w", err)
	}
	return bot, nil
}

// startDispatcher returns the outbound dispatcher and a func that stops it.
func startDispatcher(cfg *coreconfig.Config, opts RunOptions) (*tgsender.Dispatcher, func()) {
	d := opts.Dispatcher
	if d == nil {
		dopts := opts.DispatcherOptions
		if dopts == (tgsender.Options{}) {
			dopts = DispatcherOptionsFrom(cfg.Sender)
		}
		d = tgsender.NewDispatcher(dopts)
	}
	if opts.DisableHelperDispatcher {
		return d, d.Close
	}
	tghelpers.SetDispatcher(d)
	return d, func() {
		d.Close()
		tghelpers.SetDispatcher(nil)
	}
}

func logMode(ctx context.Context, bot *tele.Bot, took time.Duration, opts RunOptions) {
	attrs := []slog.Attr{slog.Duration("duration", logger.RoundMS(took))}
	wh, ok := bot.Poller.(*tele.Webhook)
	if ok {
		attrs = append(attrs,
			slog.String("mode", "webhook"),
			slog.String("listen", wh.Listen),
			slog.String("public_url", wh.Endpoint.PublicURL),
		)
		logger.LogEvent(ctx, logger.TG, slog.LevelInfo, "mode", attrs...)
		return
	}
	if lp, ok := bot.Poller.(*tele.LongPoller); ok {
		attrs = append(attrs, slog.Int("timeout_seconds", int(lp.Timeout/time.Second)))
	}
	logger.LogEvent(ctx, logger.TG, slog.LevelInfo, "mode", append(attrs, slog.String("mode", "polling"))...)

	if opts.DisableWebhookCleanup {
		return
	}
	// getUpdates fails while a webhook from an earlier deployment is still set.
	if err := bot.RemoveWebhook(false); err != nil {
		logger.LogEvent(ctx, logger.TG, slog.LevelWarn, "delete_webhook",
			slog.String("status", "fail"), slog.String("err", err.Error()))
		return
	}
	logger.LogEvent(ctx, logger.TG, slog.LevelInfo, "delete_webhook", slog.String("status", "ok"))
}

func wire(bot *tele.Bot, reg *Registry, opts RunOptions) {
	for _, mw := range opts.Middlewares {
		if mw.Use != nil {
			bot.Use(mw.Use)
		}
	}
	for _, r := range opts.Routes {
		if r.Endpoint != nil && r.Handler != nil {
			bot.Handle(r.Endpoint, r.Handler)
		}
	}
	InitBotCommands(bot, reg)
}

// serve runs the poller until ctx is done or the bot stops on its own.
func serve(ctx context.Context, bot *tele.Bot) error {
	done := make(chan struct{})
	go func() {
		defer close(done)
		bot.Start()
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		bot.Stop()
		<-done
		return ctx.Err()
	}
}

// RunTelegram builds the bot from opts and serves updates until ctx is done.
// OnStop runs after polling has stopped and before the dispatcher drains.
// Cancellation of ctx is a clean shutdown and yields a nil error.
func RunTelegram(ctx context.Context, opts RunOptions) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg := opts.Config
	if cfg == nil {
		return errors.New("telegram: nil config provided")
	}
	reg := opts.Registry
	if reg == nil {
		reg = NewRegistry()
	}

	started := time.Now()
	bot, err := newBot(cfg)
	if err != nil {
		return err
	}
	dispatcher, release := startDispatcher(cfg, opts)
	defer release()

	logMode(ctx, bot, time.Since(started), opts)
	wire(bot, reg, opts)

	rt := Runtime{Bot: bot, Dispatcher: dispatcher, Registry: reg}
	if opts.OnStart != nil {
		if err := opts.OnStart(ctx, rt); err != nil {
			return err
		}
	}

	runErr := serve(ctx, bot)
	if opts.OnStop != nil {
		if err := opts.OnStop(context.WithoutCancel(ctx), rt); err != nil {
			return err
		}
	}
	if errors.Is(runErr, context.Canceled) {
		return nil
	}
	return runErr
}

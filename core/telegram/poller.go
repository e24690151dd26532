package telegram

import (
	"net"
	"strconv"
	"strings"
	"time"

	coreconfig "github.com/m3rciful/examsbot/core/config"

	tele "gopkg.in/telebot.v4"
)

const defaultLongPollTimeout = 10 * time.Second

// NewPoller picks the update source for cfg: a webhook listener in webhook
// run mode, long polling otherwise.
func NewPoller(cfg *coreconfig.Config) tele.Poller {
	if !isWebhook(cfg) {
		return &tele.LongPoller{Timeout: longPollTimeout(cfg.Telegram.LongPollTimeoutSeconds)}
	}
	return &tele.Webhook{
		Listen:   net.JoinHostPort(cfg.Webhook.Listen, strconv.Itoa(cfg.Webhook.Port)),
		Endpoint: &tele.WebhookEndpoint{PublicURL: cfg.Webhook.URL},
	}
}

func isWebhook(cfg *coreconfig.Config) bool {
	return strings.EqualFold(strings.TrimSpace(cfg.Telegram.RunMode), coreconfig.RunModeWebhook)
}

func longPollTimeout(seconds int) time.Duration {
	if seconds <= 0 {
		return defaultLongPollTimeout
	}
	return time.Duration(seconds) * time.Second
}

package helpers

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync/atomic"

	"github.com/m3rciful/examsbot/core/logger"
	"github.com/m3rciful/examsbot/core/telegram/keyboard"
	"github.com/m3rciful/examsbot/core/telegram/sender"

	tele "gopkg.in/telebot.v4"
)

var globalDispatcher atomic.Pointer[sender.Dispatcher]

// SetDispatcher wires the asynchronous sender used by helper functions; nil sends inline.
func SetDispatcher(d *sender.Dispatcher) {
	globalDispatcher.Store(d)
}

func sendAsync(c tele.Context, action, endpoint string, run func() error) error {
	disp := globalDispatcher.Load()
	if disp == nil {
		return run()
	}

	ctx := BuildContext(c)
	_, chatID, userID := IDs(c)
	if chatID == 0 {
		chatID = userID
	}
	err := disp.Enqueue(ctx, chatID, action, endpoint, run)
	if errors.Is(err, sender.ErrQueueFull) || errors.Is(err, sender.ErrQueueClosed) {
		logger.Warn(ctx, "tg.sender", "queue.fallback",
			slog.String("action", action),
			slog.String("endpoint", endpoint),
			slog.String("err", err.Error()),
		)
		return run()
	}
	return err
}

// SendText sends raw text (no parse mode) to the current recipient.
func SendText(c tele.Context, text string, opts ...*tele.SendOptions) error {
	return sendAsync(c, "send.text", "sendMessage", func() error {
		if len(opts) > 0 && opts[0] != nil {
			return c.Send(text, opts[0])
		}
		return c.Send(text)
	})
}

// SendMenu sends text with a reply keyboard holding one button per row.
func SendMenu(c tele.Context, text string, buttons []string) error {
	return SendText(c, text, &tele.SendOptions{ReplyMarkup: keyboard.ReplyColumn(buttons...)})
}

// SendDocument uploads the file at path under the given name.
// The file is opened per attempt and closed on every exit path. onSent runs after a
// successful upload.
func SendDocument(c tele.Context, path, name string, onSent func()) error {
	return sendAsync(c, "send.document", "sendDocument", func() error {
		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("open document: %w", err)
		}
		defer f.Close()

		if err := c.Send(&tele.Document{File: tele.FromReader(f), FileName: name}); err != nil {
			return err
		}
		if onSent != nil {
			onSent()
		}
		return nil
	})
}

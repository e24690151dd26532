package bot

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	tg "github.com/m3rciful/examsbot/core/telegram"
	"github.com/m3rciful/examsbot/core/telegram/keyboard"
	"github.com/m3rciful/examsbot/core/telegram/state"
	"github.com/m3rciful/examsbot/internal/catalog"
	"github.com/m3rciful/examsbot/internal/journal"
	"github.com/m3rciful/examsbot/internal/navigation"

	tele "gopkg.in/telebot.v4"
)

type sent struct {
	what any
	opts []any
	// body is the uploaded content for documents.
	body string
}

// fakeContext implements the parts of tele.Context the handlers use; anything else panics.
type fakeContext struct {
	tele.Context
	text    string
	user    *tele.User
	chat    *tele.Chat
	store   map[string]any
	sent    []sent
	sendErr error
}

func newFakeContext(text string) *fakeContext {
	return &fakeContext{
		text:  text,
		user:  &tele.User{ID: 42},
		chat:  &tele.Chat{ID: 4200},
		store: map[string]any{},
	}
}

func (f *fakeContext) Text() string          { return f.text }
func (f *fakeContext) Sender() *tele.User    { return f.user }
func (f *fakeContext) Chat() *tele.Chat      { return f.chat }
func (f *fakeContext) Update() tele.Update   { return tele.Update{ID: 7} }
func (f *fakeContext) Get(key string) any    { return f.store[key] }
func (f *fakeContext) Set(key string, v any) { f.store[key] = v }

func (f *fakeContext) Send(what any, opts ...any) error {
	s := sent{what: what, opts: opts}
	if doc, ok := what.(*tele.Document); ok && doc.File.FileReader != nil {
		data, err := io.ReadAll(doc.File.FileReader)
		if err != nil {
			return err
		}
		s.body = string(data)
	}
	f.sent = append(f.sent, s)
	return f.sendErr
}

func (f *fakeContext) last(t *testing.T) sent {
	t.Helper()
	require.NotEmpty(t, f.sent)
	return f.sent[len(f.sent)-1]
}

func newHandler(t *testing.T, j journal.Journal) (*Handler, string) {
	t.Helper()
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "2022"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "2022", "paper1.pdf"), []byte("%PDF-1.4"), 0o600))
	nav := navigation.NewController(catalog.NewReader(root), state.NewMemoryManager(), navigation.Labels{})
	return New(nav, j, 1), root
}

func menuLabels(t *testing.T, s sent) []string {
	t.Helper()
	require.Len(t, s.opts, 1)
	opts, ok := s.opts[0].(*tele.SendOptions)
	require.True(t, ok)
	require.NotNil(t, opts.ReplyMarkup)
	assert.True(t, opts.ReplyMarkup.ResizeKeyboard)
	for _, row := range opts.ReplyMarkup.ReplyKeyboard {
		assert.Len(t, row, 1)
	}
	return keyboard.Labels(opts.ReplyMarkup)
}

func TestStartRendersMainMenu(t *testing.T) {
	h, _ := newHandler(t, nil)
	c := newFakeContext("/start")

	require.NoError(t, h.OnText(c))
	s := c.last(t)
	assert.Equal(t, navigation.WelcomeReply, s.what)
	assert.Equal(t, []string{navigation.DefaultOpenCatalogLabel}, menuLabels(t, s))
}

func TestYearMenuOneButtonPerRow(t *testing.T) {
	h, _ := newHandler(t, nil)
	c := newFakeContext("2022")

	require.NoError(t, h.OnText(c))
	s := c.last(t)
	assert.Equal(t, "Available files for 2022:", s.what)
	assert.Equal(t, []string{"paper1.pdf", navigation.DefaultBackToYearsLabel}, menuLabels(t, s))
}

func TestDocumentUploadClosesFileAndRecords(t *testing.T) {
	j := journal.NewMemory()
	h, _ := newHandler(t, j)
	require.NoError(t, h.OnText(newFakeContext("2022")))

	c := newFakeContext("paper1.pdf")
	require.NoError(t, h.OnText(c))

	s := c.last(t)
	doc, ok := s.what.(*tele.Document)
	require.True(t, ok)
	assert.Equal(t, "paper1.pdf", doc.FileName)
	assert.Equal(t, "%PDF-1.4", s.body)

	f, ok := doc.File.FileReader.(*os.File)
	require.True(t, ok)
	_, err := f.Read(make([]byte, 1))
	assert.ErrorIs(t, err, os.ErrClosed)

	stats, err := j.Top(context.Background(), 10)
	require.NoError(t, err)
	assert.Equal(t, []journal.Stat{{Year: "2022", FileName: "paper1.pdf", Downloads: 1}}, stats)
}

func TestDocumentSendFailureIsNotRecorded(t *testing.T) {
	j := journal.NewMemory()
	h, _ := newHandler(t, j)
	require.NoError(t, h.OnText(newFakeContext("2022")))

	c := newFakeContext("paper1.pdf")
	c.sendErr = errors.New("telegram: network down")
	// The apology is sent through the same failing context.
	require.Error(t, h.OnText(c))

	require.Len(t, c.sent, 2)
	doc := c.sent[0].what.(*tele.Document)
	_, err := doc.File.FileReader.(*os.File).Read(make([]byte, 1))
	assert.ErrorIs(t, err, os.ErrClosed)
	assert.Equal(t, SendFailedReply, c.sent[1].what)

	stats, err := j.Top(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, stats)
}

func TestUnknownFileIsPlainText(t *testing.T) {
	h, _ := newHandler(t, nil)
	require.NoError(t, h.OnText(newFakeContext("2022")))

	c := newFakeContext("nope.pdf")
	require.NoError(t, h.OnText(c))
	s := c.last(t)
	assert.Equal(t, navigation.FileNotFoundReply, s.what)
	assert.Empty(t, s.opts)
}

func TestNonTextHint(t *testing.T) {
	h, _ := newHandler(t, nil)
	c := newFakeContext("")
	require.NoError(t, h.OnNonText(c))
	assert.Equal(t, UseMenuReply, c.last(t).what)
}

func TestStats(t *testing.T) {
	t.Run("disabled", func(t *testing.T) {
		h, _ := newHandler(t, nil)
		c := newFakeContext("/stats")
		require.NoError(t, h.OnStats(c))
		assert.Equal(t, StatsDisabledReply, c.last(t).what)
	})

	t.Run("empty", func(t *testing.T) {
		h, _ := newHandler(t, journal.NewMemory())
		c := newFakeContext("/stats")
		require.NoError(t, h.OnStats(c))
		assert.Equal(t, NoDownloadsReply, c.last(t).what)
	})

	t.Run("top", func(t *testing.T) {
		j := journal.NewMemory()
		ctx := context.Background()
		require.NoError(t, j.Record(ctx, journal.Download{Year: "2022", FileName: "paper1.pdf"}))
		require.NoError(t, j.Record(ctx, journal.Download{Year: "2022", FileName: "paper1.pdf"}))
		require.NoError(t, j.Record(ctx, journal.Download{Year: "2023", FileName: "paper2.pdf"}))
		h, _ := newHandler(t, j)

		c := newFakeContext("/stats")
		require.NoError(t, h.OnStats(c))
		assert.Equal(t, "Top downloads:\n1. 2022/paper1.pdf: 2\n2. 2023/paper2.pdf: 1", c.last(t).what)
	})
}

func TestRegisterAndRoutes(t *testing.T) {
	h, _ := newHandler(t, nil)
	reg := tg.NewRegistry()
	h.Register(reg)

	visible := reg.ListCommands(true)
	require.Len(t, visible, 1)
	assert.Equal(t, tele.Command{Text: "/start", Description: "Open the main menu"}, visible[0])
	assert.True(t, reg.Commands()["/stats"].AdminOnly)

	endpoints := map[any]bool{}
	for _, r := range h.Routes(reg) {
		require.NotNil(t, r.Handler)
		endpoints[r.Endpoint] = true
	}
	for _, e := range []any{"/start", "/stats", tele.OnText, tele.OnDocument, tele.OnPhoto} {
		assert.True(t, endpoints[e], "missing route %v", e)
	}
}

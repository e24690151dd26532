// Package navigation maps the text a user sends to the next screen of the exam catalog:
// main menu, list of years, list of files in a year, or the file itself.
package navigation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/m3rciful/examsbot/core/logger"
	"github.com/m3rciful/examsbot/core/telegram/state"
	"github.com/m3rciful/examsbot/internal/catalog"
)

// Screens a conversation can be on. An unknown conversation is on StateMain.
const (
	StateMain  state.State = "main"
	StateYears state.State = "years"
	StateFiles state.State = "files"
)

// ActionKind tells the adapter how to render an Action.
type ActionKind int

const (
	// ActionText is a plain reply that leaves the keyboard as it is.
	ActionText ActionKind = iota
	// ActionMenu is a reply with a keyboard of Buttons, one per row.
	ActionMenu
	// ActionDocument asks to upload the file at Path.
	ActionDocument
)

func (k ActionKind) String() string {
	switch k {
	case ActionText:
		return "text"
	case ActionMenu:
		return "menu"
	case ActionDocument:
		return "document"
	}
	return "unknown"
}

// Action is the single reply produced for one inbound message.
type Action struct {
	Kind    ActionKind
	Text    string
	Buttons []string

	// Path and FileName are set for ActionDocument; Year is the year the file belongs to.
	Path     string
	FileName string
	Year     string
}

// Labels are the texts of the navigation buttons.
type Labels struct {
	OpenCatalog string
	BackToMain  string
	BackToYears string
}

// DefaultLabels returns the stock button texts.
func DefaultLabels() Labels {
	return Labels{
		OpenCatalog: DefaultOpenCatalogLabel,
		BackToMain:  DefaultBackToMainLabel,
		BackToYears: DefaultBackToYearsLabel,
	}
}

func (l Labels) withDefaults() Labels {
	def := DefaultLabels()
	if strings.TrimSpace(l.OpenCatalog) == "" {
		l.OpenCatalog = def.OpenCatalog
	}
	if strings.TrimSpace(l.BackToMain) == "" {
		l.BackToMain = def.BackToMain
	}
	if strings.TrimSpace(l.BackToYears) == "" {
		l.BackToYears = def.BackToYears
	}
	return l
}

// Catalog is the read side of the exam file store.
type Catalog interface {
	ListYears(ctx context.Context) ([]string, error)
	ListFiles(ctx context.Context, year string) ([]string, error)
	ResolveFile(ctx context.Context, year, name string) (string, error)
}

// Controller holds per-conversation selection state and turns messages into actions.
type Controller struct {
	catalog  Catalog
	sessions state.Manager
	labels   Labels
}

// NewController wires the catalog and session store. Empty labels fall back to the defaults.
func NewController(cat Catalog, sessions state.Manager, labels Labels) *Controller {
	if sessions == nil {
		sessions = state.NewMemoryManager()
	}
	return &Controller{catalog: cat, sessions: sessions, labels: labels.withDefaults()}
}

// Labels returns the button texts in use.
func (c *Controller) Labels() Labels {
	return c.labels
}

// Handle classifies text for conversation id and returns the reply. Calls for the same id are
// serialized. Failures are reported as text actions, never as errors.
func (c *Controller) Handle(ctx context.Context, id int64, text string) Action {
	unlock := c.sessions.Lock(id)
	defer unlock()

	text = strings.TrimSpace(text)
	act, screen := c.route(ctx, id, text)
	attrs := []slog.Attr{slog.String("action", act.Kind.String())}
	if screen != "" {
		attrs = append(attrs, slog.String("screen", string(screen)))
	}
	if act.Year != "" {
		attrs = append(attrs, slog.String("year", act.Year))
	}
	logger.Debug(ctx, "nav", "nav.handled", attrs...)
	return act
}

// route applies the transitions in priority order. The returned screen is empty when the
// state did not change.
func (c *Controller) route(ctx context.Context, id int64, text string) (Action, state.State) {
	switch {
	case isStart(text), text == c.labels.BackToMain:
		c.sessions.SetState(id, StateMain)
		return c.mainMenu(), StateMain
	case text == c.labels.OpenCatalog, text == c.labels.BackToYears:
		c.sessions.SetState(id, StateYears)
		return c.yearsMenu(ctx), StateYears
	}

	years := c.listYears(ctx)
	if slices.Contains(years, text) {
		return c.selectYear(ctx, id, text)
	}
	return c.sendFile(ctx, id, text), ""
}

func (c *Controller) mainMenu() Action {
	return Action{Kind: ActionMenu, Text: WelcomeReply, Buttons: []string{c.labels.OpenCatalog}}
}

func (c *Controller) yearsMenu(ctx context.Context) Action {
	years := c.listYears(ctx)
	buttons := make([]string, 0, len(years)+1)
	buttons = append(buttons, years...)
	buttons = append(buttons, c.labels.BackToMain)
	return Action{Kind: ActionMenu, Text: SelectYearReply, Buttons: buttons}
}

func (c *Controller) selectYear(ctx context.Context, id int64, year string) (Action, state.State) {
	c.sessions.SetSelectedYear(id, year)

	files, err := c.catalog.ListFiles(ctx, year)
	if err != nil {
		warnUnavailable(ctx, err, slog.String("year", year))
	}
	if len(files) == 0 {
		c.sessions.SetState(id, StateYears)
		return Action{Kind: ActionText, Text: fmt.Sprintf(NoFilesReply, year), Year: year}, StateYears
	}

	c.sessions.SetState(id, StateFiles)
	buttons := make([]string, 0, len(files)+1)
	buttons = append(buttons, files...)
	buttons = append(buttons, c.labels.BackToYears)
	return Action{
		Kind:    ActionMenu,
		Text:    fmt.Sprintf(FilesForYearReply, year),
		Buttons: buttons,
		Year:    year,
	}, StateFiles
}

func (c *Controller) sendFile(ctx context.Context, id int64, name string) Action {
	year, ok := c.sessions.SelectedYear(id)
	if !ok {
		return Action{Kind: ActionText, Text: SelectYearFirstReply}
	}
	path, err := c.catalog.ResolveFile(ctx, year, name)
	if err != nil {
		if !errors.Is(err, catalog.ErrNotFound) {
			logger.Warn(ctx, "nav", "catalog.resolve_failed",
				slog.String("year", year),
				slog.String("err", err.Error()),
			)
		}
		return Action{Kind: ActionText, Text: FileNotFoundReply, Year: year}
	}
	return Action{Kind: ActionDocument, Path: path, FileName: name, Year: year}
}

// listYears treats an unreadable catalog as empty.
func (c *Controller) listYears(ctx context.Context) []string {
	years, err := c.catalog.ListYears(ctx)
	if err != nil {
		warnUnavailable(ctx, err)
		return nil
	}
	return years
}

func warnUnavailable(ctx context.Context, err error, attrs ...slog.Attr) {
	kind := "io"
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		kind = "canceled"
	}
	attrs = append(attrs,
		slog.String("error_kind", kind),
		slog.String("err", err.Error()),
	)
	logger.Warn(ctx, "catalog", "catalog.unavailable", attrs...)
}

// isStart matches "/start", "/start@botname" and "/start <payload>".
func isStart(text string) bool {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return false
	}
	cmd, _, _ := strings.Cut(fields[0], "@")
	return cmd == "/start"
}

package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/localrag/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/localrag/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/localrag/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/localrag/internal/adapters/driving/tui/views/ask"
	"github.com/custodia-labs/localrag/internal/adapters/driving/tui/views/documents"
)

// Options configures the initial state of the TUI.
type Options struct {
	// Document opens the ask view for this document ID or name at start.
	Document string

	// K is the number of sources per question. Zero uses the default.
	K int

	// Rerank enables the rerank pass for questions.
	Rerank bool
}

// App is the main TUI application following the Elm architecture.
// It implements tea.Model for use with Bubbletea.
type App struct {
	ports  *Ports
	opts   Options
	ctx    context.Context
	styles *styles.Styles
	keymap *keymap.KeyMap
	help   help.Model

	documentsView *documents.View
	askView       *ask.View

	// currentView tracks which view is active.
	currentView messages.ViewType
	// previousView is restored when help closes.
	previousView messages.ViewType

	// err holds the last error that occurred.
	err error

	width  int
	height int
	ready  bool
}

// Ensure App implements tea.Model.
var _ tea.Model = (*App)(nil)

// NewApp creates a new TUI application with the given ports.
func NewApp(ports *Ports, opts Options) (*App, error) {
	if err := ports.Validate(); err != nil {
		return nil, fmt.Errorf("creating app: %w", err)
	}

	s := styles.DefaultStyles()
	km := keymap.DefaultKeyMap()

	askView := ask.NewView(s, km, ports.Query)
	askView.SetRetrieval(opts.K, opts.Rerank)

	h := help.New()
	h.ShowAll = true

	return &App{
		ports:         ports,
		opts:          opts,
		ctx:           context.Background(),
		styles:        s,
		keymap:        km,
		help:          h,
		documentsView: documents.NewView(s, km, ports.Document),
		askView:       askView,
		currentView:   messages.ViewDocuments,
	}, nil
}

// WithContext sets the context for service calls.
func (a *App) WithContext(ctx context.Context) *App {
	a.ctx = ctx
	a.documentsView.SetContext(ctx)
	a.askView.SetContext(ctx)
	return a
}

// Init implements tea.Model.
func (a *App) Init() tea.Cmd {
	cmds := []tea.Cmd{
		tea.SetWindowTitle("localrag"),
		a.documentsView.Init(),
		a.askView.Init(),
	}
	if strings.TrimSpace(a.opts.Document) != "" {
		cmds = append(cmds, a.resolveDocument(a.opts.Document))
	}
	return tea.Batch(cmds...)
}

// resolveDocument returns a command that looks up a document by ID or name.
func (a *App) resolveDocument(idOrName string) tea.Cmd {
	ctx := a.ctx
	svc := a.ports.Document
	return func() tea.Msg {
		doc, err := svc.Resolve(ctx, idOrName)
		if err != nil {
			return messages.ErrorOccurred{Err: fmt.Errorf("document %q: %w", idOrName, err)}
		}
		return messages.DocumentSelected{Document: *doc}
	}
}

// Update implements tea.Model.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.SetDimensions(msg.Width, msg.Height)
		return a, nil

	case tea.KeyMsg:
		if key.Matches(msg, a.keymap.Quit) {
			return a, tea.Quit
		}
		return a.handleKeyMsg(msg)

	case messages.Quit:
		return a, tea.Quit

	case messages.ViewChanged:
		return a, a.switchView(msg.View)

	case messages.DocumentsLoaded:
		a.documentsView, cmd = a.documentsView.Update(msg)
		return a, cmd

	case messages.DocumentSelected:
		a.err = nil
		a.currentView = messages.ViewAsk
		return a, a.askView.SetDocument(msg.Document)

	case messages.AnswerReady:
		a.askView, cmd = a.askView.Update(msg)
		return a, cmd

	case messages.ErrorOccurred:
		a.err = msg.Err
		switch a.currentView {
		case messages.ViewAsk:
			a.askView, cmd = a.askView.Update(msg)
		case messages.ViewDocuments, messages.ViewHelp:
			a.documentsView, cmd = a.documentsView.Update(msg)
		}
		return a, cmd
	}

	// Spinner ticks and cursor blinks belong to the ask view.
	a.askView, cmd = a.askView.Update(msg)
	return a, cmd
}

func (a *App) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch a.currentView {
	case messages.ViewDocuments:
		a.documentsView, cmd = a.documentsView.Update(msg)
	case messages.ViewAsk:
		a.askView, cmd = a.askView.Update(msg)
	case messages.ViewHelp:
		if key.Matches(msg, a.keymap.Back) || key.Matches(msg, a.keymap.Help) || key.Matches(msg, a.keymap.QuitList) {
			a.currentView = a.previousView
		}
	}
	return a, cmd
}

// switchView activates view. Help remembers where it was opened from.
func (a *App) switchView(view messages.ViewType) tea.Cmd {
	switch view {
	case messages.ViewHelp:
		if a.currentView != messages.ViewHelp {
			a.previousView = a.currentView
		}
	case messages.ViewDocuments:
		a.currentView = view
		return a.documentsView.Load()
	case messages.ViewAsk:
		if a.askView.Document() == nil {
			return nil
		}
	}
	a.currentView = view
	return nil
}

// View implements tea.Model.
func (a *App) View() string {
	if !a.ready {
		return "Initialising..."
	}

	switch a.currentView {
	case messages.ViewAsk:
		return a.askView.View()
	case messages.ViewHelp:
		return a.viewHelp()
	case messages.ViewDocuments:
	}
	return a.documentsView.View()
}

// viewHelp renders all keybindings.
func (a *App) viewHelp() string {
	var b strings.Builder
	b.WriteString(a.styles.Title.Render("Help"))
	b.WriteString("\n\n")
	b.WriteString(a.help.View(a.keymap))
	b.WriteString("\n\n")
	b.WriteString(a.styles.Help.Render("Up and down browse earlier questions while typing. Page up and down scroll the answer."))
	b.WriteString("\n\n")
	b.WriteString(a.styles.Muted.Render("[esc] back"))
	return b.String()
}

// Run starts the TUI and blocks until it exits or ctx is cancelled.
func (a *App) Run(ctx context.Context) error {
	a.WithContext(ctx)
	p := tea.NewProgram(a, tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}

// CurrentView returns the current view type.
func (a *App) CurrentView() messages.ViewType {
	return a.currentView
}

// Err returns the last error that occurred.
func (a *App) Err() error {
	return a.err
}

// Ready returns whether the app has received its dimensions.
func (a *App) Ready() bool {
	return a.ready
}

// SetDimensions sets the terminal dimensions.
func (a *App) SetDimensions(width, height int) {
	a.width = width
	a.height = height
	a.ready = true
	a.help.Width = width
	a.documentsView.SetDimensions(width, height)
	a.askView.SetDimensions(width, height)
}

// Package ask provides the question and answer view for one document.
package ask

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/localrag/internal/adapters/driving/tui/components/input"
	"github.com/custodia-labs/localrag/internal/adapters/driving/tui/components/list"
	"github.com/custodia-labs/localrag/internal/adapters/driving/tui/components/status"
	"github.com/custodia-labs/localrag/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/localrag/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/localrag/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/localrag/internal/core/domain"
	"github.com/custodia-labs/localrag/internal/core/ports/driving"
)

// ErrNoQueryService is reported when the view has no service to ask.
var ErrNoQueryService = errors.New("query service not available")

// sourcesHeight is the number of lines reserved for the source list.
const sourcesHeight = 6

type focus int

const (
	focusInput focus = iota
	focusSources
)

// View asks questions against one document and shows the answer with
// its sources.
type View struct {
	ctx          context.Context
	styles       *styles.Styles
	keymap       *keymap.KeyMap
	queryService driving.QueryService

	input    *input.QuestionInput
	sources  *list.SourceList
	status   *status.Bar
	answerVP viewport.Model
	spinner  spinner.Model

	document *domain.Document
	k        int
	rerank   bool
	focus    focus

	// seq identifies the latest question; older answers are dropped.
	seq      int
	thinking bool
	question string
	answer   *domain.Answer
	err      error

	width  int
	height int
}

// NewView creates a new ask view.
func NewView(s *styles.Styles, km *keymap.KeyMap, queryService driving.QueryService) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}

	sp := spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(s.Title))

	v := &View{
		ctx:          context.Background(),
		styles:       s,
		keymap:       km,
		queryService: queryService,
		input:        input.NewQuestionInput(s),
		sources:      list.NewSourceList(s),
		status:       status.NewBar(s, km),
		answerVP:     viewport.New(80, 10),
		spinner:      sp,
		k:            domain.DefaultK,
	}
	v.status.SetHints(km.AskHelp())
	v.SetDimensions(80, 24)
	return v
}

// SetContext sets the context used for service calls.
func (v *View) SetContext(ctx context.Context) {
	v.ctx = ctx
}

// SetDocument scopes questions to doc and clears the previous conversation.
func (v *View) SetDocument(doc domain.Document) tea.Cmd {
	v.document = &doc
	v.answer = nil
	v.question = ""
	v.err = nil
	v.thinking = false
	v.seq++
	v.sources.SetSources(nil)
	v.answerVP.SetContent("")
	v.input.Reset()
	v.status.Clear()
	v.syncStatus()
	return v.focusInput()
}

// SetRetrieval sets k and whether answers use a rerank pass.
func (v *View) SetRetrieval(k int, rerank bool) {
	if k == 0 {
		k = domain.DefaultK
	}
	v.k = keymap.ClampK(k)
	v.rerank = rerank
	v.syncStatus()
}

// Init initialises the view.
func (v *View) Init() tea.Cmd {
	return v.input.Init()
}

// Update handles messages for the ask view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case tea.KeyMsg:
		return v.handleKeyMsg(msg)

	case messages.AnswerReady:
		return v.handleAnswer(msg), nil

	case spinner.TickMsg:
		if !v.thinking {
			return v, nil
		}
		var cmd tea.Cmd
		v.spinner, cmd = v.spinner.Update(msg)
		return v, cmd

	case messages.ErrorOccurred:
		v.setError(msg.Err)
		return v, nil
	}

	var cmd tea.Cmd
	v.input, cmd = v.input.Update(msg)
	return v, cmd
}

func (v *View) handleKeyMsg(msg tea.KeyMsg) (*View, tea.Cmd) {
	switch {
	case key.Matches(msg, v.keymap.Back):
		if v.focus == focusSources {
			return v, v.focusInput()
		}
		return v, func() tea.Msg {
			return messages.ViewChanged{View: messages.ViewDocuments}
		}
	case key.Matches(msg, v.keymap.Focus):
		if v.focus == focusSources {
			return v, v.focusInput()
		}
		v.focusSources()
		return v, nil
	case key.Matches(msg, v.keymap.Rerank):
		v.rerank = !v.rerank
		v.syncStatus()
		return v, nil
	case key.Matches(msg, v.keymap.MoreSources):
		v.k = keymap.ClampK(v.k + 1)
		v.syncStatus()
		return v, nil
	case key.Matches(msg, v.keymap.FewerSources):
		v.k = keymap.ClampK(v.k - 1)
		v.syncStatus()
		return v, nil
	}

	switch msg.String() {
	case "pgup", "pgdown":
		var cmd tea.Cmd
		v.answerVP, cmd = v.answerVP.Update(msg)
		return v, cmd
	}

	if v.focus == focusSources {
		v.sources, _ = v.sources.Update(msg)
		v.showSelectedSource()
		return v, nil
	}

	switch msg.Type {
	case tea.KeyEnter:
		return v, v.submit()
	case tea.KeyUp:
		v.input.Previous()
		return v, nil
	case tea.KeyDown:
		v.input.Next()
		return v, nil
	}

	var cmd tea.Cmd
	v.input, cmd = v.input.Update(msg)
	return v, cmd
}

// submit sends the typed question unless it is blank or one is in flight.
func (v *View) submit() tea.Cmd {
	if v.thinking || v.document == nil {
		return nil
	}
	question := v.input.Submit()
	if question == "" {
		return nil
	}
	v.input.Reset()

	v.seq++
	v.thinking = true
	v.question = question
	v.err = nil
	v.status.SetState(status.StateThinking)

	req := domain.AskRequest{
		Query:      question,
		DocumentID: v.document.ID,
		K:          v.k,
		Rerank:     v.rerank,
	}
	return tea.Batch(v.spinner.Tick, v.ask(v.seq, req))
}

// ask returns a command that runs one question against the query service.
func (v *View) ask(seq int, req domain.AskRequest) tea.Cmd {
	ctx := v.ctx
	svc := v.queryService
	return func() tea.Msg {
		if svc == nil {
			return messages.AnswerReady{Seq: seq, Question: req.Query, Err: ErrNoQueryService}
		}
		answer, err := svc.Ask(ctx, req)
		return messages.AnswerReady{Seq: seq, Question: req.Query, Answer: answer, Err: err}
	}
}

func (v *View) handleAnswer(msg messages.AnswerReady) *View {
	if msg.Seq != v.seq {
		return v
	}
	v.thinking = false
	if msg.Err != nil {
		v.setError(msg.Err)
		return v
	}
	if msg.Answer == nil {
		msg.Answer = &domain.Answer{}
	}

	v.answer = msg.Answer
	v.sources.SetSources(msg.Answer.Sources)
	v.status.SetState(status.StateAnswered)
	v.status.SetSourceCount(len(msg.Answer.Sources))
	v.showAnswer()
	return v
}

func (v *View) setError(err error) {
	v.thinking = false
	v.err = err
	v.status.SetState(status.StateError)
	v.status.SetMessage(err.Error())
}

func (v *View) focusInput() tea.Cmd {
	v.focus = focusInput
	v.showAnswer()
	return v.input.Focus()
}

func (v *View) focusSources() {
	if v.sources.IsEmpty() {
		return
	}
	v.focus = focusSources
	v.input.Blur()
	v.showSelectedSource()
}

func (v *View) showAnswer() {
	if v.answer == nil {
		v.answerVP.SetContent("")
		return
	}
	var b strings.Builder
	b.WriteString(v.styles.Muted.Render("Q: " + v.question))
	b.WriteString("\n\n")
	b.WriteString(v.styles.Answer.Width(v.contentWidth()).Render(strings.TrimSpace(v.answer.Text)))
	v.answerVP.SetContent(b.String())
	v.answerVP.GotoTop()
}

func (v *View) showSelectedSource() {
	src := v.sources.SelectedSource()
	if src == nil {
		return
	}
	header := v.styles.SourceIndex.Render(fmt.Sprintf("[%d] ", v.sources.Selected()+1)) +
		v.styles.Muted.Render(src.ParagraphID)
	body := v.styles.Normal.Width(v.contentWidth()).Render(strings.TrimSpace(src.Text))
	v.answerVP.SetContent(header + "\n\n" + body)
	v.answerVP.GotoTop()
}

func (v *View) syncStatus() {
	name := ""
	if v.document != nil {
		name = v.document.Name
	}
	v.status.SetQuestionSettings(name, v.k, v.rerank)
}

func (v *View) contentWidth() int {
	if v.width < 24 {
		return 20
	}
	return v.width - 4
}

// View renders the ask view.
func (v *View) View() string {
	var b strings.Builder

	title := "Ask"
	if v.document != nil {
		title = fmt.Sprintf("Ask - %s", v.document.Name)
	}
	b.WriteString(v.styles.Title.Render(title))
	b.WriteString("\n\n")
	b.WriteString(v.input.View())
	b.WriteString("\n\n")

	switch {
	case v.thinking:
		b.WriteString(v.spinner.View() + " " + v.styles.Muted.Render("Thinking about: "+v.question))
		b.WriteString(strings.Repeat("\n", v.answerVP.Height))
	case v.err != nil:
		b.WriteString(v.styles.Error.Render(fmt.Sprintf("Error: %s", v.err.Error())))
		b.WriteString(strings.Repeat("\n", v.answerVP.Height))
	case v.answer == nil:
		b.WriteString(v.styles.Muted.Render("Type a question and press enter."))
		b.WriteString(strings.Repeat("\n", v.answerVP.Height))
	default:
		b.WriteString(v.answerVP.View())
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(v.sources.View())
	b.WriteString("\n")
	b.WriteString(v.status.View())
	return b.String()
}

// SetDimensions sets the view dimensions and lays out the components.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height

	v.input.SetWidth(width - 6)
	v.sources.SetDimensions(width, sourcesHeight)
	v.status.SetWidth(width)

	// title, input box, spacing, sources, status bar
	vpHeight := height - 2 - 5 - sourcesHeight - 2
	if vpHeight < 3 {
		vpHeight = 3
	}
	v.answerVP.Width = width
	v.answerVP.Height = vpHeight

	if v.focus == focusSources {
		v.showSelectedSource()
	} else {
		v.showAnswer()
	}
}

// Document returns the current document, or nil before one is set.
func (v *View) Document() *domain.Document {
	return v.document
}

// K returns the number of sources requested per question.
func (v *View) K() int {
	return v.k
}

// Rerank reports whether questions use a rerank pass.
func (v *View) Rerank() bool {
	return v.rerank
}

// Thinking reports whether a question is in flight.
func (v *View) Thinking() bool {
	return v.thinking
}

// Answer returns the last answer.
func (v *View) Answer() *domain.Answer {
	return v.answer
}

// Err returns the last error.
func (v *View) Err() error {
	return v.err
}

// SourcesFocused reports whether the source list has focus.
func (v *View) SourcesFocused() bool {
	return v.focus == focusSources
}

package ask

import (
	"context"
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/localrag/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/localrag/internal/core/domain"
)

// MockQueryService implements driving.QueryService for testing.
type MockQueryService struct {
	AskFunc func(ctx context.Context, req domain.AskRequest) (*domain.Answer, error)
	lastReq domain.AskRequest
}

func (m *MockQueryService) Retrieve(_ context.Context, _ string, _ int, _ string) (*domain.RetrievalResult, error) {
	return &domain.RetrievalResult{}, nil
}

func (m *MockQueryService) Sources(_ context.Context, _ []string) ([]domain.Source, error) {
	return nil, nil
}

func (m *MockQueryService) Rerank(_ context.Context, _ string, c []domain.Source) ([]domain.Source, error) {
	return c, nil
}

func (m *MockQueryService) Answer(_ context.Context, _, _ string) (string, error) {
	return "", nil
}

func (m *MockQueryService) Search(_ context.Context, _ domain.AskRequest) ([]domain.SearchResult, error) {
	return nil, nil
}

func (m *MockQueryService) Ask(ctx context.Context, req domain.AskRequest) (*domain.Answer, error) {
	m.lastReq = req
	if m.AskFunc != nil {
		return m.AskFunc(ctx, req)
	}
	return &domain.Answer{
		Text: "Thirty days per year.",
		Sources: []domain.Source{
			{ParagraphID: "p-1", Text: "Employees accrue thirty days of leave."},
			{ParagraphID: "p-2", Text: "Leave requests go through the portal."},
		},
	}, nil
}

func handbook() domain.Document {
	return domain.Document{ID: "doc-1", Name: "handbook", Strategy: domain.StrategySimple}
}

func typeText(v *View, text string) {
	for _, r := range text {
		v.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
}

func newAskView(svc *MockQueryService) *View {
	v := NewView(nil, nil, svc)
	v.SetDimensions(100, 40)
	v.SetDocument(handbook())
	return v
}

func TestNewView(t *testing.T) {
	v := NewView(nil, nil, &MockQueryService{})

	require.NotNil(t, v)
	assert.Nil(t, v.Document())
	assert.Equal(t, domain.DefaultK, v.K())
	assert.False(t, v.Rerank())
	assert.NotNil(t, v.Init())
}

func TestView_SetRetrieval(t *testing.T) {
	v := NewView(nil, nil, &MockQueryService{})

	v.SetRetrieval(0, true)
	assert.Equal(t, domain.DefaultK, v.K())
	assert.True(t, v.Rerank())

	v.SetRetrieval(50, false)
	assert.Equal(t, domain.MaxK, v.K())
}

func TestView_Submit_RunsAsk(t *testing.T) {
	svc := &MockQueryService{}
	v := newAskView(svc)
	v.SetRetrieval(3, true)

	typeText(v, "how much leave?")
	_, cmd := v.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	assert.True(t, v.Thinking())

	msg := v.ask(v.seq, domain.AskRequest{
		Query: "how much leave?", DocumentID: "doc-1", K: 3, Rerank: true,
	})()
	ready, ok := msg.(messages.AnswerReady)
	require.True(t, ok)
	require.NoError(t, ready.Err)
	assert.Equal(t, domain.AskRequest{Query: "how much leave?", DocumentID: "doc-1", K: 3, Rerank: true}, svc.lastReq)

	v.Update(ready)
	assert.False(t, v.Thinking())
	require.NotNil(t, v.Answer())
	assert.Equal(t, "Thirty days per year.", v.Answer().Text)

	view := v.View()
	assert.Contains(t, view, "Thirty days per year.")
	assert.Contains(t, view, "Sources (2)")
	assert.Contains(t, view, "Answered from 2 sources")
}

func TestView_Submit_BlankQuestion(t *testing.T) {
	v := newAskView(&MockQueryService{})
	typeText(v, "   ")

	_, cmd := v.Update(tea.KeyMsg{Type: tea.KeyEnter})

	assert.Nil(t, cmd)
	assert.False(t, v.Thinking())
}

func TestView_Submit_WithoutDocument(t *testing.T) {
	v := NewView(nil, nil, &MockQueryService{})
	typeText(v, "anything")

	_, cmd := v.Update(tea.KeyMsg{Type: tea.KeyEnter})

	assert.Nil(t, cmd)
}

func TestView_Submit_IgnoredWhileThinking(t *testing.T) {
	v := newAskView(&MockQueryService{})
	typeText(v, "first")
	v.Update(tea.KeyMsg{Type: tea.KeyEnter})

	typeText(v, "second")
	_, cmd := v.Update(tea.KeyMsg{Type: tea.KeyEnter})

	assert.Nil(t, cmd)
}

func TestView_StaleAnswerIsDropped(t *testing.T) {
	v := newAskView(&MockQueryService{})
	typeText(v, "first")
	v.Update(tea.KeyMsg{Type: tea.KeyEnter})
	stale := v.seq

	v.SetDocument(domain.Document{ID: "doc-2", Name: "manual"})
	v.Update(messages.AnswerReady{Seq: stale, Answer: &domain.Answer{Text: "old"}})

	assert.Nil(t, v.Answer())
	assert.Equal(t, "manual", v.Document().Name)
}

func TestView_AnswerError(t *testing.T) {
	svc := &MockQueryService{
		AskFunc: func(_ context.Context, _ domain.AskRequest) (*domain.Answer, error) {
			return nil, domain.ErrLLMService
		},
	}
	v := newAskView(svc)
	typeText(v, "why?")
	v.Update(tea.KeyMsg{Type: tea.KeyEnter})

	msg := v.ask(v.seq, svc.lastReq)()
	v.Update(msg)

	assert.False(t, v.Thinking())
	assert.True(t, errors.Is(v.Err(), domain.ErrLLMService))
	assert.Contains(t, v.View(), "Error:")
}

func TestView_Ask_NoService(t *testing.T) {
	v := NewView(nil, nil, nil)

	msg, ok := v.ask(1, domain.AskRequest{Query: "q"})().(messages.AnswerReady)

	require.True(t, ok)
	assert.ErrorIs(t, msg.Err, ErrNoQueryService)
}

func TestView_RetrievalKeys(t *testing.T) {
	v := newAskView(&MockQueryService{})

	v.Update(tea.KeyMsg{Type: tea.KeyCtrlR})
	assert.True(t, v.Rerank())

	v.Update(tea.KeyMsg{Type: tea.KeyCtrlN})
	assert.Equal(t, domain.DefaultK+1, v.K())

	for range 20 {
		v.Update(tea.KeyMsg{Type: tea.KeyCtrlP})
	}
	assert.Equal(t, 1, v.K())

	assert.Contains(t, v.View(), "k=1 rerank=on")
}

func TestView_Esc_ReturnsToDocuments(t *testing.T) {
	v := newAskView(&MockQueryService{})

	_, cmd := v.Update(tea.KeyMsg{Type: tea.KeyEsc})
	require.NotNil(t, cmd)

	assert.Equal(t, messages.ViewChanged{View: messages.ViewDocuments}, cmd())
}

func TestView_SourcesFocus(t *testing.T) {
	v := newAskView(&MockQueryService{})

	v.Update(tea.KeyMsg{Type: tea.KeyTab})
	assert.False(t, v.SourcesFocused(), "no sources to focus yet")

	v.Update(messages.AnswerReady{Seq: v.seq, Answer: &domain.Answer{
		Text: "answer",
		Sources: []domain.Source{
			{ParagraphID: "p-1", Text: "first source"},
			{ParagraphID: "p-2", Text: "second source"},
		},
	}})

	v.Update(tea.KeyMsg{Type: tea.KeyTab})
	require.True(t, v.SourcesFocused())

	v.Update(tea.KeyMsg{Type: tea.KeyDown})
	assert.Contains(t, v.View(), "second source")
	assert.Contains(t, v.View(), "p-2")

	v.Update(tea.KeyMsg{Type: tea.KeyEsc})
	assert.False(t, v.SourcesFocused())
	assert.Contains(t, v.View(), "answer")
}

func TestView_HistoryKeys(t *testing.T) {
	v := newAskView(&MockQueryService{})
	typeText(v, "earlier question")
	v.Update(tea.KeyMsg{Type: tea.KeyEnter})
	v.Update(messages.AnswerReady{Seq: v.seq, Answer: &domain.Answer{Text: "ok"}})

	v.Update(tea.KeyMsg{Type: tea.KeyUp})

	assert.Equal(t, "earlier question", v.input.Value())
}

func TestView_SetDocument_Resets(t *testing.T) {
	v := newAskView(&MockQueryService{})
	v.Update(messages.AnswerReady{Seq: v.seq, Answer: &domain.Answer{Text: "ok"}})

	v.SetDocument(domain.Document{ID: "doc-2", Name: "manual"})

	assert.Nil(t, v.Answer())
	assert.NoError(t, v.Err())
	assert.Contains(t, v.View(), "Ask - manual")
}

package list

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/localrag/internal/core/domain"
)

func testSources() []domain.Source {
	return []domain.Source{
		{ParagraphID: "p-1", Text: "Employees accrue thirty days of leave."},
		{ParagraphID: "p-2", Text: "Leave requests go\nthrough the portal."},
		{ParagraphID: "p-3", Text: "Unused leave expires in March."},
	}
}

func TestNewSourceList(t *testing.T) {
	l := NewSourceList(nil)

	require.NotNil(t, l)
	assert.True(t, l.IsEmpty())
	assert.Nil(t, l.SelectedSource())
	assert.Nil(t, l.Init())
}

func TestSourceList_View_Empty(t *testing.T) {
	l := NewSourceList(nil)

	assert.Contains(t, l.View(), "No sources")
}

func TestSourceList_View(t *testing.T) {
	l := NewSourceList(nil)
	l.SetDimensions(120, 10)
	l.SetSources(testSources())

	view := l.View()

	assert.Contains(t, view, "Sources (3)")
	assert.Contains(t, view, "[1]")
	assert.Contains(t, view, "[3]")
	assert.Contains(t, view, "Leave requests go through the portal.")
}

func TestSourceList_View_ScrollsToSelection(t *testing.T) {
	l := NewSourceList(nil)
	l.SetDimensions(120, 3)
	l.SetSources(testSources())

	l.MoveDown()
	l.MoveDown()
	view := l.View()

	assert.Contains(t, view, "[3]")
	assert.NotContains(t, view, "[1]")
}

func TestSourceList_Navigation(t *testing.T) {
	l := NewSourceList(nil)
	l.SetSources(testSources())

	l.MoveUp()
	assert.Equal(t, 0, l.Selected())

	l.Update(tea.KeyMsg{Type: tea.KeyDown})
	l.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'j'}})
	l.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'j'}})
	assert.Equal(t, 2, l.Selected())
	assert.Equal(t, "p-3", l.SelectedSource().ParagraphID)

	l.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'k'}})
	assert.Equal(t, 1, l.Selected())
}

func TestSourceList_SetSources_ResetsSelection(t *testing.T) {
	l := NewSourceList(nil)
	l.SetSources(testSources())
	l.MoveDown()

	l.SetSources(testSources()[:1])

	assert.Equal(t, 0, l.Selected())
	assert.Equal(t, 1, l.Count())
}

func TestPreview(t *testing.T) {
	assert.Equal(t, "a b c", Preview("a\n b\t\tc", 20))
	assert.Equal(t, "abcdefg...", Preview("abcdefghijklmnop", 10))
	assert.Equal(t, "ab", Preview("abcdef", 2))
	assert.Equal(t, "héllo", Preview("héllo", 5))
}

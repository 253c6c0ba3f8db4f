// Package messages defines Bubbletea message types for the TUI.
// Messages represent events and commands that flow through the Elm architecture.
package messages

import (
	"github.com/custodia-labs/localrag/internal/core/domain"
)

// ViewChanged is sent when navigating between views.
type ViewChanged struct {
	View ViewType
}

// ViewType identifies which view is currently active.
type ViewType int

const (
	// ViewDocuments is the document picker.
	ViewDocuments ViewType = iota
	// ViewAsk is the question and answer view for one document.
	ViewAsk
	// ViewHelp is the keybindings view.
	ViewHelp
)

// String returns the string representation of the view type.
func (v ViewType) String() string {
	switch v {
	case ViewDocuments:
		return "documents"
	case ViewAsk:
		return "ask"
	case ViewHelp:
		return "help"
	default:
		return "unknown"
	}
}

// ErrorOccurred signals that an error happened.
type ErrorOccurred struct {
	Err error
}

// Quit signals the application should exit.
type Quit struct{}

// DocumentsLoaded carries the stored documents.
type DocumentsLoaded struct {
	Documents []domain.Document
	Err       error
}

// DocumentSelected signals a document was picked for questions.
type DocumentSelected struct {
	Document domain.Document
}

// AskRequested is sent when a question is submitted.
type AskRequested struct {
	Request domain.AskRequest
}

// AnswerReady carries the outcome of a question. Seq matches the request
// that produced it so stale answers can be dropped.
type AnswerReady struct {
	Seq      int
	Question string
	Answer   *domain.Answer
	Err      error
}

// Package generate holds the state of one generate-review-save session and
// drives the API calls behind it.
package generate

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"unicode/utf8"

	"github.com/vytor/tenxcards/internal/client"
	"github.com/vytor/tenxcards/internal/logger"
	"github.com/vytor/tenxcards/internal/models"
	"github.com/vytor/tenxcards/internal/review"
	"github.com/vytor/tenxcards/internal/validation"
)

const (
	DefaultModel       = "openai/gpt-4"
	DefaultHourlyLimit = 10
)

var (
	// ErrInvalidText is returned by Generate when the source text is out of
	// bounds; no request is made.
	ErrInvalidText = errors.New("source text length out of bounds")
	ErrNotEditing  = errors.New("no proposal is being edited")
	ErrUnchanged   = errors.New("edit does not change the card")
)

// InvalidEditError reports field errors for a rejected edit.
type InvalidEditError struct {
	Fields validation.FieldValidation
}

func (e *InvalidEditError) Error() string {
	return fmt.Sprintf("invalid edit: front=%q back=%q", e.Fields.Front, e.Fields.Back)
}

// API is the part of the flashcards API the view calls.
type API interface {
	Generate(ctx context.Context, cmd models.CreateGenerationCommand) (*models.GenerationResponse, error)
	SaveBatch(ctx context.Context, cmd models.BatchCreateFlashcardsCommand) (*models.BatchCreateFlashcardsResponse, error)
}

var _ API = (*client.Client)(nil)

type State struct {
	SourceText      string
	TextLength      int
	IsGenerating    bool
	GenerationError string
	GenerationID    *int64
	Proposals       []review.Proposal
	IsSaving        bool
	SaveError       string
	EditingIndex    *int
}

// View serializes all state changes behind a mutex. API calls run outside
// the lock; the IsGenerating and IsSaving flags keep at most one of each in
// flight. Reset bumps epoch so responses to calls started before it are
// dropped.
type View struct {
	api         API
	model       string
	hourlyLimit int

	mu    sync.Mutex
	state State
	epoch uint64
}

func NewView(api API, model string) *View {
	if model == "" {
		model = DefaultModel
	}
	return &View{api: api, model: model, hourlyLimit: DefaultHourlyLimit}
}

// SetHourlyLimit sets the generation allowance quoted in rate-limit
// messages.
func (v *View) SetHourlyLimit(n int) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.hourlyLimit = n
}

func (v *View) SetText(text string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.state.SourceText = text
	v.state.TextLength = utf8.RuneCountInString(text)
	v.state.GenerationError = ""
}

// Generate requests proposals for the current text. It is a no-op while a
// generation is in flight. On failure the text is kept and GenerationError
// holds a user-facing message.
func (v *View) Generate(ctx context.Context) error {
	v.mu.Lock()
	if v.state.IsGenerating {
		v.mu.Unlock()
		return nil
	}
	if tv := validation.ValidateText(v.state.SourceText); !tv.IsValid {
		v.state.GenerationError = tv.Message
		v.mu.Unlock()
		return ErrInvalidText
	}
	v.state.IsGenerating = true
	v.state.GenerationError = ""
	v.state.Proposals = nil
	v.state.GenerationID = nil
	v.state.EditingIndex = nil
	cmd := models.CreateGenerationCommand{SourceText: v.state.SourceText, Model: v.model}
	epoch := v.epoch
	v.mu.Unlock()

	resp, err := v.api.Generate(ctx, cmd)

	v.mu.Lock()
	defer v.mu.Unlock()
	if epoch != v.epoch {
		logger.FromContext(ctx).Debug("dropping generation response after reset")
		return err
	}
	v.state.IsGenerating = false
	if err != nil {
		v.state.GenerationError = GenerationMessage(err, v.hourlyLimit)
		logger.FromContext(ctx).Warn("generation failed: %v", err)
		return err
	}
	id := resp.ID
	v.state.GenerationID = &id
	v.state.Proposals = review.FromProposed(resp.ProposedFlashcards)
	return nil
}

// Edit opens proposal i for editing. Out-of-range indexes are ignored.
func (v *View) Edit(i int) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if i < 0 || i >= len(v.state.Proposals) {
		return
	}
	v.state.EditingIndex = &i
}

func (v *View) CancelEdit() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.state.EditingIndex = nil
}

// SaveEdit commits the open edit and closes it. The edit stays open when
// the fields are invalid or nothing changed.
func (v *View) SaveEdit(front, back string) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.state.EditingIndex == nil {
		return ErrNotEditing
	}
	i := *v.state.EditingIndex
	if i >= len(v.state.Proposals) {
		v.state.EditingIndex = nil
		return ErrNotEditing
	}
	if fv := validation.ValidateFlashcard(front, back); !fv.IsValid() {
		return &InvalidEditError{Fields: fv}
	}
	if !review.CanSaveEdit(v.state.Proposals[i], front, back) {
		return ErrUnchanged
	}
	v.state.Proposals = review.ApplyEdit(v.state.Proposals, i, front, back)
	v.state.EditingIndex = nil
	return nil
}

func (v *View) Accept(i int) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.state.Proposals = review.ToggleAccept(v.state.Proposals, i)
}

func (v *View) Reject(i int) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.state.Proposals = review.Reject(v.state.Proposals, i)
}

// SaveAccepted persists accepted and edited proposals.
func (v *View) SaveAccepted(ctx context.Context) (*models.BatchCreateFlashcardsResponse, error) {
	return v.save(ctx, review.SelectAccepted)
}

// SaveAll persists every proposal, pending and rejected ones included.
func (v *View) SaveAll(ctx context.Context) (*models.BatchCreateFlashcardsResponse, error) {
	return v.save(ctx, review.SelectAll)
}

// save sends one batch. It returns nil, nil without calling the API when a
// save is in flight, there is no generation, or nothing is selected. A
// successful save resets the view.
func (v *View) save(ctx context.Context, selectFn func([]review.Proposal) []review.Proposal) (*models.BatchCreateFlashcardsResponse, error) {
	v.mu.Lock()
	if v.state.IsSaving || v.state.GenerationID == nil {
		v.mu.Unlock()
		return nil, nil
	}
	selected := selectFn(v.state.Proposals)
	if len(selected) == 0 {
		v.mu.Unlock()
		return nil, nil
	}
	v.state.IsSaving = true
	v.state.SaveError = ""
	cmd := models.BatchCreateFlashcardsCommand{
		GenerationID: *v.state.GenerationID,
		Flashcards:   review.ToBatchItems(selected),
	}
	epoch := v.epoch
	v.mu.Unlock()

	resp, err := v.api.SaveBatch(ctx, cmd)

	v.mu.Lock()
	defer v.mu.Unlock()
	if epoch != v.epoch {
		return resp, err
	}
	if err != nil {
		v.state.IsSaving = false
		v.state.SaveError = SaveMessage(err)
		logger.FromContext(ctx).Warn("saving %d flashcards failed: %v", len(cmd.Flashcards), err)
		return nil, err
	}
	v.reset()
	return resp, nil
}

// Reset clears the view. Calls still in flight no longer touch it.
func (v *View) Reset() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.reset()
}

func (v *View) reset() {
	v.state = State{}
	v.epoch++
}

// Snapshot returns a copy of the current state.
func (v *View) Snapshot() State {
	v.mu.Lock()
	defer v.mu.Unlock()
	s := v.state
	s.Proposals = append([]review.Proposal(nil), v.state.Proposals...)
	if v.state.GenerationID != nil {
		id := *v.state.GenerationID
		s.GenerationID = &id
	}
	if v.state.EditingIndex != nil {
		i := *v.state.EditingIndex
		s.EditingIndex = &i
	}
	return s
}

func (v *View) Counts() review.Counts {
	v.mu.Lock()
	defer v.mu.Unlock()
	return review.Summarize(v.state.Proposals)
}

func asFailure(err error) (*client.Failure, bool) {
	var f *client.Failure
	if errors.As(err, &f) {
		return f, true
	}
	return nil, false
}

package models

import "time"

// Flashcard sources.
const (
	SourceManual   = "manual"
	SourceAIFull   = "ai-full"
	SourceAIEdited = "ai-edited"
)

type Flashcard struct {
	ID           int64     `json:"id"`
	Front        string    `json:"front"`
	Back         string    `json:"back"`
	Source       string    `json:"source"`
	GenerationID *int64    `json:"generation_id"`
	UserID       string    `json:"user_id"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type FlashcardFilter struct {
	UserID       string
	Source       string
	GenerationID *int64
	Cursor       int64
	Limit        int
}

type Generation struct {
	ID                    int64     `json:"id"`
	UserID                string    `json:"user_id"`
	Model                 string    `json:"model"`
	GeneratedCount        int       `json:"generated_count"`
	AcceptedUneditedCount *int      `json:"accepted_unedited_count"`
	AcceptedEditedCount   *int      `json:"accepted_edited_count"`
	SourceTextHash        string    `json:"source_text_hash"`
	SourceTextLength      int       `json:"source_text_length"`
	GenerationDuration    int64     `json:"generation_duration"`
	CreatedAt             time.Time `json:"created_at"`
	UpdatedAt             time.Time `json:"updated_at"`
}

type GenerationErrorLog struct {
	ID               int64     `json:"id"`
	UserID           string    `json:"user_id"`
	Model            string    `json:"model"`
	SourceTextHash   string    `json:"source_text_hash"`
	SourceTextLength int       `json:"source_text_length"`
	ErrorCode        string    `json:"error_code"`
	ErrorMessage     string    `json:"error_message"`
	CreatedAt        time.Time `json:"created_at"`
}

// ProposedFlashcard is a card suggested by the LLM, not yet persisted.
type ProposedFlashcard struct {
	Front string `json:"front"`
	Back  string `json:"back"`
}

type GenerationResponse struct {
	Generation
	ProposedFlashcards []ProposedFlashcard `json:"proposed_flashcards"`
}

type CreateGenerationCommand struct {
	SourceText string `json:"source_text" validate:"required"`
	Model      string `json:"model" validate:"required"`
}

type CreateFlashcardCommand struct {
	Front string `json:"front" validate:"notblank,maxrunes=200"`
	Back  string `json:"back" validate:"notblank,maxrunes=500"`
}

type BatchFlashcardItem struct {
	Front  string `json:"front" validate:"notblank,maxrunes=200"`
	Back   string `json:"back" validate:"notblank,maxrunes=500"`
	Source string `json:"source" validate:"oneof=ai-full ai-edited"`
}

type BatchCreateFlashcardsCommand struct {
	GenerationID int64                `json:"generation_id" validate:"gt=0"`
	Flashcards   []BatchFlashcardItem `json:"flashcards" validate:"min=1,max=100,dive"`
}

type BatchCreateFlashcardsResponse struct {
	CreatedCount int         `json:"created_count"`
	Flashcards   []Flashcard `json:"flashcards"`
}

type Pagination struct {
	NextCursor *int64 `json:"next_cursor,omitempty"`
	HasMore    bool   `json:"has_more"`
}

type FlashcardList struct {
	Data       []Flashcard `json:"data"`
	Pagination Pagination  `json:"pagination"`
}

type SetSessionCommand struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

package validation

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// Source text bounds for generation, in characters.
const (
	MinTextLength = 1000
	MaxTextLength = 10000
)

// Flashcard field bounds, in characters.
const (
	MaxFrontLength = 200
	MaxBackLength  = 500
)

type MessageType string

const (
	MessageError   MessageType = "error"
	MessageSuccess MessageType = "success"
	MessageInfo    MessageType = "info"
)

type TextValidation struct {
	Length      int
	IsValid     bool
	IsTooShort  bool
	IsTooLong   bool
	Message     string
	MessageType MessageType
}

// ValidateText classifies the length of a generation source text. An empty
// text is the informational "awaiting input" state, neither too short nor
// too long.
func ValidateText(text string) TextValidation {
	length := utf8.RuneCountInString(text)
	v := TextValidation{
		Length:     length,
		IsTooShort: length > 0 && length < MinTextLength,
		IsTooLong:  length > MaxTextLength,
		IsValid:    length >= MinTextLength && length <= MaxTextLength,
	}

	switch {
	case v.IsTooShort:
		v.Message = fmt.Sprintf("Text is too short. Minimum %d characters. (currently: %d)", MinTextLength, length)
		v.MessageType = MessageError
	case v.IsTooLong:
		v.Message = fmt.Sprintf("Text is too long. Maximum %d characters. (currently: %d)", MaxTextLength, length)
		v.MessageType = MessageError
	case v.IsValid:
		v.Message = fmt.Sprintf("Text ready for generation (%d characters)", length)
		v.MessageType = MessageSuccess
	default:
		v.Message = fmt.Sprintf("Paste text to generate flashcards (%d-%d characters)", MinTextLength, MaxTextLength)
		v.MessageType = MessageInfo
	}
	return v
}

// FieldValidation holds independent error slots for both sides of a card.
type FieldValidation struct {
	Front string
	Back  string
}

func (v FieldValidation) IsValid() bool {
	return v.Front == "" && v.Back == ""
}

// ValidateFlashcard checks the front and back of a card. Both slots may be
// set at once.
func ValidateFlashcard(front, back string) FieldValidation {
	return FieldValidation{
		Front: checkField("Front", front, MaxFrontLength),
		Back:  checkField("Back", back, MaxBackLength),
	}
}

func checkField(name, value string, limit int) string {
	if strings.TrimSpace(value) == "" {
		return name + " is required"
	}
	if n := utf8.RuneCountInString(value); n > limit {
		return fmt.Sprintf("Maximum length: %d characters (currently: %d)", limit, n)
	}
	return ""
}

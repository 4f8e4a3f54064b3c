package generate

import (
	"fmt"

	"github.com/vytor/tenxcards/internal/client"
)

const unexpectedMessage = "An unexpected error occurred. Please try again."

const sessionExpiredMessage = "Your session has expired. Please sign in again."

// GenerationMessage turns a failed generation call into one sentence for
// the user. hourlyLimit is quoted in the rate-limit message.
func GenerationMessage(err error, hourlyLimit int) string {
	f, ok := asFailure(err)
	if !ok {
		return unexpectedMessage
	}
	switch f.Kind {
	case client.KindValidation:
		return "Invalid text length. Required: 1000-10000 characters."
	case client.KindGeneration:
		return "Failed to generate flashcards. Try again with a different text."
	case client.KindRateLimit:
		return fmt.Sprintf("Generation limit exceeded (%d per hour). Try again later.", hourlyLimit)
	case client.KindAuth:
		return sessionExpiredMessage
	case client.KindTimeout:
		return "Generation is taking too long. Check your internet connection."
	case client.KindNetwork:
		return "Check your internet connection and try again."
	case client.KindUnknown:
		return unexpectedMessage
	}
	if f.Message != "" {
		return f.Message
	}
	return "Something went wrong while generating flashcards."
}

// SaveMessage turns a failed batch save into one sentence for the user.
func SaveMessage(err error) string {
	f, ok := asFailure(err)
	if !ok {
		return unexpectedMessage
	}
	switch f.Kind {
	case client.KindValidation:
		return "Some flashcards contain invalid data. Check the content length."
	case client.KindNotFound:
		return "The generation does not exist or does not belong to you."
	case client.KindAuth:
		return sessionExpiredMessage
	case client.KindTimeout:
		return "Failed to save flashcards. Check your internet connection."
	case client.KindNetwork:
		return "Failed to save flashcards. Please try again."
	case client.KindUnknown:
		return unexpectedMessage
	}
	if f.Message != "" {
		return f.Message
	}
	return "Something went wrong while saving flashcards."
}

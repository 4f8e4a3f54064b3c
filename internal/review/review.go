// Package review holds the per-proposal accept/edit/reject state machine.
// Proposals are values; every transition returns a new slice and leaves its
// input untouched.
package review

import (
	"github.com/vytor/tenxcards/internal/models"
	"github.com/vytor/tenxcards/internal/validation"
)

type Action string

const (
	Pending  Action = "pending"
	Accepted Action = "accepted"
	Edited   Action = "edited"
	Rejected Action = "rejected"
)

type Card struct {
	Front string `json:"front"`
	Back  string `json:"back"`
}

type Proposal struct {
	Original Card   `json:"original"`
	Current  Card   `json:"current"`
	Action   Action `json:"action"`
	Index    int    `json:"index"`
}

// Counts is recomputed from the full list on every call.
type Counts struct {
	Accepted int // accepted or edited
	Edited   int
	Rejected int
	Pending  int
	Total    int
}

func FromProposed(proposed []models.ProposedFlashcard) []Proposal {
	out := make([]Proposal, len(proposed))
	for i, p := range proposed {
		c := Card{Front: p.Front, Back: p.Back}
		out[i] = Proposal{Original: c, Current: c, Action: Pending, Index: i}
	}
	return out
}

// ToggleAccept flips accepted back to pending. Any other state becomes
// accepted; an edited proposal keeps its edits, others are reset to the
// original content.
func ToggleAccept(list []Proposal, i int) []Proposal {
	return update(list, i, func(p Proposal) Proposal {
		if p.Action == Accepted {
			p.Action = Pending
			return p
		}
		if p.Action != Edited {
			p.Current = p.Original
		}
		p.Action = Accepted
		return p
	})
}

// Reject flips rejected back to pending and anything else to rejected.
// Current is never touched.
func Reject(list []Proposal, i int) []Proposal {
	return update(list, i, func(p Proposal) Proposal {
		if p.Action == Rejected {
			p.Action = Pending
		} else {
			p.Action = Rejected
		}
		return p
	})
}

func ApplyEdit(list []Proposal, i int, front, back string) []Proposal {
	return update(list, i, func(p Proposal) Proposal {
		p.Current = Card{Front: front, Back: back}
		p.Action = Edited
		return p
	})
}

// CanSaveEdit reports whether an edit form holding front/back may be
// committed: both fields valid and at least one differs from Current.
func CanSaveEdit(p Proposal, front, back string) bool {
	if !validation.ValidateFlashcard(front, back).IsValid() {
		return false
	}
	return front != p.Current.Front || back != p.Current.Back
}

func Summarize(list []Proposal) Counts {
	c := Counts{Total: len(list)}
	for _, p := range list {
		switch p.Action {
		case Accepted:
			c.Accepted++
		case Edited:
			c.Accepted++
			c.Edited++
		case Rejected:
			c.Rejected++
		default:
			c.Pending++
		}
	}
	return c
}

// SelectAccepted selects proposals that are accepted or edited.
func SelectAccepted(list []Proposal) []Proposal {
	var out []Proposal
	for _, p := range list {
		if p.Action == Accepted || p.Action == Edited {
			out = append(out, p)
		}
	}
	return out
}

// SelectAll selects every proposal, rejected ones included.
func SelectAll(list []Proposal) []Proposal {
	return append([]Proposal(nil), list...)
}

// ToBatchItems maps proposals to batch-save items using their current
// content.
func ToBatchItems(list []Proposal) []models.BatchFlashcardItem {
	items := make([]models.BatchFlashcardItem, len(list))
	for i, p := range list {
		source := models.SourceAIFull
		if p.Action == Edited {
			source = models.SourceAIEdited
		}
		items[i] = models.BatchFlashcardItem{Front: p.Current.Front, Back: p.Current.Back, Source: source}
	}
	return items
}

func update(list []Proposal, i int, fn func(Proposal) Proposal) []Proposal {
	out := append([]Proposal(nil), list...)
	if i < 0 || i >= len(out) {
		return out
	}
	out[i] = fn(out[i])
	return out
}

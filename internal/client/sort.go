package client

import (
	"slices"

	"notesapp/internal/note/model"
)

type Order string

const (
	OrderAsc  Order = "asc"
	OrderDesc Order = "desc"
)

// Toggle flips the order.
func (o Order) Toggle() Order {
	if o == OrderDesc {
		return OrderAsc
	}
	return OrderDesc
}

// SortNotes returns a copy of notes ordered by creation time. The input is
// left untouched.
func SortNotes(notes []model.Note, order Order) []model.Note {
	sorted := slices.Clone(notes)
	slices.SortStableFunc(sorted, func(a, b model.Note) int {
		if order == OrderDesc {
			return b.CreatedAt.Compare(a.CreatedAt)
		}
		return a.CreatedAt.Compare(b.CreatedAt)
	})
	return sorted
}

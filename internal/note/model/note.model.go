package model

import (
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

var (
	ErrNoteNotFound = errors.New("note not found")
	ErrEmptyText    = errors.New("note text cannot be empty")
	ErrTextTooLong  = errors.New("note text is too long")
)

// MaxTextLength bounds a note body in characters.
const MaxTextLength = 10000

var validate = validator.New(validator.WithRequiredStructEnabled())

type Note struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	UserID    string    `json:"user"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// OwnedBy reports whether userID is the note's owner. An empty userID never
// owns anything.
func (n Note) OwnedBy(userID string) bool {
	return userID != "" && n.UserID == userID
}

// NoteRequest is the body of create and update calls. Any other field the
// client sends, an owner included, is dropped while decoding.
type NoteRequest struct {
	Text string `json:"text" validate:"required,max=10000"`
}

// Validate checks the request without changing it. Text made only of
// whitespace counts as empty; the length limit applies to the text as sent.
func (r NoteRequest) Validate() error {
	if err := validate.Struct(NoteRequest{Text: strings.TrimSpace(r.Text)}); err != nil {
		return validationError(err)
	}
	if err := validate.Struct(r); err != nil {
		return validationError(err)
	}
	return nil
}

func validationError(err error) error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 && verrs[0].Tag() == "max" {
		return ErrTextTooLong
	}
	return ErrEmptyText
}

type DeleteNoteResponse struct {
	ID string `json:"id"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

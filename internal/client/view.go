package client

import (
	"context"
	"errors"
	"slices"
	"strings"
	"sync"
	"time"

	"notesapp/internal/note/model"
	"notesapp/socket"
)

type Status string

const (
	StatusIdle    Status = "idle"
	StatusLoading Status = "loading"
)

const emptyTextMessage = "Note text cannot be empty"

var ErrEmptyText = errors.New(strings.ToLower(emptyTextMessage))

// NotesAPI is the part of API the view needs.
type NotesAPI interface {
	ListNotes(ctx context.Context, token string) ([]model.Note, error)
	CreateNote(ctx context.Context, token, text string) (model.Note, error)
	UpdateNote(ctx context.Context, token, id, text string) (model.Note, error)
	DeleteNote(ctx context.Context, token, id string) error
}

// State is a snapshot of the view for rendering.
type State struct {
	Status     Status
	Error      string
	FetchError string
	Order      Order
	Notes      []model.Note
}

// NotesView holds the page state: the owner's notes, the submit status and
// the two error slots. Network calls run without holding the lock, so
// methods may be called from concurrent goroutines.
//
// Every Load and every successful mutation bumps a generation counter; a
// list response that arrives after a newer generation started is dropped,
// so a slow fetch cannot resurrect a note deleted meanwhile.
type NotesView struct {
	api NotesAPI
	now func() time.Time

	mu          sync.Mutex
	session     Session
	loadedToken string
	generation  uint64
	status      Status
	err         string
	fetchErr    string
	order       Order
	notes       []model.Note
}

func NewNotesView(api NotesAPI, session Session) *NotesView {
	return &NotesView{
		api:     api,
		now:     time.Now,
		session: session,
		status:  StatusIdle,
		order:   OrderAsc,
		notes:   []model.Note{},
	}
}

// SetSession swaps the session and reports whether the token changed, in
// which case the caller should Load again.
func (v *NotesView) SetSession(s Session) bool {
	v.mu.Lock()
	defer v.mu.Unlock()

	changed := s.Token != v.session.Token
	v.session = s
	if changed {
		v.notes = []model.Note{}
		v.fetchErr = ""
		v.err = ""
		v.generation++
	}
	return changed
}

func (v *NotesView) Session() Session {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.session
}

// NeedsLoad reports whether the list was never fetched for the current token.
func (v *NotesView) NeedsLoad() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.session.Token != "" && v.loadedToken != v.session.Token
}

// Load fetches the full list. On failure FetchError is set and the list
// already held is kept.
func (v *NotesView) Load(ctx context.Context) error {
	v.mu.Lock()
	v.generation++
	gen := v.generation
	token := v.session.Token
	v.mu.Unlock()

	notes, err := v.api.ListNotes(ctx, token)

	v.mu.Lock()
	defer v.mu.Unlock()

	if gen != v.generation {
		return nil
	}
	v.loadedToken = token
	if err != nil {
		v.fetchErr = statusText(err)
		return err
	}

	v.fetchErr = ""
	v.notes = notes
	return nil
}

// Submit creates a note from text. Blank text is refused before any
// request is sent.
func (v *NotesView) Submit(ctx context.Context, text string) (model.Note, error) {
	v.mu.Lock()
	if strings.TrimSpace(text) == "" {
		v.err = emptyTextMessage
		v.mu.Unlock()
		return model.Note{}, ErrEmptyText
	}
	v.status = StatusLoading
	v.err = ""
	token := v.session.Token
	v.mu.Unlock()

	note, err := v.api.CreateNote(ctx, token, text)

	v.mu.Lock()
	defer v.mu.Unlock()

	v.status = StatusIdle
	if err != nil {
		v.err = errorText(err)
		return model.Note{}, err
	}

	if note.CreatedAt.IsZero() {
		note.CreatedAt = v.now()
	}
	v.notes = upsert(v.notes, note)
	v.generation++
	return note, nil
}

// Update replaces the text of note id once the server confirms.
func (v *NotesView) Update(ctx context.Context, id, text string) (model.Note, error) {
	v.mu.Lock()
	if strings.TrimSpace(text) == "" {
		v.err = emptyTextMessage
		v.mu.Unlock()
		return model.Note{}, ErrEmptyText
	}
	v.status = StatusLoading
	v.err = ""
	token := v.session.Token
	v.mu.Unlock()

	note, err := v.api.UpdateNote(ctx, token, id, text)

	v.mu.Lock()
	defer v.mu.Unlock()

	v.status = StatusIdle
	if err != nil {
		v.err = errorText(err)
		return model.Note{}, err
	}

	notes := slices.Clone(v.notes)
	for i := range notes {
		if notes[i].ID == id {
			if note.CreatedAt.IsZero() {
				note.CreatedAt = notes[i].CreatedAt
			}
			notes[i] = note
		}
	}
	v.notes = notes
	v.generation++
	return note, nil
}

// Delete removes note id from the list after the server confirms. Errors
// land in the same slot as create errors.
func (v *NotesView) Delete(ctx context.Context, id string) error {
	v.mu.Lock()
	v.err = ""
	token := v.session.Token
	v.mu.Unlock()

	err := v.api.DeleteNote(ctx, token, id)

	v.mu.Lock()
	defer v.mu.Unlock()

	if err != nil {
		v.err = errorText(err)
		return err
	}

	v.notes = slices.DeleteFunc(slices.Clone(v.notes), func(n model.Note) bool { return n.ID == id })
	v.generation++
	return nil
}

// Apply folds a pushed change into the list without a refetch. Events for
// another user than the session's are ignored.
func (v *NotesView) Apply(ev socket.Event) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.session.User == nil || ev.UserID != v.session.User.ID {
		return
	}

	switch ev.Type {
	case socket.NoteDeletedType:
		v.notes = slices.DeleteFunc(slices.Clone(v.notes), func(n model.Note) bool { return n.ID == ev.Note.ID })
	case socket.NoteCreatedType, socket.NoteUpdatedType:
		v.notes = upsert(v.notes, ev.Note)
	default:
		return
	}
	v.generation++
}

func (v *NotesView) ToggleOrder() Order {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.order = v.order.Toggle()
	return v.order
}

// Sorted returns the notes in the current order as a new slice.
func (v *NotesView) Sorted() []model.Note {
	v.mu.Lock()
	defer v.mu.Unlock()
	return SortNotes(v.notes, v.order)
}

func (v *NotesView) State() State {
	v.mu.Lock()
	defer v.mu.Unlock()
	return State{
		Status:     v.status,
		Error:      v.err,
		FetchError: v.fetchErr,
		Order:      v.order,
		Notes:      SortNotes(v.notes, v.order),
	}
}

// upsert returns a new slice with note replacing any entry of the same id,
// or appended when there is none.
func upsert(notes []model.Note, note model.Note) []model.Note {
	out := slices.Clone(notes)
	for i := range out {
		if out[i].ID == note.ID {
			out[i] = note
			return out
		}
	}
	return append(out, note)
}

// statusText is what the list shows when a fetch fails: the HTTP status
// text for API answers, the transport error otherwise.
func statusText(err error) string {
	var serr *StatusError
	if errors.As(err, &serr) {
		return serr.Status
	}
	return err.Error()
}

func errorText(err error) string {
	var serr *StatusError
	if errors.As(err, &serr) {
		return serr.Error()
	}
	return err.Error()
}

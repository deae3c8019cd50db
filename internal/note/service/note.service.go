package service

import (
	"context"
	"fmt"
	"slices"

	"github.com/google/uuid"

	"notesapp/internal/note/model"
	"notesapp/internal/note/repository"
	"notesapp/pkg/logger"
	"notesapp/socket"
)

// EventPublisher receives an event after every successful mutation.
type EventPublisher interface {
	Publish(ev socket.Event)
}

type NoteService struct {
	Repo   *repository.NoteRepository
	Events EventPublisher
}

func NewNoteService(repo *repository.NoteRepository, events EventPublisher) *NoteService {
	return &NoteService{Repo: repo, Events: events}
}

func (s *NoteService) List(ctx context.Context, userID string) ([]model.Note, error) {
	notes, err := s.Repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("service list notes: %w", err)
	}

	before := len(notes)
	notes = slices.DeleteFunc(notes, func(n model.Note) bool { return !n.OwnedBy(userID) })
	if dropped := before - len(notes); dropped > 0 {
		logger.Sugar.Warnf("Dropped %d notes not owned by user %s from list", dropped, userID)
	}
	return notes, nil
}

func (s *NoteService) Get(ctx context.Context, userID, id string) (model.Note, error) {
	return s.owned(ctx, userID, id)
}

// Create stores a note owned by userID. The owner always comes from the
// authenticated caller, never from the request body.
func (s *NoteService) Create(ctx context.Context, userID string, req model.NoteRequest) (model.Note, error) {
	if err := req.Validate(); err != nil {
		return model.Note{}, err
	}

	note, err := s.Repo.Create(ctx, uuid.NewString(), userID, req.Text)
	if err != nil {
		return model.Note{}, fmt.Errorf("service create note: %w", err)
	}

	s.publish(socket.NoteCreatedType, note)
	return note, nil
}

func (s *NoteService) Update(ctx context.Context, userID, id string, req model.NoteRequest) (model.Note, error) {
	if err := req.Validate(); err != nil {
		return model.Note{}, err
	}

	if _, err := s.owned(ctx, userID, id); err != nil {
		return model.Note{}, err
	}

	note, err := s.Repo.UpdateText(ctx, id, req.Text)
	if err != nil {
		return model.Note{}, fmt.Errorf("service update note: %w", err)
	}

	s.publish(socket.NoteUpdatedType, note)
	return note, nil
}

func (s *NoteService) Delete(ctx context.Context, userID, id string) error {
	note, err := s.owned(ctx, userID, id)
	if err != nil {
		return err
	}

	if err := s.Repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("service delete note: %w", err)
	}

	s.publish(socket.NoteDeletedType, note)
	return nil
}

// owned loads note id and checks that userID owns it. A malformed id, a
// missing note and another user's note all yield model.ErrNoteNotFound.
func (s *NoteService) owned(ctx context.Context, userID, id string) (model.Note, error) {
	if _, err := uuid.Parse(id); err != nil {
		return model.Note{}, model.ErrNoteNotFound
	}

	note, err := s.Repo.Get(ctx, id)
	if err != nil {
		return model.Note{}, fmt.Errorf("service get note: %w", err)
	}

	if !note.OwnedBy(userID) {
		logger.Sugar.Warnf("User %s asked for note %s owned by someone else", userID, id)
		return model.Note{}, model.ErrNoteNotFound
	}

	return note, nil
}

func (s *NoteService) publish(eventType string, note model.Note) {
	if s.Events == nil {
		return
	}
	s.Events.Publish(socket.Event{Type: eventType, UserID: note.UserID, Note: note})
}

package router

import (
	"database/sql"
	"net/http"

	noteHandler "notesapp/internal/note"
	"notesapp/internal/note/repository"
	"notesapp/internal/note/service"
	"notesapp/middleware"
	"notesapp/socket"
)

type Options struct {
	DB            *sql.DB
	Hub           *socket.Hub
	Verifier      middleware.TokenVerifier
	AllowedOrigin string
}

func Setup(opts Options) http.Handler {
	mux := http.NewServeMux()

	noteRepo := repository.NewNoteRepository(opts.DB)
	noteService := service.NewNoteService(noteRepo, opts.Hub)
	h := noteHandler.NewNoteHandler(noteService, opts.Hub)
	auth := middleware.Gate(opts.Verifier)

	mux.Handle("GET /api/notes", auth(http.HandlerFunc(h.GetNotes)))
	mux.Handle("GET /api/notes/events", auth(http.HandlerFunc(h.Events)))
	mux.Handle("GET /api/notes/{id}", auth(http.HandlerFunc(h.GetNote)))
	mux.Handle("POST /api/notes", auth(http.HandlerFunc(h.CreateNote)))
	mux.Handle("PUT /api/notes/{id}", auth(http.HandlerFunc(h.UpdateNote)))
	mux.Handle("DELETE /api/notes/{id}", auth(http.HandlerFunc(h.DeleteNote)))

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	origin := opts.AllowedOrigin
	if origin == "" {
		origin = "*"
	}

	return middleware.CORS(origin)(middleware.RequestLog(mux))
}

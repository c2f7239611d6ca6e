package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// APIPrefix is the mount point of the workflow API.
const APIPrefix = "/api/v1"

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/health", s.handleHealth)
	r.Get("/stats", s.handleStats)

	r.Route(APIPrefix, func(r chi.Router) {
		r.Use(s.rateLimit, s.authenticate, s.limitBody)

		r.Get("/templates", s.handleTemplates)
		r.Post("/transcribe", s.handleTranscribe)
		r.Post("/stateless/{operation}", s.handleStateless)

		r.Post("/sessions", s.handleCreateSession)
		r.Route("/sessions/{id}", func(r chi.Router) {
			r.Get("/", s.handleGetSession)
			r.Delete("/", s.handleDeleteSession)
			r.Post("/resume", s.handleSubmitResume)
			r.Post("/chat/start", s.handleBeginImproveChat)
			r.Post("/chat/messages", s.handleSendChatMessage)
			r.Post("/interview/start", s.handleBeginInterview)
			r.Post("/interview/messages", s.handleSendInterviewMessage)
			r.Post("/interview/finish", s.handleFinishInterview)
			r.Post("/document", s.handleGenerateDocument)
			r.Post("/reset", s.handleReset)
		})
	})

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeErrorResponse(w, "NOT_FOUND", "no such endpoint", http.StatusNotFound)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeErrorResponse(w, "METHOD_NOT_ALLOWED", "method not allowed", http.StatusMethodNotAllowed)
	})
	return r
}

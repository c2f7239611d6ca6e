package server

import (
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"resumecoach/internal/errors"
	"resumecoach/internal/extract"
	"resumecoach/internal/parser"
	"resumecoach/internal/session"
	"resumecoach/internal/synth"
	"resumecoach/internal/workflow"
)

// MessageRequest carries one chat or interview message.
type MessageRequest struct {
	Message string `json:"message"`
}

// ResumeTextRequest submits a resume as plain text instead of a file.
type ResumeTextRequest struct {
	ResumeText     string `json:"resume_text"`
	JobDescription string `json:"job_description"`
}

// InterviewStartRequest starts the interview flow.
type InterviewStartRequest struct {
	JobDescription string `json:"job_description"`
}

// DocumentRequest selects the template to render.
type DocumentRequest struct {
	Template string `json:"template"`
}

// ResetRequest starts over.
type ResetRequest struct {
	KeepJobDescription bool `json:"keep_job_description"`
}

// SessionResponse is the client view of a session. The rendered document
// is reported but not inlined.
type SessionResponse struct {
	session.Session
	Mode                session.Mode `json:"mode"`
	HasDocument         bool         `json:"has_document"`
	CanGenerateDocument bool         `json:"can_generate_document"`
}

func newSessionResponse(s session.Session) SessionResponse {
	view := SessionResponse{
		Session:             s,
		Mode:                s.Mode(),
		HasDocument:         len(s.FinalDocument) > 0,
		CanGenerateDocument: s.CanGenerateDocument(),
	}
	view.FinalDocument = nil
	return view
}

// AnalysisResponse is returned by resume submission and interview finish.
type AnalysisResponse struct {
	parser.AnalysisResult
	State session.AppState `json:"state"`
}

// StartResponse carries the opening message of a chat or interview.
type StartResponse struct {
	Message string           `json:"message"`
	State   session.AppState `json:"state"`
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	sess, err := s.deps.Store.Create()
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, newSessionResponse(sess))
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sess, err := s.deps.Store.Get(chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newSessionResponse(sess))
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := s.deps.Store.Delete(chi.URLParam(r, "id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleSubmitResume accepts a multipart upload (file, job_description) or
// a JSON body with the resume text.
func (s *Server) handleSubmitResume(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var submit func(session.Session) (session.Session, parser.AnalysisResult, error)

	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		upload, err := s.readUpload(r, "file")
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		jobDescription := r.FormValue("job_description")
		submit = func(cur session.Session) (session.Session, parser.AnalysisResult, error) {
			return s.deps.Machine.SubmitResume(ctx, cur, upload, jobDescription)
		}
	} else {
		var req ResumeTextRequest
		if err := parseJSONRequest(r, &req); err != nil {
			s.writeError(w, r, err)
			return
		}
		submit = func(cur session.Session) (session.Session, parser.AnalysisResult, error) {
			return s.deps.Machine.SubmitResumeText(ctx, cur, req.ResumeText, req.JobDescription)
		}
	}

	var result parser.AnalysisResult
	sess, err := s.deps.Store.Update(chi.URLParam(r, "id"), func(cur session.Session) (session.Session, error) {
		next, res, err := submit(cur)
		result = res
		return next, err
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, AnalysisResponse{AnalysisResult: result, State: sess.State})
}

func (s *Server) handleBeginImproveChat(w http.ResponseWriter, r *http.Request) {
	var message string
	sess, err := s.deps.Store.Update(chi.URLParam(r, "id"), func(cur session.Session) (session.Session, error) {
		next, msg, err := s.deps.Machine.BeginImproveChat(r.Context(), cur)
		message = msg
		return next, err
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, StartResponse{Message: message, State: sess.State})
}

func (s *Server) handleSendChatMessage(w http.ResponseWriter, r *http.Request) {
	var req MessageRequest
	if err := parseJSONRequest(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	var reply workflow.ChatReply
	_, err := s.deps.Store.Update(chi.URLParam(r, "id"), func(cur session.Session) (session.Session, error) {
		next, rep, err := s.deps.Machine.SendChatMessage(r.Context(), cur, req.Message)
		reply = rep
		return next, err
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, reply)
}

func (s *Server) handleBeginInterview(w http.ResponseWriter, r *http.Request) {
	var req InterviewStartRequest
	if err := parseJSONRequest(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	var message string
	sess, err := s.deps.Store.Update(chi.URLParam(r, "id"), func(cur session.Session) (session.Session, error) {
		next, msg, err := s.deps.Machine.BeginInterview(r.Context(), cur, req.JobDescription)
		message = msg
		return next, err
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, StartResponse{Message: message, State: sess.State})
}

func (s *Server) handleSendInterviewMessage(w http.ResponseWriter, r *http.Request) {
	var req MessageRequest
	if err := parseJSONRequest(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	var reply workflow.InterviewReply
	_, err := s.deps.Store.Update(chi.URLParam(r, "id"), func(cur session.Session) (session.Session, error) {
		next, rep, err := s.deps.Machine.SendInterviewMessage(r.Context(), cur, req.Message)
		reply = rep
		return next, err
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, reply)
}

func (s *Server) handleFinishInterview(w http.ResponseWriter, r *http.Request) {
	var result parser.AnalysisResult
	sess, err := s.deps.Store.Update(chi.URLParam(r, "id"), func(cur session.Session) (session.Session, error) {
		next, res, err := s.deps.Machine.FinishInterview(r.Context(), cur)
		result = res
		return next, err
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, AnalysisResponse{AnalysisResult: result, State: sess.State})
}

func (s *Server) handleGenerateDocument(w http.ResponseWriter, r *http.Request) {
	var req DocumentRequest
	if err := parseJSONRequest(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	var doc synth.Document
	_, err := s.deps.Store.Update(chi.URLParam(r, "id"), func(cur session.Session) (session.Session, error) {
		next, d, err := s.deps.Machine.GenerateDocument(r.Context(), cur, req.Template)
		doc = d
		return next, err
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", doc.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", doc.Filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(doc.Bytes)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(doc.Bytes); err != nil {
		s.logger.LogError(err, "Failed to write document", "session_id", chi.URLParam(r, "id"))
	}
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	var req ResetRequest
	if err := parseJSONRequest(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	sess, err := s.deps.Store.Update(chi.URLParam(r, "id"), func(cur session.Session) (session.Session, error) {
		return s.deps.Machine.Reset(cur, req.KeepJobDescription), nil
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newSessionResponse(sess))
}

// readUpload reads one multipart file field into memory.
func (s *Server) readUpload(r *http.Request, field string) (extract.Upload, error) {
	if err := r.ParseMultipartForm(s.maxRequestSize); err != nil {
		var maxBytesErr *http.MaxBytesError
		if stderrors.As(err, &maxBytesErr) || strings.Contains(err.Error(), "too large") {
			return extract.Upload{}, errors.NewValidationError(errors.ErrCodeFileTooLarge, "upload exceeds the size limit", err).
				WithContext("limit_bytes", s.maxRequestSize)
		}
		return extract.Upload{}, errors.NewValidationError(errors.ErrCodeInvalidRequest, "failed to parse multipart form", err)
	}

	file, header, err := r.FormFile(field)
	if err != nil {
		return extract.Upload{}, errors.NewValidationError(errors.ErrCodeInvalidRequest,
			fmt.Sprintf("multipart field %q is required", field), err)
	}
	defer func() {
		if err := file.Close(); err != nil {
			s.logger.LogError(err, "Failed to close upload")
		}
	}()

	data, err := io.ReadAll(file)
	if err != nil {
		return extract.Upload{}, errors.NewIOError(errors.ErrCodeFileNotReadable, "failed to read upload", err)
	}
	return extract.Upload{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Data:        data,
	}, nil
}

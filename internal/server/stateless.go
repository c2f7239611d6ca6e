package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"resumecoach/internal/errors"
	"resumecoach/internal/extract"
	"resumecoach/internal/session"
	"resumecoach/internal/workflow"
)

// StatelessRequest carries the whole session snapshot, so that no server
// state is needed between calls. Only the fields the operation reads are
// used.
type StatelessRequest struct {
	Session            *session.Session `json:"session"`
	Message            string           `json:"message,omitempty"`
	JobDescription     string           `json:"job_description,omitempty"`
	ResumeText         string           `json:"resume_text,omitempty"`
	ResumeFile         []byte           `json:"resume_file,omitempty"`
	Filename           string           `json:"filename,omitempty"`
	ContentType        string           `json:"content_type,omitempty"`
	Template           string           `json:"template,omitempty"`
	KeepJobDescription bool             `json:"keep_job_description,omitempty"`
}

// StatelessResponse returns the next snapshot with the operation's result.
type StatelessResponse struct {
	Session session.Session `json:"session"`
	Result  any             `json:"result,omitempty"`
}

// StatelessDocument is the result of generate_document. The PDF is base64
// encoded by the JSON encoder.
type StatelessDocument struct {
	Text        string           `json:"text"`
	Template    session.Template `json:"template"`
	Filename    string           `json:"filename"`
	ContentType string           `json:"content_type"`
	PDF         []byte           `json:"pdf"`
}

type statelessOperation func(ctx context.Context, m *workflow.Machine, s session.Session, req StatelessRequest) (session.Session, any, error)

var statelessOperations = map[string]statelessOperation{
	workflow.OpSubmitResume: func(ctx context.Context, m *workflow.Machine, s session.Session, req StatelessRequest) (session.Session, any, error) {
		if len(req.ResumeFile) > 0 {
			upload := extract.Upload{Filename: req.Filename, ContentType: req.ContentType, Data: req.ResumeFile}
			next, result, err := m.SubmitResume(ctx, s, upload, req.JobDescription)
			return next, AnalysisResponse{AnalysisResult: result, State: next.State}, err
		}
		next, result, err := m.SubmitResumeText(ctx, s, req.ResumeText, req.JobDescription)
		return next, AnalysisResponse{AnalysisResult: result, State: next.State}, err
	},
	workflow.OpBeginImproveChat: func(ctx context.Context, m *workflow.Machine, s session.Session, _ StatelessRequest) (session.Session, any, error) {
		next, msg, err := m.BeginImproveChat(ctx, s)
		return next, StartResponse{Message: msg, State: next.State}, err
	},
	workflow.OpSendChatMessage: func(ctx context.Context, m *workflow.Machine, s session.Session, req StatelessRequest) (session.Session, any, error) {
		next, reply, err := m.SendChatMessage(ctx, s, req.Message)
		return next, reply, err
	},
	workflow.OpBeginInterview: func(ctx context.Context, m *workflow.Machine, s session.Session, req StatelessRequest) (session.Session, any, error) {
		next, msg, err := m.BeginInterview(ctx, s, req.JobDescription)
		return next, StartResponse{Message: msg, State: next.State}, err
	},
	workflow.OpSendInterviewMessage: func(ctx context.Context, m *workflow.Machine, s session.Session, req StatelessRequest) (session.Session, any, error) {
		next, reply, err := m.SendInterviewMessage(ctx, s, req.Message)
		return next, reply, err
	},
	workflow.OpFinishInterview: func(ctx context.Context, m *workflow.Machine, s session.Session, _ StatelessRequest) (session.Session, any, error) {
		next, result, err := m.FinishInterview(ctx, s)
		return next, AnalysisResponse{AnalysisResult: result, State: next.State}, err
	},
	workflow.OpGenerateDocument: func(ctx context.Context, m *workflow.Machine, s session.Session, req StatelessRequest) (session.Session, any, error) {
		next, doc, err := m.GenerateDocument(ctx, s, req.Template)
		if err != nil {
			return next, nil, err
		}
		next.FinalDocument = nil
		return next, StatelessDocument{
			Text:        doc.Text,
			Template:    doc.Template,
			Filename:    doc.Filename,
			ContentType: doc.ContentType,
			PDF:         doc.Bytes,
		}, nil
	},
	workflow.OpReset: func(_ context.Context, m *workflow.Machine, s session.Session, req StatelessRequest) (session.Session, any, error) {
		return m.Reset(s, req.KeepJobDescription), nil, nil
	},
}

// handleStateless runs one operation against a client-held snapshot.
func (s *Server) handleStateless(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "operation")
	op, ok := statelessOperations[name]
	if !ok {
		writeErrorResponse(w, errors.ErrCodeInvalidRequest, fmt.Sprintf("unknown operation %q", name), http.StatusNotFound)
		return
	}

	var req StatelessRequest
	if err := parseJSONRequest(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	current := session.New(time.Now())
	if req.Session != nil {
		if err := req.Session.Validate(); err != nil {
			s.writeError(w, r, errors.NewValidationError(errors.ErrCodeInvalidRequest, "invalid session snapshot: "+err.Error(), err))
			return
		}
		current = req.Session.Clone()
	}

	next, result, err := op(r.Context(), s.deps.Machine, current, req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, StatelessResponse{Session: next, Result: result})
}

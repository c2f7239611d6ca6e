package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	mcpgo "github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"resumecoach/internal/errors"
	"resumecoach/internal/extract"
	"resumecoach/internal/parser"
	"resumecoach/internal/session"
	"resumecoach/internal/synth"
	"resumecoach/internal/utils"
)

// sessionView is what tools report about a session.
type sessionView struct {
	ID                  string            `json:"id"`
	State               session.AppState  `json:"app_state"`
	Mode                session.Mode      `json:"mode"`
	ATSScore            int               `json:"ats_score,omitempty"`
	TotalWeaknesses     int               `json:"total_weaknesses"`
	WeaknessesCovered   int               `json:"weaknesses_covered"`
	AnalysisSummary     string            `json:"analysis_summary,omitempty"`
	InterviewTurns      int               `json:"interview_turns,omitempty"`
	SelectedTemplate    session.Template  `json:"selected_template"`
	CanGenerateDocument bool              `json:"can_generate_document"`
	History             []session.Message `json:"history"`
}

func viewOf(s session.Session) sessionView {
	return sessionView{
		ID:                  s.ID,
		State:               s.State,
		Mode:                s.Mode(),
		ATSScore:            s.ATSScore,
		TotalWeaknesses:     s.TotalWeaknesses,
		WeaknessesCovered:   s.WeaknessesCovered,
		AnalysisSummary:     s.AnalysisSummary,
		InterviewTurns:      s.InterviewTurns,
		SelectedTemplate:    s.SelectedTemplate,
		CanGenerateDocument: s.CanGenerateDocument(),
		History:             s.ActiveHistory(),
	}
}

func createSession(deps Deps) server.ToolHandlerFunc {
	return func(_ context.Context, _ mcpgo.CallToolRequest) (*mcpgo.CallToolResult, error) {
		s, err := deps.Store.Create()
		if err != nil {
			return toolError(err), nil
		}
		return toolJSON(viewOf(s)), nil
	}
}

func getSession(deps Deps) server.ToolHandlerFunc {
	return func(_ context.Context, req mcpgo.CallToolRequest) (*mcpgo.CallToolResult, error) {
		id, err := req.RequireString("session_id")
		if err != nil {
			return mcpError("session_id is required"), nil
		}
		s, err := deps.Store.Get(id)
		if err != nil {
			return toolError(err), nil
		}
		return toolJSON(viewOf(s)), nil
	}
}

func submitResume(deps Deps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcpgo.CallToolRequest) (*mcpgo.CallToolResult, error) {
		id, err := req.RequireString("session_id")
		if err != nil {
			return mcpError("session_id is required"), nil
		}
		path := req.GetString("path", "")
		text := req.GetString("resume_text", "")
		jd := req.GetString("job_description", "")
		if path == "" && text == "" {
			return mcpError("either path or resume_text is required"), nil
		}

		var upload extract.Upload
		if path != "" {
			if err := utils.ValidateInputFile(path); err != nil {
				return mcpError(err.Error()), nil
			}
			data, err := os.ReadFile(path)
			if err != nil {
				return mcpError(fmt.Sprintf("failed to read %s: %v", path, err)), nil
			}
			upload = extract.Upload{Filename: filepath.Base(path), Data: data}
		}

		var result parser.AnalysisResult
		s, err := deps.Store.Update(id, func(cur session.Session) (session.Session, error) {
			var next session.Session
			var err error
			if path != "" {
				next, result, err = deps.Machine.SubmitResume(ctx, cur, upload, jd)
			} else {
				next, result, err = deps.Machine.SubmitResumeText(ctx, cur, text, jd)
			}
			return next, err
		})
		if err != nil {
			return toolError(err), nil
		}
		return toolJSON(map[string]any{"analysis": result, "session": viewOf(s)}), nil
	}
}

func beginImproveChat(deps Deps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcpgo.CallToolRequest) (*mcpgo.CallToolResult, error) {
		id, err := req.RequireString("session_id")
		if err != nil {
			return mcpError("session_id is required"), nil
		}
		var message string
		s, err := deps.Store.Update(id, func(cur session.Session) (session.Session, error) {
			next, msg, err := deps.Machine.BeginImproveChat(ctx, cur)
			message = msg
			return next, err
		})
		if err != nil {
			return toolError(err), nil
		}
		return toolJSON(map[string]any{"message": message, "state": s.State}), nil
	}
}

func sendChatMessage(deps Deps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcpgo.CallToolRequest) (*mcpgo.CallToolResult, error) {
		id, err := req.RequireString("session_id")
		if err != nil {
			return mcpError("session_id is required"), nil
		}
		message, err := req.RequireString("message")
		if err != nil {
			return mcpError("message is required"), nil
		}

		var reply any
		_, err = deps.Store.Update(id, func(cur session.Session) (session.Session, error) {
			next, r, err := deps.Machine.SendChatMessage(ctx, cur, message)
			reply = r
			return next, err
		})
		if err != nil {
			return toolError(err), nil
		}
		return toolJSON(reply), nil
	}
}

func beginInterview(deps Deps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcpgo.CallToolRequest) (*mcpgo.CallToolResult, error) {
		id, err := req.RequireString("session_id")
		if err != nil {
			return mcpError("session_id is required"), nil
		}
		jd := req.GetString("job_description", "")

		var message string
		s, err := deps.Store.Update(id, func(cur session.Session) (session.Session, error) {
			next, msg, err := deps.Machine.BeginInterview(ctx, cur, jd)
			message = msg
			return next, err
		})
		if err != nil {
			return toolError(err), nil
		}
		return toolJSON(map[string]any{"message": message, "state": s.State}), nil
	}
}

func sendInterviewMessage(deps Deps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcpgo.CallToolRequest) (*mcpgo.CallToolResult, error) {
		id, err := req.RequireString("session_id")
		if err != nil {
			return mcpError("session_id is required"), nil
		}
		message, err := req.RequireString("message")
		if err != nil {
			return mcpError("message is required"), nil
		}

		var reply any
		_, err = deps.Store.Update(id, func(cur session.Session) (session.Session, error) {
			next, r, err := deps.Machine.SendInterviewMessage(ctx, cur, message)
			reply = r
			return next, err
		})
		if err != nil {
			return toolError(err), nil
		}
		return toolJSON(reply), nil
	}
}

func finishInterview(deps Deps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcpgo.CallToolRequest) (*mcpgo.CallToolResult, error) {
		id, err := req.RequireString("session_id")
		if err != nil {
			return mcpError("session_id is required"), nil
		}
		var result parser.AnalysisResult
		s, err := deps.Store.Update(id, func(cur session.Session) (session.Session, error) {
			next, res, err := deps.Machine.FinishInterview(ctx, cur)
			result = res
			return next, err
		})
		if err != nil {
			return toolError(err), nil
		}
		return toolJSON(map[string]any{"analysis": result, "session": viewOf(s)}), nil
	}
}

func generateDocument(deps Deps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcpgo.CallToolRequest) (*mcpgo.CallToolResult, error) {
		id, err := req.RequireString("session_id")
		if err != nil {
			return mcpError("session_id is required"), nil
		}
		outputPath, err := req.RequireString("output_path")
		if err != nil {
			return mcpError("output_path is required"), nil
		}
		if err := utils.ValidateOutputFile(outputPath); err != nil {
			return mcpError(err.Error()), nil
		}
		templateName := req.GetString("template", "")

		var doc synth.Document
		_, err = deps.Store.Update(id, func(cur session.Session) (session.Session, error) {
			next, d, err := deps.Machine.GenerateDocument(ctx, cur, templateName)
			doc = d
			return next, err
		})
		if err != nil {
			return toolError(err), nil
		}

		if err := os.WriteFile(outputPath, doc.Bytes, 0644); err != nil {
			return mcpError(fmt.Sprintf("rendered the resume but failed to write %s: %v", outputPath, err)), nil
		}
		deps.Logger.Info("Resume written", "session_id", id, "path", outputPath, "template", doc.Template)
		return toolJSON(map[string]any{
			"path":     outputPath,
			"template": doc.Template,
			"bytes":    len(doc.Bytes),
			"text":     doc.Text,
		}), nil
	}
}

func resetSession(deps Deps) server.ToolHandlerFunc {
	return func(_ context.Context, req mcpgo.CallToolRequest) (*mcpgo.CallToolResult, error) {
		id, err := req.RequireString("session_id")
		if err != nil {
			return mcpError("session_id is required"), nil
		}
		keep := req.GetBool("keep_job_description", false)

		s, err := deps.Store.Update(id, func(cur session.Session) (session.Session, error) {
			return deps.Machine.Reset(cur, keep), nil
		})
		if err != nil {
			return toolError(err), nil
		}
		return toolJSON(viewOf(s)), nil
	}
}

func listTemplates() server.ToolHandlerFunc {
	return func(_ context.Context, req mcpgo.CallToolRequest) (*mcpgo.CallToolResult, error) {
		return toolJSON(synth.Catalog(req.GetBool("with_skeleton", false))), nil
	}
}

func toolJSON(v any) *mcpgo.CallToolResult {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcpError(fmt.Sprintf("failed to marshal result: %v", err))
	}
	return mcpText(string(b))
}

// toolError reports err as a tool failure, prefixed with its code so the
// assistant can tell retryable engine errors from invalid requests.
func toolError(err error) *mcpgo.CallToolResult {
	if appErr, ok := errors.As(err); ok {
		return mcpError(fmt.Sprintf("%s: %s", appErr.Code, appErr.Message))
	}
	return mcpError(err.Error())
}

func mcpText(text string) *mcpgo.CallToolResult {
	return &mcpgo.CallToolResult{
		Content: []mcpgo.Content{
			mcpgo.TextContent{Type: "text", Text: text},
		},
	}
}

func mcpError(msg string) *mcpgo.CallToolResult {
	return &mcpgo.CallToolResult{
		Content: []mcpgo.Content{
			mcpgo.TextContent{Type: "text", Text: msg},
		},
		IsError: true,
	}
}

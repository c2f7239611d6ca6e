// Package mcp exposes the resume workflow as Model Context Protocol tools,
// so that an assistant can drive a coaching session on the user's behalf.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	mcpgo "github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"resumecoach/internal/errors"
	"resumecoach/internal/session"
	"resumecoach/internal/synth"
	"resumecoach/internal/workflow"
)

const templatesURI = "resumecoach://templates"

// Deps holds the collaborators of the MCP tools.
type Deps struct {
	Machine *workflow.Machine
	Store   *session.Store
	Logger  *errors.Logger
}

// NewServer creates an MCP server with every workflow tool registered.
func NewServer(deps Deps, version string) *server.MCPServer {
	s := server.NewMCPServer(
		"resumecoach",
		version,
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(false, false),
		server.WithInstructions("resumecoach analyzes a resume, coaches the user through fixing its weaknesses "+
			"(or interviews them to build one from scratch) and renders the result as a PDF. "+
			"Create a session first and pass its id to every other tool."),
		server.WithRecovery(),
	)

	sessionID := mcpgo.WithString("session_id", mcpgo.Description("Id returned by create_session"), mcpgo.Required())

	s.AddTool(
		mcpgo.NewTool("create_session",
			mcpgo.WithDescription("Start a new coaching session in the upload state."),
		),
		createSession(deps),
	)

	s.AddTool(
		mcpgo.NewTool("get_session",
			mcpgo.WithDescription("Return the current state, counters and chat history of a session."),
			sessionID,
		),
		getSession(deps),
	)

	s.AddTool(
		mcpgo.NewTool("submit_resume",
			mcpgo.WithDescription("Extract the resume text (from a file path or inline text) and run the initial analysis."),
			sessionID,
			mcpgo.WithString("path", mcpgo.Description("Path of a .pdf, .docx, .txt, .md or image file")),
			mcpgo.WithString("resume_text", mcpgo.Description("Resume text, used when no path is given")),
			mcpgo.WithString("job_description", mcpgo.Description("Optional target job description")),
		),
		submitResume(deps),
	)

	s.AddTool(
		mcpgo.NewTool("begin_improve_chat",
			mcpgo.WithDescription("Open the guided chat that works through the weaknesses found by the analysis."),
			sessionID,
		),
		beginImproveChat(deps),
	)

	s.AddTool(
		mcpgo.NewTool("send_chat_message",
			mcpgo.WithDescription("Send the user's answer in the guided chat."),
			sessionID,
			mcpgo.WithString("message", mcpgo.Description("The user's message"), mcpgo.Required()),
		),
		sendChatMessage(deps),
	)

	s.AddTool(
		mcpgo.NewTool("begin_interview",
			mcpgo.WithDescription("Build a resume from scratch by interview instead of uploading one."),
			sessionID,
			mcpgo.WithString("job_description", mcpgo.Description("Optional target job description")),
		),
		beginInterview(deps),
	)

	s.AddTool(
		mcpgo.NewTool("send_interview_message",
			mcpgo.WithDescription("Answer the current interview question."),
			sessionID,
			mcpgo.WithString("message", mcpgo.Description("The user's answer"), mcpgo.Required()),
		),
		sendInterviewMessage(deps),
	)

	s.AddTool(
		mcpgo.NewTool("finish_interview",
			mcpgo.WithDescription("Turn the interview into a resume draft and analyze it."),
			sessionID,
		),
		finishInterview(deps),
	)

	s.AddTool(
		mcpgo.NewTool("generate_document",
			mcpgo.WithDescription("Write the improved resume as a PDF once every weakness is resolved."),
			sessionID,
			mcpgo.WithString("template", mcpgo.Description("Layout to use"),
				mcpgo.Enum(string(session.TemplateClassic), string(session.TemplateModern), string(session.TemplateSkillsFirst))),
			mcpgo.WithString("output_path", mcpgo.Description("Where to write the PDF"), mcpgo.Required()),
		),
		generateDocument(deps),
	)

	s.AddTool(
		mcpgo.NewTool("reset_session",
			mcpgo.WithDescription("Discard the session's progress and return it to the upload state."),
			sessionID,
			mcpgo.WithBoolean("keep_job_description", mcpgo.Description("Keep the job description for the next attempt")),
		),
		resetSession(deps),
	)

	s.AddTool(
		mcpgo.NewTool("list_templates",
			mcpgo.WithDescription("List the available resume layouts."),
			mcpgo.WithBoolean("with_skeleton", mcpgo.Description("Include each layout's section skeleton")),
		),
		listTemplates(),
	)

	s.AddResource(
		mcpgo.NewResource(templatesURI, "Resume Templates",
			mcpgo.WithResourceDescription("Available resume layouts with their section skeletons"),
			mcpgo.WithMIMEType("application/json"),
		),
		templatesResource(),
	)

	return s
}

// ServeStdio serves s over stdin/stdout until ctx is cancelled.
func ServeStdio(ctx context.Context, s *server.MCPServer, in io.Reader, out io.Writer) error {
	return server.NewStdioServer(s).Listen(ctx, in, out)
}

func templatesResource() server.ResourceHandlerFunc {
	return func(_ context.Context, req mcpgo.ReadResourceRequest) ([]mcpgo.ResourceContents, error) {
		b, err := json.Marshal(synth.Catalog(true))
		if err != nil {
			return nil, fmt.Errorf("failed to marshal templates: %w", err)
		}
		return []mcpgo.ResourceContents{
			mcpgo.TextResourceContents{
				URI:      req.Params.URI,
				MIMEType: "application/json",
				Text:     string(b),
			},
		}, nil
	}
}

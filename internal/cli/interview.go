package cli

import (
	stderrors "errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"resumecoach/internal/common"
	"resumecoach/internal/session"
)

var interviewCmd = &cobra.Command{
	Use:   "interview",
	Short: "Build a resume from scratch by answering interview questions",
	Long: `Answer the interviewer's questions about your experience on the terminal.
When the interviewer has enough, a resume draft is built and analyzed, and
the coach helps you polish it before it is written as a PDF.

Type /quit at any prompt to stop.`,
	Args: cobra.NoArgs,
	RunE: runInterviewCmd,
}

var interviewFlags struct {
	job      jobFlags
	template string
	output   string
}

func init() {
	interviewFlags.job.register(interviewCmd)
	interviewCmd.Flags().StringVarP(&interviewFlags.template, "template", "t", string(session.TemplateClassic), "Resume template: classic, modern or skills_first")
	interviewCmd.Flags().StringVarP(&interviewFlags.output, "output", "o", "", "PDF output path (default: improved_resume_<template>.pdf)")

	_ = interviewCmd.RegisterFlagCompletionFunc("template", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return common.TemplateNames(), cobra.ShellCompDirectiveNoFileComp
	})
}

func runInterviewCmd(cmd *cobra.Command, args []string) error {
	cfg := getConfigFromContext(cmd.Context())
	logger := getLoggerFromContext(cmd.Context())

	if _, err := session.ParseTemplate(interviewFlags.template); err != nil {
		return err
	}

	fp := common.NewFileProcessor(logger, cfg.App.AllowedExtensions...)
	jobDescription, err := interviewFlags.job.read(fp)
	if err != nil {
		return err
	}

	a, err := newApp(cfg, logger, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			logger.LogError(err, "Failed to release engine resources")
		}
	}()

	term := newTerminal(os.Stdin, cmd.OutOrStdout())
	s, result, err := runInterview(cmd.Context(), a.machine, session.New(time.Now()), jobDescription, term)
	if stderrors.Is(err, errQuit) {
		term.say("\nInterview stopped after %d answers. No resume was built.\n", s.InterviewTurns)
		return nil
	}
	if err != nil {
		return fmt.Errorf("interview failed: %w", err)
	}
	if err := term.showAnalysis("interview", s, result); err != nil {
		return err
	}

	return finishCoaching(cmd, a, s, term, interviewFlags.template, interviewFlags.output, fp)
}

package cli

import (
	stderrors "errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"resumecoach/internal/common"
	"resumecoach/internal/session"
)

var coachCmd = &cobra.Command{
	Use:   "coach [resume-file]",
	Short: "Improve a resume in an interactive chat and render it as PDF",
	Long: `Analyze a resume, then work through each weakness with the coach on the
terminal. Once every weakness is addressed the improved resume is written as
a PDF using the chosen template.

Type /quit at any prompt to stop.`,
	Args: cobra.ExactArgs(1),
	RunE: runCoach,
}

var coachFlags struct {
	job      jobFlags
	template string
	output   string
}

func init() {
	coachFlags.job.register(coachCmd)
	coachCmd.Flags().StringVarP(&coachFlags.template, "template", "t", string(session.TemplateClassic), "Resume template: classic, modern or skills_first")
	coachCmd.Flags().StringVarP(&coachFlags.output, "output", "o", "", "PDF output path (default: improved_resume_<template>.pdf)")

	_ = coachCmd.RegisterFlagCompletionFunc("template", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return common.TemplateNames(), cobra.ShellCompDirectiveNoFileComp
	})
}

func runCoach(cmd *cobra.Command, args []string) error {
	cfg := getConfigFromContext(cmd.Context())
	logger := getLoggerFromContext(cmd.Context())
	ctx := cmd.Context()

	if _, err := session.ParseTemplate(coachFlags.template); err != nil {
		return err
	}

	fp := common.NewFileProcessor(logger, cfg.App.AllowedExtensions...)
	jobDescription, err := coachFlags.job.read(fp)
	if err != nil {
		return err
	}
	uploads, err := fp.ReadUploads(args[0])
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
	term.say("Analyzing %s...\n\n", filepath.Base(args[0]))

	s, result, err := a.machine.SubmitResume(ctx, session.New(time.Now()), uploads[0], jobDescription)
	if err != nil {
		return fmt.Errorf("failed to analyze resume: %w", err)
	}
	if err := term.showAnalysis(uploads[0].Filename, s, result); err != nil {
		return err
	}

	return finishCoaching(cmd, a, s, term, coachFlags.template, coachFlags.output, fp)
}

// finishCoaching runs the guided chat on an analyzed session and writes the
// document. Quitting early is not an error.
func finishCoaching(cmd *cobra.Command, a *app, s session.Session, term *terminal, templateName, output string, fp *common.FileProcessor) error {
	logger := getLoggerFromContext(cmd.Context())

	s, err := runGuidedChat(cmd.Context(), a.machine, s, term)
	if stderrors.Is(err, errQuit) {
		term.say("\nStopped with %d of %d weaknesses addressed. No document was written.\n",
			s.WeaknessesCovered, s.TotalWeaknesses)
		return nil
	}
	if err != nil {
		return err
	}

	term.say("Writing your improved resume...\n")
	_, report, err := writeDocument(cmd.Context(), a.machine, s, templateName, output, fp)
	if err != nil {
		return fmt.Errorf("failed to generate document: %w", err)
	}
	logger.Info("Improved resume written", "file", report.Output, "template", report.Template, "bytes", report.Bytes)

	return common.NewOutputHandler(logger).WithStdout(cmd.OutOrStdout()).
		HandleOutput(report, common.CommandConfig{OutputFormat: "text"})
}

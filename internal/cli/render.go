package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"resumecoach/internal/common"
	"resumecoach/internal/config"
	"resumecoach/internal/errors"
	"resumecoach/internal/session"
	"resumecoach/internal/synth"
	"resumecoach/internal/types"
)

var renderCmd = &cobra.Command{
	Use:   "render [text-file]",
	Short: "Render resume text as a PDF without the engine",
	Long: `Normalize a plain text resume and render it as a PDF with the configured
renderer. The engine is not called, so the text is laid out as written.`,
	Args: cobra.ExactArgs(1),
	PreRunE: func(cmd *cobra.Command, args []string) error {
		cfg := getConfigFromContext(cmd.Context())
		format, err := common.ResolveOutputFormat(renderFlags.format, cfg.App.DefaultFormat, cfg.App.SupportedFormats)
		if err != nil {
			return err
		}
		renderFlags.format = format
		return nil
	},
	RunE: runRender,
}

var renderFlags struct {
	template string
	output   string
	format   string
}

func init() {
	renderCmd.Flags().StringVarP(&renderFlags.template, "template", "t", string(session.TemplateClassic), "Resume template: classic, modern or skills_first")
	renderCmd.Flags().StringVarP(&renderFlags.output, "output", "o", "", "PDF output path (default: improved_resume_<template>.pdf)")
	renderCmd.Flags().StringVar(&renderFlags.format, "format", "", "Report format: json, text, markdown or yaml")

	_ = renderCmd.RegisterFlagCompletionFunc("template", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return common.TemplateNames(), cobra.ShellCompDirectiveNoFileComp
	})
}

func runRender(cmd *cobra.Command, args []string) error {
	cfg := getConfigFromContext(cmd.Context())
	logger := getLoggerFromContext(cmd.Context())

	report, err := renderFile(cmd.Context(), cfg.Render, logger, args[0], renderFlags.template, renderFlags.output)
	if err != nil {
		return err
	}
	return common.NewOutputHandler(logger).WithStdout(cmd.OutOrStdout()).
		HandleOutput(report, common.CommandConfig{OutputFormat: renderFlags.format})
}

// renderFile lays out the text in path with templateName and writes the PDF.
func renderFile(ctx context.Context, renderCfg config.RenderConfig, logger *errors.Logger, path, templateName, output string) (types.RenderReport, error) {
	t, err := session.ParseTemplate(templateName)
	if err != nil {
		return types.RenderReport{}, errors.NewValidationError(errors.ErrCodeInvalidTemplate, err.Error(), nil)
	}

	fp := common.NewFileProcessor(logger)
	text, err := fp.ReadText(path)
	if err != nil {
		return types.RenderReport{}, err
	}

	renderer, closeRenderer, err := synth.NewRenderer(renderCfg, logger)
	if err != nil {
		return types.RenderReport{}, err
	}
	defer func() {
		if err := closeRenderer(); err != nil {
			logger.LogError(err, "Failed to close renderer")
		}
	}()

	doc, err := synth.New(renderer, logger).Render(ctx, text, t)
	if err != nil {
		return types.RenderReport{}, fmt.Errorf("failed to render %s: %w", path, err)
	}

	if output == "" {
		output = doc.Filename
	}
	if err := fp.ValidateOutputFile(output); err != nil {
		return types.RenderReport{}, err
	}
	if err := fp.WriteFile(output, doc.Bytes); err != nil {
		return types.RenderReport{}, err
	}
	logger.Info("Resume rendered", "file", output, "template", t, "bytes", len(doc.Bytes))
	return types.RenderReport{Output: output, Template: t, Bytes: len(doc.Bytes)}, nil
}

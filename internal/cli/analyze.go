package cli

import (
	"context"
	"fmt"
	"time"

	"resumecoach/internal/common"
	"resumecoach/internal/extract"
	"resumecoach/internal/session"
	"resumecoach/internal/types"

	"github.com/spf13/cobra"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze [resume-file]",
	Short: "Analyze a resume once and print the report",
	Long: `Analyze a resume file (.pdf, .docx, .txt, .md or an image) and report its
weaknesses. With a job description the analysis is targeted at that role and
includes an ATS score; without one it reviews the resume in general.`,
	Args: cobra.ExactArgs(1),
	PreRunE: func(cmd *cobra.Command, args []string) error {
		cfg := getConfigFromContext(cmd.Context())
		format, err := common.ResolveOutputFormat(analyzeConfig.OutputFormat, cfg.App.DefaultFormat, cfg.App.SupportedFormats)
		if err != nil {
			return err
		}
		analyzeConfig.OutputFormat = format
		return nil
	},
	RunE: runAnalyze,
}

var analyzeConfig common.CommandConfig
var analyzeJob jobFlags

func init() {
	analyzeCmd.Flags().StringVarP(&analyzeConfig.OutputFile, "output", "o", "", "Output file path (default: stdout)")
	analyzeCmd.Flags().StringVar(&analyzeConfig.OutputFormat, "format", "", "Output format: json, text, markdown or yaml")
	analyzeJob.register(analyzeCmd)

	// Add completion for format flag
	_ = analyzeCmd.RegisterFlagCompletionFunc("format", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return []string{"json", "text", "markdown", "yaml"}, cobra.ShellCompDirectiveNoFileComp
	})
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	cfg := getConfigFromContext(cmd.Context())
	logger := getLoggerFromContext(cmd.Context())
	fp := common.NewFileProcessor(logger, cfg.App.AllowedExtensions...)

	jobDescription, err := analyzeJob.read(fp)
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

	createInput := func(uploads []extract.Upload) (extract.Upload, error) {
		if len(uploads) != 1 {
			return extract.Upload{}, fmt.Errorf("expected 1 file path, got %d", len(uploads))
		}
		return uploads[0], nil
	}

	logDetails := func(upload extract.Upload, cfg common.CommandConfig) {
		logger.Info("Starting resume analysis",
			"file", upload.Filename,
			"bytes", len(upload.Data),
			"mode", session.ModeFor(jobDescription),
			"output_format", cfg.OutputFormat)
	}

	analyzeOperation := func(ctx context.Context, upload extract.Upload) (types.AnalysisReport, error) {
		next, result, err := a.machine.SubmitResume(ctx, session.New(time.Now()), upload, jobDescription)
		if err != nil {
			return types.AnalysisReport{}, err
		}
		return types.AnalysisReport{
			Source:          upload.Filename,
			Mode:            next.Mode(),
			ATSScore:        result.ATSScore,
			HasScore:        result.HasScore,
			TotalWeaknesses: result.TotalWeaknesses,
			Summary:         result.Summary,
		}, nil
	}

	err = common.RunFileCommand(
		cmd.Context(),
		logger,
		analyzeConfig,
		fp,
		args,
		createInput,
		analyzeOperation,
		logDetails,
	)
	if err != nil {
		return fmt.Errorf("failed to analyze resume: %w", err)
	}
	logger.Info("Resume analysis completed successfully")
	return nil
}

// jobFlags are the two ways of passing a job description.
type jobFlags struct {
	file string
	text string
}

func (j *jobFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&j.file, "job", "j", "", "Job description file to target")
	cmd.Flags().StringVar(&j.text, "job-text", "", "Job description text to target")
	cmd.MarkFlagsMutuallyExclusive("job", "job-text")
}

// read returns the normalized job description, empty for general mode.
func (j *jobFlags) read(fp *common.FileProcessor) (string, error) {
	if j.file == "" {
		return session.NormalizeJobDescription(j.text), nil
	}
	text, err := fp.ReadText(j.file)
	if err != nil {
		return "", err
	}
	return session.NormalizeJobDescription(text), nil
}

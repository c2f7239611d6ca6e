package cli

import (
	"github.com/spf13/cobra"

	"resumecoach/internal/common"
	"resumecoach/internal/synth"
	"resumecoach/internal/types"
)

var templatesCmd = &cobra.Command{
	Use:   "templates",
	Short: "List the resume templates",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := getConfigFromContext(cmd.Context())
		logger := getLoggerFromContext(cmd.Context())

		format, err := common.ResolveOutputFormat(templatesConfig.OutputFormat, cfg.App.DefaultFormat, cfg.App.SupportedFormats)
		if err != nil {
			return err
		}
		out := common.CommandConfig{OutputFile: templatesConfig.OutputFile, OutputFormat: format}

		list := types.TemplateList{Templates: synth.Catalog(templatesSkeleton)}
		return common.NewOutputHandler(logger).WithStdout(cmd.OutOrStdout()).HandleOutput(list, out)
	},
}

var templatesConfig common.CommandConfig
var templatesSkeleton bool

func init() {
	templatesCmd.Flags().StringVarP(&templatesConfig.OutputFile, "output", "o", "", "Output file path (default: stdout)")
	templatesCmd.Flags().StringVar(&templatesConfig.OutputFormat, "format", "", "Output format: json, text, markdown or yaml")
	templatesCmd.Flags().BoolVar(&templatesSkeleton, "skeleton", false, "Include the section skeleton of each template")
}

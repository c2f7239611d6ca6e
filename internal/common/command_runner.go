package common

import (
	"context"
	"fmt"

	"resumecoach/internal/errors"
	"resumecoach/internal/extract"
)

// CreateInputFunc defines how to create the specific input from the uploaded files.
type CreateInputFunc[Input any] func(uploads []extract.Upload) (Input, error)

// LogDetailsFunc defines how to log the start of an operation.
type LogDetailsFunc[Input any] func(input Input, cfg CommandConfig)

// OperationFunc is a generic function signature for any workflow operation.
// Token usage is reported by the engine's usage recorder, not returned here.
type OperationFunc[Input, Output any] func(context.Context, Input) (Output, error)

// RunFileCommand encapsulates the common logic for file-based CLI commands:
// read the inputs, run the operation and write the formatted result.
func RunFileCommand[Input, Output any](
	ctx context.Context,
	logger *errors.Logger,
	cmdConfig CommandConfig,
	fileProcessor *FileProcessor,
	args []string,
	createInput CreateInputFunc[Input],
	operation OperationFunc[Input, Output],
	logDetails LogDetailsFunc[Input],
) error {
	outputHandler := NewOutputHandler(logger)

	uploads, err := fileProcessor.ReadUploads(args...)
	if err != nil {
		return err
	}

	input, err := createInput(uploads)
	if err != nil {
		return fmt.Errorf("failed to create input from files: %w", err)
	}

	logDetails(input, cmdConfig)

	result, err := operation(ctx, input)
	if err != nil {
		return err
	}

	return outputHandler.HandleOutput(result, cmdConfig)
}

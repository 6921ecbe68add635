package integration

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
)

// CLIExecConfig holds all parameters needed to execute an external CLI tool.
type CLIExecConfig struct {
	Command string
	Args    []string
	// Env is appended to the process environment.
	Env    map[string]string
	Dir    string
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

// CLIExecResult captures the outcome of an external CLI invocation.
type CLIExecResult struct {
	ExitCode int
	Stdout   string
	Stderr   string
}

// CLIExecutor invokes external CLI tools.
type CLIExecutor interface {
	// Exec runs the command to completion. A non-zero exit is reported in the
	// result, not as an error; an error means the command could not run.
	Exec(ctx context.Context, config CLIExecConfig) (*CLIExecResult, error)
}

type cliExecutor struct{}

// NewCLIExecutor creates a new CLIExecutor.
func NewCLIExecutor() CLIExecutor {
	return &cliExecutor{}
}

func (e *cliExecutor) Exec(ctx context.Context, config CLIExecConfig) (*CLIExecResult, error) {
	cmd := exec.CommandContext(ctx, config.Command, config.Args...)
	cmd.Env = providerEnv(os.Environ(), config.Env)
	cmd.Dir = config.Dir

	// Always capture stdout/stderr for the result, but also tee to the
	// provided writers if set.
	var stdoutBuf, stderrBuf bytes.Buffer

	if config.Stdout != nil {
		cmd.Stdout = io.MultiWriter(&stdoutBuf, config.Stdout)
	} else {
		cmd.Stdout = &stdoutBuf
	}

	if config.Stderr != nil {
		cmd.Stderr = io.MultiWriter(&stderrBuf, config.Stderr)
	} else {
		cmd.Stderr = &stderrBuf
	}

	if config.Stdin != nil {
		cmd.Stdin = config.Stdin
	}

	err := cmd.Run()

	result := &CLIExecResult{
		Stdout: stdoutBuf.String(),
		Stderr: stderrBuf.String(),
	}

	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			result.ExitCode = exitErr.ExitCode()
		} else {
			return result, fmt.Errorf("executing %s: %w", config.Command, err)
		}
	}

	return result, nil
}

package integration

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// CLIVersion is the semantic version reported by `claude --version`.
type CLIVersion struct {
	Major int
	Minor int
	Patch int
}

func (v CLIVersion) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
}

// Compare returns -1 if v < other, 0 if v == other, 1 if v > other.
func (v CLIVersion) Compare(other CLIVersion) int {
	for _, d := range [][2]int{{v.Major, other.Major}, {v.Minor, other.Minor}, {v.Patch, other.Patch}} {
		switch {
		case d[0] < d[1]:
			return -1
		case d[0] > d[1]:
			return 1
		}
	}
	return 0
}

// Only end of string or a non-dot, non-digit suffix may follow the patch
// number: "2.1.50 (Claude Code)" parses, "2.1.50.1" does not.
var versionPattern = regexp.MustCompile(`^v?(\d+)\.(\d+)\.(\d+)(?:[^\d.].*)?$`)

// ParseCLIVersion parses output such as "2.1.50 (Claude Code)" or "v2.1.50".
func ParseCLIVersion(s string) (*CLIVersion, error) {
	s = strings.TrimSpace(s)
	m := versionPattern.FindStringSubmatch(s)
	if m == nil {
		return nil, fmt.Errorf("invalid version string %q: expected format v?MAJOR.MINOR.PATCH", s)
	}

	major, _ := strconv.Atoi(m[1])
	minor, _ := strconv.Atoi(m[2])
	patch, _ := strconv.Atoi(m[3])
	return &CLIVersion{Major: major, Minor: minor, Patch: patch}, nil
}

// DetectCLIVersion runs `<command> --version` through executor.
func DetectCLIVersion(ctx context.Context, executor CLIExecutor, command string) (*CLIVersion, error) {
	res, err := executor.Exec(ctx, CLIExecConfig{Command: command, Args: []string{"--version"}})
	if err != nil {
		return nil, fmt.Errorf("running %s --version: %w", command, err)
	}
	if res.ExitCode != 0 {
		return nil, fmt.Errorf("%s --version exited with code %d: %s", command, res.ExitCode, strings.TrimSpace(res.Stderr))
	}
	return ParseCLIVersion(res.Stdout)
}

// CheckClaudeCLI reports whether the claude CLI used by the claude-cli
// backend runs, in the same shape as a provider check.
func CheckClaudeCLI(ctx context.Context, executor CLIExecutor, command string) ProviderStatus {
	status := ProviderStatus{Name: "claude", Command: command}
	start := time.Now()

	v, err := DetectCLIVersion(ctx, executor, command)
	if err != nil {
		status.Error = err.Error()
	} else {
		status.Healthy = true
		status.Version = v.String()
	}
	status.ResponseTime = time.Since(start)
	return status
}

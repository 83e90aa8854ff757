// Package probe drives a scripted smoke-test conversation against an MCP
// server speaking line-delimited JSON-RPC over stdio.
package probe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rexliu/mcprobe/pkg/jsonrpc"
	"github.com/rexliu/mcprobe/pkg/mcp"
)

// Config carries the knobs for one smoke run.
type Config struct {
	Command         []string
	Dir             string
	ReadTimeout     time.Duration
	ProtocolVersion string
	ClientName      string
	ClientVersion   string
}

// Logger is satisfied by logging.Logger; kept minimal to avoid dependency
// cycles.
type Logger interface {
	Printf(format string, v ...any)
}

func (cfg *Config) applyDefaults() {
	if cfg.ReadTimeout <= 0 {
		cfg.ReadTimeout = 10 * time.Second
	}
	if cfg.ProtocolVersion == "" {
		cfg.ProtocolVersion = mcp.ProtocolVersion
	}
	if cfg.ClientName == "" {
		cfg.ClientName = "mcprobe"
	}
	if cfg.ClientVersion == "" {
		cfg.ClientVersion = "1.0.0"
	}
}

// Run spawns the configured server and performs the fixed two-step script:
// initialize, then tools/list. Every failure past process start is converted
// to a recorded step outcome and the next step still runs; the child is
// terminated and awaited before Run returns on every path. Only a spawn
// failure is returned as an error.
func Run(ctx context.Context, cfg Config, logger Logger) (Report, error) {
	cfg.applyDefaults()
	report := Report{RunID: NewRunID(), Command: cfg.Command, Started: time.Now()}

	session, err := Start(ctx, cfg.Command, cfg.Dir)
	if err != nil {
		return report, err
	}
	defer session.Close()

	report.Steps = append(report.Steps, runInitialize(session, cfg, logger))
	report.Steps = append(report.Steps, runListTools(session, cfg, logger))
	return report, nil
}

func runInitialize(s *Session, cfg Config, logger Logger) StepResult {
	params := mcp.InitializeParams{
		ProtocolVersion: cfg.ProtocolVersion,
		Capabilities:    map[string]any{"tools": map[string]any{}},
		ClientInfo:      mcp.ClientInfo{Name: cfg.ClientName, Version: cfg.ClientVersion},
	}
	if _, err := s.Send(mcp.MethodInitialize, params); err != nil {
		// The failed read below records the outcome; the script continues.
		logf(logger, "initialize send failed: %v", err)
	}
	line, err := s.ReadResponse(cfg.ReadTimeout)
	if res := classifyRead(StepInitialize, err); res != nil {
		return *res
	}
	resp, res := parseResponse(StepInitialize, line)
	if res != nil {
		return *res
	}
	var result mcp.InitializeResult
	if err := json.Unmarshal(resp.Result, &result); err != nil {
		return StepResult{StepInitialize, StatusShapeMismatch,
			fmt.Sprintf("unexpected initialize result shape: %s", resp.Result)}
	}
	detail := fmt.Sprintf("server %s v%s, protocol %s",
		result.ServerInfo.Name, result.ServerInfo.Version, result.ProtocolVersion)
	if result.Instructions != "" {
		detail += ", instructions: " + result.Instructions
	}
	return StepResult{StepInitialize, StatusOK, detail}
}

func runListTools(s *Session, cfg Config, logger Logger) StepResult {
	if _, err := s.Send(mcp.MethodListTools, map[string]any{}); err != nil {
		logf(logger, "tools/list send failed: %v", err)
	}
	line, err := s.ReadResponse(cfg.ReadTimeout)
	if res := classifyRead(StepListTools, err); res != nil {
		return *res
	}
	resp, res := parseResponse(StepListTools, line)
	if res != nil {
		return *res
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(resp.Result, &fields); err != nil {
		return StepResult{StepListTools, StatusShapeMismatch,
			fmt.Sprintf("unexpected tools/list result shape: %s", resp.Result)}
	}
	raw, ok := fields["tools"]
	if !ok {
		return StepResult{StepListTools, StatusShapeMismatch,
			fmt.Sprintf("result lacks tools field: %s", resp.Result)}
	}
	var tools []mcp.Tool
	if err := json.Unmarshal(raw, &tools); err != nil {
		return StepResult{StepListTools, StatusShapeMismatch,
			fmt.Sprintf("tools field is not a list of descriptors: %s", raw)}
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%d tools", len(tools))
	for i, tool := range tools {
		if i == 0 {
			b.WriteString(": ")
		} else {
			b.WriteString("; ")
		}
		fmt.Fprintf(&b, "%s: %s", tool.Name, tool.Description)
	}
	return StepResult{StepListTools, StatusOK, b.String()}
}

// classifyRead maps transport-level read failures onto step outcomes.
func classifyRead(step Step, err error) *StepResult {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrTimeout):
		return &StepResult{step, StatusTimeout, "no response before deadline"}
	default:
		return &StepResult{step, StatusNoResponse, "no response received (stream closed)"}
	}
}

// parseResponse decodes one response line, keeping the raw line verbatim in
// the malformed detail for diagnostics.
func parseResponse(step Step, line string) (jsonrpc.Response, *StepResult) {
	var resp jsonrpc.Response
	if err := json.Unmarshal([]byte(line), &resp); err != nil {
		return resp, &StepResult{step, StatusMalformed,
			fmt.Sprintf("parse failure: %v; raw: %s", err, line)}
	}
	if resp.Error != nil {
		return resp, &StepResult{step, StatusShapeMismatch,
			fmt.Sprintf("server returned error %d: %s", resp.Error.Code, resp.Error.Message)}
	}
	if len(resp.Result) == 0 {
		return resp, &StepResult{step, StatusShapeMismatch,
			fmt.Sprintf("response carries neither result nor error: %s", line)}
	}
	return resp, nil
}

func logf(logger Logger, format string, v ...any) {
	if logger != nil {
		logger.Printf(format, v...)
	}
}

package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/nebolabs/webagent/internal/config"
	"github.com/nebolabs/webagent/internal/llm"
)

// checkResult mirrors the teacher's cmd/nebo/doctor.go shape: a named check
// with a traffic-light status and a human-readable detail line.
type checkResult struct {
	name    string
	status  string // "ok" | "warn" | "error"
	message string
}

func newDoctorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check configuration and LLM provider health",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDoctor(cmd.Context())
		},
	}
}

func runDoctor(ctx context.Context) error {
	fmt.Println("webagent doctor")
	fmt.Println("================")
	fmt.Println()

	var results []checkResult
	raw, loadErr := config.Load(cfgFile)
	if loadErr != nil {
		results = append(results, checkResult{name: "Config File", status: "error", message: loadErr.Error()})
	} else {
		results = append(results, checkResult{name: "Config File", status: "ok", message: cfgFile})
	}

	resolved, resolveErr := config.Resolve(raw)
	if resolveErr != nil {
		results = append(results, checkResult{name: "Config", status: "error", message: resolveErr.Error()})
	} else {
		results = append(results, checkResult{name: "LLM Provider", status: "ok", message: fmt.Sprintf("%s (%s)", resolved.LLMProvider, resolved.LLMModel)})
		results = append(results, checkAPICall(ctx, resolved))
	}

	errCount := 0
	for _, r := range results {
		switch r.status {
		case "ok":
			fmt.Printf("\033[32m✓\033[0m %s: %s\n", r.name, r.message)
		case "warn":
			fmt.Printf("\033[33m⚠\033[0m %s: %s\n", r.name, r.message)
		case "error":
			fmt.Printf("\033[31m✗\033[0m %s: %s\n", r.name, r.message)
			errCount++
		}
	}

	fmt.Println()
	if errCount > 0 {
		os.Exit(1)
	}
	return nil
}

// checkAPICall sends a trivial schema-conforming prompt to confirm
// credentials and connectivity, classifying failures with
// internal/llm.ClassifyErrorReason.
func checkAPICall(ctx context.Context, resolved *config.ResolvedConfig) checkResult {
	callCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	capability := resolved.NewLLMCapability()
	_, err := capability.Generate(callCtx, llm.GenerateRequest{
		SchemaName: "doctor_ping",
		Schema:     []byte(`{"type":"object","properties":{"ok":{"type":"boolean"}},"required":["ok"]}`),
		Messages:   []llm.Message{{Role: "user", Content: "Reply with ok=true."}},
	})
	if err != nil {
		return checkResult{name: "LLM Connectivity", status: "error", message: fmt.Sprintf("%s (%s)", err.Error(), llm.ClassifyErrorReason(err))}
	}
	return checkResult{name: "LLM Connectivity", status: "ok", message: "reachable"}
}

package main

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"reelforge/internal/phase"
	"reelforge/internal/preflight"
	"reelforge/internal/services"
	"reelforge/internal/services/factory"
)

type healthReport struct {
	Service *factory.HealthData   `json:"service,omitempty" yaml:"service,omitempty"`
	LLM     *factory.LLMStatus    `json:"llm,omitempty" yaml:"llm,omitempty"`
	TTS     *factory.TTSStatus    `json:"tts,omitempty" yaml:"tts,omitempty"`
	Assets  *factory.AssetsStatus `json:"assets,omitempty" yaml:"assets,omitempty"`
	Config  *factory.AppConfig    `json:"config,omitempty" yaml:"config,omitempty"`
	Errors  map[string]string     `json:"errors,omitempty" yaml:"errors,omitempty"`

	Workspace []preflight.Result `json:"workspace" yaml:"workspace"`
}

func newHealthCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check the video service and its dependencies",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			client, err := ctx.client()
			if err != nil {
				return err
			}
			report := collectHealth(cmd.Context(), client)
			report.Workspace = preflight.RunAll(cmd.Context(), cfg)
			out := cmd.OutOrStdout()
			if err := emit(cmd, ctx, report, func(w io.Writer) error {
				for _, line := range healthLines(report, shouldColorize(out)) {
					fmt.Fprintln(w, line)
				}
				return nil
			}); err != nil {
				return err
			}
			if report.Service == nil {
				return fmt.Errorf("health check failed: %s", report.Errors["service"])
			}
			for _, r := range report.Workspace {
				if !r.Passed && !r.Optional {
					return fmt.Errorf("health check failed: %s: %s", r.Name, r.Detail)
				}
			}
			return nil
		},
	}
}

// collectHealth queries the status endpoints and the service configuration
// concurrently. Each check's failure is recorded in the report rather than
// aborting the others.
func collectHealth(ctx context.Context, client *factory.Client) healthReport {
	if ctx == nil {
		ctx = context.Background()
	}
	var (
		report healthReport
		errs   = map[string]error{}
		mu     sync.Mutex
		wg     sync.WaitGroup
	)
	check := func(name string, fn func() error) {
		wg.Go(func() {
			if err := fn(); err != nil {
				mu.Lock()
				errs[name] = err
				mu.Unlock()
			}
		})
	}
	check("service", func() error {
		data, err := client.Health(ctx)
		if err == nil || factory.IsWarning(err) {
			report.Service = &data
		}
		return err
	})
	check("config", func() error {
		data, err := client.Config(ctx)
		if err == nil {
			report.Config = &data
		}
		return err
	})
	check("llm", func() error {
		data, err := client.LLMStatus(ctx)
		if err == nil {
			report.LLM = &data
		}
		return err
	})
	check("tts", func() error {
		data, err := client.TTSStatus(ctx)
		if err == nil {
			report.TTS = &data
		}
		return err
	})
	check("assets", func() error {
		data, err := client.AssetsStatus(ctx)
		if err == nil {
			report.Assets = &data
		}
		return err
	})
	wg.Wait()

	for name, err := range errs {
		if report.Errors == nil {
			report.Errors = map[string]string{}
		}
		report.Errors[name] = services.OperatorMessage(err)
	}
	return report
}

func healthLines(report healthReport, colorize bool) []string {
	lines := renderSectionHeader("Service", colorize)
	if report.Service == nil {
		lines = append(lines, renderStatusLine("API", phase.KindError, report.Errors["service"], colorize))
	} else {
		kind := phase.KindSuccess
		if len(report.Service.Issues) > 0 {
			kind = phase.KindWarning
		}
		lines = append(lines, renderStatusLine("API", kind, strings.Join(report.Service.Issues, "; "), colorize))
		names := make([]string, 0, len(report.Service.Checks))
		for name := range report.Service.Checks {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			kind := phase.KindSuccess
			message := "available"
			if !report.Service.Checks[name] {
				kind, message = phase.KindError, "unavailable"
			}
			lines = append(lines, renderStatusLine(name, kind, message, colorize))
		}
	}

	lines = append(lines, "")
	lines = append(lines, renderSectionHeader("Components", colorize)...)
	switch {
	case report.LLM != nil && report.LLM.Available:
		lines = append(lines, renderStatusLine("LLM", phase.KindSuccess, report.LLM.Model, colorize))
	case report.LLM != nil:
		lines = append(lines, renderStatusLine("LLM", phase.KindWarning, "not available", colorize))
	default:
		lines = append(lines, renderStatusLine("LLM", phase.KindError, report.Errors["llm"], colorize))
	}
	switch {
	case report.TTS != nil:
		kind := phase.KindSuccess
		if !report.TTS.EdgeTTS && !report.TTS.XTTSKaggle {
			kind = phase.KindWarning
		}
		lines = append(lines, renderStatusLine("TTS", kind, report.TTS.CurrentModel, colorize))
	default:
		lines = append(lines, renderStatusLine("TTS", phase.KindError, report.Errors["tts"], colorize))
	}
	switch {
	case report.Assets != nil:
		kind := phase.KindSuccess
		if !report.Assets.Pexels && !report.Assets.Pixabay {
			kind = phase.KindWarning
		}
		lines = append(lines, renderStatusLine("Footage", kind, "primary "+report.Assets.PrimarySource, colorize))
	default:
		lines = append(lines, renderStatusLine("Footage", phase.KindError, report.Errors["assets"], colorize))
	}

	lines = append(lines, "")
	lines = append(lines, renderSectionHeader("Service configuration", colorize)...)
	if cfg := report.Config; cfg != nil {
		lines = append(lines,
			fmt.Sprintf("LLM model:      %s", cfg.LLM.Model),
			fmt.Sprintf("TTS model:      %s", cfg.TTS.Model),
			fmt.Sprintf("Max duration:   %gs", cfg.Content.MaxScriptDuration),
			fmt.Sprintf("Video format:   %s", videoFormat(cfg.Video)),
		)
	} else {
		lines = append(lines, renderStatusLine("Config", phase.KindError, report.Errors["config"], colorize))
	}

	lines = append(lines, "")
	lines = append(lines, renderSectionHeader("Workspace", colorize)...)
	for _, r := range report.Workspace {
		kind := phase.KindSuccess
		switch {
		case !r.Passed && r.Optional:
			kind = phase.KindInfo
		case !r.Passed:
			kind = phase.KindError
		}
		lines = append(lines, renderStatusLine(r.Name, kind, r.Detail, colorize))
	}
	return lines
}

func videoFormat(v factory.VideoConfig) string {
	if len(v.Resolution) == 2 {
		return fmt.Sprintf("%s (%dx%d)", v.Format, v.Resolution[0], v.Resolution[1])
	}
	return v.Format
}

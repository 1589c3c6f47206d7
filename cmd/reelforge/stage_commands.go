package main

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"reelforge/internal/services/factory"
)

func newMineCommand(ctx *commandContext) *cobra.Command {
	var source string
	var random bool
	var wikipedia string

	cmd := &cobra.Command{
		Use:   "mine [topic]",
		Short: "Collect source content for the workflow (stage 1)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			topic := ""
			if len(args) == 1 {
				topic = args[0]
			}
			if random && strings.TrimSpace(wikipedia) != "" {
				return errors.New("--random and --wikipedia are mutually exclusive")
			}
			return ctx.withWorkspace(func(ws *workspace) error {
				var (
					content factory.RawContent
					err     error
				)
				switch {
				case random:
					content, err = ws.bench.MineRandom(cmd.Context())
				case strings.TrimSpace(wikipedia) != "":
					content, err = ws.bench.SearchWikipedia(cmd.Context(), wikipedia)
				default:
					content, err = ws.bench.MineTopic(cmd.Context(), topic, source)
				}
				if err != nil {
					return err
				}
				return emit(cmd, ctx, content, func(out io.Writer) error {
					fmt.Fprintf(out, "Title:  %s\n", content.Title)
					if content.Source != "" {
						fmt.Fprintf(out, "Source: %s\n", content.Source)
					}
					if content.URL != "" {
						fmt.Fprintf(out, "URL:    %s\n", content.URL)
					}
					fmt.Fprintf(out, "Length: %d characters\n", len(content.Body))
					return nil
				})
			})
		},
	}

	cmd.Flags().StringVar(&source, "source", "", "Content source for the topic (default wikipedia)")
	cmd.Flags().BoolVar(&random, "random", false, "Use a random encyclopedia article")
	cmd.Flags().StringVar(&wikipedia, "wikipedia", "", "Search the encyclopedia for an article")
	return cmd
}

func newScriptCommand(ctx *commandContext) *cobra.Command {
	var text string
	var title string

	cmd := &cobra.Command{
		Use:   "script",
		Short: "Generate the video script from mined content (stage 2)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withWorkspace(func(ws *workspace) error {
				script, err := ws.bench.GenerateScript(cmd.Context(), text, title)
				if err != nil {
					return err
				}
				return emit(cmd, ctx, script, func(out io.Writer) error {
					fmt.Fprintf(out, "%s (%.0fs)\n", script.Title, script.TotalDuration)
					rows := make([][]string, 0, len(script.Segments))
					for i, seg := range script.Segments {
						rows = append(rows, []string{
							strconv.Itoa(i + 1),
							seg.VisualKeyword,
							fmt.Sprintf("%.1fs", seg.DurationEstimate),
							seg.Text,
						})
					}
					fmt.Fprintln(out, renderTable([]string{"#", "Keyword", "Duration", "Text"}, rows, []columnAlignment{alignRight, alignLeft, alignRight, alignLeft}))
					return nil
				})
			})
		},
	}

	cmd.Flags().StringVar(&text, "text", "", "Raw text to script instead of the mined content")
	cmd.Flags().StringVar(&title, "title", "", "Script title")
	return cmd
}

func newNarrateCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "narrate",
		Short: "Synthesize narration for every script segment (stage 3)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withWorkspace(func(ws *workspace) error {
				audio, err := ws.bench.GenerateAudio(cmd.Context())
				if err != nil {
					return err
				}
				return emit(cmd, ctx, audio, func(out io.Writer) error {
					rows := make([][]string, 0, len(audio.Segments))
					for _, seg := range audio.Segments {
						rows = append(rows, []string{
							strconv.Itoa(seg.Index),
							fmt.Sprintf("%.1fs", seg.Duration),
							yesNo(seg.Exists),
							seg.FilePath,
						})
					}
					fmt.Fprintln(out, renderTable([]string{"#", "Duration", "Exists", "File"}, rows, []columnAlignment{alignRight, alignRight}))
					return nil
				})
			})
		},
	}
}

func newVoicesCommand(ctx *commandContext) *cobra.Command {
	var preview string

	cmd := &cobra.Command{
		Use:   "voices",
		Short: "List narration voices or preview the current one",
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(preview) != "" {
				return ctx.withWorkspace(func(ws *workspace) error {
					sample, err := ws.bench.PreviewVoice(cmd.Context(), preview)
					if err != nil {
						return err
					}
					return emit(cmd, ctx, sample, func(out io.Writer) error {
						fmt.Fprintf(out, "Preview: %s (%.1fs)\n", sample.FilePath, sample.Duration)
						return nil
					})
				})
			}
			client, err := ctx.client()
			if err != nil {
				return err
			}
			catalog, err := client.Voices(cmd.Context())
			if err != nil {
				return err
			}
			return emit(cmd, ctx, catalog, func(out io.Writer) error {
				rows := make([][]string, 0, len(catalog.Voices))
				for _, v := range catalog.Voices {
					marker := ""
					if v.ShortName == catalog.CurrentVoice {
						marker = "*"
					}
					rows = append(rows, []string{marker, v.ShortName, v.Gender, v.Locale})
				}
				fmt.Fprintln(out, renderTable([]string{"", "Voice", "Gender", "Locale"}, rows, nil))
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&preview, "preview", "", "Synthesize a short sample of this text")
	return cmd
}

func newRenderCommand(ctx *commandContext) *cobra.Command {
	var settings bool
	cmd := &cobra.Command{
		Use:   "render",
		Short: "Submit script, narration and footage for rendering (stage 5)",
		RunE: func(cmd *cobra.Command, args []string) error {
			if settings {
				return showRenderSettings(cmd, ctx)
			}
			return ctx.withWorkspace(func(ws *workspace) error {
				sessionID, err := ws.bench.Render(cmd.Context())
				if err != nil {
					return err
				}
				return emit(cmd, ctx, map[string]string{"session_id": sessionID}, func(out io.Writer) error {
					fmt.Fprintf(out, "Render submitted: %s\n", sessionID)
					fmt.Fprintln(out, "Follow it with `reelforge pipeline watch "+sessionID+"` or list results with `reelforge outputs`.")
					return nil
				})
			})
		},
	}
	cmd.Flags().BoolVar(&settings, "settings", false, "Show the renderer's editing parameters without submitting")
	return cmd
}

func showRenderSettings(cmd *cobra.Command, ctx *commandContext) error {
	client, err := ctx.client()
	if err != nil {
		return err
	}
	preview, err := client.EditorPreview(cmd.Context())
	if err != nil {
		return err
	}
	return emit(cmd, ctx, preview, func(out io.Writer) error {
		resolution := "-"
		if len(preview.Resolution) == 2 {
			resolution = fmt.Sprintf("%dx%d", preview.Resolution[0], preview.Resolution[1])
		}
		rows := [][]string{
			{"Clip duration", fmt.Sprintf("%g-%gs", preview.MinClipDuration, preview.MaxClipDuration)},
			{"Resolution", resolution},
			{"FPS", strconv.Itoa(preview.FPS)},
			{"Music volume", fmt.Sprintf("%.0f%%", preview.BGMusicVolume*100)},
		}
		fmt.Fprintln(out, renderTable([]string{"Setting", "Value"}, rows, nil))
		return nil
	})
}

func newOutputsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "outputs",
		Short: "List rendered videos",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.client()
			if err != nil {
				return err
			}
			videos, err := client.Outputs(cmd.Context())
			if err != nil {
				return err
			}
			return emit(cmd, ctx, videos, func(out io.Writer) error {
				if len(videos) == 0 {
					fmt.Fprintln(out, "No rendered videos yet")
					return nil
				}
				rows := make([][]string, 0, len(videos))
				for _, v := range videos {
					rows = append(rows, []string{v.Name, fmt.Sprintf("%.1f", v.SizeMB), v.Created, v.Path})
				}
				fmt.Fprintln(out, renderTable([]string{"Name", "Size (MB)", "Created", "Path"}, rows, []columnAlignment{alignLeft, alignRight}))
				return nil
			})
		},
	}
}

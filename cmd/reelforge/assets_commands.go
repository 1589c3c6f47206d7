package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"reelforge/internal/assets"
	"reelforge/internal/config"
)

func newAssetsCommand(ctx *commandContext) *cobra.Command {
	assetsCmd := &cobra.Command{
		Use:   "assets",
		Short: "Search, preview and download stock footage per keyword (stage 4)",
	}

	assetsCmd.AddCommand(newAssetsStatusCommand(ctx))
	assetsCmd.AddCommand(newAssetsSearchCommand(ctx))
	assetsCmd.AddCommand(newAssetsKeywordsCommand(ctx))
	assetsCmd.AddCommand(newAssetsSourceCommand(ctx))
	assetsCmd.AddCommand(newAssetsPreviewCommand(ctx))
	assetsCmd.AddCommand(newAssetsDownloadCommand(ctx))
	assetsCmd.AddCommand(newAssetsFetchCommand(ctx))

	return assetsCmd
}

func newAssetsStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show footage provider availability",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.client()
			if err != nil {
				return err
			}
			status, err := client.AssetsStatus(cmd.Context())
			if err != nil {
				return err
			}
			return emit(cmd, ctx, status, func(out io.Writer) error {
				rows := [][]string{
					{"pexels", yesNo(status.Pexels)},
					{"pixabay", yesNo(status.Pixabay)},
					{"primary source", status.PrimarySource},
					{"cache", yesNo(status.CacheEnabled)},
				}
				fmt.Fprintln(out, renderTable([]string{"Provider", "Available"}, rows, nil))
				return nil
			})
		},
	}
}

func newAssetsSearchCommand(ctx *commandContext) *cobra.Command {
	var source string

	cmd := &cobra.Command{
		Use:   "search <keyword>",
		Short: "Search a provider without touching the workspace",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.client()
			if err != nil {
				return err
			}
			if source == "" {
				cfg, err := ctx.ensureConfig()
				if err != nil {
					return err
				}
				source = cfg.Assets.DefaultSource
			}
			result, err := client.SearchAssets(cmd.Context(), args[0], source)
			if err != nil {
				return err
			}
			return emit(cmd, ctx, result, func(out io.Writer) error {
				if result.Preview == nil {
					fmt.Fprintf(out, "No footage found for %q on %s\n", result.Keyword, result.Source)
					return nil
				}
				p := result.Preview
				fmt.Fprintf(out, "%s on %s: %s (%.0fs, %dx%d)\n%s\n", result.Keyword, result.Source, p.Title, p.Duration, p.Width, p.Height, p.URL)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&source, "source", "", "Footage provider ("+strings.Join(config.AssetSources, ", ")+")")
	return cmd
}

func newAssetsKeywordsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "keywords",
		Short: "List script keywords with their footage status",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withWorkspace(func(ws *workspace) error {
				return renderKeywords(cmd, ctx, ws)
			})
		},
	}
}

func newAssetsSourceCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "source <keyword> <provider>",
		Short: "Choose the provider for one keyword",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withWorkspace(func(ws *workspace) error {
				if err := ws.tracker.SetSource(args[0], args[1]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s will use %s\n", args[0], strings.ToLower(args[1]))
				return nil
			})
		},
	}
}

func newAssetsPreviewCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "preview [keyword...]",
		Short: "Look up a preview clip for keywords (all when none given)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withWorkspace(func(ws *workspace) error {
				err := forEachKeyword(cmd, ws, args, ws.tracker.Preview)
				if renderErr := renderKeywords(cmd, ctx, ws); renderErr != nil {
					return renderErr
				}
				return err
			})
		},
	}
}

func newAssetsDownloadCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "download [keyword...]",
		Short: "Download footage for keywords one by one (all when none given)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withWorkspace(func(ws *workspace) error {
				err := forEachKeyword(cmd, ws, args, ws.tracker.Download)
				if renderErr := renderKeywords(cmd, ctx, ws); renderErr != nil {
					return renderErr
				}
				return err
			})
		},
	}
}

func newAssetsFetchCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "fetch",
		Short: "Download footage for every keyword in one batch",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withWorkspace(func(ws *workspace) error {
				data, err := ws.tracker.DownloadAll(cmd.Context())
				if err != nil && len(data.Assets) == 0 {
					return err
				}
				if emitErr := emit(cmd, ctx, data, func(out io.Writer) error {
					keywords := ws.tracker.Keywords()
					rows := make([][]string, 0, len(data.Assets))
					for i, asset := range data.Assets {
						keyword := ""
						if i < len(keywords) {
							keyword = keywords[i]
						}
						if asset == nil {
							rows = append(rows, []string{keyword, "failed", ""})
							continue
						}
						rows = append(rows, []string{keyword, asset.Source, asset.FilePath})
					}
					fmt.Fprintln(out, renderTable([]string{"Keyword", "Source", "File"}, rows, nil))
					fmt.Fprintf(out, "%d of %d clips fetched\n", data.Fetched(), len(data.Assets))
					return nil
				}); emitErr != nil {
					return emitErr
				}
				return err
			})
		},
	}
}

// forEachKeyword runs op for every keyword concurrently. The group has no
// shared context, so one failure does not cancel the others; every failure
// is reported.
func forEachKeyword(cmd *cobra.Command, ws *workspace, keywords []string, op func(ctx context.Context, keyword string) (bool, error)) error {
	if len(keywords) == 0 {
		keywords = ws.tracker.Keywords()
	}
	if len(keywords) == 0 {
		return errors.New("no keywords; generate a script first")
	}
	errs := make([]error, len(keywords))
	var g errgroup.Group
	for i, keyword := range keywords {
		g.Go(func() error {
			_, err := op(cmd.Context(), keyword)
			errs[i] = err
			return err
		})
	}
	if err := g.Wait(); err == nil {
		return nil
	}
	return errors.Join(errs...)
}

func renderKeywords(cmd *cobra.Command, ctx *commandContext, ws *workspace) error {
	states := ws.tracker.States()
	view := struct {
		Keywords  []assets.KeywordState `json:"keywords" yaml:"keywords"`
		Summary   assets.Summary        `json:"summary" yaml:"summary"`
		LastError string                `json:"last_error,omitempty" yaml:"last_error,omitempty"`
	}{states, ws.tracker.Summary(), ws.tracker.LastError()}

	return emit(cmd, ctx, view, func(out io.Writer) error {
		if len(states) == 0 {
			fmt.Fprintln(out, "No keywords; generate a script first")
			return nil
		}
		rows := make([][]string, 0, len(states))
		for _, s := range states {
			detail := ""
			switch {
			case s.Asset != nil:
				detail = s.Asset.Path
			case s.Preview != nil:
				detail = s.Preview.Title
			}
			rows = append(rows, []string{s.Keyword, s.Source, string(s.Status), detail})
		}
		fmt.Fprintln(out, renderTable([]string{"Keyword", "Source", "Status", "Detail"}, rows, nil))
		fmt.Fprintln(out, view.Summary)
		if view.LastError != "" {
			fmt.Fprintln(out, "Last error:", view.LastError)
		}
		return nil
	})
}

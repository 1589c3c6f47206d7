package main

import (
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"reelforge/internal/workflow"
)

var stageTitle = cases.Title(language.English)

func newWorkflowCommand(ctx *commandContext) *cobra.Command {
	workflowCmd := &cobra.Command{
		Use:   "workflow",
		Short: "Inspect and navigate the manual stages",
	}

	workflowCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show stage progress and stored artifacts",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withWorkspace(func(ws *workspace) error {
				return renderWorkflow(cmd, ctx, ws)
			})
		},
	})

	workflowCmd.AddCommand(&cobra.Command{
		Use:   "goto <stage>",
		Short: "Jump to a reachable stage (number or name)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			stage, err := workflow.ParseStage(args[0])
			if err != nil {
				return err
			}
			return ctx.withWorkspace(func(ws *workspace) error {
				if !ws.controller.GoTo(stage) {
					return fmt.Errorf("stage %d (%s) is not reachable yet", int(stage), stage)
				}
				return renderWorkflow(cmd, ctx, ws)
			})
		},
	})

	workflowCmd.AddCommand(&cobra.Command{
		Use:   "next",
		Short: "Advance one stage when its artifacts exist",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withWorkspace(func(ws *workspace) error {
				if !ws.controller.Advance() {
					return fmt.Errorf("cannot advance past %s", ws.controller.Stage())
				}
				return renderWorkflow(cmd, ctx, ws)
			})
		},
	})

	workflowCmd.AddCommand(&cobra.Command{
		Use:   "prev",
		Short: "Go back one stage",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withWorkspace(func(ws *workspace) error {
				if !ws.controller.Retreat() {
					return fmt.Errorf("already at the first stage")
				}
				return renderWorkflow(cmd, ctx, ws)
			})
		},
	})

	workflowCmd.AddCommand(&cobra.Command{
		Use:   "reset",
		Short: "Discard all artifacts and start over",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withWorkspace(func(ws *workspace) error {
				if err := ws.reset(cmd.Context()); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Workflow reset")
				return nil
			})
		},
	})

	return workflowCmd
}

type workflowView struct {
	workflow.Snapshot `yaml:",inline"`
	Assets            string `json:"assets_summary" yaml:"assets_summary"`
}

func renderWorkflow(cmd *cobra.Command, ctx *commandContext, ws *workspace) error {
	snap := ws.controller.Snapshot()
	summary := ws.tracker.Summary()
	return emit(cmd, ctx, workflowView{Snapshot: snap, Assets: summary.String()}, func(out io.Writer) error {
		rows := make([][]string, 0, len(snap.Stages))
		for _, view := range snap.Stages {
			marker := ""
			if view.Status == workflow.StageCurrent {
				marker = ">"
			}
			rows = append(rows, []string{
				marker,
				strconv.Itoa(int(view.Stage)),
				stageTitle.String(view.Name),
				string(view.Status),
				yesNo(view.Reachable),
			})
		}
		fmt.Fprintln(out, renderTable([]string{"", "#", "Stage", "Status", "Reachable"}, rows, []columnAlignment{alignLeft, alignRight}))

		arts := snap.State.Artifacts
		if arts.Content != nil {
			fmt.Fprintf(out, "Content: %s\n", arts.Content.Title)
		}
		if arts.Script != nil {
			fmt.Fprintf(out, "Script:  %s (%d segments)\n", arts.Script.Title, len(arts.Script.Segments))
		}
		if arts.Audio != nil {
			fmt.Fprintf(out, "Audio:   %d segments\n", len(arts.Audio.Segments))
		}
		if arts.Assets != nil {
			fmt.Fprintf(out, "Assets:  %d clips\n", len(arts.Assets.Paths()))
		}
		if len(ws.tracker.Keywords()) > 0 {
			fmt.Fprintf(out, "Footage: %s\n", summary)
		}
		if snap.PendingAdvance.Valid() {
			fmt.Fprintf(out, "Advancing to %s\n", snap.PendingAdvance)
		}
		return nil
	})
}

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/flowgraph/flowchart/internal/app/dto"
	"github.com/flowgraph/flowchart/internal/app/script"
	"github.com/flowgraph/flowchart/internal/app/usecases"
	"github.com/flowgraph/flowchart/internal/infrastructure/metrics"
	"github.com/flowgraph/flowchart/pkg/flowchart"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "flowchart %s (commit: %s, built: %s)\n", Version, Commit, BuildTime)
		},
	}
}

func newReplayCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "replay <script.yaml>",
		Short: "Replay a script against a fresh diagram",
		Long: `Replay applies every step of a YAML script to a new diagram built from the
configured diagram settings. Use --from to start from a saved document and
--save-as to store the result. The command fails when any step fails.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := script.ReadFile(args[0])
			if err != nil {
				return err
			}
			flags := cmd.Flags()
			req := &dto.ReplayRequest{Script: s}
			req.FromDocument, _ = flags.GetString(FlagFrom)
			req.SaveAs, _ = flags.GetString(FlagSaveAs)
			req.Tags, _ = flags.GetStringSlice(FlagTag)
			req.Config.Timeout, _ = flags.GetDuration(FlagTimeout)
			req.Config.ContinueOnError, _ = flags.GetBool(FlagContinueOnError)
			req.Config.IncludeData, _ = flags.GetBool(FlagIncludeData)
			diagram := a.cfg.Diagram
			req.Config.Diagram = &diagram

			ctx := cmd.Context()
			var store flowchart.Store
			if req.NeedsStore() {
				var release func()
				if store, release, err = a.store(ctx); err != nil {
					return err
				}
				defer release()
			}

			factory := usecases.MemoryDiagrams(
				flowchart.WithLogger(a.logger()),
				flowchart.WithSerializer(a.serializer),
			)
			resp, replayErr := usecases.NewDefaultReplayer(factory, store, a.logger()).Replay(ctx, req)
			if resp == nil {
				return replayErr
			}

			out := cmd.OutOrStdout()
			if asJSON, _ := flags.GetBool(FlagJSON); asJSON {
				if err := writeJSON(out, resp); err != nil {
					return err
				}
			} else {
				printReplay(out, resp)
			}
			if withMetrics, _ := flags.GetBool(FlagMetrics); withMetrics {
				if err := metrics.WritePrometheus(out); err != nil {
					return err
				}
			}
			return replayErr
		},
	}
	flags := cmd.Flags()
	flags.String(FlagFrom, "", "Load this document before the first step")
	flags.String(FlagSaveAs, "", "Save the resulting diagram under this document id")
	flags.StringSlice(FlagTag, nil, "Tags for the saved document")
	flags.Duration(FlagTimeout, dto.DefaultTimeout, "Replay timeout")
	flags.Bool(FlagContinueOnError, false, "Keep going after a failed step")
	flags.Bool(FlagIncludeData, false, "Include the final diagram in JSON output")
	flags.Bool(FlagJSON, false, "Print the replay result as JSON")
	flags.Bool(FlagMetrics, false, "Print history and engine counters after the replay")
	return cmd
}

func printReplay(w io.Writer, resp *dto.ReplayResponse) {
	fmt.Fprintf(w, "replay %s: %s %s in %s\n", resp.Script, resp.Status, resp.ReplayID, resp.Duration.Round(time.Microsecond))
	for _, s := range resp.Steps {
		line := fmt.Sprintf("  %3d %-7s %-12s %s", s.StepNumber, s.Op, s.Target, s.Status)
		if s.Error != "" {
			line += ": " + s.Error
		}
		fmt.Fprintln(w, line)
	}
	fmt.Fprintf(w, "nodes=%d edges=%d undo=%d redo=%d failed=%d\n",
		resp.Nodes, resp.Edges, resp.UndoSteps, resp.RedoSteps, resp.Failed)
	if resp.DocumentID != "" {
		fmt.Fprintf(w, "saved %s\n", resp.DocumentID)
	}
}

func newValidateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "validate <script.yaml>...",
		Short: "Check scripts without running them",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var failed int
			for _, path := range args {
				s, err := script.ReadFile(path)
				if err != nil {
					failed++
					fmt.Fprintf(cmd.OutOrStdout(), "FAIL %s: %v\n", path, err)
					continue
				}
				fmt.Fprintf(cmd.OutOrStdout(), "ok   %s: %s (%d steps)\n", path, s.Name, len(s.Steps))
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d scripts invalid", failed, len(args))
			}
			return nil
		},
	}
}

func newListCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List saved documents, most recently updated first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, release, err := a.store(cmd.Context())
			if err != nil {
				return err
			}
			defer release()

			var filter flowchart.Filter
			filter.Name, _ = cmd.Flags().GetString(FlagName)
			filter.Tag, _ = cmd.Flags().GetString(FlagTag)
			filter.Limit, _ = cmd.Flags().GetInt(FlagLimit)
			if err := filter.Validate(); err != nil {
				return err
			}
			docs, err := store.List(cmd.Context(), filter)
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tNAME\tDIRECTION\tNODES\tEDGES\tTAGS\tUPDATED")
			for _, d := range docs {
				var nodes, edges int
				if d.Data != nil {
					nodes, edges = len(d.Data.Nodes), len(d.Data.Edges)
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%v\t%s\n",
					d.ID, d.Name, d.Direction, nodes, edges, d.Tags, d.UpdatedAt.Format(time.RFC3339))
			}
			return tw.Flush()
		},
	}
	cmd.Flags().String(FlagName, "", "Only documents with this name")
	cmd.Flags().String(FlagTag, "", "Only documents carrying this tag")
	cmd.Flags().Int(FlagLimit, 0, "Maximum number of documents")
	return cmd
}

func newShowCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Print a saved document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, release, err := a.store(cmd.Context())
			if err != nil {
				return err
			}
			defer release()

			doc, err := store.Load(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			switch format, _ := cmd.Flags().GetString(FlagFormat); format {
			case "json":
				return writeJSON(cmd.OutOrStdout(), doc)
			case "yaml":
				enc := yaml.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent(2)
				if err := enc.Encode(doc); err != nil {
					return err
				}
				return enc.Close()
			default:
				return fmt.Errorf("unknown format %q (json, yaml)", format)
			}
		},
	}
	cmd.Flags().String(FlagFormat, "json", "Output format: json or yaml")
	return cmd
}

func newDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a saved document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, release, err := a.store(cmd.Context())
			if err != nil {
				return err
			}
			defer release()

			if err := store.Delete(cmd.Context(), args[0]); err != nil {
				return err
			}
			a.logger().Info("document deleted", "id", args[0])
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", args[0])
			return nil
		},
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

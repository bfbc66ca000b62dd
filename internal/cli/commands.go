package cli

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/kmmelissat/analisis-al-instante-sub001/internal/models"
	"github.com/kmmelissat/analisis-al-instante-sub001/internal/store"
)

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "analisis %s (built %s)\n", Version, BuildDate)
		},
	}
}

func newStatusCommand() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the saved session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withSession(cmd, func(s *Session) error {
				snap := s.Store.Snapshot()
				if asJSON {
					return writeJSON(cmd, store.Project(snap))
				}
				renderStatus(cmd.OutOrStdout(), snap)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the persisted projection as JSON")
	return cmd
}

func newUploadCommand() *cobra.Command {
	var analyze bool
	cmd := &cobra.Command{
		Use:   "upload <file>",
		Short: "Upload a dataset and, by default, analyze it",
		Example: `  # Upload and analyze
  analisis upload sales.csv

  # Upload only
  analisis upload sales.csv --analyze=false`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, func(s *Session) error {
				meta, err := s.Workflow.Upload(cmd.Context(), args[0])
				if err != nil {
					return reportOperation(cmd, err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Uploaded %s as %s\n", meta.Filename, meta.FileID)
				if !analyze {
					return nil
				}
				return runAnalyze(cmd, s)
			})
		},
	}
	cmd.Flags().BoolVar(&analyze, "analyze", true, "run the analysis after uploading")
	return cmd
}

func newAnalyzeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "analyze",
		Short: "Analyze the uploaded file and list chart suggestions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withSession(cmd, func(s *Session) error {
				return runAnalyze(cmd, s)
			})
		},
	}
}

func runAnalyze(cmd *cobra.Command, s *Session) error {
	resp, err := s.Workflow.AnalyzeSync(cmd.Context())
	if err != nil {
		return reportOperation(cmd, err)
	}
	snap := s.Store.Snapshot()
	fmt.Fprintln(cmd.OutOrStdout(), snap.Summary)
	renderSuggestions(cmd.OutOrStdout(), resp.Suggestions)
	return nil
}

func newSuggestionsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "suggestions",
		Short: "List the chart suggestions from the last analysis",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withSession(cmd, func(s *Session) error {
				renderSuggestions(cmd.OutOrStdout(), s.Store.Snapshot().Suggestions)
				return nil
			})
		},
	}
}

func newChartCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chart",
		Short: "Manage dashboard charts",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List dashboard charts with their grid positions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withSession(cmd, func(s *Session) error {
				snap := s.Store.Snapshot()
				if len(snap.SelectedCharts) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "(no charts)")
					return nil
				}
				renderCharts(cmd.OutOrStdout(), snap)
				return nil
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "add <suggestion-id>",
		Short: "Create a chart from a suggestion and open the dashboard",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, func(s *Session) error {
				chart, err := s.Workflow.CreateVisualization(args[0])
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Added %s chart %s\n", chart.Type, chart.ID)
				return nil
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "remove <chart-id>",
		Short: "Remove a chart from the dashboard",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, func(s *Session) error {
				if _, ok := s.Store.Snapshot().Chart(args[0]); !ok {
					return fmt.Errorf("chart not found: %s", args[0])
				}
				s.Workflow.RemoveChart(args[0])
				fmt.Fprintf(cmd.OutOrStdout(), "Removed %s\n", args[0])
				return nil
			})
		},
	})

	cmd.AddCommand(newChartUpdateCommand())
	return cmd
}

func newChartUpdateCommand() *cobra.Command {
	var (
		title, description, chartType, xAxis, yAxis string
		colors                                      []string
	)
	cmd := &cobra.Command{
		Use:   "update <chart-id>",
		Short: "Change fields of a dashboard chart",
		Example: `  analisis chart update chart-1 --title "Revenue" --type line
  analisis chart update chart-1 --y sales,returns`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var patch models.ChartPatch
			flags := cmd.Flags()
			if flags.Changed("title") {
				patch.Title = &title
			}
			if flags.Changed("description") {
				patch.Description = &description
			}
			if flags.Changed("type") {
				t := models.ChartType(chartType)
				if !t.Valid() {
					return fmt.Errorf("unsupported chart type %q", chartType)
				}
				patch.Type = &t
			}
			if flags.Changed("x") {
				patch.XAxis = &xAxis
			}
			if flags.Changed("y") {
				var axis models.Axis
				for _, part := range strings.Split(yAxis, ",") {
					if p := strings.TrimSpace(part); p != "" {
						axis = append(axis, p)
					}
				}
				patch.YAxis = &axis
			}
			if flags.Changed("colors") {
				patch.Colors = &colors
			}

			return withSession(cmd, func(s *Session) error {
				if _, ok := s.Store.Snapshot().Chart(args[0]); !ok {
					return fmt.Errorf("chart not found: %s", args[0])
				}
				s.Store.UpdateChart(args[0], patch)
				fmt.Fprintf(cmd.OutOrStdout(), "Updated %s\n", args[0])
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "chart title")
	cmd.Flags().StringVar(&description, "description", "", "chart description")
	cmd.Flags().StringVar(&chartType, "type", "", "chart type (bar|line|pie|scatter|area|donut)")
	cmd.Flags().StringVar(&xAxis, "x", "", "x-axis column")
	cmd.Flags().StringVar(&yAxis, "y", "", "comma-separated y-axis columns")
	cmd.Flags().StringSliceVar(&colors, "colors", nil, "chart colours")
	return cmd
}

func newNavCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "nav",
		Short: "Move between workflow pages",
	}

	cmd.AddCommand(&cobra.Command{
		Use:       "goto <page>",
		Short:     "Go to a page (landing|processing|results|dashboard)",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"landing", "processing", "results", "dashboard"},
		RunE: func(cmd *cobra.Command, args []string) error {
			page, err := models.ParsePageID(args[0])
			if err != nil {
				return err
			}
			return withSession(cmd, func(s *Session) error {
				s.Store.GoToPage(page)
				fmt.Fprintf(cmd.OutOrStdout(), "Now on %s\n", s.Store.Snapshot().CurrentPage)
				return nil
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "back",
		Short: "Return to the previous page",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withSession(cmd, func(s *Session) error {
				if !s.Store.CanGoBack() {
					fmt.Fprintln(cmd.OutOrStdout(), "No previous page")
					return nil
				}
				s.Store.GoBack()
				fmt.Fprintf(cmd.OutOrStdout(), "Now on %s\n", s.Store.Snapshot().CurrentPage)
				return nil
			})
		},
	})
	return cmd
}

func newBackToResultsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "back-to-results",
		Short: "Leave the dashboard for the results page without touching history",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withSession(cmd, func(s *Session) error {
				s.Store.GoBackToResults()
				fmt.Fprintln(cmd.OutOrStdout(), "Now on results")
				return nil
			})
		},
	}
}

func newResetCommand() *cobra.Command {
	var clear bool
	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Start over from the landing page",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withSession(cmd, func(s *Session) error {
				s.Workflow.StartOver()
				if clear {
					s.Adapter.Detach()
					if err := s.Adapter.Clear(cmd.Context()); err != nil {
						return fmt.Errorf("clearing saved session: %w", err)
					}
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Session reset")
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&clear, "clear", false, "also delete the saved session")
	return cmd
}

func newSyncCommand() *cobra.Command {
	var dataFile string
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Push data for the current file to the server-side store",
		Long: `Push data for the current file to the server-side store.

Without --data the current summary, suggestions, charts, and layout are sent.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var payload any
			if dataFile != "" {
				raw, err := os.ReadFile(dataFile)
				if err != nil {
					return fmt.Errorf("reading %s: %w", dataFile, err)
				}
				if !json.Valid(raw) {
					return fmt.Errorf("%s does not contain valid JSON", dataFile)
				}
				payload = json.RawMessage(raw)
			}

			return withSession(cmd, func(s *Session) error {
				if payload == nil {
					snap := s.Store.Snapshot()
					payload = map[string]any{
						"summary":     snap.Summary,
						"suggestions": snap.Suggestions,
						"charts":      snap.SelectedCharts,
						"layout":      snap.Layout,
					}
				}
				resp, err := s.Workflow.Sync(cmd.Context(), payload)
				if err != nil {
					return reportOperation(cmd, err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s (%s)\n", resp.Message, resp.FileID)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&dataFile, "data", "", "JSON file to send as fileData")
	return cmd
}

func newDebugStorageCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "debug-storage",
		Short: "Show what the server-side store holds",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withSession(cmd, func(s *Session) error {
				info, err := s.Workflow.DebugStorage(cmd.Context())
				if err != nil {
					return err
				}
				t := newTable(cmd.OutOrStdout())
				t.SetTitle(fmt.Sprintf("%d files (%s)", info.TotalFiles, info.Timestamp.Format("2006-01-02 15:04:05")))
				for _, id := range info.FileIDs {
					t.AppendRow([]any{id})
				}
				t.Render()
				return nil
			})
		},
	}
}

// reportOperation prints the user-facing text of a classified failure and
// returns it unchanged.
func reportOperation(cmd *cobra.Command, err error) error {
	var opErr *models.OperationError
	if errors.As(err, &opErr) {
		fmt.Fprintln(cmd.ErrOrStderr(), opErr.UserMessage())
	}
	return err
}

func writeJSON(cmd *cobra.Command, v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), string(out))
	return err
}

// v0
// cmd/schedctl/commands.go
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"projetbda/analytics/internal/dashboard"
	"projetbda/analytics/internal/export"
	"projetbda/analytics/internal/planner"
	"projetbda/analytics/internal/schedule"
)

type rootOptions struct {
	plannerURL string
	timeout    time.Duration
	verbose    bool
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:   "schedctl",
		Short: "Query exam schedules and dashboards from the planner",
		Long: `schedctl talks to the planning API and renders schedules the same way
the analytics service does.

Available subcommands:
  student   - grouped schedule of one student, as CSV
  formation - grouped schedule of one formation year, as CSV
  prof      - supervision list of one professor, as CSV
  dashboard - operations dashboard of one period, as JSON`,
		SilenceUsage: true,
	}
	defaultURL := os.Getenv("ANALYTICS_PLANNER_URL")
	if defaultURL == "" {
		defaultURL = "http://localhost:5000"
	}
	root.PersistentFlags().StringVar(&opts.plannerURL, "planner-url", defaultURL, "planner base URL")
	root.PersistentFlags().DurationVar(&opts.timeout, "timeout", 10*time.Second, "per-request timeout")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "log planner calls to stderr")

	root.AddCommand(
		newStudentCmd(opts),
		newFormationCmd(opts),
		newProfCmd(opts),
		newDashboardCmd(opts),
	)
	return root
}

func (o *rootOptions) client(cmd *cobra.Command) *planner.Client {
	return planner.New(planner.Options{
		BaseURL:    o.plannerURL,
		Timeout:    o.timeout,
		MaxRetries: 1,
		Logger:     o.logger(cmd),
	})
}

func (o *rootOptions) logger(cmd *cobra.Command) *slog.Logger {
	level := slog.LevelWarn
	if o.verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
}

func newStudentCmd(opts *rootOptions) *cobra.Command {
	var studentID, out string
	var periodID int64
	cmd := &cobra.Command{
		Use:   "student",
		Short: "Export the grouped schedule of a student",
		RunE: func(cmd *cobra.Command, args []string) error {
			body, err := opts.client(cmd).StudentSchedule(cmd.Context(), studentID, periodID)
			if err != nil {
				return err
			}
			groups, err := schedule.RegroupIfFlat(body)
			if err != nil {
				return err
			}
			return writeOutput(cmd, out, export.ToCSV(export.StudentColumns, export.GroupRows(groups)))
		},
	}
	cmd.Flags().StringVar(&studentID, "student-id", "", "student identifier")
	cmd.Flags().Int64Var(&periodID, "periode-id", 0, "period identifier (latest when omitted)")
	cmd.Flags().StringVarP(&out, "out", "o", "", "write to file instead of stdout")
	_ = cmd.MarkFlagRequired("student-id")
	return cmd
}

func newFormationCmd(opts *rootOptions) *cobra.Command {
	var formationID, annee, out string
	var periodID int64
	cmd := &cobra.Command{
		Use:   "formation",
		Short: "Export the grouped schedule of a formation year",
		RunE: func(cmd *cobra.Command, args []string) error {
			body, err := opts.client(cmd).FormationSchedule(cmd.Context(), formationID, annee, periodID)
			if err != nil {
				return err
			}
			groups, err := schedule.RegroupIfFlat(body)
			if err != nil {
				return err
			}
			return writeOutput(cmd, out, export.ToCSV(export.StudentColumns, export.GroupRows(groups)))
		},
	}
	cmd.Flags().StringVar(&formationID, "formation-id", "", "formation identifier")
	cmd.Flags().StringVar(&annee, "annee", "", "study year")
	cmd.Flags().Int64Var(&periodID, "periode-id", 0, "period identifier (latest when omitted)")
	cmd.Flags().StringVarP(&out, "out", "o", "", "write to file instead of stdout")
	_ = cmd.MarkFlagRequired("formation-id")
	_ = cmd.MarkFlagRequired("annee")
	return cmd
}

func newProfCmd(opts *rootOptions) *cobra.Command {
	var profID, from, to, out string
	cmd := &cobra.Command{
		Use:   "prof",
		Short: "Export the supervisions of a professor",
		RunE: func(cmd *cobra.Command, args []string) error {
			body, err := opts.client(cmd).ProfessorSchedule(cmd.Context(), profID, from, to)
			if err != nil {
				return err
			}
			rows, err := schedule.DecodeAssignments(body)
			if err != nil {
				return err
			}
			return writeOutput(cmd, out, export.ToCSV(export.ProfessorColumns, export.ProfessorRows(rows)))
		},
	}
	cmd.Flags().StringVar(&profID, "prof-id", "", "professor identifier")
	cmd.Flags().StringVar(&from, "from", "", "first day, YYYY-MM-DD")
	cmd.Flags().StringVar(&to, "to", "", "last day, YYYY-MM-DD")
	cmd.Flags().StringVarP(&out, "out", "o", "", "write to file instead of stdout")
	_ = cmd.MarkFlagRequired("prof-id")
	return cmd
}

func newDashboardCmd(opts *rootOptions) *cobra.Command {
	var periodID int64
	cmd := &cobra.Command{
		Use:   "dashboard",
		Short: "Print the operations dashboard of a period",
		RunE: func(cmd *cobra.Command, args []string) error {
			if periodID <= 0 {
				return fmt.Errorf("--periode-id must be a positive integer")
			}
			svc, err := dashboard.NewService(opts.client(cmd), nil, nil, opts.logger(cmd))
			if err != nil {
				return err
			}
			d := svc.Build(cmd.Context(), periodID)
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			if err := enc.Encode(d); err != nil {
				return err
			}
			if failed := d.Failed(); failed > 0 {
				return fmt.Errorf("dashboard incomplete: %d section(s) failed", failed)
			}
			return nil
		},
	}
	cmd.Flags().Int64Var(&periodID, "periode-id", 0, "period identifier")
	_ = cmd.MarkFlagRequired("periode-id")
	return cmd
}

func writeOutput(cmd *cobra.Command, path, body string) error {
	p := strings.TrimSpace(path)
	if p == "" {
		_, err := io.WriteString(cmd.OutOrStdout(), body+"\n")
		return err
	}
	f, err := os.Create(p)
	if err != nil {
		return fmt.Errorf("create %s: %w", p, err)
	}
	if _, err := io.WriteString(f, body+"\n"); err != nil {
		_ = f.Close()
		return fmt.Errorf("write %s: %w", p, err)
	}
	return f.Close()
}

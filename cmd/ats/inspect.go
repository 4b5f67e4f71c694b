package main

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"ats/domain"
	"ats/infrastructure"
)

const timeLayout = "2006-01-02 15:04:05"

func newApplicationsCommand(ctx *commandContext) *cobra.Command {
	var jobID, candidateID uint

	cmd := &cobra.Command{
		Use:   "applications",
		Short: "List applications for a job or a candidate",
		RunE: func(cmd *cobra.Command, args []string) error {
			if (jobID == 0) == (candidateID == 0) {
				return errors.New("exactly one of --job or --candidate is required")
			}
			db, err := ctx.openDatabase()
			if err != nil {
				return err
			}
			defer func() { _ = infrastructure.CloseDatabase(db) }()
			store := infrastructure.NewGormStore(db)

			var apps []domain.Application
			if jobID != 0 {
				job, err := store.GetJob(cmd.Context(), jobID)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s (%s)\n", job.Title, job.Status)
				apps, err = store.ListApplicationsByJob(cmd.Context(), jobID)
				if err != nil {
					return err
				}
			} else {
				apps, err = store.ListApplicationsByCandidate(cmd.Context(), candidateID)
				if err != nil {
					return err
				}
			}

			if len(apps) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No applications")
				return nil
			}
			rows := make([][]string, 0, len(apps))
			for _, app := range apps {
				rows = append(rows, []string{
					strconv.FormatUint(uint64(app.ID), 10),
					strconv.FormatUint(uint64(app.CandidateID), 10),
					strconv.FormatUint(uint64(app.JobID), 10),
					string(app.Stage),
					formatTime(app.UpdatedAt),
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable([]column{
				{title: "ID", numeric: true},
				{title: "Candidate", numeric: true},
				{title: "Job", numeric: true},
				{title: "Stage"},
				{title: "Updated"},
			}, rows))
			return nil
		},
	}
	cmd.Flags().UintVar(&jobID, "job", 0, "Job id")
	cmd.Flags().UintVar(&candidateID, "candidate", 0, "Candidate user id")
	return cmd
}

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var applicationID uint

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show the stage history of an application, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			if applicationID == 0 {
				return errors.New("--application is required")
			}
			db, err := ctx.openDatabase()
			if err != nil {
				return err
			}
			defer func() { _ = infrastructure.CloseDatabase(db) }()
			store := infrastructure.NewGormStore(db)

			app, err := store.GetApplication(cmd.Context(), applicationID)
			if err != nil {
				return err
			}
			history, err := store.ListHistory(cmd.Context(), app.ID)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Application %d: %s\n", app.ID, app.Stage)
			if len(history) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No stage changes")
				return nil
			}
			rows := make([][]string, 0, len(history))
			for _, h := range history {
				changedBy := "-"
				if h.ChangedByID != nil {
					changedBy = strconv.FormatUint(uint64(*h.ChangedByID), 10)
				}
				rows = append(rows, []string{
					string(h.FromStage),
					string(h.ToStage),
					changedBy,
					formatTime(h.ChangedAt),
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable([]column{
				{title: "From"},
				{title: "To"},
				{title: "Changed By", numeric: true},
				{title: "Changed At"},
			}, rows))
			return nil
		},
	}
	cmd.Flags().UintVar(&applicationID, "application", 0, "Application id")
	return cmd
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format(timeLayout)
}

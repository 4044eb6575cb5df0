package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/prospectml/leadscout/internal/model"
	"github.com/prospectml/leadscout/internal/store"
)

var jobsCmd = &cobra.Command{
	Use:   "jobs",
	Short: "Inspect background discovery jobs",
	Long:  "Commands for listing and viewing stored discovery jobs.",
}

// -- jobs list --

var jobsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List discovery jobs",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		if err := st.Migrate(ctx); err != nil {
			return err
		}

		status, _ := cmd.Flags().GetString("status")
		limit, _ := cmd.Flags().GetInt("limit")
		offset, _ := cmd.Flags().GetInt("offset")

		filter := store.JobFilter{
			Status: model.JobStatus(status),
			Limit:  limit,
			Offset: offset,
		}

		jobList, err := st.ListJobs(ctx, filter)
		if err != nil {
			return eris.Wrap(err, "jobs list")
		}

		if len(jobList) == 0 {
			fmt.Fprintln(os.Stderr, "No jobs found.")
			return nil
		}

		formatJobsList(os.Stdout, jobList)
		return nil
	},
}

// -- jobs show --

var jobsShowCmd = &cobra.Command{
	Use:   "show <job-id>",
	Short: "Show full details of a job, including its leads",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		if err := st.Migrate(ctx); err != nil {
			return err
		}

		job, err := st.GetJob(ctx, args[0])
		if err != nil {
			return eris.Wrap(err, "jobs show")
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(job)
	},
}

func init() {
	jobsListCmd.Flags().String("status", "", "filter by job status (queued, running, complete, failed)")
	jobsListCmd.Flags().Int("limit", 50, "max number of jobs to display")
	jobsListCmd.Flags().Int("offset", 0, "number of jobs to skip")

	jobsCmd.AddCommand(jobsListCmd)
	jobsCmd.AddCommand(jobsShowCmd)
	rootCmd.AddCommand(jobsCmd)
}

// formatJobsList writes a tabular list of jobs to w.
func formatJobsList(out io.Writer, jobList []model.Job) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tINDUSTRY\tLOCATION\tSTATUS\tLEADS\tCREATED\tDURATION")
	_, _ = fmt.Fprintln(w, "--\t--------\t--------\t------\t-----\t-------\t--------")

	for _, j := range jobList {
		dur := "-"
		if j.FinishedAt != nil {
			dur = j.FinishedAt.Sub(j.CreatedAt).Round(time.Second).String()
		}

		industry := j.Request.Industry
		if len(industry) > 24 {
			industry = industry[:21] + "..."
		}
		location := j.Request.Location
		if len(location) > 24 {
			location = location[:21] + "..."
		}

		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%s\t%s\n",
			truncateID(j.ID),
			industry,
			location,
			j.Status,
			j.Count,
			j.CreatedAt.Format("2006-01-02 15:04"),
			dur,
		)
	}
	_ = w.Flush()
}

// truncateID returns the first 8 characters of a UUID for compact display.
func truncateID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

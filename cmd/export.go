package main

import (
	"context"
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/prospectml/leadscout/internal/export"
	"github.com/prospectml/leadscout/internal/model"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export a completed job's leads",
	Long:  "Commands for writing a job's ranked leads to an XLSX spreadsheet or pushing them to Salesforce.",
}

// -- export xlsx --

var exportOut string

var exportXLSXCmd = &cobra.Command{
	Use:   "xlsx <job-id>",
	Short: "Write a job's leads to an XLSX spreadsheet",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		leads, err := loadJobLeads(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		if err := export.WriteXLSX(leads, exportOut); err != nil {
			return err
		}

		fmt.Printf("Wrote %d leads to %s\n", len(leads), exportOut)
		return nil
	},
}

// -- export salesforce --

var exportSFCmd = &cobra.Command{
	Use:   "salesforce <job-id>",
	Short: "Push a job's leads to Salesforce as Lead records",
	Long:  "Inserts each lead as a Salesforce Lead. Leads whose website already exists on a Salesforce Lead are skipped.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		leads, err := loadJobLeads(ctx, args[0])
		if err != nil {
			return err
		}

		sfClient, err := initSalesforce()
		if err != nil {
			return err
		}

		res, err := export.PushSalesforce(ctx, sfClient, leads)
		if err != nil {
			return err
		}

		zap.L().Info("salesforce export complete",
			zap.Int("inserted", res.Inserted),
			zap.Int("skipped", res.Skipped),
			zap.Int("failed", res.Failed),
		)

		fmt.Printf("Inserted %d leads (%d skipped as existing, %d rejected)\n",
			res.Inserted, res.Skipped, res.Failed)
		return nil
	},
}

func init() {
	exportXLSXCmd.Flags().StringVar(&exportOut, "out", "leads.xlsx", "output spreadsheet path")

	exportCmd.AddCommand(exportXLSXCmd)
	exportCmd.AddCommand(exportSFCmd)
	rootCmd.AddCommand(exportCmd)
}

// loadJobLeads fetches a job and returns its ranked leads. Only complete jobs
// with at least one lead can be exported.
func loadJobLeads(ctx context.Context, jobID string) ([]model.EnrichedLead, error) {
	if err := cfg.Validate("export"); err != nil {
		return nil, err
	}

	st, err := initStore(ctx)
	if err != nil {
		return nil, err
	}
	defer st.Close() //nolint:errcheck
	if err := st.Migrate(ctx); err != nil {
		return nil, err
	}

	job, err := st.GetJob(ctx, jobID)
	if err != nil {
		return nil, eris.Wrap(err, "load job")
	}
	if job.Status != model.JobStatusComplete {
		return nil, eris.Errorf("job %s is %s; only complete jobs can be exported", truncateID(job.ID), job.Status)
	}
	if len(job.Leads) == 0 {
		return nil, eris.Errorf("job %s finished with no leads", truncateID(job.ID))
	}

	return job.Leads, nil
}

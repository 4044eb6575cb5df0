package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/prospectml/leadscout/internal/model"
)

var (
	discoverReq    model.DiscoveryRequest
	discoverBatch  bool
	discoverOutput string
)

var discoverCmd = &cobra.Command{
	Use:   "discover",
	Short: "Run one lead discovery pass and print the leads",
	Long:  "Runs the full pipeline once: tiered searches, qualification, enrichment, ranking. Results go to stdout; no job is stored.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		if discoverOutput != "json" && discoverOutput != "table" {
			return eris.Errorf("unsupported output format: %s", discoverOutput)
		}

		if err := cfg.Validate("discover"); err != nil {
			return err
		}

		p, err := buildPipeline(ctx)
		if err != nil {
			return err
		}

		mode := model.ModeSync
		if discoverBatch {
			mode = model.ModeBackground
		}

		leads, err := p.Run(ctx, &discoverReq, mode)
		if err != nil {
			return eris.Wrap(err, "discover")
		}

		zap.L().Info("discovery complete",
			zap.String("industry", discoverReq.Industry),
			zap.String("location", discoverReq.Location),
			zap.Int("leads", len(leads)),
		)

		if discoverOutput == "table" {
			formatLeadsTable(os.Stdout, leads)
			return nil
		}

		out := discoverResult{Leads: leads, Count: len(leads)}
		if out.Leads == nil {
			out.Leads = []model.EnrichedLead{}
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	},
}

// discoverResult mirrors the HTTP discovery response shape.
type discoverResult struct {
	Leads []model.EnrichedLead `json:"leads"`
	Count int                  `json:"count"`
}

func init() {
	f := discoverCmd.Flags()
	f.StringVar(&discoverReq.Industry, "industry", "", "target industry (required)")
	f.StringVar(&discoverReq.Size, "size", "", "target company size (required)")
	f.StringVar(&discoverReq.Location, "location", "", "target location (required)")
	f.StringVar(&discoverReq.LeadType, "lead-type", "", "kind of lead wanted")
	f.StringVar(&discoverReq.TargetType, "target-type", "", "product or service the leads should need")
	f.StringVar(&discoverReq.FinancialTerm, "financial-term", "", "financial signal to search for")
	f.StringVar(&discoverReq.SalesPersona, "persona", "", "selling persona for match scoring")
	f.StringVar(&discoverReq.SocialFocus, "social-focus", "", "social channel emphasis")
	f.StringVar(&discoverReq.ActiveSignal, "active-signal", "", "recent-activity signal to look for")
	f.StringVar(&discoverReq.ClientProfile, "client-profile", "", "ideal client profile description")
	f.BoolVar(&discoverBatch, "batch", false, "use the background batch size and deadline")
	f.StringVarP(&discoverOutput, "output", "o", "json", "output format (json, table)")
	_ = discoverCmd.MarkFlagRequired("industry")
	_ = discoverCmd.MarkFlagRequired("size")
	_ = discoverCmd.MarkFlagRequired("location")
	rootCmd.AddCommand(discoverCmd)
}

// formatLeadsTable writes a tabular lead summary to w.
func formatLeadsTable(out io.Writer, leads []model.EnrichedLead) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "COMPANY\tWEBSITE\tQUALITY\tMATCH\tTIER\tLIVE\tLOCATION")
	_, _ = fmt.Fprintln(w, "-------\t-------\t-------\t-----\t----\t----\t--------")

	for _, l := range leads {
		company := l.CompanyName
		if len(company) > 30 {
			company = company[:27] + "..."
		}
		website := l.Website
		if len(website) > 40 {
			website = website[:37] + "..."
		}

		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%.2f\t%d\t%v\t%s\n",
			company,
			website,
			l.QualityScore,
			l.PersonaMatchScore,
			l.SourceTier,
			l.IsWebsiteLive,
			l.Location,
		)
	}
	_ = w.Flush()
}

// Package export writes ranked leads to external destinations: an XLSX
// spreadsheet or Salesforce Lead records.
package export

import (
	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/prospectml/leadscout/internal/model"
)

// xlsxColumns defines the ordered spreadsheet output columns.
var xlsxColumns = []string{
	"Company",
	"Website",
	"Industry",
	"Location",
	"Quality",
	"Persona Match",
	"Website Live",
	"Email",
	"Phone",
	"Contact",
	"Pain Point",
	"Qualification Summary",
	"Premium Insight",
	"Source Tier",
}

// WriteXLSX writes leads to a spreadsheet at path, one row per lead in ranked
// order, under a single "Leads" sheet with a header row.
func WriteXLSX(leads []model.EnrichedLead, path string) error {
	f := xlsx.NewFile()
	sheet, err := f.AddSheet("Leads")
	if err != nil {
		return eris.Wrap(err, "export: add sheet")
	}

	header := sheet.AddRow()
	for _, col := range xlsxColumns {
		header.AddCell().SetString(col)
	}

	for _, lead := range leads {
		row := sheet.AddRow()
		row.AddCell().SetString(lead.CompanyName)
		row.AddCell().SetString(lead.Website)
		row.AddCell().SetString(lead.Industry)
		row.AddCell().SetString(lead.Location)
		row.AddCell().SetString(string(lead.QualityScore))
		row.AddCell().SetFloat(lead.PersonaMatchScore)
		row.AddCell().SetBool(lead.IsWebsiteLive)
		row.AddCell().SetString(lead.Email)
		row.AddCell().SetString(lead.Phone)
		row.AddCell().SetString(lead.ContactName)
		row.AddCell().SetString(lead.PainPoint)
		row.AddCell().SetString(lead.QualificationSummary)
		row.AddCell().SetString(lead.PremiumInsight)
		row.AddCell().SetInt(lead.SourceTier)
	}

	if err := f.Save(path); err != nil {
		return eris.Wrap(err, "export: save xlsx")
	}
	return nil
}

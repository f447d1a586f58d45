package model

// ExportHeader is the column order of exported rows.
var ExportHeader = []string{"Subject", "Snippet", "From", "Category"}

// ExportRow is the tabular projection of one classified record.
type ExportRow struct {
	Subject  string `json:"Subject"`
	Snippet  string `json:"Snippet"`
	From     string `json:"From"`
	Category string `json:"Category"`
}

// Values returns the row's fields in ExportHeader order.
func (r ExportRow) Values() []string {
	return []string{r.Subject, r.Snippet, r.From, r.Category}
}

// NewExportRow projects a classification into an export row.
func NewExportRow(c Classification) ExportRow {
	return ExportRow{
		Subject:  c.Record.Subject,
		Snippet:  c.Record.Snippet,
		From:     c.Record.Sender,
		Category: c.Label(),
	}
}

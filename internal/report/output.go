package report

import (
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"

	"github.com/contactkeval/option-xray/internal/scenario"
)

// Output file names inside a report directory.
const (
	JSONFile = "xray.json"
	CSVFile  = "scenarios.csv"
	TextFile = "summary.txt"
)

// WriteJSON writes v as indented JSON to <outdir>/xray.json.
func WriteJSON(v any, outdir string) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(outdir, JSONFile), b, 0644)
}

// WriteText writes the summary report to <outdir>/summary.txt.
func WriteText(summary, outdir string) error {
	return os.WriteFile(filepath.Join(outdir, TextFile), []byte(summary+"\n"), 0644)
}

// WriteCSV writes the scenario table to <outdir>/scenarios.csv, header
// included, in input order.
func WriteCSV(rows []scenario.Row, outdir string) error {
	f, err := os.Create(filepath.Join(outdir, CSVFile))
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	headers := []string{"name", "price", "pnl", "spot", "vol", "rate", "dividend", "maturity"}
	if err := w.Write(headers); err != nil {
		return err
	}
	for _, r := range rows {
		row := []string{
			r.Name,
			num(r.Price),
			num(r.PnL),
			num(r.Spot),
			num(r.Vol),
			num(r.Rate),
			num(r.Dividend),
			num(r.Maturity),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func num(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

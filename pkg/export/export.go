// Package export renders recommendations for command-line output.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/kilianp07/chargecap/core/model"
)

// Format selects an output encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
)

// ParseFormat validates a format name.
func ParseFormat(s string) (Format, error) {
	switch f := Format(s); f {
	case FormatJSON, FormatCSV:
		return f, nil
	default:
		return "", fmt.Errorf("unknown output format %q (json, csv)", s)
	}
}

// Write renders rec in the given format. JSON carries the full
// recommendation; CSV carries the evaluated candidate table.
func Write(w io.Writer, f Format, rec model.Recommendation) error {
	if f == FormatCSV {
		return WriteCSV(w, rec)
	}
	return WriteJSON(w, rec)
}

// WriteJSON writes the recommendation as indented JSON.
func WriteJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// WriteCSV writes one row per candidate contract, flagging the current and
// recommended levels.
func WriteCSV(w io.Writer, rec model.Recommendation) error {
	cw := csv.NewWriter(w)
	header := []string{"contract_kw", "expected_annual_cost", "overage_probability", "waste_probability", "score", "current", "recommended"}
	if err := cw.Write(header); err != nil {
		return err
	}
	for _, c := range rec.Candidates {
		row := []string{
			formatFloat(c.ContractKW),
			formatFloat(c.ExpectedAnnualCost),
			formatFloat(c.OverageProbability),
			formatFloat(c.WasteProbability),
			formatFloat(c.Score),
			strconv.FormatBool(c.ContractKW == rec.CurrentContractKW),
			strconv.FormatBool(c.ContractKW == rec.RecommendedContractKW),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

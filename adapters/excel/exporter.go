package excel

import (
	"fmt"
	"io"

	"cltlab/domain/stats"

	"github.com/xuri/excelize/v2"
)

// SummarySheet is the first sheet of an exported workbook
const SummarySheet = "Summary"

var summaryHeader = []interface{}{
	"Family", "n", "k", "Population mean", "Population SD", "Sampling mean",
	"Simulated SE", "Theoretical SE", "SE ratio", "Shapiro-Wilk W", "p-value", "Verdict",
}

// WriteWorkbook writes one summary row per experiment to the Summary sheet and the sample
// means of each experiment to a sheet of its own
func WriteWorkbook(w io.Writer, experiments []*stats.Experiment) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SummarySheet); err != nil {
		return fmt.Errorf("failed to name summary sheet: %w", err)
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}

	if err := writeSummary(f, experiments, bold); err != nil {
		return err
	}

	used := map[string]bool{SummarySheet: true}
	for _, exp := range experiments {
		name := sheetName(exp, used)
		used[name] = true
		if err := writeMeans(f, name, exp, bold); err != nil {
			return err
		}
	}

	f.SetActiveSheet(0)
	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func writeSummary(f *excelize.File, experiments []*stats.Experiment, headerStyle int) error {
	if err := f.SetSheetRow(SummarySheet, "A1", &summaryHeader); err != nil {
		return fmt.Errorf("failed to write summary header: %w", err)
	}
	last, _ := excelize.CoordinatesToCellName(len(summaryHeader), 1)
	if err := f.SetCellStyle(SummarySheet, "A1", last, headerStyle); err != nil {
		return fmt.Errorf("failed to style summary header: %w", err)
	}

	for i, exp := range experiments {
		sum := exp.Summary
		row := []interface{}{
			exp.Family.String(), exp.SampleSize, len(exp.Means),
			sum.PopulationMean, sum.PopulationStdDev, sum.SamplingMean,
			sum.SimulatedSE, sum.TheoreticalSE, sum.SERatio(),
		}
		if nt := sum.Normality; nt != nil {
			row = append(row, nt.W, nt.PValue, nt.Verdict())
		} else {
			row = append(row, nil, nil, "untested")
		}

		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(SummarySheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write summary row for %s: %w", exp.Family, err)
		}
	}

	if err := f.SetColWidth(SummarySheet, "A", "A", 16); err != nil {
		return fmt.Errorf("failed to size summary columns: %w", err)
	}
	return f.SetColWidth(SummarySheet, "B", "L", 14)
}

func writeMeans(f *excelize.File, name string, exp *stats.Experiment, headerStyle int) error {
	if _, err := f.NewSheet(name); err != nil {
		return fmt.Errorf("failed to add sheet %s: %w", name, err)
	}

	sw, err := f.NewStreamWriter(name)
	if err != nil {
		return fmt.Errorf("failed to stream sheet %s: %w", name, err)
	}
	if err := sw.SetRow("A1", []interface{}{"Sample", "Mean"}, excelize.RowOpts{StyleID: headerStyle}); err != nil {
		return fmt.Errorf("failed to write header of %s: %w", name, err)
	}
	for i, m := range exp.Means {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := sw.SetRow(cell, []interface{}{i + 1, m}); err != nil {
			return fmt.Errorf("failed to write mean %d of %s: %w", i+1, name, err)
		}
	}
	if err := sw.Flush(); err != nil {
		return fmt.Errorf("failed to flush sheet %s: %w", name, err)
	}
	return nil
}

// sheetName is "<family> n=<n>", made unique and kept within Excel's 31 characters
func sheetName(exp *stats.Experiment, used map[string]bool) string {
	base := fmt.Sprintf("%s n=%d", exp.Family, exp.SampleSize)
	name := base
	for i := 2; used[name]; i++ {
		name = fmt.Sprintf("%s (%d)", base, i)
	}
	if len(name) > 31 {
		name = name[:31]
	}
	return name
}

package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"

	"github.com/samcharles93/qlinear/internal/artifact"
	"github.com/samcharles93/qlinear/internal/registry"
	"github.com/samcharles93/qlinear/pkg/quant"
)

func newTable(w io.Writer, header []string) *tablewriter.Table {
	table := tablewriter.NewWriter(w)
	if header != nil {
		table.SetHeader(header)
		table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
		table.SetHeaderLine(false)
	}
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetBorder(false)
	table.SetNoWhiteSpace(true)
	table.SetTablePadding("    ")
	table.SetAutoWrapText(false)
	return table
}

// WriteMetrics renders one row per parameter with its absolute errors and
// whether the worst error stays within the rounding bound 0.5/scale.
func WriteMetrics(w io.Writer, m quant.ErrorMetrics, scale float64) {
	flat := Flatten(m, scale)
	data := make([][]string, 0, len(flat.Params))
	for _, p := range flat.Params {
		within := "yes"
		if !quant.WithinBound(p.MaxAbs, scale) {
			within = "no"
		}
		data = append(data, []string{p.Name, p.Kind, strconv.Itoa(p.Len), ff(p.MaxAbs), ff(p.MeanAbs), within})
	}

	table := newTable(w, []string{"PARAMETER", "KIND", "LEN", "MAX ABS ERR", "MEAN ABS ERR", "WITHIN BOUND"})
	table.AppendBulk(data)
	table.Render()
}

// Summary is the headline of a quantization run.
type Summary struct {
	RunID              string
	Scheme             string
	Scale              float64
	Clipped            int
	R2Original         float64
	R2Dequantized      float64
	MaxPredictionDelta float64
	Paths              []string
}

// WriteSummary renders a key/value table of the run headline.
func WriteSummary(w io.Writer, s Summary) {
	rows := [][]string{
		{"Run", s.RunID},
		{"Scheme", s.Scheme},
		{"Scale", ff(s.Scale)},
		{"Error bound", ff(quant.ErrorBound(s.Scale))},
		{"Clipped", strconv.Itoa(s.Clipped)},
		{"R2 original", fmt.Sprintf("%.4f", s.R2Original)},
		{"R2 dequantized", fmt.Sprintf("%.4f", s.R2Dequantized)},
		{"Max prediction delta", ff(s.MaxPredictionDelta)},
	}
	for _, p := range s.Paths {
		rows = append(rows, []string{"Artifact", p})
	}
	table := newTable(w, nil)
	table.AppendBulk(rows)
	table.Render()
}

// WritePredictions renders predictions next to their inputs. truth may be
// nil.
func WritePredictions(w io.Writer, features [][]float64, preds, truth []float64) {
	header := []string{"SAMPLE", "FEATURES", "PREDICTION"}
	if truth != nil {
		header = append(header, "TARGET")
	}
	data := make([][]string, 0, len(preds))
	for i, p := range preds {
		row := []string{strconv.Itoa(i + 1), formatRow(features[i]), fmt.Sprintf("%.2f", p)}
		if truth != nil {
			row = append(row, fmt.Sprintf("%.2f", truth[i]))
		}
		data = append(data, row)
	}
	table := newTable(w, header)
	table.AppendBulk(data)
	table.Render()
}

// WriteRuns renders run history, newest first.
func WriteRuns(w io.Writer, runs []registry.Run) {
	data := make([][]string, 0, len(runs))
	for _, r := range runs {
		data = append(data, []string{
			r.ID,
			r.CreatedAt.Local().Format(time.DateTime),
			r.Scheme,
			ff(r.Scale),
			strconv.Itoa(r.Clipped),
			ff(r.WorstError),
			fmt.Sprintf("%.4f", r.R2Original),
			fmt.Sprintf("%.4f", r.R2Dequantized),
		})
	}
	table := newTable(w, []string{"ID", "CREATED", "SCHEME", "SCALE", "CLIPPED", "WORST ERR", "R2", "R2 DEQUANT"})
	table.AppendBulk(data)
	table.Render()
}

// WriteInspect renders an artifact summary.
func WriteInspect(w io.Writer, s *artifact.Summary) {
	rows := [][]string{
		{"File", s.Path},
		{"Format", fmt.Sprintf("MCF %d.%d", s.Major, s.Minor)},
		{"Size", strconv.FormatUint(s.FileSize, 10)},
		{"Compressed", strconv.FormatBool(s.Compressed)},
	}
	if s.Info != nil {
		rows = append(rows, []string{"Kind", s.Info.Kind})
		if s.Info.RunID != "" {
			rows = append(rows, []string{"Run", s.Info.RunID})
		}
		if len(s.Info.Features) > 0 {
			rows = append(rows, []string{"Features", strings.Join(s.Info.Features, ", ")})
		}
		if s.Info.R2 != nil {
			rows = append(rows, []string{"R2", fmt.Sprintf("%.4f", *s.Info.R2)})
		}
	}
	if s.Quant != nil {
		rows = append(rows,
			[]string{"Method", s.Quant.Method},
			[]string{"Scale", ff(s.Quant.Scale)},
			[]string{"Clipped", strconv.FormatUint(uint64(s.Quant.Clipped), 10)},
		)
	}
	table := newTable(w, nil)
	table.AppendBulk(rows)
	table.Render()
	_, _ = fmt.Fprintln(w)

	data := make([][]string, 0, len(s.Sections)+len(s.Params))
	for _, sec := range s.Sections {
		data = append(data, []string{"section", sec.Type, "v" + strconv.FormatUint(uint64(sec.Version), 10), strconv.FormatUint(sec.Size, 10)})
	}
	for _, p := range s.Params {
		data = append(data, []string{"param", p.Name, p.Kind + "/" + p.DType, strconv.FormatUint(uint64(p.Count), 10)})
	}
	table = newTable(w, []string{"ENTRY", "NAME", "TYPE", "SIZE"})
	table.AppendBulk(data)
	table.Render()
}

func formatRow(x []float64) string {
	parts := make([]string, len(x))
	for i, v := range x {
		parts[i] = strconv.FormatFloat(v, 'g', 5, 64)
	}
	return "[" + strings.Join(parts, " ") + "]"
}

package render

import(
	"fmt"
	"math"

	"github.com/jedib0t/go-pretty/v6/table"

	"galprof/pkg/photom"
)

// ProfileTable renders the profile as a plain-text table, one row per
// scanned ring, invalid rings included (that's the point of keeping
// them: the radial coverage stays visible).
func ProfileTable(p photom.Profile) string {
	t := table.NewWriter()
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"#", "SMA", "INTENS", "EPS", "PA deg", "RMS", "ITERS", "OK"})

	for i, iso := range p {
		ok := ""
		if iso.Valid { ok = "ok" }
		t.AppendRow(table.Row{
			i + 1,
			fmt.Sprintf("%.2f", iso.Sma),
			fmt.Sprintf("%.4g", iso.Intens),
			fmt.Sprintf("%.3f", iso.Eps),
			fmt.Sprintf("%.1f", iso.PA*180.0/math.Pi),
			fmt.Sprintf("%.3g", iso.RMS),
			iso.Iters,
			ok,
		})
	}

	return t.Render()
}

package plot

import (
	"fmt"
	"io"
	"strconv"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/kpotier/trajanalysis/pkg/fsutil"
)

// Chart is one chart of an HTML report. Every series shares the x values of
// the first one.
type Chart struct {
	Title  string
	XLabel string
	YLabel string
	Series []Series
}

func (c Chart) line() (*charts.Line, error) {
	if len(c.Series) == 0 {
		return nil, fmt.Errorf("%s: nothing to plot", c.Title)
	}

	x := c.Series[0].X
	axis := make([]string, len(x))
	for i, v := range x {
		axis[i] = strconv.FormatFloat(v, 'g', 5, 64)
	}

	l := charts.NewLine()
	l.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: c.Title, Width: "900px", Height: "500px"}),
		charts.WithTitleOpts(opts.Title{Title: c.Title}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(len(c.Series) > 1)}),
		charts.WithXAxisOpts(opts.XAxis{Name: c.XLabel, NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Name: c.YLabel, NameLocation: "middle", NameGap: 40}),
		charts.WithDataZoomOpts(opts.DataZoom{Type: "slider"}),
	)
	l.SetXAxis(axis)

	for _, s := range c.Series {
		if len(s.Y) != len(x) || len(s.X) != len(x) {
			return nil, fmt.Errorf("%s: %s: %d points, expected %d", c.Title, s.Label, len(s.Y), len(x))
		}
		data := make([]opts.LineData, len(s.Y))
		for i, v := range s.Y {
			data[i] = opts.LineData{Value: v}
		}
		l.AddSeries(s.Label, data)
	}
	return l, nil
}

// HTML renders a page holding one line chart per Chart.
func HTML(w io.Writer, title string, cs ...Chart) error {
	page := components.NewPage()
	page.PageTitle = title

	for _, c := range cs {
		l, err := c.line()
		if err != nil {
			return err
		}
		page.AddCharts(l)
	}
	return page.Render(w)
}

// SaveHTML writes the HTML report into path.
func SaveHTML(path, title string, cs ...Chart) error {
	return fsutil.WriteFile(path, func(w io.Writer) error {
		return HTML(w, title, cs...)
	})
}

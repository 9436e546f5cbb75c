package chart

import (
	"fmt"
	"html/template"
	"io"
	"math"

	"github.com/dustin/go-humanize"
)

// Plot colours, assigned to groups in order
var palette = []string{
	"#636efa", "#ef553b", "#00cc96", "#ab63fa", "#ffa15a",
	"#19d3f3", "#ff6692", "#b6e880", "#ff97ff", "#fecb52",
}

const (
	marginLeft   = 110.0
	marginRight  = 190.0
	marginTop    = 70.0
	marginBottom = 70.0
	yTicks       = 5
)

// HTMLRenderer draws charts as inline SVG inside a standalone HTML page.
// The output references no external scripts, fonts or stylesheets.
type HTMLRenderer struct {
	Width  int
	Height int
}

// NewHTMLRenderer creates a renderer with the default canvas size
func NewHTMLRenderer() *HTMLRenderer {
	return &HTMLRenderer{Width: 1100, Height: 600}
}

// ContentType returns the HTML media type
func (r *HTMLRenderer) ContentType() string {
	return "text/html; charset=utf-8"
}

type svgRect struct {
	X, Y, W, H float64
	Fill       string
	Label      string
	Tooltip    string
}

type svgTick struct {
	X, Y  float64
	Label string
}

type legendEntry struct {
	Y     float64
	Fill  string
	Label string
}

type page struct {
	Title      string
	XLabel     string
	YLabel     string
	Width      int
	Height     int
	PlotLeft   float64
	PlotRight  float64
	PlotTop    float64
	PlotBottom float64
	XLabelX    float64
	XLabelY    float64
	YLabelX    float64
	YLabelY    float64
	LegendX    float64
	Rects      []svgRect
	XTicks     []svgTick
	YTicks     []svgTick
	Legend     []legendEntry
	Empty      bool
}

// Render writes the chart as HTML
func (r *HTMLRenderer) Render(w io.Writer, c *GroupedBarChart) error {
	p := r.layout(c)
	if err := pageTemplate.Execute(w, p); err != nil {
		return fmt.Errorf("render chart: %w", err)
	}
	return nil
}

func (r *HTMLRenderer) layout(c *GroupedBarChart) page {
	width, height := float64(r.Width), float64(r.Height)
	p := page{
		Title:      c.Title,
		XLabel:     c.XLabel,
		YLabel:     c.YLabel,
		Width:      r.Width,
		Height:     r.Height,
		PlotLeft:   marginLeft,
		PlotRight:  width - marginRight,
		PlotTop:    marginTop,
		PlotBottom: height - marginBottom,
		LegendX:    width - marginRight + 20,
		Empty:      len(c.Bars) == 0,
	}
	plotW := p.PlotRight - p.PlotLeft
	plotH := p.PlotBottom - p.PlotTop
	p.XLabelX = p.PlotLeft + plotW/2
	p.XLabelY = height - 20
	p.YLabelX = 24
	p.YLabelY = p.PlotTop + plotH/2

	maxValue := 0.0
	for _, b := range c.Bars {
		maxValue = math.Max(maxValue, b.Value)
	}
	top := niceCeiling(maxValue)

	for i := 0; i <= yTicks; i++ {
		v := top * float64(i) / yTicks
		p.YTicks = append(p.YTicks, svgTick{
			X:     p.PlotLeft - 8,
			Y:     p.PlotBottom - plotH*float64(i)/yTicks,
			Label: humanize.Comma(int64(math.Round(v))),
		})
	}

	if len(c.Categories) == 0 {
		return p
	}

	colour := make(map[string]string, len(c.Groups))
	groupPos := make(map[string]int, len(c.Groups))
	for i, g := range c.Groups {
		colour[g] = palette[i%len(palette)]
		groupPos[g] = i
		p.Legend = append(p.Legend, legendEntry{Y: p.PlotTop + float64(i)*22, Fill: colour[g], Label: g})
	}

	slot := plotW / float64(len(c.Categories))
	barW := slot * 0.8 / float64(len(c.Groups))
	catPos := make(map[string]int, len(c.Categories))
	for i, cat := range c.Categories {
		catPos[cat] = i
		p.XTicks = append(p.XTicks, svgTick{X: p.PlotLeft + slot*(float64(i)+0.5), Y: p.PlotBottom + 20, Label: cat})
	}

	for _, b := range c.Bars {
		h := 0.0
		if top > 0 && b.Value > 0 {
			h = plotH * b.Value / top
		}
		x := p.PlotLeft + slot*float64(catPos[b.Category]) + slot*0.1 + barW*float64(groupPos[b.Group])
		tooltip := fmt.Sprintf("%s, %s: %s", b.Group, b.Category, b.Label)
		if b.Count > 1 {
			tooltip = fmt.Sprintf("%s (%d rows)", tooltip, b.Count)
		}
		p.Rects = append(p.Rects, svgRect{
			X: x, Y: p.PlotBottom - h, W: barW, H: h,
			Fill:    colour[b.Group],
			Label:   b.Label,
			Tooltip: tooltip,
		})
	}
	return p
}

// niceCeiling rounds v up to 1, 2, 2.5 or 5 times a power of ten
func niceCeiling(v float64) float64 {
	if v <= 0 {
		return 1
	}
	exp := math.Pow(10, math.Floor(math.Log10(v)))
	for _, m := range []float64{1, 2, 2.5, 5, 10} {
		if v <= m*exp {
			return m * exp
		}
	}
	return 10 * exp
}

var pageTemplate = template.Must(template.New("chart").Funcs(template.FuncMap{
	"f":    func(v float64) string { return fmt.Sprintf("%.2f", v) },
	"half": func(v float64) float64 { return v / 2 },
	"add":  func(a, b float64) float64 { return a + b },
}).Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
body { font-family: "Open Sans", verdana, arial, sans-serif; margin: 24px; color: #2a3f5f; }
.bar-label { font-size: 10px; text-anchor: middle; fill: #2a3f5f; }
.tick { font-size: 12px; fill: #2a3f5f; }
.axis-title { font-size: 14px; fill: #2a3f5f; }
</style>
</head>
<body>
<svg xmlns="http://www.w3.org/2000/svg" width="{{.Width}}" height="{{.Height}}" viewBox="0 0 {{.Width}} {{.Height}}" role="img" aria-label="{{.Title}}">
<rect x="0" y="0" width="{{.Width}}" height="{{.Height}}" fill="#ffffff"/>
<text x="{{f .PlotLeft}}" y="36" font-size="20">{{.Title}}</text>
{{range .YTicks}}<line x1="{{f (add .X 8)}}" x2="{{f $.PlotRight}}" y1="{{f .Y}}" y2="{{f .Y}}" stroke="#e5ecf6"/>
<text class="tick" x="{{f .X}}" y="{{f (add .Y 4)}}" text-anchor="end">{{.Label}}</text>
{{end}}{{range .Rects}}<rect x="{{f .X}}" y="{{f .Y}}" width="{{f .W}}" height="{{f .H}}" fill="{{.Fill}}"><title>{{.Tooltip}}</title></rect>
<text class="bar-label" x="{{f (add .X (half .W))}}" y="{{f (add .Y -4)}}">{{.Label}}</text>
{{end}}{{range .XTicks}}<text class="tick" x="{{f .X}}" y="{{f .Y}}" text-anchor="middle">{{.Label}}</text>
{{end}}<line x1="{{f .PlotLeft}}" x2="{{f .PlotRight}}" y1="{{f .PlotBottom}}" y2="{{f .PlotBottom}}" stroke="#2a3f5f"/>
<text class="axis-title" x="{{f .XLabelX}}" y="{{f .XLabelY}}" text-anchor="middle">{{.XLabel}}</text>
<text class="axis-title" x="{{f .YLabelX}}" y="{{f .YLabelY}}" text-anchor="middle" transform="rotate(-90 {{f .YLabelX}} {{f .YLabelY}})">{{.YLabel}}</text>
{{range .Legend}}<rect x="{{f $.LegendX}}" y="{{f .Y}}" width="14" height="14" fill="{{.Fill}}"/>
<text class="tick" x="{{f (add $.LegendX 20)}}" y="{{f (add .Y 12)}}">{{.Label}}</text>
{{end}}{{if .Empty}}<text class="axis-title" x="{{f .XLabelX}}" y="{{f .YLabelY}}" text-anchor="middle">No data</text>
{{end}}</svg>
</body>
</html>
`))

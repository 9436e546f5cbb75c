package chart

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGroupedBarChart_AddCollapsesDuplicates(t *testing.T) {
	c := NewGroupedBarChart("Population by Year and Nation", "Year", "Population")
	c.Add("United States", "2018", 322903030, "322903030")
	c.Add("United States", "2018", 999, "999")
	c.Add("Canada", "2018", 37000000, "37000000")
	c.Add("United States", "2019", 324697795, "324697795")

	assert.Equal(t, []string{"2018", "2019"}, c.Categories)
	assert.Equal(t, []string{"United States", "Canada"}, c.Groups)
	require.Len(t, c.Bars, 3)

	bar, ok := c.Lookup("United States", "2018")
	require.True(t, ok)
	assert.Equal(t, 322903030.0, bar.Value)
	assert.Equal(t, 2, bar.Count)

	_, ok = c.Lookup("Canada", "2019")
	assert.False(t, ok)
}

func TestHTMLRenderer_SelfContainedDocument(t *testing.T) {
	c := NewGroupedBarChart("Population by Year and Nation", "Year", "Population")
	c.Add("United States", "2017", 321004407, "321004407")
	c.Add("United States", "2018", 322903030, "322903030")
	c.Add("Canada & Co", "2018", 37000000, "37000000")

	var buf bytes.Buffer
	r := NewHTMLRenderer()
	require.NoError(t, r.Render(&buf, c))

	html := buf.String()
	assert.True(t, strings.HasPrefix(html, "<!DOCTYPE html>"))
	assert.Contains(t, html, "<title>Population by Year and Nation</title>")
	assert.Contains(t, html, "<svg")
	assert.Contains(t, html, ">322903030</text>")
	assert.Contains(t, html, ">2017</text>")
	assert.Contains(t, html, "Canada &amp; Co")
	assert.NotContains(t, html, "<script")
	assert.NotContains(t, html, "No data")
	assert.Equal(t, 3, strings.Count(html, "<title>United States")+strings.Count(html, "<title>Canada"))
	assert.Equal(t, "text/html; charset=utf-8", r.ContentType())
}

func TestHTMLRenderer_EmptyChart(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewHTMLRenderer().Render(&buf, NewGroupedBarChart("Empty", "Year", "Population")))
	assert.Contains(t, buf.String(), "No data")
}

func TestHTMLRenderer_BarGeometry(t *testing.T) {
	c := NewGroupedBarChart("t", "x", "y")
	c.Add("A", "1", 50, "50")
	c.Add("B", "1", 100, "100")

	r := &HTMLRenderer{Width: 1000, Height: 600}
	p := r.layout(c)
	require.Len(t, p.Rects, 2)

	// Axis top is 100, so B fills the plot height and A half of it
	plotH := p.PlotBottom - p.PlotTop
	assert.InDelta(t, plotH, p.Rects[1].H, 1e-9)
	assert.InDelta(t, plotH/2, p.Rects[0].H, 1e-9)
	assert.Less(t, p.Rects[0].X, p.Rects[1].X)
	assert.NotEqual(t, p.Rects[0].Fill, p.Rects[1].Fill)
	assert.Equal(t, "100", p.YTicks[len(p.YTicks)-1].Label)
}

func TestNiceCeiling(t *testing.T) {
	tests := []struct {
		in, want float64
	}{
		{0, 1},
		{-5, 1},
		{1, 1},
		{1.5, 2},
		{2.2, 2.5},
		{3, 5},
		{7, 10},
		{100, 100},
		{322903030, 500000000},
	}
	for _, tt := range tests {
		assert.InDelta(t, tt.want, niceCeiling(tt.in), 1e-6, "niceCeiling(%v)", tt.in)
	}
}

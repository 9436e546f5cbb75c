// Package chart renders grouped bar charts as self-contained HTML documents.
package chart

import (
	"io"
)

// Bar is one bar: the value of Group within Category
type Bar struct {
	Group    string
	Category string
	Value    float64
	Label    string
	Count    int // number of source rows collapsed into this bar
}

// GroupedBarChart lays bars out in one cluster per category with one bar per
// group inside each cluster. Categories and groups keep insertion order.
type GroupedBarChart struct {
	Title      string
	XLabel     string
	YLabel     string
	Categories []string
	Groups     []string
	Bars       []Bar

	index map[[2]string]int
	cats  map[string]bool
	grps  map[string]bool
}

// NewGroupedBarChart creates an empty chart
func NewGroupedBarChart(title, xLabel, yLabel string) *GroupedBarChart {
	return &GroupedBarChart{
		Title:  title,
		XLabel: xLabel,
		YLabel: yLabel,
		index:  make(map[[2]string]int),
		cats:   make(map[string]bool),
		grps:   make(map[string]bool),
	}
}

// Add records a bar. A repeated (group, category) pair keeps the first value
// and only increments the bar's Count.
func (c *GroupedBarChart) Add(group, category string, value float64, label string) {
	key := [2]string{group, category}
	if i, ok := c.index[key]; ok {
		c.Bars[i].Count++
		return
	}

	if !c.cats[category] {
		c.cats[category] = true
		c.Categories = append(c.Categories, category)
	}
	if !c.grps[group] {
		c.grps[group] = true
		c.Groups = append(c.Groups, group)
	}

	c.index[key] = len(c.Bars)
	c.Bars = append(c.Bars, Bar{Group: group, Category: category, Value: value, Label: label, Count: 1})
}

// Lookup returns the bar for (group, category)
func (c *GroupedBarChart) Lookup(group, category string) (Bar, bool) {
	i, ok := c.index[[2]string{group, category}]
	if !ok {
		return Bar{}, false
	}
	return c.Bars[i], true
}

// Renderer serialises a chart
type Renderer interface {
	Render(w io.Writer, c *GroupedBarChart) error

	// ContentType of the rendered document
	ContentType() string
}

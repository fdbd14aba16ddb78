// Copyright (c) 2020, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package vis renders point sets for side-by-side comparison, drawing the
// first two coordinates of each point.
package vis

import (
	"fmt"
	"image/color"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/emer/etable/etable"
	"github.com/emer/etable/etensor"
	"github.com/goki/gi/gi"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

// Style sets how one set of objects is drawn.
type Style struct {
	Alpha  float64 `desc:"opacity, 0 means 1"`
	Dashed bool    `desc:"dashed outline"`
}

// Objects is one set of points shown on the figure.
type Objects struct {
	Pts   *etensor.Float64 `desc:"points, [n, dim]"`
	Style Style            `desc:"drawing style"`
}

// Figure accumulates point sets and renders them on one plot.
type Figure struct {
	Title  string       `desc:"plot title"`
	Width  vg.Length    `desc:"width of saved figures"`
	Height vg.Length    `desc:"height of saved figures"`
	Colors []color.RGBA `desc:"color of each successive set, cycled"`
	Sets   []Objects    `desc:"sets shown, in drawing order"`
}

// New returns an empty figure with default size and colors.
func New(title string) *Figure {
	return &Figure{
		Title:  title,
		Width:  5 * vg.Inch,
		Height: 5 * vg.Inch,
		Colors: []color.RGBA{
			{R: 31, G: 119, B: 180, A: 255},
			{R: 255, G: 127, B: 14, A: 255},
			{R: 44, G: 160, B: 44, A: 255},
		},
	}
}

// Reset removes all sets.
func (f *Figure) Reset() {
	f.Sets = nil
}

// Show adds a set of points drawn with given style.  An empty set is
// allowed and draws nothing.
func (f *Figure) Show(pts *etensor.Float64, st Style) {
	f.Sets = append(f.Sets, Objects{Pts: pts, Style: st})
}

// XYs returns the first two coordinates of each point; a one-dimensional
// point is drawn at y = 0.
func XYs(pts *etensor.Float64) plotter.XYs {
	if pts.Len() == 0 {
		return nil
	}
	n := pts.Dim(0)
	dim := pts.Dim(1)
	xys := make(plotter.XYs, n)
	for i := range xys {
		xys[i].X = pts.Values[i*dim]
		if dim > 1 {
			xys[i].Y = pts.Values[i*dim+1]
		}
	}
	return xys
}

func (f *Figure) color(i int, alpha float64) color.RGBA {
	c := f.Colors[i%len(f.Colors)]
	if alpha > 0 && alpha < 1 {
		// image/color uses premultiplied alpha
		c.R = uint8(float64(c.R) * alpha)
		c.G = uint8(float64(c.G) * alpha)
		c.B = uint8(float64(c.B) * alpha)
		c.A = uint8(float64(c.A) * alpha)
	}
	return c
}

// Render builds the plot.  Each non-empty set is drawn as point markers
// plus a closed outline through its points in order.
func (f *Figure) Render() (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = f.Title
	p.X.Label.Text = "x0"
	p.Y.Label.Text = "x1"
	for i, ob := range f.Sets {
		xys := XYs(ob.Pts)
		if len(xys) == 0 {
			continue
		}
		clr := f.color(i, ob.Style.Alpha)
		sc, err := plotter.NewScatter(xys)
		if err != nil {
			return nil, err
		}
		sc.GlyphStyle.Color = clr
		sc.GlyphStyle.Shape = draw.CircleGlyph{}
		sc.GlyphStyle.Radius = vg.Points(3)
		closed := append(append(plotter.XYs{}, xys...), xys[0])
		ln, err := plotter.NewLine(closed)
		if err != nil {
			return nil, err
		}
		ln.LineStyle.Color = clr
		ln.LineStyle.Width = vg.Points(1)
		if ob.Style.Dashed {
			ln.LineStyle.Dashes = []vg.Length{vg.Points(4), vg.Points(3)}
		}
		p.Add(ln, sc)
	}
	return p, nil
}

// Save renders the figure to path, creating its directory.  The format is
// taken from the extension: .pdf, .png, .svg, .eps, .jpg or .tif.
func (f *Figure) Save(path string) error {
	p, err := f.Render()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return p.Save(f.Width, f.Height, path)
}

// Encode renders the figure in given format (e.g., "png") to w.
func (f *Figure) Encode(w io.Writer, format string) error {
	p, err := f.Render()
	if err != nil {
		return err
	}
	wt, err := p.WriterTo(f.Width, f.Height, strings.TrimPrefix(format, "."))
	if err != nil {
		return err
	}
	_, err = wt.WriteTo(w)
	return err
}

// Table returns every point shown as one row, with the set index, point
// index and all coordinates, so rendered values can be compared exactly.
func (f *Figure) Table() *etable.Table {
	dim := 0
	rows := 0
	for _, ob := range f.Sets {
		if ob.Pts.NumDims() == 2 && ob.Pts.Dim(1) > dim {
			dim = ob.Pts.Dim(1)
		}
		if ob.Pts.Len() > 0 {
			rows += ob.Pts.Dim(0)
		}
	}
	sch := etable.Schema{
		{Name: "Set", Type: etensor.INT64, CellShape: nil, DimNames: nil},
		{Name: "Point", Type: etensor.INT64, CellShape: nil, DimNames: nil},
	}
	for d := 0; d < dim; d++ {
		sch = append(sch, etable.Column{Name: ColName(d), Type: etensor.FLOAT64, CellShape: nil, DimNames: nil})
	}
	dt := &etable.Table{}
	dt.SetMetaData("name", f.Title)
	dt.SetFromSchema(sch, rows)
	row := 0
	for si, ob := range f.Sets {
		if ob.Pts.Len() == 0 {
			continue
		}
		n := ob.Pts.Dim(0)
		pd := ob.Pts.Dim(1)
		for i := 0; i < n; i++ {
			dt.SetCellFloat("Set", row, float64(si))
			dt.SetCellFloat("Point", row, float64(i))
			for d := 0; d < pd; d++ {
				dt.SetCellFloat(ColName(d), row, ob.Pts.Values[i*pd+d])
			}
			row++
		}
	}
	return dt
}

// ColName is the Table column name of coordinate d.
func ColName(d int) string {
	return fmt.Sprintf("x%d", d)
}

// SaveTable writes Table to a tab separated file with headers.
func (f *Figure) SaveTable(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return f.Table().SaveCSV(gi.FileName(path), etable.Tab, true)
}

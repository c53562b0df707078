package render

import (
	"fmt"
	"image/color"

	"github.com/LdDl/dcgan-go/metrics"
	"github.com/pkg/errors"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// PlotLosses Saves line chart of mean Discriminator's and Generator's losses per pass
//
// fname - output file. Format is picked by extension (png, svg, pdf...)
//
func PlotLosses(passes []metrics.PassStats, fname string) error {
	if len(passes) == 0 {
		return fmt.Errorf("There are no passes to plot")
	}
	discriminatorData := make(plotter.XYs, len(passes))
	generatorData := make(plotter.XYs, len(passes))
	for i, ps := range passes {
		discriminatorData[i].X = float64(ps.Pass)
		discriminatorData[i].Y = ps.DiscriminatorLoss
		generatorData[i].X = float64(ps.Pass)
		generatorData[i].Y = ps.GeneratorLoss
	}
	discriminatorLine, err := plotter.NewLine(discriminatorData)
	if err != nil {
		return errors.Wrap(err, "Can't init line for Discriminator's loss")
	}
	discriminatorLine.Color = color.RGBA{R: 255, B: 128, A: 255}
	generatorLine, err := plotter.NewLine(generatorData)
	if err != nil {
		return errors.Wrap(err, "Can't init line for Generator's loss")
	}
	generatorLine.Color = color.RGBA{G: 128, B: 255, A: 255}

	p := plot.New()
	p.Title.Text = "Losses"
	p.X.Label.Text = "Pass"
	p.Y.Label.Text = "Loss"
	p.Add(plotter.NewGrid())
	p.Add(discriminatorLine, generatorLine)
	p.Legend.Add("discriminator", discriminatorLine)
	p.Legend.Add("generator", generatorLine)
	if err := p.Save(6*vg.Inch, 4*vg.Inch, fname); err != nil {
		return errors.Wrap(err, "Can't save plot")
	}
	return nil
}

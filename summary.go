package gan_go

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/pkg/errors"
)

// Summary Prints table of layers (name, type, output shape, number of parameters) for every provided network.
// Shapes are known only after feedforward has been initialized.
func Summary(w io.Writer, networks ...*Network) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	total := 0
	for _, net := range networks {
		if net == nil {
			continue
		}
		fmt.Fprintf(tw, "Model: %s\n", net.networkName())
		fmt.Fprintln(tw, "Layer\tType\tOutput shape\tParams")
		netTotal := 0
		for i, l := range net.Layers {
			name := l.Name
			if name == "" {
				name = fmt.Sprintf("%s_%d", net.networkName(), i)
			}
			params := l.ParamCount()
			netTotal += params
			fmt.Fprintf(tw, "%s\t%s\t%v\t%d\n", name, l.Type, l.OutShape(), params)
		}
		fmt.Fprintf(tw, "Total params\t\t\t%d\n\n", netTotal)
		total += netTotal
	}
	if len(networks) > 1 {
		fmt.Fprintf(tw, "Overall params\t\t\t%d\n", total)
	}
	if err := tw.Flush(); err != nil {
		return errors.Wrap(err, "Can't write summary")
	}
	return nil
}

// Summary Prints layers of Generator and Discriminator
func (t *Trainer) Summary(w io.Writer) error {
	return Summary(w, t.generator.private, t.discriminator.private)
}

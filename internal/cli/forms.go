package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/aretw0/concierge/internal/presentation/graph"
	"github.com/aretw0/concierge/pkg/catalog"
)

// ListForms writes the catalog in trigger priority order.
func ListForms(c *catalog.Catalog, w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tREQUIRED\tTRIGGERS")
	for _, f := range c.All() {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\n", f.ID, f.Name, len(f.RequiredFields()), strings.Join(f.Triggers, ", "))
	}
	return tw.Flush()
}

// ShowForm writes one form as JSON or as a Mermaid chart.
func ShowForm(c *catalog.Catalog, id string, mermaid bool, w io.Writer) error {
	form, err := c.ByID(id)
	if err != nil {
		return err
	}
	if mermaid {
		fmt.Fprint(w, graph.GenerateMermaid(form, nil))
		return nil
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(form)
}

// ValidateForms loads dir the way the engine would and reports what it found.
func ValidateForms(ctx context.Context, dir string, w io.Writer) error {
	c, err := LoadCatalog(ctx, dir)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "✓ %d forms OK\n", c.Len())
	return nil
}

package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/aretw0/concierge/pkg/domain"
)

// ListDocuments writes the generated documents, optionally of one
// conversation, as a table or as JSON.
func ListDocuments(ctx context.Context, app *App, conversationID string, asJSON bool, w io.Writer) error {
	docs, err := app.Engine.Documents(ctx, conversationID)
	if err != nil {
		return fmt.Errorf("list documents: %w", err)
	}
	if asJSON {
		if docs == nil {
			docs = []domain.Document{}
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(docs)
	}
	if len(docs) == 0 {
		fmt.Fprintln(w, "No documents found.")
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tSTATUS\tCONVERSATION\tCREATED")
	for _, d := range docs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", d.ID, d.Name, d.Status, d.ConversationID, d.CreatedAt.Format("2006-01-02 15:04"))
	}
	return tw.Flush()
}

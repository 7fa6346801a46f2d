package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"text/tabwriter"

	"github.com/aretw0/concierge/internal/presentation/graph"
	"github.com/aretw0/concierge/pkg/domain"
)

// ListSessions writes one line per stored session.
func ListSessions(ctx context.Context, app *App, w io.Writer) error {
	ids, err := app.Sessions.List(ctx)
	if err != nil {
		return fmt.Errorf("list sessions: %w", err)
	}
	if len(ids) == 0 {
		fmt.Fprintln(w, "No active sessions found.")
		return nil
	}
	sort.Strings(ids)

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "CONVERSATION\tFORM\tPROGRESS\tUPDATED")
	for _, id := range ids {
		s, err := app.Sessions.Load(ctx, id)
		if err != nil {
			fmt.Fprintf(tw, "%s\t?\t?\t%v\n", id, err)
			continue
		}
		progress := "?"
		if form, err := app.Catalog.ByID(s.FormID); err == nil {
			p := domain.ProgressOf(form, s)
			progress = fmt.Sprintf("%d/%d", p.FilledCount, p.TotalRequired)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", id, s.FormID, progress, s.UpdatedAt.Format("2006-01-02 15:04:05"))
	}
	return tw.Flush()
}

// InspectSession writes the stored session as JSON, or as a Mermaid chart of
// its form with the filled fields highlighted.
func InspectSession(ctx context.Context, app *App, conversationID string, mermaid bool, w io.Writer) error {
	s, err := app.Sessions.Load(ctx, conversationID)
	if errors.Is(err, domain.ErrSessionNotFound) {
		return fmt.Errorf("session %q not found", conversationID)
	}
	if err != nil {
		return fmt.Errorf("load session: %w", err)
	}

	if mermaid {
		form, err := app.Catalog.ByID(s.FormID)
		if err != nil {
			return err
		}
		fmt.Fprint(w, graph.GenerateMermaid(form, &graph.GraphOverlay{Collected: s.Collected, Cursor: s.Cursor}))
		return nil
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(s)
}

// RemoveSessions deletes the given sessions, or every session when all is set.
func RemoveSessions(ctx context.Context, app *App, ids []string, all bool, w io.Writer) error {
	if all {
		var err error
		if ids, err = app.Sessions.List(ctx); err != nil {
			return fmt.Errorf("list sessions: %w", err)
		}
	}
	var errs []error
	for _, id := range ids {
		if err := app.Sessions.Delete(ctx, id); err != nil {
			errs = append(errs, fmt.Errorf("delete %s: %w", id, err))
			continue
		}
		fmt.Fprintf(w, "Session '%s' deleted.\n", id)
	}
	return errors.Join(errs...)
}

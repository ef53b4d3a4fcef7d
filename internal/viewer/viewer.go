// Package viewer renders saved leads for the admin list and leadctl.
package viewer

import (
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/MikeSquared-Agency/intake/internal/lead"
)

var titleCase = cases.Title(language.English)

// Title is the one-line heading of a lead, e.g. "Logo Design | HOT | Score: 75".
func Title(rec lead.Record) string {
	interest := rec.ServiceInterest
	if strings.TrimSpace(interest) == "" {
		interest = "unknown"
	}
	return fmt.Sprintf("%s | %s | Score: %d",
		titleCase.String(interest),
		strings.ToUpper(string(rec.LeadTemperature)),
		rec.LeadScore,
	)
}

// Render writes the text view of records in the order given. total is the
// number of stored leads before filtering; only an empty store reads as
// "No leads yet.".
func Render(w io.Writer, records []lead.Record, total int) error {
	if total == 0 {
		_, err := fmt.Fprintln(w, "No leads yet.")
		return err
	}

	ew := &errWriter{w: w}
	ew.printf("Showing %d lead(s)\n", len(records))
	for _, rec := range records {
		ew.printf("\n== %s\n", Title(rec))
		ew.printf("AI Summary:       %s\n", rec.AISummary)
		ew.printf("Suggested Action: %s\n", rec.SuggestedAction)
		ew.printf("Intent: %s | Budget: %s | Timeline: %s | Urgency: %s\n",
			rec.Intent, rec.BudgetRange, rec.Timeline, rec.UrgencyLevel)
		ew.printf("Created At: %s\n", rec.CreatedAt)
		ew.printf("Conversation:\n")
		if rec.TranscriptErr != nil {
			ew.printf("  Could not load conversation.\n")
			continue
		}
		for _, t := range rec.ConversationLog {
			ew.printf("  [%s] %s\n", t.Role, t.Content)
		}
	}
	return ew.err
}

type errWriter struct {
	w   io.Writer
	err error
}

func (e *errWriter) printf(format string, args ...any) {
	if e.err != nil {
		return
	}
	_, e.err = fmt.Fprintf(e.w, format, args...)
}

package service

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/hexops/gotextdiff"
	"github.com/hexops/gotextdiff/myers"
	"github.com/hexops/gotextdiff/span"

	"phishguard/internal/model"
)

// VerdictChange is one transition between consecutive scans of the same URL.
type VerdictChange struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
	Diff string    `json:"diff"`
}

// renderVerdict produces a stable text rendering of a verdict so diffs stay
// meaningful across runs. Feature keys are sorted; map iteration order must
// not leak into the output.
func renderVerdict(v model.Verdict) string {
	var b strings.Builder
	fmt.Fprintf(&b, "label: %s\n", v.Label())
	fmt.Fprintf(&b, "confidence: %d%%\n", v.ConfidencePercent())
	fmt.Fprintf(&b, "model: %s\n", v.Model.Label())

	keys := make([]string, 0, len(v.Features))
	for k := range v.Features {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&b, "feature %s: %v\n", k, v.Features[k])
	}
	return b.String()
}

// ChangeLog diffs consecutive scans of one URL, oldest pair first. The
// input is expected most-recent-first, as the ledger returns it. Entries
// whose rendering is identical produce no change record.
func ChangeLog(entries []model.HistoryEntry) []VerdictChange {
	var changes []VerdictChange

	// Walk from oldest to newest.
	for i := len(entries) - 1; i > 0; i-- {
		older := entries[i]
		newer := entries[i-1]

		before := renderVerdict(older.Verdict)
		after := renderVerdict(newer.Verdict)
		if before == after {
			continue
		}

		edits := myers.ComputeEdits(span.URIFromPath("verdict"), before, after)
		unified := fmt.Sprint(gotextdiff.ToUnified(
			older.Verdict.ProducedAt.Format(time.RFC3339),
			newer.Verdict.ProducedAt.Format(time.RFC3339),
			before, edits,
		))

		changes = append(changes, VerdictChange{
			From: older.Verdict.ProducedAt,
			To:   newer.Verdict.ProducedAt,
			Diff: unified,
		})
	}
	return changes
}

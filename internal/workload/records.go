package workload

import (
	"fmt"

	"github.com/rbergm/diploma-thesis/internal/canonical"
	"github.com/rbergm/diploma-thesis/internal/store"
)

// Records converts outcomes into run log rows. Directive sets are stored as
// canonical JSON with their fingerprint.
func Records(runID string, outcomes []Outcome) ([]store.Row, error) {
	rows := make([]store.Row, 0, len(outcomes))
	for _, o := range outcomes {
		qh, err := canonical.QueryFingerprint(o.Query)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", o.Seq, err)
		}

		row := store.Row{
			RunID:     runID,
			Seq:       int64(o.Seq),
			QueryHash: qh,
			Status:    string(o.Status),
			Hint:      o.Hint,
		}
		if o.Err != nil {
			row.Error = o.Err.Error()
		}

		if len(o.Directives) > 0 {
			data, err := canonical.DirectivesJSON(o.Directives)
			if err != nil {
				return nil, fmt.Errorf("row %d: %w", o.Seq, err)
			}
			fp, err := canonical.Fingerprint(o.Directives)
			if err != nil {
				return nil, fmt.Errorf("row %d: %w", o.Seq, err)
			}
			row.Directives = string(data)
			row.DirectivesHash = fp
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// Counts converts a Summary into run log counts.
func (s Summary) Counts() store.Counts {
	return store.Counts{
		Total:    s.Total,
		Hinted:   s.Hinted,
		Unhinted: s.Unhinted,
		Failed:   s.Failed,
	}
}

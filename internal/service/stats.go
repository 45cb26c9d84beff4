package service

import "phishguard/internal/model"

// ComputeStats derives aggregate counts by walking the ledger rows. The
// persistence backend's grouping features are deliberately not used; two
// boolean groups are not guaranteed to come back from a grouped query when
// one side is empty.
func ComputeStats(entries []model.HistoryEntry) model.Stats {
	var s model.Stats
	for _, e := range entries {
		s.Total++
		if e.Verdict.IsPhishing {
			s.Phishing++
		} else {
			s.Safe++
		}
	}
	return s
}

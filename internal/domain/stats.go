package domain

import "strconv"

// LedgerStats holds summary statistics across ledger rows.
type LedgerStats struct {
	Conversations  int64
	Rated          int64
	Answered       int64
	AverageRating  float64
	TotalCostUSD   float64
	TotalInput     int64
	TotalOutput    int64
	LastRequestDtm string
}

// ComputeLedgerStats summarizes records. Unparseable numeric cells count as zero.
func ComputeLedgerStats(records []ConversationRecord) LedgerStats {
	var s LedgerStats
	var ratingSum int64

	for _, r := range records {
		s.Conversations++
		if !r.AwaitingResponse() {
			s.Answered++
		}
		if star := r.StarValue(); star > 0 {
			s.Rated++
			ratingSum += int64(star)
		}
		if cost, err := strconv.ParseFloat(r.EstimatedCost, 64); err == nil {
			s.TotalCostUSD += cost
		}
		s.TotalInput += parseCount(r.ActualInputTokens)
		s.TotalOutput += parseCount(r.ActualOutputTokens)
		if r.RequestDtm != "" {
			s.LastRequestDtm = r.RequestDtm
		}
	}

	if s.Rated > 0 {
		s.AverageRating = float64(ratingSum) / float64(s.Rated)
	}
	return s
}

func parseCount(s string) int64 {
	n, _ := strconv.ParseInt(s, 10, 64)
	return n
}

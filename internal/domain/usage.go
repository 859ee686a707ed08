package domain

// Usage holds the authoritative token counters of an assistant turn.
// InputTokens includes both cache counters.
type Usage struct {
	InputTokens         int64
	OutputTokens        int64
	CacheCreationTokens int64
	CacheReadTokens     int64
}

// HasActual reports whether the transcript supplied any usage data.
func (u Usage) HasActual() bool {
	return u.InputTokens > 0 || u.OutputTokens > 0
}

// RegularInput returns the input tokens billed at the plain input rate.
func (u Usage) RegularInput() int64 {
	return max(u.InputTokens-u.CacheCreationTokens-u.CacheReadTokens, 0)
}

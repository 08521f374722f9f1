package lightcurve

// DefaultSeqLen is used when there is nothing to derive seq_len from.
const DefaultSeqLen = 500

// SeqLen is the longest sample's number of data points. It is decided once
// per run and every aligned sample, in training and in prediction, uses it.
func SeqLen(samples []RawSample) int {
	longest := 0
	for _, s := range samples {
		if s.Len() > longest {
			longest = s.Len()
		}
	}
	if longest == 0 {
		return DefaultSeqLen
	}
	return longest
}

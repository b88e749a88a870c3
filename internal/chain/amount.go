package chain

import "math"

// MicroalgosPerAlgo converts between the API's decimal ALGO amounts and
// the integral on-ledger unit.
const MicroalgosPerAlgo = 1_000_000

// AmountEpsilonMicroalgos is the tolerance when comparing a client's
// declared amount against the on-ledger amount (0.0001 ALGO).
const AmountEpsilonMicroalgos = 100

func AlgoToMicro(algo float64) int64 {
	return int64(math.Round(algo * MicroalgosPerAlgo))
}

func MicroToAlgo(micro int64) float64 {
	return float64(micro) / MicroalgosPerAlgo
}

// AmountsMatch compares two microAlgo amounts within the epsilon.
func AmountsMatch(a, b int64) bool {
	d := a - b
	if d < 0 {
		d = -d
	}
	return d <= AmountEpsilonMicroalgos
}

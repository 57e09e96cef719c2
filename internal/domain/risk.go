package domain

// DeviceSignals are the optional client fingerprint hints attached to a
// transfer request.
type DeviceSignals struct {
	DeviceID  string
	IPAddress string
	UserAgent string
}

func (d DeviceSignals) Empty() bool {
	return d.DeviceID == "" && d.IPAddress == "" && d.UserAgent == ""
}

// RiskAssessment is the risk engine's verdict on a candidate transaction.
// Score is the raw additive signal total; Tier buckets it for gating.
type RiskAssessment struct {
	Score   int
	Tier    RiskTier
	Reasons []string
}

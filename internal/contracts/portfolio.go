package contracts

// HoldingRecord is the persisted shape of a holding
// ⭐ Contract: stores reconstruct identical holdings from what they saved
type HoldingRecord struct {
	Ticker        string  `json:"ticker" yaml:"ticker"`
	Shares        float64 `json:"shares" yaml:"shares"`
	PricePerShare float64 `json:"price_per_share" yaml:"price_per_share"`
}

// MarketValue returns shares × price
func (r HoldingRecord) MarketValue() float64 {
	return r.Shares * r.PricePerShare
}

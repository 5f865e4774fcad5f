package model

// CostBreakdown is the tariff evaluation of one contract level against one
// observed peak demand. Currency fields are monthly unless produced by an
// annualizing helper.
type CostBreakdown struct {
	ContractKW      float64 `json:"contract_kw"`
	ActualKW        float64 `json:"actual_kw"`
	BasicCost       float64 `json:"basic_cost"`
	OverageKW       float64 `json:"overage_kw"`
	OverageCost     float64 `json:"overage_cost"`
	WasteKW         float64 `json:"waste_kw"`
	OpportunityCost float64 `json:"opportunity_cost"`
	// TotalCost is the billed amount: BasicCost + OverageCost.
	// OpportunityCost is a decision signal and is never billed.
	TotalCost float64 `json:"total_cost"`
}

// Savings compares two annual costs.
type Savings struct {
	Annual  float64 `json:"annual"`
	Percent float64 `json:"percent"`
}

// Comparison is the annualized evaluation of a contract change.
type Comparison struct {
	Current        CostBreakdown `json:"current"`
	New            CostBreakdown `json:"new"`
	Savings        Savings       `json:"savings"`
	Recommendation string        `json:"recommendation"`
}

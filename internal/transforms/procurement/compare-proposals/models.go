// internal/transforms/procurement/compare-proposals/models.go
package compareproposals

import "encoding/json"

// Input keeps rfpData and proposal_data as raw JSON so the prompt shows them
// with their original key order.
type Input struct {
	RFPData   json.RawMessage `json:"rfpData,omitempty"`
	Proposals []Proposal      `json:"proposals"`
}

type Proposal struct {
	VendorName   string          `json:"vendor_name"`
	ProposalData json.RawMessage `json:"proposal_data,omitempty"`
}

type ComparisonReport struct {
	ComparisonSummary    string          `json:"comparison_summary"`
	VendorRankings       []VendorRanking `json:"vendor_rankings"`
	RecommendedVendor    *string         `json:"recommended_vendor"`
	RecommendationReason *string         `json:"recommendation_reason"`
	RiskFactors          []string        `json:"risk_factors"`
	NegotiationTips      []string        `json:"negotiation_tips"`
}

type VendorRanking struct {
	VendorName         string   `json:"vendor_name"`
	Rank               int      `json:"rank"`
	Score              float64  `json:"score"`
	Strengths          []string `json:"strengths"`
	Weaknesses         []string `json:"weaknesses"`
	KeyDifferentiators string   `json:"key_differentiators"`
}

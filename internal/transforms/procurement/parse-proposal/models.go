// internal/transforms/procurement/parse-proposal/models.go
package parseproposal

type Input struct {
	VendorResponse string `json:"vendorResponse"`
	RFPContext     string `json:"rfpContext,omitempty"`
}

// ProposalExtract is the structured form of a vendor reply.
type ProposalExtract struct {
	TotalPrice        *float64   `json:"total_price"`
	LineItems         []LineItem `json:"line_items"`
	DeliveryDays      *int       `json:"delivery_days"`
	PaymentTerms      *string    `json:"payment_terms"`
	WarrantyTerms     *string    `json:"warranty_terms"`
	AdditionalNotes   *string    `json:"additional_notes"`
	ComplianceNotes   *string    `json:"compliance_notes"`
	CompletenessScore int        `json:"completeness_score"`
	Summary           string     `json:"summary"`
}

type LineItem struct {
	ItemName   string   `json:"item_name"`
	Quantity   *float64 `json:"quantity"`
	UnitPrice  *float64 `json:"unit_price"`
	TotalPrice *float64 `json:"total_price"`
}

// internal/transforms/procurement/parse-rfp/models.go
package parserfp

type Input struct {
	RawInput string `json:"rawInput"`
}

// ProcurementRequestDraft is the structured RFP produced from free text.
// Pointer fields encode as null when the model found nothing.
type ProcurementRequestDraft struct {
	Title                  string   `json:"title"`
	Description            string   `json:"description"`
	Items                  []Item   `json:"items"`
	Budget                 *float64 `json:"budget"`
	DeliveryDays           *int     `json:"delivery_days"`
	PaymentTerms           *string  `json:"payment_terms"`
	WarrantyTerms          *string  `json:"warranty_terms"`
	AdditionalRequirements *string  `json:"additional_requirements"`
}

type Item struct {
	Name           string  `json:"name"`
	Quantity       int     `json:"quantity"`
	Specifications *string `json:"specifications,omitempty"`
}

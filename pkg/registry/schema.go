// pkg/registry/schema.go
package registry

// Catalog lists the transforms served by one deployment.
type Catalog struct {
	Version     string      `json:"version"`
	LastUpdated string      `json:"lastUpdated"`
	Transforms  []Transform `json:"transforms"`
}

type Transform struct {
	ID           string                 `json:"id"`
	DisplayName  string                 `json:"displayName"`
	Description  string                 `json:"description"`
	Path         string                 `json:"path"`
	OutputField  string                 `json:"outputField"`
	Enabled      bool                   `json:"enabled"`
	InputSchema  map[string]interface{} `json:"inputSchema"`
	OutputSchema map[string]interface{} `json:"outputSchema"`
	ErrorCodes   []string               `json:"errorCodes"`
	Timeout      string                 `json:"timeout"`
	Tags         []string               `json:"tags"`
}

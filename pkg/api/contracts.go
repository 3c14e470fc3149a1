// Package api defines the shared request/response contracts of the sizing service.
package api

// ModelInfo describes the hardware recommended for a channel mix.
// Absent values render as null.
type ModelInfo struct {
	ModelName  string   `json:"modelName"`
	PM         *string  `json:"pm"`
	MaxSupport *string  `json:"maxSupport"`
	IP         *string  `json:"ip"`
	PCI        *string  `json:"pci"`
	U1         *string  `json:"u1"`
	U2         *string  `json:"u2"`
	G4Model    *string  `json:"g4Model"`
	G4PM       *float64 `json:"g4PM"`
	MatchRule  string   `json:"matchRule"`
}

// CalculateResponse is the result of POST /api/calculate.
// Totals are rendered with two decimals.
type CalculateResponse struct {
	TotalRM                   string    `json:"totalRM"`
	TotalMemoryBeforeRounding string    `json:"totalMemoryBeforeRounding"`
	TotalMemoryAfterRounding  string    `json:"totalMemoryAfterRounding"`
	TotalCPU                  string    `json:"totalCPU"`
	ModelInfo                 ModelInfo `json:"modelInfo"`
}

// ClosestModel is the best-fit base model plus the optional overflow model.
type ClosestModel struct {
	Model   *string  `json:"model"`
	PM      *string  `json:"pm"`
	PCI     *string  `json:"pci"`
	G4Model *string  `json:"g4Model"`
	G4PM    *float64 `json:"g4PM"`
}

// ClosestResponse is the result of GET /api/calculate/models/closest.
type ClosestResponse struct {
	Model ClosestModel `json:"model"`
}

// ErrorResponse is a standard error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Field   string `json:"field,omitempty"`
	Details string `json:"details,omitempty"`
}

// MessageResponse acknowledges a write.
type MessageResponse struct {
	Message string `json:"message"`
}

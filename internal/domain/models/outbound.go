package models

// OutboundMessageRequest represents a text notification pushed to an operator.
type OutboundMessageRequest struct {
	To         string `json:"to"`
	Message    string `json:"message"`
	PreviewURL bool   `json:"preview_url"`
}

package model

// VerifyRequest is the inbound verify operation
type VerifyRequest struct {
	Text     string  `json:"text"`
	UserID   *string `json:"user_id,omitempty"`
	Language string  `json:"language,omitempty"` // Defaults to the configured language (en)
}

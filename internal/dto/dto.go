package dto

// WebhookResponse is the envelope returned to the payment processor for
// every delivery, success or not.
type WebhookResponse struct {
	Success    bool     `json:"success"`
	Message    string   `json:"message"`
	OrderID    string   `json:"order_id,omitempty"`
	LicenseIDs []string `json:"license_ids,omitempty"`
	Error      string   `json:"error,omitempty"`
}

type ValidateLicenseRequest struct {
	LicenseKey string `json:"license_key"`
}

// RemainingUsage is nil when the license has no usage limit.
type ValidateLicenseResponse struct {
	IsValid        bool         `json:"is_valid"`
	IsExpired      bool         `json:"is_expired"`
	IsRevoked      bool         `json:"is_revoked"`
	RemainingUsage *int         `json:"remaining_usage,omitempty"`
	Message        string       `json:"message"`
	License        *LicenseInfo `json:"license,omitempty"`
}

type LicenseInfo struct {
	ID         string `json:"id"`
	Key        string `json:"key"`
	Type       string `json:"type"`
	TemplateID string `json:"template_id"`
	MaxUsage   int    `json:"max_usage"`
	UsedCount  int    `json:"used_count"`
	ExpiresAt  string `json:"expires_at,omitempty"`
}

type RevokeLicenseRequest struct {
	LicenseID string `json:"license_id"`
	Reason    string `json:"reason"`
}

type RevokeLicenseResponse struct {
	Success   bool   `json:"success"`
	LicenseID string `json:"license_id"`
	Message   string `json:"message"`
}

type OrderLicensesResponse struct {
	ExternalOrderID string         `json:"external_order_id"`
	Status          string         `json:"status"`
	Licenses        []*LicenseInfo `json:"licenses"`
}

package models

// TenantQuota tracks a tenant's rolling-window admission state. The Quota
// Manager exclusively owns bucket contents; this struct is the read-only
// snapshot handed back to callers.
type TenantQuota struct {
	TenantID     string `json:"tenantId"`
	Limit        int64  `json:"limit"`        // requests per rolling window
	CurrentUsage int64  `json:"currentUsage"`
}

// AdmissionDecision is the result of a quota check.
type AdmissionDecision struct {
	Admitted     bool  `json:"admitted"`
	CurrentUsage int64 `json:"currentUsage"`
	Limit        int64 `json:"limit"`
}

package models

// SystemInfo is the free-form payload of GET /system/info
type SystemInfo map[string]any

// LicenseSummary is the free-form payload of GET /licenses/*/summary
type LicenseSummary map[string]any

// internal/core/services/types.go
package services

// ImportResult summarises a bulk import
type ImportResult struct {
	Created int      `json:"created"`
	Skipped int      `json:"skipped"`
	IDs     []string `json:"ids"`
}

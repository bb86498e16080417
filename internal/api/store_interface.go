package api

import "github.com/soaringjerry/Solace/internal/services"

// Store is everything the HTTP layer persists. The sqlite store in
// internal/db and the in-memory store both satisfy it.
type Store interface {
	services.AuthStore
	services.AssessmentStore
	services.DashboardStore
	services.ChatStore
	services.RetentionStore
	services.AdminStore
}

var _ Store = (*memoryStore)(nil)

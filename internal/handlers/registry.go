package handlers

// AppHandlers holds every HTTP handler of the application.
type AppHandlers struct {
	PageHandler      *PageHandler
	DiscoveryHandler *DiscoveryHandler
	HealthHandler    *HealthHandler
}

package services

import "vinivici/internal/catapi"

// ServiceContainer holds the application services.
type ServiceContainer struct {
	DiscoveryService DiscoveryService
	Searcher         catapi.Searcher
}

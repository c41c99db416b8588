package core

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/go-chi/chi/v5"
)

// Registry manages all features mounted into the server
type Registry struct {
	features map[string]Feature
	mutex    sync.RWMutex
	logger   *Logger
}

// NewRegistry creates a new feature registry
func NewRegistry(logger *Logger) *Registry {
	return &Registry{
		features: make(map[string]Feature),
		logger:   logger,
	}
}

// Register adds a feature to the registry
func (r *Registry) Register(feature Feature) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	name := feature.Name()
	if _, exists := r.features[name]; exists {
		return fmt.Errorf("feature %s already registered", name)
	}

	r.features[name] = feature
	r.logger.Info("Registered feature", "name", name, "enabled", feature.Enabled())
	return nil
}

// List returns all registered features sorted by name
func (r *Registry) List() []Feature {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	features := make([]Feature, 0, len(r.features))
	for _, feature := range r.features {
		features = append(features, feature)
	}

	sort.Slice(features, func(i, j int) bool {
		return features[i].Name() < features[j].Name()
	})

	return features
}

// ListEnabled returns only enabled features
func (r *Registry) ListEnabled() []Feature {
	var enabled []Feature
	for _, feature := range r.List() {
		if feature.Enabled() {
			enabled = append(enabled, feature)
		}
	}
	return enabled
}

// InitAll initializes all enabled features
func (r *Registry) InitAll(ctx context.Context) error {
	features := r.ListEnabled()
	r.logger.Info("Initializing features", "count", len(features))

	for _, feature := range features {
		if err := feature.Init(ctx); err != nil {
			return fmt.Errorf("failed to initialize feature %s: %w", feature.Name(), err)
		}
		r.logger.LogFeatureEvent(feature.Name(), "initialized")
	}

	return nil
}

// ShutdownAll gracefully shuts down all features
func (r *Registry) ShutdownAll(ctx context.Context) error {
	features := r.ListEnabled()
	r.logger.Info("Shutting down features", "count", len(features))

	for _, feature := range features {
		if err := feature.Shutdown(ctx); err != nil {
			// Keep going so the others still get a chance to stop
			r.logger.LogFeatureError(feature.Name(), "Failed to shutdown feature", err)
		}
	}

	return nil
}

// Mount registers the routes of every enabled feature on router
func (r *Registry) Mount(router chi.Router) {
	for _, feature := range r.ListEnabled() {
		for _, route := range feature.Routes() {
			router.Method(route.Method, route.Path, route.Handler)
		}
	}
}

// GetFeatureStatus returns the status of all features
func (r *Registry) GetFeatureStatus() map[string]FeatureStatus {
	status := make(map[string]FeatureStatus)

	for _, feature := range r.List() {
		status[feature.Name()] = FeatureStatus{
			Name:        feature.Name(),
			Description: feature.Description(),
			Enabled:     feature.Enabled(),
		}
	}

	return status
}

// FeatureStatus represents the status of a feature
type FeatureStatus struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Enabled     bool   `json:"enabled"`
}

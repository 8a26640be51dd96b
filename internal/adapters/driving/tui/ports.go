// Package tui provides the interactive cluster selection UI for pikia.
// It implements a driving adapter following hexagonal architecture principles.
package tui

import (
	"github.com/custodia-labs/pikia/internal/core/ports/driving"
)

// Ports aggregates the driving ports required by the TUI.
type Ports struct {
	// Cluster lists labels and previews tentative selections.
	Cluster driving.ClusterResolver
}

// NewPorts creates a new Ports aggregate.
func NewPorts(cluster driving.ClusterResolver) *Ports {
	return &Ports{Cluster: cluster}
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p == nil {
		return ErrInvalidPorts
	}
	if p.Cluster == nil {
		return ErrMissingClusterResolver
	}
	return nil
}

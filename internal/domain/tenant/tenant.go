package tenant

import (
	"errors"
	"strings"
	"time"
)

// Tenant is the domain entity corresponding to the `tenants` table. It is
// the multi-tenant partition key: every Rider/Driver/Ride carries exactly
// one tenant id, and no ride ever crosses tenants.
type Tenant struct {
	ID        string
	Name      string
	Region    string
	CreatedAt time.Time
}

var (
	ErrNameRequired   = errors.New("tenant name is required")
	ErrRegionRequired = errors.New("tenant region is required")
)

// NewTenant constructs a Tenant.
func NewTenant(name, region string) (*Tenant, error) {
	if name = strings.TrimSpace(name); name == "" {
		return nil, ErrNameRequired
	}
	if region = strings.TrimSpace(region); region == "" {
		return nil, ErrRegionRequired
	}
	return &Tenant{
		Name:      name,
		Region:    region,
		CreatedAt: time.Now().UTC(),
	}, nil
}

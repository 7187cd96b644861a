package rider

import (
	"errors"
	"strings"
	"time"
)

// Rider is the domain entity corresponding to the `riders` table.
type Rider struct {
	ID        string
	TenantID  string
	Phone     string // globally unique
	Name      string
	Email     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

var (
	ErrTenantRequired = errors.New("tenant id is required")
	ErrPhoneRequired  = errors.New("phone is required")
)

// NewRider constructs a Rider. Name/Email are optional per §3.
func NewRider(tenantID, phone, name, email string) (*Rider, error) {
	if tenantID = strings.TrimSpace(tenantID); tenantID == "" {
		return nil, ErrTenantRequired
	}
	if phone = strings.TrimSpace(phone); phone == "" {
		return nil, ErrPhoneRequired
	}

	now := time.Now().UTC()
	return &Rider{
		TenantID:  tenantID,
		Phone:     phone,
		Name:      strings.TrimSpace(name),
		Email:     strings.TrimSpace(email),
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

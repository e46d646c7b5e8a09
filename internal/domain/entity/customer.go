package entity

import "time"

// Customer representa un cliente del negocio.
type Customer struct {
	ID          string
	WorkspaceID string
	Name        string
	Phone       string
	Email       string
	Notes       string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

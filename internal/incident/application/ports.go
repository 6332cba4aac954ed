package application

import (
	"context"

	"github.com/dmehra2102/storefront-orders/internal/incident/domain"
)

type IncidentRepository interface {
	// Save stores inc unless an incident with the same event key exists and
	// reports whether a row was created.
	Save(ctx context.Context, inc domain.Incident) (bool, error)
}

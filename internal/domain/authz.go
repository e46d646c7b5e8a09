package domain

import (
	"fmt"

	"github.com/jhoicas/billing-engine/internal/domain/entity"
)

// Authorize verifica que el actor esté identificado en un workspace y que su rol
// alcance el mínimo requerido (MEMBER < ADMIN < OWNER).
func Authorize(actor entity.Actor, required string) error {
	if actor.UserID == "" || actor.WorkspaceID == "" {
		return ErrUnauthorized
	}
	if !actor.Can(required) {
		return fmt.Errorf("%w: requiere rol %s", ErrForbidden, required)
	}
	return nil
}

package repository

import (
	"context"

	"github.com/jhoicas/billing-engine/internal/domain/entity"
)

// BillRepository define el puerto de persistencia del agregado Factura (cabecera, ítems y pagos).
// Los métodos de lectura devuelven (nil, nil) cuando la factura no existe en el workspace.
type BillRepository interface {
	// Create inserta cabecera, ítems y pagos iniciales. Un número repetido en el workspace
	// devuelve domain.ErrDuplicate.
	Create(ctx context.Context, bill *entity.Bill) error
	GetByID(ctx context.Context, workspaceID, id string) (*entity.Bill, error)
	// GetForUpdate lee la factura completa bloqueando su fila (SELECT ... FOR UPDATE);
	// serializa todas las mutaciones sobre una misma factura.
	GetForUpdate(ctx context.Context, workspaceID, id string) (*entity.Bill, error)
	// ReplaceItems borra los ítems actuales e inserta bill.Items.
	ReplaceItems(ctx context.Context, bill *entity.Bill) error
	// UpdateHeader persiste estado, estado de pago, totales y datos de anulación.
	UpdateHeader(ctx context.Context, bill *entity.Bill) error
	AddPayment(ctx context.Context, payment *entity.Payment) error
	// List devuelve cabeceras (sin ítems ni pagos), más recientes primero.
	List(ctx context.Context, workspaceID string, filter entity.BillFilter) ([]*entity.Bill, error)
}

// BillCounterRepository asigna el consecutivo diario de facturas. Next es un incremento
// atómico en el store (nunca un contador en memoria del proceso).
type BillCounterRepository interface {
	Next(ctx context.Context, workspaceID, day string) (int64, error)
}

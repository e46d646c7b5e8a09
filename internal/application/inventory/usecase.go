package inventory

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/billing-engine/internal/application/dto"
	"github.com/jhoicas/billing-engine/internal/domain"
	"github.com/jhoicas/billing-engine/internal/domain/billing"
	"github.com/jhoicas/billing-engine/internal/domain/entity"
	"github.com/jhoicas/billing-engine/internal/domain/repository"
	"github.com/jhoicas/billing-engine/pkg/logger"
	"github.com/jhoicas/billing-engine/pkg/money"
)

// StockUseCase administra el catálogo y el ledger de stock (alta de productos, entradas,
// ajustes) y expone a facturación la aplicación de reservas dentro de su transacción.
type StockUseCase struct {
	txRunner    TxRunner
	productRepo repository.ProductRepository
	movRepo     repository.StockMovementRepository
	ledger      repository.StockLedger
	log         *logger.Logger
	now         func() time.Time
}

// NewStockUseCase construye el caso de uso. ledger y movRepo se usan solo para lecturas
// fuera de transacción.
func NewStockUseCase(
	txRunner TxRunner,
	productRepo repository.ProductRepository,
	movRepo repository.StockMovementRepository,
	ledger repository.StockLedger,
	log *logger.Logger,
) *StockUseCase {
	if log == nil {
		log = logger.Nop()
	}
	return &StockUseCase{
		txRunner:    txRunner,
		productRepo: productRepo,
		movRepo:     movRepo,
		ledger:      ledger,
		log:         log,
		now:         time.Now,
	}
}

// CreateProduct da de alta un producto y registra su stock inicial como RESTOCK.
func (uc *StockUseCase) CreateProduct(ctx context.Context, actor entity.Actor, in dto.CreateProductRequest) (*dto.ProductResponse, error) {
	if err := domain.Authorize(actor, entity.RoleAdmin); err != nil {
		return nil, err
	}
	sku := strings.TrimSpace(in.SKU)
	name := strings.TrimSpace(in.Name)
	if sku == "" {
		return nil, domain.NewInputError("sku", "requerido")
	}
	if name == "" {
		return nil, domain.NewInputError("name", "requerido")
	}
	if in.Price.IsNegative() || !money.IsMoney(in.Price) {
		return nil, domain.NewInputError("price", "debe ser un monto no negativo con máximo 2 decimales")
	}
	if in.InitialStock.IsNegative() || !money.IsQuantity(in.InitialStock) {
		return nil, domain.NewInputError("initialStock", "debe ser no negativo con máximo 3 decimales")
	}
	unit := strings.TrimSpace(in.Unit)
	if unit == "" {
		unit = entity.DefaultUnit
	}

	now := uc.now()
	product := &entity.Product{
		ID:          uuid.New().String(),
		WorkspaceID: actor.WorkspaceID,
		SKU:         sku,
		Name:        name,
		Unit:        unit,
		Price:       in.Price,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	var journal *Journal
	err := uc.txRunner.Run(ctx, func(
		ledger repository.StockLedger,
		movRepo repository.StockMovementRepository,
		productRepo repository.ProductRepository,
	) error {
		journal = NewJournal(ledger)
		if err := productRepo.Create(ctx, product); err != nil {
			return err
		}
		if !in.InitialStock.IsPositive() {
			return nil
		}
		return uc.increaseInTx(ctx, journal, movRepo, actor, product.ID, entity.MovementTypeRestock, in.InitialStock, "stock inicial", now)
	})
	if ferr := journal.Finish(ctx, err); ferr != nil {
		uc.log.Error().Err(ferr).Str("product_id", product.ID).Msg("cierre del ledger externo al crear producto")
	}
	if err != nil {
		return nil, err
	}
	return uc.toResponse(ctx, product)
}

// ListProducts lista el catálogo del workspace con su disponible.
func (uc *StockUseCase) ListProducts(ctx context.Context, actor entity.Actor, limit, offset int) (*dto.ProductListResponse, error) {
	if err := domain.Authorize(actor, entity.RoleMember); err != nil {
		return nil, err
	}
	page := dto.PageRequest{Limit: limit, Offset: offset}
	page.DefaultPage()
	list, err := uc.productRepo.ListByWorkspace(ctx, actor.WorkspaceID, page.Limit, page.Offset)
	if err != nil {
		return nil, err
	}
	out := &dto.ProductListResponse{
		Items: make([]dto.ProductResponse, 0, len(list)),
		Page:  dto.PageResponse{Limit: page.Limit, Offset: page.Offset},
	}
	for _, p := range list {
		resp, err := uc.toResponse(ctx, p)
		if err != nil {
			return nil, err
		}
		out.Items = append(out.Items, *resp)
	}
	return out, nil
}

// GetStock devuelve el disponible de un producto del workspace.
func (uc *StockUseCase) GetStock(ctx context.Context, actor entity.Actor, productID string) (*dto.StockResponse, error) {
	if err := domain.Authorize(actor, entity.RoleMember); err != nil {
		return nil, err
	}
	if _, err := uc.requireProduct(ctx, uc.productRepo, actor.WorkspaceID, productID); err != nil {
		return nil, err
	}
	return uc.stockResponse(ctx, productID)
}

// Restock registra una entrada de mercancía (cantidad positiva).
func (uc *StockUseCase) Restock(ctx context.Context, actor entity.Actor, productID string, in dto.StockChangeRequest) (*dto.StockResponse, error) {
	if err := domain.Authorize(actor, entity.RoleAdmin); err != nil {
		return nil, err
	}
	if !in.Quantity.IsPositive() || !money.IsQuantity(in.Quantity) {
		return nil, domain.NewInputError("quantity", "debe ser mayor que cero con máximo 3 decimales")
	}
	return uc.change(ctx, actor, productID, entity.MovementTypeRestock, in)
}

// Adjust corrige el disponible con una cantidad con signo. Un ajuste negativo no puede
// dejar el disponible por debajo de cero.
func (uc *StockUseCase) Adjust(ctx context.Context, actor entity.Actor, productID string, in dto.StockChangeRequest) (*dto.StockResponse, error) {
	if err := domain.Authorize(actor, entity.RoleAdmin); err != nil {
		return nil, err
	}
	if in.Quantity.IsZero() || !money.IsQuantity(in.Quantity) {
		return nil, domain.NewInputError("quantity", "debe ser distinta de cero con máximo 3 decimales")
	}
	if strings.TrimSpace(in.Notes) == "" {
		return nil, domain.NewInputError("notes", "el ajuste requiere un motivo")
	}
	return uc.change(ctx, actor, productID, entity.MovementTypeAdjust, in)
}

// ListMovements devuelve el diario de un producto, más recientes primero.
func (uc *StockUseCase) ListMovements(ctx context.Context, actor entity.Actor, productID string, limit, offset int) ([]dto.StockMovementResponse, error) {
	if err := domain.Authorize(actor, entity.RoleMember); err != nil {
		return nil, err
	}
	if _, err := uc.requireProduct(ctx, uc.productRepo, actor.WorkspaceID, productID); err != nil {
		return nil, err
	}
	page := dto.PageRequest{Limit: limit, Offset: offset}
	page.DefaultPage()
	list, err := uc.movRepo.ListByProduct(ctx, actor.WorkspaceID, productID, page.Limit, page.Offset)
	if err != nil {
		return nil, err
	}
	out := make([]dto.StockMovementResponse, 0, len(list))
	for _, m := range list {
		out = append(out, dto.StockMovementResponse{
			ID:        m.ID,
			ProductID: m.ProductID,
			Type:      m.Type,
			Quantity:  m.Quantity,
			BillID:    m.BillID,
			Notes:     m.Notes,
			CreatedBy: m.CreatedBy,
			CreatedAt: m.CreatedAt,
		})
	}
	return out, nil
}

func (uc *StockUseCase) change(ctx context.Context, actor entity.Actor, productID, movType string, in dto.StockChangeRequest) (*dto.StockResponse, error) {
	now := uc.now()
	var journal *Journal
	err := uc.txRunner.Run(ctx, func(
		ledger repository.StockLedger,
		movRepo repository.StockMovementRepository,
		productRepo repository.ProductRepository,
	) error {
		journal = NewJournal(ledger)
		if _, err := uc.requireProduct(ctx, productRepo, actor.WorkspaceID, productID); err != nil {
			return err
		}
		if in.Quantity.IsPositive() {
			return uc.increaseInTx(ctx, journal, movRepo, actor, productID, movType, in.Quantity, in.Notes, now)
		}
		if err := journal.Reserve(ctx, productID, in.Quantity.Neg()); err != nil {
			return err
		}
		return movRepo.Create(ctx, &entity.StockMovement{
			ID:          uuid.New().String(),
			WorkspaceID: actor.WorkspaceID,
			ProductID:   productID,
			Type:        movType,
			Quantity:    in.Quantity,
			Notes:       in.Notes,
			CreatedBy:   actor.UserID,
			CreatedAt:   now,
		})
	})
	if ferr := journal.Finish(ctx, err); ferr != nil {
		uc.log.Error().Err(ferr).Str("product_id", productID).Msg("cierre del ledger externo en movimiento de stock")
	}
	if err != nil {
		return nil, err
	}
	uc.log.Info().Str("product_id", productID).Str("type", movType).Str("quantity", in.Quantity.String()).Msg("movimiento de stock registrado")
	return uc.stockResponse(ctx, productID)
}

func (uc *StockUseCase) increaseInTx(
	ctx context.Context,
	journal *Journal,
	movRepo repository.StockMovementRepository,
	actor entity.Actor,
	productID, movType string,
	qty decimal.Decimal,
	notes string,
	now time.Time,
) error {
	if err := journal.Release(ctx, productID, qty); err != nil {
		return err
	}
	return movRepo.Create(ctx, &entity.StockMovement{
		ID:          uuid.New().String(),
		WorkspaceID: actor.WorkspaceID,
		ProductID:   productID,
		Type:        movType,
		Quantity:    qty,
		Notes:       notes,
		CreatedBy:   actor.UserID,
		CreatedAt:   now,
	})
}

// ApplyBillLinesInTx aplica al ledger las líneas de stock de una factura ya persistida y deja
// un movimiento por línea, todo con los repositorios del llamador (misma transacción).
// Si una reserva falla, el llamador debe abortar la transacción.
func (uc *StockUseCase) ApplyBillLinesInTx(
	ctx context.Context,
	journal *Journal,
	movRepo repository.StockMovementRepository,
	productRepo repository.ProductRepository,
	actor entity.Actor,
	billID string,
	lines []billing.StockLine,
	now time.Time,
) error {
	movs, err := uc.ReserveBillLinesInTx(ctx, journal, productRepo, actor, billID, lines, now)
	if err != nil {
		return err
	}
	return uc.RecordMovementsInTx(ctx, movRepo, movs)
}

// ReserveBillLinesInTx aplica las líneas al ledger y devuelve sus movimientos sin guardarlos.
// Cantidad positiva reserva (RESERVE), negativa libera (RELEASE). Las líneas deben venir
// ordenadas por producto. Al crear una factura los movimientos se guardan después de la
// cabecera, porque referencian a bills.
func (uc *StockUseCase) ReserveBillLinesInTx(
	ctx context.Context,
	journal *Journal,
	productRepo repository.ProductRepository,
	actor entity.Actor,
	billID string,
	lines []billing.StockLine,
	now time.Time,
) ([]*entity.StockMovement, error) {
	movs := make([]*entity.StockMovement, 0, len(lines))
	for _, l := range lines {
		mov := &entity.StockMovement{
			ID:          uuid.New().String(),
			WorkspaceID: actor.WorkspaceID,
			ProductID:   l.ProductID,
			Quantity:    l.Quantity.Neg(),
			BillID:      billID,
			CreatedBy:   actor.UserID,
			CreatedAt:   now,
		}
		if l.Quantity.IsPositive() {
			if _, err := uc.requireProduct(ctx, productRepo, actor.WorkspaceID, l.ProductID); err != nil {
				return nil, err
			}
			if err := journal.Reserve(ctx, l.ProductID, l.Quantity); err != nil {
				return nil, err
			}
			mov.Type = entity.MovementTypeReserve
		} else {
			if err := journal.Release(ctx, l.ProductID, l.Quantity.Neg()); err != nil {
				return nil, err
			}
			mov.Type = entity.MovementTypeRelease
		}
		movs = append(movs, mov)
	}
	return movs, nil
}

// RecordMovementsInTx guarda los movimientos en el diario de la transacción del llamador.
func (uc *StockUseCase) RecordMovementsInTx(ctx context.Context, movRepo repository.StockMovementRepository, movs []*entity.StockMovement) error {
	for _, m := range movs {
		if err := movRepo.Create(ctx, m); err != nil {
			return fmt.Errorf("guardar movimiento de %s: %w", m.ProductID, err)
		}
	}
	return nil
}

func (uc *StockUseCase) requireProduct(ctx context.Context, repo repository.ProductRepository, workspaceID, productID string) (*entity.Product, error) {
	p, err := repo.GetByID(ctx, workspaceID, productID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrProductNotFound, productID)
	}
	return p, nil
}

func (uc *StockUseCase) stockResponse(ctx context.Context, productID string) (*dto.StockResponse, error) {
	available, err := uc.ledger.Available(ctx, productID)
	if err != nil {
		return nil, err
	}
	return &dto.StockResponse{ProductID: productID, Available: available}, nil
}

func (uc *StockUseCase) toResponse(ctx context.Context, p *entity.Product) (*dto.ProductResponse, error) {
	available, err := uc.ledger.Available(ctx, p.ID)
	if err != nil {
		return nil, err
	}
	return &dto.ProductResponse{
		ID:          p.ID,
		WorkspaceID: p.WorkspaceID,
		SKU:         p.SKU,
		Name:        p.Name,
		Unit:        p.Unit,
		Price:       p.Price,
		Available:   available,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}, nil
}

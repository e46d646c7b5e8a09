package billing

import (
	"context"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/billing-engine/internal/application/dto"
	"github.com/jhoicas/billing-engine/internal/domain"
	"github.com/jhoicas/billing-engine/internal/domain/entity"
	"github.com/jhoicas/billing-engine/internal/domain/repository"
	"github.com/jhoicas/billing-engine/pkg/phone"
)

// CustomerUseCase casos de uso para clientes. También es el directorio que consulta el motor.
type CustomerUseCase struct {
	repo               repository.CustomerRepository
	defaultCountryCode string
}

var _ CustomerDirectory = (*CustomerUseCase)(nil)

// NewCustomerUseCase construye el caso de uso. defaultCountryCode normaliza teléfonos nacionales.
func NewCustomerUseCase(repo repository.CustomerRepository, defaultCountryCode string) *CustomerUseCase {
	return &CustomerUseCase{repo: repo, defaultCountryCode: defaultCountryCode}
}

// Exists indica si el cliente existe en el workspace.
func (uc *CustomerUseCase) Exists(ctx context.Context, workspaceID, customerID string) (bool, error) {
	c, err := uc.repo.GetByID(ctx, workspaceID, customerID)
	if err != nil {
		return false, err
	}
	return c != nil, nil
}

// Create crea un nuevo cliente. El teléfono, si viene, se guarda en formato E.164.
func (uc *CustomerUseCase) Create(ctx context.Context, actor entity.Actor, in dto.CreateCustomerRequest) (*dto.CustomerResponse, error) {
	if err := domain.Authorize(actor, entity.RoleMember); err != nil {
		return nil, err
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, domain.NewInputError("name", "requerido")
	}
	phoneNumber := strings.TrimSpace(in.Phone)
	if phoneNumber != "" {
		normalized, err := phone.Normalize(phoneNumber, uc.defaultCountryCode)
		if err != nil {
			return nil, domain.NewInputError("phone", "formato inválido")
		}
		phoneNumber = normalized
	}
	email := strings.TrimSpace(in.Email)
	if email != "" {
		if _, err := mail.ParseAddress(email); err != nil {
			return nil, domain.NewInputError("email", "formato inválido")
		}
	}
	now := time.Now()
	customer := &entity.Customer{
		ID:          uuid.New().String(),
		WorkspaceID: actor.WorkspaceID,
		Name:        name,
		Phone:       phoneNumber,
		Email:       email,
		Notes:       strings.TrimSpace(in.Notes),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := uc.repo.Create(ctx, customer); err != nil {
		return nil, err
	}
	return toCustomerResponse(customer), nil
}

// Get devuelve un cliente del workspace.
func (uc *CustomerUseCase) Get(ctx context.Context, actor entity.Actor, id string) (*dto.CustomerResponse, error) {
	if err := domain.Authorize(actor, entity.RoleMember); err != nil {
		return nil, err
	}
	c, err := uc.repo.GetByID(ctx, actor.WorkspaceID, id)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, domain.ErrCustomerNotFound
	}
	return toCustomerResponse(c), nil
}

// List lista clientes del workspace.
func (uc *CustomerUseCase) List(ctx context.Context, actor entity.Actor, limit, offset int) ([]*dto.CustomerResponse, error) {
	if err := domain.Authorize(actor, entity.RoleMember); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	list, err := uc.repo.ListByWorkspace(ctx, actor.WorkspaceID, limit, offset)
	if err != nil {
		return nil, err
	}
	out := make([]*dto.CustomerResponse, 0, len(list))
	for _, c := range list {
		out = append(out, toCustomerResponse(c))
	}
	return out, nil
}

func toCustomerResponse(c *entity.Customer) *dto.CustomerResponse {
	return &dto.CustomerResponse{
		ID:          c.ID,
		WorkspaceID: c.WorkspaceID,
		Name:        c.Name,
		Phone:       c.Phone,
		Email:       c.Email,
		Notes:       c.Notes,
		CreatedAt:   c.CreatedAt,
	}
}

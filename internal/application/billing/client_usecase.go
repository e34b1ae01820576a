package billing

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ahmedelazaizi/invoiceportaleta/internal/application/dto"
	"github.com/ahmedelazaizi/invoiceportaleta/internal/domain"
	"github.com/ahmedelazaizi/invoiceportaleta/internal/domain/entity"
	"github.com/ahmedelazaizi/invoiceportaleta/internal/domain/repository"
	pkgeta "github.com/ahmedelazaizi/invoiceportaleta/pkg/eta"
)

// ClientUseCase manages billing counterparties.
type ClientUseCase struct {
	clientRepo repository.ClientRepository
}

// NewClientUseCase builds the use case.
func NewClientUseCase(clientRepo repository.ClientRepository) *ClientUseCase {
	return &ClientUseCase{clientRepo: clientRepo}
}

// CreateClient validates and persists a new client. Business receivers must
// carry a well-formed tax registration number; persons may omit it.
func (uc *ClientUseCase) CreateClient(in dto.CreateClientRequest) (*dto.ClientResponse, error) {
	if in.Name == "" {
		return nil, domain.ErrInvalidInput
	}
	clientType := in.Type
	if clientType == "" {
		clientType = "B"
	}
	if clientType != "B" && clientType != "P" {
		return nil, fmt.Errorf("client type %q: %w", in.Type, domain.ErrInvalidInput)
	}

	taxNumber := pkgeta.NormalizeRegistrationNumber(in.TaxNumber)
	if clientType == "B" {
		if err := pkgeta.ValidateRegistrationNumber(taxNumber); err != nil {
			return nil, fmt.Errorf("%v: %w", err, domain.ErrInvalidInput)
		}
	}

	now := time.Now()
	client := &entity.Client{
		ID:             uuid.New().String(),
		Name:           in.Name,
		Email:          in.Email,
		Phone:          in.Phone,
		Address:        in.Address,
		Type:           clientType,
		TaxNumber:      taxNumber,
		Governate:      in.Governate,
		City:           in.City,
		Street:         in.Street,
		BuildingNumber: in.BuildingNumber,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := uc.clientRepo.Create(client); err != nil {
		return nil, err
	}
	return toClientResponse(client), nil
}

// GetClient fetches one client.
func (uc *ClientUseCase) GetClient(id string) (*dto.ClientResponse, error) {
	client, err := uc.clientRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	return toClientResponse(client), nil
}

// UpdateClient rewrites a client's mutable fields.
func (uc *ClientUseCase) UpdateClient(id string, in dto.CreateClientRequest) (*dto.ClientResponse, error) {
	client, err := uc.clientRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if in.Name != "" {
		client.Name = in.Name
	}
	if in.Type != "" {
		client.Type = in.Type
	}
	if in.TaxNumber != "" {
		taxNumber := pkgeta.NormalizeRegistrationNumber(in.TaxNumber)
		if client.Type == "B" {
			if err := pkgeta.ValidateRegistrationNumber(taxNumber); err != nil {
				return nil, fmt.Errorf("%v: %w", err, domain.ErrInvalidInput)
			}
		}
		client.TaxNumber = taxNumber
	}
	client.Email = in.Email
	client.Phone = in.Phone
	client.Address = in.Address
	client.Governate = in.Governate
	client.City = in.City
	client.Street = in.Street
	client.BuildingNumber = in.BuildingNumber
	client.UpdatedAt = time.Now()

	if err := uc.clientRepo.Update(client); err != nil {
		return nil, err
	}
	return toClientResponse(client), nil
}

// ListClients returns clients paginated.
func (uc *ClientUseCase) ListClients(page dto.PageRequest) ([]*dto.ClientResponse, error) {
	page.DefaultPage()
	clients, err := uc.clientRepo.List(page.Limit, page.Offset)
	if err != nil {
		return nil, err
	}
	out := make([]*dto.ClientResponse, len(clients))
	for i, c := range clients {
		out[i] = toClientResponse(c)
	}
	return out, nil
}

// DeleteClient removes a client. Existing invoices keep their receiver snapshot.
func (uc *ClientUseCase) DeleteClient(id string) error {
	return uc.clientRepo.Delete(id)
}

func toClientResponse(c *entity.Client) *dto.ClientResponse {
	return &dto.ClientResponse{
		ID:             c.ID,
		Name:           c.Name,
		Email:          c.Email,
		Phone:          c.Phone,
		Address:        c.Address,
		Type:           c.Type,
		TaxNumber:      c.TaxNumber,
		Governate:      c.Governate,
		City:           c.City,
		Street:         c.Street,
		BuildingNumber: c.BuildingNumber,
	}
}

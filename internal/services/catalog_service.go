package services

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/ashmitsharp/erp-api/internal/apperr"
	"github.com/ashmitsharp/erp-api/internal/database/db"
)

// ClientCache is told when a tenant's client table changes.
type ClientCache interface {
	Invalidate(userID uuid.UUID)
}

type ProductInput struct {
	SKU           string
	Name          string
	StockQuantity int
}

// CatalogService maintains the client and product tables that imports
// resolve against.
type CatalogService struct {
	store   Store
	clients ClientCache
	log     zerolog.Logger
}

func NewCatalogService(store Store, clients ClientCache, log zerolog.Logger) *CatalogService {
	return &CatalogService{
		store:   store,
		clients: clients,
		log:     log.With().Str("component", "catalog").Logger(),
	}
}

// CreateClient adds a client. Names are unique per tenant, ignoring case.
func (s *CatalogService) CreateClient(ctx context.Context, userID uuid.UUID, name string) (db.Client, error) {
	const op = "CreateClient"

	name = strings.Join(strings.Fields(name), " ")
	if name == "" {
		return db.Client{}, apperr.Validation(op, "name is required")
	}

	existing, err := s.store.GetClientByName(ctx, db.GetClientByNameParams{UserID: userID, Name: name})
	switch {
	case err == nil:
		return db.Client{}, apperr.Conflict(op, "client %q already exists", existing.Name)
	case !isNoRows(err):
		return db.Client{}, apperr.External(op, err)
	}

	client, err := s.store.CreateClient(ctx, db.CreateClientParams{ID: uuid.New(), UserID: userID, Name: name})
	if err != nil {
		return db.Client{}, apperr.External(op, err)
	}
	if s.clients != nil {
		s.clients.Invalidate(userID)
	}

	s.log.Info().Str("user_id", userID.String()).Str("client", name).Msg("client created")
	return client, nil
}

// CreateProduct adds a product. The SKU keeps its spelling; a SKU that only
// differs in case from an existing one is rejected.
func (s *CatalogService) CreateProduct(ctx context.Context, userID uuid.UUID, in ProductInput) (db.Product, error) {
	const op = "CreateProduct"

	sku := strings.TrimSpace(in.SKU)
	name := strings.TrimSpace(in.Name)
	if sku == "" {
		return db.Product{}, apperr.Validation(op, "sku is required")
	}
	if name == "" {
		return db.Product{}, apperr.Validation(op, "name is required")
	}
	if in.StockQuantity < 0 {
		return db.Product{}, apperr.Validation(op, "stock_quantity cannot be negative")
	}

	existing, err := s.store.GetProductBySKU(ctx, db.GetProductBySKUParams{UserID: userID, Sku: sku})
	switch {
	case err == nil:
		return db.Product{}, apperr.Conflict(op, "product %s already exists", existing.Sku)
	case !isNoRows(err):
		return db.Product{}, apperr.External(op, err)
	}

	product, err := s.store.CreateProduct(ctx, db.CreateProductParams{
		ID:            uuid.New(),
		UserID:        userID,
		Sku:           sku,
		Name:          name,
		StockQuantity: int32(in.StockQuantity),
	})
	if err != nil {
		if isUniqueViolation(err) {
			return db.Product{}, apperr.Conflict(op, "product %s already exists", sku)
		}
		return db.Product{}, apperr.External(op, err)
	}

	s.log.Info().Str("user_id", userID.String()).Str("sku", sku).Msg("product created")
	return product, nil
}

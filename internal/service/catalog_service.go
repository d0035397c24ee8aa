package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"soderia/internal/dto"
	"soderia/internal/model"
	"soderia/internal/repository"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const productCacheTTL = 4 * time.Hour

// Catalog is the narrow product lookup the order flow consumes: a
// price/returnable-flag snapshot taken once at order creation. Later
// catalog changes never touch existing orders.
type Catalog interface {
	GetProduct(ctx context.Context, id uuid.UUID) (*model.Product, error)
}

// CatalogService adds the management surface on top of Catalog.
type CatalogService interface {
	Catalog
	Create(ctx context.Context, req dto.CreateProductRequest) (*dto.ProductResponse, error)
	Update(ctx context.Context, id uuid.UUID, req dto.UpdateProductRequest) (*dto.ProductResponse, error)
	List(ctx context.Context, filter dto.ProductFilter) (*dto.ProductListResponse, error)
	Deactivate(ctx context.Context, id uuid.UUID) error
}

type catalogService struct {
	repo repository.ProductRepository
	rdb  *redis.Client
}

func NewCatalogService(repo repository.ProductRepository, rdb *redis.Client) CatalogService {
	return &catalogService{repo: repo, rdb: rdb}
}

func productCacheKey(id uuid.UUID) string { return "product:" + id.String() }

// GetProduct reads through a Redis cache. Cache writes are best effort;
// the DB row is authoritative.
func (s *catalogService) GetProduct(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	if s.rdb != nil {
		if cached, err := s.rdb.Get(ctx, productCacheKey(id)).Bytes(); err == nil {
			var p model.Product
			if jsonErr := json.Unmarshal(cached, &p); jsonErr == nil {
				return &p, nil
			}
		}
	}

	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound("producto", id)
		}
		return nil, err
	}
	if !p.Active {
		return nil, notFound("producto", id)
	}

	if s.rdb != nil {
		if b, jsonErr := json.Marshal(p); jsonErr == nil {
			_ = s.rdb.Set(ctx, productCacheKey(id), b, productCacheTTL).Err()
		}
	}
	return p, nil
}

func (s *catalogService) Create(ctx context.Context, req dto.CreateProductRequest) (*dto.ProductResponse, error) {
	if req.Price.LessThanOrEqual(decimal.Zero) {
		return nil, &ValidationError{Field: "price", Msg: "debe ser mayor a cero"}
	}

	p := &model.Product{
		Code:         req.Code,
		Name:         req.Name,
		Price:        req.Price,
		IsReturnable: req.IsReturnable,
		Active:       true,
	}
	if err := s.repo.Create(ctx, p); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, conflict("DUPLICATE_CODE", "ya existe un producto con código %s", req.Code)
		}
		return nil, err
	}
	return productToResponse(p), nil
}

func (s *catalogService) Update(ctx context.Context, id uuid.UUID, req dto.UpdateProductRequest) (*dto.ProductResponse, error) {
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFound("producto", id)
	}

	if req.Name != nil {
		p.Name = *req.Name
	}
	if req.Price != nil {
		if req.Price.LessThanOrEqual(decimal.Zero) {
			return nil, &ValidationError{Field: "price", Msg: "debe ser mayor a cero"}
		}
		p.Price = *req.Price
	}
	if req.IsReturnable != nil {
		p.IsReturnable = *req.IsReturnable
	}

	if err := s.repo.Update(ctx, p); err != nil {
		return nil, err
	}
	s.invalidate(ctx, id)
	return productToResponse(p), nil
}

func (s *catalogService) List(ctx context.Context, filter dto.ProductFilter) (*dto.ProductListResponse, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 {
		filter.Limit = 100
	}
	products, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	items := make([]dto.ProductResponse, 0, len(products))
	for i := range products {
		items = append(items, *productToResponse(&products[i]))
	}
	return &dto.ProductListResponse{Data: items, Total: total, Page: filter.Page, Limit: filter.Limit}, nil
}

func (s *catalogService) Deactivate(ctx context.Context, id uuid.UUID) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		return notFound("producto", id)
	}
	if err := s.repo.SetActive(ctx, id, false); err != nil {
		return err
	}
	s.invalidate(ctx, id)
	return nil
}

func (s *catalogService) invalidate(ctx context.Context, id uuid.UUID) {
	if s.rdb != nil {
		_ = s.rdb.Del(ctx, productCacheKey(id)).Err()
	}
}

func productToResponse(p *model.Product) *dto.ProductResponse {
	return &dto.ProductResponse{
		ID:           p.ID.String(),
		Code:         p.Code,
		Name:         p.Name,
		Price:        p.Price,
		IsReturnable: p.IsReturnable,
		Active:       p.Active,
	}
}

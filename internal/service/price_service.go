package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/lshigami/Materia/internal/apperr"
	"github.com/lshigami/Materia/internal/dto"
	"github.com/lshigami/Materia/internal/model"
	"github.com/lshigami/Materia/internal/repository"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// maxPriceAmount is the exclusive upper bound of numeric(10,2).
var maxPriceAmount = decimal.New(1, 8)

type PriceService interface {
	List(ctx context.Context) ([]dto.PriceView, error)
	Create(ctx context.Context, req dto.CreatePriceRequest) (*dto.PriceView, error)
	Delete(ctx context.Context, id uint) error
}

type priceService struct {
	priceRepo repository.PriceRepository
}

func NewPriceService(priceRepo repository.PriceRepository) PriceService {
	return &priceService{priceRepo: priceRepo}
}

func (s *priceService) List(ctx context.Context) ([]dto.PriceView, error) {
	prices, err := s.priceRepo.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list prices: %w", err)
	}
	return dto.NewPriceViews(prices), nil
}

func (s *priceService) Create(ctx context.Context, req dto.CreatePriceRequest) (*dto.PriceView, error) {
	amount, err := ParsePriceAmount(req.Amount)
	if err != nil {
		return nil, err
	}
	price := model.Price{Amount: amount, MeasurementUnit: strings.TrimSpace(req.MeasurementUnit)}
	if err := s.priceRepo.Create(ctx, &price); err != nil {
		return nil, fmt.Errorf("create price: %w", err)
	}
	log.Info().Uint("priceID", price.ID).Str("amount", price.Amount.StringFixed(2)).Msg("price created")
	view := dto.NewPriceView(&price)
	return &view, nil
}

func (s *priceService) Delete(ctx context.Context, id uint) error {
	if err := s.priceRepo.Delete(ctx, id); err != nil {
		return apperr.NotFoundOr(err, "price", id)
	}
	log.Info().Uint("priceID", id).Msg("price deleted")
	return nil
}

// ParsePriceAmount accepts a non-negative decimal with at most two
// fractional digits that fits numeric(10,2).
func ParsePriceAmount(raw string) (decimal.Decimal, error) {
	amount, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return decimal.Decimal{}, apperr.Validation("amount", "%q is not a decimal number", raw)
	}
	if amount.IsNegative() {
		return decimal.Decimal{}, apperr.Validation("amount", "must not be negative")
	}
	if !amount.Equal(amount.Truncate(2)) {
		return decimal.Decimal{}, apperr.Validation("amount", "at most 2 fractional digits allowed")
	}
	if amount.GreaterThanOrEqual(maxPriceAmount) {
		return decimal.Decimal{}, apperr.Validation("amount", "must be less than %s", maxPriceAmount.String())
	}
	return amount, nil
}

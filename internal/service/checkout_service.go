package service

import (
	"context"
	"fmt"
	"time"

	"marketplace/internal/checkout"
	"marketplace/internal/database"
	"marketplace/internal/model"
	"marketplace/internal/repository"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// checkoutService implements CheckoutService.
type checkoutService struct {
	auth        AuthService
	productRepo repository.ProductRepository
	orderRepo   repository.OrderRepository
	idempotency IdempotencyStore
	retry       database.RetryOptions
	tracer      trace.Tracer
	now         func() time.Time
	logger      zerolog.Logger
}

// NewCheckoutService creates a new checkout service. idempotency may be nil,
// in which case Idempotency-Key values are ignored.
func NewCheckoutService(
	auth AuthService,
	productRepo repository.ProductRepository,
	orderRepo repository.OrderRepository,
	idempotency IdempotencyStore,
	retry database.RetryOptions,
	logger zerolog.Logger,
) CheckoutService {
	return &checkoutService{
		auth:        auth,
		productRepo: productRepo,
		orderRepo:   orderRepo,
		idempotency: idempotency,
		retry:       retry,
		tracer:      otel.Tracer("marketplace/checkout"),
		now:         time.Now,
		logger:      logger.With().Str("service", "checkout").Logger(),
	}
}

// Quote prices a cart per vendor against unlocked product reads.
func (s *checkoutService) Quote(ctx context.Context, req *model.QuoteRequest) (*model.QuoteResponse, error) {
	if req == nil || len(req.Items) == 0 {
		return nil, model.ErrEmptyCart
	}

	lines := checkout.CoalesceLines(req.Items)

	products, err := s.productRepo.GetByIDs(ctx, checkout.ProductIDs(lines))
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to load products for quote")
		return nil, fmt.Errorf("failed to load products: %w", err)
	}

	partitions, err := checkout.Plan(lines, products)
	if err != nil {
		return nil, err
	}

	return checkout.Quote(partitions), nil
}

// PlaceOrder validates the cart and creates one confirmed order per vendor
// in a single transaction.
func (s *checkoutService) PlaceOrder(ctx context.Context, identity *model.Identity, req *model.CheckoutRequest, idempotencyKey string) (*model.CheckoutResult, error) {
	ctx, span := s.tracer.Start(ctx, "checkout.PlaceOrder")
	defer span.End()

	result, err := s.placeOrder(ctx, identity, req, idempotencyKey)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetAttributes(
		attribute.Int64("checkout.user_id", result.UserID),
		attribute.Int("checkout.orders", result.TotalOrders),
		attribute.String("checkout.total_amount", result.TotalAmount.StringFixed(2)),
	)
	return result, nil
}

func (s *checkoutService) placeOrder(ctx context.Context, identity *model.Identity, req *model.CheckoutRequest, idempotencyKey string) (*model.CheckoutResult, error) {
	if req == nil {
		return nil, model.NewValidationError("request body is required")
	}

	clientID, err := s.auth.ResolveClient(ctx, identity, req.UserID, req.UserEmail)
	if err != nil {
		return nil, err
	}

	if len(req.Items) == 0 {
		return nil, model.ErrEmptyCart
	}

	if err := checkout.ValidateAddress(req.ShippingAddress); err != nil {
		return nil, err
	}

	lines := checkout.CoalesceLines(req.Items)

	if idempotencyKey == "" || s.idempotency == nil {
		return s.commit(ctx, clientID, lines, req)
	}

	prior, err := s.idempotency.Begin(ctx, clientID, idempotencyKey)
	if err != nil {
		return nil, err
	}
	if prior != nil {
		s.logger.Info().
			Int64("user_id", clientID).
			Str("idempotency_key", idempotencyKey).
			Msg("replaying checkout result")
		return prior, nil
	}

	result, err := s.commit(ctx, clientID, lines, req)
	if err != nil {
		if relErr := s.idempotency.Release(ctx, clientID, idempotencyKey); relErr != nil {
			s.logger.Error().Err(relErr).Str("idempotency_key", idempotencyKey).Msg("failed to release idempotency key")
		}
		return nil, err
	}

	if err := s.idempotency.Complete(ctx, clientID, idempotencyKey, result); err != nil {
		// The orders exist; a replay will fail with in-progress until the key expires.
		s.logger.Error().Err(err).Str("idempotency_key", idempotencyKey).Msg("failed to store checkout result")
	}

	return result, nil
}

// commit runs the write transaction, retrying lock conflicts.
func (s *checkoutService) commit(ctx context.Context, clientID int64, lines []model.CartLine, req *model.CheckoutRequest) (*model.CheckoutResult, error) {
	var result *model.CheckoutResult

	err := database.Retry(ctx, s.retry, func(ctx context.Context) error {
		r, err := s.commitOnce(ctx, clientID, lines, req)
		if err != nil {
			return err
		}
		result = r
		return nil
	})
	if err != nil {
		if _, ok := model.AsDomainError(err); ok {
			return nil, err
		}
		s.logger.Error().Err(err).Int64("user_id", clientID).Msg("checkout failed")
		return nil, fmt.Errorf("%w: %w", model.ErrPersistence, err)
	}

	s.logger.Info().
		Int64("user_id", clientID).
		Int("orders", result.TotalOrders).
		Str("total_amount", result.TotalAmount.StringFixed(2)).
		Msg("checkout completed")

	return result, nil
}

func (s *checkoutService) commitOnce(ctx context.Context, clientID int64, lines []model.CartLine, req *model.CheckoutRequest) (result *model.CheckoutResult, err error) {
	tx, err := s.orderRepo.BeginTx(ctx)
	if err != nil {
		return nil, err
	}

	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				s.logger.Error().Err(rbErr).Msg("failed to rollback transaction")
			}
		}
	}()

	products, err := s.productRepo.LockByIDs(ctx, tx, checkout.ProductIDs(lines))
	if err != nil {
		return nil, err
	}

	partitions, err := checkout.Plan(lines, products)
	if err != nil {
		s.logger.Debug().Err(err).Int64("user_id", clientID).Msg("cart rejected")
		return nil, err
	}

	now := s.now()
	result = &model.CheckoutResult{
		UserID: clientID,
		Orders: make([]model.PlacedOrder, 0, len(partitions)),
	}

	for _, p := range partitions {
		order := checkout.VendorOrder(p, clientID, checkout.NewOrderNumber(now), req.ShippingAddress, req.Payment)

		if err = s.orderRepo.CreateOrder(ctx, tx, order); err != nil {
			return nil, err
		}

		items := make([]model.OrderLine, len(order.Items))
		for i, line := range order.Items {
			line.OrderID = order.ID
			items[i] = line
		}
		if err = s.orderRepo.CreateOrderItems(ctx, tx, items); err != nil {
			return nil, err
		}

		changedBy := clientID
		err = s.orderRepo.AddStatusHistory(ctx, tx, &model.StatusHistoryEntry{
			OrderID:   order.ID,
			ToStatus:  model.OrderStatusConfirmed,
			Note:      "Order placed",
			ChangedBy: &changedBy,
		})
		if err != nil {
			return nil, err
		}

		for _, line := range items {
			if _, err = s.productRepo.DecrementStock(ctx, tx, line.ProductID, line.Quantity); err != nil {
				return nil, err
			}
		}

		result.Orders = append(result.Orders, model.PlacedOrder{
			OrderID:     order.ID,
			OrderNumber: order.OrderNumber,
			VendorID:    order.VendorID,
			TotalAmount: order.TotalAmount,
		})
	}

	result.TotalOrders = len(result.Orders)
	result.TotalAmount = checkout.GrandTotal(partitions)

	if err = tx.Commit(ctx); err != nil {
		return nil, err
	}

	return result, nil
}

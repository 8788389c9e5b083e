package service

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"marketplace/internal/database"
	"marketplace/internal/model"
	"marketplace/internal/repository"

	"github.com/rs/zerolog"
)

// transitions lists the statuses a vendor may move an order to from each status.
var transitions = map[string][]string{
	model.OrderStatusPending:    {model.OrderStatusConfirmed, model.OrderStatusCancelled},
	model.OrderStatusConfirmed:  {model.OrderStatusProcessing, model.OrderStatusCancelled},
	model.OrderStatusProcessing: {model.OrderStatusShipped, model.OrderStatusCancelled},
	model.OrderStatusShipped:    {model.OrderStatusDelivered},
}

// CanTransition reports whether an order may move from one status to another.
func CanTransition(from, to string) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// orderService implements OrderService.
type orderService struct {
	orderRepo   repository.OrderRepository
	productRepo repository.ProductRepository
	retry       database.RetryOptions
	logger      zerolog.Logger
}

// NewOrderService creates a new order service.
func NewOrderService(
	orderRepo repository.OrderRepository,
	productRepo repository.ProductRepository,
	retry database.RetryOptions,
	logger zerolog.Logger,
) OrderService {
	return &orderService{
		orderRepo:   orderRepo,
		productRepo: productRepo,
		retry:       retry,
		logger:      logger.With().Str("service", "order").Logger(),
	}
}

// ListForClient retrieves a page of the client's vendor orders.
func (s *orderService) ListForClient(ctx context.Context, clientID int64, filter model.OrderFilter) (*model.OrderPage, error) {
	filter.Limit, filter.Offset = normalizePage(filter.Limit, filter.Offset)

	orders, total, err := s.orderRepo.ListByClient(ctx, clientID, filter)
	if err != nil {
		s.logger.Error().Err(err).Int64("client_id", clientID).Msg("failed to list client orders")
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}

	return &model.OrderPage{Items: orders, Total: total, Limit: filter.Limit, Offset: filter.Offset}, nil
}

// GetForClient retrieves one of the client's orders.
func (s *orderService) GetForClient(ctx context.Context, clientID, orderID int64) (*model.VendorOrder, error) {
	order, err := s.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		s.logger.Error().Err(err).Int64("order_id", orderID).Msg("failed to get order")
		return nil, fmt.Errorf("failed to get order: %w", err)
	}

	if order == nil || order.ClientID != clientID {
		s.logger.Debug().Int64("order_id", orderID).Msg("order not found")
		return nil, model.ErrOrderNotFound
	}

	return order, nil
}

// ListForVendor retrieves a page of the vendor's orders.
func (s *orderService) ListForVendor(ctx context.Context, vendorID int64, filter model.OrderFilter) (*model.OrderPage, error) {
	filter.Limit, filter.Offset = normalizePage(filter.Limit, filter.Offset)

	orders, total, err := s.orderRepo.ListByVendor(ctx, vendorID, filter)
	if err != nil {
		s.logger.Error().Err(err).Int64("vendor_id", vendorID).Msg("failed to list vendor orders")
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}

	return &model.OrderPage{Items: orders, Total: total, Limit: filter.Limit, Offset: filter.Offset}, nil
}

// UpdateStatus moves a vendor's order to a new status. Cancelling puts the
// ordered quantities back in stock and refunds a paid order.
func (s *orderService) UpdateStatus(ctx context.Context, vendorID, changedBy, orderID int64, req *model.StatusUpdateRequest) (*model.VendorOrder, error) {
	if req == nil || strings.TrimSpace(req.Status) == "" {
		return nil, model.NewValidationError("status is required")
	}

	err := database.Retry(ctx, s.retry, func(ctx context.Context) error {
		return s.updateStatusOnce(ctx, vendorID, changedBy, orderID, req)
	})
	if err != nil {
		if _, ok := model.AsDomainError(err); ok {
			return nil, err
		}
		s.logger.Error().Err(err).Int64("order_id", orderID).Msg("failed to update order status")
		return nil, fmt.Errorf("failed to update order status: %w", err)
	}

	s.logger.Info().
		Int64("order_id", orderID).
		Str("status", req.Status).
		Int64("changed_by", changedBy).
		Msg("order status updated")

	order, err := s.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to reload order: %w", err)
	}
	return order, nil
}

func (s *orderService) updateStatusOnce(ctx context.Context, vendorID, changedBy, orderID int64, req *model.StatusUpdateRequest) (err error) {
	tx, err := s.orderRepo.BeginTx(ctx)
	if err != nil {
		return err
	}

	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				s.logger.Error().Err(rbErr).Msg("failed to rollback transaction")
			}
		}
	}()

	order, err := s.orderRepo.GetForUpdate(ctx, tx, orderID)
	if err != nil {
		return err
	}
	if order == nil || order.VendorID != vendorID {
		return model.ErrOrderNotFound
	}

	from := order.Status
	if !CanTransition(from, req.Status) {
		return model.NewDomainError(model.ErrCodeInvalidTransition,
			fmt.Sprintf("Cannot change order status from %s to %s", from, req.Status))
	}

	paymentStatus := order.PaymentStatus
	if req.Status == model.OrderStatusCancelled {
		// Ascending product id, the same order checkout locks in.
		items := append([]model.OrderLine(nil), order.Items...)
		sort.Slice(items, func(i, j int) bool { return items[i].ProductID < items[j].ProductID })
		for _, item := range items {
			if err = s.productRepo.RestoreStock(ctx, tx, item.ProductID, item.Quantity); err != nil {
				return err
			}
		}
		if paymentStatus == model.PaymentStatusPaid {
			paymentStatus = model.PaymentStatusRefunded
		}
	}

	if err = s.orderRepo.UpdateStatus(ctx, tx, orderID, req.Status, paymentStatus); err != nil {
		return err
	}

	err = s.orderRepo.AddStatusHistory(ctx, tx, &model.StatusHistoryEntry{
		OrderID:    orderID,
		FromStatus: &from,
		ToStatus:   req.Status,
		Note:       strings.TrimSpace(req.Note),
		ChangedBy:  &changedBy,
	})
	if err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// Package http exposes the lab order commands and queries over a JSON API.
package http

import (
	"context"
	"net/http"
	"time"

	"labtrack/internal/core/application/usecases/commands"
	"labtrack/internal/core/application/usecases/queries"
	"labtrack/internal/core/domain/model/kernel"
	"labtrack/internal/core/domain/model/order"
	"labtrack/internal/pkg/errs"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/oapi-codegen/runtime"
)

type CreateOrderHandler interface {
	Handle(ctx context.Context, cmd commands.CreateOrderCommand) error
}

type UpdateItemStatusHandler interface {
	Handle(ctx context.Context, cmd commands.UpdateItemStatusCommand) (commands.UpdateItemStatusResult, error)
}

type UpdateOrderStatusHandler interface {
	Handle(ctx context.Context, cmd commands.UpdateOrderStatusCommand) (commands.UpdateOrderStatusResult, error)
}

type CancelOrderHandler interface {
	Handle(ctx context.Context, cmd commands.CancelOrderCommand) (commands.CancelOrderResult, error)
}

type AutoCancelOrdersHandler interface {
	Handle(ctx context.Context, cmd commands.AutoCancelOrdersCommand) (commands.AutoCancelResult, error)
}

type GetOrderHandler interface {
	Handle(ctx context.Context, query queries.GetOrderQuery) (queries.GetOrderQueryResponse, error)
}

type GetOrderLogsHandler interface {
	Handle(ctx context.Context, query queries.GetOrderLogsQuery) ([]queries.GetOrderLogsQueryResponse, error)
}

// Handlers groups the use cases served over HTTP.
type Handlers struct {
	CreateOrder       CreateOrderHandler
	UpdateItemStatus  UpdateItemStatusHandler
	UpdateOrderStatus UpdateOrderStatusHandler
	CancelOrder       CancelOrderHandler
	AutoCancelOrders  AutoCancelOrdersHandler
	GetOrder          GetOrderHandler
	GetOrderLogs      GetOrderLogsHandler
}

// Server translates HTTP requests into commands and queries.
type Server struct {
	handlers Handlers
}

func NewServer(handlers Handlers) *Server {
	return &Server{handlers: handlers}
}

// Register mounts the API under /api/v1. auth runs first, then every extra
// middleware in order.
func (s *Server) Register(e *echo.Echo, auth echo.MiddlewareFunc, middleware ...echo.MiddlewareFunc) {
	g := e.Group("/api/v1", append([]echo.MiddlewareFunc{auth}, middleware...)...)

	g.POST("/orders", s.CreateOrder)
	g.GET("/orders/:id", s.GetOrder, RequireCapability(kernel.CapabilityManageLabResults))
	g.GET("/orders/:id/logs", s.GetOrderLogs, RequireCapability(kernel.CapabilityManageLabResults))
	g.POST("/items/status", s.UpdateItemStatus)
	g.POST("/orders/status", s.UpdateOrderStatus)
	g.POST("/orders/cancel", s.CancelOrder)
	g.POST("/orders/auto-cancel", s.AutoCancelOrders)
}

// CreateOrder handles POST /api/v1/orders.
func (s *Server) CreateOrder(c echo.Context) error {
	actor, err := ActorFromContext(c.Request().Context())
	if err != nil {
		return err
	}

	var req createOrderRequest
	if err := c.Bind(&req); err != nil {
		return errs.NewValueIsInvalidErrorWithCause("body", err)
	}
	patientID, err := parseUUID("patient_id", req.PatientID)
	if err != nil {
		return err
	}

	orderID := kernel.NewUUID()
	cmd, err := commands.NewCreateOrderCommand(orderID, patientID, req.TestTypes, req.Remarks, actor)
	if err != nil {
		return err
	}
	if err := s.handlers.CreateOrder.Handle(c.Request().Context(), cmd); err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, dataResponse[createOrderData]{
		Success: true,
		Message: "Order placed",
		Data:    createOrderData{OrderID: orderID.Bytes()},
	})
}

// GetOrder handles GET /api/v1/orders/{id}.
func (s *Server) GetOrder(c echo.Context) error {
	orderID, err := bindOrderID(c)
	if err != nil {
		return err
	}

	query, err := queries.NewGetOrderQuery(orderID)
	if err != nil {
		return err
	}
	result, err := s.handlers.GetOrder.Handle(c.Request().Context(), query)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, dataResponse[orderView]{Success: true, Data: newOrderView(result)})
}

// GetOrderLogs handles GET /api/v1/orders/{id}/logs.
func (s *Server) GetOrderLogs(c echo.Context) error {
	orderID, err := bindOrderID(c)
	if err != nil {
		return err
	}

	query, err := queries.NewGetOrderLogsQuery(orderID)
	if err != nil {
		return err
	}
	entries, err := s.handlers.GetOrderLogs.Handle(c.Request().Context(), query)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, dataResponse[[]logEntryView]{Success: true, Data: newLogEntryViews(entries)})
}

// UpdateItemStatus handles POST /api/v1/items/status.
func (s *Server) UpdateItemStatus(c echo.Context) error {
	actor, err := ActorFromContext(c.Request().Context())
	if err != nil {
		return err
	}

	var req updateItemStatusRequest
	if err := c.Bind(&req); err != nil {
		return errs.NewValueIsInvalidErrorWithCause("body", err)
	}
	itemID, err := parseUUID("item_id", req.ItemID)
	if err != nil {
		return err
	}
	status, err := order.ParseItemStatus(req.Status)
	if err != nil {
		return err
	}

	cmd, err := commands.NewUpdateItemStatusCommand(itemID, status, req.Remarks, actor)
	if err != nil {
		return err
	}
	result, err := s.handlers.UpdateItemStatus.Handle(c.Request().Context(), cmd)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, dataResponse[updateItemStatusData]{
		Success: true,
		Message: "Item status updated",
		Data: updateItemStatusData{
			OrderID:     result.OrderID.Bytes(),
			ItemStatus:  result.ItemStatus.String(),
			OrderStatus: result.OrderStatus.String(),
		},
	})
}

// UpdateOrderStatus handles POST /api/v1/orders/status.
func (s *Server) UpdateOrderStatus(c echo.Context) error {
	actor, err := ActorFromContext(c.Request().Context())
	if err != nil {
		return err
	}

	var req updateOrderStatusRequest
	if err := c.Bind(&req); err != nil {
		return errs.NewValueIsInvalidErrorWithCause("body", err)
	}
	orderID, err := parseUUID("order_id", req.OrderID)
	if err != nil {
		return err
	}

	status := order.Unknown
	if req.OverallStatus != "" || !req.AutoUpdate {
		if status, err = order.ParseStatus(req.OverallStatus); err != nil {
			return err
		}
	}

	cmd, err := commands.NewUpdateOrderStatusCommand(orderID, status, req.Remarks, req.AutoUpdate, actor)
	if err != nil {
		return err
	}
	result, err := s.handlers.UpdateOrderStatus.Handle(c.Request().Context(), cmd)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, dataResponse[updateOrderStatusData]{
		Success: true,
		Message: "Order status updated",
		Data: updateOrderStatusData{
			OrderID:        result.OrderID.Bytes(),
			OldStatus:      result.OldStatus.String(),
			NewStatus:      result.NewStatus.String(),
			TotalItems:     result.TotalItems,
			CompletedItems: result.CompletedItems,
			AutoUpdate:     result.AutoUpdate,
		},
	})
}

// CancelOrder handles POST /api/v1/orders/cancel.
func (s *Server) CancelOrder(c echo.Context) error {
	actor, err := ActorFromContext(c.Request().Context())
	if err != nil {
		return err
	}

	var req cancelOrderRequest
	if err := c.Bind(&req); err != nil {
		return errs.NewValueIsInvalidErrorWithCause("body", err)
	}
	orderID, err := parseUUID("order_id", req.OrderID)
	if err != nil {
		return err
	}

	cmd, err := commands.NewCancelOrderCommand(orderID, req.Reason, actor)
	if err != nil {
		return err
	}
	result, err := s.handlers.CancelOrder.Handle(c.Request().Context(), cmd)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, cancelOrderResponse{
		Success:     true,
		Message:     "Order cancelled",
		CancelledBy: result.CancelledBy.Bytes(),
		CancelledAt: result.CancelledAt,
	})
}

// AutoCancelOrders handles POST /api/v1/orders/auto-cancel and runs the sweep immediately.
func (s *Server) AutoCancelOrders(c echo.Context) error {
	actor, err := ActorFromContext(c.Request().Context())
	if err != nil {
		return err
	}

	cmd, err := commands.NewAutoCancelOrdersCommand(time.Time{}, actor)
	if err != nil {
		return err
	}
	result, err := s.handlers.AutoCancelOrders.Handle(c.Request().Context(), cmd)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, newAutoCancelResponse(result))
}

func bindOrderID(c echo.Context) (kernel.UUID, error) {
	var id uuid.UUID
	err := runtime.BindStyledParameterWithOptions("simple", "id", c.Param("id"), &id,
		runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Explode: false, Required: true})
	if err != nil {
		return kernel.UUID{}, errs.NewValueIsInvalidErrorWithCause("id", err)
	}
	return kernel.UUIDFromBytes(id[:])
}

func parseUUID(param, value string) (kernel.UUID, error) {
	if value == "" {
		return kernel.UUID{}, errs.NewValueIsRequiredError(param)
	}
	id, err := kernel.UUIDFromString(value)
	if err != nil {
		return kernel.UUID{}, errs.NewValueIsInvalidErrorWithCause(param, err)
	}
	return id, nil
}

// Health handles GET /health.
func Health(c echo.Context) error {
	return c.String(http.StatusOK, "Healthy")
}

package commands_test

import (
	"testing"
	"time"

	"labtrack/internal/core/application/usecases/commands"
	"labtrack/internal/core/domain/model/auditlog"
	"labtrack/internal/core/domain/model/kernel"
	"labtrack/internal/core/domain/model/order"
	"labtrack/internal/pkg/clock"
	"labtrack/internal/pkg/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestCreateOrderCommandHandler_Handle_Success(t *testing.T) {
	ctx := t.Context()
	now := time.Date(2025, 3, 14, 8, 30, 0, 0, time.UTC)
	placer := newActor(t, kernel.CapabilityPlaceOrders)
	orderID := kernel.NewUUID()

	var saved *order.Order
	orderRepo := new(MockOrderRepository)
	logRepo := new(MockAuditLogRepository)
	uow := new(MockUoW)

	mock.InOrder(
		uow.On("Begin", ctx).Return(nil).Once(),
		uow.On("OrderRepository").Return(orderRepo).Once(),
		orderRepo.On("Add", ctx, mock.AnythingOfType("*order.Order")).
			Run(func(args mock.Arguments) { saved = args.Get(1).(*order.Order) }).
			Return(nil).Once(),
		uow.On("AuditLogRepository").Return(logRepo).Once(),
		logRepo.On("Add", ctx, entryWith(auditlog.ActionCreated, placer.ID())).Return(nil).Once(),
		uow.On("Commit", ctx).Return(nil).Once(),
		uow.On("Rollback", ctx).Return(nil).Once(),
	)

	factory := new(MockUoWFactory)
	factory.On("Create").Return(uow).Once()

	handler := commands.NewCreateOrderCommandHandler(factory, clock.Fixed(now))
	cmd, err := commands.NewCreateOrderCommand(orderID, kernel.NewUUID(), []string{"CBC", " ", "Lipid panel"}, "fasting", placer)
	require.NoError(t, err)

	err = handler.Handle(ctx, cmd)

	require.NoError(t, err)
	require.NotNil(t, saved)
	assert.True(t, saved.ID().IsEqual(orderID))
	assert.True(t, saved.OrderedBy().IsEqual(placer.ID()))
	assert.Equal(t, now, saved.PlacedAt())
	assert.Equal(t, order.Pending, saved.Status())
	assert.Equal(t, order.ItemCounts{Total: 2, Pending: 2}, saved.ItemCounts())
	assert.Equal(t, "[2025-03-14 08:30] fasting", saved.Remarks())
	uow.AssertExpectations(t)
	orderRepo.AssertExpectations(t)
	logRepo.AssertExpectations(t)
}

func TestCreateOrderCommandHandler_Handle_Forbidden(t *testing.T) {
	factory := new(MockUoWFactory)
	handler := commands.NewCreateOrderCommandHandler(factory, clock.System{})
	cmd, err := commands.NewCreateOrderCommand(kernel.NewUUID(), kernel.NewUUID(), []string{"CBC"}, "",
		newActor(t, kernel.CapabilityManageLabResults))
	require.NoError(t, err)

	err = handler.Handle(t.Context(), cmd)

	require.ErrorIs(t, err, errs.ErrForbidden)
	factory.AssertNotCalled(t, "Create")
}

func TestCreateOrderCommandHandler_Handle_AddFails(t *testing.T) {
	ctx := t.Context()
	orderRepo := new(MockOrderRepository)
	uow := new(MockUoW)
	uow.On("Begin", ctx).Return(nil).Once()
	uow.On("OrderRepository").Return(orderRepo).Once()
	orderRepo.On("Add", ctx, mock.Anything).Return(errs.NewConflictError("duplicate order")).Once()
	uow.On("Rollback", ctx).Return(nil).Once()

	factory := new(MockUoWFactory)
	factory.On("Create").Return(uow).Once()

	handler := commands.NewCreateOrderCommandHandler(factory, clock.System{})
	cmd, err := commands.NewCreateOrderCommand(kernel.NewUUID(), kernel.NewUUID(), []string{"CBC"}, "",
		newActor(t, kernel.CapabilityPlaceOrders))
	require.NoError(t, err)

	err = handler.Handle(ctx, cmd)

	require.ErrorIs(t, err, errs.ErrConflict)
	uow.AssertNotCalled(t, "Commit", mock.Anything)
	uow.AssertExpectations(t)
}

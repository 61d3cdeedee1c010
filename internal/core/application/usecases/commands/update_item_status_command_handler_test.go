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

var itemPlacedAt = time.Date(2025, 3, 14, 9, 0, 0, 0, time.UTC)

type itemStatusFixture struct {
	orderRepo *MockOrderRepository
	logRepo   *MockAuditLogRepository
	uow       *MockUoW
	factory   *MockUoWFactory
	locker    *MockOrderLocker
}

func newItemStatusFixture() itemStatusFixture {
	f := itemStatusFixture{
		orderRepo: new(MockOrderRepository),
		logRepo:   new(MockAuditLogRepository),
		uow:       new(MockUoW),
		factory:   new(MockUoWFactory),
		locker:    new(MockOrderLocker),
	}
	f.factory.On("Create").Return(f.uow).Once()
	return f
}

func (f itemStatusFixture) handler(now time.Time) commands.UpdateItemStatusCommandHandler {
	return commands.NewUpdateItemStatusCommandHandler(f.factory, f.locker, clock.Fixed(now), nil)
}

func (f itemStatusFixture) assertExpectations(t *testing.T) {
	f.factory.AssertExpectations(t)
	f.uow.AssertExpectations(t)
	f.orderRepo.AssertExpectations(t)
	f.logRepo.AssertExpectations(t)
	f.locker.AssertExpectations(t)
}

func TestUpdateItemStatusCommandHandler_Handle_TechnicianStartsItem(t *testing.T) {
	ctx := t.Context()
	tech := newActor(t, kernel.CapabilityManageLabResults, kernel.CapabilityLabTechnician)
	now := itemPlacedAt.Add(45*time.Minute + 10*time.Second)
	o := restoreOrder(t, itemPlacedAt, order.Pending, order.ItemPending, order.ItemPending)
	item := o.Items()[0]

	f := newItemStatusFixture()
	mock.InOrder(
		f.uow.On("Begin", ctx).Return(nil).Once(),
		f.uow.On("OrderRepository").Return(f.orderRepo).Once(),
		f.orderRepo.On("GetOrderIDByItemID", ctx, item.ID()).Return(o.ID(), nil).Once(),
		f.locker.On("Lock", ctx, o.ID()).Return(nil).Once(),
		f.orderRepo.On("Get", ctx, o.ID()).Return(o, nil).Once(),
		f.orderRepo.On("Update", ctx, o).Return(nil).Once(),
		f.uow.On("AuditLogRepository").Return(f.logRepo).Once(),
		f.logRepo.On("Add", ctx, entryWith(auditlog.ActionItemStatusUpdated, tech.ID())).Return(nil).Once(),
		f.uow.On("Commit", ctx).Return(nil).Once(),
		f.uow.On("Rollback", ctx).Return(nil).Once(),
	)

	cmd, err := commands.NewUpdateItemStatusCommand(item.ID(), order.ItemInProgress, "sample received", tech)
	require.NoError(t, err)

	result, err := f.handler(now).Handle(ctx, cmd)

	require.NoError(t, err)
	assert.True(t, result.OrderID.IsEqual(o.ID()))
	assert.Equal(t, order.ItemInProgress, result.ItemStatus)
	assert.Equal(t, order.InProgress, result.OrderStatus)
	assert.Equal(t, order.InProgress, o.Status())
	require.NotNil(t, item.WaitingTime())
	assert.Equal(t, 45, *item.WaitingTime())
	assert.Equal(t, "sample received", item.Remarks())
	assert.Equal(t, 1, f.locker.released)
	f.assertExpectations(t)
}

func TestUpdateItemStatusCommandHandler_Handle_CompletionAggregatesOrder(t *testing.T) {
	ctx := t.Context()
	tech := newActor(t, kernel.CapabilityManageLabResults, kernel.CapabilityLabTechnician)
	policy := order.DefaultTransitionPolicy()
	o := restoreOrder(t, itemPlacedAt, order.Pending, order.ItemPending, order.ItemPending)
	first, second := o.Items()[0], o.Items()[1]

	require.NoError(t, o.TransitionItem(first.ID(), order.ItemInProgress, "", tech, policy, itemPlacedAt.Add(10*time.Minute)))
	require.NoError(t, o.TransitionItem(first.ID(), order.ItemCompleted, "", tech, policy, itemPlacedAt.Add(40*time.Minute)))
	require.NoError(t, o.TransitionItem(second.ID(), order.ItemInProgress, "", tech, policy, itemPlacedAt.Add(20*time.Minute)))

	f := newItemStatusFixture()
	f.uow.On("Begin", ctx).Return(nil).Once()
	f.uow.On("OrderRepository").Return(f.orderRepo).Once()
	f.orderRepo.On("GetOrderIDByItemID", ctx, second.ID()).Return(o.ID(), nil).Once()
	f.locker.On("Lock", ctx, o.ID()).Return(nil).Once()
	f.orderRepo.On("Get", ctx, o.ID()).Return(o, nil).Once()
	f.orderRepo.On("Update", ctx, o).Return(nil).Once()
	f.uow.On("AuditLogRepository").Return(f.logRepo).Once()
	f.logRepo.On("Add", ctx, mock.AnythingOfType("*auditlog.Entry")).Return(nil).Once()
	f.uow.On("Commit", ctx).Return(nil).Once()
	f.uow.On("Rollback", ctx).Return(nil).Once()

	cmd, err := commands.NewUpdateItemStatusCommand(second.ID(), order.ItemCompleted, "", tech)
	require.NoError(t, err)

	result, err := f.handler(itemPlacedAt.Add(70*time.Minute)).Handle(ctx, cmd)

	require.NoError(t, err)
	assert.Equal(t, order.Completed, result.OrderStatus)
	require.NotNil(t, second.TurnaroundTime())
	assert.Equal(t, 50, *second.TurnaroundTime())
	require.NotNil(t, o.AverageTAT())
	assert.Equal(t, "40", o.AverageTAT().String())
	f.assertExpectations(t)
}

func TestUpdateItemStatusCommandHandler_Handle_Forbidden(t *testing.T) {
	ctx := t.Context()
	factory := new(MockUoWFactory)
	locker := new(MockOrderLocker)
	handler := commands.NewUpdateItemStatusCommandHandler(factory, locker, clock.Fixed(itemPlacedAt), nil)

	cmd, err := commands.NewUpdateItemStatusCommand(kernel.NewUUID(), order.ItemCompleted, "",
		newActor(t, kernel.CapabilityLabTechnician))
	require.NoError(t, err)

	_, err = handler.Handle(ctx, cmd)

	require.ErrorIs(t, err, errs.ErrForbidden)
	factory.AssertNotCalled(t, "Create")
	locker.AssertNotCalled(t, "Lock", mock.Anything, mock.Anything)
}

func TestUpdateItemStatusCommandHandler_Handle_ItemNotFound(t *testing.T) {
	ctx := t.Context()
	itemID := kernel.NewUUID()

	f := newItemStatusFixture()
	f.uow.On("Begin", ctx).Return(nil).Once()
	f.uow.On("OrderRepository").Return(f.orderRepo).Once()
	f.orderRepo.On("GetOrderIDByItemID", ctx, itemID).
		Return(kernel.UUID{}, errs.NewObjectNotFoundError("item", itemID.String())).Once()
	f.uow.On("Rollback", ctx).Return(nil).Once()

	cmd, err := commands.NewUpdateItemStatusCommand(itemID, order.ItemCompleted, "",
		newActor(t, kernel.CapabilityManageLabResults))
	require.NoError(t, err)

	_, err = f.handler(itemPlacedAt).Handle(ctx, cmd)

	require.ErrorIs(t, err, errs.ErrObjectNotFound)
	f.uow.AssertNotCalled(t, "Commit", mock.Anything)
	f.assertExpectations(t)
}

func TestUpdateItemStatusCommandHandler_Handle_TerminalOrderConflict(t *testing.T) {
	ctx := t.Context()
	o := restoreOrder(t, itemPlacedAt, order.Completed, order.ItemCompleted)
	item := o.Items()[0]

	f := newItemStatusFixture()
	f.uow.On("Begin", ctx).Return(nil).Once()
	f.uow.On("OrderRepository").Return(f.orderRepo).Once()
	f.orderRepo.On("GetOrderIDByItemID", ctx, item.ID()).Return(o.ID(), nil).Once()
	f.locker.On("Lock", ctx, o.ID()).Return(nil).Once()
	f.orderRepo.On("Get", ctx, o.ID()).Return(o, nil).Once()
	f.uow.On("Rollback", ctx).Return(nil).Once()

	cmd, err := commands.NewUpdateItemStatusCommand(item.ID(), order.ItemPending, "",
		newActor(t, kernel.CapabilityManageLabResults))
	require.NoError(t, err)

	_, err = f.handler(itemPlacedAt).Handle(ctx, cmd)

	require.ErrorIs(t, err, errs.ErrConflict)
	assert.Equal(t, order.ItemCompleted, item.Status())
	f.orderRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	f.assertExpectations(t)
}

func TestUpdateItemStatusCommandHandler_Handle_CancelledOrderIsFinal(t *testing.T) {
	ctx := t.Context()
	o := restoreOrder(t, itemPlacedAt, order.Cancelled, order.ItemCancelled)
	item := o.Items()[0]

	f := newItemStatusFixture()
	f.uow.On("Begin", ctx).Return(nil).Once()
	f.uow.On("OrderRepository").Return(f.orderRepo).Once()
	f.orderRepo.On("GetOrderIDByItemID", ctx, item.ID()).Return(o.ID(), nil).Once()
	f.locker.On("Lock", ctx, o.ID()).Return(nil).Once()
	f.orderRepo.On("Get", ctx, o.ID()).Return(o, nil).Once()
	f.uow.On("Rollback", ctx).Return(nil).Once()

	cmd, err := commands.NewUpdateItemStatusCommand(item.ID(), order.ItemCompleted, "",
		newActor(t, kernel.CapabilityManageLabResults))
	require.NoError(t, err)

	_, err = f.handler(itemPlacedAt).Handle(ctx, cmd)

	require.ErrorIs(t, err, errs.ErrConflict)
	assert.Equal(t, order.ItemCancelled, item.Status())
	assert.Equal(t, order.Cancelled, o.Status())
	f.orderRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	f.uow.AssertNotCalled(t, "Commit", mock.Anything)
	f.assertExpectations(t)
}

func TestUpdateItemStatusCommandHandler_Handle_ZeroRowsRollsBack(t *testing.T) {
	ctx := t.Context()
	o := restoreOrder(t, itemPlacedAt, order.Pending, order.ItemPending)
	item := o.Items()[0]

	f := newItemStatusFixture()
	f.uow.On("Begin", ctx).Return(nil).Once()
	f.uow.On("OrderRepository").Return(f.orderRepo).Once()
	f.orderRepo.On("GetOrderIDByItemID", ctx, item.ID()).Return(o.ID(), nil).Once()
	f.locker.On("Lock", ctx, o.ID()).Return(nil).Once()
	f.orderRepo.On("Get", ctx, o.ID()).Return(o, nil).Once()
	f.orderRepo.On("Update", ctx, o).Return(errs.NewConflictError("item row was not updated")).Once()
	f.uow.On("Rollback", ctx).Return(nil).Once()

	cmd, err := commands.NewUpdateItemStatusCommand(item.ID(), order.ItemInProgress, "",
		newActor(t, kernel.CapabilityManageLabResults))
	require.NoError(t, err)

	_, err = f.handler(itemPlacedAt).Handle(ctx, cmd)

	require.ErrorIs(t, err, errs.ErrConflict)
	f.uow.AssertNotCalled(t, "Commit", mock.Anything)
	f.uow.AssertNotCalled(t, "AuditLogRepository")
	f.assertExpectations(t)
}

func TestUpdateItemStatusCommandHandler_Handle_LockContention(t *testing.T) {
	ctx := t.Context()
	o := restoreOrder(t, itemPlacedAt, order.Pending, order.ItemPending)
	item := o.Items()[0]

	f := newItemStatusFixture()
	f.uow.On("Begin", ctx).Return(nil).Once()
	f.uow.On("OrderRepository").Return(f.orderRepo).Once()
	f.orderRepo.On("GetOrderIDByItemID", ctx, item.ID()).Return(o.ID(), nil).Once()
	f.locker.On("Lock", ctx, o.ID()).Return(errs.NewConflictError("order is locked")).Once()
	f.uow.On("Rollback", ctx).Return(nil).Once()

	cmd, err := commands.NewUpdateItemStatusCommand(item.ID(), order.ItemInProgress, "",
		newActor(t, kernel.CapabilityManageLabResults))
	require.NoError(t, err)

	_, err = f.handler(itemPlacedAt).Handle(ctx, cmd)

	require.ErrorIs(t, err, errs.ErrConflict)
	f.orderRepo.AssertNotCalled(t, "Get", mock.Anything, mock.Anything)
	f.assertExpectations(t)
}

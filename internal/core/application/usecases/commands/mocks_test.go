package commands_test

import (
	"context"
	"testing"
	"time"

	"labtrack/internal/core/application/usecases/commands"
	"labtrack/internal/core/domain/model/auditlog"
	"labtrack/internal/core/domain/model/kernel"
	"labtrack/internal/core/domain/model/order"
	"labtrack/internal/core/ports"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockOrderRepository struct{ mock.Mock }

func (m *MockOrderRepository) Add(ctx context.Context, o *order.Order) error {
	args := m.Called(ctx, o)
	return args.Error(0)
}

func (m *MockOrderRepository) Update(ctx context.Context, o *order.Order) error {
	args := m.Called(ctx, o)
	return args.Error(0)
}

func (m *MockOrderRepository) Get(ctx context.Context, id kernel.UUID) (*order.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*order.Order), args.Error(1)
}

func (m *MockOrderRepository) GetOrderIDByItemID(ctx context.Context, itemID kernel.UUID) (kernel.UUID, error) {
	args := m.Called(ctx, itemID)
	return args.Get(0).(kernel.UUID), args.Error(1)
}

func (m *MockOrderRepository) GetAutoCancelCandidates(ctx context.Context, from, to time.Time) ([]kernel.UUID, error) {
	args := m.Called(ctx, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]kernel.UUID), args.Error(1)
}

type MockAuditLogRepository struct{ mock.Mock }

func (m *MockAuditLogRepository) Add(ctx context.Context, e *auditlog.Entry) error {
	args := m.Called(ctx, e)
	return args.Error(0)
}

func (m *MockAuditLogRepository) ListByOrder(ctx context.Context, orderID kernel.UUID) ([]*auditlog.Entry, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*auditlog.Entry), args.Error(1)
}

type MockUoW struct{ mock.Mock }

func (m *MockUoW) Begin(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockUoW) Commit(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockUoW) Rollback(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockUoW) OrderRepository() ports.OrderRepository {
	args := m.Called()
	return args.Get(0).(ports.OrderRepository)
}

func (m *MockUoW) AuditLogRepository() ports.AuditLogRepository {
	args := m.Called()
	return args.Get(0).(ports.AuditLogRepository)
}

type MockUoWFactory struct{ mock.Mock }

func (m *MockUoWFactory) Create() commands.UoW {
	args := m.Called()
	return args.Get(0).(commands.UoW)
}

type MockOrderLocker struct {
	mock.Mock
	released int
}

func (m *MockOrderLocker) Lock(ctx context.Context, orderID kernel.UUID) (ports.ReleaseFunc, error) {
	args := m.Called(ctx, orderID)
	if err := args.Error(0); err != nil {
		return nil, err
	}
	return func(context.Context) error {
		m.released++
		return nil
	}, nil
}

func newActor(t *testing.T, caps ...kernel.Capability) kernel.Actor {
	t.Helper()
	a, err := kernel.NewActor(kernel.NewUUID(), caps...)
	require.NoError(t, err)
	return a
}

func restoreOrder(
	t *testing.T,
	placedAt time.Time,
	status order.Status,
	itemStatuses ...order.ItemStatus,
) *order.Order {
	t.Helper()
	items := make([]*order.Item, 0, len(itemStatuses))
	for _, s := range itemStatuses {
		item, err := order.RestoreItem(order.ItemSnapshot{
			ID:        kernel.NewUUID(),
			TestType:  "CBC",
			Status:    s,
			CreatedAt: placedAt,
			UpdatedAt: placedAt,
		})
		require.NoError(t, err)
		items = append(items, item)
	}
	o, err := order.RestoreOrder(order.OrderSnapshot{
		ID:        kernel.NewUUID(),
		PatientID: kernel.NewUUID(),
		OrderedBy: kernel.NewUUID(),
		PlacedAt:  placedAt,
		Status:    status,
		CreatedAt: placedAt,
		UpdatedAt: placedAt,
	}, items)
	require.NoError(t, err)
	return o
}

// entryWith matches an audit log entry by action and actor.
func entryWith(action auditlog.Action, actorID kernel.UUID) any {
	return mock.MatchedBy(func(e *auditlog.Entry) bool {
		return e.Action() == action && e.ActorID().IsEqual(actorID)
	})
}

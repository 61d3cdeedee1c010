package cmd

import (
	"context"
	"fmt"
	"log/slog"

	httpadapter "labtrack/internal/adapters/in/http"
	"labtrack/internal/adapters/out/kafka"
	"labtrack/internal/adapters/out/postgres"
	"labtrack/internal/adapters/out/postgres/orderrepo"
	"labtrack/internal/adapters/out/redislock"
	"labtrack/internal/core/application/usecases/commands"
	"labtrack/internal/core/application/usecases/queries"
	"labtrack/internal/core/domain/model/order"
	"labtrack/internal/core/ports"
	"labtrack/internal/jobs"
	"labtrack/internal/pkg/clock"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"
)

type CompositionRoot struct {
	cfg        Config
	gormDB     *gorm.DB
	schema     orderrepo.Schema
	clock      clock.Clock
	locker     ports.OrderLocker
	publisher  ports.EventPublisher
	uowFactory *postgres.GormUnitOfWorkFactory
	logger     *slog.Logger
	closers    []func() error
}

// NewCompositionRoot wires the adapters. Redis and Kafka are optional: without
// REDIS_URL orders are serialized by row locks only, and without KAFKA_HOST
// status changes are written to the log.
func NewCompositionRoot(ctx context.Context, cfg Config, gormDB *gorm.DB, logger *slog.Logger) (*CompositionRoot, error) {
	c := &CompositionRoot{
		cfg:    cfg,
		gormDB: gormDB,
		schema: orderrepo.InspectSchema(gormDB),
		clock:  clock.System{},
		logger: logger,
	}

	if cfg.RedisURL != "" {
		client, err := redislock.NewClient(ctx, cfg.RedisURL)
		if err != nil {
			return nil, err
		}
		c.closers = append(c.closers, client.Close)
		c.locker = redislock.NewLocker(client, cfg.OrderLockTTL)
	} else {
		logger.WarnContext(ctx, "REDIS_URL is not set, distributed order locks are disabled")
		c.locker = redislock.NoopLocker{}
	}

	if brokers := cfg.KafkaBrokers(); len(brokers) > 0 {
		producer, err := kafka.NewProducer(brokers)
		if err != nil {
			_ = c.Close()
			return nil, err
		}
		publisher := kafka.NewOrderStatusPublisher(producer, cfg.KafkaOrderChangedTopic, logger)
		c.closers = append(c.closers, publisher.Close)
		c.publisher = publisher
	} else {
		c.publisher = kafka.NewLogPublisher(logger)
	}

	if !c.schema.AverageTAT {
		logger.WarnContext(ctx, "orders.average_tat column is missing, average turnaround will not be stored")
	}

	c.uowFactory = postgres.NewGormUnitOfWorkFactory(gormDB, c.schema, c.publisher, logger)
	return c, nil
}

// Close releases the Redis client and the Kafka producer.
func (c *CompositionRoot) Close() error {
	var firstErr error
	for i := len(c.closers) - 1; i >= 0; i-- {
		if err := c.closers[i](); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	c.closers = nil
	return firstErr
}

func (c *CompositionRoot) unitOfWorkFactory() commands.UoWFactory {
	return FuncUoWFactory(func() commands.UoW {
		return c.uowFactory.Create()
	})
}

func (c *CompositionRoot) CreateCreateOrderCommandHandler() commands.CreateOrderCommandHandler {
	return commands.NewCreateOrderCommandHandler(c.unitOfWorkFactory(), c.clock)
}

func (c *CompositionRoot) CreateUpdateItemStatusCommandHandler() commands.UpdateItemStatusCommandHandler {
	return commands.NewUpdateItemStatusCommandHandler(c.unitOfWorkFactory(), c.locker, c.clock, order.DefaultTransitionPolicy())
}

func (c *CompositionRoot) CreateUpdateOrderStatusCommandHandler() commands.UpdateOrderStatusCommandHandler {
	return commands.NewUpdateOrderStatusCommandHandler(c.unitOfWorkFactory(), c.locker, c.clock)
}

func (c *CompositionRoot) CreateCancelOrderCommandHandler() commands.CancelOrderCommandHandler {
	return commands.NewCancelOrderCommandHandler(c.unitOfWorkFactory(), c.locker, c.clock)
}

func (c *CompositionRoot) CreateAutoCancelOrdersCommandHandler() (commands.AutoCancelOrdersCommandHandler, error) {
	settings, err := c.autoCancelSettings()
	if err != nil {
		return commands.AutoCancelOrdersCommandHandler{}, err
	}
	return commands.NewAutoCancelOrdersCommandHandler(c.unitOfWorkFactory(), c.locker, c.clock, settings, c.logger), nil
}

func (c *CompositionRoot) CreateGetOrderQueryHandler() queries.GetOrderQueryHandler {
	return queries.NewGetOrderQueryHandler(c.gormDB, c.schema.AverageTAT)
}

func (c *CompositionRoot) CreateGetOrderLogsQueryHandler() queries.GetOrderLogsQueryHandler {
	return queries.NewGetOrderLogsQueryHandler(c.gormDB)
}

func (c *CompositionRoot) CreateJobManager() (*jobs.JobManager, error) {
	handler, err := c.CreateAutoCancelOrdersCommandHandler()
	if err != nil {
		return nil, err
	}
	location, err := c.cfg.Location()
	if err != nil {
		return nil, err
	}
	return jobs.NewJobManager(handler, jobs.Config{
		AutoCancelSchedule: c.cfg.AutoCancelSchedule,
		Location:           location,
	}, c.logger), nil
}

func (c *CompositionRoot) CreateRouter(ctx context.Context) (*echo.Echo, error) {
	autoCancel, err := c.CreateAutoCancelOrdersCommandHandler()
	if err != nil {
		return nil, err
	}

	server := httpadapter.NewServer(httpadapter.Handlers{
		CreateOrder:       c.CreateCreateOrderCommandHandler(),
		UpdateItemStatus:  c.CreateUpdateItemStatusCommandHandler(),
		UpdateOrderStatus: c.CreateUpdateOrderStatusCommandHandler(),
		CancelOrder:       c.CreateCancelOrderCommandHandler(),
		AutoCancelOrders:  autoCancel,
		GetOrder:          c.CreateGetOrderQueryHandler(),
		GetOrderLogs:      c.CreateGetOrderLogsQueryHandler(),
	})

	return httpadapter.NewRouter(ctx, server, httpadapter.RouterConfig{
		JWT:    c.JWTConfig(),
		Logger: c.logger,
	})
}

func (c *CompositionRoot) JWTConfig() httpadapter.JWTConfig {
	return httpadapter.JWTConfig{
		SigningKey: []byte(c.cfg.JWTSigningKey),
		Issuer:     c.cfg.JWTIssuer,
	}
}

func (c *CompositionRoot) autoCancelSettings() (commands.AutoCancelSettings, error) {
	cutoff, err := c.cfg.Cutoff()
	if err != nil {
		return commands.AutoCancelSettings{}, fmt.Errorf("auto-cancel cutoff: %w", err)
	}
	location, err := c.cfg.Location()
	if err != nil {
		return commands.AutoCancelSettings{}, fmt.Errorf("timezone: %w", err)
	}
	return commands.AutoCancelSettings{Cutoff: cutoff, Location: location}, nil
}

type FuncUoWFactory func() commands.UoW

func (f FuncUoWFactory) Create() commands.UoW {
	return f()
}

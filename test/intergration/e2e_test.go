package intergration

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/require"

	engineapp "github.com/dmehra2102/Order-Lifecycle-System/internal/engine/application"
	enginekafka "github.com/dmehra2102/Order-Lifecycle-System/internal/engine/infrastructure/kafka"
	enginedb "github.com/dmehra2102/Order-Lifecycle-System/internal/engine/infrastructure/postgres"
	intakeapp "github.com/dmehra2102/Order-Lifecycle-System/internal/intake/application"
	intakekafka "github.com/dmehra2102/Order-Lifecycle-System/internal/intake/infrastructure/kafka"
	"github.com/dmehra2102/Order-Lifecycle-System/internal/lifecycle"
	"github.com/dmehra2102/Order-Lifecycle-System/pkg/idempotency"
)

const busName = "order.lifecycle"

func TestLifecycleEndToEnd(t *testing.T) {
	if testing.Short() {
		t.Skip("requires docker")
	}

	ctx := context.Background()
	log := slog.New(slog.DiscardHandler)

	env, err := Setup(ctx)
	require.NoError(t, err)
	defer env.Teardown(context.Background())

	pool, err := pgxpool.New(ctx, env.PGURL)
	require.NoError(t, err)
	defer pool.Close()

	orders := enginedb.NewOrderStore(log, pool, "orders")
	inventory := enginedb.NewInventoryStore(log, pool, "inventory")
	journal := enginedb.NewShortfallJournal(log, pool)
	require.NoError(t, orders.EnsureSchema(ctx))
	require.NoError(t, inventory.EnsureSchema(ctx))
	require.NoError(t, journal.EnsureSchema(ctx))
	require.NoError(t, inventory.Provision(ctx, "P1", 5))

	opts, err := goredis.ParseURL(env.RedisAddr)
	require.NoError(t, err)
	rdb := goredis.NewClient(opts)
	defer rdb.Close()
	processed := idempotency.NewStore(rdb, time.Hour)

	createTopic(t, env.KAddr, busName)

	engine := engineapp.NewEngine(log, orders, inventory, processed, journal)
	consumer := enginekafka.NewConsumer(log, env.KAddr, busName, "e2e", engine, nil)

	runCtx, stop := context.WithCancel(ctx)
	defer stop()
	go func() { _ = consumer.Run(runCtx) }()

	publisher := intakekafka.NewPublisher(log, env.KAddr, busName)
	defer publisher.Close()
	intake := intakeapp.NewService(log, publisher)

	// Placed: order recorded, P1 5 -> 3.
	_, err = intake.Accept(ctx, []byte(`{"detailType":"OrderPlaced","orderId":"O1","items":[{"productId":"P1","quantity":2}]}`))
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		qty, err := inventory.Quantity(ctx, "P1")
		if err != nil || qty != 3 {
			return false
		}
		o, err := orders.Get(ctx, "O1")
		return err == nil && o.Status == lifecycle.StatusPlaced
	}, time.Minute, 200*time.Millisecond, "placed event must decrement P1 and store the order")

	// Canceled: status flips, P1 3 -> 5.
	_, err = intake.Accept(ctx, []byte(`{"detailType":"OrderCanceled","orderId":"O1","items":[{"productId":"P1","quantity":2}]}`))
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		qty, err := inventory.Quantity(ctx, "P1")
		if err != nil || qty != 5 {
			return false
		}
		o, err := orders.Get(ctx, "O1")
		return err == nil && o.Status == lifecycle.StatusCanceled
	}, time.Minute, 200*time.Millisecond, "canceled event must restore P1 and flip the status")
}

func TestConditionalDecrement(t *testing.T) {
	if testing.Short() {
		t.Skip("requires docker")
	}

	ctx := context.Background()
	log := slog.New(slog.DiscardHandler)

	env, err := Setup(ctx)
	require.NoError(t, err)
	defer env.Teardown(context.Background())

	pool, err := pgxpool.New(ctx, env.PGURL)
	require.NoError(t, err)
	defer pool.Close()

	inventory := enginedb.NewInventoryStore(log, pool, "inventory")
	require.NoError(t, inventory.EnsureSchema(ctx))
	require.NoError(t, inventory.Provision(ctx, "P1", 3))

	require.NoError(t, inventory.Decrement(ctx, "P1", 3))

	err = inventory.Decrement(ctx, "P1", 1)
	var insufficient *lifecycle.InsufficientInventoryError
	require.ErrorAs(t, err, &insufficient)
	require.Equal(t, "P1", insufficient.ProductID)

	qty, err := inventory.Quantity(ctx, "P1")
	require.NoError(t, err)
	require.Zero(t, qty, "failed precondition must not change the quantity")
}

func createTopic(t *testing.T, brokers []string, topic string) {
	t.Helper()
	client := &kafka.Client{Addr: kafka.TCP(brokers...)}
	_, err := client.CreateTopics(context.Background(), &kafka.CreateTopicsRequest{
		Topics: []kafka.TopicConfig{{Topic: topic, NumPartitions: 1, ReplicationFactor: 1}},
	})
	if err != nil {
		t.Logf("create topic %s: %v", topic, err)
	}
	// Give the broker a moment to settle metadata.
	time.Sleep(time.Second)
}

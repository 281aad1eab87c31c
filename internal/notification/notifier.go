package notification

import (
	"bytes"
	"context"
	"database/sql"
	"embed"
	"fmt"
	"sync"
	"text/template"
	"time"

	"go.uber.org/zap"

	"stockcart/internal/domain"
	"stockcart/internal/infrastructure/metrics"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

var lowStockTemplate = template.Must(template.ParseFS(templateFS, "templates/low_stock.tmpl"))

type ProductReader interface {
	FindByID(ctx context.Context, tx *sql.Tx, id int64) (*domain.Product, error)
}

type AvailabilityCalculator interface {
	AvailableQuantity(ctx context.Context, tx *sql.Tx, productID int64) (int, error)
}

// LowStockPayload is the content of a low-stock alert.
type LowStockPayload struct {
	ProductName       string
	AvailableQuantity int
	MinStockQuantity  int
	Unit              string
}

type Options struct {
	AdminEmail  string
	DebounceTTL time.Duration
	Workers     int
	QueueSize   int
}

// LowStockNotifier alerts the administrator when a product's availability
// drops to its minimum, at most once per debounce window. Checks are queued
// per product shard so two checks of the same product never run at once.
type LowStockNotifier struct {
	products ProductReader
	stock    AvailabilityCalculator
	cache    DebounceCache
	mailer   Mailer
	metrics  *metrics.Metrics
	logger   *zap.Logger
	opts     Options
	queues   []chan int64
}

func NewLowStockNotifier(
	products ProductReader,
	stock AvailabilityCalculator,
	cache DebounceCache,
	mailer Mailer,
	m *metrics.Metrics,
	logger *zap.Logger,
	opts Options,
) *LowStockNotifier {
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	if opts.QueueSize < 1 {
		opts.QueueSize = 1
	}

	queues := make([]chan int64, opts.Workers)
	for i := range queues {
		queues[i] = make(chan int64, opts.QueueSize)
	}

	return &LowStockNotifier{
		products: products,
		stock:    stock,
		cache:    cache,
		mailer:   mailer,
		metrics:  m,
		logger:   logger,
		opts:     opts,
		queues:   queues,
	}
}

// Enqueue schedules a check without blocking. A full shard drops the check.
func (n *LowStockNotifier) Enqueue(productID int64) {
	shard := n.queues[shardFor(productID, len(n.queues))]
	select {
	case shard <- productID:
	default:
		n.metrics.LowStockChecks.WithLabelValues(metrics.OutcomeDropped).Inc()
		n.logger.Warn("low-stock queue full, dropping check", zap.Int64("productId", productID))
	}
}

// Run processes queued checks until ctx is cancelled.
func (n *LowStockNotifier) Run(ctx context.Context) {
	var wg sync.WaitGroup
	for i, q := range n.queues {
		wg.Add(1)
		go func(worker int, q <-chan int64) {
			defer wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case productID := <-q:
					if err := n.Check(ctx, productID); err != nil {
						n.logger.Error("low-stock check failed",
							zap.Int("worker", worker),
							zap.Int64("productId", productID),
							zap.Error(err),
						)
					}
				}
			}
		}(i, q)
	}
	wg.Wait()
}

// Check reloads the product and sends the alert when availability is at or
// below the minimum and no alert was sent within the debounce window. The
// debounce key is claimed before sending and released if delivery fails, so
// instances sharing the cache send at most one alert per window.
func (n *LowStockNotifier) Check(ctx context.Context, productID int64) error {
	product, err := n.products.FindByID(ctx, nil, productID)
	if err != nil {
		n.metrics.LowStockChecks.WithLabelValues(metrics.OutcomeFailed).Inc()
		return fmt.Errorf("loading product %d: %w", productID, err)
	}

	available, err := n.stock.AvailableQuantity(ctx, nil, productID)
	if err != nil {
		n.metrics.LowStockChecks.WithLabelValues(metrics.OutcomeFailed).Inc()
		return fmt.Errorf("computing availability of product %d: %w", productID, err)
	}

	if !product.IsLowStock(available) {
		n.metrics.LowStockChecks.WithLabelValues(metrics.OutcomeSkipped).Inc()
		return nil
	}

	key := LowStockKey(productID)
	claimed, err := n.cache.Claim(ctx, key, n.opts.DebounceTTL)
	if err != nil {
		n.metrics.LowStockChecks.WithLabelValues(metrics.OutcomeFailed).Inc()
		return err
	}
	if !claimed {
		n.metrics.LowStockChecks.WithLabelValues(metrics.OutcomeSkipped).Inc()
		n.logger.Debug("low-stock alert debounced", zap.Int64("productId", productID))
		return nil
	}

	msg, err := renderLowStock(n.opts.AdminEmail, LowStockPayload{
		ProductName:       product.Name,
		AvailableQuantity: available,
		MinStockQuantity:  product.MinStockQuantity,
		Unit:              product.Unit,
	})
	if err == nil {
		err = n.mailer.Send(ctx, msg)
	}
	if err != nil {
		n.metrics.LowStockChecks.WithLabelValues(metrics.OutcomeFailed).Inc()
		if rerr := n.cache.Release(context.WithoutCancel(ctx), key); rerr != nil {
			n.logger.Warn("failed to release debounce key", zap.String("key", key), zap.Error(rerr))
		}
		return err
	}

	n.metrics.LowStockChecks.WithLabelValues(metrics.OutcomeSuccess).Inc()
	n.logger.Info("low-stock alert sent",
		zap.Int64("productId", productID),
		zap.Int("availableQuantity", available),
		zap.Int("minStockQuantity", product.MinStockQuantity),
	)
	return nil
}

func renderLowStock(to string, p LowStockPayload) (Message, error) {
	var body bytes.Buffer
	if err := lowStockTemplate.Execute(&body, p); err != nil {
		return Message{}, fmt.Errorf("rendering low-stock mail: %w", err)
	}
	return Message{
		To:      to,
		Subject: "Low Stock Alert: " + p.ProductName,
		Body:    body.String(),
	}, nil
}

func shardFor(productID int64, shards int) int {
	s := productID % int64(shards)
	if s < 0 {
		s = -s
	}
	return int(s)
}

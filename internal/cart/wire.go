package cart

import (
	"database/sql"

	"go.uber.org/zap"

	"stockcart/internal/cart/controller"
	"stockcart/internal/cart/repository"
	"stockcart/internal/cart/service"
	"stockcart/internal/cart/usecase"
	"stockcart/internal/config"
	"stockcart/internal/infrastructure/metrics"
	"stockcart/internal/infrastructure/mysql"
	"stockcart/internal/validation"
)

func NewModule(
	db *sql.DB,
	cfg config.CartConfig,
	txm *mysql.TxManager,
	products service.ProductLocker,
	stock service.AvailabilityCalculator,
	notifier usecase.LowStockNotifier,
	m *metrics.Metrics,
	validator *validation.Validator,
	logger *zap.Logger,
) *controller.CartController {
	reservationSvc := service.NewReservationService(
		txm,
		products,
		stock,
		repository.NewMySQLCartRepository(db),
		repository.NewMySQLCartLineRepository(db),
		logger,
	)

	uc := usecase.NewCartUseCase(reservationSvc, notifier, m, logger, cfg.MaxRetryAttempts)
	return controller.NewCartController(uc, validator, logger)
}

package product

import (
	"database/sql"

	"go.uber.org/zap"

	"stockcart/internal/infrastructure/mysql"
	inventoryrepo "stockcart/internal/inventory/repository"
	inventoryservice "stockcart/internal/inventory/service"
	"stockcart/internal/product/controller"
	"stockcart/internal/product/repository"
	"stockcart/internal/product/service"
	"stockcart/internal/validation"
)

// Module exposes the product catalog and the stock ledger to the other modules.
type Module struct {
	Controller *controller.Controller
	Products   *repository.MySQLRepository
	Catalog    *service.ProductService
	Stock      *inventoryservice.StockService
}

func NewModule(db *sql.DB, txm *mysql.TxManager, validator *validation.Validator, logger *zap.Logger) *Module {
	productRepo := repository.NewMySQLRepository(db)
	stockRepo := inventoryrepo.NewMySQLStockRepository(db)

	stockSvc := inventoryservice.NewStockService(txm, stockRepo, productRepo, logger)
	catalog := service.NewService(productRepo, stockSvc, logger)

	return &Module{
		Controller: controller.NewController(catalog, stockSvc, validator, logger),
		Products:   productRepo,
		Catalog:    catalog,
		Stock:      stockSvc,
	}
}

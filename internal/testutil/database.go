package testutil

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"testing"
	"time"

	_ "github.com/go-sql-driver/mysql"

	"stockcart/internal/domain"
	"stockcart/internal/infrastructure/mysql"
)

const defaultTestDSN = "root:@tcp(localhost:3306)/stockcart_test?parseTime=true&clientFoundRows=true"

// SetupTestDB opens the MySQL test database named by TEST_DB_DSN and skips the
// test when it is not reachable.
func SetupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	dsn := os.Getenv("TEST_DB_DSN")
	if dsn == "" {
		dsn = defaultTestDSN
	}

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		t.Skipf("test database not available: %v", err)
	}

	return db
}

// SetupTestTables applies the embedded migrations.
func SetupTestTables(t *testing.T, db *sql.DB) {
	t.Helper()

	if err := mysql.Migrate(context.Background(), db); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}
}

// CleanupTestDB empties every table and closes the connection.
func CleanupTestDB(t *testing.T, db *sql.DB) {
	t.Helper()

	if db == nil {
		return
	}

	tables := []string{"shoppingCartProducts", "shoppingCarts", "productInputs", "products"}
	for _, table := range tables {
		if _, err := db.Exec(fmt.Sprintf("DELETE FROM %s", table)); err != nil {
			t.Logf("failed to clean table %s: %v", table, err)
		}
	}

	db.Close()
}

// InsertProduct creates a product and returns its id.
func InsertProduct(t *testing.T, db *sql.DB, name, price, unit string, minStock int) int64 {
	t.Helper()

	result, err := db.Exec(
		`INSERT INTO products (name, price, unit, minStockQuantity) VALUES (?, ?, ?, ?)`,
		name, price, unit, minStock,
	)
	if err != nil {
		t.Fatalf("failed to insert product: %v", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		t.Fatalf("failed to read product id: %v", err)
	}
	return id
}

// InsertReceipt appends a stock receipt for productID.
func InsertReceipt(t *testing.T, db *sql.DB, productID int64, quantity int) {
	t.Helper()

	if _, err := db.Exec(
		`INSERT INTO productInputs (productId, addedQuantity) VALUES (?, ?)`,
		productID, quantity,
	); err != nil {
		t.Fatalf("failed to insert receipt: %v", err)
	}
}

// InsertCart creates a cart for userID in the given state and returns its id.
func InsertCart(t *testing.T, db *sql.DB, userID int64, state domain.CartState) int64 {
	t.Helper()

	result, err := db.Exec(
		`INSERT INTO shoppingCarts (userId, state, updatedAt) VALUES (?, ?, ?)`,
		userID, string(state), time.Now().UTC(),
	)
	if err != nil {
		t.Fatalf("failed to insert cart: %v", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		t.Fatalf("failed to read cart id: %v", err)
	}
	return id
}

// InsertCartLine reserves quantity units of productID in cartID.
func InsertCartLine(t *testing.T, db *sql.DB, cartID, userID, productID int64, quantity int) int64 {
	t.Helper()

	result, err := db.Exec(
		`INSERT INTO shoppingCartProducts (shoppingCartId, userId, productId, quantity) VALUES (?, ?, ?, ?)`,
		cartID, userID, productID, quantity,
	)
	if err != nil {
		t.Fatalf("failed to insert cart line: %v", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		t.Fatalf("failed to read cart line id: %v", err)
	}
	return id
}

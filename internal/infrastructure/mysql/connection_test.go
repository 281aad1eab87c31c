package mysql

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"stockcart/internal/config"
)

func TestDSN(t *testing.T) {
	dsn := DSN(config.DatabaseConfig{
		Host:            "db.internal",
		Port:            3307,
		User:            "cart",
		Password:        "pw",
		Name:            "stockcart",
		ConnMaxLifetime: time.Minute,
	})

	assert.Contains(t, dsn, "cart:pw@tcp(db.internal:3307)/stockcart")
	assert.Contains(t, dsn, "parseTime=true")
	assert.Contains(t, dsn, "clientFoundRows=true")
}

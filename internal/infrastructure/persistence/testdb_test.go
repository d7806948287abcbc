package persistence

import (
	"database/sql"
	"fmt"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/shopcart/backend/internal/domain/catalog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// schemaDDL mirrors migrations/20250101000000_create_shop_schema.up.sql in sqlite syntax
var schemaDDL = []string{
	`CREATE TABLE products (
		id TEXT PRIMARY KEY,
		external_ref VARCHAR(100) UNIQUE,
		title VARCHAR(200) NOT NULL,
		price DECIMAL(12,2) NOT NULL,
		rating DECIMAL(3,2),
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	)`,
	`CREATE TABLE orders (
		id TEXT PRIMARY KEY,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	)`,
	`CREATE TABLE order_products (
		order_id TEXT NOT NULL REFERENCES orders(id) ON DELETE CASCADE,
		product_id TEXT NOT NULL REFERENCES products(id) ON DELETE RESTRICT,
		quantity INTEGER NOT NULL CHECK (quantity >= 1),
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL,
		PRIMARY KEY (order_id, product_id)
	)`,
}

// newSQLiteTestDB opens a private in-memory sqlite database with foreign keys enforced
func newSQLiteTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=on", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	for _, stmt := range schemaDDL {
		require.NoError(t, db.Exec(stmt).Error)
	}
	return db
}

// newMockGormDB opens gorm on a sqlmock connection with the postgres dialector
func newMockGormDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()

	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	dialector := postgres.New(postgres.Config{
		Conn:       mockDB,
		DriverName: "postgres",
	})

	gormDB, err := gorm.Open(dialector, &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	return gormDB, mock, mockDB
}

func seedProduct(t *testing.T, repo *GormProductRepository, ref, title, price string) *catalog.Product {
	t.Helper()

	var (
		p   *catalog.Product
		err error
	)
	if ref == "" {
		p, err = catalog.NewProduct(title, decimal.RequireFromString(price))
	} else {
		p, err = catalog.NewProductFromExternal(ref, title, decimal.RequireFromString(price))
	}
	require.NoError(t, err)
	require.NoError(t, repo.Save(t.Context(), p))
	return p
}

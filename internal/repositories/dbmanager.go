package repositories

import (
	"context"
	"fmt"
	"sync"

	"gamepay/internal/config"
	"gamepay/internal/models"
	"gamepay/internal/services/ledger"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// OperatorSource is the configuration reader the manager resolves operators
// through.
type OperatorSource interface {
	Operator(ctx context.Context, code string) (*models.Operator, error)
}

// DbManager routes operator codes to that operator's stores. Ledger
// connections are opened lazily, pooled per operator and never shared across
// operators; each tenant's data lives in an isolated database.
type DbManager struct {
	configs OperatorSource
	pool    config.PoolConfig
	log     logrus.FieldLogger

	mu      sync.Mutex
	ledgers map[string]*gorm.DB
	docs    map[string]*redis.Client

	// overridable in tests
	openLedger func(desc *models.PostgresDescriptor, pool config.PoolConfig) (*gorm.DB, error)
	openDoc    func(desc *models.DocStoreDescriptor) *redis.Client
}

func NewDbManager(configs OperatorSource, pool config.PoolConfig, log logrus.FieldLogger) *DbManager {
	return &DbManager{
		configs:    configs,
		pool:       pool,
		log:        log,
		ledgers:    make(map[string]*gorm.DB),
		docs:       make(map[string]*redis.Client),
		openLedger: openPostgres,
		openDoc:    openDocStore,
	}
}

// LedgerDB returns the pooled connection to the operator's ledger database,
// establishing it on first use. A failed first attempt is retried exactly
// once before the error surfaces.
func (m *DbManager) LedgerDB(ctx context.Context, operatorCode string) (*gorm.DB, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if db, ok := m.ledgers[operatorCode]; ok {
		return db, nil
	}

	op, err := m.configs.Operator(ctx, operatorCode)
	if err != nil {
		return nil, &ledger.Error{Code: ledger.CodeTenantNotConfigured, Op: "resolve", Err: err}
	}
	desc := op.DB.Postgres
	if desc == nil {
		return nil, &ledger.Error{Code: ledger.CodeTenantNotConfigured, Op: "resolve",
			Err: fmt.Errorf("operator %s has no ledger descriptor", operatorCode)}
	}

	db, err := m.openLedger(desc, m.pool)
	if err != nil {
		m.log.WithFields(logrus.Fields{"operator": operatorCode, "err": err}).
			Warn("ledger connect failed, retrying once")
		db, err = m.openLedger(desc, m.pool)
	}
	if err != nil {
		return nil, &ledger.Error{Code: ledger.CodeTenantConnection, Op: "connect", Err: err}
	}

	m.ledgers[operatorCode] = db
	m.log.WithField("operator", operatorCode).Info("ledger connection established")
	return db, nil
}

// LedgerStore wraps the operator's ledger connection in the store the engine
// mutates through.
func (m *DbManager) LedgerStore(ctx context.Context, operatorCode string) (ledger.Store, error) {
	db, err := m.LedgerDB(ctx, operatorCode)
	if err != nil {
		return nil, err
	}
	return NewWalletStore(db), nil
}

// DocStore returns the operator's document-store handle, used for
// read-mostly configuration rather than ledger mutation.
func (m *DbManager) DocStore(ctx context.Context, operatorCode string) (*redis.Client, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if c, ok := m.docs[operatorCode]; ok {
		return c, nil
	}

	op, err := m.configs.Operator(ctx, operatorCode)
	if err != nil {
		return nil, &ledger.Error{Code: ledger.CodeTenantNotConfigured, Op: "resolve", Err: err}
	}
	desc := op.DB.DocStore
	if desc == nil {
		return nil, &ledger.Error{Code: ledger.CodeTenantNotConfigured, Op: "resolve",
			Err: fmt.Errorf("operator %s has no document store descriptor", operatorCode)}
	}

	c := m.openDoc(desc)
	m.docs[operatorCode] = c
	return c, nil
}

// Close releases every tenant handle. Called on shutdown only.
func (m *DbManager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var first error
	for code, db := range m.ledgers {
		if sqlDB, err := db.DB(); err == nil {
			if err := sqlDB.Close(); err != nil && first == nil {
				first = err
			}
		}
		delete(m.ledgers, code)
	}
	for code, c := range m.docs {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
		delete(m.docs, code)
	}
	return first
}

// openPostgres dials one tenant database, sizes its pool from configuration
// and provisions the ledger schema on first contact.
func openPostgres(desc *models.PostgresDescriptor, pool config.PoolConfig) (*gorm.DB, error) {
	sslMode := desc.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		desc.Host, desc.Port, desc.User, desc.Password, desc.DBName, sslMode)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(pool.MaxActive)
	sqlDB.SetMaxIdleConns(pool.MinActive)
	sqlDB.SetConnMaxIdleTime(pool.MaxIdleTime)

	pingCtx, cancel := context.WithTimeout(context.Background(), pool.MaxWaitTime)
	defer cancel()
	if err := sqlDB.PingContext(pingCtx); err != nil {
		return nil, err
	}

	if err := db.AutoMigrate(&models.MemberWallet{}, &models.Transaction{}); err != nil {
		return nil, err
	}
	return db, nil
}

func openDocStore(desc *models.DocStoreDescriptor) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     desc.Addr,
		Password: desc.Password,
		DB:       desc.DB,
	})
}

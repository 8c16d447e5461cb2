// Package cache is the configuration cache for operator and vendor metadata.
// Reads are snapshots with a TTL; administrative writes elsewhere in the
// platform invalidate entries through the explicit flush hooks. The ledger
// engine itself never invalidates.
package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gamepay/internal/models"
)

var (
	ErrOperatorNotFound = errors.New("operator not found")
	ErrVendorNotFound   = errors.New("vendor not found")
)

// Store is the underlying key/value cache.
type Store interface {
	Get(ctx context.Context, key string, dest interface{}) (bool, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

// Loader reads authoritative records on a cache miss.
type Loader interface {
	OperatorByCode(ctx context.Context, code string) (*models.Operator, error)
	OperatorByToken(ctx context.Context, token string) (*models.Operator, error)
	VendorByCode(ctx context.Context, code string) (*models.Vendor, error)
}

// CacheService serves typed operator and vendor snapshots.
type CacheService struct {
	store  Store
	loader Loader
	ttl    time.Duration
}

func NewCacheService(store Store, loader Loader, ttl time.Duration) *CacheService {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &CacheService{store: store, loader: loader, ttl: ttl}
}

func operatorKey(code string) string { return fmt.Sprintf("op:code:%s", code) }
func opTokenKey(token string) string { return fmt.Sprintf("op:token:%s", token) }
func vendorKey(code string) string   { return fmt.Sprintf("vendor:code:%s", code) }

// Operator returns the operator config for code, falling back to the
// authoritative store and repopulating the cache on a miss.
func (s *CacheService) Operator(ctx context.Context, code string) (*models.Operator, error) {
	var op models.Operator
	found, err := s.store.Get(ctx, operatorKey(code), &op)
	if err == nil && found {
		return &op, nil
	}

	loaded, err := s.loader.OperatorByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	s.cacheOperator(ctx, loaded)
	return loaded, nil
}

// OperatorByToken resolves an operator by its API token.
func (s *CacheService) OperatorByToken(ctx context.Context, token string) (*models.Operator, error) {
	var op models.Operator
	found, err := s.store.Get(ctx, opTokenKey(token), &op)
	if err == nil && found {
		return &op, nil
	}

	loaded, err := s.loader.OperatorByToken(ctx, token)
	if err != nil {
		return nil, err
	}
	s.cacheOperator(ctx, loaded)
	return loaded, nil
}

// Vendor returns the vendor record for code.
func (s *CacheService) Vendor(ctx context.Context, code string) (*models.Vendor, error) {
	var v models.Vendor
	found, err := s.store.Get(ctx, vendorKey(code), &v)
	if err == nil && found {
		return &v, nil
	}

	loaded, err := s.loader.VendorByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	// best effort; a failed write just means the next read loads again
	_ = s.store.Set(ctx, vendorKey(code), loaded, s.ttl)
	return loaded, nil
}

func (s *CacheService) cacheOperator(ctx context.Context, op *models.Operator) {
	_ = s.store.Set(ctx, operatorKey(op.Code), op, s.ttl)
	if op.APIToken != "" {
		_ = s.store.Set(ctx, opTokenKey(op.APIToken), op, s.ttl)
	}
}

// FlushOperator invalidates an operator's cached snapshot. Called by
// administrative tooling after a write.
func (s *CacheService) FlushOperator(ctx context.Context, code string) error {
	op, err := s.Operator(ctx, code)
	keys := []string{operatorKey(code)}
	if err == nil && op.APIToken != "" {
		keys = append(keys, opTokenKey(op.APIToken))
	}
	return s.store.Delete(ctx, keys...)
}

// FlushVendor invalidates a vendor's cached snapshot.
func (s *CacheService) FlushVendor(ctx context.Context, code string) error {
	return s.store.Delete(ctx, vendorKey(code))
}

// FlushOperatorVendor invalidates the (operator, vendor) pair after a
// per-vendor enablement or rate change.
func (s *CacheService) FlushOperatorVendor(ctx context.Context, opCode, vendorCode string) error {
	if err := s.FlushOperator(ctx, opCode); err != nil {
		return err
	}
	return s.FlushVendor(ctx, vendorCode)
}

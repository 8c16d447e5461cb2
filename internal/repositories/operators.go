package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gamepay/internal/models"
	"gamepay/internal/repositories/cache"

	"gorm.io/gorm"
)

// OperatorDocument is the stored form of an operator: a thin row with the
// lookup keys plus the full configuration document as jsonb. Administrative
// tooling writes the document; this repository only reads it.
type OperatorDocument struct {
	ID        uint        `gorm:"primarykey"`
	Code      string      `gorm:"column:code;uniqueIndex;not null"`
	APIToken  string      `gorm:"column:api_token;index"`
	Document  models.JSON `gorm:"column:document;type:jsonb;not null"`
	UpdatedAt time.Time
}

func (OperatorDocument) TableName() string { return "operators" }

// VendorDocument is the stored form of a vendor record.
type VendorDocument struct {
	ID        uint        `gorm:"primarykey"`
	Code      string      `gorm:"column:code;uniqueIndex;not null"`
	Document  models.JSON `gorm:"column:document;type:jsonb;not null"`
	UpdatedAt time.Time
}

func (VendorDocument) TableName() string { return "vendors" }

// OperatorRepository reads authoritative operator and vendor records from the
// platform database. It backs the configuration cache on a miss; documents
// are decoded into typed structs here and nowhere else.
type OperatorRepository struct {
	db *gorm.DB
}

func NewOperatorRepository(db *gorm.DB) *OperatorRepository {
	return &OperatorRepository{db: db}
}

// OperatorByCode resolves an operator by its code, case-insensitively.
func (r *OperatorRepository) OperatorByCode(ctx context.Context, code string) (*models.Operator, error) {
	var doc OperatorDocument
	err := r.db.WithContext(ctx).Where("lower(code) = lower(?)", code).First(&doc).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, cache.ErrOperatorNotFound
		}
		return nil, fmt.Errorf("read operator %s: %w", code, err)
	}
	return decodeOperator(&doc)
}

// OperatorByToken resolves an operator by its API token.
func (r *OperatorRepository) OperatorByToken(ctx context.Context, token string) (*models.Operator, error) {
	var doc OperatorDocument
	err := r.db.WithContext(ctx).Where("api_token = ?", token).First(&doc).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, cache.ErrOperatorNotFound
		}
		return nil, fmt.Errorf("read operator by token: %w", err)
	}
	return decodeOperator(&doc)
}

// VendorByCode resolves a vendor by its code.
func (r *OperatorRepository) VendorByCode(ctx context.Context, code string) (*models.Vendor, error) {
	var doc VendorDocument
	err := r.db.WithContext(ctx).Where("lower(code) = lower(?)", code).First(&doc).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, cache.ErrVendorNotFound
		}
		return nil, fmt.Errorf("read vendor %s: %w", code, err)
	}
	var v models.Vendor
	if err := decodeDocument(doc.Document, &v); err != nil {
		return nil, fmt.Errorf("decode vendor %s: %w", code, err)
	}
	if v.Code == "" {
		v.Code = doc.Code
	}
	return &v, nil
}

func decodeOperator(doc *OperatorDocument) (*models.Operator, error) {
	var op models.Operator
	if err := decodeDocument(doc.Document, &op); err != nil {
		return nil, fmt.Errorf("decode operator %s: %w", doc.Code, err)
	}
	if op.Code == "" {
		op.Code = doc.Code
	}
	if op.APIToken == "" {
		op.APIToken = doc.APIToken
	}
	return &op, nil
}

func decodeDocument(doc models.JSON, dest interface{}) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, dest)
}

package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Operator statuses
const (
	OperatorOnline       = "online"
	OperatorMaintain     = "maintain"
	OperatorDecommission = "decommission"
)

// VendorOnline is the only vendor status wallet operations are accepted
// under.
const VendorOnline = "online"

// PostgresDescriptor describes an operator's relational ledger store.
type PostgresDescriptor struct {
	Host     string `json:"host"`
	Port     int    `json:"port"`
	User     string `json:"user"`
	Password string `json:"password"`
	DBName   string `json:"db_name"`
	Replica  string `json:"replica"`
	SSLMode  string `json:"ssl_mode"`
}

// DocStoreDescriptor describes an operator's document store, used for
// read-mostly configuration rather than ledger mutation.
type DocStoreDescriptor struct {
	Addr     string `json:"addr"`
	Password string `json:"password"`
	DB       int    `json:"db"`
}

// DBDescriptor groups the per-operator storage endpoints.
type DBDescriptor struct {
	Postgres *PostgresDescriptor `json:"postgres"`
	DocStore *DocStoreDescriptor `json:"doc_store"`
}

// VendorSetting is the per-operator enablement record for one vendor.
type VendorSetting struct {
	Enabled  bool `json:"enabled"`
	Seamless bool `json:"seamless"`
}

// CurrencyRate converts vendor-denominated amounts into the operator's
// settlement currency.
type CurrencyRate struct {
	Rate  decimal.Decimal `json:"rate"`
	Scale int32           `json:"scale"`
}

// SeamlessSetting holds the remote-wallet endpoint for seamless operators.
type SeamlessSetting struct {
	Host   string `json:"host"`
	WToken string `json:"wtoken"`
}

// Operator is a tenant. It is decoded once at the configuration-cache
// boundary; the ledger engine never touches untyped documents.
type Operator struct {
	Code          string                   `json:"code"`
	Name          string                   `json:"name"`
	Status        string                   `json:"status"`
	APIToken      string                   `json:"api_token"`
	APISecretHash string                   `json:"api_secret_hash"`
	IPWhitelist   []string                 `json:"ip_whitelist"`
	VendorSwitch  map[string]VendorSetting `json:"vendor_switch"`
	CurrencyRates map[string]CurrencyRate  `json:"currency_rates"`
	Seamless      SeamlessSetting          `json:"seamless_setting"`
	DB            DBDescriptor             `json:"db"`
	UpdatedAt     time.Time                `json:"updated_at"`
}

// Vendor is a game content provider integrated into the platform.
type Vendor struct {
	Code       string            `json:"code"`
	Name       string            `json:"name"`
	Status     string            `json:"status"`
	Currencies map[string]string `json:"currencies"`
	Languages  map[string]string `json:"languages"`
	UpdatedAt  time.Time         `json:"updated_at"`
}

// VendorFor returns the enablement record for a vendor code, if present.
func (o *Operator) VendorFor(vendorCode string) (VendorSetting, bool) {
	vs, ok := o.VendorSwitch[vendorCode]
	return vs, ok
}

// RateFor returns the currency rate for a vendor code, if present.
func (o *Operator) RateFor(vendorCode string) (CurrencyRate, bool) {
	r, ok := o.CurrencyRates[vendorCode]
	return r, ok
}

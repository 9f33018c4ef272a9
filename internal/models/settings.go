package models

// AppSettings is a single-row table for runtime-editable configuration.
// The Mercado Pago test token lives here (not in the environment) so admins
// can rotate it without a redeploy; it is re-read on every test-path call.
type AppSettings struct {
	BaseModel
	MercadoPagoTestToken string `gorm:"column:mercado_pago_test_token" json:"mercado_pago_test_token"`
}

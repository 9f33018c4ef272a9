package services

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/example/arenapix/internal/models"
)

// SettingsService reads and updates the single app_settings row.
type SettingsService struct {
	db *gorm.DB
}

func NewSettingsService(db *gorm.DB) *SettingsService {
	return &SettingsService{db: db}
}

// Get returns the settings row, creating an empty one on first access.
func (s *SettingsService) Get(ctx context.Context) (*models.AppSettings, error) {
	var settings models.AppSettings
	err := s.db.WithContext(ctx).First(&settings).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		settings = models.AppSettings{}
		if err := s.db.WithContext(ctx).Create(&settings).Error; err != nil {
			return nil, err
		}
		return &settings, nil
	}
	if err != nil {
		return nil, err
	}
	return &settings, nil
}

// UpdateTestToken stores a new Mercado Pago test credential.
func (s *SettingsService) UpdateTestToken(ctx context.Context, token string) (*models.AppSettings, error) {
	settings, err := s.Get(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.db.WithContext(ctx).
		Model(settings).
		Update("mercado_pago_test_token", token).Error; err != nil {
		return nil, err
	}

	settings.MercadoPagoTestToken = token
	return settings, nil
}

// TestToken re-reads the admin-editable test credential. Called per request
// on the test path: the token is runtime-editable, so it is never cached.
func (s *SettingsService) TestToken(ctx context.Context) (string, error) {
	settings, err := s.Get(ctx)
	if err != nil {
		return "", err
	}
	if settings.MercadoPagoTestToken == "" {
		return "", newPaymentError(ErrKindConfiguration, "mercado pago test token not configured", nil)
	}
	return settings.MercadoPagoTestToken, nil
}

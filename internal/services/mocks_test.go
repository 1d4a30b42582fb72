package services_test

import (
	"context"

	"github.com/ecoleta/ecoleta-web/internal/models"
	"github.com/stretchr/testify/mock"
)

// MockRegistryClient is a mock implementation of services.RegistryClient
type MockRegistryClient struct {
	mock.Mock
}

func (m *MockRegistryClient) ListItems(ctx context.Context) ([]models.Item, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Item), args.Error(1)
}

func (m *MockRegistryClient) SubmitPoint(ctx context.Context, point *models.PointSubmission) error {
	args := m.Called(ctx, point)
	return args.Error(0)
}

// MockGeographyClient is a mock implementation of services.GeographyClient
type MockGeographyClient struct {
	mock.Mock
}

func (m *MockGeographyClient) ListStates(ctx context.Context) ([]models.State, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.State), args.Error(1)
}

func (m *MockGeographyClient) ListCities(ctx context.Context, uf string) ([]models.City, error) {
	args := m.Called(ctx, uf)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.City), args.Error(1)
}

// MockUploadStore is a mock implementation of services.UploadStore
type MockUploadStore struct {
	mock.Mock
}

func (m *MockUploadStore) Put(ctx context.Context, img *models.ImageUpload) (string, error) {
	args := m.Called(ctx, img)
	return args.String(0), args.Error(1)
}

func (m *MockUploadStore) Get(ctx context.Context, token string) (*models.ImageUpload, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ImageUpload), args.Error(1)
}

func (m *MockUploadStore) Delete(ctx context.Context, token string) error {
	args := m.Called(ctx, token)
	return args.Error(0)
}

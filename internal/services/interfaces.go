package services

import (
	"context"

	"github.com/ecoleta/ecoleta-web/internal/cache"
	"github.com/ecoleta/ecoleta-web/internal/models"
	"github.com/ecoleta/ecoleta-web/pkg/geography"
	"github.com/ecoleta/ecoleta-web/pkg/objectstore"
	"github.com/ecoleta/ecoleta-web/pkg/registry"
)

// GeographyClient defines the state and city lookups the registration flow needs
type GeographyClient interface {
	ListStates(ctx context.Context) ([]models.State, error)
	ListCities(ctx context.Context, uf string) ([]models.City, error)
}

// RegistryClient defines the collection-point registry operations
type RegistryClient interface {
	ListItems(ctx context.Context) ([]models.Item, error)
	SubmitPoint(ctx context.Context, point *models.PointSubmission) error
}

// ItemSnapshotter is implemented by registry clients that keep the last item catalog they loaded
type ItemSnapshotter interface {
	CachedItems() ([]models.Item, bool)
}

// UploadStore stages images of failed submissions under opaque tokens
type UploadStore interface {
	Put(ctx context.Context, img *models.ImageUpload) (string, error)
	Get(ctx context.Context, token string) (*models.ImageUpload, error)
	Delete(ctx context.Context, token string) error
}

// RegistrationServiceInterface defines the interface for registration flow operations
type RegistrationServiceInterface interface {
	LoadRegisterPage(ctx context.Context, uf string) *models.RegisterPage
	ReloadRegisterPage(ctx context.Context, uf string) *models.RegisterPage
	LoadItems(ctx context.Context) ([]models.Item, error)
	LoadStates(ctx context.Context) ([]string, error)
	LoadCities(ctx context.Context, uf string) ([]string, error)
	SubmitPoint(ctx context.Context, point *models.PointSubmission, stagedToken string) (string, error)
	StagedImage(ctx context.Context, token string) (*models.ImageUpload, error)
}

// Ensure implementations satisfy their interfaces
var _ RegistrationServiceInterface = (*RegistrationService)(nil)
var _ GeographyClient = (*geography.Client)(nil)
var _ GeographyClient = (*cache.GeographyCache)(nil)
var _ RegistryClient = (*registry.Client)(nil)
var _ RegistryClient = (*cache.ItemCache)(nil)
var _ ItemSnapshotter = (*cache.ItemCache)(nil)
var _ UploadStore = (*cache.UploadCache)(nil)
var _ UploadStore = (*objectstore.StorageClient)(nil)

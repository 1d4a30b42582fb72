package services

import (
	"context"
	"errors"
	"strings"

	"github.com/ecoleta/ecoleta-web/internal/models"
	apperrors "github.com/ecoleta/ecoleta-web/pkg/errors"
	"github.com/ecoleta/ecoleta-web/pkg/logger"
	"github.com/ecoleta/ecoleta-web/pkg/metrics"
	"github.com/ecoleta/ecoleta-web/pkg/tracing"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Notification messages, one per failing operation
const (
	MsgLoadItemsFailed  = "Opa! Alguma coisa deu errado ao tentar carregar a lista de items para coleta, tente recarregar a pagina!"
	MsgLoadStatesFailed = "Opa! Alguma coisa deu errado ao tentar carregar a lista de estados, tente recarregar a pagina!"
	MsgLoadCitiesFailed = "Opa! Alguma coisa deu errado ao tentar carregar a lista de municípios, tente recarregar a pagina!"
	MsgSubmitFailed     = "Opa! Alguma coisa deu errado, tente novamente mais tarde!"
)

// RegistrationService orchestrates list loading, validation and submission of collection points
type RegistrationService struct {
	registry  RegistryClient
	geography GeographyClient
	uploads   UploadStore
	catalog   ItemSnapshotter
	validator *PointValidator
}

// NewRegistrationService creates a new registration service instance.
// When registry also remembers its item catalog, re-rendered forms reuse it.
func NewRegistrationService(registry RegistryClient, geography GeographyClient, uploads UploadStore) *RegistrationService {
	catalog, _ := registry.(ItemSnapshotter)
	return &RegistrationService{
		registry:  registry,
		geography: geography,
		uploads:   uploads,
		catalog:   catalog,
		validator: NewPointValidator(),
	}
}

// LoadRegisterPage fetches the item and state lists in parallel, plus the cities of uf when given.
// Each failing list stays empty and adds exactly one notification.
func (s *RegistrationService) LoadRegisterPage(ctx context.Context, uf string) *models.RegisterPage {
	page := s.loadPage(ctx, uf, s.LoadItems)
	metrics.RegisterPageViews.Inc()
	return page
}

// ReloadRegisterPage rebuilds the page for a form that is shown again after a failed submit.
// The item grid comes from the last catalog already loaded; the registry is asked only when
// none has been loaded yet.
func (s *RegistrationService) ReloadRegisterPage(ctx context.Context, uf string) *models.RegisterPage {
	return s.loadPage(ctx, uf, s.knownItems)
}

func (s *RegistrationService) knownItems(ctx context.Context) ([]models.Item, error) {
	if s.catalog != nil {
		if items, ok := s.catalog.CachedItems(); ok {
			return items, nil
		}
	}
	return s.LoadItems(ctx)
}

func (s *RegistrationService) loadPage(ctx context.Context, uf string, loadItems func(context.Context) ([]models.Item, error)) *models.RegisterPage {
	page := models.NewRegisterPage()
	uf = strings.TrimSpace(uf)

	var itemsErr, statesErr, citiesErr error
	var g errgroup.Group

	g.Go(func() error {
		items, err := loadItems(ctx)
		if err != nil {
			itemsErr = err
			return nil
		}
		page.Items = items
		return nil
	})

	g.Go(func() error {
		states, err := s.LoadStates(ctx)
		if err != nil {
			statesErr = err
			return nil
		}
		page.States = states
		return nil
	})

	if uf != "" {
		g.Go(func() error {
			cities, err := s.LoadCities(ctx, uf)
			if err != nil {
				citiesErr = err
				return nil
			}
			page.Cities = cities
			return nil
		})
	}

	_ = g.Wait() //nolint:errcheck // every goroutine reports through its own error variable

	if itemsErr != nil {
		page.Notify(models.ErrorNotification(MsgLoadItemsFailed))
	}
	if statesErr != nil {
		page.Notify(models.ErrorNotification(MsgLoadStatesFailed))
	}
	if citiesErr != nil {
		page.Notify(models.ErrorNotification(MsgLoadCitiesFailed))
	}

	page.Values.UF = uf
	return page
}

// LoadItems returns the category list in registry order
func (s *RegistrationService) LoadItems(ctx context.Context) ([]models.Item, error) {
	items, err := s.registry.ListItems(ctx)
	if err != nil {
		metrics.LoadFailures.WithLabelValues("items").Inc()
		logger.Error("Failed to load items", zap.Error(err))
		return nil, err
	}
	return items, nil
}

// LoadStates returns state codes in ascending order
func (s *RegistrationService) LoadStates(ctx context.Context) ([]string, error) {
	states, err := s.geography.ListStates(ctx)
	if err != nil {
		metrics.LoadFailures.WithLabelValues("states").Inc()
		logger.Error("Failed to load states", zap.Error(err))
		return nil, err
	}
	return models.StateCodes(states), nil
}

// LoadCities returns the city names of uf. An empty code yields an empty list without an upstream call.
func (s *RegistrationService) LoadCities(ctx context.Context, uf string) ([]string, error) {
	uf = strings.TrimSpace(uf)
	if uf == "" {
		return []string{}, nil
	}

	cities, err := s.geography.ListCities(ctx, uf)
	if err != nil {
		metrics.LoadFailures.WithLabelValues("cities").Inc()
		logger.Error("Failed to load cities", zap.Error(err), zap.String("uf", uf))
		return nil, err
	}
	return models.CityNames(cities), nil
}

// SubmitPoint validates point and forwards it to the registry.
//
// When point carries no fresh image the one staged under stagedToken is reused. On failure the
// returned token identifies the staged image for the next attempt (empty when there is none).
// Validation failures are *ValidationError; anything else is operational.
func (s *RegistrationService) SubmitPoint(ctx context.Context, point *models.PointSubmission, stagedToken string) (string, error) {
	ctx, span := tracing.StartSpan(ctx, "registration.submit_point",
		attribute.String("point.uf", point.UF),
		attribute.Int("point.items", len(point.Items)),
	)
	defer span.End()

	stagedToken = strings.TrimSpace(stagedToken)

	if point.Image == nil && stagedToken != "" {
		img, err := s.uploads.Get(ctx, stagedToken)
		switch {
		case err == nil:
			point.Image = img
		case apperrors.Is(err, apperrors.ErrNotFound):
			logger.Debug("Staged image expired", zap.String("token", stagedToken))
		default:
			logger.Warn("Failed to load staged image", zap.Error(err), zap.String("token", stagedToken))
		}
	} else if point.Image != nil && stagedToken != "" {
		// a fresh upload supersedes the staged one
		s.discard(ctx, stagedToken)
	}

	if err := s.validator.Validate(point); err != nil {
		var verr *ValidationError
		if errors.As(err, &verr) {
			metrics.PointSubmissions.WithLabelValues("validation_failed").Inc()
			for field := range verr.Fields {
				metrics.ValidationFailures.WithLabelValues(field).Inc()
			}
			span.SetAttributes(attribute.Int("point.invalid_fields", len(verr.Fields)))
			logger.Info("Point submission failed validation", zap.Error(verr))

			token := ""
			if _, badImage := verr.Fields["image"]; !badImage {
				token = s.stage(ctx, point.Image)
			}
			return token, verr
		}
		return "", err
	}

	if err := s.registry.SubmitPoint(ctx, point); err != nil {
		metrics.PointSubmissions.WithLabelValues("registry_error").Inc()
		span.SetStatus(codes.Error, err.Error())
		logger.LogError(ctx, err, "Failed to submit point", zap.String("uf", point.UF))
		return s.stage(ctx, point.Image), err
	}

	if point.Image.Token != "" {
		s.discard(ctx, point.Image.Token)
	}

	metrics.PointSubmissions.WithLabelValues("success").Inc()
	logger.Info("Point submitted",
		zap.String("uf", point.UF),
		zap.String("city", point.City),
		zap.Ints("items", point.Items.IDs()),
	)
	return "", nil
}

// StagedImage returns the image staged under token
func (s *RegistrationService) StagedImage(ctx context.Context, token string) (*models.ImageUpload, error) {
	if strings.TrimSpace(token) == "" {
		return nil, apperrors.NotFoundError("staged image")
	}
	return s.uploads.Get(ctx, token)
}

// stage keeps img for the next attempt; staging failures only cost the user a re-upload
func (s *RegistrationService) stage(ctx context.Context, img *models.ImageUpload) string {
	if img == nil {
		return ""
	}
	if img.Token != "" {
		return img.Token
	}

	token, err := s.uploads.Put(ctx, img)
	if err != nil {
		logger.Warn("Failed to stage image", zap.Error(err))
		return ""
	}
	img.Token = token
	return token
}

func (s *RegistrationService) discard(ctx context.Context, token string) {
	if err := s.uploads.Delete(ctx, token); err != nil {
		logger.Warn("Failed to discard staged image", zap.Error(err), zap.String("token", token))
	}
}

package services_test

import (
	"context"
	"errors"
	"testing"

	"github.com/ecoleta/ecoleta-web/internal/models"
	"github.com/ecoleta/ecoleta-web/internal/services"
	apperrors "github.com/ecoleta/ecoleta-web/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type serviceFixture struct {
	registry  *MockRegistryClient
	geography *MockGeographyClient
	uploads   *MockUploadStore
	service   *services.RegistrationService
}

func newFixture() *serviceFixture {
	f := &serviceFixture{
		registry:  new(MockRegistryClient),
		geography: new(MockGeographyClient),
		uploads:   new(MockUploadStore),
	}
	f.service = services.NewRegistrationService(f.registry, f.geography, f.uploads)
	return f
}

func (f *serviceFixture) assertExpectations(t *testing.T) {
	f.registry.AssertExpectations(t)
	f.geography.AssertExpectations(t)
	f.uploads.AssertExpectations(t)
}

func TestLoadRegisterPage_AllListsLoad(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	items := []models.Item{{ID: 1, Title: "Lâmpadas", ImageURL: "http://x/l.svg"}}
	f.registry.On("ListItems", ctx).Return(items, nil).Once()
	f.geography.On("ListStates", ctx).Return([]models.State{{Code: "RJ"}, {Code: "SP"}}, nil).Once()

	page := f.service.LoadRegisterPage(ctx, "")

	assert.Equal(t, items, page.Items)
	assert.Equal(t, []string{"RJ", "SP"}, page.States)
	assert.Empty(t, page.Cities)
	assert.Empty(t, page.Notifications)
	assert.True(t, page.Position.IsSentinel())
	f.assertExpectations(t)
}

func TestLoadRegisterPage_WithStateLoadsCities(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	f.registry.On("ListItems", ctx).Return([]models.Item{}, nil).Once()
	f.geography.On("ListStates", ctx).Return([]models.State{{Code: "SP"}}, nil).Once()
	f.geography.On("ListCities", ctx, "SP").Return([]models.City{{Name: "Santos"}}, nil).Once()

	page := f.service.LoadRegisterPage(ctx, " SP ")

	assert.Equal(t, []string{"Santos"}, page.Cities)
	assert.Equal(t, "SP", page.Values.UF)
	f.assertExpectations(t)
}

func TestLoadRegisterPage_EachFailureNotifiesOnce(t *testing.T) {
	tests := []struct {
		name          string
		itemsErr      error
		statesErr     error
		citiesErr     error
		wantMessages  []string
		wantItems     int
		wantStates    int
		wantCityNames int
	}{
		{
			name:          "items fail",
			itemsErr:      errors.New("registry 500"),
			wantMessages:  []string{services.MsgLoadItemsFailed},
			wantStates:    1,
			wantCityNames: 1,
		},
		{
			name:          "states fail",
			statesErr:     errors.New("geography 500"),
			wantMessages:  []string{services.MsgLoadStatesFailed},
			wantItems:     1,
			wantCityNames: 1,
		},
		{
			name:         "cities fail",
			citiesErr:    errors.New("geography 500"),
			wantMessages: []string{services.MsgLoadCitiesFailed},
			wantItems:    1,
			wantStates:   1,
		},
		{
			name:         "everything fails",
			itemsErr:     errors.New("registry 500"),
			statesErr:    errors.New("geography 500"),
			citiesErr:    errors.New("geography 500"),
			wantMessages: []string{services.MsgLoadItemsFailed, services.MsgLoadStatesFailed, services.MsgLoadCitiesFailed},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			ctx := context.Background()

			if tt.itemsErr != nil {
				f.registry.On("ListItems", ctx).Return(nil, tt.itemsErr).Once()
			} else {
				f.registry.On("ListItems", ctx).Return([]models.Item{{ID: 1}}, nil).Once()
			}
			if tt.statesErr != nil {
				f.geography.On("ListStates", ctx).Return(nil, tt.statesErr).Once()
			} else {
				f.geography.On("ListStates", ctx).Return([]models.State{{Code: "SP"}}, nil).Once()
			}
			if tt.citiesErr != nil {
				f.geography.On("ListCities", ctx, "SP").Return(nil, tt.citiesErr).Once()
			} else {
				f.geography.On("ListCities", ctx, "SP").Return([]models.City{{Name: "Santos"}}, nil).Once()
			}

			page := f.service.LoadRegisterPage(ctx, "SP")

			messages := make([]string, 0, len(page.Notifications))
			for _, n := range page.Notifications {
				assert.Equal(t, models.NotificationError, n.Level)
				messages = append(messages, n.Message)
			}
			assert.Equal(t, tt.wantMessages, messages)
			assert.Len(t, page.Items, tt.wantItems)
			assert.Len(t, page.States, tt.wantStates)
			assert.Len(t, page.Cities, tt.wantCityNames)
			f.assertExpectations(t)
		})
	}
}

func TestLoadCities_EmptyCodeSkipsUpstream(t *testing.T) {
	f := newFixture()

	cities, err := f.service.LoadCities(context.Background(), "")

	require.NoError(t, err)
	assert.Empty(t, cities)
	f.geography.AssertNotCalled(t, "ListCities", mock.Anything, mock.Anything)
}

func TestLoadCities_ScopedToState(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	f.geography.On("ListCities", ctx, "RJ").Return([]models.City{{Name: "Niterói"}, {Name: "Rio de Janeiro"}}, nil).Once()

	cities, err := f.service.LoadCities(ctx, "RJ")

	require.NoError(t, err)
	assert.Equal(t, []string{"Niterói", "Rio de Janeiro"}, cities)
	f.assertExpectations(t)
}

func TestSubmitPoint_Success(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	point := validSubmission()

	f.registry.On("SubmitPoint", ctx, point).Return(nil).Once()

	token, err := f.service.SubmitPoint(ctx, point, "")

	require.NoError(t, err)
	assert.Empty(t, token)
	f.assertExpectations(t)
	f.uploads.AssertNotCalled(t, "Put", mock.Anything, mock.Anything)
}

func TestSubmitPoint_EmptyFormNeverReachesRegistry(t *testing.T) {
	f := newFixture()

	token, err := f.service.SubmitPoint(context.Background(), &models.PointSubmission{}, "")

	var verr *services.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Empty(t, token)
	assert.Equal(t, models.ValidationErrors{
		"name":      services.MsgNameRequired,
		"email":     services.MsgEmailRequired,
		"whatsapp":  services.MsgWhatsappRequired,
		"uf":        services.MsgUFRequired,
		"city":      services.MsgCityRequired,
		"latitude":  services.MsgLocationInvalid,
		"longitude": services.MsgLocationInvalid,
		"items":     services.MsgItemsMin,
		"image":     services.MsgImageRequired,
	}, verr.Fields)
	f.registry.AssertNotCalled(t, "SubmitPoint", mock.Anything, mock.Anything)
}

func TestSubmitPoint_ValidationFailureStagesValidImage(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	point := validSubmission()
	point.Name = "ab"

	f.uploads.On("Put", ctx, point.Image).Return("tok-1", nil).Once()

	token, err := f.service.SubmitPoint(ctx, point, "")

	var verr *services.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, models.ValidationErrors{"name": services.MsgNameMin}, verr.Fields)
	assert.Equal(t, "tok-1", token)
	f.assertExpectations(t)
	f.registry.AssertNotCalled(t, "SubmitPoint", mock.Anything, mock.Anything)
}

func TestSubmitPoint_NonImageIsRejectedAndNotStaged(t *testing.T) {
	f := newFixture()
	point := validSubmission()
	point.Image = &models.ImageUpload{FileName: "notes.txt", ContentType: "text/plain", Data: []byte("just some text")}

	token, err := f.service.SubmitPoint(context.Background(), point, "")

	var verr *services.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, services.MsgImageNotImage, verr.Fields["image"])
	assert.Empty(t, token)
	f.uploads.AssertNotCalled(t, "Put", mock.Anything, mock.Anything)
}

func TestSubmitPoint_RegistryFailureStagesImage(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	point := validSubmission()
	registryErr := apperrors.UpstreamStatusError("registry", "createPoint", 500)

	f.registry.On("SubmitPoint", ctx, point).Return(registryErr).Once()
	f.uploads.On("Put", ctx, point.Image).Return("tok-2", nil).Once()

	token, err := f.service.SubmitPoint(ctx, point, "")

	require.Error(t, err)
	var verr *services.ValidationError
	assert.False(t, errors.As(err, &verr))
	assert.True(t, apperrors.Is(err, apperrors.ErrUpstream))
	assert.Equal(t, "tok-2", token)
	f.assertExpectations(t)
}

func TestSubmitPoint_ReusesStagedImage(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	point := validSubmission()
	staged := point.Image
	staged.Token = "tok-3"
	point.Image = nil

	f.uploads.On("Get", ctx, "tok-3").Return(staged, nil).Once()
	f.registry.On("SubmitPoint", ctx, point).Return(nil).Once()
	f.uploads.On("Delete", ctx, "tok-3").Return(nil).Once()

	token, err := f.service.SubmitPoint(ctx, point, "tok-3")

	require.NoError(t, err)
	assert.Empty(t, token)
	assert.Same(t, staged, point.Image)
	f.assertExpectations(t)
}

func TestSubmitPoint_ExpiredStagedImageIsRequiredAgain(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	point := validSubmission()
	point.Image = nil

	f.uploads.On("Get", ctx, "gone").Return(nil, apperrors.NotFoundError("staged image")).Once()

	_, err := f.service.SubmitPoint(ctx, point, "gone")

	var verr *services.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, models.ValidationErrors{"image": services.MsgImageRequired}, verr.Fields)
	f.assertExpectations(t)
}

func TestSubmitPoint_FreshUploadReplacesStaged(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	point := validSubmission()

	f.uploads.On("Delete", ctx, "old").Return(nil).Once()
	f.registry.On("SubmitPoint", ctx, point).Return(nil).Once()

	_, err := f.service.SubmitPoint(ctx, point, "old")

	require.NoError(t, err)
	f.assertExpectations(t)
}

func TestStagedImage_EmptyToken(t *testing.T) {
	f := newFixture()

	_, err := f.service.StagedImage(context.Background(), " ")

	assert.True(t, apperrors.Is(err, apperrors.ErrNotFound))
	f.uploads.AssertNotCalled(t, "Get", mock.Anything, mock.Anything)
}

// catalogRegistry is a registry mock that also remembers a catalog
type catalogRegistry struct {
	*MockRegistryClient
	items []models.Item
}

func (c *catalogRegistry) CachedItems() ([]models.Item, bool) {
	return c.items, c.items != nil
}

func TestReloadRegisterPage_ReusesKnownCatalog(t *testing.T) {
	registry := &catalogRegistry{
		MockRegistryClient: new(MockRegistryClient),
		items:              []models.Item{{ID: 1, Title: "Lâmpadas"}},
	}
	geography := new(MockGeographyClient)
	service := services.NewRegistrationService(registry, geography, new(MockUploadStore))
	ctx := context.Background()

	geography.On("ListStates", ctx).Return([]models.State{{Code: "SP"}}, nil).Once()

	page := service.ReloadRegisterPage(ctx, "")

	assert.Equal(t, registry.items, page.Items)
	assert.Empty(t, page.Notifications)
	registry.AssertNotCalled(t, "ListItems", mock.Anything)
	geography.AssertExpectations(t)
}

func TestReloadRegisterPage_LoadsCatalogWhenNoneKnown(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	f.registry.On("ListItems", ctx).Return([]models.Item{{ID: 2}}, nil).Once()
	f.geography.On("ListStates", ctx).Return([]models.State{{Code: "SP"}}, nil).Once()

	page := f.service.ReloadRegisterPage(ctx, "")

	assert.Equal(t, []models.Item{{ID: 2}}, page.Items)
	f.assertExpectations(t)
}

package listings

import (
	"context"
	"errors"
	"testing"
	"time"

	"savanna-backend/internal/domain"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupListingsService(t *testing.T) *Service {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&domain.Listing{}))
	return &Service{DB: db}
}

func num(v float64) *float64 {
	return &v
}

func validInput() CreateListingInput {
	return CreateListingInput{
		Title:       "Oak Street Cottage",
		Description: "Three bed cottage near downtown",
		Price:       num(250000),
		Location:    "Oak Street",
		City:        "Savannah",
		State:       "GA",
		Beds:        num(3),
		Baths:       num(2),
		Sqft:        num(1650),
		Status:      domain.ListingForSale,
	}
}

func seedListing(t *testing.T, svc *Service, status, source string, createdAt time.Time) *domain.Listing {
	listing := &domain.Listing{
		Title:       "Seeded " + status,
		Description: "seed",
		Price:       100000,
		Location:    "Somewhere",
		City:        "Savannah",
		State:       "GA",
		Status:      status,
		Source:      &source,
		CreatedAt:   createdAt,
	}
	require.NoError(t, svc.DB.Create(listing).Error)
	return listing
}

func TestCreateListing_ForcesManualSource(t *testing.T) {
	svc := setupListingsService(t)

	listing, err := svc.CreateListing(context.Background(), validInput())
	require.NoError(t, err)
	require.NotNil(t, listing.Source)
	assert.Equal(t, domain.SourceManual, *listing.Source)
	assert.NotEqual(t, uuid.Nil, listing.ListingID)
}

func TestCreateListing_MissingRequiredField(t *testing.T) {
	svc := setupListingsService(t)

	in := validInput()
	in.City = ""
	_, err := svc.CreateListing(context.Background(), in)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrValidation))
	assert.Contains(t, err.Error(), "city")
}

func TestCreateListing_InvalidStatus(t *testing.T) {
	svc := setupListingsService(t)

	in := validInput()
	in.Status = "archived"
	_, err := svc.CreateListing(context.Background(), in)
	assert.True(t, errors.Is(err, ErrValidation))
}

func TestCreateListing_NegativePrice(t *testing.T) {
	svc := setupListingsService(t)

	in := validInput()
	in.Price = num(-1)
	_, err := svc.CreateListing(context.Background(), in)
	assert.True(t, errors.Is(err, ErrValidation))
}

func TestCreateListing_MissingNumericFields(t *testing.T) {
	svc := setupListingsService(t)

	for _, tc := range []struct {
		name  string
		mut   func(*CreateListingInput)
		field string
	}{
		{"price", func(in *CreateListingInput) { in.Price = nil }, "price"},
		{"beds", func(in *CreateListingInput) { in.Beds = nil }, "beds"},
		{"baths", func(in *CreateListingInput) { in.Baths = nil }, "baths"},
		{"sqft", func(in *CreateListingInput) { in.Sqft = nil }, "sqft"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			in := validInput()
			tc.mut(&in)
			_, err := svc.CreateListing(context.Background(), in)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrValidation))
			assert.Contains(t, err.Error(), tc.field)
		})
	}
}

func TestGetActive_ExcludesSoldAndHidden(t *testing.T) {
	svc := setupListingsService(t)
	base := time.Now().Add(-time.Hour)
	seedListing(t, svc, domain.ListingForSale, domain.SourceManual, base)
	seedListing(t, svc, domain.ListingPending, domain.SourceManual, base.Add(time.Minute))
	seedListing(t, svc, domain.ListingSold, domain.SourceManual, base.Add(2*time.Minute))
	seedListing(t, svc, domain.ListingHidden, domain.SourceManual, base.Add(3*time.Minute))

	active, err := svc.GetActive(context.Background())
	require.NoError(t, err)
	require.Len(t, active, 2)
	// newest first
	assert.Equal(t, domain.ListingPending, active[0].Status)
	assert.Equal(t, domain.ListingForSale, active[1].Status)
}

func TestGetByStatus_InvalidStatus(t *testing.T) {
	svc := setupListingsService(t)

	_, err := svc.GetByStatus(context.Background(), "unknown")
	assert.True(t, errors.Is(err, ErrValidation))
}

func TestGetByStatus_ExactMatch(t *testing.T) {
	svc := setupListingsService(t)
	base := time.Now().Add(-time.Hour)
	seedListing(t, svc, domain.ListingSold, domain.SourceManual, base)
	seedListing(t, svc, domain.ListingForSale, domain.SourceManual, base.Add(time.Minute))

	sold, err := svc.GetByStatus(context.Background(), domain.ListingSold)
	require.NoError(t, err)
	require.Len(t, sold, 1)
	assert.Equal(t, domain.ListingSold, sold[0].Status)
}

func TestGetByID_AbsentReturnsNilNil(t *testing.T) {
	svc := setupListingsService(t)

	listing, err := svc.GetByID(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.Nil(t, listing)
}

func TestUpdateListing_PartialPatchLeavesOtherFieldsAlone(t *testing.T) {
	svc := setupListingsService(t)
	created, err := svc.CreateListing(context.Background(), validInput())
	require.NoError(t, err)

	updated, err := svc.UpdateListing(context.Background(), created.ListingID, map[string]interface{}{
		"price": 275000.0,
	})
	require.NoError(t, err)
	assert.Equal(t, 275000.0, updated.Price)
	assert.Equal(t, created.Title, updated.Title)
	assert.Equal(t, created.Description, updated.Description)
	assert.Equal(t, created.Status, updated.Status)
}

func TestUpdateListing_NilClearsOptionalField(t *testing.T) {
	svc := setupListingsService(t)
	in := validInput()
	zip := "31401"
	in.Zip = &zip
	created, err := svc.CreateListing(context.Background(), in)
	require.NoError(t, err)

	updated, err := svc.UpdateListing(context.Background(), created.ListingID, map[string]interface{}{
		"zip": nil,
	})
	require.NoError(t, err)
	assert.Nil(t, updated.Zip)
}

func TestUpdateListing_CannotClearRequiredField(t *testing.T) {
	svc := setupListingsService(t)
	created, err := svc.CreateListing(context.Background(), validInput())
	require.NoError(t, err)

	_, err = svc.UpdateListing(context.Background(), created.ListingID, map[string]interface{}{
		"title": "",
	})
	assert.True(t, errors.Is(err, ErrValidation))
}

func TestUpdateListing_UnknownField(t *testing.T) {
	svc := setupListingsService(t)
	created, err := svc.CreateListing(context.Background(), validInput())
	require.NoError(t, err)

	_, err = svc.UpdateListing(context.Background(), created.ListingID, map[string]interface{}{
		"flavor": "vanilla",
	})
	assert.True(t, errors.Is(err, ErrValidation))
}

func TestUpdateListing_NotFound(t *testing.T) {
	svc := setupListingsService(t)

	_, err := svc.UpdateListing(context.Background(), uuid.New(), map[string]interface{}{
		"price": 1.0,
	})
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestUpdateListing_CSVSourceBecomesManual(t *testing.T) {
	svc := setupListingsService(t)
	seeded := seedListing(t, svc, domain.ListingForSale, domain.SourceCSV, time.Now())

	updated, err := svc.UpdateListing(context.Background(), seeded.ListingID, map[string]interface{}{
		"price": 99000.0,
	})
	require.NoError(t, err)
	require.NotNil(t, updated.Source)
	assert.Equal(t, domain.SourceManual, *updated.Source)
}

func TestUpdateListing_RealTracksSourceBecomesManual(t *testing.T) {
	svc := setupListingsService(t)
	seeded := seedListing(t, svc, domain.ListingForSale, domain.SourceRealTracks, time.Now())

	updated, err := svc.UpdateListing(context.Background(), seeded.ListingID, map[string]interface{}{
		"beds": 4.0,
	})
	require.NoError(t, err)
	require.NotNil(t, updated.Source)
	assert.Equal(t, domain.SourceManual, *updated.Source)
}

func TestUpdateListing_SourceIsNotCallerWritable(t *testing.T) {
	svc := setupListingsService(t)
	seeded := seedListing(t, svc, domain.ListingForSale, domain.SourceManual, time.Now())

	for _, value := range []interface{}{"bogus", domain.SourceRealTracks, nil} {
		_, err := svc.UpdateListing(context.Background(), seeded.ListingID, map[string]interface{}{
			"source": value,
		})
		assert.True(t, errors.Is(err, ErrValidation))
	}

	kept, err := svc.GetByID(context.Background(), seeded.ListingID)
	require.NoError(t, err)
	require.NotNil(t, kept.Source)
	assert.Equal(t, domain.SourceManual, *kept.Source)
}

func TestUpdateListing_NumericFieldMustBeNumber(t *testing.T) {
	svc := setupListingsService(t)
	created, err := svc.CreateListing(context.Background(), validInput())
	require.NoError(t, err)

	for _, value := range []interface{}{"abc", nil, true} {
		_, err := svc.UpdateListing(context.Background(), created.ListingID, map[string]interface{}{
			"price": value,
		})
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrValidation))
	}

	kept, err := svc.GetByID(context.Background(), created.ListingID)
	require.NoError(t, err)
	assert.Equal(t, 250000.0, kept.Price)
}

func TestUpdateListing_NegativeNumericRejected(t *testing.T) {
	svc := setupListingsService(t)
	created, err := svc.CreateListing(context.Background(), validInput())
	require.NoError(t, err)

	_, err = svc.UpdateListing(context.Background(), created.ListingID, map[string]interface{}{
		"beds": -2.0,
	})
	assert.True(t, errors.Is(err, ErrValidation))
}

func TestUpdateListing_ManualSourceStaysManual(t *testing.T) {
	svc := setupListingsService(t)
	created, err := svc.CreateListing(context.Background(), validInput())
	require.NoError(t, err)

	updated, err := svc.UpdateListing(context.Background(), created.ListingID, map[string]interface{}{
		"beds": 4.0,
	})
	require.NoError(t, err)
	require.NotNil(t, updated.Source)
	assert.Equal(t, domain.SourceManual, *updated.Source)
}

func TestUpdateListing_FeaturesListReplaced(t *testing.T) {
	svc := setupListingsService(t)
	in := validInput()
	in.Features = []string{"garage"}
	created, err := svc.CreateListing(context.Background(), in)
	require.NoError(t, err)

	updated, err := svc.UpdateListing(context.Background(), created.ListingID, map[string]interface{}{
		"features": []interface{}{"pool", "deck"},
	})
	require.NoError(t, err)
	assert.Equal(t, domain.StringList{"pool", "deck"}, updated.Features)
}

func TestRemoveListing_IsIdempotent(t *testing.T) {
	svc := setupListingsService(t)
	created, err := svc.CreateListing(context.Background(), validInput())
	require.NoError(t, err)

	require.NoError(t, svc.RemoveListing(context.Background(), created.ListingID))
	// second delete of the same id is a no-op
	require.NoError(t, svc.RemoveListing(context.Background(), created.ListingID))

	gone, err := svc.GetByID(context.Background(), created.ListingID)
	require.NoError(t, err)
	assert.Nil(t, gone)
}

type recordingBus struct {
	channels []string
}

func (r *recordingBus) Publish(_ context.Context, channel string) error {
	r.channels = append(r.channels, channel)
	return nil
}

func TestWritesPublishChangeNotifications(t *testing.T) {
	svc := setupListingsService(t)
	bus := &recordingBus{}
	svc.Bus = bus

	created, err := svc.CreateListing(context.Background(), validInput())
	require.NoError(t, err)
	_, err = svc.UpdateListing(context.Background(), created.ListingID, map[string]interface{}{"beds": 4.0})
	require.NoError(t, err)
	require.NoError(t, svc.RemoveListing(context.Background(), created.ListingID))

	assert.Equal(t, []string{ChangeChannel, ChangeChannel, ChangeChannel}, bus.channels)
}

package listings

import (
	"context"
	"errors"

	"savanna-backend/internal/domain"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// ChangeChannel is the live-bus channel listing writes publish to.
const ChangeChannel = "listings"

// Notifier pushes a change notification after a committed write so open
// subscriptions can re-run their queries. Nil disables publishing.
type Notifier interface {
	Publish(ctx context.Context, channel string) error
}

type Service struct {
	DB  *gorm.DB
	Bus Notifier
}

// CreateListingInput carries the admin form fields. Source is deliberately
// not an input: everything created through this path is tagged "manual",
// whatever the caller sent. The required numerics are pointers so that an
// absent or non-numeric value stays nil and fails validation instead of
// collapsing into a stored zero.
type CreateListingInput struct {
	Title        string
	Description  string
	Price        *float64
	Location     string
	Address      *string
	City         string
	State        string
	Zip          *string
	Beds         *float64
	Baths        *float64
	Sqft         *float64
	PropertyType *string
	YearBuilt    *int
	Features     []string
	Images       []string
	Status       string
	MlsNumber    *string
}

func (in *CreateListingInput) validate() error {
	required := []struct {
		name  string
		empty bool
	}{
		{"title", in.Title == ""},
		{"description", in.Description == ""},
		{"location", in.Location == ""},
		{"city", in.City == ""},
		{"state", in.State == ""},
		{"status", in.Status == ""},
	}
	for _, f := range required {
		if f.empty {
			return validationErr("Missing required field: %s", f.name)
		}
	}
	numbers := []struct {
		name string
		val  *float64
	}{
		{"price", in.Price},
		{"beds", in.Beds},
		{"baths", in.Baths},
		{"sqft", in.Sqft},
	}
	for _, f := range numbers {
		if f.val == nil {
			return validationErr("Missing required field: %s", f.name)
		}
		if *f.val < 0 {
			return validationErr("Field %s must be non-negative", f.name)
		}
	}
	if !domain.ValidListingStatus(in.Status) {
		return validationErr("Invalid status: %q", in.Status)
	}
	return nil
}

// CreateListing validates and inserts a new listing with source forced to "manual".
func (s *Service) CreateListing(ctx context.Context, in CreateListingInput) (*domain.Listing, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	source := domain.SourceManual
	listing := &domain.Listing{
		Title:        in.Title,
		Description:  in.Description,
		Price:        *in.Price,
		Location:     in.Location,
		Address:      in.Address,
		City:         in.City,
		State:        in.State,
		Zip:          in.Zip,
		Beds:         *in.Beds,
		Baths:        *in.Baths,
		Sqft:         *in.Sqft,
		PropertyType: in.PropertyType,
		YearBuilt:    in.YearBuilt,
		Features:     domain.StringList(in.Features),
		Images:       domain.StringList(in.Images),
		Status:       in.Status,
		MlsNumber:    in.MlsNumber,
		Source:       &source,
	}
	if err := s.DB.WithContext(ctx).Create(listing).Error; err != nil {
		return nil, err
	}
	s.notify(ctx)
	return listing, nil
}

// GetActive returns everything visible on the public site: "for-sale" and
// "pending", newest first.
func (s *Service) GetActive(ctx context.Context) ([]domain.Listing, error) {
	out := []domain.Listing{}
	err := s.DB.WithContext(ctx).
		Where("status IN ?", []string{domain.ListingForSale, domain.ListingPending}).
		Order("created_at DESC").
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

// GetAll returns every listing regardless of status, newest first. Admin only.
func (s *Service) GetAll(ctx context.Context) ([]domain.Listing, error) {
	out := []domain.Listing{}
	if err := s.DB.WithContext(ctx).Order("created_at DESC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// GetByStatus returns listings with exactly the given status, newest first.
// The status column is indexed, so this is an index lookup, not a scan.
func (s *Service) GetByStatus(ctx context.Context, status string) ([]domain.Listing, error) {
	if !domain.ValidListingStatus(status) {
		return nil, validationErr("Invalid status: %q", status)
	}
	out := []domain.Listing{}
	err := s.DB.WithContext(ctx).
		Where("status = ?", status).
		Order("created_at DESC").
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

// GetByID returns the listing or (nil, nil) when absent. Absence is a
// branch for the caller, not an error.
func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (*domain.Listing, error) {
	var listing domain.Listing
	err := s.DB.WithContext(ctx).Where("listing_id = ?", id).First(&listing).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &listing, nil
}

// updatableColumns is the set of columns a partial update may touch.
// The id, timestamps and source are never part of a patch: source is
// written only by the stored-source override below.
var updatableColumns = map[string]bool{
	"title":         true,
	"description":   true,
	"price":         true,
	"location":      true,
	"address":       true,
	"city":          true,
	"state":         true,
	"zip":           true,
	"beds":          true,
	"baths":         true,
	"sqft":          true,
	"property_type": true,
	"year_built":    true,
	"features":      true,
	"images":        true,
	"status":        true,
	"mls_number":    true,
}

// UpdateListing applies a partial update. The updates map holds only the
// columns the caller explicitly sent: a missing key is never touched, a
// present key with a nil value clears an optional column. That distinction
// is the whole contract — a plain struct would collapse "not provided"
// into "zero value" and clobber stored data.
//
// Source override: if the stored source is "csv" or "realtracks" before
// the patch, source is forced to "manual" on every update, whether or not
// the caller mentioned it. A manual edit permanently opts the row out of
// automated sync overwrites.
func (s *Service) UpdateListing(ctx context.Context, id uuid.UUID, updates map[string]interface{}) (*domain.Listing, error) {
	var existing domain.Listing
	err := s.DB.WithContext(ctx).Where("listing_id = ?", id).First(&existing).Error
	if err == gorm.ErrRecordNotFound {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	for col, val := range updates {
		if !updatableColumns[col] {
			return nil, validationErr("Unknown field: %s", col)
		}
		switch col {
		case "status":
			st, _ := val.(string)
			if !domain.ValidListingStatus(st) {
				return nil, validationErr("Invalid status: %q", st)
			}
		case "price", "beds", "baths", "sqft":
			n, ok := val.(float64)
			if !ok {
				return nil, validationErr("Field %s must be a number", col)
			}
			if n < 0 {
				return nil, validationErr("Field %s must be non-negative", col)
			}
		case "title", "description", "location", "city", "state":
			if st, ok := val.(string); !ok || st == "" {
				return nil, validationErr("Field %s cannot be cleared", col)
			}
		case "features", "images":
			list, err := toStringList(val)
			if err != nil {
				return nil, validationErr("Field %s must be a list of strings", col)
			}
			updates[col] = list
		}
	}

	if existing.Source != nil &&
		(*existing.Source == domain.SourceCSV || *existing.Source == domain.SourceRealTracks) {
		updates["source"] = domain.SourceManual
	}

	if len(updates) == 0 {
		return &existing, nil
	}

	err = s.DB.WithContext(ctx).Model(&domain.Listing{}).
		Where("listing_id = ?", id).
		Updates(updates).Error
	if err != nil {
		return nil, err
	}

	var updated domain.Listing
	if err := s.DB.WithContext(ctx).Where("listing_id = ?", id).First(&updated).Error; err != nil {
		return nil, err
	}
	s.notify(ctx)
	return &updated, nil
}

// RemoveListing permanently deletes a listing. Deleting an id that does not
// exist is a no-op, not an error. Leads referencing the listing keep their
// dangling listing_id and title snapshot.
func (s *Service) RemoveListing(ctx context.Context, id uuid.UUID) error {
	if err := s.DB.WithContext(ctx).Where("listing_id = ?", id).Delete(&domain.Listing{}).Error; err != nil {
		return err
	}
	s.notify(ctx)
	return nil
}

// toStringList normalizes a decoded JSON value ([]interface{}, []string or
// nil) into a StringList so the json column Valuer applies on map updates.
func toStringList(v interface{}) (domain.StringList, error) {
	switch x := v.(type) {
	case nil:
		return domain.StringList{}, nil
	case domain.StringList:
		return x, nil
	case []string:
		return domain.StringList(x), nil
	case []interface{}:
		out := make(domain.StringList, 0, len(x))
		for _, item := range x {
			s, ok := item.(string)
			if !ok {
				return nil, errors.New("non-string element")
			}
			out = append(out, s)
		}
		return out, nil
	default:
		return nil, errors.New("not a list")
	}
}

func (s *Service) notify(ctx context.Context) {
	if s.Bus == nil {
		return
	}
	if err := s.Bus.Publish(ctx, ChangeChannel); err != nil {
		log.Warn().Err(err).Str("channel", ChangeChannel).Msg("change publish failed")
	}
}

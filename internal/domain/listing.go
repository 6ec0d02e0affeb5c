package domain

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Listing status values. A listing is always in exactly one of these.
const (
	ListingForSale = "for-sale"
	ListingPending = "pending"
	ListingSold    = "sold"
	ListingHidden  = "hidden"
)

// Listing source values — how the row got into the database.
// "manual" rows are never overwritten by automated sync.
const (
	SourceManual     = "manual"
	SourceCSV        = "csv"
	SourceRealTracks = "realtracks"
)

// ValidListingStatus reports whether s is one of the four allowed status literals.
func ValidListingStatus(s string) bool {
	switch s {
	case ListingForSale, ListingPending, ListingSold, ListingHidden:
		return true
	}
	return false
}

// StringList stores an ordered list of strings as a JSON column but keeps
// slice semantics in Go, so API responses send arrays and insertion order
// survives round-trips (image order = display order).
type StringList []string

// MarshalJSON sends nil as [] so the frontend can always .map().
func (s StringList) MarshalJSON() ([]byte, error) {
	if s == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]string(s))
}

// Scan implements sql.Scanner for reading from DB (json column).
func (s *StringList) Scan(value interface{}) error {
	if value == nil {
		*s = nil
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, (*[]string)(s))
	case string:
		return json.Unmarshal([]byte(v), (*[]string)(s))
	default:
		return errors.New("unsupported type for StringList")
	}
}

// Value implements driver.Valuer for writing to DB.
func (s StringList) Value() (driver.Value, error) {
	if s == nil {
		return "[]", nil
	}
	b, err := json.Marshal([]string(s))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Listing is one property on the website. Optional attributes are pointers
// so an untouched field stays NULL instead of collapsing to "" or 0.
type Listing struct {
	ListingID    uuid.UUID  `gorm:"column:listing_id;type:uuid;primaryKey" json:"listing_id"`
	Title        string     `gorm:"column:title;not null" json:"title"`
	Description  string     `gorm:"column:description;not null" json:"description"`
	Price        float64    `gorm:"column:price;type:decimal(14,2);not null" json:"price"`
	Location     string     `gorm:"column:location;not null" json:"location"`
	Address      *string    `gorm:"column:address" json:"address"`
	City         string     `gorm:"column:city;not null" json:"city"`
	State        string     `gorm:"column:state;not null" json:"state"`
	Zip          *string    `gorm:"column:zip" json:"zip"`
	Beds         float64    `gorm:"column:beds;not null" json:"beds"`
	Baths        float64    `gorm:"column:baths;type:decimal(4,1);not null" json:"baths"`
	Sqft         float64    `gorm:"column:sqft;not null" json:"sqft"`
	PropertyType *string    `gorm:"column:property_type" json:"property_type"`
	YearBuilt    *int       `gorm:"column:year_built" json:"year_built"`
	Features     StringList `gorm:"column:features;type:json" json:"features"`
	Images       StringList `gorm:"column:images;type:json" json:"images"`
	Status       string     `gorm:"column:status;type:varchar(20);not null;index:idx_listings_status" json:"status"`
	MlsNumber    *string    `gorm:"column:mls_number" json:"mls_number"`
	Source       *string    `gorm:"column:source;type:varchar(20)" json:"source"`
	CreatedAt    time.Time  `gorm:"column:created_at" json:"created_at"`
	UpdatedAt    time.Time  `gorm:"column:updated_at" json:"updated_at"`
}

func (Listing) TableName() string {
	return "listings"
}

// BeforeCreate sets listing_id if not already set (DBs without default uuid).
func (l *Listing) BeforeCreate(tx *gorm.DB) error {
	if l.ListingID == uuid.Nil {
		l.ListingID = uuid.New()
	}
	return nil
}

package imports

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"savanna-backend/internal/domain"

	"github.com/rs/zerolog/log"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ErrValidation wraps file-level failures (bad header, empty file).
var ErrValidation = errors.New("validation failed")

// Notifier pushes a listings change notification after the import commits.
type Notifier interface {
	Publish(ctx context.Context, channel string) error
}

type Service struct {
	DB  *gorm.DB
	Bus Notifier
}

var requiredColumns = []string{
	"title", "description", "price", "location", "city", "state",
	"beds", "baths", "sqft", "status",
}

// listSep separates multi-value cells (features, images) inside one CSV field.
const listSep = "|"

// ImportCSV reads a header-led CSV of listings and inserts every valid row
// with source tagged "csv". Invalid rows are skipped and reported in the
// returned job — a bad row never aborts the rest of the file. Imported
// rows keep the "csv" tag until an operator edits them, at which point the
// update path re-tags them "manual" and future syncs leave them alone.
func (s *Service) ImportCSV(ctx context.Context, filename string, r io.Reader) (*domain.ImportJob, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("%w: empty or unreadable CSV", ErrValidation)
	}
	col := make(map[string]int, len(header))
	for i, name := range header {
		col[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, name := range requiredColumns {
		if _, ok := col[name]; !ok {
			return nil, fmt.Errorf("%w: missing required column: %s", ErrValidation, name)
		}
	}

	var rowErrors []string
	inserted := 0
	line := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			rowErrors = append(rowErrors, fmt.Sprintf("row %d: %v", line, err))
			continue
		}
		listing, err := rowToListing(col, record)
		if err != nil {
			rowErrors = append(rowErrors, fmt.Sprintf("row %d: %v", line, err))
			continue
		}
		if err := s.DB.WithContext(ctx).Create(listing).Error; err != nil {
			rowErrors = append(rowErrors, fmt.Sprintf("row %d: insert failed: %v", line, err))
			continue
		}
		inserted++
	}

	errJSON, _ := json.Marshal(rowErrors)
	job := &domain.ImportJob{
		Filename:  filename,
		Inserted:  inserted,
		Rejected:  len(rowErrors),
		RowErrors: datatypes.JSON(errJSON),
	}
	if err := s.DB.WithContext(ctx).Create(job).Error; err != nil {
		return nil, err
	}

	if inserted > 0 && s.Bus != nil {
		if err := s.Bus.Publish(ctx, "listings"); err != nil {
			log.Warn().Err(err).Msg("change publish failed after import")
		}
	}
	return job, nil
}

func rowToListing(col map[string]int, record []string) (*domain.Listing, error) {
	cell := func(name string) string {
		i, ok := col[name]
		if !ok || i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	for _, name := range requiredColumns {
		if cell(name) == "" {
			return nil, fmt.Errorf("missing %s", name)
		}
	}
	status := cell("status")
	if !domain.ValidListingStatus(status) {
		return nil, fmt.Errorf("invalid status %q", status)
	}
	price, err := strconv.ParseFloat(cell("price"), 64)
	if err != nil || price < 0 {
		return nil, fmt.Errorf("invalid price %q", cell("price"))
	}
	beds, err := strconv.ParseFloat(cell("beds"), 64)
	if err != nil {
		return nil, fmt.Errorf("invalid beds %q", cell("beds"))
	}
	baths, err := strconv.ParseFloat(cell("baths"), 64)
	if err != nil {
		return nil, fmt.Errorf("invalid baths %q", cell("baths"))
	}
	sqft, err := strconv.ParseFloat(cell("sqft"), 64)
	if err != nil {
		return nil, fmt.Errorf("invalid sqft %q", cell("sqft"))
	}

	source := domain.SourceCSV
	listing := &domain.Listing{
		Title:       cell("title"),
		Description: cell("description"),
		Price:       price,
		Location:    cell("location"),
		City:        cell("city"),
		State:       cell("state"),
		Beds:        beds,
		Baths:       baths,
		Sqft:        sqft,
		Status:      status,
		Features:    splitList(cell("features")),
		Images:      splitList(cell("images")),
		Source:      &source,
	}
	if v := cell("address"); v != "" {
		listing.Address = &v
	}
	if v := cell("zip"); v != "" {
		listing.Zip = &v
	}
	if v := cell("property_type"); v != "" {
		listing.PropertyType = &v
	}
	if v := cell("mls_number"); v != "" {
		listing.MlsNumber = &v
	}
	if v := cell("year_built"); v != "" {
		year, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("invalid year_built %q", v)
		}
		listing.YearBuilt = &year
	}
	return listing, nil
}

func splitList(s string) domain.StringList {
	if s == "" {
		return domain.StringList{}
	}
	parts := strings.Split(s, listSep)
	out := make(domain.StringList, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

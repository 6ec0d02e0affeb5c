package leads

import (
	"context"

	"savanna-backend/internal/domain"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// ChangeChannel is the live-bus channel lead writes publish to.
const ChangeChannel = "leads"

// Notifier pushes a change notification after a committed write. Nil disables publishing.
type Notifier interface {
	Publish(ctx context.Context, channel string) error
}

// LeadMailer sends the operator a heads-up when a new lead lands. Nil = no-op.
type LeadMailer interface {
	SendNewLead(ctx context.Context, lead *domain.Lead) error
}

type Service struct {
	DB     *gorm.DB
	Bus    Notifier
	Mailer LeadMailer
}

// SubmitLeadInput is the public contact form. Only name and email are
// required; nothing is format-validated — raw capture, review is manual.
type SubmitLeadInput struct {
	Name          string
	Email         string
	Phone         *string
	PreferredDate *string
	PreferredTime *string
	Message       *string
	ListingID     *uuid.UUID
	ListingTitle  *string
}

// SubmitLead stores a contact-form submission with status forced to "new".
// Optional fields the visitor left blank stay NULL in the row.
func (s *Service) SubmitLead(ctx context.Context, in SubmitLeadInput) (*domain.Lead, error) {
	if in.Name == "" {
		return nil, validationErr("Missing required field: name")
	}
	if in.Email == "" {
		return nil, validationErr("Missing required field: email")
	}
	lead := &domain.Lead{
		Name:          in.Name,
		Email:         in.Email,
		Phone:         in.Phone,
		PreferredDate: in.PreferredDate,
		PreferredTime: in.PreferredTime,
		Message:       in.Message,
		ListingID:     in.ListingID,
		ListingTitle:  in.ListingTitle,
		Status:        domain.LeadNew,
	}
	if err := s.DB.WithContext(ctx).Create(lead).Error; err != nil {
		return nil, err
	}
	s.notify(ctx)
	if s.Mailer != nil {
		// Fire-and-forget: a failed notification never fails the submission.
		go func(l domain.Lead) {
			if err := s.Mailer.SendNewLead(context.Background(), &l); err != nil {
				log.Warn().Err(err).Str("lead_id", l.LeadID.String()).Msg("new-lead email failed")
			}
		}(*lead)
	}
	return lead, nil
}

// GetAll returns every lead, newest first.
func (s *Service) GetAll(ctx context.Context) ([]domain.Lead, error) {
	out := []domain.Lead{}
	if err := s.DB.WithContext(ctx).Order("created_at DESC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// GetByStatus returns leads with exactly the given status, newest first,
// via the status index.
func (s *Service) GetByStatus(ctx context.Context, status string) ([]domain.Lead, error) {
	if !domain.ValidLeadStatus(status) {
		return nil, validationErr("Invalid status: %q", status)
	}
	out := []domain.Lead{}
	err := s.DB.WithContext(ctx).
		Where("status = ?", status).
		Order("created_at DESC").
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

// UpdateStatus patches exactly the status column. Any of the four statuses
// may be set from any other — there is no forward-only pipeline, and a
// closed lead can reopen. No notification is sent from here.
func (s *Service) UpdateStatus(ctx context.Context, id uuid.UUID, status string) (*domain.Lead, error) {
	if !domain.ValidLeadStatus(status) {
		return nil, validationErr("Invalid status: %q", status)
	}
	res := s.DB.WithContext(ctx).Model(&domain.Lead{}).
		Where("lead_id = ?", id).
		Update("status", status)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, ErrNotFound
	}
	var lead domain.Lead
	if err := s.DB.WithContext(ctx).Where("lead_id = ?", id).First(&lead).Error; err != nil {
		return nil, err
	}
	s.notify(ctx)
	return &lead, nil
}

func (s *Service) notify(ctx context.Context) {
	if s.Bus == nil {
		return
	}
	if err := s.Bus.Publish(ctx, ChangeChannel); err != nil {
		log.Warn().Err(err).Str("channel", ChangeChannel).Msg("change publish failed")
	}
}

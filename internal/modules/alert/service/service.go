package alert

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/punjabready/portal-api/internal/access"
	"github.com/punjabready/portal-api/internal/entity"
	"github.com/punjabready/portal-api/internal/modules/alert/dto"
	"github.com/punjabready/portal-api/internal/modules/alert/repository"
	"github.com/punjabready/portal-api/internal/query"
	"github.com/punjabready/portal-api/pkg/apperror"
	"github.com/punjabready/portal-api/pkg/broadcast"
	"github.com/punjabready/portal-api/pkg/logging"
	"github.com/punjabready/portal-api/pkg/metrics"
	"github.com/punjabready/portal-api/pkg/sanitize"
)

// Channel is the Redis channel carrying live alert events.
const Channel = "alerts:live"

const msgAlertNotFound = "Alert not found"

type AlertService interface {
	GetAlerts(ctx context.Context, principal access.Principal, filter query.AlertFilter, page query.Page) (*dto.AlertListResponse, error)
	GetAlert(ctx context.Context, principal access.Principal, id uuid.UUID) (*dto.AlertEnvelope, error)
	CreateAlert(ctx context.Context, principal access.Principal, req dto.CreateAlertRequest) (*dto.AlertEnvelope, error)
	UpdateAlert(ctx context.Context, principal access.Principal, id uuid.UUID, req dto.UpdateAlertRequest) (*dto.AlertEnvelope, error)
	DeleteAlert(ctx context.Context, principal access.Principal, id uuid.UUID) error
	// Subscribe opens a live feed of alert events.
	Subscribe(ctx context.Context) (broadcast.Subscription, error)
}

type alertService struct {
	repo repository.AlertRepository
	feed broadcast.Feed
	now  func() time.Time
}

func NewAlertService(repo repository.AlertRepository, feed broadcast.Feed) AlertService {
	if feed == nil {
		feed = broadcast.NewMemoryFeed()
	}
	return &alertService{
		repo: repo,
		feed: feed,
		now:  func() time.Time { return time.Now().UTC() },
	}
}

func (s *alertService) GetAlerts(ctx context.Context, principal access.Principal, filter query.AlertFilter, page query.Page) (*dto.AlertListResponse, error) {
	if err := filter.Validate(); err != nil {
		return nil, err
	}

	alerts, total, err := s.repo.FindAll(ctx, filter, principal, s.now(), page)
	if err != nil {
		return nil, err
	}

	res := &dto.AlertListResponse{
		Alerts:     make([]dto.AlertResponse, 0, len(alerts)),
		Pagination: query.NewResult(page, total).Pagination(),
	}
	for _, a := range alerts {
		res.Alerts = append(res.Alerts, dto.NewAlertResponse(a))
	}
	return res, nil
}

func (s *alertService) GetAlert(ctx context.Context, principal access.Principal, id uuid.UUID) (*dto.AlertEnvelope, error) {
	alert, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if !alert.VisibleTo(principal.Role) {
		return nil, apperror.Forbidden("Not authorized to view this alert")
	}
	return &dto.AlertEnvelope{Alert: dto.NewAlertResponse(alert)}, nil
}

func (s *alertService) CreateAlert(ctx context.Context, principal access.Principal, req dto.CreateAlertRequest) (*dto.AlertEnvelope, error) {
	if !access.CanPublishAlert(principal).Allowed() {
		return nil, apperror.Forbidden("Not authorized to publish alerts")
	}

	start := s.now()
	if req.StartDate != nil {
		start = req.StartDate.UTC()
	}
	alert := &entity.Alert{
		Title:          sanitize.Text(req.Title),
		Message:        sanitize.Text(req.Message),
		Type:           req.Type,
		Priority:       req.Priority,
		StartDate:      start,
		EndDate:        utc(req.EndDate),
		IsActive:       true,
		CreatedByID:    principal.ID,
		AffectedAreas:  dto.Areas(req.AffectedAreas),
		ActionRequired: req.ActionRequired,
		ActionURL:      req.ActionURL,
	}
	if req.IsActive != nil {
		alert.IsActive = *req.IsActive
	}
	alert.SetAudiences(req.TargetAudience)

	if err := checkWindow(alert); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, alert); err != nil {
		return nil, err
	}

	res, err := s.envelope(ctx, alert.ID)
	if err != nil {
		return nil, err
	}

	logging.Info().
		Str("alert_id", alert.ID.String()).
		Str("user_id", principal.ID.String()).
		Str("type", alert.Type).
		Msg("alert created")

	if alert.IsActive {
		s.publish(ctx, dto.AlertEvent{Event: dto.EventCreated, ID: alert.ID, Audience: res.Alert.TargetAudience, Alert: &res.Alert})
	}
	return res, nil
}

func (s *alertService) UpdateAlert(ctx context.Context, principal access.Principal, id uuid.UUID, req dto.UpdateAlertRequest) (*dto.AlertEnvelope, error) {
	alert, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if !access.CanAccessAlert(principal, alert.CreatedByID, access.ActionUpdate).Allowed() {
		return nil, apperror.Forbidden("Not authorized to update this alert")
	}

	if req.Title != nil {
		alert.Title = sanitize.Text(*req.Title)
	}
	if req.Message != nil {
		alert.Message = sanitize.Text(*req.Message)
	}
	if req.Type != nil {
		alert.Type = *req.Type
	}
	if req.Priority != nil {
		alert.Priority = *req.Priority
	}
	if req.TargetAudience != nil {
		alert.SetAudiences(req.TargetAudience)
	}
	if req.StartDate != nil {
		alert.StartDate = req.StartDate.UTC()
	}
	if req.EndDate != nil {
		alert.EndDate = utc(req.EndDate)
	}
	if req.IsActive != nil {
		alert.IsActive = *req.IsActive
	}
	if req.AffectedAreas != nil {
		alert.AffectedAreas = dto.Areas(req.AffectedAreas)
	}
	if req.ActionRequired != nil {
		alert.ActionRequired = *req.ActionRequired
	}
	if req.ActionURL != nil {
		alert.ActionURL = *req.ActionURL
	}

	if err := checkWindow(alert); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, alert); err != nil {
		return nil, apperror.FromRepo(err, msgAlertNotFound)
	}

	res, err := s.envelope(ctx, alert.ID)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, dto.AlertEvent{Event: dto.EventUpdated, ID: alert.ID, Audience: res.Alert.TargetAudience, Alert: &res.Alert})
	return res, nil
}

func (s *alertService) DeleteAlert(ctx context.Context, principal access.Principal, id uuid.UUID) error {
	alert, err := s.find(ctx, id)
	if err != nil {
		return err
	}
	if !access.CanAccessAlert(principal, alert.CreatedByID, access.ActionDelete).Allowed() {
		return apperror.Forbidden("Not authorized to delete this alert")
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return apperror.FromRepo(err, msgAlertNotFound)
	}

	logging.Info().
		Str("alert_id", id.String()).
		Str("user_id", principal.ID.String()).
		Msg("alert deleted")

	s.publish(ctx, dto.AlertEvent{Event: dto.EventDeleted, ID: id, Audience: alert.Audiences()})
	return nil
}

func (s *alertService) Subscribe(ctx context.Context) (broadcast.Subscription, error) {
	return s.feed.Subscribe(ctx)
}

// publish is best-effort; the alert is already stored.
func (s *alertService) publish(ctx context.Context, ev dto.AlertEvent) {
	payload, err := json.Marshal(ev)
	if err == nil {
		err = s.feed.Publish(ctx, payload)
	}
	if err != nil {
		logging.Warn().Err(err).Str("alert_id", ev.ID.String()).Str("event", ev.Event).Msg("failed to publish alert event")
		return
	}
	if ev.Alert != nil {
		metrics.AlertsPublishedTotal.WithLabelValues(ev.Alert.Type).Inc()
	}
}

func checkWindow(a *entity.Alert) error {
	if a.EndDate != nil && a.EndDate.Before(a.StartDate) {
		return apperror.Validation("Validation failed", apperror.FieldError{
			Field:   "endDate",
			Message: "endDate must not be before startDate",
		})
	}
	return nil
}

func utc(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}

func (s *alertService) find(ctx context.Context, id uuid.UUID) (*entity.Alert, error) {
	alert, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, apperror.FromRepo(err, msgAlertNotFound)
	}
	return alert, nil
}

func (s *alertService) envelope(ctx context.Context, id uuid.UUID) (*dto.AlertEnvelope, error) {
	alert, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	return &dto.AlertEnvelope{Alert: dto.NewAlertResponse(alert)}, nil
}

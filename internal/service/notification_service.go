package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"fleet-backend/internal/model"
	"fleet-backend/internal/repository"
	ws "fleet-backend/internal/websocket"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// --- DTOs ---

type NotificationResponse struct {
	ID            string    `json:"id"`
	Type          string    `json:"type"`
	Recipient     string    `json:"recipient"`
	RecipientType string    `json:"recipient_type"`
	Message       string    `json:"message"`
	RequestID     string    `json:"request_id"`
	Read          bool      `json:"read"`
	CreatedAt     time.Time `json:"created_at"`
}

type NotificationFilter struct {
	Recipient  string
	UnreadOnly bool
	Page       int
	Limit      int
}

// --- Interface ---

// NotificationService records transition messages for the requester or driver
// and pushes them to connected dashboard clients. Delivery is a best-effort
// local log, not a real channel; dispatch itself never fails a transition.
type NotificationService interface {
	Dispatch(ctx context.Context, notifType, recipient, recipientType, message string, requestID uuid.UUID) (NotificationResponse, error)
	NotifyAssignment(ctx context.Context, request *model.TransportRequest, vehicle *model.Vehicle, driver *model.Driver)
	NotifyCancellation(ctx context.Context, request *model.TransportRequest, reason string)
	NotifyCompletion(ctx context.Context, request *model.TransportRequest, driver *model.Driver)
	ListNotifications(ctx context.Context, filter NotificationFilter) ([]NotificationResponse, int64, error)
	MarkRead(ctx context.Context, id string) error
	MarkAllRead(ctx context.Context, recipient string) (int64, error)
	UnreadCount(ctx context.Context, recipient string) (int64, error)
}

type notificationService struct {
	notificationRepo repository.NotificationRepository
	hub              *ws.Hub
}

func NewNotificationService(notificationRepo repository.NotificationRepository, hub *ws.Hub) NotificationService {
	return &notificationService{notificationRepo: notificationRepo, hub: hub}
}

// --- Implementation ---

func (s *notificationService) Dispatch(ctx context.Context, notifType, recipient, recipientType, message string, requestID uuid.UUID) (NotificationResponse, error) {
	notification := model.Notification{
		Type:          notifType,
		Recipient:     recipient,
		RecipientType: recipientType,
		Message:       message,
		RequestID:     requestID,
	}

	if err := s.notificationRepo.Create(ctx, &notification); err != nil {
		return NotificationResponse{}, fmt.Errorf("failed to store notification: %w", err)
	}

	s.broadcast(notification)

	return toNotificationResponse(notification), nil
}

func (s *notificationService) NotifyAssignment(ctx context.Context, request *model.TransportRequest, vehicle *model.Vehicle, driver *model.Driver) {
	toRequester := fmt.Sprintf(
		"Your vehicle request for %s has been approved.\nAssigned vehicle: %s %s (%s)\nAssigned driver: %s - Tel: %s\nDate: %s",
		request.Destination, vehicle.Make, vehicle.Model, vehicle.Plate,
		driver.Name, driver.Contact, request.Date.Format("2006-01-02"),
	)
	if _, err := s.Dispatch(ctx, model.NotificationAssignment, requesterRecipient(request), model.RecipientRequester, toRequester, request.ID); err != nil {
		log.Printf("WARNING: failed to notify requester of assignment: %v", err)
	}

	toDriver := fmt.Sprintf(
		"You have been assigned a new service:\nRequester: %s (%s)\nOrigin: %s\nDestination: %s\nDate: %s\nPassengers: %d\n\nPlease confirm your availability.",
		request.Requester, request.Department, request.Origin, request.Destination,
		request.Date.Format("2006-01-02"), request.Passengers,
	)
	if _, err := s.Dispatch(ctx, model.NotificationAssignment, driver.Name, model.RecipientDriver, toDriver, request.ID); err != nil {
		log.Printf("WARNING: failed to notify driver of assignment: %v", err)
	}
}

func (s *notificationService) NotifyCancellation(ctx context.Context, request *model.TransportRequest, reason string) {
	message := fmt.Sprintf("Your vehicle request %s has been canceled.", request.ID)
	if reason != "" {
		message += "\nReason: " + reason
	}
	message += "\nFor more information, contact the fleet management office."

	if _, err := s.Dispatch(ctx, model.NotificationCancellation, requesterRecipient(request), model.RecipientRequester, message, request.ID); err != nil {
		log.Printf("WARNING: failed to notify requester of cancellation: %v", err)
	}
}

func (s *notificationService) NotifyCompletion(ctx context.Context, request *model.TransportRequest, driver *model.Driver) {
	driverName := ""
	if driver != nil {
		driverName = driver.Name
	}
	message := fmt.Sprintf(
		"The service requested for %s has been completed successfully.\nDriver: %s\nDate: %s\n\nPlease rate the service.",
		request.Destination, driverName, request.Date.Format("2006-01-02"),
	)

	if _, err := s.Dispatch(ctx, model.NotificationCompletion, requesterRecipient(request), model.RecipientRequester, message, request.ID); err != nil {
		log.Printf("WARNING: failed to notify requester of completion: %v", err)
	}
}

func (s *notificationService) ListNotifications(ctx context.Context, filter NotificationFilter) ([]NotificationResponse, int64, error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.Limit <= 0 {
		filter.Limit = 20
	}

	notifications, total, err := s.notificationRepo.List(ctx, filter.Recipient, filter.UnreadOnly, filter.Page, filter.Limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to fetch notifications: %w", err)
	}

	result := make([]NotificationResponse, 0, len(notifications))
	for _, n := range notifications {
		result = append(result, toNotificationResponse(n))
	}

	return result, total, nil
}

func (s *notificationService) MarkRead(ctx context.Context, id string) error {
	notifID, err := uuid.Parse(id)
	if err != nil {
		return fmt.Errorf("invalid notification id: %w", ErrValidation)
	}

	ok, err := s.notificationRepo.MarkRead(ctx, notifID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("notification %s: %w", id, ErrNotFound)
		}
		return err
	}
	if !ok {
		return fmt.Errorf("notification %s: %w", id, ErrNotFound)
	}
	return nil
}

func (s *notificationService) MarkAllRead(ctx context.Context, recipient string) (int64, error) {
	return s.notificationRepo.MarkAllRead(ctx, recipient)
}

func (s *notificationService) UnreadCount(ctx context.Context, recipient string) (int64, error) {
	return s.notificationRepo.CountUnread(ctx, recipient)
}

// --- Helpers ---

// broadcast pushes the notification to dashboard websocket clients. The hub is
// optional and the send must never block a transition.
func (s *notificationService) broadcast(notification model.Notification) {
	if s.hub == nil {
		return
	}
	payload, err := json.Marshal(map[string]interface{}{
		"event": "notification",
		"data":  toNotificationResponse(notification),
	})
	if err != nil {
		return
	}
	select {
	case s.hub.Broadcast <- payload:
	default:
	}
}

// requesterRecipient prefers the requester's email when one was provided.
func requesterRecipient(request *model.TransportRequest) string {
	if request.RequesterEmail != "" {
		return request.RequesterEmail
	}
	return request.Requester
}

func toNotificationResponse(n model.Notification) NotificationResponse {
	return NotificationResponse{
		ID:            n.ID.String(),
		Type:          n.Type,
		Recipient:     n.Recipient,
		RecipientType: n.RecipientType,
		Message:       n.Message,
		RequestID:     n.RequestID.String(),
		Read:          n.Read,
		CreatedAt:     n.CreatedAt,
	}
}

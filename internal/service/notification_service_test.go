package service

import (
	"errors"
	"strings"
	"testing"

	"fleet-backend/internal/model"

	"github.com/google/uuid"
)

func TestNotifyAssignmentMessages(t *testing.T) {
	env := newTestEnv(t)
	vehicle := seedVehicle(t, env.db, "NTF-001", model.VehicleAvailable)
	driver := seedDriver(t, env.db, "Jorge Ortiz", "LIC-N01", model.DriverAvailable)
	request := seedRequest(t, env.db, "Elena Mora", model.RequestPending)

	if _, err := env.assignments.Assign(testCtx, request.ID.String(), vehicle.ID.String(), driver.ID.String(), false); err != nil {
		t.Fatalf("Assign: %v", err)
	}

	notifications, total, err := env.notification.ListNotifications(testCtx, NotificationFilter{})
	if err != nil {
		t.Fatalf("ListNotifications: %v", err)
	}
	if total != 2 {
		t.Fatalf("total = %d, want 2", total)
	}

	byRecipientType := map[string]NotificationResponse{}
	for _, n := range notifications {
		byRecipientType[n.RecipientType] = n
	}

	requesterMsg, ok := byRecipientType[model.RecipientRequester]
	if !ok {
		t.Fatal("no notification for the requester")
	}
	if !strings.Contains(requesterMsg.Message, "NTF-001") {
		t.Errorf("requester message lacks vehicle plate: %q", requesterMsg.Message)
	}
	if !strings.Contains(requesterMsg.Message, "Jorge Ortiz") {
		t.Errorf("requester message lacks driver name: %q", requesterMsg.Message)
	}

	driverMsg, ok := byRecipientType[model.RecipientDriver]
	if !ok {
		t.Fatal("no notification for the driver")
	}
	if !strings.Contains(driverMsg.Message, "Elena Mora") {
		t.Errorf("driver message lacks requester name: %q", driverMsg.Message)
	}
	if driverMsg.Recipient != "Jorge Ortiz" {
		t.Errorf("driver recipient = %q, want %q", driverMsg.Recipient, "Jorge Ortiz")
	}
}

func TestMarkReadAndUnreadCount(t *testing.T) {
	env := newTestEnv(t)
	request := seedRequest(t, env.db, "Reader", model.RequestPending)

	first, err := env.notification.Dispatch(testCtx, model.NotificationApproval, "reader@fleet", model.RecipientRequester, "approved", request.ID)
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if _, err := env.notification.Dispatch(testCtx, model.NotificationApproval, "reader@fleet", model.RecipientRequester, "approved again", request.ID); err != nil {
		t.Fatalf("Dispatch: %v", err)
	}

	count, err := env.notification.UnreadCount(testCtx, "reader@fleet")
	if err != nil {
		t.Fatalf("UnreadCount: %v", err)
	}
	if count != 2 {
		t.Errorf("unread = %d, want 2", count)
	}

	if err := env.notification.MarkRead(testCtx, first.ID); err != nil {
		t.Fatalf("MarkRead: %v", err)
	}
	count, _ = env.notification.UnreadCount(testCtx, "reader@fleet")
	if count != 1 {
		t.Errorf("unread after MarkRead = %d, want 1", count)
	}

	if err := env.notification.MarkRead(testCtx, uuid.NewString()); !errors.Is(err, ErrNotFound) {
		t.Fatalf("MarkRead unknown err = %v, want ErrNotFound", err)
	}

	updated, err := env.notification.MarkAllRead(testCtx, "reader@fleet")
	if err != nil {
		t.Fatalf("MarkAllRead: %v", err)
	}
	if updated != 1 {
		t.Errorf("MarkAllRead updated = %d, want 1", updated)
	}
	count, _ = env.notification.UnreadCount(testCtx, "reader@fleet")
	if count != 0 {
		t.Errorf("unread after MarkAllRead = %d, want 0", count)
	}
}

func TestListNotificationsUnreadFilter(t *testing.T) {
	env := newTestEnv(t)
	request := seedRequest(t, env.db, "Filter", model.RequestPending)

	n, err := env.notification.Dispatch(testCtx, model.NotificationApproval, "a@fleet", model.RecipientRequester, "one", request.ID)
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if _, err := env.notification.Dispatch(testCtx, model.NotificationApproval, "a@fleet", model.RecipientRequester, "two", request.ID); err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if err := env.notification.MarkRead(testCtx, n.ID); err != nil {
		t.Fatalf("MarkRead: %v", err)
	}

	_, total, err := env.notification.ListNotifications(testCtx, NotificationFilter{Recipient: "a@fleet", UnreadOnly: true})
	if err != nil {
		t.Fatalf("ListNotifications: %v", err)
	}
	if total != 1 {
		t.Errorf("unread total = %d, want 1", total)
	}
}

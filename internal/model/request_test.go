package model

import (
	"testing"

	"github.com/google/uuid"
)

func TestCanTransition(t *testing.T) {
	cases := []struct {
		name string
		from string
		to   string
		want bool
	}{
		{"pending to approved", RequestPending, RequestApproved, true},
		{"pending to in progress", RequestPending, RequestInProgress, true},
		{"pending to canceled", RequestPending, RequestCanceled, true},
		{"pending to completed", RequestPending, RequestCompleted, false},
		{"approved to in progress", RequestApproved, RequestInProgress, true},
		{"approved to completed", RequestApproved, RequestCompleted, true},
		{"approved to canceled", RequestApproved, RequestCanceled, true},
		{"approved to pending", RequestApproved, RequestPending, false},
		{"in progress to completed", RequestInProgress, RequestCompleted, true},
		{"in progress to canceled", RequestInProgress, RequestCanceled, true},
		{"in progress to approved", RequestInProgress, RequestApproved, false},
		{"completed to canceled", RequestCompleted, RequestCanceled, false},
		{"completed to pending", RequestCompleted, RequestPending, false},
		{"canceled to pending", RequestCanceled, RequestPending, false},
		{"canceled to approved", RequestCanceled, RequestApproved, false},
		{"unknown status", "BOGUS", RequestApproved, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := CanTransition(tc.from, tc.to); got != tc.want {
				t.Errorf("CanTransition(%s, %s) = %v, want %v", tc.from, tc.to, got, tc.want)
			}
		})
	}
}

func TestIsTerminalStatus(t *testing.T) {
	for _, status := range []string{RequestPending, RequestApproved, RequestInProgress} {
		if IsTerminalStatus(status) {
			t.Errorf("IsTerminalStatus(%s) = true, want false", status)
		}
	}
	for _, status := range []string{RequestCompleted, RequestCanceled} {
		if !IsTerminalStatus(status) {
			t.Errorf("IsTerminalStatus(%s) = false, want true", status)
		}
	}
}

func TestHasResources(t *testing.T) {
	var r TransportRequest
	if r.HasResources() {
		t.Error("request without vehicle or driver reports resources")
	}

	vehicleID := uuid.New()
	r.VehicleID = &vehicleID
	if r.HasResources() {
		t.Error("request with vehicle only reports resources")
	}

	driverID := uuid.New()
	r.DriverID = &driverID
	if !r.HasResources() {
		t.Error("request with vehicle and driver reports no resources")
	}
}

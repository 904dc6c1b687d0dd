package policy

import (
	"errors"
	"testing"

	"github.com/md-rashed-zaman/slotbook/services/booking-service/internal/model"
)

var (
	provider = model.Identity{ID: "p1", Role: model.RoleProvider}
	client   = model.Identity{ID: "c1", Role: model.RoleClient}
)

func TestEvaluate_RoleGates(t *testing.T) {
	cases := []struct {
		action Action
		actor  model.Identity
		want   bool
	}{
		{ActionPublishWindow, provider, true},
		{ActionPublishWindow, client, false},
		{ActionBook, client, true},
		{ActionBook, provider, false},
		{ActionCancel, client, true},
		{ActionCancel, provider, false},
		{ActionListOwnWindows, provider, true},
		{ActionListOwnWindows, client, false},
		{ActionListOwnReservations, client, true},
		{ActionListOwnReservations, provider, false},
		{ActionListProviderBookings, provider, true},
		{ActionListProviderBookings, client, false},
	}
	for _, tc := range cases {
		got := Evaluate(tc.action, Request{Actor: tc.actor})
		if got.Allowed != tc.want {
			t.Fatalf("%s as %s: allowed=%v, want %v (reason %q)", tc.action, tc.actor.Role, got.Allowed, tc.want, got.Reason)
		}
		if !got.Allowed && got.Reason == "" {
			t.Fatalf("%s as %s: denial without reason", tc.action, tc.actor.Role)
		}
	}
}

func TestEvaluate_Ownership(t *testing.T) {
	if !Evaluate(ActionRescheduleWindow, Request{Actor: provider, OwnerID: "p1"}).Allowed {
		t.Fatal("owner must be allowed to reschedule")
	}
	if Evaluate(ActionRescheduleWindow, Request{Actor: provider, OwnerID: "p2"}).Allowed {
		t.Fatal("non-owner must not reschedule")
	}
	if Evaluate(ActionRetireWindow, Request{Actor: provider}).Allowed {
		t.Fatal("missing owner must deny")
	}

	if !Evaluate(ActionViewReservation, Request{Actor: client, OwnerID: "c1", ProviderID: "p1"}).Allowed {
		t.Fatal("client owning the reservation must view it")
	}
	if Evaluate(ActionViewReservation, Request{Actor: client, OwnerID: "c2", ProviderID: "p1"}).Allowed {
		t.Fatal("other client must not view it")
	}
	if !Evaluate(ActionViewReservation, Request{Actor: provider, OwnerID: "c1", ProviderID: "p1"}).Allowed {
		t.Fatal("provider of the window must view it")
	}
	if Evaluate(ActionViewReservation, Request{Actor: model.Identity{ID: "p2", Role: model.RoleProvider}, OwnerID: "c1", ProviderID: "p1"}).Allowed {
		t.Fatal("other provider must not view it")
	}
}

func TestAuthorize(t *testing.T) {
	if err := Authorize(ActionBook, Request{Actor: client}); err != nil {
		t.Fatalf("expected nil, got %v", err)
	}
	err := Authorize(ActionBook, Request{Actor: provider})
	if !errors.Is(err, model.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	if err := Authorize(ActionBook, Request{Actor: model.Identity{Role: model.RoleClient}}); !errors.Is(err, model.ErrForbidden) {
		t.Fatalf("anonymous actor must be forbidden, got %v", err)
	}
	if err := Authorize(ActionBook, Request{Actor: model.Identity{ID: "x", Role: "admin"}}); !errors.Is(err, model.ErrForbidden) {
		t.Fatalf("unknown role must be forbidden, got %v", err)
	}
}

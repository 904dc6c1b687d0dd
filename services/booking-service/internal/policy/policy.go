// Package policy decides whether an identity may perform an action.
//
// Rules are keyed by (action, role). A missing rule denies.
package policy

import (
	"fmt"

	"github.com/md-rashed-zaman/slotbook/services/booking-service/internal/model"
)

type Action string

const (
	ActionPublishWindow        Action = "window.publish"
	ActionRescheduleWindow     Action = "window.reschedule"
	ActionRetireWindow         Action = "window.retire"
	ActionListOwnWindows       Action = "window.list_own"
	ActionBook                 Action = "reservation.book"
	ActionCancel               Action = "reservation.cancel"
	ActionViewReservation      Action = "reservation.view"
	ActionListOwnReservations  Action = "reservation.list_own"
	ActionListProviderBookings Action = "reservation.list_provider"
)

// Request carries the facts a rule may inspect. OwnerID is the owner of the
// target resource and ProviderID the provider of the window it concerns;
// either may be empty when the action has no target yet.
type Request struct {
	Actor      model.Identity
	OwnerID    string
	ProviderID string
}

type Decision struct {
	Allowed bool
	Reason  string
}

type rule func(Request) Decision

type key struct {
	action Action
	role   model.Role
}

func allow(Request) Decision { return Decision{Allowed: true} }

func deny(reason string) rule {
	return func(Request) Decision { return Decision{Reason: reason} }
}

func ownerOnly(reason string) rule {
	return func(r Request) Decision {
		if r.OwnerID != "" && r.OwnerID == r.Actor.ID {
			return Decision{Allowed: true}
		}
		return Decision{Reason: reason}
	}
}

func providerOnly(reason string) rule {
	return func(r Request) Decision {
		if r.ProviderID != "" && r.ProviderID == r.Actor.ID {
			return Decision{Allowed: true}
		}
		return Decision{Reason: reason}
	}
}

var rules = map[key]rule{
	{ActionPublishWindow, model.RoleProvider}: allow,
	{ActionPublishWindow, model.RoleClient}:   deny("only consultants can create time slots"),

	{ActionRescheduleWindow, model.RoleProvider}: ownerOnly("you can only update your own time slots"),
	{ActionRescheduleWindow, model.RoleClient}:   deny("you can only update your own time slots"),

	{ActionRetireWindow, model.RoleProvider}: ownerOnly("you can only delete your own time slots"),
	{ActionRetireWindow, model.RoleClient}:   deny("you can only delete your own time slots"),

	{ActionListOwnWindows, model.RoleProvider}: allow,
	{ActionListOwnWindows, model.RoleClient}:   deny("only consultants can view their time slots"),

	{ActionBook, model.RoleClient}:   allow,
	{ActionBook, model.RoleProvider}: deny("only clients can make reservations"),

	// Ownership of the reservation itself is checked by the store on delete.
	{ActionCancel, model.RoleClient}:   allow,
	{ActionCancel, model.RoleProvider}: deny("you can only cancel your own reservations"),

	{ActionViewReservation, model.RoleClient}:   ownerOnly("you can only view your own reservations or reservations for your time slots"),
	{ActionViewReservation, model.RoleProvider}: providerOnly("you can only view your own reservations or reservations for your time slots"),

	{ActionListOwnReservations, model.RoleClient}:   allow,
	{ActionListOwnReservations, model.RoleProvider}: deny("only clients can view reservations"),

	{ActionListProviderBookings, model.RoleProvider}: allow,
	{ActionListProviderBookings, model.RoleClient}:   deny("only consultants can view their reservations"),
}

// Evaluate returns the decision for action under r.
func Evaluate(action Action, r Request) Decision {
	if r.Actor.ID == "" {
		return Decision{Reason: "unauthenticated"}
	}
	fn, ok := rules[key{action: action, role: r.Actor.Role}]
	if !ok {
		return Decision{Reason: fmt.Sprintf("%s is not permitted for role %q", action, r.Actor.Role)}
	}
	return fn(r)
}

// Authorize is Evaluate expressed as an error wrapping model.ErrForbidden.
func Authorize(action Action, r Request) error {
	d := Evaluate(action, r)
	if d.Allowed {
		return nil
	}
	return fmt.Errorf("%w: %s", model.ErrForbidden, d.Reason)
}

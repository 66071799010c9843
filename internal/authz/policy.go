// Package authz holds the single authorization policy of the API. Handlers
// describe what they are about to do and ask Authorize; no handler checks
// roles on its own.
package authz

import (
	"fmt"

	"github.com/iliyamo/conductor/internal/apperr"
	"github.com/iliyamo/conductor/internal/model"
)

// Kind names a protected resource type.
type Kind string

const (
	User        Kind = "user"
	Task        Kind = "task"
	WorkHour    Kind = "work_hour"
	Project     Kind = "project"
	Client      Kind = "client"
	Payment     Kind = "monthly_payment"
	InvoiceItem Kind = "invoice_item"
)

// Action is what the actor wants to do.
type Action string

const (
	Read       Action = "read"
	Create     Action = "create"
	Update     Action = "update"
	Delete     Action = "delete"
	ChangeRole Action = "change_role"
	// ListAll reads rows owned by other users, e.g. ?user_id= filters.
	ListAll Action = "list_all"
)

// Actor is the authenticated caller.
type Actor struct {
	ID   uint64
	Role model.Role
}

// Resource describes the row being acted on. OwnerID is the user the row
// belongs to (the user itself for Kind User). AssignTo is set when a create or
// update would place the row under a user, zero otherwise.
type Resource struct {
	Kind     Kind
	OwnerID  uint64
	AssignTo uint64
}

// On is shorthand for a resource owned by ownerID.
func On(kind Kind, ownerID uint64) Resource {
	return Resource{Kind: kind, OwnerID: ownerID}
}

// Allowed evaluates the policy.
func Allowed(actor Actor, res Resource, action Action) bool {
	if actor.Role.IsAdmin() {
		return true
	}
	if res.AssignTo != 0 && res.AssignTo != actor.ID {
		return false
	}
	own := res.OwnerID == actor.ID

	switch res.Kind {
	case User:
		switch action {
		case Read, Update:
			return own
		}
		return false
	case Task:
		switch action {
		case Read, Update:
			return own
		case Create:
			// new rows carry the creator as owner
			return own || res.OwnerID == 0
		}
		return false
	case WorkHour:
		switch action {
		case Read, Update, Delete:
			return own
		case Create:
			return own || res.OwnerID == 0
		}
		return false
	case Project, Client:
		return action == Read
	case Payment, InvoiceItem:
		return action == Read && own
	}
	return false
}

// Authorize returns an Authorization error when the policy denies.
func Authorize(actor Actor, res Resource, action Action) error {
	if Allowed(actor, res, action) {
		return nil
	}
	return apperr.Forbidden(fmt.Sprintf("You are not authorized to %s this %s", verb(action), noun(res.Kind)))
}

func verb(a Action) string {
	switch a {
	case ChangeRole:
		return "change the role of"
	case ListAll:
		return "list"
	}
	return string(a)
}

func noun(k Kind) string {
	switch k {
	case WorkHour:
		return "work hour"
	case Payment:
		return "monthly payment"
	case InvoiceItem:
		return "invoice item"
	}
	return string(k)
}

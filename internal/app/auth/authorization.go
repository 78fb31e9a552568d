// Package auth decides whether a caller may perform an action on a resource.
// Decisions depend only on the arguments; callers load the owner beforehand.
package auth

import (
	"fmt"

	"github.com/yigit/campusblog/internal/app/models"
	"github.com/yigit/campusblog/internal/pkg/apperrors"
)

// Action is an operation a caller wants to perform
type Action string

const (
	ActionRead   Action = "read"
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
	ActionVerify Action = "verify"
)

// ResourceKind names the type of resource being accessed
type ResourceKind string

const (
	KindUser         ResourceKind = "user"
	KindPost         ResourceKind = "post"
	KindComment      ResourceKind = "comment"
	KindEvent        ResourceKind = "event"
	KindLike         ResourceKind = "like"
	KindRegistration ResourceKind = "registration"
)

// Resource identifies the target of an action. OwnerID is the author of a post
// or comment, the host of an event, or the user itself for KindUser. It is
// zero for creations.
type Resource struct {
	Kind    ResourceKind
	OwnerID int64
}

// Post returns the resource describing a post written by authorID
func Post(authorID int64) Resource { return Resource{Kind: KindPost, OwnerID: authorID} }

// Comment returns the resource describing a comment written by authorID
func Comment(authorID int64) Resource { return Resource{Kind: KindComment, OwnerID: authorID} }

// Event returns the resource describing an event hosted by hostID
func Event(hostID int64) Resource { return Resource{Kind: KindEvent, OwnerID: hostID} }

// User returns the resource describing the account userID
func User(userID int64) Resource { return Resource{Kind: KindUser, OwnerID: userID} }

// Authorize returns nil when caller may perform action on res. A nil caller is
// anonymous. Failures are apperrors.ErrUnauthenticated or a forbidden error
// matching apperrors.ErrPermissionDenied.
func Authorize(caller *models.User, action Action, res Resource) error {
	if action == ActionRead {
		return nil
	}
	if caller == nil {
		return apperrors.ErrUnauthenticated
	}

	switch action {
	case ActionCreate:
		return nil

	case ActionUpdate, ActionDelete:
		switch res.Kind {
		case KindPost, KindComment:
			if caller.ID == res.OwnerID || caller.IsVerified {
				return nil
			}
			return forbidden(action, res.Kind, "author")

		case KindEvent:
			if caller.ID == res.OwnerID || caller.IsVerified {
				return nil
			}
			return forbidden(action, res.Kind, "host")

		case KindUser:
			if action == ActionDelete {
				// Self deletion is refused even for administrators.
				if caller.ID == res.OwnerID {
					return apperrors.NewForbiddenError("you cannot delete your own account")
				}
				if caller.IsVerified {
					return nil
				}
				return apperrors.NewForbiddenError("only an administrator can delete users")
			}
			if caller.ID == res.OwnerID || caller.IsVerified {
				return nil
			}
			return forbidden(action, res.Kind, "account owner")

		case KindLike, KindRegistration:
			// Toggling only ever touches the caller's own entry.
			return nil
		}

	case ActionVerify:
		if res.Kind == KindUser && caller.IsVerified {
			return nil
		}
		return apperrors.NewForbiddenError("only an administrator can change verification")
	}

	return apperrors.NewForbiddenError(fmt.Sprintf("action %q is not allowed on %s", action, res.Kind))
}

func forbidden(action Action, kind ResourceKind, owner string) error {
	return apperrors.NewForbiddenError(fmt.Sprintf("only the %s or an administrator can %s this %s", owner, action, kind))
}

// IsAdmin reports whether user holds administrative rights
func IsAdmin(user *models.User) bool {
	return user != nil && user.IsVerified
}

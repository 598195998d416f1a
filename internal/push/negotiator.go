// Package push mediates browser push delivery through the push gateway. The
// negotiator decides whether a notification is mirrored as a native alert;
// the platform behind it is the gateway fronting the actual browser
// subscriptions.
package push

import (
	"context"
	"log"
	"time"
)

// Permission is the platform permission state for a user.
type Permission string

const (
	PermissionGranted Permission = "granted"
	PermissionDenied  Permission = "denied"
	PermissionDefault Permission = "default"
)

// Capabilities reports what the platform can do. Both must be present for
// push delivery to be supported at all.
type Capabilities struct {
	Alerts bool `json:"alerts"`
	Worker bool `json:"serviceWorker"`
}

// Alert is a native push alert as handed to the platform. The tag lets the
// platform collapse repeated alerts for the same notification.
type Alert struct {
	Title              string `json:"title"`
	Body               string `json:"body"`
	Tag                string `json:"tag"`
	RequireInteraction bool   `json:"requireInteraction"`
}

// Platform is the capability surface the negotiator works against. The HTTP
// gateway implements it in production; tests use a fake.
type Platform interface {
	Capabilities(ctx context.Context) (Capabilities, error)
	Permission(ctx context.Context, userID string) (Permission, error)
	RequestPermission(ctx context.Context, userID string) (Permission, error)
	ShowAlert(ctx context.Context, userID string, alert Alert) error
	CloseAlert(ctx context.Context, userID, tag string) error
}

// alertTTL is how long an undismissed alert stays up before the negotiator
// closes it.
const alertTTL = 5 * time.Second

// Negotiator wraps the platform with the deny-on-error semantics the engine
// relies on: no call here ever surfaces an error to its caller.
type Negotiator struct {
	platform Platform
	ttl      time.Duration
}

func NewNegotiator(platform Platform) *Negotiator {
	return &Negotiator{platform: platform, ttl: alertTTL}
}

// IsSupported reports whether the platform exposes both the alert and the
// background-worker capability. An unreachable platform is unsupported.
func (n *Negotiator) IsSupported(ctx context.Context) bool {
	if n.platform == nil {
		return false
	}
	caps, err := n.platform.Capabilities(ctx)
	if err != nil {
		return false
	}
	return caps.Alerts && caps.Worker
}

// PermissionGranted reports whether the user's permission is currently
// granted.
func (n *Negotiator) PermissionGranted(ctx context.Context, userID string) bool {
	return n.permission(ctx, userID) == PermissionGranted
}

// PermissionDenied reports whether the user's permission is currently
// denied. Note that an error reads as "default", not denied: an unreachable
// platform must not flip a user's stored push preference off.
func (n *Negotiator) PermissionDenied(ctx context.Context, userID string) bool {
	return n.permission(ctx, userID) == PermissionDenied
}

func (n *Negotiator) permission(ctx context.Context, userID string) Permission {
	if n.platform == nil {
		return PermissionDefault
	}
	p, err := n.platform.Permission(ctx, userID)
	if err != nil {
		log.Printf("push: permission query for %s: %v", userID, err)
		return PermissionDefault
	}
	return p
}

// RequestPermission asks the platform to prompt the user. Any error during
// the request is treated as a denial.
func (n *Negotiator) RequestPermission(ctx context.Context, userID string) bool {
	if n.platform == nil {
		return false
	}
	p, err := n.platform.RequestPermission(ctx, userID)
	if err != nil {
		log.Printf("push: permission request for %s: %v", userID, err)
		return false
	}
	return p == PermissionGranted
}

// Dispatch mirrors a notification to a native alert when delivery is
// possible and wanted: the platform is supported, the user's permission is
// granted, and their push setting is on. The alert is tagged with the
// notification id and self-closes after the TTL if not already dismissed.
// Failures are logged and swallowed; the ledger entry is already committed
// by the time dispatch runs.
func (n *Negotiator) Dispatch(ctx context.Context, userID, id, title, message string, pushEnabled bool) {
	if !pushEnabled {
		return
	}
	if !n.IsSupported(ctx) || !n.PermissionGranted(ctx, userID) {
		return
	}

	alert := Alert{
		Title:              title,
		Body:               message,
		Tag:                id,
		RequireInteraction: false,
	}
	if err := n.platform.ShowAlert(ctx, userID, alert); err != nil {
		log.Printf("push: show alert %s for %s: %v", id, userID, err)
		return
	}

	time.AfterFunc(n.ttl, func() {
		// Detached from the request context; closing an already-dismissed
		// alert is a no-op at the platform.
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := n.platform.CloseAlert(closeCtx, userID, id); err != nil {
			log.Printf("push: close alert %s for %s: %v", id, userID, err)
		}
	})
}

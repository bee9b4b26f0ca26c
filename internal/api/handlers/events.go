// Package handlers contains the HTTP handler implementations for the
// CourseHub API.
//
// This file holds the minimal webhook event representations shared by the
// Clerk and Stripe webhook handlers. Both providers deliver envelopes with a
// type discriminator and a data payload; only the fields the pipeline needs
// are decoded, keeping the handlers independent of full vendor SDK event
// types and easy to exercise with fixture JSON.
package handlers

import (
	"encoding/json"
	"strings"

	"coursehub/internal/identity"
)

// ---------------------------------------------------------------------------
// Identity (Clerk) events
// ---------------------------------------------------------------------------

// clerkEvent is the svix delivery envelope: a type discriminator and the
// user object the event concerns.
type clerkEvent struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// clerkUserData carries the user fields the sync path consumes. Clerk splits
// the display name and ships email addresses as a list; the first entry is
// the primary address.
type clerkUserData struct {
	ID              string              `json:"id"`
	EmailAddresses  []clerkEmailAddress `json:"email_addresses"`
	FirstName       string              `json:"first_name"`
	LastName        string              `json:"last_name"`
	ImageURL        string              `json:"image_url"`
	ProfileImageURL string              `json:"profile_image_url"`
}

type clerkEmailAddress struct {
	EmailAddress string `json:"email_address"`
}

// profile normalizes the Clerk user object into the identity service's
// projection: first email wins, names are joined, and the newer image_url
// field is preferred over the legacy profile_image_url.
func (d *clerkUserData) profile() identity.Profile {
	p := identity.Profile{
		ID:       d.ID,
		Name:     strings.TrimSpace(strings.TrimSpace(d.FirstName) + " " + strings.TrimSpace(d.LastName)),
		ImageURL: d.ImageURL,
	}
	if len(d.EmailAddresses) > 0 {
		p.Email = d.EmailAddresses[0].EmailAddress
	}
	if p.ImageURL == "" {
		p.ImageURL = d.ProfileImageURL
	}
	return p
}

// ---------------------------------------------------------------------------
// Payment (Stripe) events
// ---------------------------------------------------------------------------

// paymentEvent is the Stripe delivery envelope.
type paymentEvent struct {
	ID   string           `json:"id"`
	Type string           `json:"type"`
	Data paymentEventData `json:"data"`
}

type paymentEventData struct {
	Object json.RawMessage `json:"object"`
}

// paymentIntentObj is the minimal payment_intent projection: the settlement
// path only needs the intent ID to resolve the checkout session.
type paymentIntentObj struct {
	ID string `json:"id"`
}

// paymentIntentID extracts the payment intent ID from the event's data
// object. Returns "" when the object is absent or malformed.
func (e *paymentEvent) paymentIntentID() string {
	if len(e.Data.Object) == 0 {
		return ""
	}
	var intent paymentIntentObj
	if err := json.Unmarshal(e.Data.Object, &intent); err != nil {
		return ""
	}
	return intent.ID
}

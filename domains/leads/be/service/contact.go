package service

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/google/uuid"

	"github.com/zenGate-Global/booking-funnel/platform/go/requesttrace"
)

// ContactLinks are the follow-up actions offered next to a lead. Absent
// channels are nil.
type ContactLinks struct {
	WhatsApp *string
	Phone    *string
	Email    *string
}

func (s *service) ContactLinks(ctx context.Context, audit requesttrace.AuditInfo, profileID, leadID uuid.UUID) (ContactLinks, error) {
	lead, err := s.Get(ctx, audit, profileID, leadID)
	if err != nil {
		return ContactLinks{}, err
	}
	return BuildContactLinks(lead), nil
}

// BuildContactLinks derives wa.me, tel: and mailto: links from a lead. The
// WhatsApp number prefers a dedicated whatsapp answer over the phone field.
func BuildContactLinks(lead Lead) ContactLinks {
	var links ContactLinks

	phone := lead.FormData.Get("phone")
	if phone == "" && lead.Phone != nil {
		phone = strings.TrimSpace(*lead.Phone)
	}
	whatsapp := lead.FormData.Get("whatsapp")
	if whatsapp == "" {
		whatsapp = phone
	}

	if digits := DialDigits(whatsapp); digits != "" {
		link := fmt.Sprintf("https://wa.me/%s?text=%s", digits, url.QueryEscape(greeting(lead)))
		links.WhatsApp = &link
	}
	if phone != "" {
		link := "tel:" + strings.Map(keepDialChar, phone)
		links.Phone = &link
	}

	email := lead.FormData.Get("email")
	if email == "" && lead.Email != nil {
		email = strings.TrimSpace(*lead.Email)
	}
	if email != "" {
		link := (&url.URL{
			Scheme:   "mailto",
			Opaque:   email,
			RawQuery: url.Values{"subject": {"Your booking request"}}.Encode(),
		}).String()
		links.Email = &link
	}
	return links
}

// DialDigits strips everything but digits, the form wa.me expects.
func DialDigits(number string) string {
	var b strings.Builder
	for _, r := range number {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func keepDialChar(r rune) rune {
	if (r >= '0' && r <= '9') || r == '+' {
		return r
	}
	return -1
}

func greeting(lead Lead) string {
	name := lead.FormData.Get("full_name")
	if name == "" {
		name = "there"
	}
	msg := fmt.Sprintf("Hi %s, thanks for your booking request", name)
	if date := lead.FormData.Get("event_date"); date != "" {
		msg += " for " + date
	}
	return msg + ". Are you free for a quick chat about the details?"
}

package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/openmeet/ticketgate/internal/authority"
	"github.com/openmeet/ticketgate/internal/models"
	pkgLog "github.com/openmeet/ticketgate/pkg/logger"
	"github.com/openmeet/ticketgate/pkg/report"
)

type CheckoutService interface {
	// SelectPrice picks the cheapest paid price across all groups, or
	// nil for a pure free event. Free prices never win over paid ones.
	SelectPrice(groups []models.PriceGroup) *models.Price
	// ComputeTotal returns ok=false while the buyer is not resolvable
	// (attendees == 0); the total is undefined then, never zero.
	ComputeTotal(price *models.Price, attendees int) (int64, bool)
	BuildLineItems(price *models.Price, buyerEmail string, guestEmails []string) []models.LineItem
	// Checkout assembles the payable line-item set and hands it to the
	// payment collaborator, returning its redirect URL untouched.
	Checkout(ctx context.Context, in CheckoutInput) (*CheckoutOutput, error)
}

type implCheckout struct {
	auth     authority.Client
	payments authority.PaymentGateway
	access   AccessService
	rep      report.Reporter
	l        pkgLog.Logger
}

func NewCheckoutService(
	auth authority.Client,
	payments authority.PaymentGateway,
	access AccessService,
	rep report.Reporter,
	l pkgLog.Logger,
) CheckoutService {
	return &implCheckout{
		auth:     auth,
		payments: payments,
		access:   access,
		rep:      rep,
		l:        l,
	}
}

// SelectPrice ties break on the first price encountered in group and
// then entry order; the authority's payload ordering is stable.
func (s *implCheckout) SelectPrice(groups []models.PriceGroup) *models.Price {
	var best *models.Price
	for gi := range groups {
		for pi := range groups[gi].Prices {
			price := &groups[gi].Prices[pi]
			if price.AmountMinor <= 0 {
				continue
			}
			if best == nil || price.AmountMinor < best.AmountMinor {
				best = price
			}
		}
	}
	return best
}

func (s *implCheckout) ComputeTotal(price *models.Price, attendees int) (int64, bool) {
	if price == nil || attendees <= 0 {
		return 0, false
	}
	return price.AmountMinor * int64(attendees), true
}

// BuildLineItems orders the buyer first, then guests in entry order;
// every item references the selected price.
func (s *implCheckout) BuildLineItems(price *models.Price, buyerEmail string, guestEmails []string) []models.LineItem {
	items := make([]models.LineItem, 0, 1+len(guestEmails))
	items = append(items, models.LineItem{
		ID:            uuid.NewString(),
		PriceID:       price.ID,
		AttendeeEmail: buyerEmail,
	})
	for _, email := range guestEmails {
		items = append(items, models.LineItem{
			ID:            uuid.NewString(),
			PriceID:       price.ID,
			AttendeeEmail: email,
		})
	}
	return items
}

func (s *implCheckout) Checkout(ctx context.Context, in CheckoutInput) (*CheckoutOutput, error) {
	ev, err := s.auth.GetEvent(ctx, in.EventID)
	if err != nil {
		s.rep.Report(ctx, "service.implCheckout.Checkout", err)
		return nil, err
	}

	// Same ordered pre-checks as registration; the payment step is
	// never reached for a request the engine would reject.
	elig := EligibilityFor(ev, in.Roles, time.Now())
	switch {
	case elig.IsStarted:
		return nil, ErrEventStarted
	case elig.IsSoldOut:
		return nil, ErrSoldOut
	case len(in.GuestEmails) > elig.MaxGuests:
		return nil, ErrCapacityExceeded
	case in.BuyerEmail == "":
		return nil, ErrMissingEmail
	}

	price := s.SelectPrice(ev.PriceGroups)
	if price == nil {
		return nil, ErrFreeEvent
	}

	attendees := 1 + len(in.GuestEmails)
	total, ok := s.ComputeTotal(price, attendees)
	if !ok {
		return nil, ErrMissingEmail
	}

	items := s.BuildLineItems(price, in.BuyerEmail, in.GuestEmails)

	req := authority.CheckoutRequest{
		EventID:     in.EventID,
		LineItems:   items,
		SuccessPath: in.SuccessPath,
		CancelPath:  in.CancelPath,
	}
	if pwd, ok := s.access.AcceptedPassword(ctx, in.SessionID, in.EventID); ok {
		req.AcceptedPassword = pwd
	}

	redirectURL, err := s.payments.CreateCheckoutSession(ctx, req)
	if err != nil {
		s.rep.Report(ctx, "service.implCheckout.Checkout", err)
		return nil, err
	}

	s.l.Info(ctx, "Checkout session created",
		"event_id", in.EventID,
		"attendees", attendees,
		"total_minor", total,
	)

	return &CheckoutOutput{
		RedirectURL: redirectURL,
		TotalMinor:  total,
		Currency:    price.Currency,
		LineItems:   items,
	}, nil
}

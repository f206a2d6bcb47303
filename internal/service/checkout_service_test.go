package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/openmeet/ticketgate/internal/models"
	"github.com/openmeet/ticketgate/pkg/report"
)

func newCheckoutFixture(auth *fakeAuthority) (CheckoutService, *fakePayments, *report.Capture) {
	gates := newMemGateRepo()
	rep := &report.Capture{}
	payments := &fakePayments{}
	access := NewAccessService(auth, gates, time.Hour, rep, testLogger)
	svc := NewCheckoutService(auth, payments, access, rep, testLogger)
	return svc, payments, rep
}

func groups(amounts ...[]int64) []models.PriceGroup {
	var out []models.PriceGroup
	for gi, group := range amounts {
		pg := models.PriceGroup{ID: string(rune('A' + gi))}
		for pi, amount := range group {
			pg.Prices = append(pg.Prices, models.Price{
				ID:          pg.ID + "-" + string(rune('0'+pi)),
				GroupID:     pg.ID,
				AmountMinor: amount,
				Currency:    "EUR",
			})
		}
		out = append(out, pg)
	}
	return out
}

func TestSelectPrice(t *testing.T) {
	svc, _, _ := newCheckoutFixture(&fakeAuthority{})

	tests := []struct {
		name   string
		groups []models.PriceGroup
		want   int64 // -1 means nil
	}{
		{"no groups", nil, -1},
		{"pure free event", groups([]int64{0}, []int64{0, 0}), -1},
		{"free never beats paid", groups([]int64{0, 1000}, []int64{500}), 500},
		{"global minimum across groups", groups([]int64{800}, []int64{300, 900}), 300},
		{"single paid price", groups([]int64{1500}), 1500},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := svc.SelectPrice(tt.groups)
			if tt.want < 0 {
				if got != nil {
					t.Errorf("SelectPrice() = %+v, want nil", got)
				}
				return
			}
			if got == nil || got.AmountMinor != tt.want {
				t.Errorf("SelectPrice() = %+v, want amount %d", got, tt.want)
			}
		})
	}
}

func TestSelectPriceTieBreaksOnFirst(t *testing.T) {
	svc, _, _ := newCheckoutFixture(&fakeAuthority{})

	gs := groups([]int64{500}, []int64{500})
	got := svc.SelectPrice(gs)
	if got == nil || got.ID != gs[0].Prices[0].ID {
		t.Errorf("SelectPrice() = %+v, want the first of the tied minimums", got)
	}
}

func TestComputeTotal(t *testing.T) {
	svc, _, _ := newCheckoutFixture(&fakeAuthority{})
	price := &models.Price{AmountMinor: 500, Currency: "EUR"}

	if total, ok := svc.ComputeTotal(price, 3); !ok || total != 1500 {
		t.Errorf("ComputeTotal(500, 3) = (%d, %v), want (1500, true)", total, ok)
	}

	// No resolvable buyer yet: the total is undefined, not zero.
	if _, ok := svc.ComputeTotal(price, 0); ok {
		t.Error("ComputeTotal with zero attendees must not be defined")
	}
	if _, ok := svc.ComputeTotal(nil, 2); ok {
		t.Error("ComputeTotal without a price must not be defined")
	}
}

func TestBuildLineItemsOrder(t *testing.T) {
	svc, _, _ := newCheckoutFixture(&fakeAuthority{})
	price := &models.Price{ID: "p-1", AmountMinor: 500}

	items := svc.BuildLineItems(price, "buyer@x.io", []string{"g1@x.io", "g2@x.io"})

	want := []string{"buyer@x.io", "g1@x.io", "g2@x.io"}
	if len(items) != len(want) {
		t.Fatalf("got %d line items, want %d", len(items), len(want))
	}
	for i, item := range items {
		if item.AttendeeEmail != want[i] {
			t.Errorf("item %d email = %s, want %s (buyer first, guests in entry order)", i, item.AttendeeEmail, want[i])
		}
		if item.PriceID != "p-1" {
			t.Errorf("item %d references price %s, want p-1", i, item.PriceID)
		}
		if item.ID == "" {
			t.Errorf("item %d has no id", i)
		}
	}
}

func TestCheckout(t *testing.T) {
	ev := upcomingEvent(10, 0)
	ev.PriceGroups = groups([]int64{0, 1000}, []int64{500})
	auth := &fakeAuthority{event: ev}
	svc, payments, _ := newCheckoutFixture(auth)

	out, err := svc.Checkout(context.Background(), CheckoutInput{
		EventID:     "ev-1",
		BuyerEmail:  "buyer@x.io",
		GuestEmails: []string{"g1@x.io", "g2@x.io"},
		SuccessPath: "/done",
		CancelPath:  "/back",
	})
	if err != nil {
		t.Fatalf("Checkout() error = %v", err)
	}

	if out.TotalMinor != 1500 {
		t.Errorf("TotalMinor = %d, want 1500 (500 minor units x 3 attendees)", out.TotalMinor)
	}
	if out.RedirectURL == "" {
		t.Error("Checkout() returned no redirect URL")
	}
	if payments.calls != 1 {
		t.Fatalf("payment gateway called %d times, want 1", payments.calls)
	}
	if len(payments.last.LineItems) != 3 || payments.last.LineItems[0].AttendeeEmail != "buyer@x.io" {
		t.Errorf("hand-off line items wrong: %+v", payments.last.LineItems)
	}
	if payments.last.SuccessPath != "/done" || payments.last.CancelPath != "/back" {
		t.Errorf("hand-off paths = (%s, %s)", payments.last.SuccessPath, payments.last.CancelPath)
	}
}

func TestCheckoutFreeEvent(t *testing.T) {
	ev := upcomingEvent(10, 0)
	ev.PriceGroups = groups([]int64{0})
	auth := &fakeAuthority{event: ev}
	svc, payments, _ := newCheckoutFixture(auth)

	_, err := svc.Checkout(context.Background(), CheckoutInput{EventID: "ev-1", BuyerEmail: "b@x.io"})
	if !errors.Is(err, ErrFreeEvent) {
		t.Fatalf("Checkout() error = %v, want ErrFreeEvent", err)
	}
	if payments.calls != 0 {
		t.Error("free event must never reach the payment gateway")
	}
}

func TestCheckoutLocalPreChecks(t *testing.T) {
	ev := upcomingEvent(5, 4)
	ev.PriceGroups = groups([]int64{500})
	auth := &fakeAuthority{event: ev}
	svc, payments, _ := newCheckoutFixture(auth)

	_, err := svc.Checkout(context.Background(), CheckoutInput{
		EventID:     "ev-1",
		BuyerEmail:  "b@x.io",
		GuestEmails: []string{"g@x.io"},
	})
	if !errors.Is(err, ErrCapacityExceeded) {
		t.Fatalf("Checkout() error = %v, want ErrCapacityExceeded", err)
	}
	if payments.calls != 0 {
		t.Error("capacity failure must be rejected before the payment call")
	}
}

func TestCheckoutForwardsAcceptedPassword(t *testing.T) {
	ev := upcomingEvent(10, 0)
	ev.Privacy = models.PrivacyGuarded
	ev.PriceGroups = groups([]int64{500})
	auth := &fakeAuthority{event: ev}

	gates := newMemGateRepo()
	rep := &report.Capture{}
	payments := &fakePayments{}
	access := NewAccessService(auth, gates, time.Hour, rep, testLogger)
	svc := NewCheckoutService(auth, payments, access, rep, testLogger)
	ctx := context.Background()

	out, err := access.Submit(ctx, SubmitAccessInput{EventID: "ev-1", CandidatePassword: "sesame"})
	if err != nil || !out.Valid {
		t.Fatalf("Submit() = (%+v, %v)", out, err)
	}

	if _, err := svc.Checkout(ctx, CheckoutInput{
		SessionID:  out.SessionID,
		EventID:    "ev-1",
		BuyerEmail: "b@x.io",
	}); err != nil {
		t.Fatalf("Checkout() error = %v", err)
	}

	if payments.last.AcceptedPassword != "sesame" {
		t.Errorf("AcceptedPassword = %q, want the gate capability forwarded", payments.last.AcceptedPassword)
	}
}

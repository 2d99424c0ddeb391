package experiences

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/example/tour-guide/internal/models"
)

type fakePayments struct {
	holdErr  error
	captured []string
	canceled []string
}

func (f *fakePayments) Hold(ctx context.Context, amount int64, currency, customerID string) (string, error) {
	if f.holdErr != nil {
		return "", f.holdErr
	}
	return "pi_test", nil
}
func (f *fakePayments) Capture(ctx context.Context, id string) error {
	f.captured = append(f.captured, id)
	return nil
}
func (f *fakePayments) Cancel(ctx context.Context, id string) error {
	f.canceled = append(f.canceled, id)
	return nil
}

func seedStore(t *testing.T) Store {
	t.Helper()
	s := NewMemoryStore()
	err := s.Save(context.Background(), &models.Experience{
		ID: "exp1", Title: "Old Town Walk", PriceCents: 1500, Currency: "usd", CreatedAt: time.Now(),
	})
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func TestCheckoutHoldsAndRecords(t *testing.T) {
	fp := &fakePayments{}
	c := &CheckoutService{Store: seedStore(t), Payments: fp}

	p, err := c.Checkout(context.Background(), "exp1", "u1")
	if err != nil {
		t.Fatal(err)
	}
	if p.Status != "held" || p.PaymentIntentID != "pi_test" {
		t.Fatalf("unexpected purchase %+v", p)
	}
}

func TestCheckoutUnknownExperience(t *testing.T) {
	c := &CheckoutService{Store: seedStore(t), Payments: &fakePayments{}}
	if _, err := c.Checkout(context.Background(), "nope", "u1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestCheckoutHoldFailure(t *testing.T) {
	fp := &fakePayments{holdErr: errors.New("card declined")}
	c := &CheckoutService{Store: seedStore(t), Payments: fp}
	if _, err := c.Checkout(context.Background(), "exp1", "u1"); err == nil {
		t.Fatal("expected hold error")
	}
}

func TestCompleteCapturesPayment(t *testing.T) {
	fp := &fakePayments{}
	c := &CheckoutService{Store: seedStore(t), Payments: fp}
	p, _ := c.Checkout(context.Background(), "exp1", "u1")

	if err := c.Complete(context.Background(), p.ID); err != nil {
		t.Fatal(err)
	}
	if len(fp.captured) != 1 || fp.captured[0] != "pi_test" {
		t.Fatalf("payment not captured: %+v", fp.captured)
	}
	got, _ := c.Store.GetPurchase(context.Background(), p.ID)
	if got.Status != "captured" {
		t.Fatalf("status not updated: %s", got.Status)
	}
}

func TestCancelReleasesHold(t *testing.T) {
	fp := &fakePayments{}
	c := &CheckoutService{Store: seedStore(t), Payments: fp}
	p, _ := c.Checkout(context.Background(), "exp1", "u1")

	if err := c.Cancel(context.Background(), p.ID); err != nil {
		t.Fatal(err)
	}
	if len(fp.canceled) != 1 {
		t.Fatalf("hold not released: %+v", fp.canceled)
	}
}

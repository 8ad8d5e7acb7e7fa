package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lopataa/schoolshop/app/models"
	"github.com/lopataa/schoolshop/pkg/event"
	"github.com/lopataa/schoolshop/pkg/payment"
)

type fakePaymentProvider struct {
	sessions    map[string]*payment.SessionDetails
	lastParams  payment.CreateParams
	createErr   error
	retrieveErr error
}

func newFakePaymentProvider() *fakePaymentProvider {
	return &fakePaymentProvider{sessions: map[string]*payment.SessionDetails{}}
}

func (p *fakePaymentProvider) CreateSession(_ context.Context, params payment.CreateParams) (*payment.Session, error) {
	if p.createErr != nil {
		return nil, p.createErr
	}
	p.lastParams = params
	id := "cs_test_123"
	p.sessions[id] = &payment.SessionDetails{
		ID:            id,
		PaymentStatus: "unpaid",
		Metadata:      params.Metadata,
	}
	return &payment.Session{ID: id, URL: "https://pay.example.com/" + id}, nil
}

func (p *fakePaymentProvider) RetrieveSession(_ context.Context, id string) (*payment.SessionDetails, error) {
	if p.retrieveErr != nil {
		return nil, p.retrieveErr
	}
	s, ok := p.sessions[id]
	if !ok {
		return nil, errors.New("no such session")
	}
	return s, nil
}

func (p *fakePaymentProvider) markPaid(id, email string) {
	p.sessions[id].PaymentStatus = payment.PaymentStatusPaid
	p.sessions[id].CustomerEmail = email
}

type checkoutFixture struct {
	*cartFixture
	svc      *CheckoutService
	orders   *fakeOrderStore
	provider *fakePaymentProvider
}

func newCheckoutFixture() *checkoutFixture {
	cf := newCartFixture()
	f := &checkoutFixture{
		cartFixture: cf,
		orders:      newFakeOrderStore(),
		provider:    newFakePaymentProvider(),
	}
	f.svc = NewCheckoutService(f.provider, cf.svc, cf.products, f.orders)
	return f
}

func TestCreateSessionBuildsLineItems(t *testing.T) {
	f := newCheckoutFixture()
	ctx := context.Background()
	hoodie := f.products.add("hoodie", 39.90, 10)
	bottle := f.products.add("bottle", 21.00, 10)

	cart, _ := f.cartFixture.svc.Create(ctx)
	_, err := f.cartFixture.svc.AddItem(ctx, cart.ID, hoodie, 2)
	require.NoError(t, err)
	_, err = f.cartFixture.svc.AddItem(ctx, cart.ID, bottle, 1)
	require.NoError(t, err)

	session, err := f.svc.CreateSession(ctx, cart.ID, CustomerInfo{
		Name: "Ada", Email: "ada@example.com", Phone: "123", Address: "1 Main St",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, session.URL)

	params := f.provider.lastParams
	require.Len(t, params.LineItems, 2)
	assert.Equal(t, int64(3990), params.LineItems[0].UnitAmount)
	assert.Equal(t, int64(2), params.LineItems[0].Quantity)
	assert.Equal(t, int64(2100), params.LineItems[1].UnitAmount)
	assert.Equal(t, cart.ID.Hex(), params.Metadata["cartId"])
	assert.Equal(t, "ada@example.com", params.Metadata["email"])
}

func TestCreateSessionEmptyCart(t *testing.T) {
	f := newCheckoutFixture()
	ctx := context.Background()
	cart, _ := f.cartFixture.svc.Create(ctx)

	_, err := f.svc.CreateSession(ctx, cart.ID, CustomerInfo{Name: "Ada", Email: "a@b.c"})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestCreateSessionMissingCart(t *testing.T) {
	f := newCheckoutFixture()
	ctx := context.Background()
	other := newCartFixture()
	ghost, _ := other.svc.Create(ctx)

	_, err := f.svc.CreateSession(ctx, ghost.ID, CustomerInfo{Name: "Ada", Email: "a@b.c"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCompleteSessionCreatesOrder(t *testing.T) {
	f := newCheckoutFixture()
	ctx := context.Background()
	hoodie := f.products.add("hoodie", 39.90, 10)

	cart, _ := f.cartFixture.svc.Create(ctx)
	_, err := f.cartFixture.svc.AddItem(ctx, cart.ID, hoodie, 2)
	require.NoError(t, err)

	session, err := f.svc.CreateSession(ctx, cart.ID, CustomerInfo{
		Name: "Ada", Email: "ada@example.com", Phone: "123", Address: "1 Main St",
	})
	require.NoError(t, err)
	f.provider.markPaid(session.ID, "ada@example.com")

	var announced *models.Order
	event.Flush()
	defer event.Flush()
	event.Listen(EventOrderCreated, func(payload interface{}) {
		announced, _ = payload.(*models.Order)
	})

	order, existing, err := f.svc.CompleteSession(ctx, session.ID)
	require.NoError(t, err)
	assert.False(t, existing)

	require.Len(t, order.Items, 1)
	assert.Equal(t, "hoodie", order.Items[0].Name)
	assert.Equal(t, 2, order.Items[0].Quantity)
	assert.InDelta(t, 79.80, order.Total, 0.001)
	assert.Equal(t, "Ada", order.CustomerName)
	assert.Equal(t, "ada@example.com", order.Email)
	assert.Equal(t, session.ID, order.CheckoutSessionID)

	// The reserved units stayed sold and the cart is gone.
	assert.Equal(t, 8, f.products.stock(hoodie))
	_, err = f.cartFixture.svc.Get(ctx, cart.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	require.NotNil(t, announced)
	assert.Equal(t, order.ID, announced.ID)
}

func TestCompleteSessionIsIdempotent(t *testing.T) {
	f := newCheckoutFixture()
	ctx := context.Background()
	hoodie := f.products.add("hoodie", 39.90, 10)

	cart, _ := f.cartFixture.svc.Create(ctx)
	_, err := f.cartFixture.svc.AddItem(ctx, cart.ID, hoodie, 2)
	require.NoError(t, err)
	session, _ := f.svc.CreateSession(ctx, cart.ID, CustomerInfo{Name: "Ada", Email: "a@b.c"})
	f.provider.markPaid(session.ID, "a@b.c")

	first, existing, err := f.svc.CompleteSession(ctx, session.ID)
	require.NoError(t, err)
	assert.False(t, existing)

	second, existing, err := f.svc.CompleteSession(ctx, session.ID)
	require.NoError(t, err)
	assert.True(t, existing)
	assert.Equal(t, first.ID, second.ID)

	orders, _ := f.orders.FindAll(ctx)
	assert.Len(t, orders, 1)
	assert.Equal(t, 8, f.products.stock(hoodie))
}

func TestCompleteSessionRequiresPayment(t *testing.T) {
	f := newCheckoutFixture()
	ctx := context.Background()
	hoodie := f.products.add("hoodie", 39.90, 10)

	cart, _ := f.cartFixture.svc.Create(ctx)
	_, err := f.cartFixture.svc.AddItem(ctx, cart.ID, hoodie, 1)
	require.NoError(t, err)
	session, _ := f.svc.CreateSession(ctx, cart.ID, CustomerInfo{Name: "Ada", Email: "a@b.c"})

	_, _, err = f.svc.CompleteSession(ctx, session.ID)
	assert.ErrorIs(t, err, ErrPaymentIncomplete)

	orders, _ := f.orders.FindAll(ctx)
	assert.Empty(t, orders)
}

func TestCompleteSessionAfterCartExpiry(t *testing.T) {
	f := newCheckoutFixture()
	ctx := context.Background()
	hoodie := f.products.add("hoodie", 39.90, 10)

	cart, _ := f.cartFixture.svc.Create(ctx)
	_, err := f.cartFixture.svc.AddItem(ctx, cart.ID, hoodie, 2)
	require.NoError(t, err)
	session, _ := f.svc.CreateSession(ctx, cart.ID, CustomerInfo{Name: "Ada", Email: "a@b.c"})
	f.provider.markPaid(session.ID, "a@b.c")

	// The shopper dawdled on the payment page past the idle window and the
	// sweep got there first.
	f.advance(16 * time.Minute)
	newTestSweeper(f.cartFixture).Sweep(ctx)
	assert.Equal(t, 10, f.products.stock(hoodie))

	_, _, err = f.svc.CompleteSession(ctx, session.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	// No order was conjured from released stock.
	orders, _ := f.orders.FindAll(ctx)
	assert.Empty(t, orders)
}

func TestCompleteSessionMissingCartMetadata(t *testing.T) {
	f := newCheckoutFixture()
	ctx := context.Background()

	f.provider.sessions["cs_bare"] = &payment.SessionDetails{
		ID:            "cs_bare",
		PaymentStatus: payment.PaymentStatusPaid,
		Metadata:      map[string]string{},
	}

	_, _, err := f.svc.CompleteSession(ctx, "cs_bare")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestCompleteSessionRequiresEmail(t *testing.T) {
	f := newCheckoutFixture()
	ctx := context.Background()
	hoodie := f.products.add("hoodie", 39.90, 10)

	cart, _ := f.cartFixture.svc.Create(ctx)
	_, err := f.cartFixture.svc.AddItem(ctx, cart.ID, hoodie, 2)
	require.NoError(t, err)

	// A paid session that carries the cart reference but no email from
	// either the checkout form or the provider.
	f.provider.sessions["cs_noemail"] = &payment.SessionDetails{
		ID:            "cs_noemail",
		PaymentStatus: payment.PaymentStatusPaid,
		Metadata:      map[string]string{"cartId": cart.ID.Hex()},
	}

	_, _, err = f.svc.CompleteSession(ctx, "cs_noemail")
	assert.ErrorIs(t, err, ErrValidation)

	// No order, and the cart keeps its reservation.
	orders, _ := f.orders.FindAll(ctx)
	assert.Empty(t, orders)
	assert.Equal(t, 8, f.products.stock(hoodie))
	_, err = f.cartFixture.svc.Get(ctx, cart.ID)
	assert.NoError(t, err)
}

func TestOrderEmailPrefersCheckoutForm(t *testing.T) {
	f := newCheckoutFixture()
	ctx := context.Background()
	hoodie := f.products.add("hoodie", 39.90, 10)

	cart, _ := f.cartFixture.svc.Create(ctx)
	_, err := f.cartFixture.svc.AddItem(ctx, cart.ID, hoodie, 1)
	require.NoError(t, err)
	session, _ := f.svc.CreateSession(ctx, cart.ID, CustomerInfo{Name: "Ada", Email: "form@example.com"})

	// The provider may report a different address than the checkout form;
	// the form wins.
	f.provider.markPaid(session.ID, "stripe@example.com")

	order, _, err := f.svc.CompleteSession(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, "form@example.com", order.Email)
}

func TestCheckoutWithoutPaymentProvider(t *testing.T) {
	f := newCheckoutFixture()
	ctx := context.Background()
	hoodie := f.products.add("hoodie", 39.90, 10)

	cart, _ := f.cartFixture.svc.Create(ctx)
	_, err := f.cartFixture.svc.AddItem(ctx, cart.ID, hoodie, 1)
	require.NoError(t, err)

	f.provider.createErr = payment.ErrNotConfigured
	f.provider.retrieveErr = payment.ErrNotConfigured

	_, err = f.svc.CreateSession(ctx, cart.ID, CustomerInfo{Name: "Ada", Email: "a@b.c"})
	assert.ErrorIs(t, err, ErrValidation)

	_, _, err = f.svc.CompleteSession(ctx, "cs_whatever")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestCompleteSessionFreezesDeletedProduct(t *testing.T) {
	f := newCheckoutFixture()
	ctx := context.Background()
	hoodie := f.products.add("hoodie", 39.90, 10)

	cart, _ := f.cartFixture.svc.Create(ctx)
	_, err := f.cartFixture.svc.AddItem(ctx, cart.ID, hoodie, 2)
	require.NoError(t, err)
	session, _ := f.svc.CreateSession(ctx, cart.ID, CustomerInfo{Name: "Ada", Email: "a@b.c"})
	f.provider.markPaid(session.ID, "a@b.c")

	require.NoError(t, f.products.Delete(ctx, hoodie))

	order, _, err := f.svc.CompleteSession(ctx, session.ID)
	require.NoError(t, err)
	require.Len(t, order.Items, 1)
	assert.Equal(t, "(unavailable product)", order.Items[0].Name)
	assert.Zero(t, order.Items[0].Price)
}

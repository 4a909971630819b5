package billing

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v76"
	"go.uber.org/zap"

	"github.com/inkgen/server/internal/shared/config"
)

type fakeGranter struct {
	boostUser    uuid.UUID
	boostCredits int
	memberUser   uuid.UUID
	memberUntil  time.Time
}

func (g *fakeGranter) GrantBoostPack(_ context.Context, userID uuid.UUID, credits int) error {
	g.boostUser = userID
	g.boostCredits = credits
	return nil
}

func (g *fakeGranter) GrantMembership(_ context.Context, userID uuid.UUID, until time.Time) error {
	g.memberUser = userID
	g.memberUntil = until
	return nil
}

type fakeActivator struct {
	activated uuid.UUID
	expires   time.Time
}

func (a *fakeActivator) ActivateMembership(_ context.Context, id uuid.UUID, expires time.Time) error {
	a.activated = id
	a.expires = expires
	return nil
}

func newTestService(granter *fakeGranter, users *fakeActivator) *Service {
	return NewService(config.StripeConfig{
		BoostPackPrice:  499,
		BoostPackCredit: 100,
		MembershipPrice: 999,
		SuccessURL:      "https://inkgen.example/billing/success",
		CancelURL:       "https://inkgen.example/billing/cancel",
	}, granter, users, zap.NewNop())
}

func checkoutSession(userID uuid.UUID, product string) *stripe.CheckoutSession {
	return &stripe.CheckoutSession{
		ID: "cs_test_123",
		Metadata: map[string]string{
			"user_id": userID.String(),
			"product": product,
		},
	}
}

func TestFulfillBoostPack(t *testing.T) {
	granter := &fakeGranter{}
	svc := newTestService(granter, &fakeActivator{})
	userID := uuid.New()

	err := svc.Fulfill(context.Background(), checkoutSession(userID, "boost_pack"))
	require.NoError(t, err)
	assert.Equal(t, userID, granter.boostUser)
	assert.Equal(t, 100, granter.boostCredits)
	assert.Equal(t, uuid.Nil, granter.memberUser)
}

func TestFulfillMembership(t *testing.T) {
	granter := &fakeGranter{}
	activator := &fakeActivator{}
	svc := newTestService(granter, activator)
	userID := uuid.New()

	err := svc.Fulfill(context.Background(), checkoutSession(userID, "membership"))
	require.NoError(t, err)
	assert.Equal(t, userID, granter.memberUser)
	assert.Equal(t, userID, activator.activated)
	assert.WithinDuration(t, time.Now().Add(30*24*time.Hour), granter.memberUntil, time.Minute)
	assert.Equal(t, granter.memberUntil, activator.expires)
}

func TestFulfillRejectsBadMetadata(t *testing.T) {
	granter := &fakeGranter{}
	svc := newTestService(granter, &fakeActivator{})

	sess := checkoutSession(uuid.New(), "boost_pack")
	sess.Metadata["user_id"] = "not-a-uuid"
	require.Error(t, svc.Fulfill(context.Background(), sess))

	require.Error(t, svc.Fulfill(context.Background(), checkoutSession(uuid.New(), "mystery_box")))
	assert.Equal(t, uuid.Nil, granter.boostUser)
}

func TestCreateCheckoutBuildsSession(t *testing.T) {
	svc := newTestService(&fakeGranter{}, &fakeActivator{})
	userID := uuid.New()

	var gotParams *stripe.CheckoutSessionParams
	svc.newSession = func(params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error) {
		gotParams = params
		return &stripe.CheckoutSession{ID: "cs_test_456", URL: "https://checkout.stripe.com/pay/cs_test_456"}, nil
	}

	result, err := svc.CreateCheckout(context.Background(), userID, ProductBoostPack)
	require.NoError(t, err)
	assert.Equal(t, "cs_test_456", result.SessionID)
	assert.NotEmpty(t, result.URL)

	require.NotNil(t, gotParams)
	require.Len(t, gotParams.LineItems, 1)
	assert.Equal(t, int64(499), *gotParams.LineItems[0].PriceData.UnitAmount)
	assert.Equal(t, userID.String(), gotParams.Metadata["user_id"])
	assert.Equal(t, "boost_pack", gotParams.Metadata["product"])
}

func TestCreateCheckoutUnknownProduct(t *testing.T) {
	svc := newTestService(&fakeGranter{}, &fakeActivator{})
	_, err := svc.CreateCheckout(context.Background(), uuid.New(), Product("mystery_box"))
	require.Error(t, err)
}

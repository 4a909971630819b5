package billing

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/checkout/session"
	"github.com/stripe/stripe-go/v76/webhook"
	"go.uber.org/zap"

	"github.com/inkgen/server/internal/module/usage"
	"github.com/inkgen/server/internal/shared/config"
	apperrors "github.com/inkgen/server/internal/shared/errors"
)

// Product identifies what a checkout session purchases.
type Product string

const (
	ProductBoostPack  Product = "boost_pack"
	ProductMembership Product = "membership"
)

// membershipPeriod is the length of one purchased membership.
const membershipPeriod = 30 * 24 * time.Hour

// MembershipActivator updates the user record after a membership purchase.
type MembershipActivator interface {
	ActivateMembership(ctx context.Context, id uuid.UUID, expires time.Time) error
}

// CheckoutResult carries the Stripe-hosted payment page URL.
type CheckoutResult struct {
	SessionID string `json:"session_id"`
	URL       string `json:"url"`
}

// Service handles boost pack and membership purchases through Stripe.
type Service struct {
	cfg     config.StripeConfig
	granter usage.Granter
	users   MembershipActivator
	logger  *zap.Logger

	// Seams for tests; production uses the Stripe SDK.
	newSession  func(params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error)
	verifyEvent func(payload []byte, signature string) (stripe.Event, error)
}

// NewService creates a billing service.
func NewService(cfg config.StripeConfig, granter usage.Granter, users MembershipActivator, logger *zap.Logger) *Service {
	stripe.Key = cfg.SecretKey
	return &Service{
		cfg:        cfg,
		granter:    granter,
		users:      users,
		logger:     logger,
		newSession: session.New,
		verifyEvent: func(payload []byte, signature string) (stripe.Event, error) {
			return webhook.ConstructEvent(payload, signature, cfg.WebhookSecret)
		},
	}
}

// productName is the line item shown on the Stripe payment page.
func productName(p Product) string {
	switch p {
	case ProductBoostPack:
		return "InkGen Boost Pack"
	case ProductMembership:
		return "InkGen Membership (30 days)"
	default:
		return ""
	}
}

func (s *Service) productPrice(p Product) int64 {
	switch p {
	case ProductBoostPack:
		return s.cfg.BoostPackPrice
	case ProductMembership:
		return s.cfg.MembershipPrice
	default:
		return 0
	}
}

// CreateCheckout creates a Stripe Checkout session for the given product.
func (s *Service) CreateCheckout(ctx context.Context, userID uuid.UUID, product Product) (*CheckoutResult, error) {
	name := productName(product)
	if name == "" {
		return nil, apperrors.BadRequest(fmt.Sprintf("unknown product %q", product))
	}

	params := &stripe.CheckoutSessionParams{
		Mode: stripe.String(string(stripe.CheckoutSessionModePayment)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency:   stripe.String(string(stripe.CurrencyUSD)),
					UnitAmount: stripe.Int64(s.productPrice(product)),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String(name),
					},
				},
				Quantity: stripe.Int64(1),
			},
		},
		SuccessURL: stripe.String(s.cfg.SuccessURL),
		CancelURL:  stripe.String(s.cfg.CancelURL),
		Metadata: map[string]string{
			"user_id": userID.String(),
			"product": string(product),
		},
	}
	params.Context = ctx

	sess, err := s.newSession(params)
	if err != nil {
		return nil, fmt.Errorf("create checkout session: %w", err)
	}

	s.logger.Info("checkout session created",
		zap.String("user_id", userID.String()),
		zap.String("product", string(product)),
		zap.String("session_id", sess.ID))

	return &CheckoutResult{SessionID: sess.ID, URL: sess.URL}, nil
}

// VerifyWebhook validates the Stripe signature and returns the event.
func (s *Service) VerifyWebhook(payload []byte, signature string) (stripe.Event, error) {
	return s.verifyEvent(payload, signature)
}

// Fulfill applies a completed checkout session: boost packs top up the
// credit balance, memberships promote the user and raise the daily limit.
func (s *Service) Fulfill(ctx context.Context, sess *stripe.CheckoutSession) error {
	rawUser := sess.Metadata["user_id"]
	userID, err := uuid.Parse(rawUser)
	if err != nil {
		return fmt.Errorf("checkout session %s has invalid user_id %q", sess.ID, rawUser)
	}

	product := Product(sess.Metadata["product"])
	switch product {
	case ProductBoostPack:
		if err := s.granter.GrantBoostPack(ctx, userID, s.cfg.BoostPackCredit); err != nil {
			return fmt.Errorf("grant boost pack: %w", err)
		}
	case ProductMembership:
		expires := time.Now().UTC().Add(membershipPeriod)
		if err := s.granter.GrantMembership(ctx, userID, expires); err != nil {
			return fmt.Errorf("grant membership: %w", err)
		}
		if err := s.users.ActivateMembership(ctx, userID, expires); err != nil {
			return fmt.Errorf("activate membership: %w", err)
		}
	default:
		return fmt.Errorf("checkout session %s has unknown product %q", sess.ID, product)
	}

	s.logger.Info("purchase fulfilled",
		zap.String("user_id", userID.String()),
		zap.String("product", string(product)),
		zap.String("session_id", sess.ID))
	return nil
}

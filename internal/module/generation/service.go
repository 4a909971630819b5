package generation

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/inkgen/server/internal/module/usage"
	"github.com/inkgen/server/internal/shared/metrics"
)

// Archiver stores finished designs for the public gallery. Archiving is
// best-effort and happens off the request path.
type Archiver interface {
	Archive(userID uuid.UUID, prompt string, image []byte)
}

// Result is a completed generation.
type Result struct {
	ImageBase64 string
	Bucket      usage.Bucket
}

// QuotaError rejects a generation for exhausted credits. It carries the
// snapshot that failed the check so the response can report both balances.
type QuotaError struct {
	Remaining *usage.RemainingInfo
}

func (e *QuotaError) Error() string { return "0 credits remaining today" }

func (e *QuotaError) Unwrap() error { return usage.ErrNoCredits }

// Service runs the generation pipeline: check credits, call the upstream
// model, charge the credit that paid for it.
type Service struct {
	ledger    usage.Ledger
	generator Generator
	archiver  Archiver
	metrics   *metrics.Metrics
	logger    *zap.Logger
}

// NewService creates a new generation service. archiver may be nil.
func NewService(ledger usage.Ledger, generator Generator, archiver Archiver, m *metrics.Metrics, logger *zap.Logger) *Service {
	return &Service{
		ledger:    ledger,
		generator: generator,
		archiver:  archiver,
		metrics:   m,
		logger:    logger,
	}
}

// Generate produces one tattoo design for the user. The quota check happens
// before any upstream call; the credit is charged only after the upstream
// image has been received and decoded. A failed charge does not fail the
// request: the user already has the image.
func (s *Service) Generate(ctx context.Context, userID uuid.UUID, style Style, description string) (*Result, error) {
	info, err := s.ledger.GetRemaining(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !info.HasCredits() {
		s.metrics.QuotaRejectionsTotal.Inc()
		s.metrics.GenerationsTotal.WithLabelValues("quota_exhausted").Inc()
		return nil, &QuotaError{Remaining: info}
	}

	// Legacy callers fold the style into the prompt themselves and send no
	// style field; their prompts go upstream verbatim.
	prompt := description
	if style != StyleNone {
		prompt = StyledPrompt(style, description)
	}

	start := time.Now()
	img, err := s.generator.Generate(ctx, prompt)
	if err != nil {
		s.metrics.GenerationsTotal.WithLabelValues("upstream_error").Inc()
		return nil, err
	}
	s.metrics.GenerationDuration.Observe(time.Since(start).Seconds())

	bucket, err := s.ledger.ConsumeOne(ctx, userID, info)
	if err != nil {
		// The image was generated; losing the charge is the lesser harm.
		s.logger.Error("credit charge failed after generation",
			zap.String("user_id", userID.String()),
			zap.Error(err))
		bucket = usage.BucketNone
	} else {
		s.metrics.CreditsConsumedTotal.WithLabelValues(string(bucket)).Inc()
	}

	if s.archiver != nil {
		s.archiver.Archive(userID, description, img.Data)
	}

	s.metrics.GenerationsTotal.WithLabelValues("success").Inc()
	return &Result{ImageBase64: img.Base64, Bucket: bucket}, nil
}

// Remaining returns the user's current credit snapshot.
func (s *Service) Remaining(ctx context.Context, userID uuid.UUID) (*usage.RemainingInfo, error) {
	return s.ledger.GetRemaining(ctx, userID)
}

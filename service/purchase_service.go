package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"diamondpay/events"
	"diamondpay/gateway"
	"diamondpay/models"
	"diamondpay/observability"
)

// PurchaseService sells diamond packages through an external checkout
// provider and reconciles confirmed payments back into the diamond ledger.
type PurchaseService struct {
	packages  PackageStore
	purchases PurchaseStore
	ledger    *DiamondService
	checkout  gateway.CheckoutClient
	publisher events.Publisher
	metrics   *observability.MetricsProvider
}

// NewPurchaseService creates a new purchase reconciliation service
func NewPurchaseService(packages PackageStore, purchases PurchaseStore, ledger *DiamondService, checkout gateway.CheckoutClient, publisher events.Publisher, metrics *observability.MetricsProvider) *PurchaseService {
	return &PurchaseService{
		packages:  packages,
		purchases: purchases,
		ledger:    ledger,
		checkout:  checkout,
		publisher: publisher,
		metrics:   metrics,
	}
}

// ListPackages returns the purchasable catalog, cheapest first.
func (s *PurchaseService) ListPackages(ctx context.Context) ([]*models.DiamondPackage, error) {
	return s.packages.ListActive(ctx)
}

// CreateCheckoutIntent opens a checkout session for a package and records a
// pending purchase keyed to it. The diamonds are not credited here; that
// happens only when the payment confirmation arrives.
func (s *PurchaseService) CreateCheckoutIntent(ctx context.Context, userID, packageID string) (*models.Purchase, *gateway.CheckoutSession, error) {
	pkg, err := s.packages.GetByID(ctx, packageID)
	if err != nil {
		return nil, nil, err
	}
	if !pkg.IsActive {
		return nil, nil, models.ErrInvalidPackage
	}

	purchaseID := genID("dp")
	total := pkg.DiamondAmount + pkg.BonusDiamonds

	session, err := s.checkout.CreateCheckoutSession(ctx, pkg.PriceUSD,
		fmt.Sprintf("%s (%d diamonds)", pkg.Name, total),
		map[string]string{
			gateway.MetadataPurchaseID:    purchaseID,
			gateway.MetadataUserID:        userID,
			gateway.MetadataDiamondAmount: strconv.FormatInt(total, 10),
		})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create checkout session: %w", err)
	}

	purchase := &models.Purchase{
		ID:                purchaseID,
		UserID:            userID,
		PackageID:         pkg.ID,
		DiamondAmount:     pkg.DiamondAmount,
		BonusDiamonds:     pkg.BonusDiamonds,
		TotalDiamonds:     total,
		AmountUSD:         pkg.PriceUSD,
		ExternalSessionID: session.SessionID,
		Status:            models.PurchaseStatusPending,
		CreatedAt:         time.Now().UTC(),
	}
	if err := s.purchases.Create(ctx, purchase); err != nil {
		return nil, nil, fmt.Errorf("failed to record pending purchase: %w", err)
	}

	return purchase, session, nil
}

// HandlePaymentConfirmed reconciles a payment-confirmed notification from the
// checkout provider. Safe to call any number of times for the same payment:
// only the first call that wins the pending-to-completed transition credits
// diamonds. Malformed or unrecognized notifications are logged and swallowed
// so the provider does not retry them forever.
func (s *PurchaseService) HandlePaymentConfirmed(ctx context.Context, externalPaymentID string, metadata map[string]string) error {
	purchaseID := metadata[gateway.MetadataPurchaseID]
	userID := metadata[gateway.MetadataUserID]
	if purchaseID == "" || userID == "" || metadata[gateway.MetadataDiamondAmount] == "" {
		log.WithFields(log.Fields{
			"externalPaymentId": externalPaymentID,
		}).Warn("Payment confirmation missing purchase metadata, ignoring")
		return nil
	}

	purchase, won, err := s.purchases.Complete(ctx, purchaseID, externalPaymentID)
	if errors.Is(err, models.ErrNotFound) {
		log.WithFields(log.Fields{
			"purchaseId":        purchaseID,
			"externalPaymentId": externalPaymentID,
		}).Warn("Payment confirmation for unknown purchase, ignoring")
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to complete purchase %s: %w", purchaseID, err)
	}
	if !won {
		log.WithFields(log.Fields{
			"purchaseId": purchaseID,
		}).Info("Purchase already completed, skipping duplicate confirmation")
		return nil
	}

	if _, err := s.ledger.Credit(ctx, purchase.UserID, purchase.TotalDiamonds,
		models.CreditKindPurchase, purchase.ID, models.ReferenceTypeDiamondPurchase,
		fmt.Sprintf("Purchased %d diamonds", purchase.TotalDiamonds)); err != nil {
		return fmt.Errorf("failed to credit purchase %s: %w", purchase.ID, err)
	}

	s.publishPurchased(ctx, purchase, externalPaymentID)
	s.metrics.RecordLedgerOp(ctx, "purchase")

	log.WithFields(log.Fields{
		"purchaseId": purchase.ID,
		"userId":     purchase.UserID,
		"diamonds":   purchase.TotalDiamonds,
	}).Info("Purchase reconciled")
	return nil
}

// GetPurchase returns a single purchase record.
func (s *PurchaseService) GetPurchase(ctx context.Context, id string) (*models.Purchase, error) {
	return s.purchases.Get(ctx, id)
}

// ListPurchases returns the user's purchase records, newest first.
func (s *PurchaseService) ListPurchases(ctx context.Context, userID string) ([]*models.Purchase, error) {
	return s.purchases.ListByUser(ctx, userID)
}

// MockPurchase credits a package without payment. Development environments
// only; the caller gates it on configuration.
func (s *PurchaseService) MockPurchase(ctx context.Context, userID, packageID string) (*models.Purchase, error) {
	pkg, err := s.packages.GetByID(ctx, packageID)
	if err != nil {
		return nil, err
	}
	if !pkg.IsActive {
		return nil, models.ErrInvalidPackage
	}

	now := time.Now().UTC()
	purchase := &models.Purchase{
		ID:                genID("dp"),
		UserID:            userID,
		PackageID:         pkg.ID,
		DiamondAmount:     pkg.DiamondAmount,
		BonusDiamonds:     pkg.BonusDiamonds,
		TotalDiamonds:     pkg.DiamondAmount + pkg.BonusDiamonds,
		AmountUSD:         pkg.PriceUSD,
		ExternalPaymentID: "mock_" + uuid.NewString(),
		Status:            models.PurchaseStatusCompleted,
		CreatedAt:         now,
		CompletedAt:       &now,
	}
	if err := s.purchases.Create(ctx, purchase); err != nil {
		return nil, fmt.Errorf("failed to record mock purchase: %w", err)
	}

	if _, err := s.ledger.Credit(ctx, userID, purchase.TotalDiamonds,
		models.CreditKindPurchase, purchase.ID, models.ReferenceTypeDiamondPurchase,
		fmt.Sprintf("Purchased %d diamonds (mock)", purchase.TotalDiamonds)); err != nil {
		return nil, err
	}

	s.publishPurchased(ctx, purchase, purchase.ExternalPaymentID)
	return purchase, nil
}

func (s *PurchaseService) publishPurchased(ctx context.Context, purchase *models.Purchase, externalPaymentID string) {
	if s.publisher == nil {
		return
	}
	event := events.DiamondPurchasedEvent{
		PurchaseID:        purchase.ID,
		UserID:            purchase.UserID,
		DiamondAmount:     purchase.TotalDiamonds,
		AmountUSD:         purchase.AmountUSD,
		ExternalPaymentID: externalPaymentID,
		PurchasedAt:       time.Now().UTC(),
	}
	if err := s.publisher.Publish(event); err != nil {
		log.WithFields(log.Fields{
			"purchaseId": purchase.ID,
			"error":      err,
		}).Error("Failed to publish purchase event")
		return
	}
	s.metrics.RecordEventPublished(ctx, string(event.Type()))
}

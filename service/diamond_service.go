package service

import (
	"context"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"diamondpay/events"
	"diamondpay/models"
	"diamondpay/observability"
)

// DiamondService implements the business-level diamond ledger operations.
// Every successful mutation appends a history entry, copies it to the durable
// archive and publishes an event; the last two are best-effort and never roll
// back the balance change.
type DiamondService struct {
	balances  BalanceStore
	history   HistoryStore
	pricing   PricingStore
	archive   Archiver
	publisher events.Publisher
	metrics   *observability.MetricsProvider
}

// NewDiamondService creates a new diamond ledger service
func NewDiamondService(balances BalanceStore, history HistoryStore, pricing PricingStore, archive Archiver, publisher events.Publisher, metrics *observability.MetricsProvider) *DiamondService {
	return &DiamondService{
		balances:  balances,
		history:   history,
		pricing:   pricing,
		archive:   archive,
		publisher: publisher,
		metrics:   metrics,
	}
}

// GetBalance returns the user's balance record, zeroed if never credited.
func (s *DiamondService) GetBalance(ctx context.Context, userID string) (*models.DiamondBalance, error) {
	return s.balances.Get(ctx, userID)
}

// GetHistory returns the most recent ledger entries, newest first.
func (s *DiamondService) GetHistory(ctx context.Context, userID string, limit int) ([]*models.DiamondTransaction, error) {
	return s.history.List(ctx, userID, limit)
}

// Pricing returns the current pricing configuration.
func (s *DiamondService) Pricing(ctx context.Context) (*models.PricingConfig, error) {
	return s.pricing.Get(ctx)
}

// UpdatePricing applies a partial admin pricing update. Last write wins.
func (s *DiamondService) UpdatePricing(ctx context.Context, update *models.PricingUpdate) (*models.PricingConfig, error) {
	return s.pricing.Update(ctx, update)
}

// Spend deducts diamonds for a feature. Returns the new balance, ErrNoBalance
// when the user was never credited, or InsufficientError with the current
// balance.
func (s *DiamondService) Spend(ctx context.Context, userID string, amount int64, referenceType models.ReferenceType, referenceID, description string) (int64, error) {
	if amount <= 0 {
		return 0, fmt.Errorf("spend amount must be positive")
	}
	if !referenceType.Valid() {
		return 0, fmt.Errorf("unknown reference type: %s", referenceType)
	}

	balance, err := s.balances.Spend(ctx, userID, amount)
	if err != nil {
		return 0, err
	}

	if description == "" {
		description = fmt.Sprintf("Spent %d diamonds on %s", amount, referenceType)
	}
	s.record(ctx, userID, &models.DiamondTransaction{
		ID:            genID("dt"),
		Type:          models.TransactionTypeSpend,
		Amount:        -amount,
		ReferenceID:   referenceID,
		ReferenceType: referenceType,
		Description:   description,
		CreatedAt:     time.Now().UTC(),
	})

	s.publish(ctx, events.DiamondSpentEvent{
		UserID:        userID,
		Amount:        amount,
		ReferenceType: referenceType,
		ReferenceID:   referenceID,
		SpentAt:       time.Now().UTC(),
	})
	s.metrics.RecordLedgerOp(ctx, "spend")

	return balance, nil
}

// Credit adds diamonds to a user. kind selects which lifetime counter is
// bumped and which history type is written. Credits always succeed.
func (s *DiamondService) Credit(ctx context.Context, userID string, amount int64, kind models.CreditKind, referenceID string, referenceType models.ReferenceType, description string) (int64, error) {
	if amount <= 0 {
		return 0, fmt.Errorf("credit amount must be positive")
	}
	if !kind.Valid() {
		return 0, fmt.Errorf("unknown credit kind: %s", kind)
	}

	balance, err := s.balances.Credit(ctx, userID, amount, kind)
	if err != nil {
		return 0, err
	}

	txType := models.TransactionTypeCredit
	if kind == models.CreditKindPurchase {
		txType = models.TransactionTypePurchase
	}
	if description == "" {
		description = fmt.Sprintf("Credited %d diamonds (%s)", amount, kind)
	}
	s.record(ctx, userID, &models.DiamondTransaction{
		ID:            genID("dt"),
		Type:          txType,
		Amount:        amount,
		ReferenceID:   referenceID,
		ReferenceType: referenceType,
		Description:   description,
		CreatedAt:     time.Now().UTC(),
	})

	s.publish(ctx, events.DiamondCreditedEvent{
		UserID:      userID,
		Amount:      amount,
		CreditKind:  kind,
		ReferenceID: referenceID,
		CreditedAt:  time.Now().UTC(),
	})
	s.metrics.RecordLedgerOp(ctx, "credit")

	return balance, nil
}

// Transfer moves diamonds between users as one indivisible step, writing a
// transfer_out entry for the sender and a transfer_in entry for the receiver.
func (s *DiamondService) Transfer(ctx context.Context, fromUserID, toUserID string, amount int64, referenceType models.ReferenceType, referenceID, description string) (*models.TransferResult, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("transfer amount must be positive")
	}
	if fromUserID == toUserID {
		return nil, fmt.Errorf("cannot transfer to yourself")
	}
	if referenceType == "" {
		referenceType = models.ReferenceTypeTransfer
	}
	if !referenceType.Valid() {
		return nil, fmt.Errorf("unknown reference type: %s", referenceType)
	}

	result, err := s.balances.Transfer(ctx, fromUserID, toUserID, amount)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	outID := referenceID
	if outID == "" {
		outID = toUserID
	}
	inID := referenceID
	if inID == "" {
		inID = fromUserID
	}
	outDesc := description
	if outDesc == "" {
		outDesc = fmt.Sprintf("Sent %d diamonds", amount)
	}
	inDesc := description
	if inDesc == "" {
		inDesc = fmt.Sprintf("Received %d diamonds", amount)
	}

	s.record(ctx, fromUserID, &models.DiamondTransaction{
		ID:            genID("dt"),
		Type:          models.TransactionTypeTransferOut,
		Amount:        -amount,
		ReferenceID:   outID,
		ReferenceType: referenceType,
		Description:   outDesc,
		CreatedAt:     now,
	})
	s.record(ctx, toUserID, &models.DiamondTransaction{
		ID:            genID("dt"),
		Type:          models.TransactionTypeTransferIn,
		Amount:        amount,
		ReferenceID:   inID,
		ReferenceType: referenceType,
		Description:   inDesc,
		CreatedAt:     now,
	})

	s.publish(ctx, events.DiamondSpentEvent{
		UserID:        fromUserID,
		Amount:        amount,
		ReferenceType: referenceType,
		ReferenceID:   outID,
		SpentAt:       now,
	})
	s.publish(ctx, events.DiamondCreditedEvent{
		UserID:      toUserID,
		Amount:      amount,
		CreditKind:  models.CreditKindReceived,
		ReferenceID: inID,
		CreditedAt:  now,
	})
	s.metrics.RecordLedgerOp(ctx, "transfer")

	return result, nil
}

// SpendOnSuperLike charges the configured super-like cost.
func (s *DiamondService) SpendOnSuperLike(ctx context.Context, userID string) (balance, cost int64, err error) {
	cfg, err := s.pricing.Get(ctx)
	if err != nil {
		return 0, 0, err
	}
	balance, err = s.Spend(ctx, userID, cfg.SuperLikeCost,
		models.ReferenceTypeSuperLike, "",
		fmt.Sprintf("Super Like (%d diamonds)", cfg.SuperLikeCost))
	if err != nil {
		return 0, 0, err
	}
	return balance, cfg.SuperLikeCost, nil
}

// SpendOnBoost charges the configured boost cost and returns when the boost
// expires.
func (s *DiamondService) SpendOnBoost(ctx context.Context, userID string) (balance, cost int64, expiresAt time.Time, err error) {
	cfg, err := s.pricing.Get(ctx)
	if err != nil {
		return 0, 0, time.Time{}, err
	}
	balance, err = s.Spend(ctx, userID, cfg.BoostCost,
		models.ReferenceTypeBoost, "",
		fmt.Sprintf("Profile Boost (%d diamonds)", cfg.BoostCost))
	if err != nil {
		return 0, 0, time.Time{}, err
	}
	expiresAt = time.Now().UTC().Add(time.Duration(cfg.BoostDurationMinutes) * time.Minute)
	return balance, cfg.BoostCost, expiresAt, nil
}

// SpendOnTip transfers diamonds to a creator as a tip.
func (s *DiamondService) SpendOnTip(ctx context.Context, fromUserID, toUserID string, amount int64, postID, message string) (tipID string, result *models.TransferResult, err error) {
	refID := postID
	if refID == "" {
		refID = toUserID
	}
	description := fmt.Sprintf("Tipped %d diamonds", amount)
	if message != "" {
		description = "Tip: " + message
	}
	result, err = s.Transfer(ctx, fromUserID, toUserID, amount, models.ReferenceTypeTip, refID, description)
	if err != nil {
		return "", nil, err
	}
	return genID("tip"), result, nil
}

// SpendOnPostPurchase unlocks a pay-per-view post by transferring its price
// to the creator.
func (s *DiamondService) SpendOnPostPurchase(ctx context.Context, buyerID, postID string, price int64, creatorID string) (purchaseID string, buyerBalance int64, err error) {
	result, err := s.Transfer(ctx, buyerID, creatorID, price, models.ReferenceTypePPV, postID,
		fmt.Sprintf("Unlocked post %s for %d diamonds", postID, price))
	if err != nil {
		return "", 0, err
	}
	return genID("ppv"), result.FromBalance, nil
}

// SpendOnDMUnlock unlocks direct messaging with a creator.
func (s *DiamondService) SpendOnDMUnlock(ctx context.Context, buyerID, creatorID string, price int64) (purchaseID string, buyerBalance int64, err error) {
	result, err := s.Transfer(ctx, buyerID, creatorID, price, models.ReferenceTypeDMUnlock, creatorID,
		fmt.Sprintf("Unlocked DM with creator for %d diamonds", price))
	if err != nil {
		return "", 0, err
	}
	return genID("dmp"), result.FromBalance, nil
}

// AdminAdjustBalance applies a signed manual correction. Positive amounts are
// credits and always succeed; negative amounts are debits subject to the
// usual insufficiency rule. A zero amount just returns the current balance.
func (s *DiamondService) AdminAdjustBalance(ctx context.Context, userID string, amount int64, reason string) (int64, error) {
	description := "Admin adjustment: " + reason
	switch {
	case amount > 0:
		return s.Credit(ctx, userID, amount, models.CreditKindPurchase, "", models.ReferenceTypeAdminAdjust, description)
	case amount < 0:
		return s.Spend(ctx, userID, -amount, models.ReferenceTypeAdminAdjust, "", description)
	default:
		balance, err := s.balances.Get(ctx, userID)
		if err != nil {
			return 0, err
		}
		return balance.Balance, nil
	}
}

// ConvertToCash burns diamonds in exchange for cash. The pricing record is
// snapshotted once: the minimum check, the rate and the fee all come from the
// same read, so a concurrent admin update cannot split the computation.
func (s *DiamondService) ConvertToCash(ctx context.Context, userID string, diamondAmount int64) (*models.ConversionResult, error) {
	if diamondAmount <= 0 {
		return nil, fmt.Errorf("conversion amount must be positive")
	}

	cfg, err := s.pricing.Get(ctx)
	if err != nil {
		return nil, err
	}
	if diamondAmount < cfg.MinConversionDiamonds {
		return nil, &models.BelowMinimumError{Minimum: float64(cfg.MinConversionDiamonds), What: "conversion"}
	}

	remaining, err := s.balances.Convert(ctx, userID, diamondAmount)
	if err != nil {
		return nil, err
	}

	grossCash := float64(diamondAmount) / float64(cfg.ConversionRate)
	cashAmount := round2(grossCash * (1 - cfg.PlatformFeeRate))

	now := time.Now().UTC()
	s.record(ctx, userID, &models.DiamondTransaction{
		ID:            genID("dt"),
		Type:          models.TransactionTypeConversion,
		Amount:        -diamondAmount,
		ReferenceType: models.ReferenceTypeCashConversion,
		Description:   fmt.Sprintf("Converted %d diamonds to $%.2f", diamondAmount, cashAmount),
		CreatedAt:     now,
	})

	s.publish(ctx, events.DiamondConvertedEvent{
		UserID:        userID,
		DiamondAmount: diamondAmount,
		CashAmount:    cashAmount,
		ConvertedAt:   now,
	})
	s.metrics.RecordLedgerOp(ctx, "convert")

	return &models.ConversionResult{CashAmount: cashAmount, RemainingBalance: remaining}, nil
}

// record appends a history entry and archives it. Both are best-effort: the
// balance has already moved and a follow-up write failure must not surface a
// spurious error for a mutation that succeeded.
func (s *DiamondService) record(ctx context.Context, userID string, tx *models.DiamondTransaction) {
	if err := s.history.Append(ctx, userID, tx); err != nil {
		log.WithFields(log.Fields{
			"userId": userID,
			"txId":   tx.ID,
			"error":  err,
		}).Error("Failed to append ledger history")
	}

	archiveEntry(ctx, s.archive, &models.ArchiveEntry{
		ID:            tx.ID,
		UserID:        userID,
		Ledger:        models.LedgerDiamond,
		EntryType:     string(tx.Type),
		Amount:        float64(tx.Amount),
		ReferenceID:   tx.ReferenceID,
		ReferenceType: string(tx.ReferenceType),
		Description:   tx.Description,
		CreatedAt:     tx.CreatedAt,
	})
}

func (s *DiamondService) publish(ctx context.Context, event events.Event) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(event); err != nil {
		log.WithFields(log.Fields{
			"eventType": event.Type(),
			"error":     err,
		}).Error("Failed to publish event")
		return
	}
	s.metrics.RecordEventPublished(ctx, string(event.Type()))
}

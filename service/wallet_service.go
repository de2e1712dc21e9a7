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

// minWithdrawalAmount is the smallest cash withdrawal accepted, in dollars.
const minWithdrawalAmount = 20

// WalletService manages creator cash wallets: fee-adjusted earning credits,
// withdrawal requests and the admin approval flow.
type WalletService struct {
	wallets     WalletStore
	withdrawals WithdrawalStore
	pricing     PricingStore
	archive     Archiver
	publisher   events.Publisher
	metrics     *observability.MetricsProvider
}

// NewWalletService creates a new creator wallet service
func NewWalletService(wallets WalletStore, withdrawals WithdrawalStore, pricing PricingStore, archive Archiver, publisher events.Publisher, metrics *observability.MetricsProvider) *WalletService {
	return &WalletService{
		wallets:     wallets,
		withdrawals: withdrawals,
		pricing:     pricing,
		archive:     archive,
		publisher:   publisher,
		metrics:     metrics,
	}
}

// GetWallet returns the creator's wallet, initialized empty on first access.
func (s *WalletService) GetWallet(ctx context.Context, userID string) (*models.Wallet, error) {
	return s.wallets.Get(ctx, userID)
}

// GetHistory returns recent wallet transactions, newest first.
func (s *WalletService) GetHistory(ctx context.Context, userID string, limit int) ([]*models.WalletTransaction, error) {
	return s.wallets.History(ctx, userID, limit)
}

// Credit adds an earning to a creator's wallet. The platform fee is deducted
// up front: the wallet balance only ever holds net amounts, and the history
// entry records gross, fee and net separately.
func (s *WalletService) Credit(ctx context.Context, userID string, grossAmount float64, kind models.EarningKind, referenceID string) (*models.Wallet, error) {
	if grossAmount <= 0 {
		return nil, fmt.Errorf("credit amount must be positive")
	}
	if !kind.Valid() {
		return nil, fmt.Errorf("unknown earning kind: %s", kind)
	}

	cfg, err := s.pricing.Get(ctx)
	if err != nil {
		return nil, err
	}
	platformFee := round2(grossAmount * cfg.PlatformFeeRate)
	netAmount := round2(grossAmount - platformFee)

	wallet, err := s.wallets.Credit(ctx, userID, netAmount)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	tx := &models.WalletTransaction{
		ID:          genID("wt"),
		UserID:      userID,
		Type:        models.WalletTransactionType(kind),
		Amount:      grossAmount,
		NetAmount:   netAmount,
		PlatformFee: platformFee,
		ReferenceID: referenceID,
		Description: fmt.Sprintf("Earned $%.2f (%s), $%.2f after platform fee", grossAmount, kind, netAmount),
		CreatedAt:   now,
	}
	s.recordWalletTx(ctx, userID, tx)

	s.publish(ctx, events.WalletCreditedEvent{
		UserID:      userID,
		Kind:        kind,
		GrossAmount: grossAmount,
		NetAmount:   netAmount,
		PlatformFee: platformFee,
		ReferenceID: referenceID,
		CreditedAt:  now,
	})
	s.metrics.RecordWalletOp(ctx, "credit")

	return wallet, nil
}

// RequestWithdrawal moves funds from the available balance into a pending
// withdrawal. The deduction happens first so the same dollars cannot back two
// concurrent requests.
func (s *WalletService) RequestWithdrawal(ctx context.Context, userID string, amount float64, payoutMethod, payoutDetails string) (*models.Withdrawal, error) {
	if amount < minWithdrawalAmount {
		return nil, &models.BelowMinimumError{Minimum: minWithdrawalAmount, What: "withdrawal"}
	}
	amount = round2(amount)

	if _, err := s.wallets.Deduct(ctx, userID, amount); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	wd := &models.Withdrawal{
		ID:            genID("wd"),
		UserID:        userID,
		Amount:        amount,
		Status:        models.WithdrawalStatusPending,
		PayoutMethod:  payoutMethod,
		PayoutDetails: payoutDetails,
		RequestedAt:   now,
	}
	if err := s.withdrawals.Create(ctx, wd); err != nil {
		// The deduction already happened. Put the money back rather than
		// leaving it stranded outside both the wallet and the queue. Refund,
		// not Credit: returned funds are not a new earning.
		if _, refundErr := s.wallets.Refund(ctx, userID, amount); refundErr != nil {
			log.WithFields(log.Fields{
				"userId": userID,
				"amount": amount,
				"error":  refundErr,
			}).Error("Failed to refund wallet after withdrawal create failure")
		}
		return nil, fmt.Errorf("failed to record withdrawal: %w", err)
	}

	s.recordWalletTx(ctx, userID, &models.WalletTransaction{
		ID:          genID("wt"),
		UserID:      userID,
		Type:        models.WalletTransactionWithdrawal,
		Amount:      amount,
		NetAmount:   -amount,
		ReferenceID: wd.ID,
		Description: fmt.Sprintf("Withdrawal request for $%.2f via %s", amount, payoutMethod),
		CreatedAt:   now,
	})

	s.publish(ctx, events.WithdrawalRequestedEvent{
		WithdrawalID: wd.ID,
		UserID:       userID,
		Amount:       amount,
		PayoutMethod: payoutMethod,
		RequestedAt:  now,
	})
	s.metrics.RecordWalletOp(ctx, "withdrawal_request")

	return wd, nil
}

// ProcessWithdrawal resolves a pending withdrawal. Approve marks it completed
// and counts it toward lifetime payouts; reject returns the funds to the
// wallet. Either way the state is terminal, and a second call returns
// ErrAlreadyProcessed.
func (s *WalletService) ProcessWithdrawal(ctx context.Context, withdrawalID string, action models.WithdrawalAction) (*models.Withdrawal, error) {
	if !action.Valid() {
		return nil, fmt.Errorf("unknown withdrawal action: %s", action)
	}

	existing, err := s.withdrawals.Get(ctx, withdrawalID)
	if err != nil {
		return nil, err
	}

	wd, _, err := s.withdrawals.Transition(ctx, withdrawalID, existing.UserID, action)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	if action == models.WithdrawalActionApprove {
		s.publish(ctx, events.WithdrawalCompletedEvent{
			WithdrawalID: wd.ID,
			UserID:       wd.UserID,
			Amount:       wd.Amount,
			PayoutMethod: wd.PayoutMethod,
			CompletedAt:  now,
		})
		archiveEntry(ctx, s.archive, &models.ArchiveEntry{
			ID:          "arch-" + wd.ID,
			UserID:      wd.UserID,
			Ledger:      models.LedgerWallet,
			EntryType:   string(models.WalletTransactionWithdrawal),
			Amount:      -wd.Amount,
			ReferenceID: wd.ID,
			Description: fmt.Sprintf("Withdrawal of $%.2f completed", wd.Amount),
			CreatedAt:   now,
		})
	} else {
		s.publish(ctx, events.WithdrawalRejectedEvent{
			WithdrawalID: wd.ID,
			UserID:       wd.UserID,
			Amount:       wd.Amount,
			PayoutMethod: wd.PayoutMethod,
			RejectedAt:   now,
		})
		s.recordWalletTx(ctx, wd.UserID, &models.WalletTransaction{
			ID:          genID("wt"),
			UserID:      wd.UserID,
			Type:        models.WalletTransactionWithdrawal,
			Amount:      wd.Amount,
			NetAmount:   wd.Amount,
			ReferenceID: wd.ID,
			Description: fmt.Sprintf("Withdrawal of $%.2f rejected, funds returned", wd.Amount),
			CreatedAt:   now,
		})
	}
	s.metrics.RecordWithdrawalTransition(ctx, string(action))

	return wd, nil
}

// ListWithdrawals returns the user's withdrawal requests, newest first.
func (s *WalletService) ListWithdrawals(ctx context.Context, userID string) ([]*models.Withdrawal, error) {
	return s.withdrawals.ListByUser(ctx, userID)
}

// ListPendingWithdrawals returns all unresolved requests, oldest first, for
// the admin review queue.
func (s *WalletService) ListPendingWithdrawals(ctx context.Context) ([]*models.Withdrawal, error) {
	return s.withdrawals.ListPending(ctx)
}

// EarningsSummary bundles the wallet, recent activity and in-flight
// withdrawals into one read for the creator dashboard.
type EarningsSummary struct {
	Wallet             *models.Wallet              `json:"wallet"`
	RecentTransactions []*models.WalletTransaction `json:"recentTransactions"`
	OpenWithdrawals    []*models.Withdrawal        `json:"openWithdrawals"`
}

// GetEarningsSummary returns the creator dashboard view.
func (s *WalletService) GetEarningsSummary(ctx context.Context, userID string) (*EarningsSummary, error) {
	wallet, err := s.wallets.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	recent, err := s.wallets.History(ctx, userID, 20)
	if err != nil {
		return nil, err
	}
	all, err := s.withdrawals.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	open := make([]*models.Withdrawal, 0)
	for _, wd := range all {
		if wd.Status == models.WithdrawalStatusPending || wd.Status == models.WithdrawalStatusProcessing {
			open = append(open, wd)
		}
	}
	return &EarningsSummary{
		Wallet:             wallet,
		RecentTransactions: recent,
		OpenWithdrawals:    open,
	}, nil
}

// recordWalletTx appends a wallet history entry and archives it, best-effort.
func (s *WalletService) recordWalletTx(ctx context.Context, userID string, tx *models.WalletTransaction) {
	if err := s.wallets.AppendHistory(ctx, userID, tx); err != nil {
		log.WithFields(log.Fields{
			"userId": userID,
			"txId":   tx.ID,
			"error":  err,
		}).Error("Failed to append wallet history")
	}

	archiveEntry(ctx, s.archive, &models.ArchiveEntry{
		ID:          tx.ID,
		UserID:      userID,
		Ledger:      models.LedgerWallet,
		EntryType:   string(tx.Type),
		Amount:      tx.NetAmount,
		ReferenceID: tx.ReferenceID,
		Description: tx.Description,
		CreatedAt:   tx.CreatedAt,
	})
}

func (s *WalletService) publish(ctx context.Context, event events.Event) {
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

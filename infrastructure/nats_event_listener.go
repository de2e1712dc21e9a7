package infrastructure

import (
	"context"
	"encoding/json"
	"fmt"

	log "github.com/sirupsen/logrus"

	"diamondpay/models"
)

// Inbound subjects produced by the rest of the platform.
const (
	SubjectPaymentConfirmed = "payment.confirmed"
	SubjectEarningRecorded  = "earnings.recorded"

	inboundStreamName = "platform_events"
)

// PaymentConfirmedMessage is the gateway bridge's payment notification. The
// metadata map carries the checkout session metadata verbatim.
type PaymentConfirmedMessage struct {
	ExternalPaymentID string            `json:"externalPaymentId"`
	Metadata          map[string]string `json:"metadata"`
}

// EarningRecordedMessage reports a creator earning to be credited to the
// cash wallet. Amount is the gross dollar amount before the platform fee.
type EarningRecordedMessage struct {
	UserID      string             `json:"userId"`
	Amount      float64            `json:"amount"`
	Kind        models.EarningKind `json:"kind"`
	ReferenceID string             `json:"referenceId"`
}

// PurchaseReconciler is the slice of the purchase service the listener needs.
type PurchaseReconciler interface {
	HandlePaymentConfirmed(ctx context.Context, externalPaymentID string, metadata map[string]string) error
}

// WalletCreditor is the slice of the wallet service the listener needs.
type WalletCreditor interface {
	Credit(ctx context.Context, userID string, grossAmount float64, kind models.EarningKind, referenceID string) (*models.Wallet, error)
}

// NATSEventListener consumes platform events that feed the ledger: payment
// confirmations from the gateway bridge and creator earnings.
type NATSEventListener struct {
	natsClient *NATSClient
	purchases  PurchaseReconciler
	wallets    WalletCreditor
}

// NewNATSEventListener creates a new NATS event listener
func NewNATSEventListener(natsClient *NATSClient, purchases PurchaseReconciler, wallets WalletCreditor) *NATSEventListener {
	return &NATSEventListener{
		natsClient: natsClient,
		purchases:  purchases,
		wallets:    wallets,
	}
}

// Start ensures the inbound stream exists and registers durable consumers.
func (l *NATSEventListener) Start(ctx context.Context) error {
	subjects := []string{SubjectPaymentConfirmed, SubjectEarningRecorded}
	if err := l.natsClient.EnsureStream(inboundStreamName, subjects); err != nil {
		return fmt.Errorf("failed to ensure inbound stream: %w", err)
	}

	if err := l.natsClient.Subscribe(SubjectPaymentConfirmed, func(data []byte) error {
		return l.handlePaymentConfirmed(ctx, data)
	}); err != nil {
		return err
	}

	if err := l.natsClient.Subscribe(SubjectEarningRecorded, func(data []byte) error {
		return l.handleEarningRecorded(ctx, data)
	}); err != nil {
		return err
	}

	return nil
}

func (l *NATSEventListener) handlePaymentConfirmed(ctx context.Context, data []byte) error {
	var msg PaymentConfirmedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		// Malformed messages are dropped, not redelivered.
		log.WithError(err).Error("Failed to unmarshal payment confirmation")
		return nil
	}

	return l.purchases.HandlePaymentConfirmed(ctx, msg.ExternalPaymentID, msg.Metadata)
}

func (l *NATSEventListener) handleEarningRecorded(ctx context.Context, data []byte) error {
	var msg EarningRecordedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		log.WithError(err).Error("Failed to unmarshal earning message")
		return nil
	}
	if msg.UserID == "" || msg.Amount <= 0 || !msg.Kind.Valid() {
		log.WithFields(log.Fields{
			"userId": msg.UserID,
			"amount": msg.Amount,
			"kind":   msg.Kind,
		}).Warn("Dropping invalid earning message")
		return nil
	}

	if _, err := l.wallets.Credit(ctx, msg.UserID, msg.Amount, msg.Kind, msg.ReferenceID); err != nil {
		return fmt.Errorf("failed to credit earning for %s: %w", msg.UserID, err)
	}
	return nil
}

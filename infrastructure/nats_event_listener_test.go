package infrastructure

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"diamondpay/models"
)

type fakeReconciler struct {
	paymentID string
	metadata  map[string]string
	calls     int
}

func (f *fakeReconciler) HandlePaymentConfirmed(ctx context.Context, externalPaymentID string, metadata map[string]string) error {
	f.paymentID = externalPaymentID
	f.metadata = metadata
	f.calls++
	return nil
}

type fakeCreditor struct {
	userID string
	amount float64
	kind   models.EarningKind
	calls  int
}

func (f *fakeCreditor) Credit(ctx context.Context, userID string, grossAmount float64, kind models.EarningKind, referenceID string) (*models.Wallet, error) {
	f.userID = userID
	f.amount = grossAmount
	f.kind = kind
	f.calls++
	return &models.Wallet{UserID: userID, Balance: grossAmount}, nil
}

func TestNATSEventListener_PaymentConfirmed(t *testing.T) {
	reconciler := &fakeReconciler{}
	listener := NewNATSEventListener(nil, reconciler, nil)

	data, err := json.Marshal(PaymentConfirmedMessage{
		ExternalPaymentID: "pay_abc",
		Metadata: map[string]string{
			"purchaseId": "dp-1",
			"userId":     "user-1",
		},
	})
	require.NoError(t, err)

	require.NoError(t, listener.handlePaymentConfirmed(context.Background(), data))

	assert.Equal(t, 1, reconciler.calls)
	assert.Equal(t, "pay_abc", reconciler.paymentID)
	assert.Equal(t, "dp-1", reconciler.metadata["purchaseId"])
}

func TestNATSEventListener_PaymentConfirmed_MalformedDropped(t *testing.T) {
	reconciler := &fakeReconciler{}
	listener := NewNATSEventListener(nil, reconciler, nil)

	// Returning nil prevents JetStream redelivery of garbage.
	assert.NoError(t, listener.handlePaymentConfirmed(context.Background(), []byte("{not json")))
	assert.Equal(t, 0, reconciler.calls)
}

func TestNATSEventListener_EarningRecorded(t *testing.T) {
	creditor := &fakeCreditor{}
	listener := NewNATSEventListener(nil, nil, creditor)

	data, err := json.Marshal(EarningRecordedMessage{
		UserID:      "creator-1",
		Amount:      10.00,
		Kind:        models.EarningKindTip,
		ReferenceID: "tip-1",
	})
	require.NoError(t, err)

	require.NoError(t, listener.handleEarningRecorded(context.Background(), data))

	assert.Equal(t, 1, creditor.calls)
	assert.Equal(t, "creator-1", creditor.userID)
	assert.Equal(t, 10.00, creditor.amount)
	assert.Equal(t, models.EarningKindTip, creditor.kind)
}

func TestNATSEventListener_EarningRecorded_InvalidDropped(t *testing.T) {
	creditor := &fakeCreditor{}
	listener := NewNATSEventListener(nil, nil, creditor)

	for _, msg := range []EarningRecordedMessage{
		{UserID: "", Amount: 10, Kind: models.EarningKindTip},
		{UserID: "creator-1", Amount: 0, Kind: models.EarningKindTip},
		{UserID: "creator-1", Amount: 10, Kind: models.EarningKind("lottery")},
	} {
		data, err := json.Marshal(msg)
		require.NoError(t, err)
		assert.NoError(t, listener.handleEarningRecorded(context.Background(), data))
	}
	assert.Equal(t, 0, creditor.calls)
}

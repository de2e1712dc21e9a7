package gateway

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// CheckoutSession is the handle returned by the payment gateway for a
// pending purchase. The user completes payment at RedirectURL; confirmation
// arrives later through the gateway's payment event.
type CheckoutSession struct {
	SessionID   string
	RedirectURL string
}

// Metadata keys the gateway echoes back on payment confirmation. They are the
// reconciliation key between the external payment and the purchase record.
const (
	MetadataPurchaseID    = "purchaseId"
	MetadataUserID        = "userId"
	MetadataDiamondAmount = "diamondAmount"
)

// CheckoutClient is the boundary to the external payment gateway. Only the
// checkout-session contract is consumed; the gateway SDK lives behind it.
type CheckoutClient interface {
	CreateCheckoutSession(ctx context.Context, amountUSD float64, description string, metadata map[string]string) (*CheckoutSession, error)
}

// FakeClient is the local development stand-in for the gateway. It records
// created sessions so a dev harness can replay them as confirmed payments.
type FakeClient struct {
	mu       sync.Mutex
	sessions map[string]map[string]string // sessionID -> metadata
}

// NewFakeClient creates a fake checkout client
func NewFakeClient() *FakeClient {
	return &FakeClient{sessions: make(map[string]map[string]string)}
}

// CreateCheckoutSession returns a synthetic session without contacting any gateway.
func (c *FakeClient) CreateCheckoutSession(ctx context.Context, amountUSD float64, description string, metadata map[string]string) (*CheckoutSession, error) {
	id := "cs_fake_" + uuid.NewString()

	c.mu.Lock()
	c.sessions[id] = metadata
	c.mu.Unlock()

	return &CheckoutSession{
		SessionID:   id,
		RedirectURL: fmt.Sprintf("https://checkout.invalid/session/%s", id),
	}, nil
}

// SessionMetadata returns the metadata recorded for a fake session.
func (c *FakeClient) SessionMetadata(sessionID string) (map[string]string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	md, ok := c.sessions[sessionID]
	return md, ok
}

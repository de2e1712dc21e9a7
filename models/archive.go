package models

import (
	"time"
)

// Ledger identifies which currency ledger an archive entry belongs to.
type Ledger string

const (
	LedgerDiamond Ledger = "diamond"
	LedgerWallet  Ledger = "wallet"
)

// ArchiveEntry is the durable copy of a balance mutation, written to Postgres
// after the Redis-side history append. The archive is the audit source of
// record: Redis history lists can be reconstructed from it.
type ArchiveEntry struct {
	ID            string    `db:"id"`
	UserID        string    `db:"user_id"`
	Ledger        Ledger    `db:"ledger"`
	EntryType     string    `db:"entry_type"`
	Amount        float64   `db:"amount"`
	ReferenceID   string    `db:"reference_id"`
	ReferenceType string    `db:"reference_type"`
	Description   string    `db:"description"`
	CreatedAt     time.Time `db:"created_at"`
}

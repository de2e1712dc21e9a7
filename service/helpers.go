package service

import (
	"context"
	"math"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"diamondpay/models"
)

// genID generates a prefixed unique id, e.g. dt-8f14e45f-....
func genID(prefix string) string {
	return prefix + "-" + uuid.NewString()
}

// round2 rounds a cash amount to cents.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// archiveEntry copies a mutation to the durable archive, best-effort.
func archiveEntry(ctx context.Context, archive Archiver, entry *models.ArchiveEntry) {
	if archive == nil {
		return
	}
	if err := archive.Record(ctx, entry); err != nil {
		log.WithFields(log.Fields{
			"entryId": entry.ID,
			"userId":  entry.UserID,
			"error":   err,
		}).Error("Failed to archive ledger entry")
	}
}

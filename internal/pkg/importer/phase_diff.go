package importer

import (
	"bytes"
	"encoding/json"
	"time"

	"github.com/JorisBrandt/PayImport/app/models"
)

// phaseFingerprint is the canonical comparable form of a billing phase. The
// sequence number is deliberately absent: an existing first phase compares
// equal to a candidate regardless of where it sits in the sequence.
type phaseFingerprint struct {
	StartAt       int64  `json:"start_at"`
	IntervalCount int    `json:"interval_count"`
	IntervalUnit  string `json:"interval_unit"`
	Amount        string `json:"amount"`
	Currency      string `json:"currency"`
	TaxAmount     string `json:"tax_amount"`
	TotalPeriods  *int   `json:"total_periods"`
}

func fingerprint(p models.SubscriptionPhase) ([]byte, error) {
	return json.Marshal(phaseFingerprint{
		StartAt:       p.StartAt.UTC().Unix(),
		IntervalCount: p.IntervalCount,
		IntervalUnit:  p.IntervalUnit,
		Amount:        p.Amount.String(),
		Currency:      p.Currency,
		TaxAmount:     p.TaxAmount.String(),
		TotalPeriods:  p.TotalPeriods,
	})
}

// PhasesEqual compares two phases in their canonical serialized form,
// ignoring sequence numbers and cancellation state.
func PhasesEqual(a, b models.SubscriptionPhase) bool {
	fa, errA := fingerprint(a)
	fb, errB := fingerprint(b)
	if errA != nil || errB != nil {
		return false
	}
	return bytes.Equal(fa, fb)
}

// ApplyCandidatePhase diffs the candidate phase against the subscription's
// current first phase. When they are structurally equal nothing changes and
// an idempotent re-import is a no-op on phases. When they differ, every
// existing phase is marked canceled and the candidate is appended as the
// only active phase. Reports whether the phase set changed.
func ApplyCandidatePhase(sub *models.Subscription, candidate models.SubscriptionPhase, now time.Time) bool {
	if first := sub.FirstPhase(); first != nil && PhasesEqual(*first, candidate) {
		return false
	}

	maxSeq := 0
	for i := range sub.Phases {
		if sub.Phases[i].SequenceNumber > maxSeq {
			maxSeq = sub.Phases[i].SequenceNumber
		}
		if sub.Phases[i].CanceledAt == nil {
			canceled := now
			sub.Phases[i].CanceledAt = &canceled
		}
	}

	candidate.SequenceNumber = maxSeq + 1
	candidate.CanceledAt = nil
	sub.Phases = append(sub.Phases, candidate)
	return true
}

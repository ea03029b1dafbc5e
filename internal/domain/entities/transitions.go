package entities

// validTransitions is the exhaustive settlement lifecycle table. Any edge
// not listed here is illegal and must leave the stored status unchanged.
var validTransitions = map[SettlementStatus][]SettlementStatus{
	SettlementStatusPending:    {SettlementStatusApproved, SettlementStatusHold},
	SettlementStatusHold:       {SettlementStatusApproved, SettlementStatusFailed},
	SettlementStatusApproved:   {SettlementStatusDispatched},
	SettlementStatusDispatched: {SettlementStatusSettled, SettlementStatusFailed},
	SettlementStatusFailed:     {SettlementStatusApproved, SettlementStatusFailedPermanent},
	// SETTLED and FAILED_PERMANENT are terminal
}

// CanTransition reports whether from -> to is a legal settlement transition.
func CanTransition(from, to SettlementStatus) bool {
	for _, next := range validTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

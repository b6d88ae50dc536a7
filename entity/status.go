package entity

type TransferStatus string

const (
	StatusL1Pending      TransferStatus = "L1_PENDING"
	StatusL1Confirmed    TransferStatus = "L1_CONFIRMED"
	StatusL1Failure      TransferStatus = "L1_FAILURE"
	StatusL2Pending      TransferStatus = "L2_PENDING"
	StatusL2Success      TransferStatus = "L2_SUCCESS"
	StatusL2Failure      TransferStatus = "L2_FAILURE"
	StatusCreationFailed TransferStatus = "CREATION_FAILED"
	StatusExpired        TransferStatus = "EXPIRED"

	StatusUnconfirmed       TransferStatus = "UNCONFIRMED"
	StatusConfirmed         TransferStatus = "CONFIRMED"
	StatusExecuted          TransferStatus = "EXECUTED"
	StatusWithdrawalFailure TransferStatus = "WITHDRAWAL_FAILURE"

	StatusCctpDefault            TransferStatus = "CCTP_DEFAULT_STATE"
	StatusCctpPendingAttestation TransferStatus = "CCTP_PENDING_ATTESTATION"
	StatusCctpAttested           TransferStatus = "CCTP_ATTESTED"
	StatusCctpComplete           TransferStatus = "CCTP_COMPLETE"
	StatusCctpFailure            TransferStatus = "CCTP_FAILURE"
)

var terminalStatuses = map[TransferStatus]bool{
	StatusL1Failure:         true,
	StatusL2Success:         true,
	StatusL2Failure:         true,
	StatusCreationFailed:    true,
	StatusExpired:           true,
	StatusExecuted:          true,
	StatusWithdrawalFailure: true,
	StatusCctpComplete:      true,
	StatusCctpFailure:       true,
}

// AllStatuses lists every status in lifecycle order, used to pre-register metric labels.
var AllStatuses = []TransferStatus{
	StatusL1Pending, StatusL1Confirmed, StatusL1Failure, StatusL2Pending, StatusL2Success,
	StatusL2Failure, StatusCreationFailed, StatusExpired,
	StatusUnconfirmed, StatusConfirmed, StatusExecuted, StatusWithdrawalFailure,
	StatusCctpDefault, StatusCctpPendingAttestation, StatusCctpAttested, StatusCctpComplete, StatusCctpFailure,
}

func (s TransferStatus) IsTerminal() bool {
	return terminalStatuses[s]
}

func (s TransferStatus) IsCctp() bool {
	switch s {
	case StatusCctpDefault, StatusCctpPendingAttestation, StatusCctpAttested, StatusCctpComplete, StatusCctpFailure:
		return true
	default:
		return false
	}
}

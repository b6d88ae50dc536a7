package reconcile

import (
	"bytes"
	"errors"
	"fmt"
	"time"

	"github.com/omni/tokenbridge-transfers/entity"
)

var ErrUnexpectedEvidence = errors.New("evidence does not apply to the record")

// Transition computes the record that results from applying one piece of evidence.
// The input record is never modified. Terminal records are returned unchanged.
func Transition(tx *entity.Transaction, ev Evidence, now time.Time) (*entity.Transaction, error) {
	if tx == nil {
		return nil, fmt.Errorf("nil record: %w", ErrUnexpectedEvidence)
	}
	next := tx.Clone()
	if tx.Status.IsTerminal() {
		return next, nil
	}

	var err error
	switch {
	case tx.Status.IsCctp():
		err = transitionCctp(next, ev, now)
	case tx.IsWithdrawal():
		err = transitionWithdrawal(next, ev)
	default:
		err = transitionDeposit(next, ev)
	}
	if err != nil {
		return nil, fmt.Errorf("%T in status %s: %w", ev, tx.Status, err)
	}

	if next.Status != tx.Status {
		next.UpdatedAt = now
		if next.Status.IsTerminal() && next.ResolvedAt == nil {
			resolvedAt := now
			next.ResolvedAt = &resolvedAt
		}
	}
	return next, nil
}

func transitionDeposit(tx *entity.Transaction, ev Evidence) error {
	switch ev := ev.(type) {
	case SourceReceipt:
		if tx.Status != entity.StatusL1Pending {
			return nil
		}
		if !ev.Success {
			tx.Status = entity.StatusL1Failure
			return nil
		}
		setBlockNum(tx, ev.BlockNumber)
		tx.Status = entity.StatusL1Confirmed
		return nil
	case RetryableStatus:
		if tx.Status != entity.StatusL1Confirmed && tx.Status != entity.StatusL2Pending {
			return ErrUnexpectedEvidence
		}
		if ev.TicketID != nil {
			id := *ev.TicketID
			tx.UniqueID = &id
		}
		if ev.ChildTxID != nil {
			id := *ev.ChildTxID
			tx.ChildTxID = &id
		}
		switch ev.State {
		case RetryableNotYetCreated:
		case RetryableCreated:
			tx.Status = entity.StatusL2Pending
		case RetryableRedeemed, RetryableFundsDeposited:
			tx.Status = entity.StatusL2Success
		case RetryableCreationFailed:
			tx.Status = entity.StatusCreationFailed
		case RetryableExpired:
			tx.Status = entity.StatusExpired
		case RetryableFailed:
			tx.Status = entity.StatusL2Failure
		default:
			return fmt.Errorf("retryable state %d: %w", ev.State, ErrUnexpectedEvidence)
		}
		return nil
	default:
		return ErrUnexpectedEvidence
	}
}

func transitionWithdrawal(tx *entity.Transaction, ev Evidence) error {
	switch ev := ev.(type) {
	case SourceReceipt:
		if tx.Status != entity.StatusUnconfirmed || tx.BlockNum != nil {
			return nil
		}
		if !ev.Success {
			tx.Status = entity.StatusWithdrawalFailure
			return nil
		}
		setBlockNum(tx, ev.BlockNumber)
		return nil
	case WithdrawalStatus:
		if tx.BlockNum == nil {
			return ErrUnexpectedEvidence
		}
		if ev.Position != nil {
			id := *ev.Position
			tx.UniqueID = &id
		}
		switch ev.State {
		case WithdrawalUnconfirmed:
		case WithdrawalConfirmed:
			tx.Status = entity.StatusConfirmed
		case WithdrawalExecuted:
			if ev.ExecutionTxID != nil {
				id := *ev.ExecutionTxID
				tx.ChildTxID = &id
			}
			tx.Status = entity.StatusExecuted
		default:
			return fmt.Errorf("withdrawal state %d: %w", ev.State, ErrUnexpectedEvidence)
		}
		return nil
	default:
		return ErrUnexpectedEvidence
	}
}

func transitionCctp(tx *entity.Transaction, ev Evidence, now time.Time) error {
	if tx.Cctp == nil {
		tx.Cctp = new(entity.CctpData)
	}
	switch ev := ev.(type) {
	case SourceReceipt:
		if tx.Status != entity.StatusCctpDefault {
			return nil
		}
		// A burn without a message can never be attested.
		if !ev.Success || len(ev.MessageBytes) == 0 || ev.AttestationHash == nil {
			tx.Status = entity.StatusCctpFailure
			return nil
		}
		setBlockNum(tx, ev.BlockNumber)
		hash := *ev.AttestationHash
		tx.UniqueID = &hash
		tx.Cctp.AttestationHash = &hash
		tx.Cctp.MessageBytes = bytes.Clone(ev.MessageBytes)
		tx.Status = entity.StatusCctpPendingAttestation
		return nil
	case Attestation:
		switch tx.Status {
		case entity.StatusCctpPendingAttestation:
			if ev.Complete {
				tx.Cctp.Attestation = bytes.Clone(ev.Attestation)
				tx.Status = entity.StatusCctpAttested
			}
			return nil
		case entity.StatusCctpAttested:
			return nil
		default:
			return ErrUnexpectedEvidence
		}
	case ReceiveMessage:
		if tx.Status != entity.StatusCctpPendingAttestation && tx.Status != entity.StatusCctpAttested {
			return ErrUnexpectedEvidence
		}
		if !ev.Success {
			return nil
		}
		timestamp := ev.Timestamp
		if timestamp.IsZero() {
			timestamp = now
		}
		tx.Cctp.ReceiveMessageTimestamp = &timestamp
		if ev.TxHash != nil {
			hash := *ev.TxHash
			tx.Cctp.ReceiveMessageTransactionHash = &hash
			tx.ChildTxID = &hash
		}
		tx.Status = entity.StatusCctpComplete
		return nil
	default:
		return ErrUnexpectedEvidence
	}
}

func setBlockNum(tx *entity.Transaction, n uint64) {
	tx.BlockNum = &n
}

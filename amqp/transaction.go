package amqp

import "github.com/israelio/amqp-go/internal/wire"

// Transactions batch publishes on a channel until committed or rolled
// back. The transaction flag flips when the request is handed to the
// transport and the broker's select-ok, commit-ok and rollback-ok replies
// carry no further information; a broker rejection arrives as a channel
// error and forces the flag off along with the channel.

// StartTransaction puts the channel in transaction mode. Fails with
// ErrTransactionActive when a transaction is already running.
func (ch *Channel) StartTransaction() error {
	if ch.state != sessionConnected {
		return ErrChannelClosed
	}
	if ch.tx {
		return ErrTransactionActive
	}
	if err := ch.sendMethod(wire.ClassTx, wire.TxSelect, nil); err != nil {
		return err
	}
	ch.tx = true
	ch.log.Debug().Msg("transaction started")
	return nil
}

// CommitTransaction commits the running transaction and leaves the
// channel ready for the next one. Fails with ErrNoTransaction when none
// is running.
func (ch *Channel) CommitTransaction() error {
	if ch.state != sessionConnected {
		return ErrChannelClosed
	}
	if !ch.tx {
		return ErrNoTransaction
	}
	if err := ch.sendMethod(wire.ClassTx, wire.TxCommit, nil); err != nil {
		return err
	}
	ch.tx = false
	ch.log.Debug().Msg("transaction committed")
	return nil
}

// RollbackTransaction abandons the running transaction. Fails with
// ErrNoTransaction when none is running.
func (ch *Channel) RollbackTransaction() error {
	if ch.state != sessionConnected {
		return ErrChannelClosed
	}
	if !ch.tx {
		return ErrNoTransaction
	}
	if err := ch.sendMethod(wire.ClassTx, wire.TxRollback, nil); err != nil {
		return err
	}
	ch.tx = false
	ch.log.Debug().Msg("transaction rolled back")
	return nil
}

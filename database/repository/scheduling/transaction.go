package schedulingRepo

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readconcern"
	"go.mongodb.org/mongo-driver/mongo/writeconcern"
)

// mongoTx wraps a mongo session. Writes issued with Context() belong to the
// transaction until Commit or Rollback.
type mongoTx struct {
	session mongo.Session
	ctx     mongo.SessionContext
}

func (t *mongoTx) Context() context.Context { return t.ctx }

func (t *mongoTx) Commit(ctx context.Context) error {
	defer t.session.EndSession(ctx)
	if err := t.session.CommitTransaction(ctx); err != nil {
		return fmt.Errorf("commit failed: %w", err)
	}
	return nil
}

func (t *mongoTx) Rollback(ctx context.Context) error {
	defer t.session.EndSession(ctx)
	if err := t.session.AbortTransaction(ctx); err != nil {
		return fmt.Errorf("rollback failed: %w", err)
	}
	return nil
}

// BeginTx opens a session with snapshot reads and majority writes so two
// bookings racing for the same slot serialize at commit.
func (repo *MongoSchedulingRepo) BeginTx(ctx context.Context) (Tx, error) {
	client := repo.appointmentColl.Database().Client()
	session, err := client.StartSession()
	if err != nil {
		return nil, fmt.Errorf("could not start mongo session: %w", err)
	}

	txnOpts := options.Transaction().
		SetReadConcern(readconcern.Snapshot()).
		SetWriteConcern(writeconcern.Majority())
	if err := session.StartTransaction(txnOpts); err != nil {
		session.EndSession(ctx)
		return nil, fmt.Errorf("could not start transaction: %w", err)
	}

	return &mongoTx{
		session: session,
		ctx:     mongo.NewSessionContext(ctx, session),
	}, nil
}

// IsTransient reports whether a commit error is safe to retry. Mongo labels
// write conflicts between racing transactions as transient.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	var cmdErr mongo.CommandError
	if errors.As(err, &cmdErr) {
		return cmdErr.HasErrorLabel("TransientTransactionError") ||
			cmdErr.HasErrorLabel("UnknownTransactionCommitResult")
	}
	return false
}

package db

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/require"
)

// stubTx satisfies pgx.Tx through the embedded interface; only the methods
// the helper touches are implemented.
type stubTx struct {
	pgx.Tx
	commitErr error
}

func (s *stubTx) Commit(context.Context) error   { return s.commitErr }
func (s *stubTx) Rollback(context.Context) error { return nil }

type stubBeginner struct {
	begun     int
	commitErr []error
}

func (s *stubBeginner) BeginTx(context.Context, pgx.TxOptions) (pgx.Tx, error) {
	var err error
	if s.begun < len(s.commitErr) {
		err = s.commitErr[s.begun]
	}
	s.begun++
	return &stubTx{commitErr: err}, nil
}

func serializationErr() error {
	return &pgconn.PgError{Code: "40001", Message: "could not serialize access due to concurrent update"}
}

func TestWithTxRetriesSerializationFailure(t *testing.T) {
	beginner := &stubBeginner{commitErr: []error{serializationErr(), nil}}

	runs := 0
	err := WithTx(context.Background(), beginner, func(pgx.Tx) error {
		runs++
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, 2, beginner.begun)
	require.Equal(t, 2, runs, "fn must rerun from scratch after a conflict")
}

func TestWithTxRetriesConflictRaisedInsideFn(t *testing.T) {
	beginner := &stubBeginner{}

	runs := 0
	err := WithTx(context.Background(), beginner, func(pgx.Tx) error {
		runs++
		if runs == 1 {
			return serializationErr()
		}
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, 2, runs)
}

func TestWithTxGivesUpAfterRepeatedConflicts(t *testing.T) {
	beginner := &stubBeginner{commitErr: []error{serializationErr(), serializationErr(), serializationErr(), serializationErr()}}

	err := WithTx(context.Background(), beginner, func(pgx.Tx) error { return nil })
	require.Error(t, err)
	require.True(t, IsSerializationFailure(err))
	require.Equal(t, txAttempts, beginner.begun)
}

func TestWithTxDoesNotRetryOtherErrors(t *testing.T) {
	beginner := &stubBeginner{}
	boom := errors.New("boom")

	runs := 0
	err := WithTx(context.Background(), beginner, func(pgx.Tx) error {
		runs++
		return boom
	})
	require.ErrorIs(t, err, boom)
	require.Equal(t, 1, runs)
}

func TestIsSerializationFailure(t *testing.T) {
	require.True(t, IsSerializationFailure(serializationErr()))
	require.True(t, IsSerializationFailure(&pgconn.PgError{Code: "40P01"}))
	require.False(t, IsSerializationFailure(&pgconn.PgError{Code: "23505"}))
	require.False(t, IsSerializationFailure(errors.New("boom")))
	require.False(t, IsSerializationFailure(nil))
}

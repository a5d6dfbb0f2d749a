package repository

import (
	"context"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/hotel-crypto-reservation/internal/model"
)

func TestReservationTransition(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	repo := NewReservationRepo(db)

	ext := "PMS-1"
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE reservations SET status = ?`)).
		WithArgs(model.ReservationBooked, ext, nil, nil, sqlmock.AnyArg(), "r-1", model.ReservationPending).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.Transition(context.Background(), "r-1", model.ReservationPending, model.ReservationBooked,
		ReservationPatch{ExternalID: &ext}, stamp))

	mock.ExpectExec(regexp.QuoteMeta(`UPDATE reservations SET status = ?`)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	err = repo.Transition(context.Background(), "r-1", model.ReservationPending, model.ReservationBooked, ReservationPatch{}, stamp)
	require.ErrorIs(t, err, ErrStaleState)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReservationCreateDuplicate(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	repo := NewReservationRepo(db)

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO reservations`)).
		WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry"})
	err = repo.Create(context.Background(), &model.Reservation{ID: "r-1", CheckIn: checkIn, CheckOut: checkOut, CreatedAt: stamp})
	require.ErrorIs(t, err, ErrConflict)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReservationGetMissing(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	mock.ExpectQuery(regexp.QuoteMeta(`FROM reservations WHERE id = ?`)).
		WithArgs("nope").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	res, err := NewReservationRepo(db).Get(context.Background(), "nope")
	require.NoError(t, err)
	require.Nil(t, res)
	require.NoError(t, mock.ExpectationsWereMet())
}

package repository

import (
	"context"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/api-client-manager/internal/model"
)

var customerCols = []string{"id", "username", "email_address", "nellys_coin_user_id", "status", "type", "language", "created_at", "updated_at"}

func customerRow(id int64, username string) *sqlmock.Rows {
	return sqlmock.NewRows(customerCols).
		AddRow(id, username, username+"@example.com", int64(100+id), "confirmed", "admin", "fr", fixedNow, fixedNow)
}

func newCustomerRepo(t *testing.T) (*CustomerRepo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	r := NewCustomerRepo(db)
	r.now = func() time.Time { return fixedNow }
	return r, mock
}

func TestCustomerFind_ByNellysCoinUserID(t *testing.T) {
	repo, mock := newCustomerRepo(t)
	mock.ExpectQuery(`FROM customers WHERE nellys_coin_user_id = \?`).
		WithArgs(uint64(103)).
		WillReturnRows(customerRow(3, "jean"))

	c, err := repo.Find(context.Background(), model.CustomerFilter{NellysCoinUserID: ptr(uint64(103))})
	require.NoError(t, err)
	assert.Equal(t, "jean", c.Username)
	assert.True(t, c.IsAdmin())
}

func TestCustomerFind_NotFound(t *testing.T) {
	repo, mock := newCustomerRepo(t)
	mock.ExpectQuery(`FROM customers WHERE username = \?`).WillReturnRows(sqlmock.NewRows(customerCols))

	_, err := repo.Find(context.Background(), model.CustomerFilter{Username: ptr("ghost")})
	assert.ErrorIs(t, err, ErrCustomerNotFound)
}

func TestCustomerCreate(t *testing.T) {
	repo, mock := newCustomerRepo(t)
	mock.ExpectExec(`INSERT INTO customers`).
		WithArgs("jean", "jean@example.com", uint64(103), "confirmed", "admin", "fr", fixedNow, fixedNow).
		WillReturnResult(sqlmock.NewResult(3, 1))
	mock.ExpectQuery(`FROM customers WHERE id = \?`).WithArgs(uint64(3)).WillReturnRows(customerRow(3, "jean"))

	c, err := repo.Create(context.Background(), &model.Customer{
		Username: "jean", EmailAddress: "jean@example.com", NellysCoinUserID: 103, Status: "confirmed", Type: "admin", Language: "fr",
	})
	require.NoError(t, err)
	assert.Equal(t, uint64(3), c.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCustomerUpdate_DuplicateUsername(t *testing.T) {
	repo, mock := newCustomerRepo(t)
	mock.ExpectExec(`UPDATE customers SET username = \?`).
		WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry 'marie'"})

	_, err := repo.Update(context.Background(), 3, model.CustomerPatch{Username: "marie"})
	assert.ErrorIs(t, err, ErrDuplicate)
}

func TestCustomerUpdate_ReadsBack(t *testing.T) {
	repo, mock := newCustomerRepo(t)
	mock.ExpectExec(`UPDATE customers SET`).
		WithArgs("jeanne", "jean@example.com", "confirmed", "admin", "fr", fixedNow, uint64(3)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`FROM customers WHERE id = \?`).WillReturnRows(customerRow(3, "jeanne"))

	c, err := repo.Update(context.Background(), 3, model.CustomerPatch{
		Username: "jeanne", EmailAddress: "jean@example.com", Status: "confirmed", Type: "admin", Language: "fr",
	})
	require.NoError(t, err)
	assert.Equal(t, "jeanne", c.Username)
}

func TestCustomerList(t *testing.T) {
	repo, mock := newCustomerRepo(t)
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM customers WHERE username = \?`).
		WithArgs("jean").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(int64(1)))
	mock.ExpectQuery(`FROM customers WHERE username = \? ORDER BY`).
		WithArgs("jean", 20, 0).
		WillReturnRows(customerRow(3, "jean"))

	page, err := repo.List(context.Background(), model.CustomerFilter{Username: ptr("jean")}, model.Window{Limit: 20})
	require.NoError(t, err)
	assert.Equal(t, 1, page.Count)
	assert.Equal(t, 1, page.TotalCount)
}

package models_test

import (
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/meinhoongagan/petrent-api/db"
	"github.com/meinhoongagan/petrent-api/models"
)

// The sqlite test database ignores row locks, so the statement postgres
// receives is checked here instead.
func TestLockPetSelectsForUpdate(t *testing.T) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })
	gdb, err := db.Open(postgres.New(postgres.Config{Conn: sqlDB}))
	require.NoError(t, err)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT \* FROM "pets" WHERE status <> .*"pets"."id" = .* FOR UPDATE`).
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id", "owner_id", "name", "status"}).AddRow(7, 3, "Rex", "active"))
	mock.ExpectCommit()

	var pet *models.Pet
	err = gdb.Transaction(func(tx *gorm.DB) error {
		var err error
		pet, err = models.LockPet(tx, 7)
		return err
	})
	require.NoError(t, err)
	assert.Equal(t, uint(7), pet.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

package storage

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"car-price-estimator/models"
)

func setupMockDB(t *testing.T) (*PostgresStore, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewPostgresStoreFromDB(db), mock
}

func sampleRecords() []models.ListingRecord {
	return []models.ListingRecord{
		{Brand: "BMW", Model: "5 Series", BodyType: models.BodySedan, FuelType: models.FuelPetrol, Seats: 5, Color: "White", City: "Delhi", ModelYear: 2019},
		{Brand: "Toyota", Model: "Innova", BodyType: models.BodyMUV, FuelType: models.FuelDiesel, Seats: 7, Color: "Silver", City: "Bangalore", ModelYear: 2016},
	}
}

func TestPostgresStoreMigrate(t *testing.T) {
	store, mock := setupMockDB(t)
	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS listings`).WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, store.Migrate(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStoreWrite(t *testing.T) {
	store, mock := setupMockDB(t)
	recs := sampleRecords()

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM listings`).WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec(`INSERT INTO listings \(brand, model, body_type, fuel_type, seats, color, city, model_year\)`).
		WithArgs(
			"BMW", "5 Series", "Sedan", "Petrol", 5, "White", "Delhi", 2019,
			"Toyota", "Innova", "MUV", "Diesel", 7, "Silver", "Bangalore", 2016,
		).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	require.NoError(t, store.Write(context.Background(), recs))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStoreWriteRollsBackOnInsertError(t *testing.T) {
	store, mock := setupMockDB(t)

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM listings`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`INSERT INTO listings`).WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	err := store.Write(context.Background(), sampleRecords())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "insert batch")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStoreWriteEmpty(t *testing.T) {
	store, mock := setupMockDB(t)
	require.NoError(t, store.Write(context.Background(), nil))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStoreLoad(t *testing.T) {
	store, mock := setupMockDB(t)

	rows := sqlmock.NewRows([]string{"brand", "model", "body_type", "fuel_type", "seats", "color", "city", "model_year"}).
		AddRow("BMW", "5 Series", "Sedan", "Petrol", 5, "White", "Delhi", 2019).
		AddRow("Toyota", "Innova", "MUV", "Diesel", 7, "Silver", "Bangalore", 2016)
	mock.ExpectQuery(`SELECT brand, model, body_type, fuel_type, seats, color, city, model_year FROM listings ORDER BY id`).
		WillReturnRows(rows)

	got, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, sampleRecords(), got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStoreLoadQueryError(t *testing.T) {
	store, mock := setupMockDB(t)
	mock.ExpectQuery(`SELECT brand`).WillReturnError(errors.New("connection reset"))

	_, err := store.Load(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fetch all")
}

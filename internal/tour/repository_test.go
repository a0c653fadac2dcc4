package tour

import (
	"context"
	"database/sql/driver"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/minh-le0205/tour-rest-api/internal/apperr"
	"github.com/minh-le0205/tour-rest-api/internal/database"
	"github.com/minh-le0205/tour-rest-api/internal/user"
)

var tourColumns = []string{
	"id", "name", "summary", "description", "duration_days", "max_group_size",
	"difficulty", "price_cents", "ratings_average", "ratings_quantity",
	"created_at", "updated_at",
}

func newMockRepo(t *testing.T) (*Repository, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		sqlDB.Close()
	})
	return NewRepository(database.NewBunDB(sqlDB)), mock
}

func tourRow(id uuid.UUID, name string) []driver.Value {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	return []driver.Value{
		id.String(), name, "Breathtaking hike", "", 5, 25,
		"easy", int64(39700), 4.5, 0,
		now, now,
	}
}

func validInput() Input {
	return Input{
		Name:         user.Ptr("The Forest Hiker"),
		Summary:      user.Ptr("Breathtaking hike"),
		DurationDays: user.Ptr(5),
		MaxGroupSize: user.Ptr(25),
		Difficulty:   user.Ptr(DifficultyEasy),
		PriceCents:   user.Ptr(int64(39700)),
	}
}

func TestRepository_Create(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(`INSERT INTO "tours"`).
		WillReturnRows(sqlmock.NewRows(tourColumns).AddRow(tourRow(uuid.New(), "The Forest Hiker")...))

	created, err := repo.Create(context.Background(), validInput())
	require.NoError(t, err)
	assert.Equal(t, "The Forest Hiker", created.Name)
	assert.Equal(t, DifficultyEasy, created.Difficulty)
	assert.Equal(t, int64(39700), created.PriceCents)
	assert.Equal(t, 4.5, created.RatingsAverage)
}

func TestRepository_Create_Validation(t *testing.T) {
	repo, _ := newMockRepo(t)

	in := validInput()
	in.Name = nil
	_, err := repo.Create(context.Background(), in)
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))

	in = validInput()
	in.Difficulty = user.Ptr(Difficulty("extreme"))
	_, err = repo.Create(context.Background(), in)
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
}

func TestRepository_Create_DuplicateName(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(`INSERT INTO "tours"`).
		WillReturnError(&pq.Error{Code: "23505"})

	_, err := repo.Create(context.Background(), validInput())
	assert.ErrorIs(t, err, ErrDuplicateName)
}

func TestRepository_FindByID(t *testing.T) {
	repo, mock := newMockRepo(t)
	id := uuid.New()

	mock.ExpectQuery(`SELECT .* FROM "tours" AS "t" WHERE \(id = '` + id.String() + `'\)`).
		WillReturnRows(sqlmock.NewRows(tourColumns).AddRow(tourRow(id, "The Sea Explorer")...))

	got, err := repo.FindByID(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, id, got.ID)
}

func TestRepository_FindByID_NotFound(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(`SELECT .* FROM "tours"`).
		WillReturnRows(sqlmock.NewRows(tourColumns))

	_, err := repo.FindByID(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRepository_List(t *testing.T) {
	repo, mock := newMockRepo(t)
	difficulty := DifficultyEasy
	maxPrice := int64(50000)

	mock.ExpectQuery(`WHERE \(difficulty = 'easy'\) AND \(price_cents <= 50000\) ORDER BY price_cents DESC LIMIT 10 OFFSET 20`).
		WillReturnRows(sqlmock.NewRows(tourColumns).
			AddRow(tourRow(uuid.New(), "The Forest Hiker")...).
			AddRow(tourRow(uuid.New(), "The Snow Adventurer")...))

	tours, err := repo.List(context.Background(), ListOptions{
		Limit: 10, Offset: 20, Difficulty: &difficulty, MaxPriceCents: &maxPrice, Sort: "-price",
	})
	require.NoError(t, err)
	assert.Len(t, tours, 2)
}

func TestRepository_List_RejectsUnknownSort(t *testing.T) {
	repo, _ := newMockRepo(t)

	_, err := repo.List(context.Background(), ListOptions{Sort: "password_hash"})
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
}

func TestRepository_Update(t *testing.T) {
	repo, mock := newMockRepo(t)
	id := uuid.New()

	mock.ExpectQuery(`UPDATE "tours" AS "t" SET updated_at = NOW\(\), price_cents = 49700 WHERE \(id = '` + id.String() + `'\) RETURNING \*`).
		WillReturnRows(sqlmock.NewRows(tourColumns).AddRow(tourRow(id, "The Forest Hiker")...))

	_, err := repo.Update(context.Background(), id, Input{PriceCents: user.Ptr(int64(49700))})
	require.NoError(t, err)
}

func TestRepository_Update_NotFound(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(`UPDATE "tours"`).
		WillReturnRows(sqlmock.NewRows(tourColumns))

	_, err := repo.Update(context.Background(), uuid.New(), Input{Summary: user.Ptr("x")})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRepository_Delete(t *testing.T) {
	repo, mock := newMockRepo(t)
	id := uuid.New()

	mock.ExpectExec(`DELETE FROM "tours" AS "t" WHERE \(id = '` + id.String() + `'\)`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.Delete(context.Background(), id))

	mock.ExpectExec(`DELETE FROM "tours"`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	assert.ErrorIs(t, repo.Delete(context.Background(), id), ErrNotFound)

	mock.ExpectExec(`DELETE FROM "tours"`).
		WillReturnError(errors.New("connection reset"))
	err := repo.Delete(context.Background(), id)
	require.Error(t, err)
	assert.Equal(t, apperr.KindInternal, apperr.KindOf(err))
}

func TestListOptions_OrderExpr(t *testing.T) {
	for sort, want := range map[string]string{
		"":                "created_at DESC",
		"price":           "price_cents ASC",
		"-ratings_average": "ratings_average DESC",
		"duration":        "duration_days ASC",
	} {
		got, err := ListOptions{Sort: sort}.OrderExpr()
		require.NoError(t, err)
		assert.Equal(t, want, got, sort)
	}
}

package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cineops/showtime-api/internal/models"
)

func newMovieRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func movieRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "title", "duration_minutes", "genre", "rating", "description",
		"release_date", "created_at", "updated_at",
	})
}

func TestMovieRepositoryListAppliesFilters(t *testing.T) {
	db, mock, cleanup := newMovieRepoMock(t)
	defer cleanup()
	repo := NewMovieRepository(db)

	now := time.Now()
	rows := movieRows().
		AddRow("movie-1", "Alien Harvest", 104, "sci-fi", "PG-13", "", nil, now, now)

	mock.ExpectQuery(regexp.QuoteMeta("FROM movies WHERE 1=1 AND rating = $1 AND title ILIKE $2 ORDER BY title ASC LIMIT 20 OFFSET 0")).
		WithArgs("PG-13", "%alien%").
		WillReturnRows(rows)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM movies WHERE 1=1 AND rating = $1 AND title ILIKE $2")).
		WithArgs("PG-13", "%alien%").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	movies, total, err := repo.List(context.Background(), models.MovieFilter{Title: "alien", Rating: "PG-13"})
	require.NoError(t, err)
	require.Len(t, movies, 1)
	assert.Equal(t, "Alien Harvest", movies[0].Title)
	assert.Equal(t, 1, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMovieRepositoryListGenreFilter(t *testing.T) {
	db, mock, cleanup := newMovieRepoMock(t)
	defer cleanup()
	repo := NewMovieRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM movies WHERE 1=1 AND LOWER(genre) = LOWER($1) ORDER BY title ASC LIMIT 10 OFFSET 10")).
		WithArgs("action").
		WillReturnRows(movieRows())
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM movies WHERE 1=1 AND LOWER(genre) = LOWER($1)")).
		WithArgs("action").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	movies, total, err := repo.List(context.Background(), models.MovieFilter{Genre: "action", Page: 2, PageSize: 10})
	require.NoError(t, err)
	assert.Empty(t, movies)
	assert.Zero(t, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

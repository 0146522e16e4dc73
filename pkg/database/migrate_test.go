package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMigrationURL(t *testing.T) {
	assert.Equal(t, "pgx5://u:p@db:5432/portal?sslmode=disable", migrationURL("postgres://u:p@db:5432/portal?sslmode=disable"))
	assert.Equal(t, "pgx5://u@db/portal", migrationURL("postgresql://u@db/portal"))
	assert.Equal(t, "pgx5://already", migrationURL("pgx5://already"))
}

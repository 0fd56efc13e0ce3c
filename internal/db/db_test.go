package db

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPaginate(t *testing.T) {
	tests := []struct {
		name       string
		page, size int
		wantLimit  uint64
		wantOffset uint64
	}{
		{"defaults", 0, 0, 20, 0},
		{"second page", 2, 10, 10, 10},
		{"clamped size", 3, 500, 100, 200},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			limit, offset := Paginate(tt.page, tt.size)
			assert.Equal(t, tt.wantLimit, limit)
			assert.Equal(t, tt.wantOffset, offset)
		})
	}
}

func TestOrderBy(t *testing.T) {
	cols := map[string]string{"created_at": "c.created_at", "name": "c.name"}

	assert.Equal(t, "c.name ASC", OrderBy(cols, "name", "c.created_at", "ASC"))
	assert.Equal(t, "c.created_at DESC", OrderBy(cols, "name; DROP TABLE users", "c.created_at", "ASC; --"))
	assert.Equal(t, "c.created_at DESC", OrderBy(cols, "", "c.created_at", ""))
}

func TestMigrationsEmbedded(t *testing.T) {
	entries, err := migrationsFS.ReadDir(migrationsDir)
	assert.NoError(t, err)
	assert.NotEmpty(t, entries)
}

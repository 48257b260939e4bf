package querybuilder

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuild(t *testing.T) {
	tests := []struct {
		name  string
		build func() *Builder
		want  string
	}{
		{
			name:  "simple select",
			build: func() *Builder { return New().Table("users") },
			want:  "SELECT * FROM users",
		},
		{
			name:  "fields",
			build: func() *Builder { return New().Table("users").Select("id", "name", "email") },
			want:  "SELECT id, name, email FROM users",
		},
		{
			name:  "distinct",
			build: func() *Builder { return New().Table("users").Select("city").Distinct() },
			want:  "SELECT DISTINCT city FROM users",
		},
		{
			name: "where conjoins with AND",
			build: func() *Builder {
				return New().Table("users").Where("age > 18").Where("status = 'active'")
			},
			want: "SELECT * FROM users WHERE age > 18 AND status = 'active'",
		},
		{
			name: "where in",
			build: func() *Builder {
				return New().Table("users").WhereIn("id", 1, 2, 3).WhereIn("name", "a", "b")
			},
			want: "SELECT * FROM users WHERE id IN (1, 2, 3) AND name IN ('a', 'b')",
		},
		{
			name: "where between and like",
			build: func() *Builder {
				return New().Table("users").WhereBetween("age", 20, 30).WhereLike("name", "A%")
			},
			want: "SELECT * FROM users WHERE age BETWEEN 20 AND 30 AND name LIKE 'A%'",
		},
		{
			name: "joins",
			build: func() *Builder {
				return New().Table("users").
					InnerJoin("orders", "users.id = orders.user_id").
					LeftJoin("profiles", "users.id = profiles.user_id")
			},
			want: "SELECT * FROM users INNER JOIN orders ON users.id = orders.user_id" +
				" LEFT JOIN profiles ON users.id = profiles.user_id",
		},
		{
			name: "group by and having",
			build: func() *Builder {
				return New().Table("orders").
					Select("user_id", "COUNT(*) AS total").
					GroupBy("user_id").
					Having("COUNT(*) > 5")
			},
			want: "SELECT user_id, COUNT(*) AS total FROM orders GROUP BY user_id HAVING COUNT(*) > 5",
		},
		{
			name: "order limit offset",
			build: func() *Builder {
				return New().Table("users").
					OrderBy("created_at", "desc").
					OrderBy("name", "").
					Limit(10).
					Offset(20)
			},
			want: "SELECT * FROM users ORDER BY created_at DESC, name ASC LIMIT 10 OFFSET 20",
		},
		{
			name:  "paginate",
			build: func() *Builder { return New().Table("users").Paginate(3, 10) },
			want:  "SELECT * FROM users LIMIT 10 OFFSET 20",
		},
		{
			name:  "limit zero is rendered",
			build: func() *Builder { return New().Table("users").Limit(0) },
			want:  "SELECT * FROM users LIMIT 0",
		},
		{
			name:  "empty where-in is a no-op",
			build: func() *Builder { return New().Table("users").WhereIn("id") },
			want:  "SELECT * FROM users",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.build().Build()
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestBuildDeterministic(t *testing.T) {
	b := New().Table("users").
		Select("id", "name").
		Where("age > 21").
		LeftJoin("orders", "users.id = orders.user_id").
		GroupBy("id").
		OrderBy("name", "ASC").
		Limit(5)

	first, err := b.Build()
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		again, err := b.Build()
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestBuildWithoutTable(t *testing.T) {
	_, err := New().Select("id").Build()
	require.Error(t, err)
	assert.Equal(t, "<querybuilder: incomplete>", New().String())
}

func TestClauseOrderFixed(t *testing.T) {
	// Mutators called out of clause order still render in fixed order.
	q, err := New().
		Limit(10).
		Having("COUNT(*) > 1").
		Where("active = 1").
		GroupBy("city").
		Table("users").
		Select("city", "COUNT(*)").
		Build()
	require.NoError(t, err)
	assert.Equal(t,
		"SELECT city, COUNT(*) FROM users WHERE active = 1 GROUP BY city HAVING COUNT(*) > 1 LIMIT 10",
		q)
}

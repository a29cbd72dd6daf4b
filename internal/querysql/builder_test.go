package querysql

import (
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSelect_Deterministic(t *testing.T) {
	first := Select("users", "id", "name").Where("id=?").String()
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, Select("users", "id", "name").Where("id=?").String())
	}
	assert.Equal(t, "SELECT id, name FROM users WHERE (id=?)", first)
}

func TestSelect_Shapes(t *testing.T) {
	tests := []struct {
		name string
		got  SelectBuilder
		want string
	}{
		{
			name: "no columns selects star",
			got:  Select("plan_users"),
			want: "SELECT * FROM plan_users",
		},
		{
			name: "no conditions omits where",
			got:  Select("plan_users", "id").Where(),
			want: "SELECT id FROM plan_users",
		},
		{
			name: "blank conditions are dropped",
			got:  Select("plan_users", "id").Where("", "  "),
			want: "SELECT id FROM plan_users",
		},
		{
			name: "and is the default operator",
			got:  Select("plan_users", "id").Where("registered>=?", "registered<=?"),
			want: "SELECT id FROM plan_users WHERE (registered>=?) AND (registered<=?)",
		},
		{
			name: "or variant",
			got:  Select("plan_users", "id").WhereAny("a=?", "b=?"),
			want: "SELECT id FROM plan_users WHERE (a=?) OR (b=?)",
		},
		{
			name: "join and order",
			got: Select("plan_users u", "u.id").
				Join("INNER JOIN plan_sessions s ON s.user_id = u.id").
				Where("s.server_id=?").
				OrderBy("u.id"),
			want: "SELECT u.id FROM plan_users u INNER JOIN plan_sessions s ON s.user_id = u.id WHERE (s.server_id=?) ORDER BY u.id",
		},
		{
			name: "distinct",
			got:  Select("plan_sessions", "user_id").Distinct().Where("server_id=?"),
			want: "SELECT DISTINCT user_id FROM plan_sessions WHERE (server_id=?)",
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.got.String())
		})
	}
}

func TestSelect_TemplateReuse(t *testing.T) {
	base := Select("plan_users", "id")
	a := base.Where("a=?")
	b := base.Where("b=?")

	assert.Equal(t, "SELECT id FROM plan_users", base.String())
	assert.Equal(t, "SELECT id FROM plan_users WHERE (a=?)", a.String())
	assert.Equal(t, "SELECT id FROM plan_users WHERE (b=?)", b.String())
}

func TestSelect_Statement(t *testing.T) {
	stmt := Select("plan_users", "id").Where("uuid=?").Statement("abc")
	assert.Equal(t, "SELECT id FROM plan_users WHERE (uuid=?)", stmt.SQL)
	assert.Equal(t, []any{"abc"}, stmt.Args)
}

func TestIn(t *testing.T) {
	assert.Equal(t, "server_id IN (?,?,?)", In("server_id", 3))
	assert.Equal(t, "1 = 0", In("server_id", 0))
}

func TestInsert_Values(t *testing.T) {
	stmt, err := Insert("plan_users", "uuid", "name", "registered").Values("u1", "steve", int64(10))
	require.NoError(t, err)
	assert.Equal(t, "INSERT INTO plan_users (uuid,name,registered) VALUES (?,?,?)", stmt.SQL)
	assert.Equal(t, []any{"u1", "steve", int64(10)}, stmt.Args)
}

func TestInsert_ArgumentMismatch(t *testing.T) {
	_, err := Insert("plan_users", "uuid", "name").Values("u1")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrArgumentCount)

	_, err = Insert("plan_users", "uuid").Values("u1", "extra")
	assert.ErrorIs(t, err, ErrArgumentCount)
}

func TestInsert_NoColumns(t *testing.T) {
	stmt, err := Insert("plan_marker").Values()
	require.NoError(t, err)
	assert.Equal(t, "INSERT INTO plan_marker DEFAULT VALUES", stmt.SQL)
}

func TestPrimaryKeyColumn(t *testing.T) {
	assert.Equal(t, "id integer PRIMARY KEY", PrimaryKeyColumn(SQLite, "id"))
	assert.Equal(t, "id integer GENERATED BY DEFAULT AS IDENTITY PRIMARY KEY", PrimaryKeyColumn(Postgres, "id"))
}

func TestCreateTable_Errors(t *testing.T) {
	_, err := CreateTable(SQLite, "empty").Build()
	assert.ErrorIs(t, err, ErrNoColumns)

	_, err = CreateTable(SQLite, "bad").NotNull().Column("a", Int).Build()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "before any column")
}

func sessionsTable(d Dialect) *TableBuilder {
	return CreateTable(d, "plan_sessions").
		PrimaryKey("id").
		Column("user_id", Int).NotNull().
		Column("server_id", Int).NotNull().
		Column("session_start", BigInt).NotNull().
		Column("session_end", BigInt).NotNull().
		Column("afk_time", BigInt).NotNull().Default("0").
		ForeignKey("user_id", "plan_users", "id").
		ForeignKey("server_id", "plan_servers", "id")
}

func TestCreateTable_Golden(t *testing.T) {
	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	for _, d := range []Dialect{SQLite, Postgres} {
		ddl, err := sessionsTable(d).Build()
		require.NoError(t, err)
		g.Assert(t, "plan_sessions_"+d.String(), []byte(ddl+"\n"))
	}
}

func TestDialect_Rebind(t *testing.T) {
	q := "SELECT id FROM plan_users WHERE (uuid=?) AND (name=?)"
	assert.Equal(t, q, SQLite.Rebind(q))
	assert.Equal(t, "SELECT id FROM plan_users WHERE (uuid=$1) AND (name=$2)", Postgres.Rebind(q))
}

func TestDialectForDriver(t *testing.T) {
	for driver, want := range map[string]Dialect{"sqlite3": SQLite, "sqlite": SQLite, "pgx": Postgres} {
		got, err := DialectForDriver(driver)
		require.NoError(t, err)
		assert.Equal(t, want, got, driver)
	}
	_, err := DialectForDriver("mysql")
	assert.Error(t, err)
}

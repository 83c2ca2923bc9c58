package db_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vvka-141/neonsql/internal/bulkload"
	"github.com/vvka-141/neonsql/internal/db"
	"github.com/vvka-141/neonsql/internal/decode"
	"github.com/vvka-141/neonsql/internal/logging"
	"github.com/vvka-141/neonsql/internal/testinfra"
	"github.com/vvka-141/neonsql/pkg/neonsql"
)

func connect(t *testing.T, connStr string) *db.ConnExecutor {
	t.Helper()

	cfg, err := db.ParseConnectionString(connStr)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	conn, err := db.NewStandardConnector(cfg, logging.NewNullLogger()).Connect(ctx)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close(context.Background()) })

	return db.NewConnExecutor(conn)
}

func TestIntegration_DecodeRuntimeTypes(t *testing.T) {
	exec := connect(t, testinfra.ConnString(t))
	ctx := context.Background()

	rs, err := exec.Query(ctx, `SELECT
		true AS b,
		'x'::varchar(5) AS v,
		'y'::char(3) AS c,
		'z'::text AS t,
		'n'::name AS n,
		7::int2 AS s,
		8::int4 AS i,
		9::int8 AS l,
		1.5::float4 AS r,
		2.25::float8 AS d,
		'2024-03-01 12:30:00.5+00'::timestamptz AS ts,
		'{"a":1}'::jsonb AS j,
		NULL::int4 AS nul`)
	require.NoError(t, err)
	require.Equal(t, 1, rs.Len())

	assert.Equal(t,
		[]string{"true", "x", "y  ", "z", "n", "7", "8", "9", "1.5", "2.25", "2024-03-01 12:30:00.5 UTC", decode.CannotParse, ""},
		decode.Strings(rs.Row(0)))
}

func TestIntegration_LoadRoundTrip(t *testing.T) {
	exec := connect(t, testinfra.ConnString(t))
	ctx := context.Background()

	const table = "load_round_trip"
	_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS `+table+`; CREATE TABLE `+table+` (
		name text, qty integer, big bigint, small smallint, ratio double precision, f real, ok boolean)`)
	require.NoError(t, err)
	t.Cleanup(func() { exec.Exec(context.Background(), `DROP TABLE IF EXISTS `+table) })

	src := "name,qty,big,small,ratio,f,ok\n" +
		"hello,5,9007199254740993,-3,0.1,0.5,yes\n" +
		"\"a, b\",6,1,2,3,4,off\n"

	res, err := bulkload.New(exec, logging.NewNullLogger()).Load(ctx, table, strings.NewReader(src), ',')
	require.NoError(t, err)
	assert.Equal(t, 2, res.Rows)
	assert.Equal(t, int64(2), res.RowsAffected)

	rs, err := exec.Query(ctx, `SELECT * FROM `+table+` ORDER BY qty`)
	require.NoError(t, err)
	require.Equal(t, 2, rs.Len())
	assert.Equal(t, []string{"hello", "5", "9007199254740993", "-3", "0.1", "0.5", "true"}, decode.Strings(rs.Row(0)))
	assert.Equal(t, []string{"a, b", "6", "1", "2", "3", "4", "false"}, decode.Strings(rs.Row(1)))
}

func TestIntegration_LoadConstraintViolation(t *testing.T) {
	exec := connect(t, testinfra.ConnString(t))
	ctx := context.Background()

	_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS load_pk; CREATE TABLE load_pk (id integer PRIMARY KEY)`)
	require.NoError(t, err)
	t.Cleanup(func() { exec.Exec(context.Background(), `DROP TABLE IF EXISTS load_pk`) })

	_, err = bulkload.New(exec, logging.NewNullLogger()).Load(ctx, "load_pk", strings.NewReader("id\n1\n1\n"), ',')
	require.Error(t, err)
	assert.True(t, errors.Is(err, neonsql.ErrExecutionFailed))

	var pgErr *pgconn.PgError
	require.True(t, errors.As(err, &pgErr))
	assert.Equal(t, "23505", pgErr.Code)

	rs, err := exec.Query(ctx, `SELECT count(*) FROM load_pk`)
	require.NoError(t, err)
	assert.Equal(t, "0", decode.Cell(rs.Row(0), 0), "a failed statement inserts nothing")
}

func TestIntegration_LoadMissingTable(t *testing.T) {
	exec := connect(t, testinfra.ConnString(t))

	_, err := bulkload.New(exec, logging.NewNullLogger()).Load(context.Background(), "no_such_table", strings.NewReader("a\n1\n"), ',')
	assert.True(t, errors.Is(err, neonsql.ErrSchema))
}

func TestIntegration_ClientCertificateAuth(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	bundle, err := testinfra.GenerateCertBundle([]string{"localhost", "127.0.0.1"})
	require.NoError(t, err)
	paths, err := bundle.WriteToDir(t.TempDir())
	require.NoError(t, err)

	ctx := context.Background()
	ctr, err := testinfra.StartTLSPostgres(ctx, paths, true)
	if err != nil {
		t.Skipf("Docker unavailable: %v", err)
	}
	t.Cleanup(func() { ctr.Terminate(context.Background()) })

	cfg, err := db.ParseConnectionString(ctr.ConnString)
	require.NoError(t, err)
	cfg.Password = ""
	cfg.SSLMode = "verify-ca"
	cfg.SSLRootCert = paths.CACert
	cfg.SSLCert = paths.ClientCert
	cfg.SSLKey = paths.ClientKey
	cfg.AuthMethod = neonsql.AuthMethodCertificate

	connector, err := db.NewConnector(cfg, logging.NewNullLogger())
	require.NoError(t, err)

	conn, err := connector.Connect(ctx)
	require.NoError(t, err)
	defer conn.Close(ctx)

	rs, err := db.NewConnExecutor(conn).Query(ctx, `SELECT ssl FROM pg_stat_ssl WHERE pid = pg_backend_pid()`)
	require.NoError(t, err)
	assert.Equal(t, "true", decode.Cell(rs.Row(0), 0))
}

package gateway

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueryRelational_Count(t *testing.T) {
	conn := &fakeConn{columns: []string{"count"}, rows: [][]any{{int64(12)}}}
	g := New(Options{Connector: connectorFor(conn)})

	res := g.QueryRelational(context.Background(), "postgres://db", "ユーザー数を教えて", "users")

	require.Equal(t, StatusSuccess, res.Status, "error: %v", res.Err)
	assert.Equal(t, "SELECT COUNT(*) as count FROM users", res.Query)
	assert.Equal(t, []string{"SELECT COUNT(*) as count FROM users"}, conn.queries)
	require.Len(t, res.Data, 1)
	assert.Equal(t, int64(12), res.Data[0]["count"])
	assert.True(t, conn.isClosed())

	env := res.Envelope()
	assert.Equal(t, 1, env["count"])
	assert.NotContains(t, env, "error")
}

func TestQueryRelational_DefaultTableAndNormalization(t *testing.T) {
	id := uuid.MustParse("7f2c3c4e-8a51-4a3e-9d51-0f6f2f0d9c11")
	conn := &fakeConn{
		columns: []string{"id", "name", "payload"},
		rows: [][]any{
			{[16]byte(id), "alice", []byte(`{"a":1}`)},
			{[16]byte(id), "bob", nil},
		},
	}
	g := New(Options{Connector: connectorFor(conn)})

	res := g.QueryRelational(context.Background(), "postgres://db", "show", "")

	require.Equal(t, StatusSuccess, res.Status)
	assert.Equal(t, "SELECT * FROM users LIMIT 10", res.Query)
	require.Len(t, res.Data, 2)
	assert.Equal(t, id.String(), res.Data[0]["id"])
	assert.Equal(t, `{"a":1}`, res.Data[0]["payload"])
	assert.Nil(t, res.Data[1]["payload"])
}

func TestQueryRelational_MissingDSN(t *testing.T) {
	connected := false
	g := New(Options{Connector: func(ctx context.Context, dsn string) (SQLConn, error) {
		connected = true
		return nil, errors.New("unexpected")
	}})

	res := g.QueryRelational(context.Background(), "", "count", "users")

	require.Equal(t, StatusError, res.Status)
	assert.Equal(t, KindConfigurationMissing, KindOf(res.Err))
	assert.ErrorIs(t, res.Err, ErrConfigurationMissing)
	assert.False(t, connected)
}

func TestQueryRelational_ClosesOnFailure(t *testing.T) {
	tests := []struct {
		name string
		conn *fakeConn
		op   string
	}{
		{
			name: "execute error",
			conn: &fakeConn{queryErr: errors.New(`relation "users" does not exist`)},
			op:   "execute",
		},
		{
			name: "fetch error",
			conn: &fakeConn{columns: []string{"id"}, rows: [][]any{{1}}, rowsErr: errors.New("conn reset")},
			op:   "fetch",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := New(Options{Connector: connectorFor(tt.conn)})

			res := g.QueryRelational(context.Background(), "postgres://db", "all", "users")

			require.Equal(t, StatusError, res.Status)
			assert.Equal(t, KindBackendFailure, KindOf(res.Err))
			assert.Contains(t, res.Err.Error(), tt.op)
			assert.True(t, tt.conn.isClosed(), "connection must be released on failure")

			env := res.Envelope()
			assert.Equal(t, "SELECT * FROM users LIMIT 100", env["query"])
			assert.NotContains(t, env, "data")
		})
	}
}

func TestQueryRelational_ExecuteCanceled(t *testing.T) {
	conn := &fakeConn{queryErr: errors.New("context canceled")}
	g := New(Options{Connector: connectorFor(conn)})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res := g.QueryRelational(ctx, "postgres://db", "all", "users")

	require.Equal(t, StatusError, res.Status)
	assert.Equal(t, KindCanceled, KindOf(res.Err))
	assert.Contains(t, res.Err.Error(), "execute")
	assert.True(t, conn.isClosed())
}

func TestQueryRelational_InvalidTableName(t *testing.T) {
	connected := false
	g := New(Options{Connector: func(ctx context.Context, dsn string) (SQLConn, error) {
		connected = true
		return &fakeConn{}, nil
	}})

	res := g.QueryRelational(context.Background(), "postgres://db", "件数", "users; DROP TABLE users")

	require.Equal(t, StatusError, res.Status)
	assert.Equal(t, KindInvalidArgument, KindOf(res.Err))
	assert.Contains(t, res.Err.Error(), "not a plain identifier")
	assert.False(t, connected, "must not connect")
}

func TestQueryRelational_ConnectError(t *testing.T) {
	g := New(Options{Connector: func(ctx context.Context, dsn string) (SQLConn, error) {
		return nil, errors.New("dial tcp: connection refused")
	}})

	res := g.QueryRelational(context.Background(), "postgres://db", "count", "users")

	require.Equal(t, StatusError, res.Status)
	assert.Equal(t, KindBackendFailure, KindOf(res.Err))
	assert.Contains(t, res.Err.Error(), "connection refused")
}

func TestPgxConnector_InvalidDSN(t *testing.T) {
	connect := PgxConnector(0)
	_, err := connect(context.Background(), "postgres://user@host:notaport/db")
	assert.Error(t, err)
}

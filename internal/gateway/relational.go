package gateway

import (
	"context"
	"fmt"
	"time"

	"awsmcp/internal/translate"
	"awsmcp/pkg/logging"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const closeTimeout = 5 * time.Second

// QueryRelational translates text into SQL against table and runs it on the
// database at dsn. The connection is opened per call and always closed.
func (g *Gateway) QueryRelational(ctx context.Context, dsn, text, table string) SQLResult {
	query := translate.TranslateSQLQuery(text, table)
	result := SQLResult{Query: query}

	var data []map[string]interface{}
	var err error
	if !translate.ValidTableName(table) {
		err = InvalidArgument("rds query", "table name %q is not a plain identifier", table)
	} else {
		data, err = g.runSQL(ctx, dsn, query)
	}
	if err != nil {
		logging.Error("Gateway", err, "RDS query failed")
		result.Status = StatusError
		result.Err = err
		return result
	}

	result.Status = StatusSuccess
	result.Data = data
	return result
}

func (g *Gateway) runSQL(ctx context.Context, dsn, query string) ([]map[string]interface{}, error) {
	if dsn == "" {
		return nil, newError(KindConfigurationMissing, "rds query", fmt.Errorf("%w: DATABASE_URL environment variable not set", ErrConfigurationMissing))
	}

	conn, err := g.connect(ctx, dsn)
	if err != nil {
		if ctx.Err() != nil {
			return nil, contextError("connect", ctx.Err())
		}
		return nil, newError(KindBackendFailure, "connect", err)
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), closeTimeout)
		defer cancel()
		if cerr := conn.Close(closeCtx); cerr != nil {
			logging.Warn("Gateway", "Failed to close database connection: %v", cerr)
		}
	}()

	logging.Debug("Gateway", "Executing SQL: %s", query)

	rows, err := conn.Query(ctx, query)
	if err != nil {
		if ctx.Err() != nil {
			return nil, contextError("execute", ctx.Err())
		}
		return nil, newError(KindBackendFailure, "execute", err)
	}

	records, err := pgx.CollectRows(rows, pgx.RowToMap)
	if err != nil {
		if ctx.Err() != nil {
			return nil, contextError("fetch", ctx.Err())
		}
		return nil, newError(KindBackendFailure, "fetch", err)
	}

	for _, record := range records {
		for column, value := range record {
			record[column] = normalizeValue(value)
		}
	}
	return records, nil
}

// normalizeValue converts driver values that do not encode well as JSON.
func normalizeValue(v interface{}) interface{} {
	switch value := v.(type) {
	case [16]byte:
		return uuid.UUID(value).String()
	case []byte:
		return string(value)
	default:
		return v
	}
}

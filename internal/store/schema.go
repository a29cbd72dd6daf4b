package store

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/plan-player-analytics/Plan-sub022/internal/ir"
	"github.com/plan-player-analytics/Plan-sub022/internal/querysql"
)

// tables returns the table builders in creation order (referenced tables first).
func tables(d querysql.Dialect) []*querysql.TableBuilder {
	return []*querysql.TableBuilder{
		querysql.CreateTable(d, ir.TableServers).
			PrimaryKey("id").
			Column("uuid", querysql.Varchar(36)).NotNull().Unique().
			Column("name", querysql.Varchar(100)).NotNull(),

		querysql.CreateTable(d, ir.TableUsers).
			PrimaryKey("id").
			Column("uuid", querysql.Varchar(36)).NotNull().Unique().
			Column("name", querysql.Varchar(36)).NotNull().
			Column("registered", querysql.BigInt).NotNull(),

		querysql.CreateTable(d, ir.TableUserInfo).
			PrimaryKey("id").
			Column("user_id", querysql.Int).NotNull().
			Column("server_id", querysql.Int).NotNull().
			Column("registered", querysql.BigInt).NotNull().
			Column("banned", querysql.Bool).NotNull().Default("false").
			Column("operator", querysql.Bool).NotNull().Default("false").
			ForeignKey("user_id", ir.TableUsers, "id").
			ForeignKey("server_id", ir.TableServers, "id"),

		querysql.CreateTable(d, ir.TableSessions).
			PrimaryKey("id").
			Column("user_id", querysql.Int).NotNull().
			Column("server_id", querysql.Int).NotNull().
			Column("session_start", querysql.BigInt).NotNull().
			Column("session_end", querysql.BigInt).NotNull().
			Column("afk_time", querysql.BigInt).NotNull().Default("0").
			ForeignKey("user_id", ir.TableUsers, "id").
			ForeignKey("server_id", ir.TableServers, "id"),
	}
}

// Schema returns the CREATE TABLE statements for dialect d.
func Schema(d querysql.Dialect) ([]string, error) {
	builders := tables(d)
	stmts := make([]string, 0, len(builders))
	for _, b := range builders {
		ddl, err := b.Build()
		if err != nil {
			return nil, fmt.Errorf("build schema: %w", err)
		}
		stmts = append(stmts, ddl)
	}
	return stmts, nil
}

// Indexes returns the secondary index statements. They are not required for
// correctness and are applied with Database.ExecBestEffort.
func Indexes() []string {
	return []string{
		querysql.CreateIndex("idx_plan_user_info_user", ir.TableUserInfo, "user_id"),
		querysql.CreateIndex("idx_plan_user_info_server", ir.TableUserInfo, "server_id"),
		querysql.CreateIndex("idx_plan_sessions_user", ir.TableSessions, "user_id"),
		querysql.CreateIndex("idx_plan_sessions_server", ir.TableSessions, "server_id"),
		querysql.CreateIndex("idx_plan_sessions_start", ir.TableSessions, "session_start"),
	}
}

// ApplySchema creates every table on e. Callers run it inside a unit of work
// so a partially created schema is never committed.
func ApplySchema(ctx context.Context, e sqlx.ExecerContext, d querysql.Dialect) error {
	stmts, err := Schema(d)
	if err != nil {
		return err
	}
	for _, stmt := range stmts {
		if _, err := e.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	return nil
}

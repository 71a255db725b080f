// 包 store: 提供与 PostgreSQL 的数据访问层，仅保存查询统计（不保存上游文档）
package store

import (
	"context"
	"database/sql"
	"fmt"

	"iprange-filter/internal/logger"

	_ "github.com/lib/pq"
)

// Store: 数据库访问入口，持有连接池并提供统计读写接口
type Store struct {
	db *sql.DB
}

func AttachDB(db *sql.DB) *Store { return &Store{db: db} }

// Close: 关闭数据库连接
func (s *Store) Close() error { return s.db.Close() }

// IncrStats: 每次解析后递增累计、当日与按 (region, ip_type) 的计数；失败请求另计失败数
// 约束：统计写入失败不影响主流程，调用方只记录日志
func (s *Store) IncrStats(ctx context.Context, region, ipType string, failed bool) error {
	fail := 0
	if failed {
		fail = 1
	}
	if _, err := s.db.ExecContext(ctx,
		"UPDATE _range_stats_total SET total_queries=total_queries+1, failed_queries=failed_queries+$1 WHERE id=1", fail); err != nil {
		return fmt.Errorf("incr total: %w", err)
	}
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO _range_stats_daily(day, queries, failures) VALUES(current_date, 1, $1)
         ON CONFLICT (day) DO UPDATE SET queries=_range_stats_daily.queries+1, failures=_range_stats_daily.failures+$1`, fail); err != nil {
		return fmt.Errorf("incr daily: %w", err)
	}
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO _range_query_stats(region, ip_type, queries, last_seen) VALUES($1, $2, 1, now())
         ON CONFLICT (region, ip_type) DO UPDATE SET queries=_range_query_stats.queries+1, last_seen=now()`, region, ipType); err != nil {
		return fmt.Errorf("incr query: %w", err)
	}
	logger.L().Debug("stats_incr", "region", region, "ip_type", ipType, "failed", failed)
	return nil
}

// QueryCount: 单个 (region, ip_type) 组合的累计次数
type QueryCount struct {
	Region  string `json:"region"`
	IPType  string `json:"ip_type"`
	Queries int64  `json:"queries"`
}

// Totals: 统计返回结构
type Totals struct {
	Total   int64        `json:"total"`
	Failed  int64        `json:"failed"`
	Today   int64        `json:"today"`
	ByQuery []QueryCount `json:"by_query"`
}

// GetTotals: 读取累计、当日与按组合的查询次数；当日无记录时为 0
func (s *Store) GetTotals(ctx context.Context) (*Totals, error) {
	var t Totals
	row := s.db.QueryRowContext(ctx, "SELECT total_queries, failed_queries FROM _range_stats_total WHERE id=1")
	if err := row.Scan(&t.Total, &t.Failed); err != nil && err != sql.ErrNoRows {
		return nil, fmt.Errorf("read total: %w", err)
	}
	row2 := s.db.QueryRowContext(ctx, "SELECT queries FROM _range_stats_daily WHERE day=current_date")
	if err := row2.Scan(&t.Today); err != nil && err != sql.ErrNoRows {
		return nil, fmt.Errorf("read daily: %w", err)
	}
	rows, err := s.db.QueryContext(ctx, "SELECT region, ip_type, queries FROM _range_query_stats ORDER BY queries DESC, region, ip_type")
	if err != nil {
		return nil, fmt.Errorf("read query stats: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var q QueryCount
		if err := rows.Scan(&q.Region, &q.IPType, &q.Queries); err != nil {
			return nil, err
		}
		t.ByQuery = append(t.ByQuery, q)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	logger.L().Debug("stats_totals", "total", t.Total, "today", t.Today, "failed", t.Failed)
	return &t, nil
}

package assignment

import (
	"context"
	"fmt"

	"github.com/jabbar-dev/bnb-aimtech/internal/model"
	"github.com/jabbar-dev/bnb-aimtech/internal/repository"
)

// Record 一条已规范化的分配配置
type Record struct {
	ID         string
	Hostler    []string
	NonHostler []string
}

// For 返回指定分区的审批人 ID
func (r Record) For(category model.Category) []string {
	if category == model.CategoryHostler {
		return r.Hostler
	}
	return r.NonHostler
}

// Source 分配配置来源
type Source interface {
	// Name 来源名称,用于日志和 Resolution.Source
	Name() string
	// Recent 返回最新的 limit 条记录,新的在前
	Recent(ctx context.Context, limit int) ([]Record, error)
}

// tableSource 基于数据库表的配置来源
type tableSource struct {
	repo   repository.AssignmentRepository
	table  string
	legacy bool
}

// NewTableSource 创建表来源,legacy 为 true 时同时读取兼容列
func NewTableSource(repo repository.AssignmentRepository, table string, legacy bool) Source {
	return &tableSource{repo: repo, table: table, legacy: legacy}
}

func (s *tableSource) Name() string {
	return s.table
}

func (s *tableSource) Recent(ctx context.Context, limit int) ([]Record, error) {
	rows, err := s.repo.Recent(ctx, s.table, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", s.table, err)
	}

	records := make([]Record, 0, len(rows))
	for _, row := range rows {
		rec := Record{
			ID:         row.ID,
			Hostler:    NormalizeIdentities(row.Hostler),
			NonHostler: NormalizeIdentities(row.NonHostler),
		}
		if s.legacy {
			rec.Hostler = mergeIdentities(rec.Hostler, NormalizeIdentities(row.HostlerLegacy))
			rec.NonHostler = mergeIdentities(rec.NonHostler, NormalizeIdentities(row.NonHostlerLegacy))
		}
		records = append(records, rec)
	}
	return records, nil
}

// DefaultSources 按优先级返回三个物理来源
// 最老的 warden_configs 没有兼容列
func DefaultSources(repo repository.AssignmentRepository) []Source {
	return []Source{
		NewTableSource(repo, model.AssignmentTablePrimary, true),
		NewTableSource(repo, model.AssignmentTableAlt, true),
		NewTableSource(repo, model.AssignmentTableWarden, false),
	}
}

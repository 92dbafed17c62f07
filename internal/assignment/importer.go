package assignment

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jabbar-dev/bnb-aimtech/internal/model"
	"gopkg.in/yaml.v3"
)

// ImportDocument 分配配置导入文件
//
//	source: primary
//	hostler: [w-1, w-2]
//	non_hostler: [w-3]
type ImportDocument struct {
	Source     string   `yaml:"source"`
	Hostler    []string `yaml:"hostler"`
	NonHostler []string `yaml:"non_hostler"`
}

// sourceTables 导入文件中的来源别名
var sourceTables = map[string]string{
	"":        model.AssignmentTablePrimary,
	"primary": model.AssignmentTablePrimary,
	"alt":     model.AssignmentTableAlt,
	"warden":  model.AssignmentTableWarden,
}

// ParseImport 解析 YAML 导入文件
func ParseImport(data []byte) (*ImportDocument, error) {
	var doc ImportDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("invalid assignment file: %w", err)
	}
	if _, ok := sourceTables[doc.Source]; !ok {
		return nil, fmt.Errorf("unknown assignment source %q", doc.Source)
	}
	if len(doc.Hostler) == 0 && len(doc.NonHostler) == 0 {
		return nil, errors.New("assignment file lists no approvers")
	}
	return &doc, nil
}

// Table 返回目标表名
func (d *ImportDocument) Table() string {
	return sourceTables[d.Source]
}

// Model 转换为一条新的配置记录
func (d *ImportDocument) Model(now time.Time) (*model.AssignmentConfigModel, error) {
	return NewConfigRecord(d.Hostler, d.NonHostler, now)
}

// NewConfigRecord 用规范 ID 列表构造配置记录
func NewConfigRecord(hostler, nonHostler []string, now time.Time) (*model.AssignmentConfigModel, error) {
	h, err := json.Marshal(mergeIdentities(hostler))
	if err != nil {
		return nil, err
	}
	n, err := json.Marshal(mergeIdentities(nonHostler))
	if err != nil {
		return nil, err
	}
	return &model.AssignmentConfigModel{
		ID:         uuid.NewString(),
		Hostler:    h,
		NonHostler: n,
		CreatedAt:  now,
		UpdatedAt:  now,
	}, nil
}

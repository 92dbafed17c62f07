package assignment

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jabbar-dev/bnb-aimtech/internal/model"
)

// NormalizeCategory 规范化请假分区,兼容历史写法
func NormalizeCategory(raw string) (model.Category, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "hostler":
		return model.CategoryHostler, true
	case "non-hostler", "nonhostler", "non_hostler":
		return model.CategoryNonHostler, true
	}
	return "", false
}

// NormalizeIdentities 把配置列中的混合表示统一成 ID 字符串
// 支持 "id" 字符串,以及 {"id": ...}、{"_id": ...}、{"$oid": ...} 对象(可嵌套)
// 结果去重并保持原始顺序,无法解析的元素被忽略
func NormalizeIdentities(raw json.RawMessage) []string {
	if len(raw) == 0 {
		return nil
	}

	var items []interface{}
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil
	}

	seen := make(map[string]struct{}, len(items))
	ids := make([]string, 0, len(items))
	for _, item := range items {
		id := identityOf(item)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	return ids
}

func identityOf(v interface{}) string {
	switch val := v.(type) {
	case string:
		return strings.TrimSpace(val)
	case float64:
		return fmt.Sprintf("%.0f", val)
	case map[string]interface{}:
		for _, key := range []string{"id", "_id", "$oid"} {
			if inner, ok := val[key]; ok {
				if id := identityOf(inner); id != "" {
					return id
				}
			}
		}
	}
	return ""
}

// mergeIdentities 合并多组 ID,去重并保持顺序
func mergeIdentities(groups ...[]string) []string {
	seen := make(map[string]struct{})
	var ids []string
	for _, group := range groups {
		for _, id := range group {
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			ids = append(ids, id)
		}
	}
	return ids
}

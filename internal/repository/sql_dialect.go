package repository

import (
	"strings"

	"gorm.io/gorm"
)

// keywordMatch 按数据库方言生成单列模糊匹配条件，postgres 使用 ILIKE 忽略大小写
func keywordMatch(db *gorm.DB, column, keyword string) (string, string) {
	operator := "LIKE"
	if isPostgres(db) {
		operator = "ILIKE"
	}
	return column + " " + operator + " ?", "%" + escapeLike(keyword) + "%"
}

func isPostgres(db *gorm.DB) bool {
	if db == nil || db.Dialector == nil {
		return false
	}
	switch strings.ToLower(db.Dialector.Name()) {
	case "postgres", "postgresql":
		return true
	default:
		return false
	}
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// escapeLike 转义通配符，关键字按字面匹配
func escapeLike(keyword string) string {
	return likeEscaper.Replace(strings.TrimSpace(keyword))
}

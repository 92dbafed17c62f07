package utils

import (
	"html"
	"regexp"
	"strings"
	"unicode"
)

var (
	idPattern   = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)
	cnicPattern = regexp.MustCompile(`^\d{13}$`)
	nonDigits   = regexp.MustCompile(`\D`)
)

// SanitizeString 转义 HTML 并移除控制字符(保留换行和制表符)
func SanitizeString(input string) string {
	return StripControl(html.EscapeString(input))
}

// StripControl 移除控制字符(保留换行和制表符)
func StripControl(input string) string {
	var result strings.Builder
	for _, r := range input {
		if unicode.IsControl(r) && r != '\n' && r != '\t' {
			continue
		}
		result.WriteRune(r)
	}

	return result.String()
}

// ValidateID 验证记录 ID 格式
func ValidateID(id string) error {
	if id == "" {
		return ErrEmptyID
	}
	if len(id) > 64 {
		return ErrIDTooLong
	}
	if !idPattern.MatchString(id) {
		return ErrInvalidIDFormat
	}
	return nil
}

// NormalizeCNIC 去掉分隔符后校验 13 位 CNIC
func NormalizeCNIC(cnic string) (string, error) {
	digits := strings.NewReplacer("-", "", " ", "").Replace(strings.TrimSpace(cnic))
	if !cnicPattern.MatchString(digits) {
		return "", ErrInvalidCNIC
	}
	return digits, nil
}

// NormalizePKPhone 规范化为短信网关要求的 92XXXXXXXXXX 格式
// 无法识别时返回空字符串
func NormalizePKPhone(num string) string {
	d := nonDigits.ReplaceAllString(num, "")
	switch {
	case d == "":
		return ""
	case strings.HasPrefix(d, "0092"):
		d = "92" + d[4:]
	case strings.HasPrefix(d, "0"):
		d = "92" + d[1:]
	case !strings.HasPrefix(d, "92") && len(d) == 10:
		d = "92" + d
	}
	return d
}

// TrimAndValidate 去除首尾空白和控制字符并检查长度
func TrimAndValidate(s string, maxLen int) (string, error) {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return "", ErrEmptyString
	}
	if maxLen > 0 && len(trimmed) > maxLen {
		return "", ErrStringTooLong
	}
	return StripControl(trimmed), nil
}

// 错误定义
var (
	ErrEmptyID         = &ValidationError{Code: "EMPTY_ID", Message: "id cannot be empty"}
	ErrInvalidIDFormat = &ValidationError{Code: "INVALID_ID_FORMAT", Message: "id contains invalid characters"}
	ErrIDTooLong       = &ValidationError{Code: "ID_TOO_LONG", Message: "id exceeds maximum length"}
	ErrEmptyString     = &ValidationError{Code: "EMPTY_STRING", Message: "string cannot be empty"}
	ErrStringTooLong   = &ValidationError{Code: "STRING_TOO_LONG", Message: "string exceeds maximum length"}
	ErrInvalidCNIC     = &ValidationError{Code: "INVALID_CNIC", Message: "CNIC must be 13 digits"}
)

// ValidationError 验证错误
type ValidationError struct {
	Code    string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

package textutil

import (
	"html"
	"regexp"
	"strings"
	"unicode"

	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const slugFallbackLen = 12

var (
	strict      = bluemonday.StrictPolicy()
	spaceRe     = regexp.MustCompile(`[\t\r\n ]+`)
	lineSpaceRe = regexp.MustCompile(`[\t ]+`)
	slugTrimRe  = regexp.MustCompile(`[^a-z0-9]+`)
	keyRe       = regexp.MustCompile(`[^a-z0-9_\-]`)
)

// SanitizeText 去掉所有标签，合并空白，用于单行文本
func SanitizeText(s string) string {
	s = html.UnescapeString(strict.Sanitize(s))
	s = spaceRe.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// SanitizeTextarea 去掉标签但保留换行
func SanitizeTextarea(s string) string {
	s = html.UnescapeString(strict.Sanitize(s))
	s = strings.ReplaceAll(s, "\r\n", "\n")
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(lineSpaceRe.ReplaceAllString(line, " "))
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

// SanitizeKey 只保留小写字母、数字、下划线和连字符
func SanitizeKey(s string) string {
	return keyRe.ReplaceAllString(strings.ToLower(s), "")
}

// Slugify 由名称生成 URL 友好的标识，重音字符折叠为 ASCII。
// 名称里有文字但折叠后不剩 ASCII 字母数字时（如中文），返回由名称派生的固定 12 位标识
func Slugify(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}
	folded = strings.ToLower(SanitizeText(folded))
	slug := strings.Trim(slugTrimRe.ReplaceAllString(folded, "-"), "-")
	if slug == "" && strings.IndexFunc(folded, isWordRune) >= 0 {
		return fallbackSlug(folded)
	}
	return slug
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsNumber(r)
}

func fallbackSlug(s string) string {
	id := uuid.NewSHA1(uuid.NameSpaceURL, []byte(s)).String()
	return strings.ReplaceAll(id, "-", "")[:slugFallbackLen]
}

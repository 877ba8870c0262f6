// Package emphasis 为文本片段中的长单词加粗
//
// 长单词指由字母组成、长度（按字符计）大于 MinWordLength 的完整单词。
// 字母判断基于 Unicode，西里尔文、希腊文等均适用；日文等不以空格分词的文字
// 会把整段连续字母当成一个单词，这是已知且保留的行为。
package emphasis

import (
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/dlclark/regexp2"
)

// MinWordLength 单词长度超过该值才会加粗
const MinWordLength = 4

const (
	openTag  = "<strong>"
	closeTag = "</strong>"
)

// Span 需要加粗的区间（字节偏移，左闭右开）
type Span struct {
	Start int
	End   int
}

// Emphasize 把文本中所有长单词的每一处完整出现都包裹在 <strong></strong> 中，
// 然后压缩空白、去掉首尾空白，并在末尾追加一个空格
//
// 示例：
//
//	Emphasize("The quick brown fox jumps over the lazy dog.")
//	// "The <strong>quick</strong> <strong>brown</strong> fox <strong>jumps</strong> over the lazy dog. "
func Emphasize(text string) string {
	spans := Spans(text)

	var b strings.Builder
	b.Grow(len(text) + len(spans)*(len(openTag)+len(closeTag)))

	last := 0
	for _, s := range spans {
		b.WriteString(text[last:s.Start])
		b.WriteString(openTag)
		b.WriteString(text[s.Start:s.End])
		b.WriteString(closeTag)
		last = s.End
	}
	b.WriteString(text[last:])

	return strings.Join(strings.Fields(b.String()), " ") + " "
}

// Tokens 返回文本中互不相同的字母单词（非字母字符一律视为分隔符）
func Tokens(text string) []string {
	fields := strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r)
	})

	seen := make(map[string]struct{}, len(fields))
	tokens := make([]string, 0, len(fields))
	for _, f := range fields {
		if _, ok := seen[f]; ok {
			continue
		}
		seen[f] = struct{}{}
		tokens = append(tokens, f)
	}
	return tokens
}

// Spans 返回所有长单词在原文中的完整出现区间，按起始位置排序且互不重叠
//
// 每个单词都在原始文本上独立查找，最后统一合并，结果与单词的处理顺序无关。
func Spans(text string) []Span {
	var spans []Span
	var offsets []int
	for _, token := range Tokens(text) {
		if utf8.RuneCountInString(token) <= MinWordLength {
			continue
		}
		if offsets == nil {
			offsets = runeOffsets(text)
		}
		spans = append(spans, wholeWordMatches(text, token, offsets)...)
	}
	return merge(spans)
}

// wholeWordMatches 查找 token 在 text 中前后都处于单词边界的所有出现
//
// regexp2 的 \b 按 Unicode 判断单词字符，标准库 regexp 的 \b 只认 ASCII。
// 匹配结果的位置按字符计，offsets 把它换算回字节偏移。
func wholeWordMatches(text, token string, offsets []int) []Span {
	re, err := regexp2.Compile(`\b`+regexp2.Escape(token)+`\b`, regexp2.None)
	if err != nil {
		return nil
	}

	var spans []Span
	m, err := re.FindStringMatch(text)
	for err == nil && m != nil {
		spans = append(spans, Span{Start: offsets[m.Index], End: offsets[m.Index+m.Length]})
		m, err = re.FindNextMatch(m)
	}
	return spans
}

// runeOffsets 第 i 个字符的字节偏移，末尾追加 len(text)
func runeOffsets(text string) []int {
	offsets := make([]int, 0, len(text)+1)
	for i := range text {
		offsets = append(offsets, i)
	}
	return append(offsets, len(text))
}

func merge(spans []Span) []Span {
	if len(spans) < 2 {
		return spans
	}
	sort.Slice(spans, func(i, j int) bool {
		if spans[i].Start != spans[j].Start {
			return spans[i].Start < spans[j].Start
		}
		return spans[i].End > spans[j].End
	})

	merged := spans[:1]
	for _, s := range spans[1:] {
		last := &merged[len(merged)-1]
		if s.Start < last.End {
			if s.End > last.End {
				last.End = s.End
			}
			continue
		}
		merged = append(merged, s)
	}
	return merged
}

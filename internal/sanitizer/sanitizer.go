// Package sanitizer 把任意网页净化为"无菌页面"：只保留链接和纯文本
package sanitizer

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/net/html"
)

// ErrParse 页面无法作为 HTML 解析
var ErrParse = errors.New("sanitizer: could not parse page")

// Container 包裹多个并列节点时使用的容器元素
const Container = "div"

// 非法 UTF-8 字节序列替换为 U+FFFD
const invalidUTF8Replacement = "\uFFFD"

var controlReplacer = strings.NewReplacer("\n", " ", "\r", " ", "\t", " ")

// Sanitizer HTML 净化器
//
// 净化规则：
//   - 只保留 <a> 元素及其 href 属性，其余属性（事件、样式等）全部丢弃
//   - 其他元素去掉标签但保留文本，位置不变
//   - 只有 <script> 和 <style> 连同内容一起删除
//   - 注释删除
type Sanitizer struct {
	policy *bluemonday.Policy
}

// NewSanitizer 创建净化器
func NewSanitizer() *Sanitizer {
	policy := bluemonday.NewPolicy()

	// 链接：只保留 href，没有 href 的 <a> 也保留
	policy.AllowAttrs("href").OnElements("a")
	policy.AllowNoAttrs().OnElements("a")

	// bluemonday 默认会连同内容一起丢弃这些元素，这里只丢标签、保留文本
	policy.AllowElementsContent(
		"frame", "frameset", "iframe", "noembed", "noframes",
		"noscript", "nostyle", "object", "title",
	)
	policy.SkipElementsContent("script", "style")

	return &Sanitizer{policy: policy}
}

// Sterilize 净化页面源码
//
// 步骤：
//  1. 换行、回车、制表符替换为空格，非法 UTF-8 替换为 U+FFFD
//  2. 按策略净化
//  3. 结果不是单个根元素、或根元素是 <a> 时用 <div> 包裹
//  4. 压缩连续空白并去掉首尾空白
//
// 根元素不能是 <a>：空链接要从父元素中删除，必须有父元素。
func (s *Sanitizer) Sterilize(rawHTML string) (string, error) {
	source := strings.ToValidUTF8(controlReplacer.Replace(rawHTML), invalidUTF8Replacement)

	var buf bytes.Buffer
	if err := s.policy.SanitizeReaderToWriter(strings.NewReader(source), &buf); err != nil {
		return "", fmt.Errorf("%w: %v", ErrParse, err)
	}
	sterile := buf.String()

	root, err := singleRoot(sterile)
	if err != nil {
		return "", err
	}
	if root == "" || root == "a" {
		sterile = "<" + Container + ">" + sterile + "</" + Container + ">"
	}

	return strings.Join(strings.Fields(sterile), " "), nil
}

// singleRoot 片段由单个元素包裹（元素外只允许空白）时返回该元素的标签名，否则返回空串
func singleRoot(fragment string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrParse, err)
	}

	var root string
	elements := 0
	single := true
	doc.Find("body").Contents().Each(func(_ int, sel *goquery.Selection) {
		n := sel.Get(0)
		switch n.Type {
		case html.ElementNode:
			elements++
			root = n.Data
		case html.TextNode:
			if strings.TrimSpace(n.Data) != "" {
				single = false
			}
		}
	})

	if !single || elements != 1 {
		return "", nil
	}
	return root, nil
}

// 默认净化器实例
var defaultSanitizer = NewSanitizer()

// Sterilize 使用默认净化器净化页面
//
// 线程安全：是（策略只读）
func Sterilize(rawHTML string) (string, error) {
	return defaultSanitizer.Sterilize(rawHTML)
}

// Package rewriter 在无菌页面的元素树上做链接修正与长单词加粗
package rewriter

import (
	"fmt"
	"strings"

	"github.com/newsflow/go-annotator-service/internal/emphasis"
	"github.com/newsflow/go-annotator-service/internal/etree"
	"github.com/newsflow/go-annotator-service/internal/resolver"
)

const (
	anchorTag   = "a"
	emphasisTag = "em"
)

// 序列化会把加粗标签中的尖括号转义，这里只还原这两个标签，其他实体保持转义
var strongRestorer = strings.NewReplacer(
	"&lt;strong&gt;", "<strong>",
	"&lt;/strong&gt;", "</strong>",
)

// Process 处理无菌页面
//
// 第一遍处理链接（文档顺序）：
//   - 有可见文本：文本移入新建的 <em>，作为 <a> 的第一个子元素；
//     href 不是严格合法的绝对链接时，视为相对于目标站点根地址的路径并补全
//   - 没有可见文本（比如只包着一张被删掉的图片）：删除整个 <a>，
//     其后的文本并入前一段文本，不丢字
//
// 第二遍对所有元素（含第一遍新建的 <em>）的 Text 和 Tail 做长单词加粗。
//
// sterileHTML 必须是单根片段（Sterilize 的输出满足这一点），
// targetURL 必须已通过 resolver.IsStrictURL 校验。
func Process(sterileHTML, targetURL string) (string, error) {
	root, err := etree.Parse(sterileHTML)
	if err != nil {
		return "", fmt.Errorf("parse sterile page: %w", err)
	}

	base, err := resolver.SchemefulRoot(targetURL)
	if err != nil {
		return "", err
	}

	for _, a := range root.FindAll(anchorTag) {
		rewriteAnchor(a, base)
	}

	root.Iter(func(el *etree.Element) {
		if !isBlank(el.Text) {
			el.Text = emphasis.Emphasize(el.Text)
		}
		if !isBlank(el.Tail) {
			el.Tail = emphasis.Emphasize(el.Tail)
		}
	})

	return strongRestorer.Replace(root.String()), nil
}

func rewriteAnchor(a *etree.Element, base string) {
	if isBlank(a.Text) {
		// 根元素本身是链接时无处可删，保持原样
		if parent := a.Parent(); parent != nil {
			parent.Remove(a)
		}
		return
	}

	em := etree.NewElement(emphasisTag)
	em.Text = a.Text
	a.Text = ""
	a.Insert(0, em)

	href, ok := a.Get("href")
	if !ok {
		return
	}
	if !resolver.IsStrictURL(href) {
		a.Set("href", resolver.Absolutize(base, href))
	}
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}

// Package etree 提供带 text/tail 文本槽的可变元素树
//
// 与 golang.org/x/net/html 的节点模型不同，文本不是独立节点，而是挂在元素上：
//   - Text：元素开始标签之后、第一个子元素之前的文本
//   - Tail：元素结束标签之后、下一个兄弟元素之前的文本（属于父元素的范围）
//
// 这样删除一个元素时只需把它的 Tail 并入前一段文本，是纯局部操作。
package etree

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// ErrMalformed 片段无法构成以单个元素为根的树
var ErrMalformed = errors.New("etree: malformed fragment")

// Element 树中的元素节点
type Element struct {
	Tag      string
	Attr     []html.Attribute
	Text     string
	Tail     string
	Children []*Element

	parent *Element
}

// NewElement 创建元素
func NewElement(tag string) *Element {
	return &Element{Tag: tag}
}

// Parent 返回父元素，根元素返回 nil
func (e *Element) Parent() *Element {
	return e.parent
}

// Get 读取属性
func (e *Element) Get(key string) (string, bool) {
	for _, a := range e.Attr {
		if a.Namespace == "" && a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

// Set 设置属性，已存在则覆盖
func (e *Element) Set(key, val string) {
	for i, a := range e.Attr {
		if a.Namespace == "" && a.Key == key {
			e.Attr[i].Val = val
			return
		}
	}
	e.Attr = append(e.Attr, html.Attribute{Key: key, Val: val})
}

// Insert 在位置 i 插入子元素，i 超出范围时追加到末尾
func (e *Element) Insert(i int, child *Element) {
	if i < 0 {
		i = 0
	}
	if i > len(e.Children) {
		i = len(e.Children)
	}
	child.parent = e
	e.Children = append(e.Children, nil)
	copy(e.Children[i+1:], e.Children[i:])
	e.Children[i] = child
}

// Append 追加子元素
func (e *Element) Append(child *Element) {
	e.Insert(len(e.Children), child)
}

// Remove 删除子元素（连同其子树），其 Tail 文本并入前一个兄弟的 Tail，
// 没有前一个兄弟时并入父元素的 Text
//
// child 不是 e 的直接子元素时返回 false。
func (e *Element) Remove(child *Element) bool {
	idx := -1
	for i, c := range e.Children {
		if c == child {
			idx = i
			break
		}
	}
	if idx < 0 {
		return false
	}

	if idx > 0 {
		e.Children[idx-1].Tail += child.Tail
	} else {
		e.Text += child.Tail
	}

	e.Children = append(e.Children[:idx], e.Children[idx+1:]...)
	child.parent = nil
	child.Tail = ""
	return true
}

// Iter 按文档顺序遍历（含自身）
//
// 遍历期间新插入到尚未访问位置的元素也会被访问到。
func (e *Element) Iter(fn func(*Element)) {
	fn(e)
	for i := 0; i < len(e.Children); i++ {
		e.Children[i].Iter(fn)
	}
}

// FindAll 按文档顺序返回标签名为 tag 的所有元素（含自身）
func (e *Element) FindAll(tag string) []*Element {
	var found []*Element
	e.Iter(func(el *Element) {
		if el.Tag == tag {
			found = append(found, el)
		}
	})
	return found
}

// Parse 解析 HTML 片段，片段必须恰好包含一个根元素（前后允许空白）
func Parse(fragment string) (*Element, error) {
	context := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	nodes, err := html.ParseFragment(strings.NewReader(fragment), context)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	var root *html.Node
	for _, n := range nodes {
		switch n.Type {
		case html.ElementNode:
			if root != nil {
				return nil, fmt.Errorf("%w: more than one root element", ErrMalformed)
			}
			root = n
		case html.TextNode:
			if strings.TrimSpace(n.Data) != "" {
				return nil, fmt.Errorf("%w: text outside root element", ErrMalformed)
			}
		}
	}
	if root == nil {
		return nil, fmt.Errorf("%w: no root element", ErrMalformed)
	}

	return convert(root), nil
}

// convert 把 html.Node 子树转换为 Element，文本节点折叠进 Text/Tail
func convert(n *html.Node) *Element {
	el := &Element{Tag: n.Data}
	if len(n.Attr) > 0 {
		el.Attr = append([]html.Attribute(nil), n.Attr...)
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		switch c.Type {
		case html.ElementNode:
			el.Append(convert(c))
		case html.TextNode:
			if len(el.Children) == 0 {
				el.Text += c.Data
			} else {
				el.Children[len(el.Children)-1].Tail += c.Data
			}
		}
	}
	return el
}

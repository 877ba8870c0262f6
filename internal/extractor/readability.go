package extractor

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-shiori/go-readability"
)

// Article 阅读模式提取出的正文
type Article struct {
	Title    string
	Content  string // HTML 格式
	SiteName string
}

// ExtractArticle 使用 go-readability 提取正文（阅读模式）
//
// 去掉导航、侧栏、页脚等噪音后再做净化，适合文章类页面。
func ExtractArticle(page string, pageURL *url.URL) (*Article, error) {
	article, err := readability.FromReader(strings.NewReader(page), pageURL)
	if err != nil {
		return nil, err
	}

	return &Article{
		Title:    strings.TrimSpace(article.Title),
		Content:  article.Content,
		SiteName: article.SiteName,
	}, nil
}

// ExtractTitle 提取 <title> 文本，连续空白压缩为一个空格
func ExtractTitle(page string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page))
	if err != nil {
		return ""
	}
	return strings.Join(strings.Fields(doc.Find("title").First().Text()), " ")
}

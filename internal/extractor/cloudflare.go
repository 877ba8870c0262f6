package extractor

import (
	"html"
	"log"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Cloudflare 的 Email Protection 会把页面中的邮箱替换为混淆格式：
//   - 链接: <a href="/cdn-cgi/l/email-protection#0b66...">联系我们</a>
//   - 链接 + 属性: <a href="/cdn-cgi/l/email-protection" data-cfemail="0b66...">[email&#160;protected]</a>
//   - 文本: <span class="__cf_email__" data-cfemail="0b66...">[email&#160;protected]</span>
//
// 不解码的话，净化后只剩下 "[email protected]" 占位文字。
// 链接的 href 保持不变：补全为绝对地址后仍指向 Cloudflare 的解码页。
const cfEmailAttr = "data-cfemail"

// DecodeCloudflareEmails 把页面中被 Cloudflare 混淆的邮箱还原为明文文字
//
// 只改文字，不改链接地址。
// 页面中没有混淆标记时原样返回；解析失败时也原样返回，交给后续净化处理。
//
// 线程安全：是
func DecodeCloudflareEmails(page string) string {
	if !strings.Contains(page, cfEmailAttr) {
		return page
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page))
	if err != nil {
		log.Printf("[CloudflareDecoder] 解析失败: %v", err)
		return page
	}

	decoded := 0
	doc.Find("[" + cfEmailAttr + "]").Each(func(_ int, s *goquery.Selection) {
		email := decodeCloudflareEmail(s.AttrOr(cfEmailAttr, ""))
		if email == "" {
			return
		}
		decoded++

		if s.Is("a") {
			s.RemoveAttr(cfEmailAttr)
			s.SetText(email)
			return
		}
		s.ReplaceWithHtml(html.EscapeString(email))
	})

	if decoded == 0 {
		return page
	}

	result, err := doc.Html()
	if err != nil {
		log.Printf("[CloudflareDecoder] 序列化失败: %v", err)
		return page
	}
	return result
}

// decodeCloudflareEmail 解码单个 Cloudflare 邮箱编码
//
// 编码是十六进制字符串：第一个字节是 XOR 密钥，
// 之后每个字节与密钥异或得到原始字符。
//
//	编码: "99e0f0fffcf7feb7ebecf8f7d9fef4f8f0f5b7faf6f4"
//	密钥: 0x99
//	结果: "yifeng.ruan@gmail.com"
func decodeCloudflareEmail(encoded string) string {
	if len(encoded) < 4 || len(encoded)%2 != 0 {
		return ""
	}

	key, err := strconv.ParseUint(encoded[:2], 16, 8)
	if err != nil {
		return ""
	}

	var b strings.Builder
	b.Grow(len(encoded)/2 - 1)
	for i := 2; i < len(encoded); i += 2 {
		c, err := strconv.ParseUint(encoded[i:i+2], 16, 8)
		if err != nil {
			return ""
		}
		b.WriteByte(byte(c ^ key))
	}

	email := b.String()
	if !strings.Contains(email, "@") {
		return ""
	}
	return email
}

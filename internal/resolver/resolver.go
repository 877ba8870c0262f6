// Package resolver 提供链接校验与相对链接绝对化功能
package resolver

import (
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/net/idna"
)

// IsStrictURL 判断是否为严格合法的绝对链接
//
// 规则：
//   - 协议只能是 http 或 https（不区分大小写）
//   - 主机不能为空，必须是 IP、localhost 或带点号的合法域名（支持国际化域名）
//   - 任何位置出现空白字符都视为非法
//
// 相对路径、"#"、"javascript:..." 等一律返回 false。
func IsStrictURL(candidate string) bool {
	if candidate == "" || strings.IndexFunc(candidate, unicode.IsSpace) >= 0 {
		return false
	}

	u, err := url.Parse(candidate)
	if err != nil {
		return false
	}

	switch strings.ToLower(u.Scheme) {
	case "http", "https":
	default:
		return false
	}

	if u.Opaque != "" || u.Host == "" {
		return false
	}

	if port := u.Port(); port != "" {
		n, err := strconv.Atoi(port)
		if err != nil || n < 0 || n > 65535 {
			return false
		}
	}

	return validHost(u.Hostname())
}

func validHost(host string) bool {
	if host == "" {
		return false
	}
	if net.ParseIP(host) != nil {
		return true
	}
	if strings.EqualFold(host, "localhost") {
		return true
	}

	// 末尾的点号是合法的 FQDN 写法
	host = strings.TrimSuffix(host, ".")
	if !strings.Contains(host, ".") {
		return false
	}

	ascii, err := idna.Lookup.ToASCII(host)
	if err != nil {
		return false
	}

	labels := strings.Split(ascii, ".")
	tld := labels[len(labels)-1]
	if len(tld) < 2 {
		return false
	}
	// 顶级域名不能是纯数字（排除 1.2.3.999 这类伪 IP）
	if strings.IndexFunc(tld, func(r rune) bool { return !unicode.IsDigit(r) }) < 0 {
		return false
	}
	return true
}

// SchemefulRoot 返回目标链接的站点根地址，形如 "https://example.com/"
//
// 调用方应保证 targetURL 已通过 IsStrictURL 校验。
func SchemefulRoot(targetURL string) (string, error) {
	u, err := url.Parse(targetURL)
	if err != nil {
		return "", fmt.Errorf("parse target url: %w", err)
	}
	return u.Scheme + "://" + u.Host + "/", nil
}

// Absolutize 拼接站点根地址与相对路径，保证两者之间恰好有一个斜杠
//
//	Absolutize("https://google.com/", "chrome/index.html") // https://google.com/chrome/index.html
//	Absolutize("https://github.com", "/Spacehug")           // https://github.com/Spacehug
//	Absolutize("https://vk.com/", "/id1")                   // https://vk.com/id1
func Absolutize(root, path string) string {
	rootSlash := strings.HasSuffix(root, "/")
	pathSlash := strings.HasPrefix(path, "/")

	switch {
	case rootSlash != pathSlash:
		return root + path
	case rootSlash && pathSlash:
		return root + path[1:]
	default:
		// root 由 SchemefulRoot 生成时总以 "/" 结尾，这里只兜底
		return root + "/" + path
	}
}

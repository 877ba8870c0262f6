package extractor

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDecodeCloudflareEmail(t *testing.T) {
	tests := []struct {
		name     string
		encoded  string
		expected string
	}{
		{
			name:     "编码1 - 来自链接",
			encoded:  "99e0f0fffcf7feb7ebecf8f7d9fef4f8f0f5b7faf6f4",
			expected: "yifeng.ruan@gmail.com",
		},
		{
			name:     "编码2 - 来自 data-cfemail",
			encoded:  "83faeae5e6ede4adf1f6e2edc3e4eee2eaefade0ecee",
			expected: "yifeng.ruan@gmail.com",
		},
		{
			name:     "长度为奇数",
			encoded:  "99e0f",
			expected: "",
		},
		{
			name:     "非十六进制",
			encoded:  "zz00",
			expected: "",
		},
		{
			name:     "解码结果不是邮箱",
			encoded:  "990000",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, decodeCloudflareEmail(tt.encoded))
		})
	}
}

func TestDecodeCloudflareEmails(t *testing.T) {
	input := `<p>合作请<a href="/cdn-cgi/l/email-protection#99e0f0fffcf7feb7ebecf8f7d9fef4f8f0f5b7faf6f4">邮件联系</a>（<a href="/cdn-cgi/l/email-protection" class="__cf_email__" data-cfemail="83faeae5e6ede4adf1f6e2edc3e4eee2eaefade0ecee">[email&#160;protected]</a>）。</p>`

	result := DecodeCloudflareEmails(input)

	assert.NotContains(t, result, "data-cfemail")
	assert.NotContains(t, result, "protected]")
	assert.NotContains(t, result, "mailto:")
	// 链接地址保持原样
	assert.Contains(t, result, `href="/cdn-cgi/l/email-protection#99e0f0fffcf7feb7ebecf8f7d9fef4f8f0f5b7faf6f4">邮件联系</a>`)
	assert.Contains(t, result, `>yifeng.ruan@gmail.com</a>`)
}

func TestDecodeCloudflareEmails_Span(t *testing.T) {
	input := `<p>Mail <a href="/cdn-cgi/l/email-protection"><span class="__cf_email__" data-cfemail="83faeae5e6ede4adf1f6e2edc3e4eee2eaefade0ecee">[email&#160;protected]</span></a></p>`

	result := DecodeCloudflareEmails(input)

	assert.NotContains(t, result, "__cf_email__")
	assert.NotContains(t, result, "mailto:")
	assert.Contains(t, result, `<a href="/cdn-cgi/l/email-protection">yifeng.ruan@gmail.com</a>`)
}

func TestDecodeCloudflareEmails_FragmentOnly(t *testing.T) {
	// 只有 #fragment 编码、没有占位文字时无需改动
	input := `<p><a href="/cdn-cgi/l/email-protection#99e0f0fffcf7feb7ebecf8f7d9fef4f8f0f5b7faf6f4">mail</a></p>`
	assert.Equal(t, input, DecodeCloudflareEmails(input))
}

func TestDecodeCloudflareEmails_Untouched(t *testing.T) {
	input := `<p>no protection here</p>`
	assert.Equal(t, input, DecodeCloudflareEmails(input))
}

package sanitizer

import (
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const samplePage = `
<html lang="en">
  <head>
    <meta charset="utf-8">
    <meta name="viewport" content="width=device-width, initial-scale=1, shrink-to-fit=no">
    <meta name="description" content="">
    <meta name="author" content="">
    <link rel="stylesheet" href="https://maxcdn.bootstrapcdn.com/bootstrap/4.0.0-beta.2/css/bootstrap.min.css" crossorigin="anonymous">
  </head>
  <body>
    <main role="main" class="container">
      <br>
      A page with small text, with a <a href="google.com">google.com link</a> and an emtpy link as image <a href=""></img></a>.
    </main>
    <script src="https://code.jquery.com/jquery-3.2.1.slim.min.js" crossorigin="anonymous"></script>
    <script src="https://cdnjs.cloudflare.com/ajax/libs/popper.js/1.12.3/umd/popper.min.js" crossorigin="anonymous"></script>
  </body>
</html>
`

func TestSterilize_Page(t *testing.T) {
	result, err := Sterilize(samplePage)
	require.NoError(t, err)

	assert.Equal(t,
		`<div> A page with small text, with a <a href="google.com">google.com link</a> and an emtpy link as image <a href=""></a>. </div>`,
		result)
}

func TestSterilize(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "保留其他标签内的文本",
			input:    `<p>Hello <b>bold</b> <span class="x">world</span></p>`,
			expected: `<div>Hello bold world</div>`,
		},
		{
			name:     "删除 script 和 style 及其内容",
			input:    `<div>before<script>alert("x")</script><style>body{color:red}</style>after</div>`,
			expected: `<div>beforeafter</div>`,
		},
		{
			name:     "链接只保留 href",
			input:    `<a href="/x" onclick="evil()" style="color:red" class="btn" target="_blank">go</a> there`,
			expected: `<div><a href="/x">go</a> there</div>`,
		},
		{
			name:     "没有 href 的链接保留",
			input:    `<p><a name="top">top</a> text</p>`,
			expected: `<div><a>top</a> text</div>`,
		},
		{
			name:     "单个链接也要包裹",
			input:    `  <span><a href="https://example.com">only</a></span>  `,
			expected: `<div><a href="https://example.com">only</a></div>`,
		},
		{
			name:     "单个空链接也要包裹",
			input:    `<a href="/only"></a>`,
			expected: `<div><a href="/only"></a></div>`,
		},
		{
			name:     "非法 UTF-8 替换",
			input:    "<p>bad \xff\xfe bytes</p>",
			expected: "<div>bad \uFFFD bytes</div>",
		},
		{
			name:     "换行和制表符变为空格并压缩",
			input:    "<p>line\none</p>\r\n\t<p>line\ttwo</p>",
			expected: `<div>line one line two</div>`,
		},
		{
			name:     "title 文本保留",
			input:    `<html><head><title>Page title</title></head><body>body</body></html>`,
			expected: `<div>Page titlebody</div>`,
		},
		{
			name:     "noscript 文本保留",
			input:    `<p>a <noscript>enable js</noscript> b</p>`,
			expected: `<div>a enable js b</div>`,
		},
		{
			name:     "注释删除",
			input:    `<p>a<!-- hidden --> b</p>`,
			expected: `<div>a b</div>`,
		},
		{
			name:     "空页面",
			input:    `<script>only()</script>`,
			expected: `<div></div>`,
		},
		{
			name:     "文本转义保留",
			input:    `<p>AT&amp;T &lt;tag&gt;</p>`,
			expected: `<div>AT&amp;T &lt;tag&gt;</div>`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := Sterilize(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestSterilize_ValidUTF8(t *testing.T) {
	for _, input := range []string{"bad \xff\xfe bytes", "<a href=\"/\xc3\">x\x80y</a>", "\xe4\xb8"} {
		result, err := Sterilize(input)
		require.NoError(t, err)
		assert.True(t, utf8.ValidString(result), "%q", result)
	}
}

func TestSterilize_NoScriptContentLeaks(t *testing.T) {
	result, err := Sterilize(`<div><img src=x onerror="alert(1)"><script>document.cookie</script>safe</div>`)
	require.NoError(t, err)

	assert.NotContains(t, result, "script")
	assert.NotContains(t, result, "onerror")
	assert.NotContains(t, result, "document.cookie")
	assert.NotContains(t, result, "img")
	assert.Contains(t, result, "safe")
}

package extractor

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnnotate(t *testing.T) {
	page := `<!DOCTYPE html>
<html>
<head>
  <title>  Example
  page </title>
  <script>var tracking = true;</script>
</head>
<body>
  <nav><a href="/home"><img src="logo.png"></a></nav>
  <p>Sadly, but <a href="https://google.com/True" onclick="x()">True</a></p>
</body>
</html>`

	result, err := New().Annotate(page, "https://google.com/search?q=1", Options{})
	require.NoError(t, err)

	assert.Equal(t, "Example page", result.Title)
	assert.Equal(t,
		`<div> Example page <a href="/home"></a> Sadly, but <a href="https://google.com/True">True</a> </div>`,
		result.Sterile)
	assert.Equal(t,
		`<div><strong>Example</strong> page <strong>Sadly</strong>, but <a href="https://google.com/True"><em>True </em></a> </div>`,
		result.Content)
	assert.Equal(t, 1, result.ReadingTime)
}

func TestAnnotate_InvalidURL(t *testing.T) {
	for _, target := range []string{"", "example.com", "ftp://example.com", "a:b.c:d"} {
		_, err := New().Annotate("<p>x</p>", target, Options{})
		assert.ErrorIs(t, err, ErrInvalidURL, target)
	}
}

func TestAnnotate_CloudflareEmail(t *testing.T) {
	t.Run("受保护链接指向解码页", func(t *testing.T) {
		page := `<p>Contact <a href="/cdn-cgi/l/email-protection#99e0f0fffcf7feb7ebecf8f7d9fef4f8f0f5b7faf6f4">mail</a></p>`

		result, err := New().Annotate(page, "https://example.com/", Options{})
		require.NoError(t, err)

		assert.NotContains(t, result.Content, "/mailto:")
		assert.Equal(t,
			`<div><strong>Contact</strong> <a href="https://example.com/cdn-cgi/l/email-protection#99e0f0fffcf7feb7ebecf8f7d9fef4f8f0f5b7faf6f4"><em>mail </em></a></div>`,
			result.Content)
	})

	t.Run("占位文字还原为邮箱", func(t *testing.T) {
		page := `<p>Write to <a href="/cdn-cgi/l/email-protection" class="__cf_email__" data-cfemail="83faeae5e6ede4adf1f6e2edc3e4eee2eaefade0ecee">[email&#160;protected]</a></p>`

		result, err := New().Annotate(page, "https://example.com/", Options{})
		require.NoError(t, err)

		assert.NotContains(t, result.Content, "mailto:")
		assert.NotContains(t, result.Content, "protected")
		assert.Contains(t, result.Content, `<a href="https://example.com/cdn-cgi/l/email-protection">`)
		assert.Contains(t, result.Content, `<em><strong>yifeng</strong>.ruan@<strong>gmail</strong>.com </em>`)
	})
}

func TestSterilize_ReaderMode(t *testing.T) {
	paragraph := strings.Repeat("Readable article content keeps going for a while. ", 20)
	page := `<html><head><title>Story</title></head><body>
<div id="menu"><a href="/a">Menu one</a> <a href="/b">Menu two</a></div>
<article><h1>Story</h1><p>` + paragraph + `</p><p>` + paragraph + `</p></article>
<footer>Copyright footer</footer>
</body></html>`

	result, err := New().Sterilize(page, "https://news.example.com/story", Options{ReaderMode: true})
	require.NoError(t, err)

	assert.Equal(t, "Story", result.Title)
	assert.Contains(t, result.Sterile, "Readable article content")
	assert.NotContains(t, result.Sterile, "Copyright footer")
	assert.Empty(t, result.Content)
}

func TestCalculateReadingTime(t *testing.T) {
	assert.Equal(t, 1, calculateReadingTime("<div>short</div>"))
	assert.Equal(t, 2, calculateReadingTime("<div>"+strings.Repeat("word ", 400)+"</div>"))
	assert.Equal(t, 1, calculateReadingTime("<div>"+strings.Repeat("字", 400)+"</div>"))
}

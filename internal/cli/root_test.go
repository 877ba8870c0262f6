package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testPage = `<html><head><script>alert(1)</script></head>
<body><p>Welcome to <a href="/guide" class="btn">documentation</a></p></body></html>`

func writePage(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "page.html")
	require.NoError(t, os.WriteFile(path, []byte(testPage), 0o644))
	return path
}

func runCmd(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("READER_MODE", "false")
	t.Setenv("REDIS_URL", "")

	cmd := NewRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	// nil 会让 cobra 读取 os.Args
	if args == nil {
		args = []string{}
	}
	cmd.SetArgs(args)

	err := cmd.Execute()
	return buf.String(), err
}

func TestRootCmd_Use(t *testing.T) {
	cmd := NewRootCmd()
	assert.Equal(t, "annotate [url]", cmd.Use)
	assert.Contains(t, cmd.Long, "<strong>")
}

func TestRootCmd_Flags(t *testing.T) {
	cmd := NewRootCmd()

	file := cmd.Flags().Lookup("file")
	require.NotNil(t, file)
	assert.Equal(t, "f", file.Shorthand)

	strategy := cmd.PersistentFlags().Lookup("strategy")
	require.NotNil(t, strategy)
	assert.Equal(t, "auto", strategy.DefValue)

	for _, name := range []string{"base", "sterile"} {
		assert.NotNil(t, cmd.Flags().Lookup(name), name)
	}
	for _, name := range []string{"reader", "config"} {
		assert.NotNil(t, cmd.PersistentFlags().Lookup(name), name)
	}
}

func TestRootCmd_AnnotateFile(t *testing.T) {
	out, err := runCmd(t, "--file", writePage(t), "--base", "https://docs.example.com/start")
	require.NoError(t, err)

	assert.Equal(t,
		"<div><strong>Welcome</strong> to <a href=\"https://docs.example.com/guide\"><em><strong>documentation</strong> </em></a></div>\n",
		out)
}

func TestRootCmd_SterileFile(t *testing.T) {
	out, err := runCmd(t, "--file", writePage(t), "--base", "https://docs.example.com/", "--sterile")
	require.NoError(t, err)

	assert.Equal(t, "<div> Welcome to <a href=\"/guide\">documentation</a></div>\n", out)
}

func TestRootCmd_Errors(t *testing.T) {
	page := writePage(t)

	tests := []struct {
		name string
		args []string
		msg  string
	}{
		{"缺少链接", nil, "a link is required"},
		{"链接不合法", []string{"example"}, "not sure this link is valid"},
		{"文件缺少 base", []string{"--file", page}, "--file requires --base"},
		{"base 不合法", []string{"--file", page, "--base", "docs.example.com"}, "--file requires --base"},
		{"文件和链接同时给出", []string{"--file", page, "--base", "https://example.com/", "https://example.com/"}, "not both"},
		{"文件不存在", []string{"--file", filepath.Join(t.TempDir(), "missing.html"), "--base", "https://example.com/"}, "read page"},
		{"参数过多", []string{"https://a.example.com/", "https://b.example.com/"}, "accepts at most 1 arg(s)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := runCmd(t, tt.args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.msg)
		})
	}
}

func TestEnqueueCmd(t *testing.T) {
	t.Run("链接不合法", func(t *testing.T) {
		_, err := runCmd(t, "enqueue", "nope")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "not sure this link is valid")
	})

	t.Run("未配置 Redis", func(t *testing.T) {
		_, err := runCmd(t, "enqueue", "https://example.com/")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "REDIS_URL is not configured")
	})

	t.Run("需要一个参数", func(t *testing.T) {
		_, err := runCmd(t, "enqueue")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "accepts 1 arg(s)")
	})
}

package utils

import (
	"bytes"
	"html"
	"html/template"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	gmhtml "github.com/yuin/goldmark/renderer/html"
)

var (
	md = goldmark.New(
		goldmark.WithExtensions(extension.GFM),
		goldmark.WithRendererOptions(gmhtml.WithHardWraps()),
	)
	// 帖子和评论都是用户输入，只允许 UGC 白名单
	ugcPolicy = bluemonday.UGCPolicy()
)

// RenderMarkdown converts user markdown to sanitized HTML. Raw HTML in the
// source is dropped by the sanitizer.
func RenderMarkdown(source string) template.HTML {
	if source == "" {
		return ""
	}

	var buf bytes.Buffer
	if err := md.Convert([]byte(source), &buf); err != nil {
		// 转换失败时按纯文本输出
		return template.HTML("<p>" + html.EscapeString(source) + "</p>")
	}
	return HardenHTML(string(ugcPolicy.SanitizeBytes(buf.Bytes())))
}

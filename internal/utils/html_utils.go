package utils

import (
	"html/template"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// HardenHTML 给已净化的 HTML 中的图片和外链加上安全属性
func HardenHTML(htmlStr string) template.HTML {
	if htmlStr == "" {
		return ""
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlStr))
	if err != nil {
		return template.HTML(htmlStr)
	}

	doc.Find("img").Each(func(i int, s *goquery.Selection) {
		s.SetAttr("referrerpolicy", "no-referrer")
		s.SetAttr("loading", "lazy")
		s.SetAttr("decoding", "async")
	})

	doc.Find("a[href]").Each(func(i int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		if strings.HasPrefix(href, "http://") || strings.HasPrefix(href, "https://") {
			s.SetAttr("target", "_blank")
			s.SetAttr("rel", "nofollow noopener noreferrer")
		}
	})

	// goquery 会补全 html/body，只取 body 内容
	html, _ := doc.Find("body").Html()
	if html == "" {
		html, _ = doc.Html()
	}
	return template.HTML(html)
}

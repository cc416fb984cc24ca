package view

import (
	"regexp"
	"strings"
)

var resizedSuffix = regexp.MustCompile(`-resized(\.[\w]+)?$`)

// MakeResponsive marks images inside the elements as fluid unless they
// opt out with the not-responsive class.
func MakeResponsive(e Elements) {
	e.Find("img:not(.not-responsive)").AddClass("img-fluid")
}

// WrapImagesInLinks links every post image to its full-size source.
// Images already inside a link, emoji and blank images are left alone.
func WrapImagesInLinks(e Elements) {
	e.Find(Component("post/content") + " img:not(.emoji)").Each(func(_ int, img Elements) {
		src, _ := img.Attr("src")
		if src == "about:blank" || img.Parent().Is("a") {
			return
		}
		if isRelativeURL(src) {
			src = resizedSuffix.ReplaceAllString(src, "$1")
		}
		img.Wrap(`<a target="_blank" rel="noopener"></a>`)
		link := img.Parent()
		link.SetAttr("href", src)

		alt, _ := img.Attr("alt")
		altFile := alt[strings.LastIndex(alt, "/")+1:]
		if extension(src) == "" && extension(altFile) != "" {
			link.SetAttr("download", altFile)
		}
	})
}

// AddBlockquoteEllipses gives every nested quote inside post content a
// toggle so the collapsed part can be expanded.
func AddBlockquoteEllipses(e Elements) {
	e.Find(Component("post/content") + " > blockquote > blockquote").Each(func(_ int, q Elements) {
		if q.Find(".toggle").Len() > 0 {
			return
		}
		q.Append(`<i class="fa fa-angle-down pointer toggle"></i>`)
	})
}

func isRelativeURL(u string) bool {
	return !strings.HasPrefix(u, "//") && !strings.Contains(u, "://") && !strings.HasPrefix(u, "data:")
}

func extension(name string) string {
	i := strings.Index(name, ".")
	if i < 0 {
		return ""
	}
	parts := strings.Split(name[i+1:], ".")
	return parts[len(parts)-1]
}

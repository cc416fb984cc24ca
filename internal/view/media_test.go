package view

import "testing"

func TestMakeResponsive(t *testing.T) {
	d := mustParse(t, `<div id="c"><img id="a" src="a.png"><img id="b" class="not-responsive" src="b.png"></div>`)
	MakeResponsive(d.Find("#c"))

	if !d.Find("#a").HasClass("img-fluid") {
		t.Error("expected img-fluid on responsive image")
	}
	if d.Find("#b").HasClass("img-fluid") {
		t.Error("not-responsive image must be left alone")
	}
}

func TestWrapImagesInLinks(t *testing.T) {
	d := mustParse(t, `<div data-pid="1"><div component="post/content">
		<img id="plain" src="/assets/uploads/pic-resized.png">
		<a href="/x"><img id="linked" src="/y.png"></a>
		<img id="emoji" class="emoji" src="/e.png">
		<img id="blank" src="about:blank">
		<img id="noext" src="/uploads/abc" alt="files/report.pdf">
	</div></div>`)

	WrapImagesInLinks(d.Find(`[data-pid="1"]`))

	if href, _ := d.Find("#plain").Parent().Attr("href"); href != "/assets/uploads/pic.png" {
		t.Errorf("plain image href = %q", href)
	}
	if href, _ := d.Find("#linked").Parent().Attr("href"); href != "/x" {
		t.Errorf("linked image was rewrapped: %q", href)
	}
	if d.Find("#emoji").Parent().Is("a") || d.Find("#blank").Parent().Is("a") {
		t.Error("emoji and blank images must not be wrapped")
	}
	if dl, _ := d.Find("#noext").Parent().Attr("download"); dl != "report.pdf" {
		t.Errorf("download = %q", dl)
	}
}

func TestAddBlockquoteEllipses(t *testing.T) {
	d := mustParse(t, `<div id="p"><div component="post/content">
		<blockquote><blockquote id="q1">deep</blockquote></blockquote>
		<blockquote><blockquote id="q2">deep<i class="toggle"></i></blockquote></blockquote>
	</div></div>`)

	AddBlockquoteEllipses(d.Find("#p"))
	AddBlockquoteEllipses(d.Find("#p"))

	if got := d.Find("#q1 .toggle").Len(); got != 1 {
		t.Errorf("q1 toggles = %d, want 1", got)
	}
	if got := d.Find("#q2 .toggle").Len(); got != 1 {
		t.Errorf("q2 toggles = %d, want 1", got)
	}
}

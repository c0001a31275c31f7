package export

import (
	"strings"
	"testing"
)

const testBaseURL = "https://referer.app"

func TestDescription_TruncatesLongClaims(t *testing.T) {
	short := strings.Repeat("a", 10)
	medium := strings.Repeat("b", 55)
	long := strings.Repeat("c", 90)

	out := Description("vid-1", []Citation{
		{Offset: 10, Claim: short, SourceURL: "https://example.com/1"},
		{Offset: 20, Claim: medium, SourceURL: "https://example.com/2"},
		{Offset: 30, Claim: long, SourceURL: "https://example.com/3"},
	}, testBaseURL)

	if !strings.Contains(out, short) {
		t.Error("10-char claim must appear untouched")
	}
	if !strings.Contains(out, strings.Repeat("b", 47)+"...") {
		t.Error("55-char claim must be truncated to 47 chars plus ellipsis")
	}
	if strings.Contains(out, strings.Repeat("b", 48)) {
		t.Error("55-char claim must not keep its 48th character")
	}
	if !strings.Contains(out, strings.Repeat("c", 47)+"...") {
		t.Error("90-char claim must be truncated to 47 chars plus ellipsis")
	}
}

func TestDescription_SortsByOffsetDescendingInput(t *testing.T) {
	out := Description("vid-1", []Citation{
		{Offset: 300, Claim: "third"},
		{Offset: 120, Claim: "second"},
		{Offset: 5, Claim: "first"},
	}, testBaseURL)

	first := strings.Index(out, "first")
	second := strings.Index(out, "second")
	third := strings.Index(out, "third")
	if first < 0 || second < 0 || third < 0 {
		t.Fatal("missing claims in output")
	}
	if !(first < second && second < third) {
		t.Errorf("claims out of order: positions %d %d %d", first, second, third)
	}
}

func TestDescription_DeepLinksCarryOffsets(t *testing.T) {
	out := Description("vid-1", []Citation{{Offset: 135, Claim: "x"}}, testBaseURL)

	if !strings.Contains(out, "https://referer.app/v/vid-1?t=135") {
		t.Errorf("missing deep link, got:\n%s", out)
	}
	if !strings.Contains(out, "02:15 - x") {
		t.Errorf("missing formatted timestamp line, got:\n%s", out)
	}
}

func TestDescription_Empty(t *testing.T) {
	out := Description("vid-1", nil, testBaseURL)
	if !strings.Contains(out, "No sources registered yet") {
		t.Errorf("unexpected empty-list output:\n%s", out)
	}
	if !strings.Contains(out, "https://referer.app/v/vid-1") {
		t.Error("empty-list output must still link the viewer")
	}
}

func TestDescription_EqualOffsetsKeepInputOrder(t *testing.T) {
	out := Description("vid-1", []Citation{
		{Offset: 10, Claim: "earlier"},
		{Offset: 10, Claim: "later"},
	}, testBaseURL)

	if strings.Index(out, "earlier") > strings.Index(out, "later") {
		t.Error("equal offsets must keep creation order")
	}
}

func TestSimpleLinks(t *testing.T) {
	out := SimpleLinks("vid-1", []Citation{
		{Offset: 3665, SourceURL: "https://example.com/paper"},
		{Offset: 10, SourceURL: "https://example.com/other"},
	}, testBaseURL)

	if !strings.Contains(out, "00:10 → https://example.com/other") {
		t.Errorf("missing first link line:\n%s", out)
	}
	if !strings.Contains(out, "1:01:05 → https://example.com/paper") {
		t.Errorf("missing hour-form link line:\n%s", out)
	}
	if strings.Index(out, "example.com/other") > strings.Index(out, "example.com/paper") {
		t.Error("links must be sorted ascending by offset")
	}
}

func TestSimpleLinks_Empty(t *testing.T) {
	if out := SimpleLinks("vid-1", nil, testBaseURL); out != "" {
		t.Errorf("expected empty string, got %q", out)
	}
}

package pagination

import (
	"net/url"
	"testing"
)

func TestNormalizeDefaults(t *testing.T) {
	p := Normalize(Params{})
	if p.Page != 1 {
		t.Fatalf("expected page 1, got %d", p.Page)
	}
	if p.PerPage != DefaultPerPage {
		t.Fatalf("expected per_page %d, got %d", DefaultPerPage, p.PerPage)
	}
}

func TestNormalizeCapsPerPage(t *testing.T) {
	p := Normalize(Params{Page: 2, PerPage: 5000})
	if p.PerPage != MaxPerPage {
		t.Fatalf("expected per_page capped at %d, got %d", MaxPerPage, p.PerPage)
	}
}

func TestFromQuery(t *testing.T) {
	values := url.Values{}
	values.Set("page", "3")
	values.Set("per_page", "20")

	p := FromQuery(values)
	if p.Page != 3 || p.PerPage != 20 {
		t.Fatalf("unexpected params %+v", p)
	}
	if p.Offset() != 40 {
		t.Fatalf("expected offset 40, got %d", p.Offset())
	}
}

func TestBuildMeta(t *testing.T) {
	meta := BuildMeta(Params{Page: 2, PerPage: 10}, 35)
	if meta.CurrentPage != 2 || meta.PerPage != 10 {
		t.Fatalf("unexpected meta %+v", meta)
	}
	if meta.Total != 35 {
		t.Fatalf("expected total 35, got %d", meta.Total)
	}
	if meta.LastPage != 4 {
		t.Fatalf("expected last_page 4, got %d", meta.LastPage)
	}
}

func TestBuildMetaEmpty(t *testing.T) {
	meta := BuildMeta(Params{}, 0)
	if meta.LastPage != 1 {
		t.Fatalf("expected last_page 1 for empty set, got %d", meta.LastPage)
	}
}

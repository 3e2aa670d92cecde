package pagination

import "testing"

func TestNormalizeClampsToFirstPage(t *testing.T) {
	for _, raw := range []string{"", "0", "-3", "abc", "1.5"} {
		p := Normalize(raw, 25)
		if p.Page != 1 || p.Offset != 0 || p.Limit != 25 {
			t.Fatalf("Normalize(%q) = %+v, want page 1 offset 0 limit 25", raw, p)
		}
	}
}

func TestNormalizeOffsets(t *testing.T) {
	p := Normalize("3", 25)
	if p.Offset != 50 || p.Limit != 25 {
		t.Fatalf("page 3 size 25: got offset %d limit %d, want 50/25", p.Offset, p.Limit)
	}
}

func TestNormalizeDefaultsPageSize(t *testing.T) {
	p := Normalize("2", 0)
	if p.Limit != DefaultPageSize || p.Offset != DefaultPageSize {
		t.Fatalf("got %+v, want default page size %d", p, DefaultPageSize)
	}
	if p := Normalize("1", 10_000); p.Limit != MaxPageSize {
		t.Fatalf("page size not clamped: %d", p.Limit)
	}
}

func TestTotalPages(t *testing.T) {
	cases := []struct {
		total int64
		size  int
		want  int
	}{
		{0, 25, 0},
		{1, 25, 1},
		{25, 25, 1},
		{26, 25, 2},
		{75, 25, 3},
	}
	for _, tc := range cases {
		if got := TotalPages(tc.total, tc.size); got != tc.want {
			t.Fatalf("TotalPages(%d, %d) = %d, want %d", tc.total, tc.size, got, tc.want)
		}
	}
}

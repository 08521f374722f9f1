package device

import (
	"strings"
	"testing"
)

func TestProbe(t *testing.T) {
	info := Probe()
	if info.Cores <= 0 {
		t.Errorf("cores = %d", info.Cores)
	}
	if !strings.HasPrefix(info.String(), "cpu ") && info.CUDA == 0 {
		t.Errorf("unexpected description %q", info.String())
	}
}

func TestWorkers(t *testing.T) {
	info := Info{Cores: 8}
	for _, tc := range []struct{ limit, want int }{
		{0, 8},
		{3, 3},
		{16, 8},
	} {
		if got := info.Workers(tc.limit); got != tc.want {
			t.Errorf("Workers(%d) = %d, want %d", tc.limit, got, tc.want)
		}
	}
	if got := (Info{}).Workers(0); got != 1 {
		t.Errorf("zero info workers = %d", got)
	}
}

func TestString(t *testing.T) {
	got := Info{Cores: 4, AVX2: true, CUDA: 1}.String()
	if got != "cuda x1, cpu 4 cores (avx2)" {
		t.Errorf("got %q", got)
	}
}

// Package device reports the compute resources the classifier backend can use.
package device

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/klauspost/cpuid/v2"
)

// Info describes the host.
type Info struct {
	Brand  string
	Cores  int
	AVX2   bool
	AVX512 bool

	// CUDA is the number of CUDA devices. It stays 0 unless the binary is
	// built with the cuda tag.
	CUDA int
}

// Probe inspects the CPU and, when available, the CUDA driver.
func Probe() Info {
	info := Info{
		Brand:  cpuid.CPU.BrandName,
		Cores:  cpuid.CPU.LogicalCores,
		AVX2:   cpuid.CPU.Supports(cpuid.AVX2),
		AVX512: cpuid.CPU.Supports(cpuid.AVX512F, cpuid.AVX512DQ),
		CUDA:   cudaDevices(),
	}
	if info.Cores <= 0 {
		info.Cores = runtime.NumCPU()
	}
	return info
}

// Workers returns the number of goroutines to fan samples out to. A positive
// limit caps it.
func (i Info) Workers(limit int) int {
	n := i.Cores
	if n <= 0 {
		n = 1
	}
	if limit > 0 && limit < n {
		n = limit
	}
	return n
}

func (i Info) String() string {
	var features []string
	if i.AVX512 {
		features = append(features, "avx512")
	} else if i.AVX2 {
		features = append(features, "avx2")
	}
	s := fmt.Sprintf("cpu %d cores", i.Cores)
	if len(features) > 0 {
		s += " (" + strings.Join(features, ",") + ")"
	}
	if i.CUDA > 0 {
		s = fmt.Sprintf("cuda x%d, %s", i.CUDA, s)
	}
	return s
}

// Package parallel splits index ranges across a bounded number of goroutines.
package parallel

import "sync"

// Chunks returns how many contiguous chunks ForEachChunk cuts length into
// when limited to workers goroutines.
func Chunks(length, workers int) int {
	if workers <= 0 {
		workers = 1
	}
	if length <= 0 {
		return 0
	}
	if workers > length {
		return length
	}
	return workers
}

// ForEachChunk cuts [0, length) into Chunks(length, workers) contiguous
// ranges and runs body once per range, each on its own goroutine. Chunk
// boundaries depend only on length and workers, so a caller reducing
// per-chunk results in chunk order gets the same answer on every run.
func ForEachChunk(length, workers int, body func(chunk, lo, hi int)) {
	n := Chunks(length, workers)
	if n == 0 {
		return
	}
	if n == 1 {
		body(0, 0, length)
		return
	}

	var wg sync.WaitGroup
	wg.Add(n)
	for c := 0; c < n; c++ {
		lo := c * length / n
		hi := (c + 1) * length / n
		go func(c, lo, hi int) {
			defer wg.Done()
			body(c, lo, hi)
		}(c, lo, hi)
	}
	wg.Wait()
}

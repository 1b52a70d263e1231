// Package parallel provides a bounded fan-out helper for data-parallel loops.
package parallel

import "sync"

// ForEach runs body(i) for every i in [0, n) using at most limit concurrent
// goroutines. A limit below 2 degrades to a plain sequential loop. ForEach
// returns once every body call has finished.
func ForEach(n, limit int, body func(i int)) {
	if n <= 0 {
		return
	}
	if limit < 2 || n == 1 {
		for i := 0; i < n; i++ {
			body(i)
		}
		return
	}
	if limit > n {
		limit = n
	}

	sem := make(chan struct{}, limit)
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		sem <- struct{}{}
		go func(i int) {
			defer wg.Done()
			body(i)
			<-sem
		}(i)
	}
	wg.Wait()
}

package utils

import (
	"runtime"
	"sync"
)

// MultiThread runs f for every integer in the range [start, end), spreading the work across a
// bounded number of goroutines.
//
// should be run sequentially, not in a separate thread
// designed for use by operators, the pose extractor and batch preparation
//
//   - MultiThread assumes that end ≥ start
//
// 'opsPerThread' is the number of indexes a goroutine claims before requesting another set
// 'numThreads' is the number of goroutines; values ≤ 0 mean runtime.NumCPU()
//
// f may be called concurrently for different indexes, but never twice for the same index. Each
// call should only write to memory that belongs to its index.
func MultiThread(start, end int, f func(int), opsPerThread, numThreads int) {
	if end <= start {
		return
	}

	if opsPerThread < 1 {
		opsPerThread = 1
	}

	if numThreads <= 0 {
		numThreads = runtime.NumCPU()
	}

	// no sense in starting more goroutines than there are chunks
	if chunks := (end - start + opsPerThread - 1) / opsPerThread; numThreads > chunks {
		numThreads = chunks
	}

	if numThreads == 1 {
		for i := start; i < end; i++ {
			f(i)
		}
		return
	}

	index := start
	var indexMux sync.Mutex

	var wg sync.WaitGroup

	wg.Add(numThreads)
	for thread := 0; thread < numThreads; thread++ {
		go func() {
			defer wg.Done()

			for {
				indexMux.Lock()
				if index >= end {
					indexMux.Unlock()
					return
				}

				i := index
				index += opsPerThread
				indexMux.Unlock()

				e := i + opsPerThread
				if e > end {
					e = end
				}

				for ; i < e; i++ {
					f(i)
				}
			}
		}()
	}

	wg.Wait()
}

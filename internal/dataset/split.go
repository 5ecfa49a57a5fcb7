package dataset

// Split partitions the dataset into n contiguous, order-preserving
// chunks. Each of the first n-1 chunks holds floor(len/n) rows; the
// final chunk absorbs the remainder. n below 1 is normalized to a
// single chunk. Chunks are views into the dataset's row slice;
// concatenating them in index order reproduces the dataset exactly.
func Split(ds *Dataset, n int) []Chunk {
	if n < 1 {
		n = 1
	}
	if n > ds.Len() && ds.Len() > 0 {
		n = ds.Len()
	}

	total := ds.Len()
	base := total / n

	chunks := make([]Chunk, 0, n)
	for i := 0; i < n; i++ {
		start := i * base
		end := start + base
		if i == n-1 {
			end = total
		}
		chunks = append(chunks, Chunk{Index: i, Rows: ds.Rows[start:end]})
	}

	return chunks
}

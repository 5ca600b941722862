package utils

// PartitionMap splits a batch of independent work items across a fixed
// parallel degree. Evaluation points in a sweep share nothing, so data
// partitioning is the whole concurrency story.
type PartitionMap struct {
	MaxIndex       int // MaxIndex is partitioned into ParallelDegree partitions
	ParallelDegree int
	Partitions     [][2]int // Beginning and end index of partitions
}

func NewPartitionMap(ParallelDegree, maxIndex int) (pm *PartitionMap) {
	if ParallelDegree < 1 {
		ParallelDegree = 1
	}
	if ParallelDegree > maxIndex {
		ParallelDegree = maxIndex
	}
	pm = &PartitionMap{
		MaxIndex:       maxIndex,
		ParallelDegree: ParallelDegree,
		Partitions:     make([][2]int, ParallelDegree),
	}
	for n := 0; n < ParallelDegree; n++ {
		pm.Partitions[n] = pm.Split1D(n)
	}
	return
}

// Split1D returns the half-open index range owned by thread n. Remainder
// items are spread one-per-thread from the front.
func (pm *PartitionMap) Split1D(n int) (bucket [2]int) {
	var (
		base = pm.MaxIndex / pm.ParallelDegree
		rem  = pm.MaxIndex % pm.ParallelDegree
	)
	min := n*base + n
	if n >= rem {
		min = n*base + rem
	}
	max := min + base
	if n < rem {
		max++
	}
	bucket = [2]int{min, max}
	return
}

// GetBucketRange returns the range for thread n.
func (pm *PartitionMap) GetBucketRange(n int) (min, max int) {
	min, max = pm.Partitions[n][0], pm.Partitions[n][1]
	return
}

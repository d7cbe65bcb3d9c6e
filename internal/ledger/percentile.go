package ledger

import "sort"

// selectionThreshold is the sample count above which percentiles switch from
// a full sort to quickselect.
const selectionThreshold = 1000

// CalculatePercentile returns the nth percentile (0-100) of values using the
// nearest-rank-below index (len-1)*p/100. values is not modified.
func CalculatePercentile(values []float64, percentile float64) float64 {
	if len(values) == 0 {
		return 0
	}
	if len(values) <= selectionThreshold {
		sorted := sortedCopy(values)
		return sorted[percentileIndex(len(sorted), percentile)]
	}
	return percentileBySelection(values, percentile)
}

// CalculateMultiplePercentiles sorts once for small inputs and falls back to
// one quickselect per percentile for large ones.
func CalculateMultiplePercentiles(values []float64, percentiles []float64) map[float64]float64 {
	result := make(map[float64]float64, len(percentiles))

	if len(values) == 0 {
		for _, p := range percentiles {
			result[p] = 0
		}
		return result
	}

	if len(values) <= selectionThreshold {
		sorted := sortedCopy(values)
		for _, p := range percentiles {
			result[p] = sorted[percentileIndex(len(sorted), p)]
		}
		return result
	}

	for _, p := range percentiles {
		result[p] = percentileBySelection(values, p)
	}
	return result
}

func percentileIndex(n int, percentile float64) int {
	switch {
	case percentile <= 0:
		return 0
	case percentile >= 100:
		return n - 1
	}
	idx := int(float64(n-1) * (percentile / 100.0))
	if idx >= n {
		idx = n - 1
	}
	return idx
}

func sortedCopy(values []float64) []float64 {
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)
	return sorted
}

func percentileBySelection(values []float64, percentile float64) float64 {
	data := make([]float64, len(values))
	copy(data, values)
	return quickSelect(data, percentileIndex(len(data), percentile))
}

// quickSelect returns the k-th smallest element of arr, reordering arr.
func quickSelect(arr []float64, k int) float64 {
	left, right := 0, len(arr)-1
	for {
		if left == right {
			return arr[left]
		}
		pivot := partition(arr, left, right)
		switch {
		case k == pivot:
			return arr[k]
		case k < pivot:
			right = pivot - 1
		default:
			left = pivot + 1
		}
	}
}

// partition uses the middle element as pivot to avoid the sorted-input worst case.
func partition(arr []float64, left, right int) int {
	mid := left + (right-left)/2
	pivot := arr[mid]
	arr[mid], arr[right] = arr[right], arr[mid]

	store := left
	for i := left; i < right; i++ {
		if arr[i] < pivot {
			arr[store], arr[i] = arr[i], arr[store]
			store++
		}
	}
	arr[store], arr[right] = arr[right], arr[store]
	return store
}

package dataset

import "fmt"

// Annotation is one interval annotation over sample indices, half-open
// [Start, End). Unit is a zero-based index into the phoneme or word
// vocabulary.
type Annotation struct {
	Start int
	End   int
	Unit  int
}

// DensifyLabels expands interval annotations into a per-sample label array of
// the given length. Samples covered by an annotation get Unit+1; samples not
// covered by any annotation stay 0 (index 0 is reserved for "no unit").
//
// Annotations must be sorted by start index, stay within [0, length) and must
// not overlap; violations are reported as errors rather than resolved by
// write order.
func DensifyLabels(length int, annots []Annotation) ([]int32, error) {
	labels := make([]int32, length)

	prevEnd := 0
	for i, a := range annots {
		if a.Unit < 0 {
			return nil, fmt.Errorf("annotation %d: negative unit index %d", i, a.Unit)
		}
		if a.Start < 0 || a.End > length {
			return nil, fmt.Errorf("annotation %d: range [%d, %d) outside sequence of length %d",
				i, a.Start, a.End, length)
		}
		if a.Start > a.End {
			return nil, fmt.Errorf("annotation %d: start %d after end %d", i, a.Start, a.End)
		}
		if a.Start < prevEnd {
			return nil, fmt.Errorf("annotation %d: range [%d, %d) overlaps previous annotation ending at %d",
				i, a.Start, a.End, prevEnd)
		}

		value := int32(a.Unit + 1)
		for j := a.Start; j < a.End; j++ {
			labels[j] = value
		}
		prevEnd = a.End
	}

	return labels, nil
}

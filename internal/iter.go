// Package internal holds iterator helpers shared by the duet packages.
package internal

import (
	"iter"
)

// IterSeq2Concat yields each sequence in turn. Later sequences may repeat
// keys of earlier ones; consumers that store into a map see the last value.
func IterSeq2Concat[K any, V any](seqs ...iter.Seq2[K, V]) iter.Seq2[K, V] {
	return func(yield func(K, V) bool) {
		for _, seq := range seqs {
			for k, v := range seq {
				if !yield(k, v) {
					return
				}
			}
		}
	}
}

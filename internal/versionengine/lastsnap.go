package versionengine

import (
	"github.com/ubuntu/snapview/internal/config"
	"github.com/ubuntu/snapview/internal/record"
)

// reduceLastSnap implements spec §4.3.1: given the (possibly empty) ordered
// sequence and the live record, produce the reduced sequence for mode.
func reduceLastSnap(seq []record.PathRecord, live record.PathRecord, mode config.LastSnapMode) []record.PathRecord {
	switch mode {
	case config.LastSnapAny:
		if len(seq) == 0 {
			return nil
		}
		return seq[len(seq)-1:]

	case config.LastSnapDittoOnly:
		if len(seq) == 0 {
			return nil
		}
		last := seq[len(seq)-1]
		if sameMeta(last, live) {
			return seq[len(seq)-1:]
		}
		return nil

	case config.LastSnapNoDittoExclusive:
		if len(seq) == 0 {
			return nil
		}
		last := seq[len(seq)-1]
		if !sameMeta(last, live) {
			return seq[len(seq)-1:]
		}
		return nil

	case config.LastSnapNoDittoInclusive:
		if len(seq) == 0 {
			return []record.PathRecord{live}
		}
		last := seq[len(seq)-1]
		if !sameMeta(last, live) {
			return seq[len(seq)-1:]
		}
		return nil

	default: // config.LastSnapNone
		if len(seq) == 0 {
			return []record.PathRecord{live}
		}
		return seq
	}
}

// sameMeta reports whether a and b carry identical, present metadata. A
// phantom record never matches anything, including another phantom.
func sameMeta(a, b record.PathRecord) bool {
	if !a.HasMetadata || !b.HasMetadata {
		return false
	}
	return a.Metadata.ModTime.Equal(b.Metadata.ModTime) && a.Metadata.Size == b.Metadata.Size
}

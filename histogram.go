package taskwatch

import (
	"bytes"
	"encoding/gob"
	"time"

	hdrhistogram "github.com/HdrHistogram/hdrhistogram-go"
)

// histogramSigFigs matches spec.md section 3: "significant figures should
// be in the [0-5] range and memory usage grows exponentially with a higher
// sigfig" (the teacher's upstream comment, preserved in spirit).
const histogramSigFigs = 2

// histogramMaxValue bounds the histogram at just over 24 hours of
// nanoseconds; a poll taking longer than that is pathological, and
// RecordDuration clamps to it rather than erroring.
const histogramMaxValue = int64(24 * time.Hour)

// Histogram wraps hdrhistogram-go's Histogram with the recording and
// serialization semantics this package's poll-time tracking needs:
// non-negative durations only, saturating on overflow rather than erroring.
type Histogram struct {
	h *hdrhistogram.Histogram
}

// NewHistogram builds an empty poll-time histogram at precision 2.
func NewHistogram() *Histogram {
	return &Histogram{h: hdrhistogram.New(1, histogramMaxValue, histogramSigFigs)}
}

// RecordDuration records d as a nanosecond sample. Negative durations
// (clock skew) are treated as zero; durations that would overflow the
// histogram's configured range saturate at histogramMaxValue rather than
// being dropped, per spec.md section 7's "Histogram record of huge
// duration -> saturate to u64::MAX" policy (scaled here to the histogram's
// own ceiling, since hdrhistogram-go's range is bounded at construction).
func (hi *Histogram) RecordDuration(d time.Duration) {
	v := int64(d)
	if v < 0 {
		v = 0
	}
	if v > histogramMaxValue {
		v = histogramMaxValue
	}
	if v == 0 {
		v = 1
	}
	// RecordValue only fails when v is outside the configured range, which
	// cannot happen given the clamping above.
	_ = hi.h.RecordValue(v)
}

// TotalCount returns the number of samples recorded.
func (hi *Histogram) TotalCount() int64 {
	return hi.h.TotalCount()
}

// histogramSnapshot is the gob-encodable wire form of a Histogram. See
// SerializeV2's doc comment for why this is a snapshot encoding rather than
// the compressed HDR V2 codec.
type histogramSnapshot struct {
	LowestTrackableValue  int64
	HighestTrackableValue int64
	SignificantFigures    int64
	Counts                []int64
}

// SerializeV2 encodes the histogram for the wire, in the vocabulary of
// spec.md's "TaskDetails... V2-serialized poll-time histogram bytes (HDR V2
// encoding)". github.com/HdrHistogram/hdrhistogram-go (the Go port used
// elsewhere in this retrieval pack, e.g. by grafana-tempo and
// DataDog-datadog-agent) does not implement the compressed, Java/Rust
// wire-compatible V2 codec - only Export/Import snapshots - so this encodes
// that snapshot with encoding/gob instead. A transport that must
// interoperate byte-for-byte with a non-Go HdrHistogram client would need
// to replace this one function; see DESIGN.md.
//
// Per spec.md section 7, serialization failures are not propagated as
// errors to callers of the aggregator: TaskDetails.PollTimesHistogram is
// simply omitted. SerializeV2 itself returns an error so that contract can
// be implemented at the call site.
func (hi *Histogram) SerializeV2() ([]byte, error) {
	snap := hi.h.Export()
	wire := histogramSnapshot{
		LowestTrackableValue:  snap.LowestTrackableValue,
		HighestTrackableValue: snap.HighestTrackableValue,
		SignificantFigures:    snap.SignificantFigures,
		Counts:                snap.Counts,
	}

	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(wire); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// DeserializeHistogramV2 is the inverse of Histogram.SerializeV2, provided
// for symmetry and testing; an out-of-scope transport consumer (e.g. a
// console client) would use whichever decoding matches SerializeV2's actual
// wire format.
func DeserializeHistogramV2(data []byte) (*Histogram, error) {
	var wire histogramSnapshot
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&wire); err != nil {
		return nil, err
	}
	snap := &hdrhistogram.Snapshot{
		LowestTrackableValue:  wire.LowestTrackableValue,
		HighestTrackableValue: wire.HighestTrackableValue,
		SignificantFigures:    wire.SignificantFigures,
		Counts:                wire.Counts,
	}
	return &Histogram{h: hdrhistogram.Import(snap)}, nil
}

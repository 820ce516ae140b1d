package series

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"math"

	"github.com/wonny/betascope/internal/contracts"
)

// MinReturns is the minimum number of returns needed for a reliable beta
const MinReturns = 30

// =============================================================================
// Return Series Builder (pure)
// =============================================================================

// Returns converts a price series into simple periodic returns.
// return[i] = (p[i+1] - p[i]) / p[i], stamped with the time of p[i+1].
// Fail-closed: fewer than minReturns+1 prices is an InsufficientDataError.
func Returns(ps *contracts.PriceSeries, minReturns int) (*contracts.ReturnSeries, error) {
	if minReturns <= 0 {
		minReturns = MinReturns
	}

	n := ps.Len()
	if n < minReturns+1 {
		got := n - 1
		if got < 0 {
			got = 0
		}
		return nil, &contracts.InsufficientDataError{Ticker: ps.Ticker(), Got: got, Need: minReturns}
	}

	points := make([]contracts.ReturnPoint, n-1)
	for i := 0; i < n-1; i++ {
		prev := ps.At(i)
		next := ps.At(i + 1)
		points[i] = contracts.ReturnPoint{
			Time:  next.Time,
			Value: (next.Price - prev.Price) / prev.Price,
		}
	}

	return &contracts.ReturnSeries{Ticker: ps.Ticker(), Points: points}, nil
}

// Align inner-joins two price series on their timestamps, keeping chronological order.
// Fewer than minPoints shared timestamps is an AlignmentError.
func Align(asset, benchmark *contracts.PriceSeries, minPoints int) (*contracts.PriceSeries, *contracts.PriceSeries, error) {
	if minPoints <= 0 {
		minPoints = MinReturns
	}

	// Both inputs are sorted, so a merge walk gives the intersection in order
	var a, b []contracts.PricePoint
	i, j := 0, 0
	for i < asset.Len() && j < benchmark.Len() {
		pa, pb := asset.At(i), benchmark.At(j)
		switch {
		case pa.Time.Equal(pb.Time):
			a = append(a, pa)
			b = append(b, pb)
			i++
			j++
		case pa.Time.Before(pb.Time):
			i++
		default:
			j++
		}
	}

	if len(a) < minPoints {
		return nil, nil, &contracts.AlignmentError{Ticker: asset.Ticker(), Overlap: len(a), Need: minPoints}
	}

	alignedAsset, err := contracts.NewPriceSeries(asset.Ticker(), a)
	if err != nil {
		return nil, nil, err
	}
	alignedBench, err := contracts.NewPriceSeries(benchmark.Ticker(), b)
	if err != nil {
		return nil, nil, err
	}
	return alignedAsset, alignedBench, nil
}

// AlignedReturns aligns asset and benchmark prices, then builds both return series
// from the aligned prices so every return spans the same interval in both series.
func AlignedReturns(asset, benchmark *contracts.PriceSeries, minReturns int) (*contracts.ReturnSeries, *contracts.ReturnSeries, error) {
	if minReturns <= 0 {
		minReturns = MinReturns
	}

	a, b, err := Align(asset, benchmark, minReturns)
	if err != nil {
		return nil, nil, err
	}

	ra, err := Returns(a, minReturns)
	if err != nil {
		return nil, nil, err
	}
	rb, err := Returns(b, minReturns)
	if err != nil {
		return nil, nil, err
	}
	return ra, rb, nil
}

// Fingerprint identifies the exact content of a price series
func Fingerprint(ps *contracts.PriceSeries) string {
	h := sha256.New()
	h.Write([]byte(ps.Ticker()))

	var buf [8]byte
	for i := 0; i < ps.Len(); i++ {
		p := ps.At(i)
		binary.BigEndian.PutUint64(buf[:], uint64(p.Time.UnixNano()))
		h.Write(buf[:])
		binary.BigEndian.PutUint64(buf[:], math.Float64bits(p.Price))
		h.Write(buf[:])
	}
	return hex.EncodeToString(h.Sum(nil))
}

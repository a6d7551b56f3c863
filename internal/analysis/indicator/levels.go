package indicator

import (
	"fmt"
	"math"
	"sort"

	"github.com/assist-by/conduit/internal/domain"
)

// LevelOption은 지지/저항 탐색 옵션입니다
type LevelOption struct {
	Window     int // 좌우 탐색 반경
	MinTouches int // 허용 오차 안에 있어야 하는 다른 봉의 최소 개수
}

// Levels는 지지선(오름차순)과 저항선(내림차순)입니다
type Levels struct {
	Support    []float64
	Resistance []float64
}

// NearestSupportBelow는 price 아래의 가장 가까운 지지선을 반환합니다
func (l Levels) NearestSupportBelow(price float64) (float64, bool) {
	best, found := 0.0, false
	for _, s := range l.Support {
		if s < price && (!found || s > best) {
			best, found = s, true
		}
	}
	return best, found
}

// NearestResistanceAbove는 price 위의 가장 가까운 저항선을 반환합니다
func (l Levels) NearestResistanceAbove(price float64) (float64, bool) {
	best, found := 0.0, false
	for _, r := range l.Resistance {
		if r > price && (!found || r < best) {
			best, found = r, true
		}
	}
	return best, found
}

// SupportResistance는 종가 기준으로 지지/저항 수준을 찾습니다.
// 반경 Window 안의 최저(최고) 봉이 후보가 되고, 전체 표준편차의 1% 이내에
// 다른 봉이 MinTouches개 이상 있을 때만 채택합니다.
func SupportResistance(prices []PriceData, opt LevelOption) (Levels, error) {
	if err := validatePeriod("Window", opt.Window); err != nil {
		return Levels{}, err
	}
	if opt.MinTouches < 0 {
		return Levels{}, &domain.ValidationError{Field: "MinTouches", Err: fmt.Errorf("0 이상이어야 합니다: %d", opt.MinTouches)}
	}
	if err := requireLength("SupportResistance", len(prices), 2*opt.Window+1); err != nil {
		return Levels{}, err
	}

	xs := closes(prices)
	tolerance := stddev(xs) * 0.01

	supports := make(map[float64]bool)
	resistances := make(map[float64]bool)
	for i := opt.Window; i < len(xs)-opt.Window; i++ {
		window := xs[i-opt.Window : i+opt.Window+1]
		lo, hi := window[0], window[0]
		for _, x := range window {
			lo = math.Min(lo, x)
			hi = math.Max(hi, x)
		}

		if xs[i] != lo && xs[i] != hi {
			continue
		}
		if touches(xs, i, tolerance) < opt.MinTouches {
			continue
		}
		if xs[i] == lo {
			supports[xs[i]] = true
		}
		if xs[i] == hi {
			resistances[xs[i]] = true
		}
	}

	levels := Levels{Support: keys(supports), Resistance: keys(resistances)}
	sort.Float64s(levels.Support)
	sort.Sort(sort.Reverse(sort.Float64Slice(levels.Resistance)))
	return levels, nil
}

// touches는 후보 자신을 제외하고 허용 오차 안에 있는 봉의 수입니다
func touches(xs []float64, idx int, tolerance float64) int {
	n := 0
	for j, x := range xs {
		if j != idx && math.Abs(x-xs[idx]) <= tolerance {
			n++
		}
	}
	return n
}

func keys(m map[float64]bool) []float64 {
	out := make([]float64, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}

// Copyright 2021-2024 Nokia
// Licensed under the BSD 3-Clause License.
// SPDX-License-Identifier: BSD-3-Clause

package covtrace

import (
	"math"
	"math/rand"
)

// sampler makes the per request coverage decision.
// A request is sampled if a uniform draw in [0, 100) is below rate.
// Rate 0 never samples, rate 100 always does.
type sampler struct {
	rate float64
	draw func() float64
}

func newSampler(rate float64) sampler {
	return sampler{rate: clampRate(rate), draw: uniformDraw}
}

func (s sampler) sample() bool {
	return s.draw() < s.rate
}

func uniformDraw() float64 {
	return rand.Float64() * 100 // #nosec random is weak intentionally
}

func clampRate(rate float64) float64 {
	if math.IsNaN(rate) || rate < 0 {
		return 0
	}
	if rate > 100 {
		return 100
	}
	return rate
}

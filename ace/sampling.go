/*
 * MIT License
 *
 * Copyright (c) 2020 Nicolas JUHEL
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 *
 */

package ace

import "math/rand"

// reservoir keeps one uniformly random item from a stream of updates.
type reservoir[T any] struct {
	rng    *rand.Rand
	chosen T
	ok     bool
	count  int
}

func newReservoir[T any](rng *rand.Rand) *reservoir[T] {
	return &reservoir[T]{rng: rng}
}

func (r *reservoir[T]) update(v T) {
	r.count++
	if r.rng.Intn(r.count) == 0 {
		r.chosen = v
		r.ok = true
	}
}

func (r *reservoir[T]) get() (T, bool) {
	return r.chosen, r.ok
}

func randomChoice[T any](rng *rand.Rand, choices []T) T {
	return choices[rng.Intn(len(choices))]
}

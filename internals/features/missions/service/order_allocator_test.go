package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func intPtr(n int) *int { return &n }

func TestAllocateOrder(t *testing.T) {
	cases := []struct {
		name      string
		requested *int
		used      []int
		want      int
	}{
		{"empty store, no request", nil, nil, 1},
		{"no request defaults past max", nil, []int{2, 5}, 6},
		{"requested free", intPtr(4), []int{1, 2}, 4},
		{"contiguous block probes upward", intPtr(1), []int{1, 2, 3}, 4},
		{"gap is filled ascending", intPtr(1), []int{1, 3}, 2},
		{"requested above max", intPtr(10), []int{1, 2}, 10},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := AllocateOrder(tc.requested, tc.used)
			assert.Equal(t, tc.want, got)
			assert.NotContains(t, tc.used, got, "allocated order must never collide")
		})
	}
}

func TestAllocateOrder_NeverCollides(t *testing.T) {
	used := []int{1, 2, 3, 5, 8, 13, 21}
	for req := 1; req <= 25; req++ {
		got := AllocateOrder(intPtr(req), used)
		assert.NotContains(t, used, got, "requested %d", req)
		assert.GreaterOrEqual(t, got, req)
	}
}

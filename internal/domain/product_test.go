package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSealedProduct_Discount(t *testing.T) {
	tests := []struct {
		name    string
		product SealedProduct
		want    float64
	}{
		{"below msrp", SealedProduct{Price: 40, MSRP: 50}, 0.2},
		{"at msrp", SealedProduct{Price: 50, MSRP: 50}, 0},
		{"above msrp", SealedProduct{Price: 60, MSRP: 50}, -0.2},
		{"unknown msrp", SealedProduct{Price: 40}, 0},
		{"negative msrp", SealedProduct{Price: 40, MSRP: -1}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, tt.product.Discount(), 1e-12)
		})
	}
}

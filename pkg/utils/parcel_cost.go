package utils

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ParcelCostResult contains the calculated cost and its breakdown
type ParcelCostResult struct {
	Total        float64 `json:"total"`
	BaseRate     float64 `json:"baseRate"`
	WeightCharge float64 `json:"weightCharge"`
	SizeCharge   float64 `json:"sizeCharge"`
}

const (
	BaseParcelRate = 10.00 // flat charge per parcel
	RatePerKg      = 0.50
	RatePerCm      = 0.25
)

var ErrInvalidMeasurement = errors.New("invalid parcel measurement")

// CalculateParcelCost prices a parcel from its weight in kg and its size in cm.
// The size arrives as free text from the booking form and must parse as a
// non-negative number.
func CalculateParcelCost(weight float64, size string) (ParcelCostResult, error) {
	if math.IsNaN(weight) || math.IsInf(weight, 0) || weight < 0 {
		return ParcelCostResult{}, fmt.Errorf("%w: weight %v", ErrInvalidMeasurement, weight)
	}

	sizeValue, err := ParseMeasurement(size)
	if err != nil {
		return ParcelCostResult{}, err
	}

	weightCharge := weight * RatePerKg
	sizeCharge := sizeValue * RatePerCm

	return ParcelCostResult{
		Total:        roundMoney(BaseParcelRate + weightCharge + sizeCharge),
		BaseRate:     BaseParcelRate,
		WeightCharge: roundMoney(weightCharge),
		SizeCharge:   roundMoney(sizeCharge),
	}, nil
}

// ParseMeasurement parses a number-like form value.
func ParseMeasurement(raw string) (float64, error) {
	value, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || math.IsNaN(value) || math.IsInf(value, 0) || value < 0 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidMeasurement, raw)
	}
	return value, nil
}

// ToMinorUnits converts an amount to the gateway's smallest currency unit.
func ToMinorUnits(amount float64) int64 {
	return int64(math.Round(amount * 100))
}

func roundMoney(v float64) float64 {
	return math.Round(v*100) / 100
}

package charts

import (
	"bytes"
	"testing"

	"finledger/internal/core"
)

var pngMagic = []byte{0x89, 'P', 'N', 'G'}

func TestCashflowPNG(t *testing.T) {
	series := []core.DayCashflow{
		{Date: core.NewDate(2024, 3, 1), Net: core.Money{Cents: 10000}},
		{Date: core.NewDate(2024, 3, 2), Net: core.Money{Cents: -2500}},
		{Date: core.NewDate(2024, 3, 3), Net: core.Money{Cents: 0}},
		{Date: core.NewDate(2024, 3, 4), Net: core.Money{Cents: 4200}},
	}

	png, err := NewGenerator().CashflowPNG(series)
	if err != nil {
		t.Fatalf("CashflowPNG failed: %v", err)
	}
	if !bytes.HasPrefix(png, pngMagic) {
		t.Error("output is not a PNG")
	}
}

func TestCashflowPNG_TooFewPoints(t *testing.T) {
	series := []core.DayCashflow{
		{Date: core.NewDate(2024, 3, 1), Net: core.Money{Cents: 100}},
	}

	png, err := NewGenerator().CashflowPNG(series)
	if err != nil {
		t.Fatalf("CashflowPNG failed: %v", err)
	}
	if png != nil {
		t.Error("expected nil output for a single point")
	}
}

func TestCategoryPiePNG(t *testing.T) {
	breakdown := []core.CategorySpend{
		{Category: core.CategoryFood, Amount: core.Money{Cents: 50000}},
		{Category: core.CategoryTravel, Amount: core.Money{Cents: 20000}},
		{Category: core.CategoryBills, Amount: core.Money{Cents: 30000}},
	}

	png, err := NewGenerator().CategoryPiePNG(breakdown)
	if err != nil {
		t.Fatalf("CategoryPiePNG failed: %v", err)
	}
	if !bytes.HasPrefix(png, pngMagic) {
		t.Error("output is not a PNG")
	}
}

func TestCategoryPiePNG_Empty(t *testing.T) {
	png, err := NewGenerator().CategoryPiePNG(nil)
	if err != nil {
		t.Fatalf("CategoryPiePNG failed: %v", err)
	}
	if png != nil {
		t.Error("expected nil output for empty breakdown")
	}
}

package compressor

import (
	"fmt"
	"testing"
)

func TestCompress(t *testing.T) {
	x := 0 // an empty value

	tests := []struct {
		original       []int
		colCount       int
		uniqueRowCount int
	}{
		{
			original: []int{
				1, 1, 1, 1, 1,
				1, 1, 1, 1, 1,
				1, 1, 1, 1, 1,
			},
			colCount:       5,
			uniqueRowCount: 1,
		},
		{
			original: []int{
				x, x, x, x, x,
				x, x, x, x, x,
				x, x, x, x, x,
			},
			colCount:       5,
			uniqueRowCount: 1,
		},
		{
			original: []int{
				1, 1, 1, 1, 1,
				x, x, x, x, x,
				1, 1, 1, 1, 1,
			},
			colCount:       5,
			uniqueRowCount: 2,
		},
		{
			original: []int{
				1, x, 1, 1, 1,
				1, 1, x, 1, 1,
				1, 1, 1, x, 1,
			},
			colCount:       5,
			uniqueRowCount: 3,
		},
		{
			original: []int{
				3, x, x, -2, x, x,
				x, 5, x, x, x, x,
				x, x, x, x, x, -1,
				3, x, x, -2, x, x,
			},
			colCount:       6,
			uniqueRowCount: 3,
		},
	}
	for i, tt := range tests {
		t.Run(fmt.Sprintf("#%v", i), func(t *testing.T) {
			dup := make([]int, len(tt.original))
			copy(dup, tt.original)

			c, err := Compress(tt.original, tt.colCount)
			if err != nil {
				t.Fatal(err)
			}
			if c.UniqueRowCount != tt.uniqueRowCount {
				t.Errorf("unexpected unique row count; want: %v, got: %v", tt.uniqueRowCount, c.UniqueRowCount)
			}
			rowCount := len(tt.original) / tt.colCount
			for row := 0; row < rowCount; row++ {
				for col := 0; col < tt.colCount; col++ {
					v, err := Lookup(c, tt.colCount, row, col)
					if err != nil {
						t.Fatal(err)
					}
					expected := tt.original[row*tt.colCount+col]
					if v != expected {
						t.Fatalf("unexpected entry; row: %v, col: %v, want: %v, got: %v", row, col, expected, v)
					}
				}
			}
			for i := 0; i < len(tt.original); i++ {
				if tt.original[i] != dup[i] {
					t.Fatalf("the original table is broken; want: %v, got: %v", dup, tt.original)
				}
			}
		})
	}
}

func TestCompress_InvalidInput(t *testing.T) {
	tests := []struct {
		entries  []int
		colCount int
	}{
		{
			entries:  nil,
			colCount: 1,
		},
		{
			entries:  []int{1, 2, 3},
			colCount: 0,
		},
		{
			entries:  []int{1, 2, 3},
			colCount: 2,
		},
	}
	for i, tt := range tests {
		t.Run(fmt.Sprintf("#%v", i), func(t *testing.T) {
			_, err := Compress(tt.entries, tt.colCount)
			if err == nil {
				t.Fatal("an error must occur")
			}
		})
	}
}

func TestLookup_OutOfRange(t *testing.T) {
	c, err := Compress([]int{1, 0, 0, 2}, 2)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := Lookup(c, 2, 2, 0); err == nil {
		t.Fatal("an error must occur")
	}
	if _, err := Lookup(c, 2, 0, -1); err == nil {
		t.Fatal("an error must occur")
	}
}

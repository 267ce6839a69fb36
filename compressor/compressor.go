// Package compressor packs the action table of a compiled grammar.
//
// Equal rows of the table are stored once. The remaining unique rows are overlaid on a single
// vector by row displacement: every row gets an offset so that its non-empty entries don't
// collide with the entries of the other rows, and a bound vector records which row owns a slot.
package compressor

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/nihei9/lrgen/spec"
)

const (
	emptyValue = 0

	// forbiddenRow marks a slot no row owns.
	forbiddenRow = -1
)

// Compress packs a row-major table whose rows have colCount entries. 0 is the empty entry.
func Compress(entries []int, colCount int) (*spec.CompressedAction, error) {
	if len(entries) == 0 {
		return nil, fmt.Errorf("entries is empty")
	}
	if colCount <= 0 {
		return nil, fmt.Errorf("colCount must be >=1")
	}
	if len(entries)%colCount != 0 {
		return nil, fmt.Errorf("entries length or column count are incorrect; entries length: %v, column count: %v", len(entries), colCount)
	}

	unique, rowNums := uniqueRows(entries, colCount)
	packed, bounds, displacement := displaceRows(unique, colCount)

	return &spec.CompressedAction{
		RowNums:         rowNums,
		UniqueRowCount:  len(unique) / colCount,
		Entries:         packed,
		Bounds:          bounds,
		RowDisplacement: displacement,
	}, nil
}

func uniqueRows(entries []int, colCount int) ([]int, []int) {
	rowCount := len(entries) / colCount
	var unique []int
	rowNums := make([]int, rowCount)
	key2RowNum := map[string]int{}
	for row := 0; row < rowCount; row++ {
		r := entries[row*colCount : (row+1)*colCount]
		key := rowKey(r)
		rowNum, ok := key2RowNum[key]
		if !ok {
			rowNum = len(key2RowNum)
			key2RowNum[key] = rowNum
			unique = append(unique, r...)
		}
		rowNums[row] = rowNum
	}
	return unique, rowNums
}

func rowKey(row []int) string {
	var b strings.Builder
	for _, v := range row {
		b.WriteString(strconv.Itoa(v))
		b.WriteByte(',')
	}
	return b.String()
}

type rowInfo struct {
	rowNum      int
	nonEmptyCol []int
}

// displaceRows places the densest rows first; each row takes the lowest offset at which its
// non-empty entries hit free slots only.
func displaceRows(entries []int, colCount int) ([]int, []int, []int) {
	rowCount := len(entries) / colCount
	infos := make([]rowInfo, rowCount)
	for row := 0; row < rowCount; row++ {
		infos[row].rowNum = row
		for col := 0; col < colCount; col++ {
			if entries[row*colCount+col] != emptyValue {
				infos[row].nonEmptyCol = append(infos[row].nonEmptyCol, col)
			}
		}
	}
	sort.SliceStable(infos, func(i, j int) bool {
		return len(infos[i].nonEmptyCol) > len(infos[j].nonEmptyCol)
	})

	packed := make([]int, len(entries))
	bounds := make([]int, len(entries))
	for i := range bounds {
		bounds[i] = forbiddenRow
	}
	displacement := make([]int, rowCount)
	bottom := colCount

	for _, info := range infos {
		if len(info.nonEmptyCol) == 0 {
			continue
		}

		d := 0
		for !fits(bounds, d, info.nonEmptyCol) {
			d++
		}
		displacement[info.rowNum] = d
		for _, col := range info.nonEmptyCol {
			packed[d+col] = entries[info.rowNum*colCount+col]
			bounds[d+col] = info.rowNum
		}
		if d+colCount > bottom {
			bottom = d + colCount
		}
	}

	return packed[:bottom], bounds[:bottom], displacement
}

func fits(bounds []int, d int, cols []int) bool {
	for _, col := range cols {
		if bounds[d+col] != forbiddenRow {
			return false
		}
	}
	return true
}

// Lookup reads the entry at row and col of the table c was built from.
func Lookup(c *spec.CompressedAction, colCount int, row int, col int) (int, error) {
	if row < 0 || row >= len(c.RowNums) || col < 0 || col >= colCount {
		return emptyValue, fmt.Errorf("indexes are out of range: [%v, %v]", row, col)
	}
	r := c.RowNums[row]
	d := c.RowDisplacement[r]
	if d+col >= len(c.Bounds) || c.Bounds[d+col] != r {
		return emptyValue, nil
	}
	return c.Entries[d+col], nil
}

package sheetstore

import "testing"

func TestColumnName(test *testing.T) {
	test.Parallel()
	testCases := []struct {
		columnIndex int
		want        string
	}{
		{columnIndex: 0, want: "A"},
		{columnIndex: 1, want: "B"},
		{columnIndex: 25, want: "Z"},
		{columnIndex: 26, want: "AA"},
		{columnIndex: 27, want: "AB"},
		{columnIndex: 51, want: "AZ"},
		{columnIndex: 52, want: "BA"},
		{columnIndex: 701, want: "ZZ"},
		{columnIndex: 702, want: "AAA"},
	}
	for _, testCase := range testCases {
		if got := columnName(testCase.columnIndex); got != testCase.want {
			test.Errorf("columnName(%d): expected %s, got %s", testCase.columnIndex, testCase.want, got)
		}
	}
}

func TestCellRangeUsesOneBasedRows(test *testing.T) {
	test.Parallel()
	if got := cellRange("Orders", 5, 1); got != "Orders!B6" {
		test.Fatalf("expected Orders!B6, got %s", got)
	}
	if got := cellRange("Orders 6-12", 0, 0); got != "Orders 6-12!A1" {
		test.Fatalf("expected Orders 6-12!A1, got %s", got)
	}
}

func TestRowRangeAnchorsAtColumnA(test *testing.T) {
	test.Parallel()
	if got := rowRange("Orders", 5); got != "Orders!A6" {
		test.Fatalf("expected Orders!A6, got %s", got)
	}
}

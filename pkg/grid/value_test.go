package grid

import "testing"

func TestFromRawNormalizesCellTypes(test *testing.T) {
	test.Parallel()
	testCases := []struct {
		name      string
		raw       any
		wantEmpty bool
		wantText  string
	}{
		{name: "nil is empty", raw: nil, wantEmpty: true, wantText: ""},
		{name: "empty string is empty", raw: "", wantEmpty: true, wantText: ""},
		{name: "text", raw: "Lettuce", wantText: "Lettuce"},
		{name: "float", raw: 2.5, wantText: "2.5"},
		{name: "int widens", raw: 7, wantText: "7"},
		{name: "int64 widens", raw: int64(7), wantText: "7"},
	}
	for _, testCase := range testCases {
		testCase := testCase
		test.Run(testCase.name, func(test *testing.T) {
			test.Parallel()
			value := FromRaw(testCase.raw)
			if value.IsEmpty() != testCase.wantEmpty {
				test.Fatalf("IsEmpty: expected %v", testCase.wantEmpty)
			}
			if value.String() != testCase.wantText {
				test.Fatalf("String: expected %q, got %q", testCase.wantText, value.String())
			}
		})
	}
}

func TestIntRejectsFractionsAndText(test *testing.T) {
	test.Parallel()
	if _, ok := Number(2.5).Int(); ok {
		test.Fatalf("fractional cell must not read as int")
	}
	if _, ok := Text("7").Int(); ok {
		test.Fatalf("textual cell must not read as int")
	}
	if got, ok := Number(7).Int(); !ok || got != 7 {
		test.Fatalf("expected 7, got %d (ok=%v)", got, ok)
	}
}

func TestIntOrZeroTreatsBlankAsZero(test *testing.T) {
	test.Parallel()
	if got, ok := Empty().IntOrZero(); !ok || got != 0 {
		test.Fatalf("blank cell must read as zero, got %d (ok=%v)", got, ok)
	}
	if _, ok := Text("garbage").IntOrZero(); ok {
		test.Fatalf("textual cell must not read as int")
	}
}

func TestRawRoundTrips(test *testing.T) {
	test.Parallel()
	if Empty().Raw() != nil {
		test.Fatalf("empty cell must marshal as nil")
	}
	if Text("a").Raw() != "a" {
		test.Fatalf("text cell must keep its value")
	}
	if Number(3).Raw() != 3.0 {
		test.Fatalf("number cell must keep its value")
	}
}

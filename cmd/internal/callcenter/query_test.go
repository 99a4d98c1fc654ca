package callcenter

import "testing"

func TestClampLimit(t *testing.T) {
	t.Parallel()

	cases := map[int]int{-5: DefaultLimit, 0: DefaultLimit, 1: 1, 50: 50, 100: 100, 101: 100}
	for in, want := range cases {
		if got := ClampLimit(in); got != want {
			t.Fatalf("ClampLimit(%d)=%d want %d", in, got, want)
		}
	}
}

func TestNormalizeMobile(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   string
		want string
		ok   bool
	}{
		{in: "9876543210", want: "9876543210", ok: true},
		{in: "+91 (987) 654-3210", want: "+919876543210", ok: true},
		{in: "98765.43210", want: "9876543210", ok: true},
		{in: "12345", ok: false},
		{in: "98765x43210", ok: false},
		{in: "98+76543210", ok: false},
		{in: "1234567890123456", ok: false},
	}
	for _, tc := range cases {
		got, ok := NormalizeMobile(tc.in)
		if ok != tc.ok || got != tc.want {
			t.Fatalf("NormalizeMobile(%q)=(%q,%v) want (%q,%v)", tc.in, got, ok, tc.want, tc.ok)
		}
	}
}

func TestCallQuery_Values(t *testing.T) {
	t.Parallel()

	v, err := CallQuery{From: "2024-06-01", To: "2024-06-30", Outcome: OutcomeConverted, Page: 3}.Values()
	if err != nil {
		t.Fatalf("Values: %v", err)
	}
	if v.Encode() != "from=2024-06-01&limit=20&outcome=converted&page=3&to=2024-06-30" {
		t.Fatalf("encoded=%q", v.Encode())
	}

	bad := []CallQuery{
		{From: "2024-06-30", To: "2024-06-01"},
		{From: "June"},
		{Outcome: "hung_up"},
	}
	for _, q := range bad {
		if _, err := q.Values(); !IsInvalidInput(err) {
			t.Fatalf("%+v: err=%v", q, err)
		}
	}
}

func TestFollowUpQuery_Values(t *testing.T) {
	t.Parallel()

	v, err := FollowUpQuery{Date: "2024-06-10", Status: FollowUpPending}.Values()
	if err != nil {
		t.Fatalf("Values: %v", err)
	}
	if v.Get("date") != "2024-06-10" || v.Get("status") != "pending" {
		t.Fatalf("values=%v", v)
	}
	if _, err := (FollowUpQuery{Status: "late"}).Values(); !IsInvalidInput(err) {
		t.Fatalf("bad status err=%v", err)
	}
}

func TestPage_HasMore(t *testing.T) {
	t.Parallel()

	cases := []struct {
		p    Page[int]
		want bool
	}{
		{p: Page[int]{Page: 1, Limit: 20, Total: 21}, want: true},
		{p: Page[int]{Page: 2, Limit: 20, Total: 40}, want: false},
		{p: Page[int]{Page: 1, Limit: 0, Total: 5}, want: false},
	}
	for _, tc := range cases {
		if got := tc.p.HasMore(); got != tc.want {
			t.Fatalf("%+v HasMore=%v want %v", tc.p, got, tc.want)
		}
	}
}

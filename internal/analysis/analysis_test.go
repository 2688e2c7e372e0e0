package analysis

import (
	"errors"
	"math"
	"testing"

	"github.com/YnaPqt/deploiement-getaround/internal/domain"
)

var inf = math.Inf(1)

func rec(ct domain.CheckinType, previousDelay, timeDelta float64) domain.RentalRecord {
	return domain.RentalRecord{
		CheckinType:           ct,
		State:                 domain.StateEnded,
		PreviousDelay:         previousDelay,
		TimeDeltaWithPrevious: timeDelta,
	}
}

func sample() []domain.RentalRecord {
	return []domain.RentalRecord{
		rec(domain.CheckinMobile, 0, inf),
		rec(domain.CheckinMobile, 45, 30),
		rec(domain.CheckinConnect, 10, 0),
		rec(domain.CheckinConnect, -20, 15),
		rec(domain.CheckinMobile, 200, 120),
		rec(domain.CheckinMobile, 5, 60),
	}
}

func TestClassify(t *testing.T) {
	r := rec(domain.CheckinMobile, 45, 30)

	t.Run("Solved", func(t *testing.T) {
		c := Classify(r, 40)
		if !c.AtRisk || !c.Blocked || !c.RevenueRisk() {
			t.Errorf("expected at risk, blocked and solved, got %+v", c)
		}
	})

	t.Run("Unsolved", func(t *testing.T) {
		c := Classify(r, 20)
		if !c.AtRisk || c.Blocked || c.RevenueRisk() {
			t.Errorf("expected at risk and not blocked, got %+v", c)
		}
	})

	t.Run("StrictBlocked", func(t *testing.T) {
		if Classify(r, 30).Blocked {
			t.Error("time delta equal to threshold must not be blocked")
		}
	})

	t.Run("StrictAtRisk", func(t *testing.T) {
		if Classify(rec(domain.CheckinMobile, 30, 30), 60).AtRisk {
			t.Error("previous delay equal to time delta must not be at risk")
		}
	})

	t.Run("InfinitySentinel", func(t *testing.T) {
		for _, threshold := range []float64{0, 10, 140, 1e9} {
			c := Classify(rec(domain.CheckinConnect, 1e6, inf), threshold)
			if c.Blocked || c.AtRisk {
				t.Errorf("threshold %v: +Inf gap must be neither blocked nor at risk, got %+v", threshold, c)
			}
		}
	})
}

func TestFilterByCheckin(t *testing.T) {
	records := sample()

	t.Run("All", func(t *testing.T) {
		out := FilterByCheckin(records, domain.FilterAll)
		if len(out) != len(records) || &out[0] != &records[0] {
			t.Error("expected All to return the input slice")
		}
	})

	t.Run("Connect", func(t *testing.T) {
		out := FilterByCheckin(records, domain.FilterConnect)
		if len(out) != 2 {
			t.Fatalf("expected 2 connect records, got %d", len(out))
		}
		if out[0].PreviousDelay != 10 || out[1].PreviousDelay != -20 {
			t.Errorf("expected carried-over previous delays in order, got %v and %v", out[0].PreviousDelay, out[1].PreviousDelay)
		}
	})

	t.Run("Mobile", func(t *testing.T) {
		out := FilterByCheckin(records, domain.FilterMobile)
		for _, r := range out {
			if r.CheckinType != domain.CheckinMobile {
				t.Errorf("unexpected %s record", r.CheckinType)
			}
		}
		if len(out) != 4 {
			t.Errorf("expected 4 mobile records, got %d", len(out))
		}
	})
}

func TestAggregate(t *testing.T) {
	m := Aggregate(sample(), 40)

	// blocked: 30, 0, 15; at risk: 45>30, 10>0, 200>120
	if m.Total != 6 || m.Blocked != 3 || m.NotBlocked != 3 {
		t.Errorf("unexpected counts: %+v", m)
	}
	if m.AtRiskTotal != 3 || m.Solved != 2 || m.Unsolved != 1 {
		t.Errorf("unexpected risk counts: %+v", m)
	}
	if m.RiskPct != 50 {
		t.Errorf("expected risk 50%%, got %v", m.RiskPct)
	}
	if m.Threshold != 40 {
		t.Errorf("expected threshold 40, got %v", m.Threshold)
	}
}

func TestAggregateBounds(t *testing.T) {
	records := sample()
	for _, filter := range domain.CheckinFilters {
		view := FilterByCheckin(records, filter)
		for _, threshold := range domain.DefaultThresholds {
			m := Aggregate(view, threshold)
			if m.Solved < 0 || m.Solved > m.AtRiskTotal {
				t.Errorf("%s/%v: solved %d outside [0, %d]", filter, threshold, m.Solved, m.AtRiskTotal)
			}
			if m.Blocked < 0 || m.Blocked > m.Total {
				t.Errorf("%s/%v: blocked %d outside [0, %d]", filter, threshold, m.Blocked, m.Total)
			}
			if m.Solved+m.Unsolved != m.AtRiskTotal {
				t.Errorf("%s/%v: solved + unsolved != at risk", filter, threshold)
			}
		}
	}
}

func TestEmptyDataset(t *testing.T) {
	m := Aggregate(nil, 60)
	if m.RiskPct != 0 || m.Total != 0 {
		t.Errorf("expected zero metric, got %+v", m)
	}

	curve := Sweep(nil, domain.DefaultThresholds)
	for _, p := range curve {
		if p.RiskPct != 0 {
			t.Errorf("expected 0 risk at %v, got %v", p.Threshold, p.RiskPct)
		}
	}

	delta, _, ok := Delta(nil, domain.DefaultThresholds, 60)
	if !ok || delta != 0 {
		t.Errorf("expected delta 0, got %v (ok=%v)", delta, ok)
	}
}

func TestSweep(t *testing.T) {
	curve := Sweep(sample(), domain.DefaultThresholds)

	if len(curve) != len(domain.DefaultThresholds) {
		t.Fatalf("expected %d points, got %d", len(domain.DefaultThresholds), len(curve))
	}

	t.Run("Order", func(t *testing.T) {
		for i, p := range curve {
			if p.Threshold != domain.DefaultThresholds[i] {
				t.Errorf("point %d: expected threshold %v, got %v", i, domain.DefaultThresholds[i], p.Threshold)
			}
		}
	})

	t.Run("Monotonic", func(t *testing.T) {
		for i := 1; i < len(curve); i++ {
			if curve[i].RiskPct < curve[i-1].RiskPct {
				t.Errorf("risk decreased from %v to %v", curve[i-1].RiskPct, curve[i].RiskPct)
			}
		}
	})

	t.Run("MatchesAggregate", func(t *testing.T) {
		for _, p := range curve {
			if m := Aggregate(sample(), p.Threshold); m.RiskPct != p.RiskPct {
				t.Errorf("threshold %v: sweep %v != aggregate %v", p.Threshold, p.RiskPct, m.RiskPct)
			}
		}
	})
}

func TestDelta(t *testing.T) {
	records := sample()

	t.Run("ListPositional", func(t *testing.T) {
		thresholds := []float64{10, 20, 40}
		delta, prev, ok := Delta(records, thresholds, 40)
		if !ok || prev == nil || *prev != 20 {
			t.Fatalf("expected predecessor 20, got %v (ok=%v)", prev, ok)
		}
		want := Aggregate(records, 40).RiskPct - Aggregate(records, 20).RiskPct
		if delta != want {
			t.Errorf("expected delta %v, got %v", want, delta)
		}
	})

	t.Run("UnsortedList", func(t *testing.T) {
		thresholds := []float64{60, 10, 40}
		_, prev, _ := Delta(records, thresholds, 40)
		if prev == nil || *prev != 10 {
			t.Errorf("expected list predecessor 10, got %v", prev)
		}
	})

	t.Run("FirstElement", func(t *testing.T) {
		delta, prev, ok := Delta(records, domain.DefaultThresholds, 10)
		if !ok || delta != 0 || prev != nil {
			t.Errorf("expected zero delta without predecessor, got %v %v %v", delta, prev, ok)
		}
	})

	t.Run("NotInList", func(t *testing.T) {
		delta, prev, ok := Delta(records, domain.DefaultThresholds, 45)
		if ok || delta != 0 || prev != nil {
			t.Errorf("expected no delta for unlisted threshold, got %v %v %v", delta, prev, ok)
		}
	})

	t.Run("FromCurveAgrees", func(t *testing.T) {
		curve := Sweep(records, domain.DefaultThresholds)
		for _, threshold := range domain.DefaultThresholds {
			a, _, _ := Delta(records, domain.DefaultThresholds, threshold)
			b, _, _ := DeltaFromCurve(curve, threshold)
			if a != b {
				t.Errorf("threshold %v: Delta %v != DeltaFromCurve %v", threshold, a, b)
			}
		}
	})
}

func TestCategorize(t *testing.T) {
	tests := []struct {
		delay float64
		want  domain.DelayCategory
	}{
		{-100, domain.DelayOnTime},
		{0, domain.DelayOnTime},
		{0.5, domain.DelayModeratelyLate},
		{30, domain.DelayModeratelyLate},
		{30.01, domain.DelayVeryLate},
		{60, domain.DelayVeryLate},
		{60.01, domain.DelayExtremelyLate},
		{1000, domain.DelayExtremelyLate},
	}

	for _, tt := range tests {
		if got := Categorize(tt.delay); got != tt.want {
			t.Errorf("Categorize(%v) = %q, want %q", tt.delay, got, tt.want)
		}
	}
}

func TestBreakdown(t *testing.T) {
	records := []domain.RentalRecord{
		{CheckinType: domain.CheckinMobile, DelayAtCheckout: -10, DelayCategory: domain.DelayOnTime},
		{CheckinType: domain.CheckinMobile, DelayAtCheckout: 20, DelayCategory: domain.DelayModeratelyLate},
		{CheckinType: domain.CheckinMobile, DelayAtCheckout: 90, DelayCategory: domain.DelayExtremelyLate},
		{CheckinType: domain.CheckinConnect, DelayAtCheckout: 0, DelayCategory: domain.DelayOnTime},
	}

	b := Breakdown(records, domain.FilterAll)

	if b.Total != 4 {
		t.Errorf("expected total 4, got %d", b.Total)
	}
	if len(b.Groups) != 2*len(domain.DelayCategories) {
		t.Fatalf("expected %d groups, got %d", 2*len(domain.DelayCategories), len(b.Groups))
	}
	if b.Groups[0].CheckinType != domain.CheckinMobile || b.Groups[0].Category != domain.DelayOnTime {
		t.Errorf("unexpected first group %+v", b.Groups[0])
	}
	if b.Groups[0].Count != 1 || b.Groups[0].Share != 25 {
		t.Errorf("unexpected mobile on-time group %+v", b.Groups[0])
	}

	if len(b.Stats) != 2 {
		t.Fatalf("expected 2 stat rows, got %d", len(b.Stats))
	}
	mobile := b.Stats[0]
	if mobile.Count != 3 || mobile.MedianDelay != 20 {
		t.Errorf("unexpected mobile stats %+v", mobile)
	}
	if math.Abs(mobile.MeanDelay-(100.0/3)) > 1e-9 {
		t.Errorf("expected mean 33.33, got %v", mobile.MeanDelay)
	}
	if math.Abs(mobile.LateShare-(200.0/3)) > 1e-9 {
		t.Errorf("expected late share 66.67, got %v", mobile.LateShare)
	}

	if empty := Breakdown(nil, domain.FilterConnect); len(empty.Groups) != 0 || len(empty.Stats) != 0 {
		t.Errorf("expected empty breakdown, got %+v", empty)
	}
}

func TestParamsValidate(t *testing.T) {
	tests := []struct {
		name   string
		params Params
		err    error
	}{
		{"Valid", Params{Checkin: domain.FilterAll, Threshold: 60}, nil},
		{"ZeroThreshold", Params{Checkin: domain.FilterMobile, Threshold: 0}, nil},
		{"UnlistedThreshold", Params{Checkin: domain.FilterConnect, Threshold: 45}, nil},
		{"BadCheckin", Params{Checkin: "paper", Threshold: 60}, domain.ErrInvalidCheckin},
		{"Negative", Params{Checkin: domain.FilterAll, Threshold: -1}, domain.ErrInvalidThreshold},
		{"NaN", Params{Checkin: domain.FilterAll, Threshold: math.NaN()}, domain.ErrInvalidThreshold},
		{"Inf", Params{Checkin: domain.FilterAll, Threshold: inf}, domain.ErrInvalidThreshold},
		{"Duplicate", Params{Checkin: domain.FilterAll, Threshold: 10, Thresholds: []float64{10, 20, 10}}, domain.ErrInvalidThreshold},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.params.Validate()
			if tt.err == nil && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
			if tt.err != nil && !errors.Is(err, tt.err) {
				t.Errorf("expected %v, got %v", tt.err, err)
			}
		})
	}
}

func TestParamsKey(t *testing.T) {
	a := Params{Checkin: domain.FilterMobile, Threshold: 60, Thresholds: []float64{10, 60}, Segment: "delay > 0.0"}
	b := a
	b.Threshold = 40

	if a.Key() == b.Key() {
		t.Error("expected different keys for different thresholds")
	}
	if a.Key() != "mobile|60|10,60|delay > 0.0" {
		t.Errorf("unexpected key %q", a.Key())
	}
}

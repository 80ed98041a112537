package forecast

import "testing"

func TestCatalogFieldsAreOwnedByOnePackage(t *testing.T) {
	for _, c := range []Cadence{Hourly, Daily} {
		owner := make(map[string]Package)
		for _, pkg := range Packages {
			for _, fd := range Fields(pkg, c) {
				if prev, ok := owner[fd.Name]; ok {
					t.Errorf("%s field %q owned by both %s and %s", c, fd.Name, prev, pkg)
				}
				owner[fd.Name] = pkg
			}
		}
	}
}

func TestSelectionProviderIDRoundTrip(t *testing.T) {
	for _, pkg := range Packages {
		for _, c := range []Cadence{Hourly, Daily} {
			sel := Selection{Package: pkg, Cadence: c}
			got, err := ParseSelection(sel.ProviderID())
			if err != nil {
				t.Fatalf("ParseSelection(%q): %v", sel.ProviderID(), err)
			}
			if got != sel {
				t.Fatalf("expected %+v, got %+v", sel, got)
			}
		}
	}

	if _, err := ParseSelection("wind"); err == nil {
		t.Fatalf("expected error for id without cadence")
	}
	if _, err := ParseSelection("wind-3h"); err == nil {
		t.Fatalf("expected error for unknown cadence")
	}
}

func TestSelectionsProviderIDs(t *testing.T) {
	sels := Selections{{Basic, Hourly}, {Wind, Hourly}, {Trend, Daily}}
	if got, want := sels.ProviderIDs(), "basic-1h_wind-1h_trend-day"; got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
	if got := sels.Filter(Daily); len(got) != 1 || got[0].Package != Trend {
		t.Fatalf("unexpected daily filter result %+v", got)
	}
}

func TestSupported(t *testing.T) {
	if Supported(Trend, Hourly) {
		t.Fatalf("trend has no hourly series")
	}
	if !Supported(Trend, Daily) {
		t.Fatalf("trend should have a daily series")
	}
	if Supported(Package("bogus"), Hourly) {
		t.Fatalf("unknown package reported as supported")
	}
}

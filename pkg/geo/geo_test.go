package geo

import "testing"

func TestProjectIsLinear(t *testing.T) {
	p := Project(1.0, 2.0)
	want := Point{X: LatMetersPerDegree, Y: 2 * LonMetersPerDegree}
	if p != want {
		t.Fatalf("Project(1,2) = %+v, want %+v", p, want)
	}
}

func TestApproxDistanceZeroForSamePoint(t *testing.T) {
	d := ApproxDistance(40.7128, -74.0060, 40.7128, -74.0060)
	if d != 0 {
		t.Fatalf("ApproxDistance(same point) = %v, want 0", d)
	}
}

func TestApproxDistanceMatchesPlanarPythagoras(t *testing.T) {
	// 0.001 degree of latitude ~ 111.19 m; 0.001 degree of longitude ~ 84.25 m.
	d := ApproxDistance(0, 0, 0.001, 0.001)
	dx := 0.001 * LatMetersPerDegree
	dy := 0.001 * LonMetersPerDegree
	want := (dx*dx + dy*dy)
	got := d * d
	if diff := got - want; diff > 1e-6 || diff < -1e-6 {
		t.Fatalf("ApproxDistance^2 = %v, want %v", got, want)
	}
}

func TestApproxDistanceSymmetric(t *testing.T) {
	a := ApproxDistance(40.70, -74.00, 40.75, -73.95)
	b := ApproxDistance(40.75, -73.95, 40.70, -74.00)
	if a != b {
		t.Fatalf("ApproxDistance not symmetric: %v vs %v", a, b)
	}
}

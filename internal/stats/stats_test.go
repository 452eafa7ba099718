package stats

import (
	"testing"

	"github.com/FrotaLink/FrotaLink/internal/telemetry"
)

func TestReconstructVolume(t *testing.T) {
	// 120 km @ 10 km/L = 12 L
	if got := ReconstructVolume(120, 10); got != 12 {
		t.Fatalf("ReconstructVolume(120, 10) = %v, want 12", got)
	}
	// 效率低于下限视为无效
	if got := ReconstructVolume(120, 0.05); got != 0 {
		t.Fatalf("near-zero efficiency must yield 0, got %v", got)
	}
	if got := ReconstructVolume(120, 0); got != 0 {
		t.Fatalf("zero efficiency must yield 0, got %v", got)
	}
	if got := ReconstructVolume(-5, 10); got != 0 {
		t.Fatalf("negative distance must yield 0, got %v", got)
	}
}

func TestAggregateAndTotals(t *testing.T) {
	readings := []telemetry.Reading{
		{VehicleID: "v-1", DistanceKM: 60, EfficiencyKMPL: 10},
		{VehicleID: "v-1", DistanceKM: 60, EfficiencyKMPL: 10},
		{VehicleID: "v-2", DistanceKM: 50, EfficiencyKMPL: 5},
		{VehicleID: "v-2", DistanceKM: -10, EfficiencyKMPL: 5}, // 负增量钳位
		{VehicleID: "v-3", DistanceKM: 40, EfficiencyKMPL: 0},  // 无效效率：有距离无油量
	}

	usage := Aggregate(readings)
	if len(usage) != 3 {
		t.Fatalf("expected 3 vehicles, got %d", len(usage))
	}
	if u := usage["v-1"]; u.DistanceKM != 120 || u.FuelLiters != 12 || u.AvgConsumption != 10 {
		t.Fatalf("v-1 = %+v", u)
	}
	if u := usage["v-2"]; u.DistanceKM != 50 || u.FuelLiters != 10 || u.AvgConsumption != 5 {
		t.Fatalf("v-2 = %+v", u)
	}
	// 油量为 0 时平均油耗为 0，不出现 NaN
	if u := usage["v-3"]; u.FuelLiters != 0 || u.AvgConsumption != 0 {
		t.Fatalf("v-3 = %+v", u)
	}

	totals := Totals(usage)
	if totals.Vehicles != 3 || totals.Readings != 5 {
		t.Fatalf("totals = %+v", totals)
	}
	if totals.DistanceKM != 210 || totals.FuelLiters != 22 {
		t.Fatalf("totals = %+v", totals)
	}
	// 车队平均 = 总距离/总油量
	if want := round2(210.0 / 22.0); totals.AvgConsumption != want {
		t.Fatalf("fleet avg = %v, want %v", totals.AvgConsumption, want)
	}
}

func TestTotalsEmptyFleet(t *testing.T) {
	totals := Totals(map[string]*VehicleUsage{})
	if totals.AvgConsumption != 0 || totals.DistanceKM != 0 {
		t.Fatalf("empty fleet totals = %+v", totals)
	}
}

func TestWorstConsumers(t *testing.T) {
	usage := map[string]*VehicleUsage{
		"v-1": {VehicleID: "v-1", AvgConsumption: 12},
		"v-2": {VehicleID: "v-2", AvgConsumption: 4},
		"v-3": {VehicleID: "v-3", AvgConsumption: 8},
		"v-4": {VehicleID: "v-4", AvgConsumption: 6},
		"v-5": {VehicleID: "v-5", AvgConsumption: 10},
		"v-6": {VehicleID: "v-6", AvgConsumption: 5},
		"v-7": {VehicleID: "v-7", AvgConsumption: 0}, // 无数据，不参与排名
	}
	got := WorstConsumers(usage, 5)
	if len(got) != 5 {
		t.Fatalf("expected top 5, got %d", len(got))
	}
	wantOrder := []string{"v-2", "v-6", "v-4", "v-3", "v-5"}
	for i, id := range wantOrder {
		if got[i].VehicleID != id {
			t.Fatalf("rank %d = %s, want %s (full: %+v)", i, got[i].VehicleID, id, got)
		}
	}
}

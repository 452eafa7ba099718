package stats

import (
	"math"
	"sort"

	"github.com/FrotaLink/FrotaLink/internal/telemetry"
)

// minEfficiencyKMPL 低于该效率的读数视为无效，不参与油量重建。
// 防止接近零的效率值把重建油量放大到离谱。
const minEfficiencyKMPL = 0.1

// ReconstructVolume 由行驶距离和瞬时效率反推油量（升）。
// 效率不可信时返回 0，宁可低估不污染汇总。
func ReconstructVolume(distanceKM, efficiencyKMPL float64) float64 {
	if efficiencyKMPL <= minEfficiencyKMPL || distanceKM <= 0 {
		return 0
	}
	return distanceKM / efficiencyKMPL
}

// safeRatio 分母为零返回 0，汇总结果里绝不出现 NaN/Inf。
func safeRatio(num, den float64) float64 {
	if den <= 0 {
		return 0
	}
	v := num / den
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// VehicleUsage 单车窗口内的用量汇总。
type VehicleUsage struct {
	VehicleID      string  `json:"vehicle_id"`
	Plate          string  `json:"plate"`
	Make           string  `json:"make"`
	Model          string  `json:"model"`
	Readings       int     `json:"readings"`
	DistanceKM     float64 `json:"distance_km"`
	FuelLiters     float64 `json:"fuel_liters"`
	AvgConsumption float64 `json:"avg_consumption_kmpl"` // km/L，无有效油量时为 0
}

// Aggregate 把窗口内的读数按车归并。距离增量钳位非负，
// 油量按每条读数的瞬时效率逐条重建。
func Aggregate(readings []telemetry.Reading) map[string]*VehicleUsage {
	out := make(map[string]*VehicleUsage)
	for i := range readings {
		r := &readings[i]
		u := out[r.VehicleID]
		if u == nil {
			u = &VehicleUsage{VehicleID: r.VehicleID}
			out[r.VehicleID] = u
		}
		u.Readings++
		d := r.DistanceKM
		if d < 0 {
			d = 0
		}
		u.DistanceKM += d
		u.FuelLiters += ReconstructVolume(d, r.EfficiencyKMPL)
	}
	for _, u := range out {
		u.AvgConsumption = round2(safeRatio(u.DistanceKM, u.FuelLiters))
		u.DistanceKM = round2(u.DistanceKM)
		u.FuelLiters = round2(u.FuelLiters)
	}
	return out
}

// WorstConsumers 油耗最差的前 n 辆车：按 km/L 升序（越小越费油）。
// 没有有效油量数据（AvgConsumption=0）的车不参与排名。
func WorstConsumers(usage map[string]*VehicleUsage, n int) []VehicleUsage {
	ranked := make([]VehicleUsage, 0, len(usage))
	for _, u := range usage {
		if u.AvgConsumption <= 0 {
			continue
		}
		ranked = append(ranked, *u)
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].AvgConsumption != ranked[j].AvgConsumption {
			return ranked[i].AvgConsumption < ranked[j].AvgConsumption
		}
		return ranked[i].VehicleID < ranked[j].VehicleID
	})
	if n > 0 && len(ranked) > n {
		ranked = ranked[:n]
	}
	return ranked
}

// FleetTotals 车队级汇总。
type FleetTotals struct {
	Vehicles       int     `json:"vehicles"`
	Readings       int     `json:"readings"`
	DistanceKM     float64 `json:"distance_km"`
	FuelLiters     float64 `json:"fuel_liters"`
	AvgConsumption float64 `json:"avg_consumption_kmpl"`
}

// Totals 从单车汇总推车队汇总；平均油耗用总距离/总油量，
// 总油量为 0 时平均值为 0。
func Totals(usage map[string]*VehicleUsage) FleetTotals {
	var t FleetTotals
	var dist, fuel float64
	for _, u := range usage {
		t.Vehicles++
		t.Readings += u.Readings
		dist += u.DistanceKM
		fuel += u.FuelLiters
	}
	t.DistanceKM = round2(dist)
	t.FuelLiters = round2(fuel)
	t.AvgConsumption = round2(safeRatio(dist, fuel))
	return t
}

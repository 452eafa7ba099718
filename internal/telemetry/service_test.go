package telemetry

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/FrotaLink/FrotaLink/internal/common/apperr"
	"github.com/FrotaLink/FrotaLink/internal/common/config"
	"github.com/FrotaLink/FrotaLink/internal/vehicle"
	"gorm.io/datatypes"
)

func TestNormalizeWindow(t *testing.T) {
	day := func(s string) *time.Time {
		d, err := time.Parse("2006-01-02", s)
		if err != nil {
			t.Fatalf("parse %s: %v", s, err)
		}
		return &d
	}

	// to 当天全天包含：窗口上界是 to+1 天
	lo, hi, err := normalizeWindow(day("2026-08-01"), day("2026-08-10"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !lo.Equal(*day("2026-08-01")) {
		t.Fatalf("lo = %v", lo)
	}
	if !hi.Equal(day("2026-08-10").AddDate(0, 0, 1)) {
		t.Fatalf("hi = %v, want to+1d", hi)
	}

	// 倒置窗口报参数错误
	_, _, err = normalizeWindow(day("2026-08-10"), day("2026-08-01"))
	if apperr.KindOf(err) != apperr.KindInvalidInput {
		t.Fatalf("expected invalid input, got %v", err)
	}

	// 全缺省：从零值到明天
	lo, hi, err = normalizeWindow(nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !lo.IsZero() {
		t.Fatalf("default lo should be zero, got %v", lo)
	}
	if !hi.After(time.Now()) {
		t.Fatalf("default hi should include today, got %v", hi)
	}
}

func TestValidateSample(t *testing.T) {
	ok := Sample{SpeedKMH: 80, RPM: 2500, FuelLevelPct: 50, BatteryVoltage: 12.6}
	if fields := validateSample(ok); len(fields) != 0 {
		t.Fatalf("expected valid, got %v", fields)
	}
	bad := Sample{
		SpeedKMH:     -1,
		RPM:          30000,
		FuelLevelPct: 120,
		DTCCount:     -2,
		Alerts:       []SystemAlert{{Type: "", Severity: "urgent"}},
	}
	fields := validateSample(bad)
	if len(fields) != 6 {
		t.Fatalf("expected 6 field errors, got %d: %v", len(fields), fields)
	}
}

func mustJSON(t *testing.T, v interface{}) datatypes.JSON {
	t.Helper()
	b, err := json.Marshal(v)
	if err != nil {
		t.Fatal(err)
	}
	return datatypes.JSON(b)
}

func TestExpandAlerts(t *testing.T) {
	captured := time.Date(2026, 8, 20, 10, 0, 0, 0, time.UTC)
	driver := "e-1"
	r := &Reading{
		ID:         "r-1",
		VehicleID:  "v-1",
		EmployeeID: &driver,
		MILOn:      true,
		DTCCount:   3,
		FaultCodes: mustJSON(t, []FaultCode{
			{Code: "P0301"}, {Code: "P0420"}, {Code: "P0171"},
		}),
		SystemAlerts: mustJSON(t, []SystemAlert{
			{Type: AlertSpeeding, Message: "too fast", Severity: SeverityMedium},
			{Type: "door_open", Message: "door open", Severity: SeverityLow},
		}),
		AlertCount: 2,
		CapturedAt: captured,
	}

	rows := ExpandAlerts(r)
	if len(rows) != 3 {
		t.Fatalf("expected 2 stored + 1 derived rows, got %d", len(rows))
	}
	for _, row := range rows[:2] {
		if row.DTCOrigin {
			t.Fatalf("stored alert flagged as dtc origin: %+v", row)
		}
		if row.ReadingID != "r-1" || !row.CapturedAt.Equal(captured) {
			t.Fatalf("missing reading context: %+v", row)
		}
		if row.EmployeeID == nil || *row.EmployeeID != driver {
			t.Fatalf("missing attributed driver: %+v", row)
		}
	}
	derived := rows[2]
	if !derived.DTCOrigin || derived.Type != AlertEngineFaultDTC || derived.Severity != SeverityHigh {
		t.Fatalf("unexpected derived row: %+v", derived)
	}
	if len(derived.FaultCodes) != 3 {
		t.Fatalf("derived row must carry the fault code list, got %+v", derived.FaultCodes)
	}

	// 只有故障码、没有系统告警：恰好一行派生告警
	onlyDTC := &Reading{ID: "r-2", VehicleID: "v-1", DTCCount: 3, CapturedAt: captured}
	rows = ExpandAlerts(onlyDTC)
	if len(rows) != 1 || rows[0].Type != AlertEngineFaultDTC {
		t.Fatalf("expected exactly one dtc row, got %+v", rows)
	}

	// MIL 亮但故障码计数为 0：不展开告警行
	milOnly := &Reading{ID: "r-3", VehicleID: "v-1", MILOn: true, CapturedAt: captured}
	if rows := ExpandAlerts(milOnly); len(rows) != 0 {
		t.Fatalf("MIL alone must not expand rows, got %v", rows)
	}

	// 无任何告警来源的读数展开为空
	clean := &Reading{ID: "r-4", VehicleID: "v-1", CapturedAt: captured}
	if rows := ExpandAlerts(clean); len(rows) != 0 {
		t.Fatalf("expected no rows, got %v", rows)
	}
}

func TestPageOf(t *testing.T) {
	// 25 条、每页 10：共 3 页
	p := pageOf(1, 10, 25)
	if p.TotalPages != 3 || p.Total != 25 {
		t.Fatalf("pageOf(1,10,25) = %+v", p)
	}
	if p := pageOf(1, 10, 0); p.TotalPages != 0 {
		t.Fatalf("empty result should have 0 pages, got %+v", p)
	}
	if p := pageOf(1, 10, 10); p.TotalPages != 1 {
		t.Fatalf("exact fit should have 1 page, got %+v", p)
	}
}

// snapshotRecorder 记录 ApplySnapshot 的入参。
type snapshotRecorder struct {
	distance float64
	calls    int
	fail     int // 前 fail 次调用返回瞬态错误
}

func (f *snapshotRecorder) FindByID(context.Context, string) (*vehicle.Vehicle, error) {
	return nil, nil
}

func (f *snapshotRecorder) ApplySnapshot(_ context.Context, _ string, _ datatypes.JSON, _ time.Time, distanceKM float64) error {
	f.calls++
	if f.calls <= f.fail {
		return apperr.New(apperr.KindTransient, "db briefly unavailable")
	}
	f.distance = distanceKM
	return nil
}

func TestApplySnapshotClampsNegativeDistance(t *testing.T) {
	rec := &snapshotRecorder{}
	s := NewService(nil, rec, config.TelemetryConfig{}, nil, nil)

	v := &vehicle.Vehicle{ID: "v-1", CompanyID: "c-1"}
	r := &Reading{ID: "r-1", VehicleID: "v-1", DistanceKM: -12.5}
	s.applySnapshot(context.Background(), v, r, []byte(`{}`), time.Now())

	if rec.calls != 1 {
		t.Fatalf("calls = %d", rec.calls)
	}
	if rec.distance != 0 {
		t.Fatalf("negative distance must clamp to 0, got %v", rec.distance)
	}
}

func TestApplySnapshotRetriesTransient(t *testing.T) {
	rec := &snapshotRecorder{fail: 2}
	s := NewService(nil, rec, config.TelemetryConfig{}, nil, nil)

	v := &vehicle.Vehicle{ID: "v-1", CompanyID: "c-1"}
	r := &Reading{ID: "r-1", VehicleID: "v-1", DistanceKM: 4}
	s.applySnapshot(context.Background(), v, r, []byte(`{}`), time.Now())

	if rec.calls != 3 {
		t.Fatalf("expected 3 attempts (2 transient failures + success), got %d", rec.calls)
	}
	if rec.distance != 4 {
		t.Fatalf("distance = %v", rec.distance)
	}
}

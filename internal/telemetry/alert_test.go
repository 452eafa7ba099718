package telemetry

import (
	"strings"
	"testing"

	"github.com/FrotaLink/FrotaLink/internal/common/config"
)

func testThresholds() config.TelemetryConfig {
	return config.TelemetryConfig{
		MaxSpeedKMH:       120,
		MaxCoolantTempC:   105,
		MinFuelLevelPct:   10,
		MinBatteryVoltage: 11.8,
	}
}

func countByType(alerts []SystemAlert, typ string) int {
	n := 0
	for _, a := range alerts {
		if a.Type == typ {
			n++
		}
	}
	return n
}

func TestEvaluateThresholds(t *testing.T) {
	e := NewAlertEngine(testThresholds())

	// 全部正常：不产生告警
	ok := Sample{SpeedKMH: 80, CoolantTempC: 90, FuelLevelPct: 50, BatteryVoltage: 12.6}
	if got := e.Evaluate(ok); len(got) != 0 {
		t.Fatalf("expected no alerts, got %v", got)
	}

	// 全部越界：四条阈值告警
	bad := Sample{SpeedKMH: 130, CoolantTempC: 110, FuelLevelPct: 5, BatteryVoltage: 11.0}
	got := e.Evaluate(bad)
	if len(got) != 4 {
		t.Fatalf("expected 4 alerts, got %d: %v", len(got), got)
	}
	for _, typ := range []string{AlertSpeeding, AlertOverheat, AlertLowFuel, AlertLowBattery} {
		if countByType(got, typ) != 1 {
			t.Fatalf("missing alert type %s in %v", typ, got)
		}
	}
}

func TestEvaluateBoundaryNotTriggered(t *testing.T) {
	e := NewAlertEngine(testThresholds())
	// 恰好等于阈值不算越界
	s := Sample{SpeedKMH: 120, CoolantTempC: 105, FuelLevelPct: 10, BatteryVoltage: 11.8}
	if got := e.Evaluate(s); len(got) != 0 {
		t.Fatalf("boundary values should not trigger alerts, got %v", got)
	}
}

func TestEvaluateKeepsDeviceAlerts(t *testing.T) {
	e := NewAlertEngine(testThresholds())
	s := Sample{
		SpeedKMH:       130,
		CoolantTempC:   90,
		FuelLevelPct:   50,
		BatteryVoltage: 12.6,
		Alerts: []SystemAlert{
			{Type: "door_open", Message: "door open while moving", Severity: SeverityLow},
		},
	}
	got := e.Evaluate(s)
	if len(got) != 2 {
		t.Fatalf("expected device alert + speeding, got %v", got)
	}
	if got[0].Type != "door_open" {
		t.Fatalf("device alerts must come first, got %v", got)
	}
}

func TestEvaluateSkipsDeviceReportedType(t *testing.T) {
	e := NewAlertEngine(testThresholds())
	// 设备已自带 speeding 告警且车速越界：不重复生成同类型
	s := Sample{
		SpeedKMH:       130,
		CoolantTempC:   110,
		FuelLevelPct:   50,
		BatteryVoltage: 12.6,
		Alerts: []SystemAlert{
			{Type: AlertSpeeding, Message: "device speeding alarm", Severity: SeverityHigh},
		},
	}
	got := e.Evaluate(s)
	if countByType(got, AlertSpeeding) != 1 {
		t.Fatalf("expected a single speeding alert, got %v", got)
	}
	if countByType(got, AlertOverheat) != 1 {
		t.Fatalf("overheat alert still expected, got %v", got)
	}
	if got[0].Message != "device speeding alarm" {
		t.Fatalf("device-reported alert must be kept as-is, got %v", got[0])
	}
}

func TestDeriveDTCAlert(t *testing.T) {
	if _, ok := DeriveDTCAlert(0); ok {
		t.Fatal("no fault codes should derive no alert")
	}

	a, ok := DeriveDTCAlert(3)
	if !ok {
		t.Fatal("expected derived alert")
	}
	if a.Type != AlertEngineFaultDTC {
		t.Fatalf("type = %s", a.Type)
	}
	if a.Severity != SeverityHigh {
		t.Fatalf("severity = %s, want high", a.Severity)
	}
	if !strings.Contains(a.Message, "3") {
		t.Fatalf("message should carry the DTC count, got %q", a.Message)
	}
}

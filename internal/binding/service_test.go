package binding

import (
	"testing"

	"github.com/FrotaLink/FrotaLink/internal/common/apperr"
	"github.com/FrotaLink/FrotaLink/internal/employee"
	"github.com/FrotaLink/FrotaLink/internal/vehicle"
)

func strPtr(s string) *string { return &s }

func freeVehicle() *vehicle.Vehicle {
	return &vehicle.Vehicle{ID: "v-1", CompanyID: "c-1", Status: vehicle.StatusAvailable}
}

func freeEmployee() *employee.Employee {
	return &employee.Employee{ID: "e-1", CompanyID: "c-1", Active: true, Role: employee.RoleDriver}
}

func TestCheckBindOK(t *testing.T) {
	if err := CheckBind(freeVehicle(), freeEmployee()); err != nil {
		t.Fatalf("expected bind allowed, got %v", err)
	}
}

func TestCheckBindRejections(t *testing.T) {
	cases := []struct {
		name     string
		mutate   func(*vehicle.Vehicle, *employee.Employee)
		wantKind apperr.Kind
	}{
		{"nil vehicle", nil, apperr.KindNotFound},
		{"cross company", func(v *vehicle.Vehicle, e *employee.Employee) {
			e.CompanyID = "c-2"
		}, apperr.KindConflict},
		{"inactive employee", func(v *vehicle.Vehicle, e *employee.Employee) {
			e.Active = false
		}, apperr.KindConflict},
		{"employee already bound", func(v *vehicle.Vehicle, e *employee.Employee) {
			e.CurrentVehicleID = strPtr("v-9")
		}, apperr.KindConflict},
		{"vehicle already bound", func(v *vehicle.Vehicle, e *employee.Employee) {
			v.CurrentEmployeeID = strPtr("e-9")
		}, apperr.KindConflict},
		{"vehicle in maintenance", func(v *vehicle.Vehicle, e *employee.Employee) {
			v.Status = vehicle.StatusMaintenance
		}, apperr.KindConflict},
		{"vehicle inactive", func(v *vehicle.Vehicle, e *employee.Employee) {
			v.Status = vehicle.StatusInactive
		}, apperr.KindConflict},
	}
	for _, c := range cases {
		v, e := freeVehicle(), freeEmployee()
		if c.mutate != nil {
			c.mutate(v, e)
		} else {
			v = nil
		}
		err := CheckBind(v, e)
		if err == nil {
			t.Fatalf("%s: expected error, got nil", c.name)
		}
		if got := apperr.KindOf(err); got != c.wantKind {
			t.Fatalf("%s: kind = %v, want %v", c.name, got, c.wantKind)
		}
	}
}

func TestCheckUnbind(t *testing.T) {
	v := freeVehicle()
	if err := CheckUnbind(v); apperr.KindOf(err) != apperr.KindConflict {
		t.Fatalf("unbound vehicle: expected conflict, got %v", err)
	}
	v.CurrentEmployeeID = strPtr("e-1")
	v.Status = vehicle.StatusInUse
	if err := CheckUnbind(v); err != nil {
		t.Fatalf("expected unbind allowed, got %v", err)
	}
	if err := CheckUnbind(nil); apperr.KindOf(err) != apperr.KindNotFound {
		t.Fatalf("nil vehicle: expected not found, got %v", err)
	}
}

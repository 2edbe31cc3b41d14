package catalog

import (
	"errors"
	"fmt"
	"testing"

	"fitengine/internal/activity"
)

func newTestRegistry(t *testing.T) *Registry {
	t.Helper()
	r := NewRegistry()
	r.Register(&Definition{
		Name: "TimerTime",
		Compute: func(act *activity.Activity, _ Values) (any, error) {
			return act.TimerTime, nil
		},
	})
	r.RegisterFamily("Best", func(args []Arg) (*Definition, error) {
		if len(args) != 1 || args[0].Kind != ArgString {
			return nil, fmt.Errorf("Best: want one string argument")
		}
		return &Definition{
			Name: InstanceName("Best", args),
			Compute: func(_ *activity.Activity, _ Values) (any, error) {
				return nil, nil
			},
		}, nil
	})
	r.Freeze()
	return r
}

func TestRegistryResolveStatic(t *testing.T) {
	r := newTestRegistry(t)

	def, fields, err := r.Resolve("TimerTime")
	if err != nil {
		t.Fatalf("Resolve(TimerTime) error: %v", err)
	}
	if def.Name != "TimerTime" {
		t.Errorf("resolved %q, want TimerTime", def.Name)
	}
	if len(fields) != 0 {
		t.Errorf("fields = %v, want none", fields)
	}

	_, _, err = r.Resolve("NoSuchMetric")
	var unknown *UnknownMetricError
	if !errors.As(err, &unknown) {
		t.Fatalf("Resolve(NoSuchMetric) error = %v, want UnknownMetricError", err)
	}
}

func TestRegistryInstanceIdentity(t *testing.T) {
	r := newTestRegistry(t)

	a, err := r.Instance("Best", []Arg{StringArg("power")})
	if err != nil {
		t.Fatalf("Instance error: %v", err)
	}
	b, _, err := r.Resolve(`Best["power"]`)
	if err != nil {
		t.Fatalf("Resolve error: %v", err)
	}
	// Same arguments must yield the identical definition, however obtained.
	if a != b {
		t.Errorf("Instance and Resolve produced distinct definitions for the same name")
	}
	if a.Name != `Best["power"]` {
		t.Errorf("instance name = %q, want %q", a.Name, `Best["power"]`)
	}

	c, err := r.Instance("Best", []Arg{StringArg("heartrate")})
	if err != nil {
		t.Fatalf("Instance error: %v", err)
	}
	if a == c {
		t.Errorf("distinct arguments produced the same definition")
	}
}

func TestRegistryResolveFields(t *testing.T) {
	r := newTestRegistry(t)

	def, fields, err := r.Resolve(`Best["power"][models][cp]`)
	if err != nil {
		t.Fatalf("Resolve error: %v", err)
	}
	if def.Name != `Best["power"]` {
		t.Errorf("resolved %q, want Best[\"power\"]", def.Name)
	}
	if len(fields) != 2 || fields[0] != "models" || fields[1] != "cp" {
		t.Errorf("fields = %v, want [models cp]", fields)
	}

	// An empty trailing field group selects nothing and resolves to the
	// same memoized instance.
	empty, fields, err := r.Resolve(`Best["power"][ ]`)
	if err != nil {
		t.Fatalf("Resolve error: %v", err)
	}
	if empty != def {
		t.Errorf("empty field group resolved to a distinct definition")
	}
	if len(fields) != 0 {
		t.Errorf("fields = %v, want none", fields)
	}
}

func TestRegistryRegisterAfterFreeze(t *testing.T) {
	r := newTestRegistry(t)
	defer func() {
		if recover() == nil {
			t.Errorf("Register after Freeze did not panic")
		}
	}()
	r.Register(&Definition{Name: "Late"})
}

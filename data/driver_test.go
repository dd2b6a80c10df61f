package data

import (
	"context"
	"errors"
	"testing"

	"github.com/ncobase/jobqueue/data/config"
)

type fakeDriver struct {
	name   string
	closed bool
}

func (d *fakeDriver) Name() string { return d.name }
func (d *fakeDriver) Connect(context.Context, any) (any, error) {
	return nil, errors.New("not implemented")
}
func (d *fakeDriver) Close(any) error {
	d.closed = true
	return nil
}
func (d *fakeDriver) Ping(context.Context, any) error { return nil }

func TestRegisterDatabaseDriver(t *testing.T) {
	drv := &fakeDriver{name: "fake-db"}
	RegisterDatabaseDriver(drv)

	got, err := GetDatabaseDriver("fake-db")
	if err != nil {
		t.Fatalf("GetDatabaseDriver: %v", err)
	}
	if got != drv {
		t.Error("returned a different driver")
	}

	defer func() {
		if recover() == nil {
			t.Error("expected panic on duplicate registration")
		}
	}()
	RegisterDatabaseDriver(drv)
}

func TestRegisterMessageDriver(t *testing.T) {
	RegisterMessageDriver(&fakeDriver{name: "fake-bus"})
	if _, err := GetMessageDriver("fake-bus"); err != nil {
		t.Fatalf("GetMessageDriver: %v", err)
	}
	if _, err := GetMessageDriver("missing"); err == nil {
		t.Error("expected error for unregistered driver")
	}

	_, msgs := ListDrivers()
	if !contains(msgs, "fake-bus") {
		t.Errorf("ListDrivers messages = %v", msgs)
	}
}

func TestRegisterNilDriverPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic")
		}
	}()
	RegisterMessageDriver(nil)
}

func TestNewWithoutBackends(t *testing.T) {
	d, cleanup, err := New(context.Background(), &config.Config{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer cleanup()
	if d.DB != nil || d.Redis != nil || d.Kafka != nil || d.RabbitMQ != nil || d.Mongo != nil {
		t.Errorf("unexpected connections: %+v", d)
	}
	if err := d.Ping(context.Background()); err != nil {
		t.Errorf("Ping without database: %v", err)
	}
}

func TestNewUnknownDriver(t *testing.T) {
	cfg := &config.Config{Database: &config.Database{Master: &config.DBNode{Driver: "nope", Source: "x"}}}
	if _, _, err := New(context.Background(), cfg); err == nil {
		t.Fatal("expected error for unregistered driver")
	}
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

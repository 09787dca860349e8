// Package testutil provides shared helpers for tests that need a history database.
package testutil

import (
	"context"
	"testing"

	"github.com/Veraticus/flowqa/internal/model"
	"github.com/Veraticus/flowqa/internal/storage"
	"github.com/shopspring/decimal"
)

// TestDB wraps a migrated in-memory history store.
type TestDB struct {
	Storage *storage.SQLiteStorage
	t       *testing.T
}

// SetupTestDB creates a new in-memory test database.
// It automatically handles migrations and cleanup.
func SetupTestDB(t *testing.T) *TestDB {
	t.Helper()

	store, err := storage.NewSQLiteStorage(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}

	if err := store.Migrate(context.Background()); err != nil {
		_ = store.Close()
		t.Fatalf("failed to run migrations: %v", err)
	}

	t.Cleanup(func() {
		_ = store.Close()
	})

	return &TestDB{
		Storage: store,
		t:       t,
	}
}

// MustSave stores run or fails the test.
func (db *TestDB) MustSave(run *model.TestRun) *model.TestRun {
	db.t.Helper()
	if err := db.Storage.SaveTestRun(context.Background(), run); err != nil {
		db.t.Fatalf("failed to save test run: %v", err)
	}
	return run
}

// PassingRun returns a run that evaluated to a pass for the given device.
func PassingRun(deviceID string) *model.TestRun {
	return &model.TestRun{
		DeviceID:         deviceID,
		MeterName:        "Klepsan Woltman DN50",
		Formula:          model.FormulaDirect,
		Verdict:          model.VerdictPass,
		Multiplier:       decimal.NewFromInt(10),
		StartValue:       decimal.RequireFromString("100.00"),
		EndValue:         decimal.RequireFromString("110.00"),
		MeterConsumption: decimal.NewFromInt(100),
		FlowmeterTotal:   decimal.RequireFromString("99.5"),
		RelativeError:    decimal.NewNullDecimal(decimal.RequireFromString("0.5")),
		SourceFile:       "/data/export.xlsx",
		Samples: []model.FlowSample{
			{Row: 2, Volume: "50", Timestamp: "2024-03-01 10:00", DeviceID: deviceID},
			{Row: 3, Volume: "49.5", Timestamp: "2024-03-01 10:05", DeviceID: deviceID},
		},
	}
}

// UndeterminedRun returns a run with no computable relative error.
func UndeterminedRun(deviceID string) *model.TestRun {
	return &model.TestRun{
		DeviceID:         deviceID,
		MeterName:        "Klepsan Woltman DN50",
		Formula:          model.FormulaDirect,
		Verdict:          model.VerdictUndetermined,
		Multiplier:       decimal.NewFromInt(10),
		StartValue:       decimal.NewFromInt(5),
		EndValue:         decimal.NewFromInt(5),
		MeterConsumption: decimal.Zero,
		FlowmeterTotal:   decimal.NewFromInt(12),
	}
}

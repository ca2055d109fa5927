package svcctx

import (
	"context"
	"log/slog"
	"testing"

	"github.com/jackzampolin/redpen/internal/jobs"
	"github.com/jackzampolin/redpen/internal/store"
)

func TestServicesFrom(t *testing.T) {
	ctx := context.Background()
	if ServicesFrom(ctx) != nil {
		t.Fatal("empty context should carry no services")
	}
	if StoreFrom(ctx) != nil || JobManagerFrom(ctx) != nil || LoggerFrom(ctx) != nil {
		t.Error("extractors should return nil without services")
	}

	st := store.NewMemoryStore()
	mgr := jobs.NewManager(jobs.ManagerConfig{Store: st})
	svcs := &Services{Store: st, JobManager: mgr, Logger: slog.Default()}
	ctx = WithServices(ctx, svcs)

	if ServicesFrom(ctx) != svcs {
		t.Error("ServicesFrom() did not return the attached services")
	}
	if StoreFrom(ctx) != st {
		t.Error("StoreFrom() mismatch")
	}
	if JobManagerFrom(ctx) != mgr {
		t.Error("JobManagerFrom() mismatch")
	}
	if LoggerFrom(ctx) == nil {
		t.Error("LoggerFrom() returned nil")
	}
}

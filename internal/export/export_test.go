package export

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Veraticus/flowqa/internal/catalog"
	"github.com/Veraticus/flowqa/internal/model"
	"github.com/Veraticus/flowqa/internal/session"
	"github.com/Veraticus/flowqa/internal/sheets"
	"github.com/Veraticus/flowqa/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testReport(t *testing.T) model.Report {
	t.Helper()
	s, err := session.New(catalog.Default())
	require.NoError(t, err)
	s.Load(&model.FlowImport{
		SourcePath: "/data/export.xlsx",
		DeviceID:   "FM-42",
		Samples: []model.FlowSample{
			{Row: 2, Volume: "60", Timestamp: "t1", DeviceID: "FM-42"},
			{Row: 3, Volume: "39.8", Timestamp: "t2", DeviceID: "FM-42"},
		},
	})
	require.NoError(t, s.Select(0, 1))
	s.SetStart(model.DigitReading{Whole: "100"})
	s.SetEnd(model.DigitReading{Whole: "110"})

	r, err := s.Report(time.Date(2024, 7, 1, 9, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	return r
}

func TestExport_PDFOnly(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "report.pdf")

	res, err := New().Export(context.Background(), testReport(t), path)
	require.NoError(t, err)

	assert.Equal(t, path, res.Path)
	assert.Nil(t, res.Run)
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Positive(t, info.Size())
}

func TestExport_AllTargets(t *testing.T) {
	db := testutil.SetupTestDB(t)
	remote := sheets.NewMockWriter()
	path := filepath.Join(t.TempDir(), "report.pdf")

	r := testReport(t)
	res, err := New(WithRemote(remote), WithHistory(db.Storage)).Export(context.Background(), r, path)
	require.NoError(t, err)

	require.NoError(t, res.RemoteErr)
	require.NoError(t, res.HistoryErr)
	assert.Equal(t, 1, remote.WriteCallCount)

	require.NotNil(t, res.Run)
	stored, err := db.Storage.GetTestRun(context.Background(), res.Run.ID)
	require.NoError(t, err)
	assert.Equal(t, "FM-42", stored.DeviceID)
	assert.Equal(t, path, stored.ReportPath)
	assert.Equal(t, model.VerdictPass, stored.Verdict)
	assert.Len(t, stored.Samples, 2)
}

func TestExport_RemoteFailureIsNotFatal(t *testing.T) {
	db := testutil.SetupTestDB(t)
	remote := sheets.NewMockWriter()
	remote.SetWriteError(errors.New("quota"))

	res, err := New(WithRemote(remote), WithHistory(db.Storage)).
		Export(context.Background(), testReport(t), filepath.Join(t.TempDir(), "r.pdf"))
	require.NoError(t, err)

	assert.EqualError(t, res.RemoteErr, "quota")
	assert.NotNil(t, res.Run)
}

func TestExport_NoPath(t *testing.T) {
	_, err := New().Export(context.Background(), testReport(t), "")
	assert.ErrorIs(t, err, ErrNoPath)
}

func TestExport_CanceledContextWritesNothing(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	path := filepath.Join(t.TempDir(), "r.pdf")

	_, err := New().Export(ctx, testReport(t), path)
	require.Error(t, err)
	assert.NoFileExists(t, path)
}

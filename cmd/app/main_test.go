package main

import (
	"bytes"
	"testing"
	"time"

	"labtrack/internal/core/application/usecases/commands"
	"labtrack/internal/core/domain/model/kernel"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrintSweepReport(t *testing.T) {
	first := kernel.NewUUID()
	second := kernel.NewUUID()
	var out bytes.Buffer

	err := printSweepReport(&out, commands.AutoCancelResult{
		CheckTime:         time.Date(2026, 3, 2, 17, 5, 0, 0, time.UTC),
		CancelledOrderIDs: []kernel.UUID{first, second},
		Failed:            1,
	})

	require.NoError(t, err)
	assert.Contains(t, out.String(), "Sweep at 2026-03-02T17:05:00Z: 2 cancelled, 1 failed")
	assert.Contains(t, out.String(), first.String())
	assert.Contains(t, out.String(), second.String())
}

func TestPrintSweepReport_NothingCancelled(t *testing.T) {
	var out bytes.Buffer

	err := printSweepReport(&out, commands.AutoCancelResult{CheckTime: time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)})

	require.NoError(t, err)
	assert.Equal(t, "Sweep at 2026-03-02T09:00:00Z: 0 cancelled, 0 failed\n", out.String())
}

func TestTokenCmd_PrintsToken(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("JWT_SIGNING_KEY", "secret")
	var out bytes.Buffer

	command := tokenCmd()
	command.SetOut(&out)
	command.SetArgs([]string{"--actor", kernel.NewUUID().String(), "--cap", "manage_lab_results,lab_technician"})

	require.NoError(t, command.Execute())
	assert.Len(t, bytes.Split(bytes.TrimSpace(out.Bytes()), []byte(".")), 3)
}

package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/inventario/internal/repository/flatfile"
)

func isolateEnv(t *testing.T) string {
	t.Helper()

	dir := t.TempDir()
	for _, key := range []string{
		"INVENTORY_FILE", "LOW_STOCK_THRESHOLD", "LOG_LEVEL", "LOG_MAX_SIZE_MB", "LOG_MAX_FILES",
		"REPORT_CRON_SCHEDULE", "TIMEZONE", "MONGODB_URI", "MONGODB_DB_NAME",
		"GOOGLE_SHEETS_CREDENTIALS_PATH", "GOOGLE_SHEET_DATABASE_ID",
		"WHATSAPP_TOKEN", "WHATSAPP_PHONE_NUMBER_ID", "WHATSAPP_BASE_URL",
		"WHATSAPP_API_VERSION", "WHATSAPP_REPORT_RECIPIENT",
	} {
		t.Setenv(key, "")
	}
	t.Setenv("LOG_FILE", filepath.Join(dir, "inventario.log"))
	return dir
}

func execute(t *testing.T, input string, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer
	cmd := NewRootCommand(strings.NewReader(input), &out)
	cmd.SetArgs(append([]string{"--env", filepath.Join(t.TempDir(), "missing.env")}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func TestMenuCreatesMissingInventory(t *testing.T) {
	dir := isolateEnv(t)
	path := filepath.Join(dir, "inventario.txt")

	out, err := execute(t, "2\nP003\nMouse\n10\n15.00\n1\n0\n", "--file", path)
	require.NoError(t, err)
	require.Contains(t, out, "Inventory file '"+path+"' created.")
	require.Contains(t, out, "[OK] Product 'Mouse' added.")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "P003|Mouse|10|15\n", string(data))
}

func TestMenuLoadFailureCanBeDeclined(t *testing.T) {
	dir := isolateEnv(t)

	out, err := execute(t, "n\n", "--file", dir)
	require.ErrorIs(t, err, flatfile.ErrIO)
	require.Contains(t, out, "Retry? (y/n): ")
}

func TestReportCommand(t *testing.T) {
	dir := isolateEnv(t)
	path := filepath.Join(dir, "inventario.txt")
	require.NoError(t, os.WriteFile(path, []byte("P001|Cámara digital|5|249.99\nP002|Cable HDMI|20|5.50\nbad\n"), 0o644))

	out, err := execute(t, "", "--file", path, "report")
	require.NoError(t, err)
	require.Contains(t, out, "1 malformed lines skipped.")
	require.Contains(t, out, "Products: 2")
	require.Contains(t, out, "- P001 Cámara digital: 5")
}

func TestReportPublishNeedsSink(t *testing.T) {
	dir := isolateEnv(t)

	_, err := execute(t, "", "--file", filepath.Join(dir, "inventario.txt"), "report", "--publish")
	require.ErrorContains(t, err, "no report sink configured")
}

func TestScheduleRejectsBadCron(t *testing.T) {
	dir := isolateEnv(t)
	t.Setenv("REPORT_CRON_SCHEDULE", "whenever")

	_, err := execute(t, "", "--file", filepath.Join(dir, "inventario.txt"), "schedule")
	require.ErrorContains(t, err, "invalid cron schedule")
}

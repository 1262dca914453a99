package recorder

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/serebryakov7/obd-logger/internal/obd"
)

func testColumns() []Column {
	return []Column{TimeColumn, Builtin(obd.SPEED), Builtin(obd.FUEL_STATUS)}
}

// readCSV читает файл записи целиком
func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	return records
}

func TestSessionWritesHeaderOnce(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rec.csv")
	s, err := CreateSession(path, testColumns(), SessionOptions{})
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		_, err := s.WriteRecord(Record{
			TimeMS: int64(1000 + i),
			Values: []obd.Value{obd.Number(50, obd.UnitKPH), obd.Text("Closed loop, using oxygen sensor")},
		})
		require.NoError(t, err)
	}
	assert.EqualValues(t, 3, s.Rows())
	require.NoError(t, s.Close())

	records := readCSV(t, path)
	require.Len(t, records, 4)
	assert.Equal(t, []string{"TIME", "SPEED", "FUEL_STATUS"}, records[0])
	for _, r := range records {
		assert.Len(t, r, 3)
	}
	assert.Equal(t, []string{"1002", "50 kph", "Closed loop, using oxygen sensor"}, records[3])

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(string(raw), "\n"))
	assert.Equal(t, 1, strings.Count(string(raw), "TIME"))
}

func TestSessionLineFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rec.csv")
	s, err := CreateSession(path, testColumns(), SessionOptions{Fsync: true})
	require.NoError(t, err)
	defer s.Close()

	line, err := s.WriteRecord(Record{TimeMS: 5, Values: []obd.Value{obd.NoData, obd.NoData}})
	require.NoError(t, err)
	assert.Equal(t, "5,,", line)

	line, err = s.WriteRecord(Record{TimeMS: 6, Values: []obd.Value{obd.Number(1, obd.UnitKPH), obd.Text("a,b")}})
	require.NoError(t, err)
	assert.Equal(t, `6,1 kph,"a,b"`, line)
}

func TestSessionRejectsFieldCountMismatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rec.csv")
	s, err := CreateSession(path, testColumns(), SessionOptions{})
	require.NoError(t, err)
	defer s.Close()

	_, err = s.WriteRecord(Record{TimeMS: 1, Values: []obd.Value{obd.NoData}})
	assert.Error(t, err)
	assert.EqualValues(t, 0, s.Rows())
}

func TestSessionDoesNotOverwrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rec.csv")
	require.NoError(t, os.WriteFile(path, []byte("old\n"), 0o644))

	_, err := CreateSession(path, testColumns(), SessionOptions{})
	assert.Error(t, err)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "old\n", string(raw))
}

func TestSessionRequiresTimeFirst(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rec.csv")
	_, err := CreateSession(path, []Column{Builtin(obd.SPEED)}, SessionOptions{})
	assert.Error(t, err)
	assert.NoFileExists(t, path)
}

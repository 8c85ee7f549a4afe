package fat

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestRecordRoundTripRegular and TestRecordRoundTripLFN cover spec.md §8
// invariant 6: encode then decode yields back the original record, for
// regular and LFN records respectively.
func TestRecordRoundTripRegular(t *testing.T) {
	var want RawRecord
	want.Name, _ = BuildShortName("foobar.txt")
	want.Attr = AttrArchive
	want.CreateDate = DateToInt(time.Date(2024, time.March, 3, 0, 0, 0, 0, time.UTC))
	want.SetFirstCluster(0x0A0B0C)
	want.Size = 12345

	buf := EncodeRegular(want)
	require.Len(t, buf, RecordSize)

	got := DecodeRegular(buf)
	assert.Equal(t, want, got)
	assert.EqualValues(t, 0x0A0B0C, got.FirstCluster())
}

func TestRecordRoundTripLFN(t *testing.T) {
	want := LFNRecord{
		Order:     1,
		Attr:      attrLFNMask,
		Checksum:  0x42,
		Name0:     [5]uint16{'f', 'o', 'o', 'b', 'a'},
		Name1:     [6]uint16{'r', '.', 't', 'x', 't', 0x0000},
		Name2:     [2]uint16{0xFFFF, 0xFFFF},
	}

	buf := EncodeLFN(want)
	require.Len(t, buf, RecordSize)

	got := DecodeLFN(buf)
	assert.Equal(t, want, got)
}

func TestIsLFNRecordDetection(t *testing.T) {
	assert.True(t, isLFNRecord(attrLFNMask))
	assert.False(t, isLFNRecord(AttrArchive))
	assert.False(t, isLFNRecord(AttrDirectory))
}

func TestEndAndFreeMarkers(t *testing.T) {
	end := make([]byte, RecordSize)
	assert.True(t, isEndMarker(end))

	free := make([]byte, RecordSize)
	free[0] = 0xE5
	assert.True(t, isFreeMarker(free))
	assert.False(t, isEndMarker(free))
}

func TestDecodeShortNameJoinsBaseAndExtension(t *testing.T) {
	sn, err := BuildShortName("foobar.txt")
	require.NoError(t, err)
	assert.Equal(t, "FOOBAR.TXT", decodeShortName(sn))
}

func TestDecodeShortNameOmitsDotWhenNoExtension(t *testing.T) {
	sn, err := BuildShortName("readme")
	require.NoError(t, err)
	assert.Equal(t, "README", decodeShortName(sn))
}

func TestDateRoundTrip(t *testing.T) {
	when := time.Date(2026, time.August, 1, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, when, DateFromInt(DateToInt(when)))
}

func TestTimeRoundTrip(t *testing.T) {
	date := time.Date(2026, time.August, 1, 0, 0, 0, 0, time.UTC)
	when := time.Date(2026, time.August, 1, 13, 37, 42, 0, time.UTC)
	timePart, tenths := TimeToInt(when)
	assert.Equal(t, when, TimeFromParts(date, timePart, tenths))
}

package codec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/donor-registry/internal/domain"
)

func alice() domain.UserRecord {
	return domain.UserRecord{
		FullName:   "Alice",
		Email:      "a@x.com",
		Phone:      "5551234567",
		BloodGroup: domain.BloodGroupOPos,
		Location:   "NYC",
		Password:   "secret12",
	}
}

func TestLegacy_Encode(t *testing.T) {
	line := Legacy{}.Encode(alice())
	assert.Equal(t, "Alice,a@x.com,5551234567,O+,NYC,secret12\n", line)
}

func TestLegacy_RoundTrip(t *testing.T) {
	rec := alice()
	got, err := Legacy{}.Decode(Legacy{}.Encode(rec))
	require.NoError(t, err)
	assert.Equal(t, rec, got)
}

func TestLegacy_CommaInNameCorruptsSplit(t *testing.T) {
	rec := alice()
	rec.FullName = "Doe, Jr."

	line := Legacy{}.Encode(rec)
	assert.Equal(t, "Doe, Jr.,a@x.com,5551234567,O+,NYC,secret12\n", line)

	got, err := Legacy{}.Decode(line)
	require.NoError(t, err, "legacy decode fails silently")
	assert.NotEqual(t, rec, got)
	assert.Equal(t, "Doe", got.FullName)
	assert.Equal(t, " Jr.", got.Email, "phantom field shifts the email column")
	assert.Equal(t, "a@x.com", got.Phone)
	assert.Equal(t, domain.BloodGroup("5551234567"), got.BloodGroup)
	assert.Equal(t, "O+", got.Location)
	assert.Equal(t, "NYC", got.Password)
}

func TestLegacy_DecodeShortLine(t *testing.T) {
	got, err := Legacy{}.Decode("Bob,b@x.com")
	require.NoError(t, err)
	assert.Equal(t, "Bob", got.FullName)
	assert.Equal(t, "b@x.com", got.Email)
	assert.Empty(t, got.Phone)
	assert.Empty(t, got.Password)
}

func TestLegacy_Split(t *testing.T) {
	blob := Header + "a,b,c,d,e,f\n\ng,h,i,j,k,l\n"
	lines, err := Legacy{}.Split(blob)
	require.NoError(t, err)
	assert.Equal(t, []string{"a,b,c,d,e,f", "g,h,i,j,k,l"}, lines)

	lines, err = Legacy{}.Split(Header)
	require.NoError(t, err)
	assert.Empty(t, lines)
}

func TestCSV_PlainValuesMatchLegacy(t *testing.T) {
	rec := alice()
	assert.Equal(t, Legacy{}.Encode(rec), CSV{}.Encode(rec))
}

func TestCSV_RoundTrip(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*domain.UserRecord)
		// fold adjusts the expected record where the codec is lossy
		fold   func(*domain.UserRecord)
	}{
		{"plain", func(*domain.UserRecord) {}, nil},
		{"comma in name", func(r *domain.UserRecord) { r.FullName = "Doe, Jr." }, nil},
		{"quote in city", func(r *domain.UserRecord) { r.Location = `The "Big" Apple` }, nil},
		{"newline in city", func(r *domain.UserRecord) { r.Location = "Line 1\nLine 2" }, nil},
		{"leading space", func(r *domain.UserRecord) { r.FullName = "  padded" }, nil},
		{"empty fields", func(r *domain.UserRecord) { r.Phone = ""; r.Password = "" }, nil},
		{"crlf in name reads back as lf",
			func(r *domain.UserRecord) { r.FullName = "Ann\r\nLee" },
			func(r *domain.UserRecord) { r.FullName = "Ann\nLee" }},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := alice()
			tc.mutate(&rec)
			got, err := CSV{}.Decode(CSV{}.Encode(rec))
			require.NoError(t, err)

			want := rec
			if tc.fold != nil {
				tc.fold(&want)
				assert.NotEqual(t, rec, got)
			}
			assert.Equal(t, want, got)
		})
	}
}

func TestCSV_DecodeWrongFieldCount(t *testing.T) {
	_, err := CSV{}.Decode("only,three,fields\n")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrFieldCount)
}

func TestCSV_SplitKeepsQuotedNewlines(t *testing.T) {
	first := alice()
	second := alice()
	second.Email = "b@x.com"
	second.Location = "Queens,\nNY"

	blob := Header + CSV{}.Encode(first) + "\n" + CSV{}.Encode(second)
	lines, err := CSV{}.Split(blob)
	require.NoError(t, err)
	require.Len(t, lines, 2)

	got, err := CSV{}.Decode(lines[1])
	require.NoError(t, err)
	assert.Equal(t, second, got)
}

func TestCSV_SplitWithoutHeader(t *testing.T) {
	lines, err := CSV{}.Split(CSV{}.Encode(alice()))
	require.NoError(t, err)
	assert.Len(t, lines, 1)
}

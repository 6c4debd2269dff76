package ledger_test

import (
	"strings"
	"testing"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/piggy-engine/ledger"
)

// =============================================================================
// DECODE TESTS - legacy and malformed payloads
// =============================================================================

func TestDecodeSnapshot_CurrentSchema(t *testing.T) {
	// GIVEN: A full current-schema payload
	// WHEN: Decoding
	// THEN: Every field round-trips

	payload := []byte(`{
		"schemaVersion": 4,
		"cardBalanceChild": 1234,
		"cardBalanceParent": 56789,
		"goals": [{"id": "g1", "name": "Bike", "owner": "child",
			"targetAmount": 2000, "currentAmount": 150,
			"color": "#112233", "background": "stars",
			"createdAt": "2026-01-15T10:00:00Z"}]
	}`)

	s, ok := ledger.DecodeSnapshot(payload)

	require.True(t, ok)
	assert.Equal(t, int64(1234), s.CardBalanceChild.Units())
	assert.Equal(t, int64(56789), s.CardBalanceParent.Units())
	require.Len(t, s.Goals, 1)
	assert.Equal(t, "Bike", s.Goals[0].Name)
	assert.Equal(t, int64(150), s.Goals[0].CurrentAmount.Units())
}

func TestDecodeSnapshot_BareGoalArray(t *testing.T) {
	// GIVEN: The oldest persisted shape: a bare array of goals
	// WHEN: Decoding
	// THEN: Goals load and both card balances take the defaults

	payload := []byte(`[{"id": "g1", "name": "Old goal", "currentAmount": 40}]`)

	s, ok := ledger.DecodeSnapshot(payload)

	require.True(t, ok)
	require.Len(t, s.Goals, 1)
	assert.Equal(t, "Old goal", s.Goals[0].Name)
	assert.Equal(t, int64(ledger.DefaultChildBalance), s.CardBalanceChild.Units())
	assert.Equal(t, int64(ledger.DefaultParentBalance), s.CardBalanceParent.Units())
}

func TestDecodeSnapshot_MissingParentBalanceTakesDefault(t *testing.T) {
	// GIVEN: A wrapper that predates the parent card
	// WHEN: Decoding
	// THEN: The absent balance defaults; the present one is kept

	payload := []byte(`{"schemaVersion": 2, "cardBalanceChild": 777, "goals": []}`)

	s, ok := ledger.DecodeSnapshot(payload)

	require.True(t, ok)
	assert.Equal(t, int64(777), s.CardBalanceChild.Units())
	assert.Equal(t, int64(ledger.DefaultParentBalance), s.CardBalanceParent.Units())
}

func TestDecodeSnapshot_ExplicitZeroBalanceKept(t *testing.T) {
	// An explicit zero is a real balance, not an absence.
	payload := []byte(`{"cardBalanceChild": 0, "cardBalanceParent": 0, "goals": []}`)

	s, ok := ledger.DecodeSnapshot(payload)

	require.True(t, ok)
	assert.True(t, s.CardBalanceChild.IsZero())
	assert.True(t, s.CardBalanceParent.IsZero())
}

func TestDecodeSnapshot_MalformedJSON(t *testing.T) {
	_, ok := ledger.DecodeSnapshot([]byte(`{"goals": [`))
	assert.False(t, ok)
}

func TestDecodeSnapshot_JunkAmountsDegradeToZero(t *testing.T) {
	// GIVEN: Amounts that are negative, fractional or not numbers at all
	// WHEN: Decoding
	// THEN: The payload still loads; bad amounts clamp instead of failing

	payload := []byte(`{
		"cardBalanceChild": -500,
		"cardBalanceParent": "oops",
		"goals": [{"id": "g1", "currentAmount": 12.7, "targetAmount": null}]
	}`)

	s, ok := ledger.DecodeSnapshot(payload)

	require.True(t, ok)
	assert.True(t, s.CardBalanceChild.IsZero(), "negative clamps to zero")
	assert.True(t, s.CardBalanceParent.IsZero(), "non-numeric maps to zero")
	assert.Equal(t, int64(13), s.Goals[0].CurrentAmount.Units(), "fractional rounds")
	assert.True(t, s.Goals[0].TargetAmount.IsZero())
}

// =============================================================================
// NORMALIZATION TESTS
// =============================================================================

func TestNormalizeAt_FillsDefaults(t *testing.T) {
	// GIVEN: A goal with every optional field missing
	// WHEN: Normalizing
	// THEN: Id, name, owner, color, background and timestamp are defaulted

	s := ledger.Snapshot{Goals: []ledger.Goal{{}}}

	out := ledger.NormalizeAt(s, testNow)

	require.Len(t, out.Goals, 1)
	g := out.Goals[0]
	assert.NotEmpty(t, g.ID)
	assert.Equal(t, ledger.DefaultGoalName, g.Name)
	assert.Equal(t, ledger.OwnerChild, g.Owner)
	assert.Equal(t, ledger.DefaultColor, g.Color)
	assert.Equal(t, ledger.DefaultBackground, g.Background)
	assert.Equal(t, "2026-09-01T12:00:00Z", g.CreatedAt)
	assert.Equal(t, ledger.SchemaVersion, out.SchemaVersion)
}

func TestNormalizeAt_Idempotent(t *testing.T) {
	// GIVEN: An arbitrary messy snapshot
	// WHEN: Normalizing twice at the same instant
	// THEN: The second pass changes nothing

	s := ledger.Snapshot{Goals: []ledger.Goal{
		{Name: "  padded  ", Owner: "grandma"},
		{ID: "g2", Name: strings.Repeat("x", 100)},
	}}

	once := ledger.NormalizeAt(s, testNow)
	twice := ledger.NormalizeAt(once, testNow)

	assert.Equal(t, once, twice)
}

func TestNormalizeGoalAt_TruncatesLongNames(t *testing.T) {
	g := ledger.NormalizeGoalAt(ledger.Goal{Name: strings.Repeat("a", 80)}, testNow)
	assert.Len(t, []rune(g.Name), ledger.MaxNameLen)
}

func TestNormalizeGoalAt_TruncatesByRunesNotBytes(t *testing.T) {
	name := strings.Repeat("日", 70)
	g := ledger.NormalizeGoalAt(ledger.Goal{Name: name}, testNow)
	assert.Equal(t, strings.Repeat("日", ledger.MaxNameLen), g.Name)
}

func TestNormalizeGoalAt_UnknownOwnerBecomesChild(t *testing.T) {
	g := ledger.NormalizeGoalAt(ledger.Goal{Name: "g", Owner: "martian"}, testNow)
	assert.Equal(t, ledger.OwnerChild, g.Owner)
}

func TestNormalizeGoalAt_OverFullGoalKeepsMoney(t *testing.T) {
	// Clamping current below target would destroy money; normalization
	// must leave over-full goals alone.
	g := ledger.NormalizeGoalAt(ledger.Goal{
		Name:          "g",
		CurrentAmount: ledger.NewMoney(900),
		TargetAmount:  ledger.NewMoney(500),
	}, testNow)

	assert.Equal(t, int64(900), g.CurrentAmount.Units())
}

func TestNormalizeGoalAt_BadTimestampReplaced(t *testing.T) {
	g := ledger.NormalizeGoalAt(ledger.Goal{Name: "g", CreatedAt: "yesterday-ish"}, testNow)
	assert.Equal(t, "2026-09-01T12:00:00Z", g.CreatedAt)
}

func TestNormalizeAutoTopUp(t *testing.T) {
	// GIVEN: Schedules in various states
	// THEN: Nil and non-positive disappear, day keys canonicalize

	assert.Nil(t, ledger.NormalizeAutoTopUp(nil))
	assert.Nil(t, ledger.NormalizeAutoTopUp(&ledger.AutoTopUp{AmountPerDay: ledger.NewMoney(0)}))

	out := ledger.NormalizeAutoTopUp(&ledger.AutoTopUp{
		AmountPerDay:   ledger.NewMoney(10),
		LastAppliedDay: "2026-08-30T15:04:05Z",
	})
	require.NotNil(t, out)
	assert.Equal(t, ledger.DayKey("2026-08-30"), out.LastAppliedDay, "timestamp truncates to day")

	out = ledger.NormalizeAutoTopUp(&ledger.AutoTopUp{
		AmountPerDay:   ledger.NewMoney(10),
		LastAppliedDay: "not a day",
	})
	require.NotNil(t, out)
	assert.Equal(t, ledger.DayKey(""), out.LastAppliedDay)
}

// =============================================================================
// MONEY TESTS
// =============================================================================

func TestMoney_NeverNegative(t *testing.T) {
	assert.True(t, ledger.NewMoney(-100).IsZero())
	assert.True(t, ledger.NewMoney(100).Sub(ledger.NewMoney(300)).IsZero(),
		"subtraction floors at zero")
}

func TestMoney_MarshalsAsBareInteger(t *testing.T) {
	data, err := json.Marshal(ledger.NewMoney(1234))
	require.NoError(t, err)
	assert.Equal(t, "1234", string(data))
}

func TestMoney_UnmarshalNeverFails(t *testing.T) {
	for raw, want := range map[string]int64{
		`42`:     42,
		`"42"`:   42,
		`-7`:     0,
		`3.6`:    4,
		`true`:   0,
		`"junk"`: 0,
		`null`:   0,
	} {
		var m ledger.Money
		require.NoError(t, json.Unmarshal([]byte(raw), &m), "input %s", raw)
		assert.Equal(t, want, m.Units(), "input %s", raw)
	}
}

// =============================================================================
// DAY KEY TESTS
// =============================================================================

func TestPendingDays(t *testing.T) {
	cases := []struct {
		name  string
		last  ledger.DayKey
		today ledger.DayKey
		want  []ledger.DayKey
	}{
		{"unset baseline means today only", "", "2026-09-01", []ledger.DayKey{"2026-09-01"}},
		{"up to date", "2026-09-01", "2026-09-01", nil},
		{"future baseline", "2026-09-05", "2026-09-01", nil},
		{"one day behind", "2026-08-31", "2026-09-01", []ledger.DayKey{"2026-09-01"}},
		{"three days behind", "2026-08-29", "2026-09-01",
			[]ledger.DayKey{"2026-08-30", "2026-08-31", "2026-09-01"}},
		{"across a month boundary", "2026-08-30", "2026-09-02",
			[]ledger.DayKey{"2026-08-31", "2026-09-01", "2026-09-02"}},
		{"garbage baseline treated as unset", "whenever", "2026-09-01",
			[]ledger.DayKey{"2026-09-01"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ledger.PendingDays(tc.last, tc.today))
		})
	}
}

package spends_test

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/piggy-engine/ledger"
	"github.com/warp/piggy-engine/spends"
	"github.com/warp/piggy-engine/store/memory"
)

var testDate = time.Date(2026, time.September, 1, 12, 0, 0, 0, time.UTC)

func newTestLog() (*spends.Log, *memory.KV) {
	kv := memory.New()
	return spends.NewLog(kv), kv
}

func TestAppend_NewestFirst(t *testing.T) {
	// GIVEN: Two appended entries
	// WHEN: Listing
	// THEN: The most recent append comes first

	log, _ := newTestLog()

	log.Append(spends.Record{Amount: ledger.NewMoney(100), Note: "first", Date: testDate})
	log.Append(spends.Record{Amount: ledger.NewMoney(200), Note: "second", Date: testDate})

	entries := log.List()
	require.Len(t, entries, 2)
	assert.Equal(t, "second", entries[0].Note)
	assert.Equal(t, "first", entries[1].Note)
}

func TestAppend_NormalizesEntry(t *testing.T) {
	// GIVEN: An entry with a messy category, long note and no id
	// WHEN: Appending
	// THEN: Category lowers and validates, note truncates, id and month key
	//       are filled in

	log, _ := newTestLog()

	got := log.Append(spends.Record{
		Amount:   ledger.NewMoney(50),
		Category: "  FUN ",
		Note:     strings.Repeat("n", 200),
		Date:     testDate,
	})

	assert.NotEmpty(t, got.ID)
	assert.Equal(t, "fun", got.Category)
	assert.Len(t, []rune(got.Note), spends.MaxNoteLen)
	assert.Equal(t, "2026-09", got.MonthKey)
}

func TestAppend_UnknownCategoryBecomesOther(t *testing.T) {
	log, _ := newTestLog()

	got := log.Append(spends.Record{Amount: ledger.NewMoney(10), Category: "rockets", Date: testDate})

	assert.Equal(t, spends.DefaultCategory, got.Category)
}

func TestLog_PersistsAcrossInstances(t *testing.T) {
	// GIVEN: A journal with entries
	// WHEN: A fresh Log opens the same KV
	// THEN: The history is still there

	kv := memory.New()
	first := spends.NewLog(kv)
	first.Append(spends.Record{Amount: ledger.NewMoney(100), Note: "kept", Date: testDate})

	second := spends.NewLog(kv)
	entries := second.List()

	require.Len(t, entries, 1)
	assert.Equal(t, "kept", entries[0].Note)
}

func TestLog_CorruptJournalStartsEmpty(t *testing.T) {
	// History is advisory: corruption never blocks new writes.
	kv := memory.New()
	require.NoError(t, kv.Set(spends.StorageKey, []byte(`{{broken`)))

	log := spends.NewLog(kv)
	assert.Empty(t, log.List())

	log.Append(spends.Record{Amount: ledger.NewMoney(5), Date: testDate})
	assert.Len(t, log.List(), 1)
}

func TestListMonth(t *testing.T) {
	log, _ := newTestLog()

	log.Append(spends.Record{Amount: ledger.NewMoney(1), Date: testDate})
	log.Append(spends.Record{Amount: ledger.NewMoney(2), Date: testDate.AddDate(0, -1, 0)})
	log.Append(spends.Record{Amount: ledger.NewMoney(3), Date: testDate})

	september := log.ListMonth("2026-09")
	require.Len(t, september, 2)
	august := log.ListMonth("2026-08")
	require.Len(t, august, 1)
	assert.Equal(t, int64(2), august[0].Amount.Units())
}

func TestRecord_AdaptsLedgerEntries(t *testing.T) {
	// GIVEN: The log wired as the engine's spend recorder
	// WHEN: A ledger deposit fires a spend entry
	// THEN: It lands in the journal with the ledger's category and note

	log, _ := newTestLog()
	engine := ledger.NewEngine(log)

	s := ledger.DefaultSnapshot()
	s.Goals = []ledger.Goal{{ID: "g1", Name: "Bike", Owner: ledger.OwnerChild}}
	_, outcome := engine.Deposit(s, "g1", ledger.NewMoney(250), ledger.RoleChild)
	require.Equal(t, ledger.StatusSuccess, outcome.Status)

	entries := log.List()
	require.Len(t, entries, 1)
	assert.Equal(t, int64(250), entries[0].Amount.Units())
	assert.Equal(t, "other", entries[0].Category)
	assert.Contains(t, entries[0].Note, "Bike")
}

func TestMonthKeyOf(t *testing.T) {
	assert.Equal(t, "2026-09", spends.MonthKeyOf(testDate))
	assert.Equal(t, "2025-12", spends.MonthKeyOf(time.Date(2025, 12, 31, 23, 59, 0, 0, time.UTC)))
}

package service

import (
	"context"
	"strings"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"missionhub_backend/internals/features/missions/dto"
	"missionhub_backend/internals/features/missions/model"
)

func newTestEngine(store *fakeStore, st *fakeStorage) *UpsertEngine {
	return NewUpsertEngine(store, st, "missions-assets", "missions-json")
}

func TestUpsert_EmptyStore(t *testing.T) {
	store := newFakeStore()
	st := newFakeStorage()
	engine := newTestEngine(store, st)

	doc := &dto.MissionDocument{Title: "Keyboard Pilot"}
	result, err := engine.Upsert(context.Background(), UpsertInput{Document: doc})
	require.NoError(t, err)

	assert.Equal(t, 1, result.OrderNo)
	assert.Equal(t, "1.json", result.ObjectPath)
	assert.Equal(t, "M01", result.Folder)
	assert.True(t, strings.HasPrefix(result.MissionUID, "KEYBOARD-PILOT-"),
		"derived UID uses the upper-case sanitizer plus a timestamp suffix, got %q", result.MissionUID)

	// sidecar JSON written under the canonical filename
	assert.True(t, st.has("missions-json", "1.json"))
	assert.Equal(t, "https://cdn.test/missions-json/1.json", result.JSONURL)

	require.Len(t, store.inserts, 1)
	fields := store.inserts[0]
	assert.Equal(t, "Keyboard Pilot", fields["title"])
	assert.Equal(t, "1.json", fields["object_path"])
	assert.Contains(t, fields, "mission_data")
}

func TestUpsert_MissingDocument(t *testing.T) {
	engine := newTestEngine(newFakeStore(), newFakeStorage())
	_, err := engine.Upsert(context.Background(), UpsertInput{})
	assert.ErrorIs(t, err, ErrMissingDocument)
}

func TestUpsert_ExplicitUIDConflict(t *testing.T) {
	store := newFakeStore()
	store.uids["M10"] = true
	engine := newTestEngine(store, newFakeStorage())

	_, err := engine.Upsert(context.Background(), UpsertInput{
		Document:    &dto.MissionDocument{Title: "Dup"},
		ExplicitUID: "M10",
	})

	var conflict *ConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, "M10", conflict.UID)
	assert.Empty(t, store.inserts, "no renamed insert on explicit conflict")
}

func TestUpsert_DerivedCollisionIsSilent(t *testing.T) {
	store := newFakeStore()
	store.uids["M10"] = true
	engine := newTestEngine(store, newFakeStorage())

	result, err := engine.Upsert(context.Background(), UpsertInput{
		Document: &dto.MissionDocument{Title: "T", ReferenceCode: "m10"},
	})

	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(result.MissionUID, "M10-"),
		"derived collision gets a timestamp suffix, got %q", result.MissionUID)
	assert.Empty(t, result.Warnings)
}

func TestUpsert_UniqueViolationAtInsertIsConflict(t *testing.T) {
	store := newFakeStore()
	store.insertErr = &pq.Error{Code: "23505", Message: `duplicate key value violates unique constraint "missions_mission_uid_key"`}
	engine := newTestEngine(store, newFakeStorage())

	_, err := engine.Upsert(context.Background(), UpsertInput{
		Document: &dto.MissionDocument{Title: "Race"},
	})

	var conflict *ConflictError
	assert.ErrorAs(t, err, &conflict)
}

func TestUpsert_TieredDegradation_ReducedSet(t *testing.T) {
	store := newFakeStore()
	store.rejectColumns["mission_data"] = &pq.Error{
		Code:    "42703",
		Message: `column "mission_data" of relation "missions" does not exist`,
	}
	st := newFakeStorage()
	engine := newTestEngine(store, st)

	doc := &dto.MissionDocument{Title: "Degraded", Steps: []dto.Step{{Title: "s", Points: 25}}}
	result, err := engine.Upsert(context.Background(), UpsertInput{Document: doc})
	require.NoError(t, err)

	require.Len(t, store.inserts, 2, "full attempt then reduced attempt")
	assert.Contains(t, store.inserts[0], "mission_data")
	assert.NotContains(t, store.inserts[1], "mission_data")
	assert.Equal(t, 25, store.inserts[1]["xp_reward"])
	assert.Equal(t, result.ObjectPath, store.inserts[1]["object_path"])

	// document survives as sidecar JSON, and its URL is reported
	assert.True(t, st.has("missions-json", result.ObjectPath))
	assert.NotEmpty(t, result.JSONURL)
	assert.NotEmpty(t, result.Warnings)
}

func TestUpsert_TieredDegradation_MinimalSet(t *testing.T) {
	store := newFakeStore()
	schemaErr := &pq.Error{Code: "42703", Message: `column "xp_reward" of relation "missions" does not exist`}
	store.rejectColumns["mission_data"] = schemaErr
	store.rejectColumns["xp_reward"] = schemaErr
	st := newFakeStorage()
	engine := newTestEngine(store, st)

	result, err := engine.Upsert(context.Background(), UpsertInput{
		Document: &dto.MissionDocument{Title: "Ancient Schema"},
	})
	require.NoError(t, err)

	require.Len(t, store.inserts, 3)
	minimal := store.inserts[2]
	assert.Equal(t, "Ancient Schema", minimal["title"])
	assert.Contains(t, minimal, "mission_uid")
	assert.Contains(t, minimal, "order_no")
	assert.Contains(t, minimal, "object_path")
	assert.NotContains(t, minimal, "mission_data")
	assert.NotContains(t, minimal, "xp_reward")

	assert.True(t, st.has("missions-json", result.ObjectPath))
}

func TestUpsert_FatalErrorIsNotDegraded(t *testing.T) {
	store := newFakeStore()
	store.insertErr = &pq.Error{Code: "57014", Message: "canceling statement due to statement timeout"}
	engine := newTestEngine(store, newFakeStorage())

	_, err := engine.Upsert(context.Background(), UpsertInput{
		Document: &dto.MissionDocument{Title: "T"},
	})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "statement timeout")
	assert.Len(t, store.inserts, 1, "no degradation on non-schema errors")
}

func TestUpsert_CustomFolderOverride(t *testing.T) {
	store := newFakeStore()
	st := newFakeStorage()
	engine := newTestEngine(store, st)

	doc := &dto.MissionDocument{Title: "T", PageImage: "pic.png"}
	result, err := engine.Upsert(context.Background(), UpsertInput{
		Document:     doc,
		CustomFolder: "../shared/pool",
		Assets:       []AssetUpload{{Name: "pic.png", Data: []byte("x"), ContentType: "image/png"}},
	})
	require.NoError(t, err)

	assert.Equal(t, "shared/pool", result.Folder, "traversal stripped from the override")
	assert.True(t, st.has("missions-assets", "shared/pool/images/pic.png"))
	assert.Equal(t, "https://cdn.test/missions-assets/shared/pool/images/pic.png", doc.PageImage)
}

func TestUpsert_OrderProbesPastTakenNumbers(t *testing.T) {
	store := newFakeStore()
	store.orders = []int{1, 2, 3}
	engine := newTestEngine(store, newFakeStorage())

	result, err := engine.Upsert(context.Background(), UpsertInput{
		Document:       &dto.MissionDocument{Title: "T"},
		RequestedOrder: intPtr(1),
	})
	require.NoError(t, err)
	assert.Equal(t, 4, result.OrderNo)
	assert.Equal(t, "4.json", result.ObjectPath)
	assert.Equal(t, "M04", result.Folder)
}

func TestUpdate_HoldsIdentifierAndOrderFixed(t *testing.T) {
	store := newFakeStore()
	store.records["M10"] = &model.MissionModel{
		MissionUID: "M10",
		OrderNo:    7,
		Title:      "Old Title",
		ObjectPath: "7.json",
	}
	st := newFakeStorage()
	engine := newTestEngine(store, st)

	requested := 99
	doc := &dto.MissionDocument{Title: "New Title", PageImage: "shot.png"}
	result, err := engine.Update(context.Background(), "m10", UpsertInput{
		Document:       doc,
		RequestedOrder: &requested, // ignored on update
		Assets:         []AssetUpload{{Name: "shot.png", Data: []byte("x")}},
	})
	require.NoError(t, err)

	assert.Equal(t, "M10", result.MissionUID)
	assert.Equal(t, 7, result.OrderNo, "order number held fixed")
	assert.Equal(t, "7.json", result.ObjectPath)
	assert.Equal(t, "M07", result.Folder)

	require.Len(t, store.updates, 1)
	assert.NotContains(t, store.updates[0], "mission_uid", "identity columns never rewritten")
	assert.NotContains(t, store.updates[0], "order_no")
	assert.Empty(t, store.inserts)

	assert.True(t, st.has("missions-assets", "M07/images/shot.png"))
	assert.True(t, st.has("missions-json", "7.json"))
}

func TestUpdate_UnknownMission(t *testing.T) {
	engine := newTestEngine(newFakeStore(), newFakeStorage())
	_, err := engine.Update(context.Background(), "NOPE", UpsertInput{
		Document: &dto.MissionDocument{Title: "T"},
	})
	assert.ErrorIs(t, err, ErrMissionNotFound)
}

func TestIsSchemaMismatch(t *testing.T) {
	assert.True(t, IsSchemaMismatch(&pq.Error{Code: "42703", Message: "x"}))
	assert.True(t, IsSchemaMismatch(assertError(`column "mission_data" does not exist`)))
	assert.True(t, IsSchemaMismatch(assertError("could not find the 'mission_data' column in the schema cache")))
	assert.False(t, IsSchemaMismatch(assertError("connection refused")))
	assert.False(t, IsSchemaMismatch(nil))
}

func TestIsUniqueViolation(t *testing.T) {
	assert.True(t, IsUniqueViolation(&pq.Error{Code: "23505"}))
	assert.True(t, IsUniqueViolation(assertError(`duplicate key value violates unique constraint "missions_order_no_key"`)))
	assert.False(t, IsUniqueViolation(assertError("deadlock detected")))
	assert.False(t, IsUniqueViolation(nil))
}

type assertError string

func (e assertError) Error() string { return string(e) }

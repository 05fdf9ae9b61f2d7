package domain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func obj(t *testing.T, raw string) CanvasObject {
	t.Helper()
	require.True(t, json.Valid([]byte(raw)), "invalid fixture %s", raw)
	return NewCanvasObject(json.RawMessage(raw))
}

func TestNewRoomIsEmpty(t *testing.T) {
	room := NewRoom("R1")

	snap := room.Snapshot()
	assert.Empty(t, snap.Objects)
	assert.NotNil(t, snap.Objects)
	assert.False(t, snap.Locked)
	assert.Nil(t, snap.Background)

	out, err := json.Marshal(snap)
	require.NoError(t, err)
	assert.JSONEq(t, `{"objects":[],"locked":false,"background":null}`, string(out))
}

func TestUpsertIsIdempotentPerID(t *testing.T) {
	room := NewRoom("R1")

	assert.True(t, room.Upsert(obj(t, `{"id":"s1","stroke":"v1"}`)))
	assert.False(t, room.Upsert(obj(t, `{"id":"s1","stroke":"v1"}`)))
	assert.Equal(t, 1, room.ObjectCount())
}

func TestUpsertReplacesInPlace(t *testing.T) {
	room := NewRoom("R1")
	room.Upsert(obj(t, `{"id":"a"}`))
	room.Upsert(obj(t, `{"id":"b"}`))
	room.Upsert(obj(t, `{"id":"c"}`))

	room.Upsert(obj(t, `{"id":"b","color":"red"}`))

	snap := room.Snapshot()
	require.Len(t, snap.Objects, 3)
	assert.Equal(t, []string{`"a"`, `"b"`, `"c"`}, ids(snap.Objects))
	assert.JSONEq(t, `{"id":"b","color":"red"}`, string(snap.Objects[1].Body))
}

func TestRemove(t *testing.T) {
	room := NewRoom("R1")
	room.Upsert(obj(t, `{"id":"a"}`))
	room.Upsert(obj(t, `{"id":"b"}`))
	room.Upsert(obj(t, `{"id":"c"}`))

	assert.True(t, room.Remove(`"a"`))
	assert.Equal(t, []string{`"b"`, `"c"`}, ids(room.Snapshot().Objects))

	// index stays consistent after the shift
	room.Upsert(obj(t, `{"id":"c","v":2}`))
	assert.Equal(t, []string{`"b"`, `"c"`}, ids(room.Snapshot().Objects))
	got, ok := room.Object(`"c"`)
	require.True(t, ok)
	assert.JSONEq(t, `{"id":"c","v":2}`, string(got.Body))
}

func TestRemoveUnknownIsNoop(t *testing.T) {
	room := NewRoom("R1")
	room.Upsert(obj(t, `{"id":"a"}`))

	assert.False(t, room.Remove(`"missing"`))
	assert.Equal(t, []string{`"a"`}, ids(room.Snapshot().Objects))
}

func TestNumberAndStringIDsAreSeparateObjects(t *testing.T) {
	room := NewRoom("R1")

	assert.True(t, room.Upsert(obj(t, `{"id":1}`)))
	assert.True(t, room.Upsert(obj(t, `{"id":"1"}`)))
	assert.Equal(t, 2, room.ObjectCount())

	assert.True(t, room.Remove("1"))
	assert.Equal(t, []string{`"1"`}, ids(room.Snapshot().Objects))
}

func TestClearResetsObjectsAndBackground(t *testing.T) {
	room := NewRoom("R1")
	room.Upsert(obj(t, `{"id":"a"}`))
	room.SetBackground(json.RawMessage(`"#fff"`))
	room.SetLocked(true)

	room.Clear()

	snap := room.Snapshot()
	assert.Empty(t, snap.Objects)
	assert.Nil(t, snap.Background)
	assert.True(t, snap.Locked)
}

func TestSetBackgroundNullClears(t *testing.T) {
	room := NewRoom("R1")
	room.SetBackground(json.RawMessage(`{"image":"grid.png"}`))
	assert.JSONEq(t, `{"image":"grid.png"}`, string(room.Background()))

	room.SetBackground(json.RawMessage(`null`))
	assert.Nil(t, room.Background())
}

func TestSnapshotIsACopy(t *testing.T) {
	room := NewRoom("R1")
	room.Upsert(obj(t, `{"id":"a"}`))

	snap := room.Snapshot()
	room.Upsert(obj(t, `{"id":"b"}`))

	assert.Len(t, snap.Objects, 1)
	assert.Equal(t, 2, room.ObjectCount())
}

func TestIsIdle(t *testing.T) {
	room := NewRoom("R1")
	now := room.LastActive()

	assert.False(t, room.IsIdle(now.Add(time.Hour), 0))
	assert.False(t, room.IsIdle(now.Add(time.Minute), time.Hour))
	assert.True(t, room.IsIdle(now.Add(2*time.Hour), time.Hour))
}

func ids(objects []CanvasObject) []string {
	out := make([]string, 0, len(objects))
	for _, o := range objects {
		out = append(out, o.ID)
	}
	return out
}

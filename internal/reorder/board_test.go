package reorder

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type category struct {
	UID  string
	Name string
}

func key(c category) string { return c.UID }

func board(policy FailurePolicy, ids ...string) *Board[category] {
	items := make([]category, len(ids))
	for i, id := range ids {
		items[i] = category{UID: id, Name: "cat " + id}
	}
	return NewBoard(items, key, policy)
}

func TestPlan(t *testing.T) {
	items := []category{{UID: "A"}, {UID: "B"}, {UID: "C"}}
	tests := []struct {
		name     string
		active   string
		over     string
		wantOK   bool
		wantIDs  []string
		wantMove Move
	}{
		{name: "same position is a no-op", active: "B", over: "B"},
		{name: "unknown over is a no-op", active: "B", over: "Z"},
		{name: "unknown active is a no-op", active: "Z", over: "A"},
		{
			name: "to first position anchors on empty", active: "C", over: "A", wantOK: true,
			wantIDs: []string{"C", "A", "B"}, wantMove: Move{UID: "C", AfterUID: ""},
		},
		{
			name: "down one", active: "A", over: "B", wantOK: true,
			wantIDs: []string{"B", "A", "C"}, wantMove: Move{UID: "A", AfterUID: "B"},
		},
		{
			name: "to last", active: "A", over: "C", wantOK: true,
			wantIDs: []string{"B", "C", "A"}, wantMove: Move{UID: "A", AfterUID: "C"},
		},
		{
			name: "up one", active: "C", over: "B", wantOK: true,
			wantIDs: []string{"A", "C", "B"}, wantMove: Move{UID: "C", AfterUID: "A"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			next, move, ok := Plan(items, key, tt.active, tt.over)
			assert.Equal(t, tt.wantOK, ok)
			if !tt.wantOK {
				return
			}
			ids := make([]string, len(next))
			for i, c := range next {
				ids[i] = c.UID
			}
			assert.Equal(t, tt.wantIDs, ids)
			assert.Equal(t, tt.wantMove, move)
		})
	}
	assert.Equal(t, "A", items[0].UID, "input must not be modified")
	assert.Equal(t, "C", items[2].UID, "input must not be modified")
}

func TestBoard_MoveBAfterA(t *testing.T) {
	b := board(KeepLocal, "B", "A", "C")
	require.NoError(t, b.DragStart("B"))
	assert.Equal(t, Dragging, b.state)

	var sent []Move
	out, err := b.DragEnd(context.Background(), "A", func(_ context.Context, m Move) error {
		sent = append(sent, m)
		return nil
	})
	require.NoError(t, err)
	assert.True(t, out.Changed)
	assert.NoError(t, out.Err)
	assert.Equal(t, []Move{{UID: "B", AfterUID: "A"}}, sent)
	assert.Equal(t, []string{"A", "B", "C"}, b.ids())
	assert.Equal(t, Idle, b.state)
}

func TestBoard_SameDropNeverCommits(t *testing.T) {
	b := board(KeepLocal, "A", "B", "C")
	require.NoError(t, b.DragStart("B"))
	out, err := b.DragEnd(context.Background(), "B", func(context.Context, Move) error {
		t.Fatal("commit must not be called")
		return nil
	})
	require.NoError(t, err)
	assert.False(t, out.Changed)
	assert.Equal(t, []string{"A", "B", "C"}, b.ids())
	assert.Equal(t, Idle, b.state)
}

func TestBoard_DragEndWithoutStart(t *testing.T) {
	b := board(KeepLocal, "A", "B")
	_, err := b.DragEnd(context.Background(), "A", func(context.Context, Move) error { return nil })
	assert.ErrorIs(t, err, ErrNotDragging)

	require.NoError(t, b.DragStart("A"))
	_, err = b.DragEnd(context.Background(), "B", func(context.Context, Move) error { return nil })
	require.NoError(t, err)
	_, err = b.DragEnd(context.Background(), "A", func(context.Context, Move) error { return nil })
	assert.ErrorIs(t, err, ErrNotDragging, "a drop ends the drag")
}

func TestBoard_DragStartUnknown(t *testing.T) {
	b := board(KeepLocal, "A")
	assert.ErrorIs(t, b.DragStart("Z"), ErrUnknownItem)
	assert.Equal(t, Idle, b.state)
}

func TestBoard_FailedMovePolicies(t *testing.T) {
	rejected := errors.New("rejected")
	fail := func(context.Context, Move) error { return rejected }

	keep := board(KeepLocal, "A", "B", "C")
	require.NoError(t, keep.DragStart("C"))
	out, err := keep.DragEnd(context.Background(), "A", fail)
	require.NoError(t, err)
	assert.ErrorIs(t, out.Err, rejected)
	assert.False(t, out.RolledBack)
	assert.Equal(t, []string{"C", "A", "B"}, keep.ids())

	roll := board(Rollback, "A", "B", "C")
	require.NoError(t, roll.DragStart("C"))
	out, err = roll.DragEnd(context.Background(), "A", fail)
	require.NoError(t, err)
	assert.ErrorIs(t, out.Err, rejected)
	assert.True(t, out.RolledBack)
	assert.Equal(t, []string{"A", "B", "C"}, roll.ids())
}

func TestBoard_RemoveRejectedKeepsLocalRemoval(t *testing.T) {
	b := board(KeepLocal, "cat-1", "cat-2", "cat-3")
	var deleted string
	out, err := b.Remove(context.Background(), "cat-2", func(_ context.Context, id string) error {
		deleted = id
		return errors.New("category has tests")
	})
	require.NoError(t, err)
	assert.Equal(t, "cat-2", deleted)
	assert.Error(t, out.Err)
	assert.False(t, out.RolledBack)
	assert.Equal(t, []string{"cat-1", "cat-3"}, b.ids())
}

func TestBoard_RemoveRollbackRestoresPosition(t *testing.T) {
	b := board(Rollback, "cat-1", "cat-2", "cat-3")
	out, err := b.Remove(context.Background(), "cat-2", func(context.Context, string) error {
		return errors.New("nope")
	})
	require.NoError(t, err)
	assert.True(t, out.RolledBack)
	assert.Equal(t, []string{"cat-1", "cat-2", "cat-3"}, b.ids())
}

func TestBoard_RemoveUnknown(t *testing.T) {
	b := board(KeepLocal, "A")
	_, err := b.Remove(context.Background(), "Z", func(context.Context, string) error { return nil })
	assert.ErrorIs(t, err, ErrUnknownItem)
}

func TestBoard_ItemsIsACopy(t *testing.T) {
	b := board(KeepLocal, "A", "B")
	items := b.Items()
	items[0].UID = "mutated"
	assert.Equal(t, []string{"A", "B"}, b.ids())
}

func TestFailurePolicy_String(t *testing.T) {
	assert.Equal(t, "keep_local", KeepLocal.String())
	assert.Equal(t, "rollback", Rollback.String())
	assert.Equal(t, "FailurePolicy(9)", FailurePolicy(9).String())
}

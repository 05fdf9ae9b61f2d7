package service

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/immxrtalbeast/classboard/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVideoJoinIsAsymmetric(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	a, b := h.connect(t), h.connect(t)

	require.NoError(t, h.signals.JoinVideoRoom(ctx, a, "R7", a.ID, "tutor"))
	assert.Empty(t, drain(a))

	require.NoError(t, h.signals.JoinVideoRoom(ctx, b, "R7", b.ID, "student"))

	events := drain(a)
	require.Len(t, events, 1)
	assert.Equal(t, domain.EventUserJoined, events[0].Name)
	assert.JSONEq(t, `{"peerId":"`+b.ID+`","role":"student"}`, string(events[0].Data))
	assert.Empty(t, drain(b))

	require.NoError(t, h.signals.SendOffer(ctx, a, b.ID, raw(`{"type":"offer","sdp":"v=0"}`)))

	events = drain(b)
	require.Len(t, events, 1)
	assert.Equal(t, domain.EventReceiveOffer, events[0].Name)
	assert.JSONEq(t, `{"from":"`+a.ID+`","offer":{"type":"offer","sdp":"v=0"}}`, string(events[0].Data))
	assert.Empty(t, drain(a))
}

func TestAnswerAndCandidateRelay(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	a, b := h.connect(t), h.connect(t)

	require.NoError(t, h.signals.SendAnswer(ctx, b, a.ID, raw(`{"type":"answer"}`)))
	require.NoError(t, h.signals.SendICECandidate(ctx, b, a.ID, raw(`{"candidate":"candidate:1 1 udp"}`)))

	events := drain(a)
	require.Len(t, events, 2)
	assert.Equal(t, domain.EventReceiveAnswer, events[0].Name)
	assert.Equal(t, domain.EventReceiveICECandidate, events[1].Name)

	var candidate struct {
		From      string          `json:"from"`
		Candidate json.RawMessage `json:"candidate"`
	}
	require.NoError(t, json.Unmarshal(events[1].Data, &candidate))
	assert.Equal(t, b.ID, candidate.From)
	assert.JSONEq(t, `{"candidate":"candidate:1 1 udp"}`, string(candidate.Candidate))
}

func TestSignalToUnknownPeerIsNoop(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	a := h.connect(t)

	assert.NoError(t, h.signals.SendOffer(ctx, a, "ghost", raw(`{}`)))
	assert.Empty(t, drain(a))
}

func TestSignalToDisconnectedPeerIsNoop(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	a, b := h.connect(t), h.connect(t)
	require.NoError(t, h.lifecycle.Disconnect(ctx, b))

	assert.NoError(t, h.signals.SendOffer(ctx, a, b.ID, raw(`{}`)))
}

func TestSignalByRegisteredPeerID(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	a, b := h.connect(t), h.connect(t)
	require.NoError(t, h.signals.JoinVideoRoom(ctx, b, "R7", "student-cam", "student"))

	require.NoError(t, h.signals.SendOffer(ctx, a, "student-cam", raw(`{"sdp":"x"}`)))

	events := drain(b)
	require.Len(t, events, 1)
	assert.Equal(t, domain.EventReceiveOffer, events[0].Name)
}

func TestLeaveVideoRoomNotifiesRemaining(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	a, b := h.connect(t), h.connect(t)
	require.NoError(t, h.signals.JoinVideoRoom(ctx, a, "R7", a.ID, "tutor"))
	require.NoError(t, h.signals.JoinVideoRoom(ctx, b, "R7", b.ID, "student"))
	drain(a)

	require.NoError(t, h.signals.LeaveVideoRoom(ctx, b, "R7", b.ID))

	events := drain(a)
	require.Len(t, events, 1)
	assert.Equal(t, domain.EventUserLeft, events[0].Name)
	assert.JSONEq(t, `{"peerId":"`+b.ID+`"}`, string(events[0].Data))
	assert.Empty(t, drain(b))

	_, ok := b.Video()
	assert.False(t, ok)

	// a second leave is a no-op
	require.NoError(t, h.signals.LeaveVideoRoom(ctx, b, "R7", b.ID))
	assert.Empty(t, drain(a))
}

func TestSharedPeerIDStaysReachableAfterOneHolderLeaves(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	a, b, c := h.connect(t), h.connect(t), h.connect(t)
	require.NoError(t, h.signals.JoinVideoRoom(ctx, a, "R", "p1", "student"))
	require.NoError(t, h.signals.JoinVideoRoom(ctx, b, "R", "p1", "student"))
	require.NoError(t, h.signals.LeaveVideoRoom(ctx, b, "R", "p1"))
	drain(a)
	drain(b)

	require.NoError(t, h.signals.SendOffer(ctx, c, "p1", raw(`{"sdp":"v=0"}`)))

	events := drain(a)
	require.Len(t, events, 1)
	assert.Equal(t, domain.EventReceiveOffer, events[0].Name)
	assert.JSONEq(t, `{"from":"`+c.ID+`","offer":{"sdp":"v=0"}}`, string(events[0].Data))
	assert.Empty(t, drain(b))
}

func TestJoiningAnotherVideoRoomLeavesThePrevious(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	a, b := h.connect(t), h.connect(t)
	require.NoError(t, h.signals.JoinVideoRoom(ctx, a, "R1", a.ID, "tutor"))
	require.NoError(t, h.signals.JoinVideoRoom(ctx, b, "R1", b.ID, "student"))
	drain(a)

	require.NoError(t, h.signals.JoinVideoRoom(ctx, b, "R2", b.ID, "student"))

	assert.Equal(t, []string{domain.EventUserLeft}, names(drain(a)))
	m, ok := b.Video()
	require.True(t, ok)
	assert.Equal(t, "R2", m.RoomID)
}

func TestVideoToggleGoesToOtherVideoMembersOnly(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	a, b, c := h.connect(t), h.connect(t), h.connect(t)
	require.NoError(t, h.signals.JoinVideoRoom(ctx, a, "R7", a.ID, "tutor"))
	require.NoError(t, h.signals.JoinVideoRoom(ctx, b, "R7", b.ID, "student"))
	_, err := h.canvas.Join(ctx, c, "R7")
	require.NoError(t, err)
	drain(a)
	drain(c)

	require.NoError(t, h.signals.VideoToggle(ctx, a, "R7", a.ID, "audio", raw(`false`)))

	events := drain(b)
	require.Len(t, events, 1)
	assert.Equal(t, domain.EventPeerVideoToggle, events[0].Name)
	assert.JSONEq(t, `{"userId":"`+a.ID+`","kind":"audio","enabled":false}`, string(events[0].Data))
	assert.Empty(t, drain(a))
	assert.Empty(t, drain(c))
}

func TestJoinVideoRoomDefaultsPeerID(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	a := h.connect(t)

	require.NoError(t, h.signals.JoinVideoRoom(ctx, a, "R7", "", "tutor"))

	m, ok := a.Video()
	require.True(t, ok)
	assert.Equal(t, a.ID, m.PeerID)
	assert.ErrorIs(t, h.signals.JoinVideoRoom(ctx, a, "", "", ""), ErrEmptyRoomID)
}

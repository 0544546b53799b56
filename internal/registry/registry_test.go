package registry

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/xenolt/chatrelay/internal/adapter/chat"
	"github.com/xenolt/chatrelay/internal/domain"
	"github.com/xenolt/chatrelay/internal/pairing"
)

func newTestRegistry(t *testing.T) (*Registry, *chat.MockFactory) {
	t.Helper()

	artifacts, err := pairing.NewStore(t.TempDir(), zap.NewNop())
	if err != nil {
		t.Fatalf("failed to create pairing store: %v", err)
	}

	factory := chat.NewMockFactory()
	reg := New(factory.New, artifacts, zap.NewNop())
	t.Cleanup(reg.Close)
	return reg, factory
}

func TestCreateStartsPendingWithDefaultPrompt(t *testing.T) {
	reg, _ := newTestRegistry(t)

	id := reg.Create()
	s, ok := reg.Get(id)
	require.True(t, ok)
	require.Equal(t, domain.StatusPending, s.Status())
	require.Equal(t, DefaultPrompt, s.Prompt())
	require.Equal(t, 0, s.Info().UserCount)
}

func TestPairingLifecycle(t *testing.T) {
	reg, factory := newTestRegistry(t)

	id := reg.Create()
	tr, ok := factory.Get(id)
	require.True(t, ok)

	_, err := reg.PairingArtifact(id)
	require.ErrorIs(t, err, domain.ErrArtifactNotFound)

	tr.EmitPairing("pairing-payload")
	path, err := reg.PairingArtifact(id)
	require.NoError(t, err)
	require.NotEmpty(t, path)

	// Ready consumes the artifact.
	tr.EmitReady()
	s, _ := reg.Get(id)
	require.Equal(t, domain.StatusReady, s.Status())
	_, err = reg.PairingArtifact(id)
	require.ErrorIs(t, err, domain.ErrArtifactNotFound)
}

func TestDisconnectEvictsAndReleasesTransport(t *testing.T) {
	reg, factory := newTestRegistry(t)

	id := reg.Create()
	tr, _ := factory.Get(id)
	tr.EmitPairing("payload")
	tr.EmitDisconnected()

	_, ok := reg.Get(id)
	require.False(t, ok)
	require.True(t, tr.Closed())
	_, err := reg.PairingArtifact(id)
	require.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestSetPromptNotFound(t *testing.T) {
	reg, _ := newTestRegistry(t)

	err := reg.SetPrompt("nope", "Reply in French.")
	require.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestSetPromptReplacesValue(t *testing.T) {
	reg, _ := newTestRegistry(t)

	id := reg.Create()
	require.NoError(t, reg.SetPrompt(id, "Reply in French."))

	s, _ := reg.Get(id)
	require.Equal(t, "Reply in French.", s.Prompt())
}

func TestClearUserHistoryDistinguishesErrors(t *testing.T) {
	reg, _ := newTestRegistry(t)

	err := reg.ClearUserHistory("nope", "u1")
	require.ErrorIs(t, err, domain.ErrSessionNotFound)
	require.False(t, errors.Is(err, domain.ErrUserNotFound))

	id := reg.Create()
	err = reg.ClearUserHistory(id, "unknownUser")
	require.ErrorIs(t, err, domain.ErrUserNotFound)
}

func TestClearUserHistoryLeavesOtherUsersAlone(t *testing.T) {
	reg, _ := newTestRegistry(t)

	id := reg.Create()
	s, _ := reg.Get(id)
	s.Window("u1").Append(domain.Turn{Role: domain.RoleUser, Content: "hi"})
	s.Window("u2").Append(domain.Turn{Role: domain.RoleUser, Content: "hey"})

	require.NoError(t, reg.ClearUserHistory(id, "u1"))
	require.Equal(t, 0, s.Window("u1").Len())
	require.Equal(t, 1, s.Window("u2").Len())
}

func TestListReportsSessions(t *testing.T) {
	reg, _ := newTestRegistry(t)

	a := reg.Create()
	b := reg.Create()

	infos := reg.List()
	require.Len(t, infos, 2)
	ids := map[string]bool{infos[0].SessionID: true, infos[1].SessionID: true}
	require.True(t, ids[a] && ids[b])
}

package dialogue

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smartsalon/salon-booking-bot/internal/session"
	"github.com/smartsalon/salon-booking-bot/internal/whatsapp"
	"github.com/smartsalon/salon-booking-bot/pkg/logging"
)

type memorySessions struct {
	sessions map[string]session.Session
	getErr   error
	putErr   error
}

func (m *memorySessions) Get(ctx context.Context, identity string) (session.Session, error) {
	if m.getErr != nil {
		return session.Session{}, m.getErr
	}
	if sess, ok := m.sessions[identity]; ok {
		return sess, nil
	}
	return session.New(identity), nil
}

func (m *memorySessions) Put(ctx context.Context, sess session.Session) error {
	if m.putErr != nil {
		return m.putErr
	}
	if m.sessions == nil {
		m.sessions = map[string]session.Session{}
	}
	m.sessions[sess.Identity] = sess
	return nil
}

type recordingRenderer struct {
	replies []Reply
	err     error
}

func (r *recordingRenderer) Render(ctx context.Context, to string, reply Reply) error {
	if r.err != nil {
		return r.err
	}
	r.replies = append(r.replies, reply)
	return nil
}

func newService(t *testing.T) (*Service, *memorySessions, *recordingRenderer) {
	t.Helper()
	f := newFixture(t)
	sessions := &memorySessions{}
	renderer := &recordingRenderer{}
	svc := NewService(f.engine, sessions, renderer, nil, logging.Default())
	return svc, sessions, renderer
}

func textMsg(text string) whatsapp.Message {
	return whatsapp.Message{From: caller, Kind: whatsapp.KindText, Text: text}
}

func TestHandleMessagePersistsThenRenders(t *testing.T) {
	svc, sessions, renderer := newService(t)

	err := svc.HandleMessage(context.Background(), textMsg("New Booking"))
	require.NoError(t, err)

	saved := sessions.sessions[caller]
	assert.Equal(t, session.StateGetName, saved.State)
	require.Len(t, renderer.replies, 1)
	assert.Equal(t, askNameText, renderer.replies[0].Text)
}

func TestHandleMessageCarriesSessionAcrossTurns(t *testing.T) {
	svc, sessions, _ := newService(t)
	ctx := context.Background()

	require.NoError(t, svc.HandleMessage(ctx, textMsg("New Booking")))
	require.NoError(t, svc.HandleMessage(ctx, textMsg("Asha")))
	require.NoError(t, svc.HandleMessage(ctx, textMsg("1,3")))

	saved := sessions.sessions[caller]
	assert.Equal(t, session.StateSelectDate, saved.State)
	assert.Equal(t, 230, saved.Draft.Total)
}

func TestHandleMessageImageRoutesToAttachmentFlow(t *testing.T) {
	svc, sessions, renderer := newService(t)

	sessions.sessions = map[string]session.Session{caller: {
		Identity: caller,
		State:    session.StateWaitingScreenshot,
		Draft: session.Draft{
			Name: "Asha", Services: []string{"7"}, Total: 1500,
			AdvanceRequired: 750, Date: "2026-08-31", Time: "10:00 AM",
		},
	}}

	msg := whatsapp.Message{From: caller, Kind: whatsapp.KindImage, MediaID: "media-1"}
	require.NoError(t, svc.HandleMessage(context.Background(), msg))

	assert.Equal(t, session.StateMenu, sessions.sessions[caller].State)
	require.Len(t, renderer.replies, 1)
	assert.Contains(t, renderer.replies[0].Text, "Screenshot Received")
}

func TestHandleMessageSessionLoadFailure(t *testing.T) {
	svc, sessions, renderer := newService(t)
	sessions.getErr = errors.New("redis down")

	err := svc.HandleMessage(context.Background(), textMsg("hi"))
	assert.Error(t, err)
	assert.Empty(t, renderer.replies)
}

func TestHandleMessageSaveFailureSkipsRender(t *testing.T) {
	svc, sessions, renderer := newService(t)
	sessions.putErr = errors.New("redis down")

	err := svc.HandleMessage(context.Background(), textMsg("hi"))
	assert.Error(t, err)
	assert.Empty(t, renderer.replies, "reply must not go out when state was not saved")
}

func TestHandleMessageRenderFailureAfterSave(t *testing.T) {
	svc, sessions, renderer := newService(t)
	renderer.err = errors.New("rate limited")

	err := svc.HandleMessage(context.Background(), textMsg("New Booking"))
	assert.Error(t, err)
	// The state change survives the lost reply.
	assert.Equal(t, session.StateGetName, sessions.sessions[caller].State)
}

package service_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/gnu3ra/bobot/pkg/service"
	"github.com/gnu3ra/bobot/pkg/storage"
)

type logger struct{}

func (l logger) Infof(format string, args ...interface{})  {}
func (l logger) Errorf(format string, args ...interface{}) {}

func newService() *service.ConversationService {
	return service.NewConversationService(storage.NewMockStore(), logger{})
}

func TestCreateConversation(t *testing.T) {
	t.Run("CreatesUniqueStartState", func(t *testing.T) {
		svc := newService()
		conv, start, err := svc.CreateConversation(uuid.New(), "/upload", "Send a sticker", nil)
		assert.NoError(t, err)
		assert.Equal(t, conv.ConversationID, start.Parent)
		assert.NotNil(t, start.StartFor)
		assert.Equal(t, conv.ConversationID, *start.StartFor)

		found, err := svc.GetStartState(conv.ConversationID)
		assert.NoError(t, err)
		assert.Equal(t, start.StateID, found.StateID)
	})

	t.Run("DuplicateIDFails", func(t *testing.T) {
		svc := newService()
		id := uuid.New()
		_, _, err := svc.CreateConversation(id, "/a", "a", nil)
		assert.NoError(t, err)
		_, _, err = svc.CreateConversation(id, "/b", "b", nil)
		assert.Error(t, err)
	})

	t.Run("EmptyTriggerFails", func(t *testing.T) {
		svc := newService()
		_, _, err := svc.CreateConversation(uuid.New(), "", "content", nil)
		assert.Error(t, err)
	})
}

func TestTransition(t *testing.T) {
	svc := newService()
	conv, start, err := svc.CreateConversation(uuid.New(), "/wizard", "state A", nil)
	assert.NoError(t, err)
	stateB, err := svc.AddState(conv.ConversationID, "state B")
	assert.NoError(t, err)
	assert.NoError(t, svc.AddTransition(start.StateID, stateB, "x"))

	t.Run("KnownLabelMovesPointer", func(t *testing.T) {
		d, err := svc.StartDialog(1, 10, conv.ConversationID)
		assert.NoError(t, err)

		text, err := svc.Transition(d, "x")
		assert.NoError(t, err)
		assert.Equal(t, "state B", text)

		moved, err := svc.GetDialog(1, 10)
		assert.NoError(t, err)
		assert.Equal(t, stateB, moved.CurrentStateID)
	})

	t.Run("UnknownLabelLeavesPointer", func(t *testing.T) {
		d, err := svc.StartDialog(2, 20, conv.ConversationID)
		assert.NoError(t, err)

		_, err = svc.Transition(d, "y")
		assert.ErrorIs(t, err, service.ErrNoTransition)

		unmoved, err := svc.GetDialog(2, 20)
		assert.NoError(t, err)
		assert.Equal(t, start.StateID, unmoved.CurrentStateID)
	})

	t.Run("TerminalStateRejectsEverything", func(t *testing.T) {
		d, err := svc.StartDialog(3, 30, conv.ConversationID)
		assert.NoError(t, err)
		_, err = svc.Transition(d, "x")
		assert.NoError(t, err)

		d, err = svc.GetDialog(3, 30)
		assert.NoError(t, err)
		_, err = svc.Transition(d, "x")
		assert.ErrorIs(t, err, service.ErrNoTransition)
	})
}

func TestSelfLoop(t *testing.T) {
	svc := newService()
	conv, start, err := svc.CreateConversation(uuid.New(), "/loop", "keep going", nil)
	assert.NoError(t, err)
	assert.NoError(t, svc.AddTransition(start.StateID, start.StateID, "more"))

	d, err := svc.StartDialog(4, 40, conv.ConversationID)
	assert.NoError(t, err)

	for i := 0; i < 5; i++ {
		text, err := svc.Transition(d, "more")
		assert.NoError(t, err)
		assert.Equal(t, "keep going", text)

		d, err = svc.GetDialog(4, 40)
		assert.NoError(t, err)
		assert.Equal(t, start.StateID, d.CurrentStateID)

		current, err := svc.GetCurrentText(d)
		assert.NoError(t, err)
		assert.Equal(t, "keep going", current)
	}
}

func TestDialogIndependence(t *testing.T) {
	svc := newService()
	conv, start, err := svc.CreateConversation(uuid.New(), "/shared", "A", nil)
	assert.NoError(t, err)
	stateB, err := svc.AddState(conv.ConversationID, "B")
	assert.NoError(t, err)
	assert.NoError(t, svc.AddTransition(start.StateID, stateB, "go"))

	a, err := svc.StartDialog(1, 100, conv.ConversationID)
	assert.NoError(t, err)
	_, err = svc.StartDialog(2, 200, conv.ConversationID)
	assert.NoError(t, err)

	_, err = svc.Transition(a, "go")
	assert.NoError(t, err)

	other, err := svc.GetDialog(2, 200)
	assert.NoError(t, err)
	assert.Equal(t, start.StateID, other.CurrentStateID)
}

func TestGetCurrentText(t *testing.T) {
	svc := newService()
	conv, _, err := svc.CreateConversation(uuid.New(), "/text", "the prompt", nil)
	assert.NoError(t, err)

	d, err := svc.StartDialog(5, 50, conv.ConversationID)
	assert.NoError(t, err)

	text, err := svc.GetCurrentText(d)
	assert.NoError(t, err)
	assert.Equal(t, "the prompt", text)

	t.Run("DanglingPointer", func(t *testing.T) {
		d.CurrentStateID = uuid.New() // points nowhere
		_, err := svc.GetCurrentText(d)
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})
}

func TestStartDialogReplacesExisting(t *testing.T) {
	svc := newService()
	first, startA, err := svc.CreateConversation(uuid.New(), "/one", "A", nil)
	assert.NoError(t, err)
	second, startB, err := svc.CreateConversation(uuid.New(), "/two", "B", nil)
	assert.NoError(t, err)

	_, err = svc.StartDialog(6, 60, first.ConversationID)
	assert.NoError(t, err)
	_, err = svc.StartDialog(6, 60, second.ConversationID)
	assert.NoError(t, err)

	d, err := svc.GetDialog(6, 60)
	assert.NoError(t, err)
	assert.Equal(t, second.ConversationID, d.ConversationID)
	assert.Equal(t, startB.StateID, d.CurrentStateID)
	assert.NotEqual(t, startA.StateID, d.CurrentStateID)
}

func TestDropDialog(t *testing.T) {
	svc := newService()
	conv, _, err := svc.CreateConversation(uuid.New(), "/drop", "A", nil)
	assert.NoError(t, err)

	_, err = svc.StartDialog(7, 70, conv.ConversationID)
	assert.NoError(t, err)
	assert.NoError(t, svc.DropDialog(7, 70))

	_, err = svc.GetDialog(7, 70)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

package service_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strconv"
	"sync"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/BrandonDHaskell/rollcall/internal/rollcall/service"
	"github.com/BrandonDHaskell/rollcall/internal/rollcall/store/memory"
	"github.com/BrandonDHaskell/rollcall/internal/rollcall/types"
)

const (
	alice = "111111111111111111"
	bob   = "222222222222222222"
	carol = "333333333333333333"
)

func silentLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}

// fakeTransport keeps posted messages in memory. Channels or messages can be
// marked gone or forbidden to drive the failure paths.
type fakeTransport struct {
	mu        sync.Mutex
	nextID    int64
	messages  map[string]types.Summary // "channel/message" -> content
	forbidden map[string]bool          // channel -> forbidden
	failPost  error
	failEdit  error
	postDelay time.Duration

	posts   int
	edits   int
	deletes int
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{
		nextID:    500000000000000000,
		messages:  make(map[string]types.Summary),
		forbidden: make(map[string]bool),
	}
}

func key(channelID, messageID string) string { return channelID + "/" + messageID }

func (f *fakeTransport) FetchMessage(_ context.Context, channelID, messageID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.forbidden[channelID] {
		return fmt.Errorf("%w: fetch %s", service.ErrForbidden, channelID)
	}
	if _, ok := f.messages[key(channelID, messageID)]; !ok {
		return fmt.Errorf("%w: unknown message %s", service.ErrGone, messageID)
	}
	return nil
}

func (f *fakeTransport) EditSummary(_ context.Context, channelID, messageID string, s types.Summary) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failEdit != nil {
		return f.failEdit
	}
	k := key(channelID, messageID)
	if _, ok := f.messages[k]; !ok {
		return fmt.Errorf("%w: unknown message %s", service.ErrGone, messageID)
	}
	f.messages[k] = s
	f.edits++
	return nil
}

func (f *fakeTransport) PostSummary(ctx context.Context, channelID string, s types.Summary) (string, error) {
	if f.postDelay > 0 {
		time.Sleep(f.postDelay)
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failPost != nil {
		return "", f.failPost
	}
	if f.forbidden[channelID] {
		return "", fmt.Errorf("%w: post %s", service.ErrForbidden, channelID)
	}
	f.nextID++
	id := strconv.FormatInt(f.nextID, 10)
	f.messages[key(channelID, id)] = s
	f.posts++
	return id, nil
}

func (f *fakeTransport) DeleteMessage(_ context.Context, channelID, messageID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.forbidden[channelID] {
		return fmt.Errorf("%w: delete %s", service.ErrForbidden, channelID)
	}
	k := key(channelID, messageID)
	if _, ok := f.messages[k]; !ok {
		return fmt.Errorf("%w: unknown message %s", service.ErrGone, messageID)
	}
	delete(f.messages, k)
	f.deletes++
	return nil
}

// vanish deletes a message behind the bot's back.
func (f *fakeTransport) vanish(channelID, messageID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.messages, key(channelID, messageID))
}

func (f *fakeTransport) setForbidden(channelID string, v bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.forbidden[channelID] = v
}

func (f *fakeTransport) content(channelID, messageID string) (types.Summary, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.messages[key(channelID, messageID)]
	return s, ok
}

func (f *fakeTransport) postCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.posts
}

// recordingAck captures acknowledgments.
type recordingAck struct {
	mu    sync.Mutex
	texts []string
}

func (a *recordingAck) Acknowledge(_ context.Context, text string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.texts = append(a.texts, text)
	return nil
}

func (a *recordingAck) count() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.texts)
}

// failingAttendanceStore reports the medium as unavailable.
type failingAttendanceStore struct{}

var errDiskGone = errors.New("disk I/O error")

func (failingAttendanceStore) Append(context.Context, string, string, types.Action) (types.AttendanceEvent, error) {
	return types.AttendanceEvent{}, errDiskGone
}

func (failingAttendanceStore) LatestPerUser(context.Context) (map[string]types.UserState, error) {
	return nil, errDiskGone
}

func (failingAttendanceStore) Recent(context.Context, int) ([]types.AttendanceEvent, error) {
	return nil, errDiskGone
}

// steppingClock advances one second per call.
func steppingClock() func() time.Time {
	var mu sync.Mutex
	next := time.Date(2026, 2, 15, 9, 0, 0, 0, time.UTC)
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		t := next
		next = next.Add(time.Second)
		return t
	}
}

type fixture struct {
	svc       *service.AttendanceService
	events    *memory.AttendanceStore
	mirrors   *memory.MirrorStore
	registry  *service.MirrorRegistry
	transport *fakeTransport
}

func newFixture() *fixture {
	events := memory.NewAttendanceStoreWithClock(steppingClock())
	mirrors := memory.NewMirrorStore()
	registry := service.NewMirrorRegistry(mirrors)
	transport := newFakeTransport()
	renderer := service.NewRenderer(message.NewPrinter(language.English), time.UTC)
	svc := service.NewAttendanceService(events, registry, transport, renderer, silentLogger(), service.Options{})
	return &fixture{
		svc:       svc,
		events:    events,
		mirrors:   mirrors,
		registry:  registry,
		transport: transport,
	}
}

func click(a types.Action, userID, name, channelID, messageID string) types.Click {
	return types.Click{Action: a, UserID: userID, UserName: name, ChannelID: channelID, MessageID: messageID}
}

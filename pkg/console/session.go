package console

import (
	"sync"

	"github.com/invigilo/proctord/pkg/com"
	"github.com/invigilo/proctord/pkg/media"
)

// Session is one supervised test-taker: a peer connection plus the cache
// of the frames it streamed last.
type Session struct {
	peerId string
	peer   Peer
	frames *media.FrameCache

	done sync.Once
}

func (s *Session) Frames() *media.FrameCache { return s.frames }

// Close tears the session down. Idempotent: window churn and peer
// departure can both try to close the same session.
func (s *Session) Close() {
	s.done.Do(func() {
		if s.peer != nil {
			_ = s.peer.Close()
		}
		s.frames.Clear()
	})
}

// SessionStore keeps the live sessions keyed by peer id. The manager
// never lets it grow past the window size.
type SessionStore struct {
	com.Map[string, *Session]
}

func NewSessionStore() *SessionStore {
	return &SessionStore{Map: com.NewMap[string, *Session]()}
}

func (s *SessionStore) CloseAll() {
	for _, id := range s.Keys() {
		if sess, ok := s.Pop(id); ok {
			sess.Close()
		}
	}
}

package xcoord

import (
	"sync"

	"github.com/redis/go-redis/v9"
)

// messageBuffer 是订阅消息通道的缓冲大小。
const messageBuffer = 64

type redisSubscription struct {
	ps       *redis.PubSub
	messages chan string
	done     chan struct{}
	onClose  func(*redisSubscription)

	once sync.Once
	err  error
	wg   sync.WaitGroup
}

func newRedisSubscription(ps *redis.PubSub, onClose func(*redisSubscription)) *redisSubscription {
	s := &redisSubscription{
		ps:       ps,
		messages: make(chan string, messageBuffer),
		done:     make(chan struct{}),
		onClose:  onClose,
	}
	s.wg.Add(1)
	go s.pump(ps.Channel())
	return s
}

// pump 把 go-redis 的消息转换为 key 字符串。
func (s *redisSubscription) pump(in <-chan *redis.Message) {
	defer s.wg.Done()
	defer close(s.messages)
	for {
		select {
		case <-s.done:
			return
		case msg, ok := <-in:
			if !ok {
				return
			}
			select {
			case s.messages <- msg.Payload:
			case <-s.done:
				return
			}
		}
	}
}

func (s *redisSubscription) Messages() <-chan string {
	return s.messages
}

func (s *redisSubscription) Close() error {
	s.once.Do(func() {
		close(s.done)
		s.err = s.ps.Close()
		s.wg.Wait()
		if s.onClose != nil {
			s.onClose(s)
		}
	})
	return s.err
}

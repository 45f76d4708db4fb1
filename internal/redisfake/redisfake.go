// Package redisfake answers the few Redis commands cachewrap issues from
// memory, by hooking a real go-redis client so no server is dialed.
package redisfake

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Server holds the keyspace. Supported: GET, SET, DEL, INCR, EXPIRE.
type Server struct {
	mu   sync.Mutex
	data map[string]string
	ttl  map[string]time.Duration
}

var _ redis.Hook = (*Server)(nil)

// NewClient returns a client whose commands are served by a fresh Server.
func NewClient() (*redis.Client, *Server) {
	s := &Server{data: make(map[string]string), ttl: make(map[string]time.Duration)}
	c := redis.NewClient(&redis.Options{Addr: "redisfake:0"})
	c.AddHook(s)
	return c, s
}

// Raw returns the stored value of key.
func (s *Server) Raw(key string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.data[key]
	return v, ok
}

// TTL returns the expiry last set on key, 0 if none.
func (s *Server) TTL(key string) time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ttl[key]
}

// Put stores value under key directly.
func (s *Server) Put(key, value string) {
	s.mu.Lock()
	s.data[key] = value
	s.mu.Unlock()
}

func (s *Server) DialHook(next redis.DialHook) redis.DialHook { return next }

func (s *Server) ProcessHook(redis.ProcessHook) redis.ProcessHook {
	return func(_ context.Context, cmd redis.Cmder) error {
		s.exec(cmd)
		return cmd.Err()
	}
}

func (s *Server) ProcessPipelineHook(redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return func(_ context.Context, cmds []redis.Cmder) error {
		var first error
		for _, cmd := range cmds {
			s.exec(cmd)
			if err := cmd.Err(); err != nil && err != redis.Nil && first == nil {
				first = err
			}
		}
		return first
	}
}

func (s *Server) exec(cmd redis.Cmder) {
	s.mu.Lock()
	defer s.mu.Unlock()

	args := cmd.Args()
	str := func(i int) string {
		if i >= len(args) {
			return ""
		}
		switch v := args[i].(type) {
		case string:
			return v
		case []byte:
			return string(v)
		default:
			return fmt.Sprint(v)
		}
	}

	switch cmd.Name() {
	case "get":
		c := cmd.(*redis.StringCmd)
		v, ok := s.data[str(1)]
		if !ok {
			c.SetErr(redis.Nil)
			return
		}
		c.SetVal(v)
	case "set":
		s.data[str(1)] = str(2)
		delete(s.ttl, str(1))
		cmd.(*redis.StatusCmd).SetVal("OK")
	case "del":
		var n int64
		for i := 1; i < len(args); i++ {
			if _, ok := s.data[str(i)]; ok {
				delete(s.data, str(i))
				delete(s.ttl, str(i))
				n++
			}
		}
		cmd.(*redis.IntCmd).SetVal(n)
	case "incr":
		c := cmd.(*redis.IntCmd)
		cur, err := strconv.ParseInt(coalesce(s.data[str(1)], "0"), 10, 64)
		if err != nil {
			c.SetErr(errors.New("ERR value is not an integer or out of range"))
			return
		}
		cur++
		s.data[str(1)] = strconv.FormatInt(cur, 10)
		c.SetVal(cur)
	case "expire":
		c := cmd.(*redis.BoolCmd)
		if _, ok := s.data[str(1)]; !ok {
			c.SetVal(false)
			return
		}
		secs, _ := strconv.ParseInt(str(2), 10, 64)
		s.ttl[str(1)] = time.Duration(secs) * time.Second
		c.SetVal(true)
	default:
		cmd.SetErr(fmt.Errorf("redisfake: unsupported command %q", cmd.Name()))
	}
}

func coalesce(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/gomodule/redigo/redis"
	"github.com/stretchr/testify/assert"
)

// fakeConn scripts INCR/EXPIRE replies so limiter behavior can be tested
// without a Redis server. It implements redis.ConnWithContext, which is what
// pooled connections provide.
type fakeConn struct {
	connErr  error
	incrErr  error
	count    int64
	commands []string
}

func (c *fakeConn) Close() error { return nil }
func (c *fakeConn) Err() error   { return c.connErr }
func (c *fakeConn) Flush() error { return nil }

func (c *fakeConn) Send(string, ...interface{}) error    { return nil }
func (c *fakeConn) Receive() (interface{}, error)        { return nil, nil }
func (c *fakeConn) ReceiveContext(context.Context) (interface{}, error) { return nil, nil }

func (c *fakeConn) Do(cmd string, args ...interface{}) (interface{}, error) {
	return c.DoContext(context.Background(), cmd, args...)
}

func (c *fakeConn) DoContext(_ context.Context, cmd string, args ...interface{}) (interface{}, error) {
	c.commands = append(c.commands, cmd)
	switch cmd {
	case "INCR":
		if c.incrErr != nil {
			return nil, c.incrErr
		}
		c.count++
		return c.count, nil
	case "EXPIRE":
		return int64(1), nil
	default:
		return nil, errors.New("unexpected command " + cmd)
	}
}

type fakePool struct {
	conn *fakeConn
}

func (p *fakePool) Get() redis.Conn { return p.conn }

func TestAllowWithinBudget(t *testing.T) {
	conn := &fakeConn{}
	limiter := NewRateLimiter(&fakePool{conn: conn}, 3, time.Minute)

	for i := 0; i < 3; i++ {
		assert.True(t, limiter.Allow(context.Background(), "simulated"), "request %d within budget", i+1)
	}
	assert.False(t, limiter.Allow(context.Background(), "simulated"), "fourth request exceeds budget of 3")
}

func TestAllowStartsWindowOnFirstHit(t *testing.T) {
	conn := &fakeConn{}
	limiter := NewRateLimiter(&fakePool{conn: conn}, 10, time.Minute)

	limiter.Allow(context.Background(), "simulated")
	assert.Equal(t, []string{"INCR", "EXPIRE"}, conn.commands, "first hit sets the expiry")

	conn.commands = nil
	limiter.Allow(context.Background(), "simulated")
	assert.Equal(t, []string{"INCR"}, conn.commands, "later hits must not reset the window")
}

func TestAllowFailsOpenOnConnError(t *testing.T) {
	conn := &fakeConn{connErr: errors.New("connection refused")}
	limiter := NewRateLimiter(&fakePool{conn: conn}, 1, time.Minute)

	assert.True(t, limiter.Allow(context.Background(), "simulated"))
	assert.True(t, limiter.Allow(context.Background(), "simulated"))
}

func TestAllowFailsOpenOnCommandError(t *testing.T) {
	conn := &fakeConn{incrErr: errors.New("READONLY")}
	limiter := NewRateLimiter(&fakePool{conn: conn}, 1, time.Minute)

	assert.True(t, limiter.Allow(context.Background(), "simulated"))
}

package conn

import (
	"time"

	"github.com/gomodule/redigo/redis"
)

// Used to denote the parameters of the redis connection.
type ConnectionParam struct {
	// Host:port
	Address string
	// Optional password. Defaults to no authentication.
	Password string
	// Database to SELECT after connecting. Defaults to 0.
	Database int
	// Policy to use for reconnections (defaults to
	// LogReconnectPolicy with a base of 10 and factor of 1 ms)
	Policy ReconnectPolicy
	// Dial timeout for redis (defaults to no timeout)
	Timeout time.Duration
	// Write timeout for commands. Reads never time out, since a
	// subscribed connection may legitimately sit idle for a long time.
	WriteTimeout time.Duration
}

// New returns a pool dialing with param, along with the reconnect policy
// to use for it. The policy defaults to a LogReconnectPolicy with a base of
// 10 and a 1ms factor. No connection is made until the pool is used.
func New(param ConnectionParam, maxIdle int) (*redis.Pool, ReconnectPolicy) {
	param = withDefaults(param)

	return &redis.Pool{Dial: connect(param), MaxIdle: maxIdle}, param.Policy
}

// Dial opens a single connection outside of any pool. Subscribed
// connections are held for a long time and can't be used for other
// commands, so they are usually better dialed on their own.
func Dial(param ConnectionParam) (redis.Conn, error) {
	return connect(withDefaults(param))()
}

func withDefaults(param ConnectionParam) ConnectionParam {
	if param.Policy == nil {
		param.Policy = &LogReconnectPolicy{Base: 10, Factor: time.Millisecond}
	}

	return param
}

// connect is a higher-order function that returns a function that dials,
// connects, and authenticates a Redis connection.
//
// It attempts to dial a TCP connection to the address specified, timing out if
// no connection was able to be established within the given time-frame. If no
// timeout was given, it will wait indefinitely.
//
// If a password as specified in the ConnectionParam object, then an `AUTH`
// command (see: http://redis.io/commands/auth) is issued with that password,
// and a non-zero Database is selected with `SELECT`.
//
// If an error is incurred either dialing the TCP connection, or sending the
// `AUTH` command, then it will be returned immediately, and the client can be
// considered useless.
func connect(param ConnectionParam) func() (redis.Conn, error) {
	return func() (redis.Conn, error) {
		opts := []redis.DialOption{
			redis.DialPassword(param.Password),
			redis.DialDatabase(param.Database),
		}
		if param.Timeout > 0 {
			opts = append(opts, redis.DialConnectTimeout(param.Timeout))
		}
		if param.WriteTimeout > 0 {
			opts = append(opts, redis.DialWriteTimeout(param.WriteTimeout))
		}

		return redis.Dial("tcp", param.Address, opts...)
	}
}

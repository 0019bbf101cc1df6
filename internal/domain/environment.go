package domain

import "strings"

// LaunchEnvironment is an ordered set of environment variables.
// Keys are unique, the last write wins and a key keeps the position of its
// first insertion. The zero value is not usable; use NewLaunchEnvironment.
type LaunchEnvironment struct {
	keys   []string
	values map[string]string
}

// NewLaunchEnvironment returns an empty environment.
func NewLaunchEnvironment() *LaunchEnvironment {
	return &LaunchEnvironment{values: make(map[string]string)}
}

// EnvironmentFrom builds an environment from KEY=VALUE entries (os.Environ format).
// Entries without '=' are ignored. Windows per-drive entries such as "=C:=C:\" are kept.
func EnvironmentFrom(entries []string) *LaunchEnvironment {
	env := NewLaunchEnvironment()
	for _, kv := range entries {
		if kv == "" {
			continue
		}
		i := strings.Index(kv[1:], "=")
		if i < 0 {
			continue
		}
		i++
		env.Set(kv[:i], kv[i+1:])
	}
	return env
}

// Set assigns value to key.
func (e *LaunchEnvironment) Set(key, value string) {
	if _, ok := e.values[key]; !ok {
		e.keys = append(e.keys, key)
	}
	e.values[key] = value
}

// Get returns the value of key and whether it is present.
func (e *LaunchEnvironment) Get(key string) (string, bool) {
	v, ok := e.values[key]
	return v, ok
}

// Lookup returns the value of key or "".
func (e *LaunchEnvironment) Lookup(key string) string {
	return e.values[key]
}

// Environ renders the environment as KEY=VALUE entries in insertion order.
func (e *LaunchEnvironment) Environ() []string {
	out := make([]string, 0, len(e.keys))
	for _, k := range e.keys {
		out = append(out, k+"="+e.values[k])
	}
	return out
}

// Clone returns an independent copy.
func (e *LaunchEnvironment) Clone() *LaunchEnvironment {
	c := &LaunchEnvironment{
		keys:   append([]string(nil), e.keys...),
		values: make(map[string]string, len(e.values)),
	}
	for k, v := range e.values {
		c.values[k] = v
	}
	return c
}

package credential

import "os"

// Env looks up a named configuration variable. It follows os.LookupEnv
// semantics: ok is false when the variable is not set at all.
type Env func(name string) (string, bool)

// OSEnv reads from the process environment.
func OSEnv() Env {
	return os.LookupEnv
}

// MapEnv serves variables from a fixed map.
func MapEnv(vars map[string]string) Env {
	return func(name string) (string, bool) {
		v, ok := vars[name]
		return v, ok
	}
}

// get returns the value only when it is set and non-empty.
func (e Env) get(name string) (string, bool) {
	if e == nil {
		return "", false
	}
	v, ok := e(name)
	if !ok || v == "" {
		return "", false
	}
	return v, true
}

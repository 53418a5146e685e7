package envtests

import "os"

// Outside test files the environment may be set.
func SetDatabase(uri string) error {
	return os.Setenv("DATABASE", uri)
}

package envtests

import (
	"os"
	"testing"
)

func TestWithEnv(t *testing.T) {
	os.Setenv("APP_ENV", "development") // want `os.Setenv in a test changes the environment of every test`
	os.Unsetenv("APP_ENV")              // want `os.Unsetenv in a test changes the environment of every test`
	t.Setenv("JWT_SECRET", "secret")    // want `Setenv in a test prevents t.Parallel`

	_ = os.Getenv("APP_ENV")
	_ = SetDatabase("mongodb://localhost/natours")
}

func BenchmarkWithEnv(b *testing.B) {
	b.Setenv("APP_ENV", "production") // want `Setenv in a test prevents t.Parallel`
}

type fakeT struct{}

func (fakeT) Setenv(key, value string) {}

func TestLookalike(t *testing.T) {
	var f fakeT
	f.Setenv("APP_ENV", "development")
}

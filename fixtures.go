package fixtures

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/charlieparkes/go-conftest/internal/symbols"
	"github.com/charlieparkes/go-conftest/internal/timer"
	"go.uber.org/zap"
)

var (
	ErrEmptyName     = errors.New("fixture name must not be empty")
	ErrDuplicateName = errors.New("fixture name already registered")
)

// Background container purges started by teardown.
var wg sync.WaitGroup

type FixturesOpt func(*Fixtures)

func NewFixtures(opts ...FixturesOpt) *Fixtures {
	f := &Fixtures{}
	for _, opt := range opts {
		opt(f)
	}
	if f.log == nil {
		f.log = logger()
	}
	return f
}

func FixturesLogger(logger *zap.Logger) FixturesOpt {
	return func(f *Fixtures) {
		f.log = logger
	}
}

type Fixtures struct {
	log   *zap.Logger
	store map[string]Fixture
	order []string
}

func (f *Fixtures) logger() *zap.Logger {
	if f.log == nil {
		f.log = logger()
	}
	return f.log
}

func (f *Fixtures) Add(ctx context.Context, fixtures ...Fixture) error {
	for _, fix := range fixtures {
		if err := f.AddByName(ctx, GetRandomName(0), fix); err != nil {
			return err
		}
	}
	return nil
}

// AddByName registers the fixture and sets it up immediately.
// The fixture stays registered when setup fails so that TearDown can release whatever it acquired.
func (f *Fixtures) AddByName(ctx context.Context, name string, fixture Fixture) error {
	if name == "" {
		return ErrEmptyName
	}
	if f.store == nil {
		f.order = []string{}
		f.store = map[string]Fixture{}
	}
	if _, ok := f.store[name]; ok {
		return fmt.Errorf("%w: %v", ErrDuplicateName, name)
	}
	f.order = append(f.order, name)
	f.store[name] = fixture
	return f.setUp(ctx, name, fixture)
}

func (f *Fixtures) setUp(ctx context.Context, name string, fixture Fixture) error {
	t := timer.New()
	err := fixture.SetUp(ctx)
	f.logger().Debug("setup",
		zap.String("status", symbols.ForError(err)),
		zap.String("type", fixtureType(fixture)),
		zap.String("name", name),
		zap.Duration("elapsed", t.Duration()),
	)
	if err != nil {
		return fmt.Errorf("failed to setup fixture '%v': %w", name, err)
	}
	return nil
}

func (f *Fixtures) Get(name string) Fixture {
	return f.store[name]
}

// Names returns fixture names in the order they were added.
func (f *Fixtures) Names() []string {
	names := make([]string, len(f.order))
	copy(names, f.order)
	return names
}

// SetUp runs SetUp again on every fixture in order. Fixtures that hold resources must tolerate it.
func (f *Fixtures) SetUp(ctx context.Context) error {
	for _, name := range f.order {
		if err := f.setUp(ctx, name, f.store[name]); err != nil {
			return err
		}
	}
	return nil
}

// TearDown tears fixtures down in reverse order. Every fixture is attempted; the first error is returned.
func (f *Fixtures) TearDown(ctx context.Context) error {
	var firstErr error
	for i := len(f.order) - 1; i >= 0; i-- {
		name := f.order[i]
		fixture := f.store[name]
		t := timer.New()
		err := fixture.TearDown(ctx)
		fields := []zap.Field{
			zap.String("status", symbols.ForError(err)),
			zap.String("type", fixtureType(fixture)),
			zap.String("name", name),
			zap.Duration("elapsed", t.Duration()),
		}
		if err != nil {
			f.logger().Warn("teardown", append(fields, zap.Error(err))...)
			if firstErr == nil {
				firstErr = fmt.Errorf("failed to teardown fixture '%v': %w", name, err)
			}
			continue
		}
		f.logger().Debug("teardown", fields...)
	}

	wg.Wait()
	_ = f.logger().Sync()
	return firstErr
}

// RecoverTearDown is meant to be deferred. On panic it tears down and re-panics.
func (f *Fixtures) RecoverTearDown(ctx context.Context) {
	if r := recover(); r != nil {
		if err := f.TearDown(ctx); err != nil {
			f.logger().Warn("failed to tear down", zap.Error(err))
		}
		panic(r)
	}
}

// Sample returns the first Sample fixture. If none exists, panic.
func (f *Fixtures) Sample() *Sample {
	for _, name := range f.order {
		if val, ok := f.store[name].(*Sample); ok {
			return val
		}
	}
	panic("no sample fixture found")
}

// Docker returns the first Docker fixture. If none exists, panic.
func (f *Fixtures) Docker() *Docker {
	for _, name := range f.order {
		if val, ok := f.store[name].(*Docker); ok {
			return val
		}
	}
	panic("no docker fixture found")
}

// Postgres returns the first Postgres fixture. If none exists, panic.
func (f *Fixtures) Postgres() *Postgres {
	for _, name := range f.order {
		if val, ok := f.store[name].(*Postgres); ok {
			return val
		}
	}
	panic("no postgres fixture found")
}

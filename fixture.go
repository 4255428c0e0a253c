package fixtures

import (
	"context"
	"fmt"
	"reflect"
)

type Fixture interface {
	Type() string
	SetUp(context.Context) error
	TearDown(context.Context) error
}

type BaseFixture struct{}

func (f *BaseFixture) Type() string {
	return fmt.Sprint(reflect.TypeOf(f).Elem())
}

func fixtureType(fixture Fixture) string {
	t := reflect.TypeOf(fixture)
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return fmt.Sprint(t)
}

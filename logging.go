package fixtures

import (
	"github.com/charlieparkes/go-conftest/internal/env"
	"go.uber.org/zap"
)

func logger() *zap.Logger {
	var l *zap.Logger
	var err error
	if env.Get().Debug {
		l, err = zap.NewDevelopment()
	} else {
		l, err = zap.NewProduction()
	}
	if err != nil {
		panic(err)
	}
	return l
}

package logger

import "go.uber.org/zap"

// New builds the service logger: console output in development, JSON otherwise.
func New(env, name string) (*zap.Logger, error) {
	var (
		l   *zap.Logger
		err error
	)
	if env == "development" {
		l, err = zap.NewDevelopment()
	} else {
		l, err = zap.NewProduction()
	}
	if err != nil {
		return nil, err
	}
	return l.Named(name), nil
}

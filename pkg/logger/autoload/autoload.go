// Package autoload initializes the global logger from the environment.
// Blank-import it from main.
package autoload

import (
	configx "github.com/assurlab/sydia-agent/pkg/config"
	logx "github.com/assurlab/sydia-agent/pkg/logger"
)

func init() {
	logx.Init(*configx.MustNew[logx.Config]("LOG"))
}

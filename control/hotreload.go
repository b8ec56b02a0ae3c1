// control/hotreload.go
// Author: momentics <momentics@gmail.com>
//
// Reload hooks for ConfigStore values that take effect at runtime.

package control

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LogLevelHook returns a ConfigStore listener applying "log_level" to lvl.
// Unparsable values are logged and ignored.
func LogLevelHook(lvl zap.AtomicLevel) func(map[string]any) {
	return func(snap map[string]any) {
		s, ok := snap["log_level"].(string)
		if !ok || s == "" {
			return
		}
		l, err := zapcore.ParseLevel(s)
		if err != nil {
			Logger().Warn("ignoring log level reload", zap.String("log_level", s), zap.Error(err))
			return
		}
		if lvl.Level() != l {
			lvl.SetLevel(l)
		}
	}
}

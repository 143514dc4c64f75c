//go:build !(windows || (linux && cgo))

package hotkey

import (
	"context"
	"errors"
	"fmt"
	"runtime"
)

// ListenGlobal 当前平台没有系统热键支持，只能使用终端按键
func ListenGlobal(ctx context.Context, d *Dispatcher) error {
	return fmt.Errorf("%w: %s", errors.ErrUnsupported, runtime.GOOS)
}

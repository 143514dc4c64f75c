package savedata

import (
	"errors"
	"log"
)

type Op int

const (
	OpBackup Op = iota
	OpRestore
)

func (o Op) String() string {
	switch o {
	case OpBackup:
		return "backup"
	case OpRestore:
		return "restore"
	}
	return "unknown"
}

const (
	MsgBackedUp   = "Files backed up successfully"
	MsgRestored   = "Files restored successfully"
	MsgNotFound   = "Files not found!"
	MsgCopyFailed = "Copy failed!"
)

// Status 展示给用户的操作结果
type Status struct {
	OK   bool
	Text string
}

// Report 将操作结果转换为状态文本。ErrNotFound 以外的错误会记录日志
func Report(op Op, err error) Status {
	switch {
	case err == nil && op == OpRestore:
		return Status{OK: true, Text: MsgRestored}
	case err == nil:
		return Status{OK: true, Text: MsgBackedUp}
	case errors.Is(err, ErrNotFound):
		return Status{Text: MsgNotFound}
	default:
		log.Printf("%s 失败: %v", op, err)
		return Status{Text: MsgCopyFailed}
	}
}

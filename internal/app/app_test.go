package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/leijux/savekeeper/internal/config"
	"github.com/leijux/savekeeper/internal/hotkey"
	"github.com/leijux/savekeeper/internal/savedata"
)

func newTestApp(t *testing.T) (*App, string) {
	t.Helper()
	root := t.TempDir()
	path := filepath.Join(root, "config.yaml")
	cfg := config.Config{GameID: "CUSA00207", SaveRoot: root, BackupKey: "f5", RestoreKey: "f8", ExitKey: "f12"}
	if err := config.Save(path, cfg); err != nil {
		t.Fatal(err)
	}
	a, err := New(path, savedata.WithQuiet(true))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return a, root
}

func TestApp_BackupRestoreStatus(t *testing.T) {
	a, root := newTestApp(t)
	ctx := context.Background()

	if got := a.Backup(ctx); got != (savedata.Status{Text: savedata.MsgNotFound}) {
		t.Errorf("Backup() without save data = %+v", got)
	}

	save := filepath.Join(root, "CUSA00207")
	if err := os.MkdirAll(save, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(save, "userdata0000"), []byte("slot"), 0644); err != nil {
		t.Fatal(err)
	}

	if got := a.Backup(ctx); got != (savedata.Status{OK: true, Text: savedata.MsgBackedUp}) {
		t.Errorf("Backup() = %+v", got)
	}
	if got := a.Restore(ctx); got != (savedata.Status{OK: true, Text: savedata.MsgRestored}) {
		t.Errorf("Restore() = %+v", got)
	}
	if _, err := os.Stat(filepath.Join(root, "CUSA00207_backup", "userdata0000")); err != nil {
		t.Errorf("backup file missing: %v", err)
	}
}

func TestApp_SaveSettingsAppliesInPlace(t *testing.T) {
	a, root := newTestApp(t)

	var changed []config.Config
	a.OnChange = func(c config.Config) { changed = append(changed, c) }

	next := a.Config()
	next.GameID = "CUSA03173"
	next.BackupKey = "f1"
	if err := a.SaveSettings(next); err != nil {
		t.Fatalf("SaveSettings() error = %v", err)
	}

	if a.Config() != next {
		t.Errorf("Config() = %+v, want %+v", a.Config(), next)
	}
	src, bak := a.Engine().Paths()
	if src != filepath.Join(root, "CUSA03173") || bak != filepath.Join(root, "CUSA03173_backup") {
		t.Errorf("engine paths = %q, %q", src, bak)
	}
	if act, ok := a.Dispatcher().Bindings().Match("F1"); !ok || act != hotkey.ActionBackup {
		t.Errorf("new backup key not bound")
	}
	if len(changed) != 1 {
		t.Errorf("OnChange called %d times, want 1", len(changed))
	}

	loaded, err := config.Load(a.ConfigPath())
	if err != nil {
		t.Fatal(err)
	}
	if loaded != next {
		t.Errorf("persisted config = %+v, want %+v", loaded, next)
	}
}

func TestApp_SaveSettingsRejectsDuplicateKeys(t *testing.T) {
	a, _ := newTestApp(t)
	before := a.Config()

	next := before
	next.RestoreKey = next.ExitKey
	if err := a.SaveSettings(next); err == nil {
		t.Fatal("SaveSettings() should reject duplicate keys")
	}
	if a.Config() != before {
		t.Errorf("rejected settings were applied")
	}
}

func TestApp_HotkeyDrivesEngine(t *testing.T) {
	a, root := newTestApp(t)
	save := filepath.Join(root, "CUSA00207")
	if err := os.MkdirAll(save, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(save, "userdata0000"), []byte("slot"), 0644); err != nil {
		t.Fatal(err)
	}

	var got savedata.Status
	a.Dispatcher().OnStatus = func(st savedata.Status) { got = st }
	a.Dispatcher().Handle(context.Background(), "F5")

	if !got.OK {
		t.Errorf("status = %+v", got)
	}
	if _, err := os.Stat(filepath.Join(root, "CUSA00207_backup", "userdata0000")); err != nil {
		t.Errorf("hotkey backup did not copy: %v", err)
	}
}

func TestApp_ReloadSkipsAppliedConfig(t *testing.T) {
	a, _ := newTestApp(t)

	var changes atomic.Int32
	a.OnChange = func(config.Config) { changes.Add(1) }

	if a.reload(a.Config()) {
		t.Error("reload() applied the current config again")
	}
	next := a.Config()
	next.RestoreKey = "f9"
	if !a.reload(next) {
		t.Error("reload() skipped a changed config")
	}
	if got := changes.Load(); got != 1 {
		t.Errorf("OnChange called %d times, want 1", got)
	}
}

func TestApp_WatchAppliesSaveOnce(t *testing.T) {
	a, _ := newTestApp(t)

	var changes atomic.Int32
	a.OnChange = func(config.Config) { changes.Add(1) }

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go a.Watch(ctx)

	// 外部修改直到监听生效
	external := a.Config()
	deadline := time.Now().Add(5 * time.Second)
	for i := 0; changes.Load() == 0; i++ {
		if time.Now().After(deadline) {
			t.Fatal("watcher never applied an external change")
		}
		external.GameID = fmt.Sprintf("GAME%d", i)
		if err := config.Save(a.ConfigPath(), external); err != nil {
			t.Fatal(err)
		}
		time.Sleep(50 * time.Millisecond)
	}
	time.Sleep(200 * time.Millisecond)

	next := a.Config()
	next.GameID = "CUSA03173"
	before := changes.Load()
	if err := a.SaveSettings(next); err != nil {
		t.Fatal(err)
	}
	time.Sleep(300 * time.Millisecond)

	if got := changes.Load() - before; got != 1 {
		t.Errorf("OnChange called %d times after one save, want 1", got)
	}
}

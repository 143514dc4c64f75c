package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoad(t *testing.T) {
	def := Default()
	tests := []struct {
		name    string
		content *string
		want    Config
		wantErr bool
	}{
		{
			name:    "missing file writes defaults",
			content: nil,
			want:    def,
		},
		{
			name: "full settings",
			content: ptr(`settings:
  id: CUSA03173
  path: /games/saves
  backup: F1
  restore: f2
  exit: f3
`),
			want: Config{GameID: "CUSA03173", SaveRoot: "/games/saves", BackupKey: "F1", RestoreKey: "f2", ExitKey: "f3"},
		},
		{
			name: "missing fields fall back",
			content: ptr(`settings:
  id: CUSA03173
  restore: ""
`),
			want: Config{GameID: "CUSA03173", SaveRoot: def.SaveRoot, BackupKey: "f5", RestoreKey: "f8", ExitKey: "f12"},
		},
		{
			name:    "empty file is all defaults",
			content: ptr(""),
			want:    def,
		},
		{
			name:    "utf-8 bom",
			content: ptr("\xEF\xBB\xBFsettings:\n  id: ABC\n"),
			want:    Config{GameID: "ABC", SaveRoot: def.SaveRoot, BackupKey: "f5", RestoreKey: "f8", ExitKey: "f12"},
		},
		{
			name: "duplicate keys",
			content: ptr(`settings:
  backup: f5
  restore: F5
`),
			wantErr: true,
		},
		{
			name:    "broken yaml",
			content: ptr("settings: [\n"),
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.yaml")
			if tt.content != nil {
				if err := os.WriteFile(path, []byte(*tt.content), 0644); err != nil {
					t.Fatal(err)
				}
			}

			got, err := Load(path)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Load() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if got != tt.want {
				t.Errorf("Load() got = %+v, want %+v", got, tt.want)
			}
			if _, err := os.Stat(path); err != nil {
				t.Errorf("config file should exist after Load(): %v", err)
			}
		})
	}
}

func TestSaveThenLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	want := Config{GameID: "CUSA00900", SaveRoot: "/saves", BackupKey: "f9", RestoreKey: "f10", ExitKey: "f11"}

	if err := Save(path, want); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got != want {
		t.Errorf("Load() got = %+v, want %+v", got, want)
	}

	data, _ := os.ReadFile(path)
	if !strings.HasPrefix(string(data), "settings:") {
		t.Errorf("saved file should start with settings section, got:\n%s", data)
	}
}

func TestSaveRejectsInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	cfg := Config{GameID: "X", SaveRoot: "/s", BackupKey: "f5", RestoreKey: "f5", ExitKey: "f12"}
	if err := Save(path, cfg); err == nil {
		t.Fatal("Save() should reject duplicate keys")
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("rejected Save() must not create the file")
	}
}

func TestConfig_Validate(t *testing.T) {
	base := Config{GameID: "CUSA00207", SaveRoot: "/s", BackupKey: "f5", RestoreKey: "f8", ExitKey: "f12"}
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "empty id", mutate: func(c *Config) { c.GameID = " " }, wantErr: true},
		{name: "id with separator", mutate: func(c *Config) { c.GameID = "../x" }, wantErr: true},
		{name: "empty path", mutate: func(c *Config) { c.SaveRoot = "" }, wantErr: true},
		{name: "empty key", mutate: func(c *Config) { c.ExitKey = "" }, wantErr: true},
		{name: "backup equals exit", mutate: func(c *Config) { c.ExitKey = "F5" }, wantErr: true},
		{name: "restore equals exit", mutate: func(c *Config) { c.RestoreKey = "f12" }, wantErr: true},
		{name: "reserved key", mutate: func(c *Config) { c.BackupKey = "Enter" }, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base
			tt.mutate(&cfg)
			if err := cfg.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestConfig_Paths(t *testing.T) {
	cfg := Config{GameID: "CUSA00207", SaveRoot: filepath.FromSlash("/saves")}
	if got, want := cfg.SourceDir(), filepath.FromSlash("/saves/CUSA00207"); got != want {
		t.Errorf("SourceDir() = %q, want %q", got, want)
	}
	if got, want := cfg.BackupRoot(), filepath.FromSlash("/saves/CUSA00207_backup"); got != want {
		t.Errorf("BackupRoot() = %q, want %q", got, want)
	}
}

func TestValidateDocument(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		wantErr bool
	}{
		{name: "valid", data: "settings:\n  id: ABC\n  path: /s\n"},
		{name: "no settings section", data: "hotkeys:\n  backup: f5\n", wantErr: true},
		{name: "not yaml", data: "settings: [\n", wantErr: true},
		{name: "duplicate keys", data: "settings:\n  path: /s\n  backup: f8\n", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := ValidateDocument([]byte(tt.data)); (err != nil) != tt.wantErr {
				t.Errorf("ValidateDocument() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestWatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	base := Config{GameID: "CUSA00207", SaveRoot: "/s", BackupKey: "f5", RestoreKey: "f8", ExitKey: "f12"}
	if err := Save(path, base); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	changes := make(chan Config, 16)
	done := make(chan error, 1)
	go func() {
		done <- Watch(ctx, path, func(c Config) { changes <- c })
	}()

	timeout := time.After(5 * time.Second)
	tick := time.NewTicker(50 * time.Millisecond)
	defer tick.Stop()

	for i := 0; ; i++ {
		select {
		case got := <-changes:
			if !strings.HasPrefix(got.GameID, "GAME") {
				t.Errorf("unexpected reload: %+v", got)
			}
			cancel()
			if err := <-done; err != nil {
				t.Errorf("Watch() error = %v", err)
			}
			return
		case <-tick.C:
			next := base
			next.GameID = fmt.Sprintf("GAME%d", i)
			if err := Save(path, next); err != nil {
				t.Fatal(err)
			}
		case <-timeout:
			t.Fatal("Watch() did not report any change")
		}
	}
}

func ptr(s string) *string { return &s }

func TestWatch_FileMovedAway(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	base := Config{GameID: "GAME1", SaveRoot: "/s", BackupKey: "f1", RestoreKey: "f2", ExitKey: "f3"}
	if err := Save(path, base); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	changes := make(chan Config, 16)
	go Watch(ctx, path, func(c Config) { changes <- c })

	// 等到监听生效：反复写入直到收到一次变化
	timeout := time.After(5 * time.Second)
	tick := time.NewTicker(50 * time.Millisecond)
	defer tick.Stop()
	for live := false; !live; {
		select {
		case <-changes:
			live = true
		case <-tick.C:
			next := base
			next.SaveRoot = fmt.Sprintf("/s%d", time.Now().UnixNano())
			if err := Save(path, next); err != nil {
				t.Fatal(err)
			}
		case <-timeout:
			t.Fatal("Watch() did not report any change")
		}
	}
	// 丢弃最后一次写入可能带来的回调
	time.Sleep(100 * time.Millisecond)
	for len(changes) > 0 {
		<-changes
	}

	if err := os.Rename(path, path+".bak"); err != nil {
		t.Fatal(err)
	}

	select {
	case got := <-changes:
		t.Errorf("moving the file away applied %+v", got)
	case <-time.After(300 * time.Millisecond):
	}
	if _, err := os.Stat(path); !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("watcher recreated %s: %v", path, err)
	}
}

func TestRead_Missing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if _, err := Read(path); !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("Read() error = %v, want fs.ErrNotExist", err)
	}
	if _, err := os.Stat(path); !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("Read() created %s", path)
	}
}

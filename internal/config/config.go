package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	DefaultPath = "config.yaml"

	DefaultGameID     = "CUSA00207"
	DefaultBackupKey  = "f5"
	DefaultRestoreKey = "f8"
	DefaultExitKey    = "f12"

	backupSuffix = "_backup"
)

// reservedKeys 面板导航使用的按键，不能绑定为热键
var reservedKeys = []string{"tab", "shift+tab", "enter", "esc", "left", "right", "up", "down", "ctrl+c"}

// Config 配置文件中 settings 段的内容
type Config struct {
	GameID     string `yaml:"id"`
	SaveRoot   string `yaml:"path"`
	BackupKey  string `yaml:"backup"`
	RestoreKey string `yaml:"restore"`
	ExitKey    string `yaml:"exit"`
}

// document 配置文件的顶层结构，只有一个 settings 段
type document struct {
	Settings Config `yaml:"settings"`
}

// Default 返回默认配置，存档根目录为当前工作目录
func Default() Config {
	wd, err := os.Getwd()
	if err != nil {
		log.Printf("获取工作目录失败，使用 \".\": %v", err)
		wd = "."
	}
	return Config{
		GameID:     DefaultGameID,
		SaveRoot:   wd,
		BackupKey:  DefaultBackupKey,
		RestoreKey: DefaultRestoreKey,
		ExitKey:    DefaultExitKey,
	}
}

// SourceDir 存档目录 <path>/<id>
func (c Config) SourceDir() string {
	return filepath.Join(c.SaveRoot, c.GameID)
}

// BackupRoot 备份目录 <path>/<id>_backup
func (c Config) BackupRoot() string {
	return filepath.Join(c.SaveRoot, c.GameID+backupSuffix)
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.GameID) == "" {
		return errors.New("settings.id 不能为空")
	}
	if strings.ContainsAny(c.GameID, `/\`) || c.GameID == "." || c.GameID == ".." {
		return fmt.Errorf("settings.id 不能包含路径: %q", c.GameID)
	}
	if strings.TrimSpace(c.SaveRoot) == "" {
		return errors.New("settings.path 不能为空")
	}

	keys := []struct {
		field string
		value string
	}{
		{"backup", c.BackupKey},
		{"restore", c.RestoreKey},
		{"exit", c.ExitKey},
	}
	for i, k := range keys {
		if strings.TrimSpace(k.value) == "" {
			return fmt.Errorf("settings.%s 不能为空", k.field)
		}
		if IsReservedKey(k.value) {
			return fmt.Errorf("settings.%s: 按键 %q 已被面板占用", k.field, k.value)
		}
		for _, other := range keys[:i] {
			if strings.EqualFold(k.value, other.value) {
				return fmt.Errorf("settings.%s 与 settings.%s 使用了相同的按键 %q", k.field, other.field, k.value)
			}
		}
	}
	return nil
}

// IsReservedKey 判断按键是否被面板导航占用
func IsReservedKey(key string) bool {
	for _, r := range reservedKeys {
		if strings.EqualFold(r, key) {
			return true
		}
	}
	return false
}

// Load 读取配置文件；文件不存在时写入默认配置。缺失或为空的字段使用默认值
func Load(path string) (Config, error) {
	b, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		cfg := Default()
		if err := Save(path, cfg); err != nil {
			return Config{}, fmt.Errorf("写入默认配置失败: %w", err)
		}
		log.Printf("配置文件不存在，已写入默认配置: %s", path)
		return cfg, nil
	}
	if err != nil {
		return Config{}, fmt.Errorf("读取配置文件失败 (%s): %w", path, err)
	}
	return decode(path, b)
}

// Read 只读取已有的配置文件，文件不存在时返回 fs.ErrNotExist，不会写入默认配置
func Read(path string) (Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("读取配置文件失败 (%s): %w", path, err)
	}
	return decode(path, b)
}

func decode(path string, b []byte) (Config, error) {
	cfg, err := parse(b)
	if err != nil {
		return Config{}, fmt.Errorf("解析配置文件失败 (%s): %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func parse(b []byte) (Config, error) {
	// Windows 下编辑的文件可能带 BOM
	b = stripBOM(b)

	var doc document
	if err := yaml.Unmarshal(b, &doc); err != nil {
		return Config{}, err
	}
	return doc.Settings.withDefaults(), nil
}

func (c Config) withDefaults() Config {
	def := Default()
	fill := func(v *string, fallback string) {
		if strings.TrimSpace(*v) == "" {
			*v = fallback
		}
	}
	fill(&c.GameID, def.GameID)
	fill(&c.SaveRoot, def.SaveRoot)
	fill(&c.BackupKey, def.BackupKey)
	fill(&c.RestoreKey, def.RestoreKey)
	fill(&c.ExitKey, def.ExitKey)
	return c
}

func stripBOM(b []byte) []byte {
	if len(b) >= 3 && b[0] == 0xEF && b[1] == 0xBB && b[2] == 0xBF {
		return b[3:]
	}
	return b
}

// Save 整体覆盖 settings 段，先写临时文件再重命名
func Save(path string, cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	data, err := yaml.Marshal(document{Settings: cfg})
	if err != nil {
		return fmt.Errorf("序列化配置失败: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("创建配置目录失败 (%s): %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp")
	if err != nil {
		return fmt.Errorf("创建临时配置文件失败: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("写入配置文件失败: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("写入配置文件失败: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0644); err != nil {
		return fmt.Errorf("设置配置文件权限失败: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("替换配置文件失败 (%s): %w", path, err)
	}
	return nil
}

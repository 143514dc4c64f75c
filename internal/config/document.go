package config

import (
	"fmt"

	"github.com/goccy/go-yaml"
)

// ValidateDocument 检查待导入的配置内容：必须是合法 YAML，且 settings 段通过校验
func ValidateDocument(data []byte) error {
	data = stripBOM(data)

	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("配置文件格式无效: %w", err)
	}
	if _, ok := raw["settings"]; !ok {
		return fmt.Errorf("配置文件缺少 settings 段")
	}

	cfg, err := parse(data)
	if err != nil {
		return fmt.Errorf("配置文件格式无效: %w", err)
	}
	return cfg.Validate()
}

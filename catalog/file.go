package catalog

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-json"
	"gopkg.in/yaml.v3"

	"github.com/rushteam/shoprec/core"
)

// fileCatalog 是目录文件的结构（YAML/JSON）：
//
//	products:
//	  - id: "1"
//	    name: Organic Facial Serum
//	    price: 29.99
//	    in_stock: true
type fileCatalog struct {
	Products []*core.Product `yaml:"products" json:"products"`
}

// LoadFile 从 YAML 或 JSON 文件加载并校验目录，按扩展名选择解析器。
func LoadFile(path string) ([]*core.Product, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	format := "yaml"
	if strings.EqualFold(filepath.Ext(path), ".json") {
		format = "json"
	}
	return Parse(data, format)
}

// Parse 解析目录内容，format 为 yaml 或 json。
func Parse(data []byte, format string) ([]*core.Product, error) {
	var fc fileCatalog
	switch format {
	case "json":
		if err := json.Unmarshal(data, &fc); err != nil {
			return nil, fmt.Errorf("parse catalog json: %w", err)
		}
	case "yaml", "yml":
		if err := yaml.Unmarshal(data, &fc); err != nil {
			return nil, fmt.Errorf("parse catalog yaml: %w", err)
		}
	default:
		return nil, fmt.Errorf("catalog: unsupported format %q", format)
	}
	if err := Validate(fc.Products); err != nil {
		return nil, err
	}
	return fc.Products, nil
}

// NewFile 加载目录文件并返回内存目录。
func NewFile(path string) (*Memory, error) {
	products, err := LoadFile(path)
	if err != nil {
		return nil, err
	}
	return NewMemory(products), nil
}

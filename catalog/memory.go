// Package catalog 提供商品目录来源：内存、文件、MySQL，以及带熔断的包装。
//
// 所有实现都满足 core.CatalogProvider：每次调用返回一份完整的目录快照，
// 引擎在一次推荐计算期间只读使用该快照。
package catalog

import (
	"context"
	"fmt"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/rushteam/shoprec/core"
)

// Memory 是进程内目录，可整体替换（例如定时从文件/数据库重新加载）。
type Memory struct {
	mu       sync.RWMutex
	products []*core.Product
	index    map[string]*core.Product
}

// NewMemory 创建内存目录。
func NewMemory(products []*core.Product) *Memory {
	m := &Memory{}
	m.Replace(products)
	return m
}

// NewDemo 返回内置示例目录。
func NewDemo() *Memory {
	return NewMemory(DemoProducts())
}

// Products 返回当前目录快照。切片是副本，商品本身共享，调用方不得修改。
func (m *Memory) Products(_ context.Context) ([]*core.Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*core.Product, len(m.products))
	copy(out, m.products)
	return out, nil
}

// Get 按 ID 查找商品，不存在时返回 core.ErrProductNotFound。
func (m *Memory) Get(_ context.Context, id string) (*core.Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.index[id]
	if !ok {
		return nil, core.ErrProductNotFound
	}
	return p, nil
}

// Replace 整体替换目录。
func (m *Memory) Replace(products []*core.Product) {
	idx := core.IndexProducts(products)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.products = products
	m.index = idx
}

// Len 返回商品数量。
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.products)
}

var validate = validator.New()

// Validate 校验目录：字段取值范围与 ID 唯一性。
func Validate(products []*core.Product) error {
	seen := make(map[string]struct{}, len(products))
	for i, p := range products {
		if p == nil {
			return fmt.Errorf("catalog: product #%d is nil", i)
		}
		if err := validate.Struct(p); err != nil {
			return core.NewDomainError(core.ModuleCatalog, core.ErrorCodeInvalidInput,
				fmt.Sprintf("catalog: product #%d (%s) invalid", i, p.ID)).Wrap(err)
		}
		if _, dup := seen[p.ID]; dup {
			return core.NewDomainError(core.ModuleCatalog, core.ErrorCodeInvalidInput,
				fmt.Sprintf("catalog: duplicate product id %q", p.ID))
		}
		seen[p.ID] = struct{}{}
	}
	return nil
}

var _ core.CatalogProvider = (*Memory)(nil)

package core

import "context"

// Store 是键值存储的领域接口。
//
// 设计原则：
//   - 定义在领域层（core），由基础设施层（store）实现
//   - 领域层不依赖基础设施层
//
// 使用场景：
//   - 浏览历史：每个访客一个 key，值为 JSON 编码的商品 ID 列表
//
// 实现：
//   - store.MemoryStore（测试 / 单机）
//   - store.RedisStore（多实例共享）
//   - store.BadgerStore（本地持久化）
type Store interface {
	// Name 返回存储后端名称（用于日志/监控）
	Name() string

	// Get 读取单个 key 的值；不存在时返回 ErrStoreNotFound
	Get(ctx context.Context, key string) ([]byte, error)

	// Set 写入单个 key-value，ttl 单位为秒，省略或 <=0 表示不过期
	Set(ctx context.Context, key string, value []byte, ttl ...int) error

	// Delete 删除单个 key，不存在时不报错
	Delete(ctx context.Context, key string) error

	// Close 关闭连接/释放资源
	Close() error
}

var (
	// ErrStoreNotFound 表示 key 不存在
	ErrStoreNotFound = NewDomainError(ModuleStore, ErrorCodeNotFound, "store: key not found")

	// ErrStoreNotSupported 表示操作不支持
	ErrStoreNotSupported = NewDomainError(ModuleStore, ErrorCodeNotSupported, "store: operation not supported")
)

// IsStoreNotFound 检查错误是否为 key 不存在
func IsStoreNotFound(err error) bool {
	domainErr := GetDomainError(err)
	if domainErr != nil && domainErr.Module == ModuleStore {
		return domainErr.Code == ErrorCodeNotFound
	}
	return false
}

// CounterStore 是支持原子计数的 Store（浏览次数等）。
// 计数值以十进制字符串形式保存，Get 可直接读取。
type CounterStore interface {
	Store

	// IncrBy 原子地为 key 加上 delta，返回加后的值；key 不存在时从 0 开始
	IncrBy(ctx context.Context, key string, delta int64) (int64, error)
}

package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/goccy/go-json"

	"github.com/rushteam/shoprec/core"
)

// MySQLConfig 是 MySQL 目录的连接参数。
type MySQLConfig struct {
	DSN             string `koanf:"dsn"`
	Table           string `koanf:"table"`
	MaxOpenConns    int    `koanf:"max_open_conns"`
	MaxIdleConns    int    `koanf:"max_idle_conns"`
	ConnMaxLifetime int    `koanf:"conn_max_lifetime"` // 分钟
}

// MySQL 从 MySQL 表读取商品目录。
//
// 表结构（images/features/tags 为 JSON 数组文本）：
//
//	CREATE TABLE products (
//	  id VARCHAR(64) PRIMARY KEY,
//	  name VARCHAR(255) NOT NULL,
//	  price DECIMAL(10,2) NOT NULL,
//	  rating DOUBLE NOT NULL DEFAULT 0,
//	  reviews INT NOT NULL DEFAULT 0,
//	  images TEXT, description TEXT, features TEXT, tags TEXT,
//	  in_stock TINYINT(1) NOT NULL DEFAULT 1
//	);
type MySQL struct {
	db    *sql.DB
	query string
}

// OpenMySQL 建立连接池并 Ping。
func OpenMySQL(cfg MySQLConfig) (*MySQL, error) {
	db, err := sql.Open("mysql", cfg.DSN)
	if err != nil {
		return nil, err
	}

	// 连接池参数，提供默认值保护
	maxOpenConns := cfg.MaxOpenConns
	if maxOpenConns <= 0 {
		maxOpenConns = 20
	}
	maxIdleConns := cfg.MaxIdleConns
	if maxIdleConns <= 0 {
		maxIdleConns = 5
	}
	connMaxLifetime := cfg.ConnMaxLifetime
	if connMaxLifetime <= 0 {
		connMaxLifetime = 60
	}
	db.SetMaxOpenConns(maxOpenConns)
	db.SetMaxIdleConns(maxIdleConns)
	db.SetConnMaxLifetime(time.Duration(connMaxLifetime) * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, core.NewDomainError(core.ModuleCatalog, core.ErrorCodeUnavailable, "catalog: mysql ping failed").Wrap(err)
	}
	return NewMySQL(db, cfg.Table), nil
}

// NewMySQL 复用已有连接池，table 为空时使用 products。
func NewMySQL(db *sql.DB, table string) *MySQL {
	if table == "" {
		table = "products"
	}
	return &MySQL{
		db: db,
		query: fmt.Sprintf(
			"SELECT id, name, price, rating, reviews, images, description, features, tags, in_stock FROM `%s` ORDER BY id",
			table),
	}
}

// Products 读取整张表作为目录快照。
func (m *MySQL) Products(ctx context.Context) ([]*core.Product, error) {
	rows, err := m.db.QueryContext(ctx, m.query)
	if err != nil {
		return nil, core.NewDomainError(core.ModuleCatalog, core.ErrorCodeUnavailable, "catalog: query products").Wrap(err)
	}
	defer rows.Close()

	var out []*core.Product
	for rows.Next() {
		var r productRow
		if err := rows.Scan(&r.ID, &r.Name, &r.Price, &r.Rating, &r.Reviews,
			&r.Images, &r.Description, &r.Features, &r.Tags, &r.InStock); err != nil {
			return nil, fmt.Errorf("catalog: scan product: %w", err)
		}
		p, err := r.product()
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, core.NewDomainError(core.ModuleCatalog, core.ErrorCodeUnavailable, "catalog: iterate products").Wrap(err)
	}
	return out, nil
}

// Close 关闭连接池。
func (m *MySQL) Close() error {
	return m.db.Close()
}

type productRow struct {
	ID          string
	Name        string
	Price       float64
	Rating      float64
	Reviews     int
	Images      sql.NullString
	Description sql.NullString
	Features    sql.NullString
	Tags        sql.NullString
	InStock     bool
}

func (r productRow) product() (*core.Product, error) {
	p := &core.Product{
		ID:          r.ID,
		Name:        r.Name,
		Price:       r.Price,
		Rating:      r.Rating,
		Reviews:     r.Reviews,
		Description: r.Description.String,
		InStock:     r.InStock,
	}
	var err error
	if p.Images, err = decodeList(r.Images); err != nil {
		return nil, fmt.Errorf("catalog: product %s images: %w", r.ID, err)
	}
	if p.Features, err = decodeList(r.Features); err != nil {
		return nil, fmt.Errorf("catalog: product %s features: %w", r.ID, err)
	}
	if p.Tags, err = decodeList(r.Tags); err != nil {
		return nil, fmt.Errorf("catalog: product %s tags: %w", r.ID, err)
	}
	return p, nil
}

func decodeList(s sql.NullString) ([]string, error) {
	if !s.Valid || s.String == "" {
		return nil, nil
	}
	var out []string
	if err := json.Unmarshal([]byte(s.String), &out); err != nil {
		return nil, err
	}
	return out, nil
}

var _ core.CatalogProvider = (*MySQL)(nil)

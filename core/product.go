package core

// Product 是推荐的基本单元，对应商品目录中的一条记录。
//
// 约定：
//   - ID 在一个目录快照内唯一，作为缓存 key / 历史记录的引用
//   - Tags 按集合语义参与相似度计算（顺序无关）
//   - Features 仅作展示，不参与打分
type Product struct {
	ID          string   `json:"id" yaml:"id" validate:"required"`
	Name        string   `json:"name" yaml:"name" validate:"required"`
	Price       float64  `json:"price" yaml:"price" validate:"gte=0"`
	Rating      float64  `json:"rating" yaml:"rating" validate:"gte=0,lte=5"` // [0, 5]
	Reviews     int      `json:"reviews" yaml:"reviews" validate:"gte=0"`     // 评论数
	Images      []string `json:"images" yaml:"images"`                        // 第一张为主图
	Description string   `json:"description" yaml:"description"`
	Features    []string `json:"features" yaml:"features"`
	Tags        []string `json:"tags" yaml:"tags"`
	InStock     bool     `json:"inStock" yaml:"in_stock"`
}

// Popularity 返回热度分：rating × reviews。
func (p *Product) Popularity() float64 {
	if p == nil {
		return 0
	}
	return p.Rating * float64(p.Reviews)
}

// PrimaryImage 返回主图，没有图片时返回空串。
func (p *Product) PrimaryImage() string {
	if p == nil || len(p.Images) == 0 {
		return ""
	}
	return p.Images[0]
}

// IndexProducts 按 ID 建立索引，重复 ID 保留首个。
func IndexProducts(catalog []*Product) map[string]*Product {
	idx := make(map[string]*Product, len(catalog))
	for _, p := range catalog {
		if p == nil {
			continue
		}
		if _, ok := idx[p.ID]; ok {
			continue
		}
		idx[p.ID] = p
	}
	return idx
}

// FindProduct 在目录快照中按 ID 查找商品。
func FindProduct(catalog []*Product, id string) (*Product, bool) {
	for _, p := range catalog {
		if p != nil && p.ID == id {
			return p, true
		}
	}
	return nil, false
}

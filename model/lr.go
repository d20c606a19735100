package model

import (
	"fmt"
	"math"
	"os"

	"github.com/goccy/go-json"

	"github.com/rushteam/shoprec/core"
)

// LRModel 是逻辑回归打分模型：P = sigmoid(Bias + Σ Weight_i × Feature_i)。
//
// 特征来自 ProductFeatures，权重通常由离线训练（点击/加购日志）得到：
//
//	{"bias": -1.2, "weights": {"rating": 0.8, "log_reviews": 0.3, "recall_score": 2.0}}
type LRModel struct {
	Bias    float64            `json:"bias"`
	Weights map[string]float64 `json:"weights"`
}

// LoadLRModel 从 JSON 文件加载模型。
func LoadLRModel(path string) (*LRModel, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var m LRModel
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse lr model %s: %w", path, err)
	}
	return &m, nil
}

func (m *LRModel) Name() string { return "lr" }

// Predict 返回 (0, 1) 之间的分数；未知特征忽略。
func (m *LRModel) Predict(features map[string]float64) float64 {
	z := m.Bias
	for k, v := range features {
		if w, ok := m.Weights[k]; ok {
			z += w * v
		}
	}
	return 1 / (1 + math.Exp(-z))
}

// ProductFeatures 把商品属性与召回分转成 LR 特征。
//
//	price / rating / log_reviews / in_stock / tag_count / recall_score
func ProductFeatures(p *core.Product, recallScore float64) map[string]float64 {
	f := map[string]float64{"recall_score": recallScore}
	if p == nil {
		return f
	}
	f["price"] = p.Price
	f["rating"] = p.Rating
	f["log_reviews"] = math.Log1p(float64(p.Reviews))
	f["tag_count"] = float64(len(p.Tags))
	if p.InStock {
		f["in_stock"] = 1
	} else {
		f["in_stock"] = 0
	}
	return f
}

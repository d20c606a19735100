// Package api 是店面使用的 REST 接口：商品列表、商品详情、推荐、浏览上报。
package api

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/rushteam/shoprec/core"
	"github.com/rushteam/shoprec/engine"
)

const (
	// VisitorHeader 携带访客标识；未携带时回退到 VisitorCookie
	VisitorHeader = "X-Visitor-ID"
	VisitorCookie = "shoprec_visitor"

	requestTimeout = 10 * time.Second
)

// ViewCounts 提供商品累计浏览次数（可选）。
type ViewCounts interface {
	Count(ctx context.Context, productID string) (int64, error)
}

// Config 是路由配置。
type Config struct {
	CORSOrigins []string

	// RateLimit 是每个 IP 每分钟的请求上限，0 表示不限流
	RateLimit int
}

// Server 持有接口依赖。
type Server struct {
	engine   *engine.Engine
	catalog  core.CatalogProvider
	views    ViewCounts
	validate *validator.Validate
	log      zerolog.Logger
}

func NewServer(e *engine.Engine, catalog core.CatalogProvider, views ViewCounts, log zerolog.Logger) *Server {
	return &Server{
		engine:   e,
		catalog:  catalog,
		views:    views,
		validate: validator.New(),
		log:      log.With().Str("component", "api").Logger(),
	}
}

// Router 组装路由与中间件。
func (s *Server) Router(cfg Config) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", VisitorHeader},
		MaxAge:         300,
	}))

	r.Get("/healthz", s.Health)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		if cfg.RateLimit > 0 {
			r.Use(httprate.LimitByIP(cfg.RateLimit, time.Minute))
		}
		r.Get("/products", s.ListProducts)
		r.Get("/products/{id}", s.GetProduct)
		r.Post("/products/{id}/views", s.TrackView)
		r.Get("/recommendations", s.Recommendations)
	})
	return r
}

// Health 在目录可读时返回 200，否则 503。
func (s *Server) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	products, err := s.catalog.Products(ctx)
	if err != nil {
		s.log.Warn().Err(err).Msg("health check: catalog unavailable")
		respondError(w, http.StatusServiceUnavailable, "CATALOG_UNAVAILABLE", "catalog unavailable")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"products": len(products),
	})
}

func (s *Server) ListProducts(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	products, err := s.catalog.Products(ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("list products")
		respondError(w, http.StatusServiceUnavailable, "CATALOG_UNAVAILABLE", "catalog unavailable")
		return
	}
	respondJSON(w, http.StatusOK, products)
}

// productView 是商品详情响应，Views 仅在启用浏览计数时返回。
type productView struct {
	*core.Product
	Views *int64 `json:"views,omitempty"`
}

func (s *Server) GetProduct(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	p, ok, err := s.findProduct(ctx, chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusServiceUnavailable, "CATALOG_UNAVAILABLE", "catalog unavailable")
		return
	}
	if !ok {
		respondError(w, http.StatusNotFound, "PRODUCT_NOT_FOUND", "product not found")
		return
	}

	out := productView{Product: p}
	if s.views != nil {
		if n, err := s.views.Count(ctx, p.ID); err == nil {
			out.Views = &n
		} else {
			s.log.Debug().Err(err).Str("product_id", p.ID).Msg("read view count")
		}
	}
	respondJSON(w, http.StatusOK, out)
}

// recommendQuery 是推荐接口的查询参数。
type recommendQuery struct {
	Strategy  string `validate:"omitempty,max=64"`
	ProductID string `validate:"omitempty,max=64"`
	UserID    string `validate:"omitempty,max=128"`
	Limit     int    `validate:"gte=0,lte=1000"`
}

type recommendResponse struct {
	Strategy string          `json:"strategy"`
	Products []*core.Product `json:"products"`
}

// Recommendations 处理 GET /api/recommendations?strategy=&product_id=&user_id=&limit=。
// 未传 user_id 时使用访客标识。推荐失败时返回空列表而不是错误。
func (s *Server) Recommendations(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	req := recommendQuery{
		Strategy:  q.Get("strategy"),
		ProductID: q.Get("product_id"),
		UserID:    q.Get("user_id"),
	}
	if raw := q.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			respondError(w, http.StatusBadRequest, "INVALID_LIMIT", "limit must be an integer")
			return
		}
		req.Limit = n
	}
	if err := s.validate.Struct(req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_QUERY", err.Error())
		return
	}
	if req.UserID == "" {
		req.UserID, _ = visitorID(r)
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	products := s.engine.GetRecommendations(ctx, engine.Request{
		Strategy:  req.Strategy,
		ProductID: req.ProductID,
		UserID:    req.UserID,
		Limit:     req.Limit,
	})
	respondJSON(w, http.StatusOK, recommendResponse{Strategy: req.Strategy, Products: products})
}

type trackResponse struct {
	VisitorID      string   `json:"visitor_id"`
	RecentlyViewed []string `json:"recently_viewed"`
}

// TrackView 处理 POST /api/products/{id}/views：记录当前访客浏览了该商品。
// 请求未携带访客标识时分配一个新的并写入 cookie。
func (s *Server) TrackView(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	productID := chi.URLParam(r, "id")
	_, ok, err := s.findProduct(ctx, productID)
	switch {
	case err != nil:
		// 目录不可用时仍记录浏览
		s.log.Warn().Err(err).Str("product_id", productID).Msg("track view without catalog check")
	case !ok:
		respondError(w, http.StatusNotFound, "PRODUCT_NOT_FOUND", "product not found")
		return
	}

	visitor, found := visitorID(r)
	if !found {
		visitor = uuid.NewString()
		http.SetCookie(w, &http.Cookie{
			Name:     VisitorCookie,
			Value:    visitor,
			Path:     "/",
			MaxAge:   int((365 * 24 * time.Hour).Seconds()),
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})
	}

	if err := s.engine.TrackProductView(ctx, visitor, productID); err != nil {
		if core.IsInvalidInput(err) {
			respondError(w, http.StatusBadRequest, "INVALID_INPUT", err.Error())
			return
		}
		respondError(w, http.StatusServiceUnavailable, "HISTORY_UNAVAILABLE", "view history unavailable")
		return
	}
	recent, err := s.engine.RecentlyViewed(ctx, visitor)
	if err != nil {
		recent = []string{}
	}
	respondJSON(w, http.StatusAccepted, trackResponse{VisitorID: visitor, RecentlyViewed: recent})
}

func (s *Server) findProduct(ctx context.Context, id string) (*core.Product, bool, error) {
	products, err := s.catalog.Products(ctx)
	if err != nil {
		return nil, false, err
	}
	p, ok := core.FindProduct(products, id)
	return p, ok, nil
}

// visitorID 依次从请求头、cookie 读取访客标识。
func visitorID(r *http.Request) (string, bool) {
	if v := r.Header.Get(VisitorHeader); v != "" {
		return v, true
	}
	if c, err := r.Cookie(VisitorCookie); err == nil && c.Value != "" {
		return c.Value, true
	}
	return "", false
}

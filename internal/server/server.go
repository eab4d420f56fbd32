package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/WHXisWH/AlpacaPay/internal/advisor"
	"github.com/WHXisWH/AlpacaPay/internal/types"
)

// Server is the thin JSON surface over the advisor. All decision logic lives
// below; this layer only parses, validates and renders.
type Server struct {
	adv *advisor.Advisor
	log *zap.Logger
}

func New(adv *advisor.Advisor, log *zap.Logger) *Server {
	return &Server{adv: adv, log: log}
}

type assetDTO struct {
	Address  string `json:"address"`
	Symbol   string `json:"symbol"`
	Name     string `json:"name"`
	Decimals uint8  `json:"decimals"`
	Balance  string `json:"balance"` // decimal string, token units
}

type recommendReq struct {
	Wallet string     `json:"wallet"`
	Assets []assetDTO `json:"assets"`
}

type scoredDTO struct {
	Address         string   `json:"address"`
	Symbol          string   `json:"symbol"`
	UsdBalance      string   `json:"usdBalance"`
	BalanceScore    float64  `json:"balanceScore"`
	VolatilityScore float64  `json:"volatilityScore"`
	SlippageScore   float64  `json:"slippageScore"`
	Score           float64  `json:"score"`
	Reasons         []string `json:"reasons"`
}

type recommendResp struct {
	Recommendation *scoredDTO  `json:"recommendation"`
	Ranked         []scoredDTO `json:"ranked,omitempty"`
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.HandleFunc("/api/recommend", s.handleRecommend)
	return mux
}

func (s *Server) handleRecommend(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req recommendReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad request: "+err.Error(), http.StatusBadRequest)
		return
	}

	assets := make([]types.Asset, 0, len(req.Assets))
	for _, dto := range req.Assets {
		bal, err := decimal.NewFromString(dto.Balance)
		if err != nil {
			http.Error(w, fmt.Sprintf("bad balance %q for %s", dto.Balance, dto.Address), http.StatusBadRequest)
			return
		}
		a, err := types.NewAsset(dto.Address, dto.Symbol, dto.Name, dto.Decimals, bal)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		assets = append(assets, a)
	}

	rec, ok := s.adv.Recommend(r.Context(), req.Wallet, assets)

	resp := recommendResp{}
	if ok {
		best := toDTO(rec.Best)
		resp.Recommendation = &best
		resp.Ranked = make([]scoredDTO, 0, len(rec.Ranked))
		for _, sa := range rec.Ranked {
			resp.Ranked = append(resp.Ranked, toDTO(sa))
		}
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		s.log.Warn("response encode failed", zap.Error(err))
	}
}

func toDTO(sa types.ScoredAsset) scoredDTO {
	return scoredDTO{
		Address:         sa.Asset.Address,
		Symbol:          sa.Asset.Symbol,
		UsdBalance:      sa.UsdBalance.StringFixed(2),
		BalanceScore:    sa.BalanceScore,
		VolatilityScore: sa.VolatilityScore,
		SlippageScore:   sa.SlippageScore,
		Score:           sa.Score,
		Reasons:         sa.Reasons,
	}
}

// Serve runs the API server until ctx is cancelled.
func (s *Server) Serve(ctx context.Context, addr string) {
	if addr == "" {
		s.log.Info("api server disabled: empty addr")
		return
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadTimeout:       5 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	go func() {
		s.log.Info("api server starting", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.log.Error("api server error", zap.Error(err))
		}
	}()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.log.Warn("api server shutdown error", zap.Error(err))
		}
	}()
}

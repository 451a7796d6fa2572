// Copyright (c) 2025 Questline Interactive. All Rights Reserved.
// This is licensed software from Questline Interactive, for limitations
// and restrictions contact your company contract manager.

package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/caarlos0/env"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/zipkin"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/questline/core-matchmaker/pkg/config"
	"github.com/questline/core-matchmaker/pkg/envelope"
	"github.com/questline/core-matchmaker/pkg/metrics"
	"github.com/questline/core-matchmaker/pkg/models"
	"github.com/questline/core-matchmaker/pkg/queue"
	"github.com/questline/core-matchmaker/pkg/rating"
	"github.com/questline/core-matchmaker/pkg/store/redisstore"
)

func main() {
	_ = godotenv.Load()

	logrus.SetFormatter(&logrus.JSONFormatter{})
	logrus.SetOutput(os.Stdout)

	cfg := &config.Config{}
	if err := env.Parse(cfg); err != nil {
		logrus.WithError(err).Fatal("unable to parse environment")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.ZipkinEndpoint != "" {
		shutdown, err := setupTracing(cfg.ZipkinEndpoint)
		if err != nil {
			logrus.WithError(err).Fatal("unable to set up trace export")
		}
		defer shutdown(context.Background())
	}

	rulesets, ratingCfg, err := loadRulesets(cfg.RulesetPath)
	if err != nil {
		logrus.WithError(err).WithField("path", cfg.RulesetPath).Fatal("unable to load rulesets")
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	})
	defer redisClient.Close()
	store := redisstore.New(redisClient)

	registry := prometheus.NewRegistry()
	engineMetrics := metrics.NewMetrics(registry)

	penalties := queue.NewPenaltyManager(
		time.Duration(cfg.PenaltyBaseSecond)*time.Second,
		time.Duration(cfg.PenaltyMaxSecond)*time.Second,
		time.Duration(cfg.PenaltyStrikeMemorySecond)*time.Second,
		engineMetrics,
	)

	groups := newInMemoryGroupRegistry()
	servers := &localServerProvider{store: store}

	service, err := queue.NewQueueService(
		rulesets, ratingCfg,
		groups, store, servers, store,
		penalties, engineMetrics,
		cfg.SearchMaxIteration,
		time.Duration(cfg.ServerReserveTimeoutSecond)*time.Second,
		time.Duration(cfg.MatchLaunchTimeoutSecond)*time.Second,
	)
	if err != nil {
		logrus.WithError(err).Fatal("unable to build queue service")
	}
	elo := rating.NewElo(ratingCfg, store, store, engineMetrics)

	go service.Run(ctx, time.Duration(cfg.QueueTickMs)*time.Millisecond)

	router := newRouter(service, elo, store, groups, rulesets, registry)
	server := &http.Server{Addr: cfg.MetricsAddr, Handler: router}
	go func() {
		logrus.WithField("addr", cfg.MetricsAddr).Info("matchmaker listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.WithError(err).Fatal("http server failed")
		}
	}()

	<-ctx.Done()
	logrus.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = server.Shutdown(shutdownCtx)
}

// setupTracing wires span export to a zipkin collector.
func setupTracing(endpoint string) (func(context.Context) error, error) {
	exporter, err := zipkin.New(endpoint)
	if err != nil {
		return nil, err
	}
	provider := sdktrace.NewTracerProvider(sdktrace.WithBatcher(exporter))
	otel.SetTracerProvider(provider)
	return provider.Shutdown, nil
}

// rulesetFile is the on-disk configuration: the rating policy plus one
// ruleset per game type.
type rulesetFile struct {
	Rating   models.RatingConfig `json:"rating"`
	Rulesets []models.Ruleset    `json:"rulesets"`
}

func loadRulesets(path string) ([]models.Ruleset, models.RatingConfig, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, models.RatingConfig{}, err
	}

	var file rulesetFile
	if err := json.Unmarshal(raw, &file); err != nil {
		return nil, models.RatingConfig{}, err
	}

	file.Rating.SetDefaultValues()
	if err := file.Rating.Validate(); err != nil {
		return nil, models.RatingConfig{}, err
	}
	for i := range file.Rulesets {
		if err := file.Rulesets[i].Validate(); err != nil {
			return nil, models.RatingConfig{}, err
		}
		file.Rulesets[i].SetDefaultValues()
	}

	return file.Rulesets, file.Rating, nil
}

// gameEndedRequest is the body of the game-end hook.
type gameEndedRequest struct {
	Game    models.GameInfo    `json:"game"`
	Summary models.GameSummary `json:"summary"`
}

// abandonRequest is the body of the abandon report hook.
type abandonRequest struct {
	GameType  models.GameType  `json:"game_type"`
	AccountID models.AccountID `json:"account_id"`
	MatchID   string           `json:"match_id"`
}

func newRouter(service *queue.QueueService, elo *rating.Elo, store *redisstore.Store, groups *inMemoryGroupRegistry, rulesets []models.Ruleset, registry *prometheus.Registry) http.Handler {
	ratingKeys := make(map[models.GameType]models.RatingKey, len(rulesets))
	for _, ruleset := range rulesets {
		ratingKeys[ruleset.GameType] = ruleset.RatingKey
	}

	router := chi.NewRouter()
	router.Use(middleware.Recoverer)

	router.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	router.Post("/v1/queues/{gameType}/groups", func(w http.ResponseWriter, r *http.Request) {
		scope := envelope.NewRootScope(r.Context(), "AddGroupToQueue", r.Header.Get("X-Trace-ID"))
		defer scope.Finish()

		var group models.RegistryGroup
		if err := json.NewDecoder(r.Body).Decode(&group); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		groups.Put(group)

		gameType := models.GameType(chi.URLParam(r, "gameType"))
		if err := service.AddGroupToQueue(scope, gameType, group); err != nil {
			switch {
			case errors.Is(err, models.ErrUnknownGameType):
				http.Error(w, err.Error(), http.StatusNotFound)
			case errors.Is(err, models.ErrPenaltyActive), errors.Is(err, models.ErrGroupAlreadyQueued):
				http.Error(w, err.Error(), http.StatusConflict)
			default:
				http.Error(w, err.Error(), http.StatusInternalServerError)
			}
			return
		}
		w.WriteHeader(http.StatusAccepted)
	})

	router.Delete("/v1/queues/{gameType}/groups/{groupID}", func(w http.ResponseWriter, r *http.Request) {
		scope := envelope.NewRootScope(r.Context(), "RemoveGroupFromQueue", r.Header.Get("X-Trace-ID"))
		defer scope.Finish()

		groupID, err := strconv.ParseInt(chi.URLParam(r, "groupID"), 10, 64)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		gameType := models.GameType(chi.URLParam(r, "gameType"))
		if !service.RemoveGroupFromQueue(scope, gameType, models.GroupID(groupID)) {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusOK)
	})

	router.Post("/v1/games/ended", func(w http.ResponseWriter, r *http.Request) {
		scope := envelope.NewRootScope(r.Context(), "OnGameEnded", r.Header.Get("X-Trace-ID"))
		defer scope.Finish()

		var req gameEndedRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		key, ok := ratingKeys[req.Game.GameType]
		if !ok {
			http.Error(w, models.ErrUnknownGameType.Error(), http.StatusNotFound)
			return
		}
		if req.Summary.EndedAt.IsZero() {
			req.Summary.EndedAt = time.Now()
		}

		// Ratings settle against the history as it was before this game.
		if err := elo.OnGameEnded(scope, req.Game, req.Summary, key); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		if err := store.RecordMatch(scope, req.Game, req.Summary); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		if err := store.MarkMatchEnded(scope, req.Game.MatchID); err != nil {
			scope.Log.WithError(err).Warn("unable to clear active match")
		}
		w.WriteHeader(http.StatusOK)
	})

	router.Post("/v1/games/abandoned", func(w http.ResponseWriter, r *http.Request) {
		scope := envelope.NewRootScope(r.Context(), "ReportAbandon", r.Header.Get("X-Trace-ID"))
		defer scope.Finish()

		var req abandonRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		penalty, err := service.ReportAbandon(scope, req.GameType, req.AccountID, req.MatchID)
		if err != nil {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(penalty)
	})

	return router
}

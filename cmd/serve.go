package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/yobot/leadflow/internal/model"
	"github.com/yobot/leadflow/internal/store"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start webhook server for inbound leads",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initPipeline(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		r := buildRouter(ctx, env, cfg.Pipeline.ItemInterval())
		return startServer(ctx, r, resolvePort(servePort, cfg.Server.Port))
	},
}

func resolvePort(flag, fallback int) int {
	if flag != 0 {
		return flag
	}
	return fallback
}

func buildRouter(ctx context.Context, env *pipelineEnv, itemInterval time.Duration) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type"},
	}))

	r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Post("/webhook/lead", func(w http.ResponseWriter, req *http.Request) {
		var lead model.Lead
		if err := json.NewDecoder(req.Body).Decode(&lead); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
			return
		}
		if lead.Email == "" && lead.FullName() == "" {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "lead needs an email or a name"})
			return
		}
		if lead.Source == "" {
			lead.Source = "webhook"
		}

		// Run the pipeline asynchronously; the run history records the outcome.
		go func() {
			if env.Pipeline == nil {
				return
			}
			result, err := env.Pipeline.Run(ctx, lead)
			if err != nil {
				zap.L().Error("webhook intake failed",
					zap.String("lead", lead.Subject()),
					zap.Error(err),
				)
				return
			}
			zap.L().Info("webhook intake complete",
				zap.String("lead", lead.Subject()),
				zap.String("record_id", result.RecordID),
			)
		}()

		writeJSON(w, http.StatusAccepted, map[string]string{
			"status": "accepted",
			"lead":   lead.Subject(),
		})
	})

	r.Post("/webhook/leads", func(w http.ResponseWriter, req *http.Request) {
		var leads []model.Lead
		if err := json.NewDecoder(req.Body).Decode(&leads); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
			return
		}
		if len(leads) == 0 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "empty lead list"})
			return
		}
		for i := range leads {
			if leads[i].Source == "" {
				leads[i].Source = "webhook"
			}
		}

		go func() {
			if env.Pipeline == nil {
				return
			}
			result, err := env.Pipeline.RunBatch(ctx, leads, itemInterval)
			if err != nil {
				zap.L().Error("webhook batch failed", zap.Error(err))
				return
			}
			zap.L().Info("webhook batch complete",
				zap.Int("processed", result.Processed),
				zap.Int("failed", result.Failed),
			)
		}()

		writeJSON(w, http.StatusAccepted, map[string]any{
			"status": "accepted",
			"leads":  len(leads),
		})
	})

	r.Get("/runs", func(w http.ResponseWriter, req *http.Request) {
		if env.Store == nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "run store unavailable"})
			return
		}
		limit := 50
		if v := req.URL.Query().Get("limit"); v != "" {
			if n, err := strconv.Atoi(v); err == nil && n > 0 {
				limit = n
			}
		}
		filter := store.RunFilter{
			Status: model.RunStatus(req.URL.Query().Get("status")),
			Source: req.URL.Query().Get("source"),
			Limit:  limit,
		}
		runs, err := env.Store.ListRuns(req.Context(), filter)
		if err != nil {
			zap.L().Error("list runs", zap.Error(err))
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
			return
		}
		writeJSON(w, http.StatusOK, runs)
	})

	return r
}

func startServer(ctx context.Context, handler http.Handler, port int) error {
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: handler,
	}

	// Graceful shutdown
	go func() {
		<-ctx.Done()
		zap.L().Info("shutting down server")
		srv.Shutdown(context.Background()) //nolint:errcheck
	}()

	zap.L().Info("starting server", zap.Int("port", port))
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return eris.Wrap(err, "server listen")
	}

	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}

package bootstrap

import (
	"context"
	"errors"
	"net/http"
	"time"

	"interview-backend/internal/shared/server"
	"interview-backend/internal/shared/storage/db"
	"interview-backend/internal/shared/telemetry"
)

const shutdownTimeout = 10 * time.Second

// Serve migrates the database when there is one and serves HTTP until ctx is done.
func Serve(ctx context.Context, app *App) error {
	if app.DB != nil {
		if err := db.RunMigrations(ctx, app.DB); err != nil {
			return err
		}
	}

	srv := &http.Server{
		Addr:              server.Addr(app.Config.Port),
		Handler:           app.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		telemetry.Info("server.start", map[string]any{
			"addr":         srv.Addr,
			"env":          app.Config.Env,
			"llm_provider": app.Provider.Name(),
			"memory_repos": app.DB == nil,
		})
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	telemetry.Info("server.shutdown", nil)
	return srv.Shutdown(shutdownCtx)
}

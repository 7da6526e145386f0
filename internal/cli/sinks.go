package cli

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/inventario/internal/config"
	"github.com/mamadbah2/inventario/internal/repository/mongodb"
	"github.com/mamadbah2/inventario/internal/repository/sheets"
	"github.com/mamadbah2/inventario/internal/service/reporting"
	whatsappsvc "github.com/mamadbah2/inventario/internal/service/whatsapp"
	whatsappclient "github.com/mamadbah2/inventario/pkg/clients/whatsapp"
	"github.com/mamadbah2/inventario/pkg/logger"
)

const connectTimeout = 15 * time.Second

// buildSinks connects every report sink enabled in cfg. The returned cleanup
// releases the connections and is never nil.
func buildSinks(ctx context.Context, cfg *config.Config, log *zap.Logger) ([]reporting.Option, func(), error) {
	var opts []reporting.Option
	cleanup := func() {}

	if cfg.MongoDB.Enabled() {
		connectCtx, cancel := context.WithTimeout(ctx, connectTimeout)
		repo, err := mongodb.NewMongoDBRepository(connectCtx, cfg.MongoDB.URI, cfg.MongoDB.DBName)
		cancel()
		if err != nil {
			return nil, cleanup, fmt.Errorf("init mongodb archive: %w", err)
		}
		opts = append(opts, reporting.WithArchive(repo))
		cleanup = func() {
			closeCtx, cancel := context.WithTimeout(context.Background(), connectTimeout)
			defer cancel()
			if err := repo.Close(closeCtx); err != nil {
				log.Error("failed to close mongodb connection", zap.Error(err))
			}
		}
		log.Info("mongodb report archive enabled", zap.String("db", cfg.MongoDB.DBName))
	}

	if cfg.Sheets.Enabled() {
		repo, err := sheets.NewGoogleSheetRepository(ctx, cfg.Sheets, logger.Named(log, "repo.sheets"))
		if err != nil {
			cleanup()
			return nil, func() {}, fmt.Errorf("init sheets report log: %w", err)
		}
		opts = append(opts, reporting.WithSheet(repo))
		log.Info("google sheets report log enabled")
	}

	if cfg.WhatsApp.Enabled() {
		client := whatsappclient.NewClient(cfg.WhatsApp)
		svc := whatsappsvc.NewMetaWhatsAppService(client, logger.Named(log, "svc.whatsapp"))
		opts = append(opts, reporting.WithNotifier(svc, cfg.WhatsApp.ReportRecipient))
		log.Info("whatsapp report notifications enabled")
	}

	return opts, cleanup, nil
}

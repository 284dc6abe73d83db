package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/joeharson/mushroom-classification/config"
	"github.com/joeharson/mushroom-classification/logging"
	"github.com/joeharson/mushroom-classification/ml"
	"github.com/joeharson/mushroom-classification/pipeline"
)

// app holds what every command needs: the resolved config, the logger and the feature catalog.
type app struct {
	cfg     *config.Config
	logger  *zap.Logger
	catalog *ml.Catalog
}

func setup(cmd *cobra.Command) (*app, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logger, err := logging.New(cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	catalog, err := ml.LoadCatalog(cfg.ML.CatalogPath)
	if err != nil {
		logger.Error("Failed to load feature catalog", zap.Error(err))
		return nil, err
	}

	return &app{cfg: cfg, logger: logger, catalog: catalog}, nil
}

// loadService loads the model artifact. The returned service is usable even when err is set:
// it stays Unloaded and reports ml.ErrModelNotLoaded on every prediction.
func (a *app) loadService() (*ml.Service, error) {
	adapter := ml.NewAdapter()
	err := adapter.Load(a.cfg.ML.ModelType, a.cfg.ML.ModelPath, a.catalog.Len())
	if err != nil {
		a.logger.Error("Error loading model", zap.String("path", a.cfg.ML.ModelPath), zap.Error(err))
	} else {
		a.logger.Info("Model loaded",
			zap.String("type", a.cfg.ML.ModelType),
			zap.String("path", a.cfg.ML.ModelPath))
	}
	return ml.NewService(a.catalog, adapter, a.logger), err
}

func (a *app) loadReference() (*pipeline.Reference, error) {
	ref, err := pipeline.LoadReference(a.cfg.Reference.Path, a.catalog, a.logger)
	if err != nil {
		a.logger.Error("Error loading reference dataset", zap.String("path", a.cfg.Reference.Path), zap.Error(err))
		return nil, err
	}
	a.logger.Info("Reference dataset loaded",
		zap.String("path", ref.Source),
		zap.Int("rows", ref.Rows),
		zap.Int64("rejected", ref.Stats.Rejected))
	return ref, nil
}

func (a *app) close() {
	_ = a.logger.Sync()
}

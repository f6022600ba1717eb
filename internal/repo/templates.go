package repo

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mahinbs/series-shop-beacon-32-sub001/internal/cms"
	"github.com/mahinbs/series-shop-beacon-32-sub001/internal/db"
	"github.com/mahinbs/series-shop-beacon-32-sub001/internal/fallback"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

// templateSnapshot is the JSON stored in FeaturedSeriesTemplate.Snapshot.
type templateSnapshot struct {
	Configs []db.FeaturedSeriesConfig `json:"configs"`
	Badges  []db.FeaturedSeriesBadge  `json:"badges"`
}

// SaveTemplate snapshots every featured-series config and badge under name.
func (c *Content) SaveTemplate(ctx context.Context, name, description string) (db.FeaturedSeriesTemplate, cms.Notice, error) {
	configs, err := c.FeaturedConfigs.List(ctx)
	if err != nil {
		return db.FeaturedSeriesTemplate{}, cms.Notice{}, err
	}
	badges, err := c.FeaturedBadges.List(ctx)
	if err != nil {
		return db.FeaturedSeriesTemplate{}, cms.Notice{}, err
	}

	raw, err := json.Marshal(templateSnapshot{Configs: configs, Badges: badges})
	if err != nil {
		return db.FeaturedSeriesTemplate{}, cms.Notice{}, fmt.Errorf("encode snapshot: %w", err)
	}

	return c.Templates.Create(ctx, db.FeaturedSeriesTemplate{
		Name:        name,
		Description: description,
		Snapshot:    datatypes.JSON(raw),
	})
}

// ApplyTemplate replaces all featured-series configs and badges with the
// template's snapshot. Restored records keep their original ids.
func (c *Content) ApplyTemplate(ctx context.Context, id string) (cms.Notice, error) {
	tmpl, err := c.Templates.Get(ctx, id)
	if err != nil {
		return cms.NoticeFor(err), err
	}

	var snap templateSnapshot
	if err := json.Unmarshal(tmpl.Snapshot, &snap); err != nil {
		err = fmt.Errorf("decode snapshot of template %s: %w", id, err)
		return cms.NoticeFor(err), err
	}

	if err := replaceAll(ctx, c.FeaturedConfigs, snap.Configs); err != nil {
		return cms.NoticeFor(err), err
	}
	if err := replaceAll(ctx, c.FeaturedBadges, snap.Badges); err != nil {
		return cms.NoticeFor(err), err
	}

	c.log.Info("Featured series template applied",
		zap.String("template_id", id),
		zap.Int("configs", len(snap.Configs)),
		zap.Int("badges", len(snap.Badges)))
	return cms.Notice{
		Level:   cms.LevelSuccess,
		Title:   "Success",
		Message: fmt.Sprintf("Template %q applied", tmpl.Name),
	}, nil
}

func replaceAll[T any, PT interface {
	*T
	fallback.Entity
}](ctx context.Context, svc *cms.Service[T, PT], recs []T) error {
	existing, err := svc.List(ctx)
	if err != nil {
		return err
	}
	for i := range existing {
		if _, err := svc.Delete(ctx, PT(&existing[i]).Record().ID); err != nil {
			return err
		}
	}
	for _, rec := range recs {
		if _, _, err := svc.Create(ctx, rec); err != nil {
			return err
		}
	}
	return nil
}

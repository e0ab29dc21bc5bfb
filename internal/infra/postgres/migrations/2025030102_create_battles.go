package migrations

import (
	"context"
	_ "embed"

	"github.com/uptrace/bun"
)

//go:embed 0002_create_battles.sql
var createBattlesSQL string

func init() {
	Migrations.MustRegister(
		func(ctx context.Context, db *bun.DB) error {
			return execScript(ctx, db, createBattlesSQL)
		},
		func(ctx context.Context, db *bun.DB) error {
			return execScript(ctx, db, `
DROP TABLE IF EXISTS battle_rounds;
DROP TABLE IF EXISTS player_stats;
DROP TABLE IF EXISTS battle_matches`)
		},
	)
}

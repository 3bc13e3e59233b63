// migrate aplica o revierte las migraciones SQL embebidas en el binario.
//
// Uso:
//
//	go run ./cmd/migrate            # up
//	go run ./cmd/migrate -down 1    # revierte la última
//	go run ./cmd/migrate -force 3   # fija la versión tras un fallo (estado dirty)
//	go run ./cmd/migrate -version
package main

import (
	"flag"
	"os"

	"github.com/jhoicas/Tienda-api/internal/infrastructure/postgres"
	"github.com/jhoicas/Tienda-api/pkg/config"
	"github.com/jhoicas/Tienda-api/pkg/logger"
)

func main() {
	down := flag.Int("down", -1, "revierte N migraciones (0 = todas)")
	force := flag.Int("force", -1, "fija la versión sin ejecutar SQL")
	version := flag.Bool("version", false, "muestra la versión actual")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}
	log := logger.New(logger.Config{Env: cfg.App.Env, Level: cfg.Log.Level}).Component("migrate")

	m, err := postgres.NewMigrator(cfg.DB.ConnectionString(), log)
	if err != nil {
		log.Fatal().Err(err).Msg("inicializar migraciones")
	}
	defer func() {
		if err := m.Close(); err != nil {
			log.Warn().Err(err).Msg("cerrar migrador")
		}
	}()

	switch {
	case *version:
		v, dirty, err := m.Version()
		if err != nil {
			log.Error().Err(err).Msg("leer versión")
			os.Exit(1)
		}
		log.Info().Uint("version", v).Bool("dirty", dirty).Msg("versión actual")
	case *force >= 0:
		err = m.Force(*force)
	case *down >= 0:
		err = m.Down(*down)
	default:
		err = m.Up()
	}
	if err != nil {
		log.Error().Err(err).Msg("migraciones")
		os.Exit(1)
	}
}

package main

import (
	"neurosense-client/internal/mockapi"
	"neurosense-client/internal/shared/config"
	"neurosense-client/internal/shared/telemetry"
)

func main() {
	cfg := config.Load()
	router := mockapi.NewRouter(cfg)

	addr := ":" + cfg.Port
	telemetry.Info("server.start", map[string]any{
		"addr": addr,
		"env":  cfg.Env,
	})
	if err := router.Run(addr); err != nil {
		telemetry.Error("server.exit", map[string]any{"error": err.Error()})
	}
}

// Standalone API server, configured from the environment. The same surface
// is available through `airrev serve`; this binary exists for container
// deployments that want no CLI in the image.
package main

import (
	"github.com/JohnKimaiyo/Airline-Revenue-Analytics-App/api"
	"github.com/JohnKimaiyo/Airline-Revenue-Analytics-App/demand"
	"github.com/JohnKimaiyo/Airline-Revenue-Analytics-App/demand/model"
	"github.com/JohnKimaiyo/Airline-Revenue-Analytics-App/demand/store"
	"github.com/JohnKimaiyo/Airline-Revenue-Analytics-App/pkg/platform"
)

func main() {
	log := platform.InitLogger()

	predictionsPath := platform.GetEnv("PREDICTIONS_PATH", store.DefaultArtifactPath)
	dataDir := platform.GetEnv("DATA_DIR", "data")
	modelPath := platform.GetEnv("MODEL_PATH", model.DefaultArtifactPath)

	st, err := demand.LoadStore(predictionsPath, dataDir, log)
	if err != nil {
		platform.LogFatal(log, "load prediction store", err)
	}

	if _, err := model.Load(modelPath); err != nil {
		log.Warn("model artifact not loadable, quote endpoint degraded", "error", err)
	}

	cfg := api.DefaultConfig()
	cfg.Port = platform.GetEnvInt("PORT", 8080)

	server := api.NewServer(&api.Context{
		Store:     st,
		ModelPath: modelPath,
	}, cfg, log)

	if err := server.StartWithGracefulShutdown(); err != nil {
		platform.LogFatal(log, "api server", err)
	}
}
